package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiesheetStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to TiesheetStatus
		want     bool
	}{
		{TiesheetScheduled, TiesheetScheduled, true},
		{TiesheetScheduled, TiesheetOngoing, true},
		{TiesheetScheduled, TiesheetCompleted, true},
		{TiesheetOngoing, TiesheetCompleted, true},
		{TiesheetOngoing, TiesheetScheduled, false},
		{TiesheetCompleted, TiesheetOngoing, false},
		{TiesheetCompleted, TiesheetScheduled, false},
		{TiesheetCompleted, TiesheetCompleted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, TiesheetOngoing.Valid())
	assert.False(t, TiesheetStatus("paused").Valid())
}

func TestDateScan(t *testing.T) {
	want := "2026-10-18"
	sources := []any{
		time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC),
		"2026-10-18",
		[]byte("2026-10-18"),
		"2026-10-18T00:00:00Z",
	}
	for _, src := range sources {
		var d Date
		require.NoError(t, d.Scan(src), "%T", src)
		assert.Equal(t, want, d.String())
	}

	var d Date
	assert.Error(t, d.Scan(42))
	assert.Error(t, d.Scan("18/10/2026"))
}

func TestDateJSON(t *testing.T) {
	var ts struct {
		Date *Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2026-10-18"}`), &ts))
	require.NotNil(t, ts.Date)

	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-10-18"}`, string(out))

	v, err := ts.Date.Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18", v)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"tomorrow"}`), &ts))
}
