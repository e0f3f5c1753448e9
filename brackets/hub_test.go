package brackets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublish(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run(ctx)

	eventID := uuid.Must(uuid.NewV7())
	otherEventID := uuid.Must(uuid.NewV7())
	client := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomFor(eventID)}

	require.True(t, hub.Join(client))
	require.Eventually(t, func() bool { return hub.RoomSize(RoomFor(eventID)) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(otherEventID, models.LiveUpdate{Type: models.UpdateStandingsChanged})
	hub.Publish(eventID, models.LiveUpdate{
		Type:    models.UpdateTiesheetChanged,
		Payload: map[string]string{"tiesheet_id": "t1"},
	})

	select {
	case raw := <-client.Send:
		var msg struct {
			Type    string            `json:"type"`
			Payload map[string]string `json:"payload"`
			RoomID  string            `json:"room_id"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, models.UpdateTiesheetChanged, msg.Type)
		assert.Equal(t, "t1", msg.Payload["tiesheet_id"])
		assert.Equal(t, RoomFor(eventID), msg.RoomID)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
	assert.Empty(t, client.Send, "update for another event must not be delivered")

	cancel()
	require.Eventually(t, func() bool {
		client.Mu.Lock()
		defer client.Mu.Unlock()
		return client.IsClosed
	}, time.Second, 5*time.Millisecond)
	assert.False(t, hub.Join(&Client{Hub: hub, Send: make(chan []byte, 1), Room: RoomFor(eventID)}))
}

func TestHubPublishWithoutRoom(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NotPanics(t, func() {
		hub.Publish(uuid.Must(uuid.NewV7()), models.LiveUpdate{Type: models.UpdateGroupsChanged})
	})
}
