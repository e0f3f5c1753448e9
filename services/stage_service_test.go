package services

import (
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedEvent(t *testing.T) {
	f := newFixture(t)
	eventID := f.event(t)

	first, err := f.stages.SeedEvent(f.ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, firstStageName, first.Name)
	assert.Equal(t, 1, first.RoundOrder)

	columns, err := f.columns.ListColumns(f.ctx, first.ID)
	require.NoError(t, err)
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		assert.Equal(t, "0", c.DefaultValue)
		assert.True(t, c.ToShow)
	}
	assert.Equal(t, defaultColumns, names)

	again, err := f.stages.SeedEvent(f.ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "seeding twice keeps the first stage")

	stages, err := f.stages.ListStages(f.ctx, eventID)
	require.NoError(t, err)
	assert.Len(t, stages, 1)

	_, err = f.stages.SeedEvent(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateStageAppendsRound(t *testing.T) {
	f := newFixture(t)
	eventID := f.event(t)

	_, err := f.stages.SeedEvent(f.ctx, eventID)
	require.NoError(t, err)
	second, err := f.stages.CreateStage(f.ctx, eventID, "  Semi Final ")
	require.NoError(t, err)
	assert.Equal(t, "Semi Final", second.Name)
	assert.Equal(t, 2, second.RoundOrder)

	_, err = f.stages.CreateStage(f.ctx, eventID, " ")
	assert.ErrorIs(t, err, ErrBadRequest)

	stages, err := f.stages.ListStages(f.ctx, eventID)
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.Equal(t, second.ID, stages[1].ID)

	assert.Contains(t, f.notifier.types(), models.UpdateStagesChanged)
}

func TestRenameAndDeleteStage(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 2)

	renamed, err := f.stages.RenameStage(f.ctx, stage.ID, "Group Phase")
	require.NoError(t, err)
	assert.Equal(t, "Group Phase", renamed.Name)

	_, err = f.stages.RenameStage(f.ctx, uuid.New(), "x")
	assert.ErrorIs(t, err, ErrStageNotFound)

	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ParticipantIDs: ids})
	require.NoError(t, err)

	require.NoError(t, f.stages.DeleteStage(f.ctx, stage.ID))

	_, err = f.stages.GetStage(f.ctx, stage.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Columns, values, qualifiers and tiesheets go with the stage.
	for _, table := range []string{"standing_columns", "column_values", "qualifiers", "tiesheets", "tiesheet_players"} {
		var n int
		require.NoError(t, f.db.QueryRowContext(f.ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	qualifiers, err := f.qualifiers.ListQualifiersByEvent(f.ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, qualifiers)
}
