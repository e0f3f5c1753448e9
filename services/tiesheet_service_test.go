package services

import (
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusPtr(s models.TiesheetStatus) *models.TiesheetStatus { return &s }

func winners(players []models.TiesheetPlayer) []uuid.UUID {
	result := make([]uuid.UUID, 0)
	for _, p := range players {
		if p.IsWinner {
			result = append(result, p.ParticipantID)
		}
	}
	return result
}

func TestCreateTiesheetRosterDedup(t *testing.T) {
	f := newFixture(t)
	eventID, first, ids := f.qualifiedStage(t, 2)
	p1, p2 := ids[0], ids[1]

	tiesheet, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: first.ID, ParticipantIDs: []uuid.UUID{p1, p2}})
	require.NoError(t, err)
	assert.Equal(t, models.TiesheetScheduled, tiesheet.Status)
	assert.Len(t, tiesheet.Players, 2)

	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: first.ID, ParticipantIDs: []uuid.UUID{p2, p1}})
	assert.ErrorIs(t, err, ErrTiesheetConflict, "roster order does not matter")
	assert.ErrorIs(t, err, ErrConflict)

	second, err := f.stages.CreateStage(f.ctx, eventID, "Final")
	require.NoError(t, err)
	_, err = f.qualifiers.Promote(f.ctx, eventID, first.ID, second.ID, ids)
	require.NoError(t, err)
	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: second.ID, ParticipantIDs: []uuid.UUID{p1, p2}})
	assert.NoError(t, err, "the same pair may meet again in another stage")
}

func TestCreateTiesheetValidation(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 3)
	outsider := f.participants(t, 1)[0]

	_, otherStage, _ := f.qualifiedStage(t, 2)
	foreignGroup, err := f.groups.CreateGroup(f.ctx, otherStage.ID, "Elsewhere", nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input TiesheetInput
		want  error
		kind  error
	}{
		{"duplicate participant", TiesheetInput{StageID: stage.ID, ParticipantIDs: []uuid.UUID{ids[0], ids[0]}}, ErrRosterTooSmall, ErrBadRequest},
		{"not qualified", TiesheetInput{StageID: stage.ID, ParticipantIDs: []uuid.UUID{ids[0], outsider}}, ErrNotQualified, ErrBadRequest},
		{"unknown stage", TiesheetInput{StageID: uuid.New(), ParticipantIDs: ids[:2]}, ErrStageNotFound, ErrNotFound},
		{"bad status", TiesheetInput{StageID: stage.ID, Status: "paused", ParticipantIDs: ids[:2]}, ErrInvalidStatus, ErrBadRequest},
		{"bad time", TiesheetInput{StageID: stage.ID, ScheduledTime: "25:99", ParticipantIDs: ids[:2]}, ErrInvalidScheduledTime, ErrBadRequest},
		{"group of another stage", TiesheetInput{StageID: stage.ID, GroupID: &foreignGroup.ID, ParticipantIDs: ids[:2]}, ErrGroupStageMismatch, ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tiesheets.CreateTiesheet(f.ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestEditTiesheetStatusAndWinner(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 2)
	p1, p2 := ids[0], ids[1]

	tiesheet, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ParticipantIDs: ids})
	require.NoError(t, err)

	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{OverallWinner: &p1})
	assert.ErrorIs(t, err, ErrWinnerRequiresCompletion)

	detail, err := f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{Status: statusPtr(models.TiesheetOngoing)})
	require.NoError(t, err)
	assert.Equal(t, models.TiesheetOngoing, detail.Status)

	detail, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{
		Status:        statusPtr(models.TiesheetCompleted),
		OverallWinner: &p1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p1}, winners(detail.Players))

	detail, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{OverallWinner: &p2})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2}, winners(detail.Players), "at most one overall winner")

	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{Status: statusPtr(models.TiesheetOngoing)})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	stranger := uuid.New()
	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{OverallWinner: &stranger})
	assert.ErrorIs(t, err, ErrTiesheetPlayerNotFound)

	got, err := f.tiesheets.GetTiesheet(f.ctx, tiesheet.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p2}, winners(got.Players), "failed edits roll back")

	_, err = f.tiesheets.EditTiesheet(f.ctx, uuid.New(), EditTiesheetInput{})
	assert.ErrorIs(t, err, ErrTiesheetNotFound)
}

func TestEditTiesheetMatchesAndColumns(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 2)
	p1, p2 := ids[0], ids[1]

	tiesheet, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ParticipantIDs: ids})
	require.NoError(t, err)
	matches, err := f.matches.RecordMatches(f.ctx, tiesheet.ID, RecordMatchesInput{
		Matches: []MatchInput{{Players: []PlayerResult{{ParticipantID: p1, Points: "2"}, {ParticipantID: p2, Points: "1"}}}},
	})
	require.NoError(t, err)
	match := matches[0]

	name := "Leg 1"
	points := "3"
	yes := true
	points1 := f.columnID(t, stage.ID, "Points")
	detail, err := f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{
		Matches: []MatchUpdate{{
			MatchID: match.ID,
			Name:    &name,
			Scores:  []ScoreUpdate{{ScoreID: match.Scores[0].ID, Points: &points, Winner: &yes}},
		}},
		PlayerColumns: []PlayerColumns{{ParticipantID: p1, Columns: []ColumnWrite{{ColumnID: points1, Value: "3"}}}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Matches, 1)
	assert.Equal(t, "Leg 1", detail.Matches[0].Name)
	assert.Equal(t, "3", detail.Matches[0].Scores[0].Points)
	assert.True(t, detail.Matches[0].Scores[0].Winner)
	assert.Equal(t, "1", detail.Matches[0].Scores[1].Points, "untouched scores keep their values")

	v, err := f.valueRepo.Get(f.ctx, nil, p1, points1)
	require.NoError(t, err)
	assert.Equal(t, "3", v.Value)
	assert.Contains(t, f.notifier.types(), models.UpdateStandingsChanged)

	missing := uuid.New()
	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{Matches: []MatchUpdate{{MatchID: missing}}})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{
		Matches: []MatchUpdate{{MatchID: match.ID, Scores: []ScoreUpdate{{ScoreID: missing}}}},
	})
	assert.ErrorIs(t, err, ErrMatchScoreNotFound)

	blank := " "
	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{Matches: []MatchUpdate{{MatchID: match.ID, Name: &blank}}})
	assert.ErrorIs(t, err, ErrMatchNameRequired)

	final, err := f.stages.CreateStage(f.ctx, eventID, "Final")
	require.NoError(t, err)
	foreignColumn := f.columnID(t, final.ID, "Points")
	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{
		PlayerColumns: []PlayerColumns{{ParticipantID: p1, Columns: []ColumnWrite{{ColumnID: foreignColumn, Value: "9"}}}},
	})
	assert.ErrorIs(t, err, ErrColumnStageMismatch)

	outsider := f.participants(t, 1)[0]
	_, err = f.tiesheets.EditTiesheet(f.ctx, tiesheet.ID, EditTiesheetInput{
		PlayerColumns: []PlayerColumns{{ParticipantID: outsider, Columns: []ColumnWrite{{ColumnID: points1, Value: "9"}}}},
	})
	assert.ErrorIs(t, err, ErrTiesheetPlayerNotFound)
}

func TestListTiesheets(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 3)

	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	f.tiesheets.(*tiesheetService).now = func() time.Time { return now }

	today := models.NewDate(now)
	tomorrow := models.NewDate(now.AddDate(0, 0, 1))
	_, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ScheduledDate: &today, ScheduledTime: "18:30", ParticipantIDs: ids[:2]})
	require.NoError(t, err)
	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ScheduledDate: &tomorrow, ParticipantIDs: ids[1:]})
	require.NoError(t, err)

	all, err := f.tiesheets.ListTiesheets(f.ctx, eventID, nil, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	todays, err := f.tiesheets.ListTiesheets(f.ctx, eventID, &stage.ID, true)
	require.NoError(t, err)
	require.Len(t, todays, 1)
	assert.Equal(t, "18:30", todays[0].ScheduledTime)
	require.NotNil(t, todays[0].ScheduledDate)
	assert.Equal(t, "2026-10-18", todays[0].ScheduledDate.String())

	_, err = f.tiesheets.ListTiesheets(f.ctx, f.event(t), &stage.ID, false)
	assert.ErrorIs(t, err, ErrStageMismatch)
}

func TestDeleteTiesheetCascades(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 2)

	tiesheet, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ParticipantIDs: ids})
	require.NoError(t, err)
	_, err = f.matches.RecordMatches(f.ctx, tiesheet.ID, RecordMatchesInput{
		Matches: []MatchInput{{Name: "Opening", Players: []PlayerResult{{ParticipantID: ids[0], Points: "1"}, {ParticipantID: ids[1], Points: "0"}}}},
	})
	require.NoError(t, err)

	require.NoError(t, f.tiesheets.DeleteTiesheet(f.ctx, tiesheet.ID))
	assert.ErrorIs(t, f.tiesheets.DeleteTiesheet(f.ctx, tiesheet.ID), ErrTiesheetNotFound)
	assert.Contains(t, f.notifier.types(), models.UpdateTiesheetDeleted)

	for _, table := range []string{"tiesheet_players", "matches", "match_scores"} {
		var n int
		require.NoError(t, f.db.QueryRowContext(f.ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}

	// The roster is free again.
	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, ParticipantIDs: ids})
	assert.NoError(t, err)
}

func TestScheduleGroup(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 4)

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", ids)
	require.NoError(t, err)

	// One pair is already on the board.
	_, err = f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, GroupID: &group.ID, ParticipantIDs: ids[:2]})
	require.NoError(t, err)

	created, err := f.tiesheets.ScheduleGroup(f.ctx, group.ID, ScheduleInput{Generator: brackets.GeneratorRoundRobin})
	require.NoError(t, err)
	assert.Len(t, created, 5)
	for _, ts := range created {
		require.NotNil(t, ts.GroupID)
		assert.Equal(t, group.ID, *ts.GroupID)
	}

	again, err := f.tiesheets.ScheduleGroup(f.ctx, group.ID, ScheduleInput{})
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = f.tiesheets.ScheduleGroup(f.ctx, group.ID, ScheduleInput{Generator: "swiss"})
	assert.ErrorIs(t, err, ErrUnknownGenerator)
}

func TestScheduleStageSeedsByPoints(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 4)
	points := f.columnID(t, stage.ID, "Points")

	// ids[3] tops the table, ids[0] is second.
	require.NoError(t, f.columns.SetValue(f.ctx, ids[3], points, "9"))
	require.NoError(t, f.columns.SetValue(f.ctx, ids[0], points, "6"))

	created, err := f.tiesheets.ScheduleStage(f.ctx, stage.ID, ScheduleInput{})
	require.NoError(t, err)
	require.Len(t, created, 2)

	// Seeds [3, 0, 1, 2]: 1st plays 4th and 2nd plays 3rd.
	rosters := make([][]uuid.UUID, len(created))
	for i, ts := range created {
		detail, err := f.tiesheets.GetTiesheet(f.ctx, ts.ID)
		require.NoError(t, err)
		for _, p := range detail.Players {
			rosters[i] = append(rosters[i], p.ParticipantID)
		}
	}
	assert.ElementsMatch(t, [][]uuid.UUID{{ids[3], ids[2]}, {ids[0], ids[1]}}, rosters)

	_, err = f.tiesheets.ScheduleStage(f.ctx, uuid.New(), ScheduleInput{})
	assert.ErrorIs(t, err, ErrStageNotFound)
}
