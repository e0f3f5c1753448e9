package services

import (
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowIDs(rows []models.StandingsRow) []uuid.UUID {
	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ParticipantID
	}
	return ids
}

func TestPivotStandings(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 3)
	points := f.columnID(t, stage.ID, "Points")
	require.NoError(t, f.columns.SetValue(f.ctx, ids[2], points, "7"))

	page, err := f.standings.PivotStandings(f.ctx, eventID, &stage.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, defaultColumns, page.Columns)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, rowIDs(page.Rows), "points first, ties in qualifier order")
	assert.Equal(t, "7", page.Rows[0].Values["Points"])
	assert.Equal(t, stage.Name, page.Rows[0].StageName)

	_, err = f.standings.PivotStandings(f.ctx, eventID, nil, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidPagination)
	_, err = f.standings.PivotStandings(f.ctx, uuid.New(), nil, 1, 10)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = f.standings.PivotStandings(f.ctx, f.event(t), &stage.ID, 1, 10)
	assert.ErrorIs(t, err, ErrStageMismatch)
}

func TestPivotStandingsPagination(t *testing.T) {
	f := newFixture(t)
	eventID, stage, _ := f.qualifiedStage(t, 5)

	full, err := f.standings.PivotStandings(f.ctx, eventID, &stage.ID, 1, 100)
	require.NoError(t, err)

	var paged []uuid.UUID
	for p := 1; p <= 3; p++ {
		page, err := f.standings.PivotStandings(f.ctx, eventID, &stage.ID, p, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		paged = append(paged, rowIDs(page.Rows)...)
	}
	assert.Equal(t, rowIDs(full.Rows), paged, "pages concatenate to the full ordering")

	beyond, err := f.standings.PivotStandings(f.ctx, eventID, &stage.ID, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond.Rows)
	assert.Equal(t, 5, beyond.Total)
}

func TestPivotStandingsAcrossStages(t *testing.T) {
	f := newFixture(t)
	eventID, first, ids := f.qualifiedStage(t, 2)
	final, err := f.stages.CreateStage(f.ctx, eventID, "Final")
	require.NoError(t, err)
	_, err = f.qualifiers.Promote(f.ctx, eventID, first.ID, final.ID, ids[:1])
	require.NoError(t, err)
	_, err = f.columns.CreateColumn(f.ctx, final.ID, ColumnInput{Name: "Time", DefaultValue: "-"})
	require.NoError(t, err)

	page, err := f.standings.PivotStandings(f.ctx, eventID, nil, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total, "one row per stage and participant")
	require.Len(t, page.Rows, 3)
	assert.Equal(t, first.ID, page.Rows[0].StageID)
	assert.Equal(t, first.ID, page.Rows[1].StageID)
	assert.Equal(t, final.ID, page.Rows[2].StageID)
	assert.Contains(t, page.Columns, "Time")

	_, ok := page.Rows[0].Values["Time"]
	assert.False(t, ok, "columns of other stages stay absent")
}

func TestPivotStandingsPointsColumnPerStage(t *testing.T) {
	f := newFixture(t)
	eventID, first, ids := f.qualifiedStage(t, 2)
	second, err := f.stages.CreateStage(f.ctx, eventID, "Round 2")
	require.NoError(t, err)
	_, err = f.qualifiers.Promote(f.ctx, eventID, first.ID, second.ID, ids)
	require.NoError(t, err)

	secondPoints := f.columnID(t, second.ID, "Points")
	lower := "points"
	_, err = f.columns.UpdateColumn(f.ctx, secondPoints, ColumnUpdate{Name: &lower})
	require.NoError(t, err)
	require.NoError(t, f.columns.SetValue(f.ctx, ids[1], secondPoints, "7"))
	require.NoError(t, f.columns.SetValue(f.ctx, ids[1], f.columnID(t, first.ID, "Points"), "2"))

	page, err := f.standings.PivotStandings(f.ctx, eventID, nil, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Rows, 4)
	for i, want := range []struct {
		stage       uuid.UUID
		participant uuid.UUID
	}{
		{first.ID, ids[1]},
		{first.ID, ids[0]},
		{second.ID, ids[1]},
		{second.ID, ids[0]},
	} {
		assert.Equal(t, want.stage, page.Rows[i].StageID, "row %d", i)
		assert.Equal(t, want.participant, page.Rows[i].ParticipantID, "row %d", i)
	}

	stagePage, err := f.standings.PivotStandings(f.ctx, eventID, &second.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, stagePage.Rows, 2)
	assert.Equal(t, ids[1], stagePage.Rows[0].ParticipantID)
}

func TestGroupStandings(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 3)
	p1, p2 := ids[0], ids[1]

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", []uuid.UUID{p1, p2})
	require.NoError(t, err)
	_, err = f.groups.CreateGroup(f.ctx, stage.ID, "Group B", nil)
	require.NoError(t, err)
	final, err := f.stages.CreateStage(f.ctx, eventID, "Final")
	require.NoError(t, err)

	points := f.columnID(t, stage.ID, "Points")
	require.NoError(t, f.columns.SetValue(f.ctx, p1, points, "3"))
	require.NoError(t, f.columns.SetValue(f.ctx, p2, points, "1"))

	tree, err := f.standings.GroupStandings(f.ctx, eventID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, stage.ID, tree[0].StageID)
	assert.Equal(t, final.ID, tree[1].StageID)
	assert.Empty(t, tree[1].Groups)

	require.Len(t, tree[0].Groups, 2)
	a := tree[0].Groups[0]
	assert.Equal(t, group.ID, a.GroupID)
	assert.Empty(t, tree[0].Groups[1].Members)

	require.Len(t, a.Members, 2)
	assert.Equal(t, p1, a.Members[0].ParticipantID)
	assert.Equal(t, p2, a.Members[1].ParticipantID)
	require.Len(t, a.Members[0].Columns, len(defaultColumns))
	last := a.Members[0].Columns[len(defaultColumns)-1]
	assert.Equal(t, "Points", last.Name)
	assert.Equal(t, "3", last.Value)
	assert.Equal(t, "1", a.Members[1].Columns[len(defaultColumns)-1].Value)

	_, err = f.standings.GroupStandings(f.ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEventNotFound)
}
