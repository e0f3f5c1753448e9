package services

import (
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberIDs(g *models.Group) []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ParticipantID
	}
	return ids
}

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 3)

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", ids[:2])
	require.NoError(t, err)
	assert.Equal(t, eventID, group.EventID)
	assert.ElementsMatch(t, ids[:2], memberIDs(group))

	_, err = f.groups.CreateGroup(f.ctx, stage.ID, "Group B", ids[1:])
	assert.ErrorIs(t, err, ErrGroupMemberConflict, "a participant sits in one group per stage")

	outsider := f.participants(t, 1)[0]
	_, err = f.groups.CreateGroup(f.ctx, stage.ID, "Group C", []uuid.UUID{outsider})
	assert.ErrorIs(t, err, ErrNotQualified)

	_, err = f.groups.CreateGroup(f.ctx, uuid.New(), "Group D", nil)
	assert.ErrorIs(t, err, ErrStageNotFound)

	groups, err := f.groups.ListGroups(f.ctx, stage.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1, "failed creates leave nothing behind")
}

func TestUpdateGroup(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 4)

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", ids[:2])
	require.NoError(t, err)

	name := "Group Alpha"
	roster := []uuid.UUID{ids[1], ids[2]}
	updated, err := f.groups.UpdateGroup(f.ctx, group.ID, GroupUpdate{Name: &name, ParticipantIDs: &roster})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.ElementsMatch(t, roster, memberIDs(updated))

	_, err = f.groups.UpdateGroup(f.ctx, uuid.New(), GroupUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	other, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group B", ids[3:])
	require.NoError(t, err)
	steal := []uuid.UUID{ids[3]}
	_, err = f.groups.UpdateGroup(f.ctx, group.ID, GroupUpdate{ParticipantIDs: &steal})
	assert.ErrorIs(t, err, ErrGroupMemberConflict)

	// The failed replacement rolled back.
	got, err := f.groups.GetGroup(f.ctx, group.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, roster, memberIDs(got))
	got, err = f.groups.GetGroup(f.ctx, other.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[3:], memberIDs(got))
}

func TestGroupMembers(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 3)

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", ids[:1])
	require.NoError(t, err)

	require.NoError(t, f.groups.AddMember(f.ctx, group.ID, ids[1]))
	assert.ErrorIs(t, f.groups.AddMember(f.ctx, group.ID, ids[1]), ErrGroupMemberConflict)
	assert.ErrorIs(t, f.groups.AddMember(f.ctx, uuid.New(), ids[2]), ErrGroupNotFound)

	require.NoError(t, f.groups.RemoveMember(f.ctx, group.ID, ids[0]))
	assert.ErrorIs(t, f.groups.RemoveMember(f.ctx, group.ID, ids[0]), ErrGroupMemberNotFound)
	assert.ErrorIs(t, f.groups.RemoveMember(f.ctx, group.ID, ids[2]), ErrNotFound)

	got, err := f.groups.GetGroup(f.ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[1]}, memberIDs(got))
	assert.Contains(t, f.notifier.types(), models.UpdateGroupsChanged)
}

func TestDeleteGroupDetachesTiesheets(t *testing.T) {
	f := newFixture(t)
	_, stage, ids := f.qualifiedStage(t, 2)

	group, err := f.groups.CreateGroup(f.ctx, stage.ID, "Group A", ids)
	require.NoError(t, err)
	tiesheet, err := f.tiesheets.CreateTiesheet(f.ctx, TiesheetInput{StageID: stage.ID, GroupID: &group.ID, ParticipantIDs: ids})
	require.NoError(t, err)

	require.NoError(t, f.groups.DeleteGroup(f.ctx, group.ID))
	assert.ErrorIs(t, f.groups.DeleteGroup(f.ctx, group.ID), ErrGroupNotFound)

	detail, err := f.tiesheets.GetTiesheet(f.ctx, tiesheet.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.GroupID)
}
