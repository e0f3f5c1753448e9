package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

// GroupUpdate changes the name and/or the roster. A non-nil ParticipantIDs
// replaces the whole roster.
type GroupUpdate struct {
	Name           *string      `json:"name"`
	ParticipantIDs *[]uuid.UUID `json:"participant_ids"`
}

type GroupService interface {
	CreateGroup(ctx context.Context, stageID uuid.UUID, name string, participantIDs []uuid.UUID) (*models.Group, error)
	UpdateGroup(ctx context.Context, groupID uuid.UUID, update GroupUpdate) (*models.Group, error)
	AddMember(ctx context.Context, groupID, participantID uuid.UUID) error
	RemoveMember(ctx context.Context, groupID, participantID uuid.UUID) error
	DeleteGroup(ctx context.Context, groupID uuid.UUID) error
	GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error)
	ListGroups(ctx context.Context, stageID uuid.UUID) ([]models.Group, error)
}

type groupService struct {
	db            *sql.DB
	stageRepo     repositories.StageRepository
	groupRepo     repositories.GroupRepository
	qualifierRepo repositories.QualifierRepository
	notifier      Notifier
	logger        *slog.Logger
}

func NewGroupService(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	groupRepo repositories.GroupRepository,
	qualifierRepo repositories.QualifierRepository,
	notifier Notifier,
	logger *slog.Logger,
) GroupService {
	return &groupService{
		db:            db,
		stageRepo:     stageRepo,
		groupRepo:     groupRepo,
		qualifierRepo: qualifierRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

// validateMembers checks that every participant is qualified for the stage
// and not already placed in another group of it.
func (s *groupService) validateMembers(ctx context.Context, tx *sql.Tx, stageID, groupID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	qualified, err := s.qualifierRepo.QualifiedSet(ctx, tx, stageID, ids)
	if err != nil {
		return handleRepositoryError(err, "validate group members")
	}
	for _, id := range ids {
		if !qualified[id] {
			return fmt.Errorf("%w: %s", ErrNotQualified, id)
		}
	}

	grouped, err := s.groupRepo.GroupedElsewhere(ctx, tx, stageID, groupID, ids)
	if err != nil {
		return handleRepositoryError(err, "validate group members")
	}
	if len(grouped) > 0 {
		return fmt.Errorf("%w: %s", ErrGroupMemberConflict, grouped[0])
	}
	return nil
}

// CreateGroup creates the group together with its members.
func (s *groupService) CreateGroup(ctx context.Context, stageID uuid.UUID, name string, participantIDs []uuid.UUID) (*models.Group, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	ids := uniqueIDs(participantIDs)

	group := &models.Group{ID: uuid.Must(uuid.NewV7()), StageID: stageID, Name: name}
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		stage, err := s.stageRepo.GetByID(ctx, tx, stageID)
		if err != nil {
			return handleRepositoryError(err, "create group")
		}
		group.EventID = stage.EventID

		if err := s.validateMembers(ctx, tx, stageID, group.ID, ids); err != nil {
			return err
		}
		if err := s.groupRepo.Create(ctx, tx, group); err != nil {
			return handleRepositoryError(err, "create group")
		}
		if err := s.groupRepo.AddMembers(ctx, tx, group.ID, ids); err != nil {
			return handleRepositoryError(err, "add group members")
		}
		group.Members, err = s.groupRepo.ListMembers(ctx, tx, group.ID)
		return handleRepositoryError(err, "list group members")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "group created",
		slog.String("group_id", group.ID.String()),
		slog.Int("members", len(group.Members)))
	notify(s.notifier, group.EventID, models.UpdateGroupsChanged, group)
	return group, nil
}

// UpdateGroup renames the group and/or replaces its roster. Partial roster
// changes go through AddMember and RemoveMember.
func (s *groupService) UpdateGroup(ctx context.Context, groupID uuid.UUID, update GroupUpdate) (*models.Group, error) {
	var name string
	if update.Name != nil {
		var err error
		if name, err = validateName(*update.Name); err != nil {
			return nil, err
		}
	}

	var group *models.Group
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		group, err = s.groupRepo.GetByID(ctx, tx, groupID)
		if err != nil {
			return handleRepositoryError(err, "update group")
		}

		if update.Name != nil {
			if err := s.groupRepo.UpdateName(ctx, tx, groupID, name); err != nil {
				return handleRepositoryError(err, "update group")
			}
			group.Name = name
		}

		if update.ParticipantIDs != nil {
			ids := uniqueIDs(*update.ParticipantIDs)
			if err := s.validateMembers(ctx, tx, group.StageID, groupID, ids); err != nil {
				return err
			}
			if err := s.groupRepo.DeleteMembers(ctx, tx, groupID); err != nil {
				return handleRepositoryError(err, "replace group members")
			}
			if err := s.groupRepo.AddMembers(ctx, tx, groupID, ids); err != nil {
				return handleRepositoryError(err, "replace group members")
			}
		}

		group.Members, err = s.groupRepo.ListMembers(ctx, tx, groupID)
		return handleRepositoryError(err, "list group members")
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, group.EventID, models.UpdateGroupsChanged, group)
	return group, nil
}

func (s *groupService) AddMember(ctx context.Context, groupID, participantID uuid.UUID) error {
	var group *models.Group
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		group, err = s.groupRepo.GetByID(ctx, tx, groupID)
		if err != nil {
			return handleRepositoryError(err, "add group member")
		}
		ids := []uuid.UUID{participantID}
		if err := s.validateMembers(ctx, tx, group.StageID, groupID, ids); err != nil {
			return err
		}
		return handleRepositoryError(s.groupRepo.AddMembers(ctx, tx, groupID, ids), "add group member")
	})
	if err != nil {
		return err
	}

	notify(s.notifier, group.EventID, models.UpdateGroupsChanged, map[string]string{
		"group_id": groupID.String(), "added_participant_id": participantID.String(),
	})
	return nil
}

// RemoveMember fails with ErrGroupMemberNotFound when the participant is not
// in the group.
func (s *groupService) RemoveMember(ctx context.Context, groupID, participantID uuid.UUID) error {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return handleRepositoryError(err, "remove group member")
	}
	if err := s.groupRepo.RemoveMember(ctx, nil, groupID, participantID); err != nil {
		return handleRepositoryError(err, "remove group member")
	}

	notify(s.notifier, group.EventID, models.UpdateGroupsChanged, map[string]string{
		"group_id": groupID.String(), "removed_participant_id": participantID.String(),
	})
	return nil
}

func (s *groupService) DeleteGroup(ctx context.Context, groupID uuid.UUID) error {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return handleRepositoryError(err, "delete group")
	}
	if err := s.groupRepo.Delete(ctx, nil, groupID); err != nil {
		return handleRepositoryError(err, "delete group")
	}
	notify(s.notifier, group.EventID, models.UpdateGroupsChanged, map[string]string{"deleted_group_id": groupID.String()})
	return nil
}

func (s *groupService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, handleRepositoryError(err, "get group")
	}
	group.Members, err = s.groupRepo.ListMembers(ctx, nil, groupID)
	if err != nil {
		return nil, handleRepositoryError(err, "get group")
	}
	return group, nil
}

func (s *groupService) ListGroups(ctx context.Context, stageID uuid.UUID) ([]models.Group, error) {
	if _, err := s.stageRepo.GetByID(ctx, nil, stageID); err != nil {
		return nil, handleRepositoryError(err, "list groups")
	}
	groups, err := s.groupRepo.ListByStage(ctx, nil, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "list groups")
	}
	for i := range groups {
		groups[i].Members, err = s.groupRepo.ListMembers(ctx, nil, groups[i].ID)
		if err != nil {
			return nil, handleRepositoryError(err, "list groups")
		}
	}
	return groups, nil
}
