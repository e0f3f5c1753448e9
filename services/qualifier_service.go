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

type QualifierService interface {
	AddQualifiers(ctx context.Context, eventID, stageID uuid.UUID, participantIDs []uuid.UUID) ([]models.Qualifier, error)
	Promote(ctx context.Context, eventID, fromStageID, toStageID uuid.UUID, participantIDs []uuid.UUID) ([]models.Qualifier, error)
	RegisterParticipant(ctx context.Context, eventID, participantID uuid.UUID) (*models.Qualifier, error)
	ListUnassigned(ctx context.Context, eventID, stageID uuid.UUID, excludingGroupID *uuid.UUID) ([]models.Participant, error)
	ListQualifiers(ctx context.Context, stageID uuid.UUID) ([]models.Qualifier, error)
	ListQualifiersByEvent(ctx context.Context, eventID uuid.UUID) ([]models.StageQualifiers, error)
	DeleteQualifier(ctx context.Context, id uuid.UUID) error
}

type qualifierService struct {
	db              *sql.DB
	eventRepo       repositories.EventRepository
	stageRepo       repositories.StageRepository
	qualifierRepo   repositories.QualifierRepository
	valueRepo       repositories.ColumnValueRepository
	groupRepo       repositories.GroupRepository
	participantRepo repositories.ParticipantRepository
	notifier        Notifier
	logger          *slog.Logger
}

func NewQualifierService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	qualifierRepo repositories.QualifierRepository,
	valueRepo repositories.ColumnValueRepository,
	groupRepo repositories.GroupRepository,
	participantRepo repositories.ParticipantRepository,
	notifier Notifier,
	logger *slog.Logger,
) QualifierService {
	return &qualifierService{
		db:              db,
		eventRepo:       eventRepo,
		stageRepo:       stageRepo,
		qualifierRepo:   qualifierRepo,
		valueRepo:       valueRepo,
		groupRepo:       groupRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// AddQualifiers qualifies the participants for the stage and seeds their
// values for every column of the stage. Either everything is written or
// nothing is.
func (s *qualifierService) AddQualifiers(ctx context.Context, eventID, stageID uuid.UUID, participantIDs []uuid.UUID) ([]models.Qualifier, error) {
	ids := uniqueIDs(participantIDs)
	if len(ids) == 0 {
		return nil, ErrParticipantsRequired
	}

	var qualifiers []models.Qualifier
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		qualifiers, err = s.addQualifiersTx(ctx, tx, eventID, stageID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, eventID, models.UpdateQualifiersChanged, qualifiers)
	return qualifiers, nil
}

func (s *qualifierService) addQualifiersTx(ctx context.Context, tx *sql.Tx, eventID, stageID uuid.UUID, ids []uuid.UUID) ([]models.Qualifier, error) {
	stage, err := s.stageRepo.GetByID(ctx, tx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "add qualifiers")
	}
	if stage.EventID != eventID {
		return nil, ErrStageMismatch
	}

	existing, err := s.participantRepo.CountExisting(ctx, tx, ids)
	if err != nil {
		return nil, handleRepositoryError(err, "add qualifiers")
	}
	if existing != len(ids) {
		return nil, ErrParticipantNotFound
	}

	batch := make([]*models.Qualifier, len(ids))
	for i, id := range ids {
		batch[i] = &models.Qualifier{EventID: eventID, StageID: stageID, ParticipantID: id}
	}
	if err := s.qualifierRepo.CreateBatch(ctx, tx, batch); err != nil {
		return nil, handleRepositoryError(err, "add qualifiers")
	}

	seeded, err := s.valueRepo.SeedParticipants(ctx, tx, stageID, ids)
	if err != nil {
		return nil, handleRepositoryError(err, "seed qualifier values")
	}

	s.logger.InfoContext(ctx, "qualifiers added",
		slog.String("stage_id", stageID.String()),
		slog.Int("qualifiers", len(batch)),
		slog.Int64("seeded_values", seeded))

	qualifiers := make([]models.Qualifier, len(batch))
	for i, q := range batch {
		qualifiers[i] = *q
	}
	return qualifiers, nil
}

// Promote qualifies participants of one stage for another stage of the same
// event. Participants stay qualified for the stage they came from.
func (s *qualifierService) Promote(ctx context.Context, eventID, fromStageID, toStageID uuid.UUID, participantIDs []uuid.UUID) ([]models.Qualifier, error) {
	ids := uniqueIDs(participantIDs)
	if len(ids) == 0 {
		return nil, ErrParticipantsRequired
	}

	var qualifiers []models.Qualifier
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		from, err := s.stageRepo.GetByID(ctx, tx, fromStageID)
		if err != nil {
			return handleRepositoryError(err, "promote")
		}
		if from.EventID != eventID {
			return ErrStageMismatch
		}

		qualified, err := s.qualifierRepo.QualifiedSet(ctx, tx, fromStageID, ids)
		if err != nil {
			return handleRepositoryError(err, "promote")
		}
		for _, id := range ids {
			if !qualified[id] {
				return fmt.Errorf("%w: %s", ErrNotQualified, id)
			}
		}

		qualifiers, err = s.addQualifiersTx(ctx, tx, eventID, toStageID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, eventID, models.UpdateQualifiersChanged, qualifiers)
	return qualifiers, nil
}

// RegisterParticipant records the participant in the event and qualifies them
// for the event's first stage.
func (s *qualifierService) RegisterParticipant(ctx context.Context, eventID, participantID uuid.UUID) (*models.Qualifier, error) {
	var qualifier models.Qualifier
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.eventRepo.GetByID(ctx, tx, eventID); err != nil {
			return handleRepositoryError(err, "register participant")
		}
		if _, err := s.participantRepo.GetByID(ctx, tx, participantID); err != nil {
			return handleRepositoryError(err, "register participant")
		}
		if err := s.participantRepo.AddToEvent(ctx, tx, eventID, participantID); err != nil {
			return handleRepositoryError(err, "register participant")
		}
		first, err := s.stageRepo.First(ctx, tx, eventID)
		if err != nil {
			return handleRepositoryError(err, "register participant")
		}
		qualifiers, err := s.addQualifiersTx(ctx, tx, eventID, first.ID, []uuid.UUID{participantID})
		if err != nil {
			return err
		}
		qualifier = qualifiers[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, eventID, models.UpdateQualifiersChanged, []models.Qualifier{qualifier})
	return &qualifier, nil
}

// ListUnassigned returns qualifiers of the stage not placed in any of its
// groups. With excludingGroupID the members of that group are listed too.
func (s *qualifierService) ListUnassigned(ctx context.Context, eventID, stageID uuid.UUID, excludingGroupID *uuid.UUID) ([]models.Participant, error) {
	stage, err := s.stageRepo.GetByID(ctx, nil, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "list unassigned")
	}
	if stage.EventID != eventID {
		return nil, ErrStageMismatch
	}
	if excludingGroupID != nil {
		group, err := s.groupRepo.GetByID(ctx, nil, *excludingGroupID)
		if err != nil {
			return nil, handleRepositoryError(err, "list unassigned")
		}
		if group.StageID != stageID {
			return nil, ErrGroupStageMismatch
		}
	}

	participants, err := s.qualifierRepo.ListUnassigned(ctx, nil, eventID, stageID, excludingGroupID)
	if err != nil {
		return nil, handleRepositoryError(err, "list unassigned")
	}
	return participants, nil
}

func (s *qualifierService) ListQualifiers(ctx context.Context, stageID uuid.UUID) ([]models.Qualifier, error) {
	if _, err := s.stageRepo.GetByID(ctx, nil, stageID); err != nil {
		return nil, handleRepositoryError(err, "list qualifiers")
	}
	qualifiers, err := s.qualifierRepo.ListByStage(ctx, nil, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "list qualifiers")
	}
	return qualifiers, nil
}

// ListQualifiersByEvent groups the event's qualifiers by stage, stages in
// round order. Stages without qualifiers are included.
func (s *qualifierService) ListQualifiersByEvent(ctx context.Context, eventID uuid.UUID) ([]models.StageQualifiers, error) {
	stages, err := s.stageRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, handleRepositoryError(err, "list event qualifiers")
	}
	qualifiers, err := s.qualifierRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, handleRepositoryError(err, "list event qualifiers")
	}

	byStage := make(map[uuid.UUID][]models.Qualifier, len(stages))
	for _, q := range qualifiers {
		byStage[q.StageID] = append(byStage[q.StageID], q)
	}

	result := make([]models.StageQualifiers, 0, len(stages))
	for _, stage := range stages {
		list := byStage[stage.ID]
		if list == nil {
			list = []models.Qualifier{}
		}
		result = append(result, models.StageQualifiers{Stage: stage, Qualifiers: list})
	}
	return result, nil
}

// DeleteQualifier removes the qualifier and the participant's values for the
// qualifier's stage.
func (s *qualifierService) DeleteQualifier(ctx context.Context, id uuid.UUID) error {
	var qualifier *models.Qualifier
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		qualifier, err = s.qualifierRepo.GetByID(ctx, tx, id)
		if err != nil {
			return handleRepositoryError(err, "delete qualifier")
		}
		if err := s.valueRepo.DeleteForStage(ctx, tx, qualifier.ParticipantID, qualifier.StageID); err != nil {
			return handleRepositoryError(err, "delete qualifier values")
		}
		return handleRepositoryError(s.qualifierRepo.Delete(ctx, tx, id), "delete qualifier")
	})
	if err != nil {
		return err
	}

	notify(s.notifier, qualifier.EventID, models.UpdateQualifiersChanged, map[string]string{"deleted_qualifier_id": id.String()})
	return nil
}
