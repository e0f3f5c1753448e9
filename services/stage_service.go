package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

const firstStageName = "Round 1"

type StageService interface {
	SeedEvent(ctx context.Context, eventID uuid.UUID) (*models.Stage, error)
	CreateStage(ctx context.Context, eventID uuid.UUID, name string) (*models.Stage, error)
	GetStage(ctx context.Context, id uuid.UUID) (*models.Stage, error)
	ListStages(ctx context.Context, eventID uuid.UUID) ([]models.Stage, error)
	RenameStage(ctx context.Context, id uuid.UUID, name string) (*models.Stage, error)
	DeleteStage(ctx context.Context, id uuid.UUID) error
}

type stageService struct {
	db         *sql.DB
	eventRepo  repositories.EventRepository
	stageRepo  repositories.StageRepository
	columnRepo repositories.StandingColumnRepository
	notifier   Notifier
	logger     *slog.Logger
}

func NewStageService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	columnRepo repositories.StandingColumnRepository,
	notifier Notifier,
	logger *slog.Logger,
) StageService {
	return &stageService{
		db:         db,
		eventRepo:  eventRepo,
		stageRepo:  stageRepo,
		columnRepo: columnRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// SeedEvent makes sure the event has a first round. It returns the existing
// first stage when the event already has stages.
func (s *stageService) SeedEvent(ctx context.Context, eventID uuid.UUID) (*models.Stage, error) {
	var stage *models.Stage
	created := false
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.eventRepo.GetByID(ctx, tx, eventID); err != nil {
			return handleRepositoryError(err, "seed event")
		}
		existing, err := s.stageRepo.First(ctx, tx, eventID)
		if err == nil {
			stage = existing
			return nil
		}
		if !errors.Is(err, repositories.ErrStageNotFound) {
			return handleRepositoryError(err, "seed event")
		}
		stage, err = s.createStageTx(ctx, tx, eventID, firstStageName)
		created = err == nil
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.InfoContext(ctx, "event seeded", slog.String("event_id", eventID.String()), slog.String("stage_id", stage.ID.String()))
		notify(s.notifier, eventID, models.UpdateStagesChanged, stage)
	}
	return stage, nil
}

func (s *stageService) CreateStage(ctx context.Context, eventID uuid.UUID, name string) (*models.Stage, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	var stage *models.Stage
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.eventRepo.GetByID(ctx, tx, eventID); err != nil {
			return handleRepositoryError(err, "create stage")
		}
		stage, err = s.createStageTx(ctx, tx, eventID, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stage created",
		slog.String("stage_id", stage.ID.String()),
		slog.Int("round_order", stage.RoundOrder))
	notify(s.notifier, eventID, models.UpdateStagesChanged, stage)
	return stage, nil
}

// createStageTx appends a stage and its default standing columns.
func (s *stageService) createStageTx(ctx context.Context, tx *sql.Tx, eventID uuid.UUID, name string) (*models.Stage, error) {
	stage := &models.Stage{EventID: eventID, Name: name}
	if err := s.stageRepo.Create(ctx, tx, stage); err != nil {
		return nil, handleRepositoryError(err, "create stage")
	}
	for _, columnName := range defaultColumns {
		column := &models.StandingColumn{
			StageID:      stage.ID,
			Name:         columnName,
			DefaultValue: defaultColumnValue,
			ToShow:       true,
		}
		if err := s.columnRepo.Create(ctx, tx, column); err != nil {
			return nil, handleRepositoryError(err, "create default column")
		}
	}
	return stage, nil
}

func (s *stageService) GetStage(ctx context.Context, id uuid.UUID) (*models.Stage, error) {
	stage, err := s.stageRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get stage")
	}
	return stage, nil
}

func (s *stageService) ListStages(ctx context.Context, eventID uuid.UUID) ([]models.Stage, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, handleRepositoryError(err, "list stages")
	}
	stages, err := s.stageRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, handleRepositoryError(err, "list stages")
	}
	return stages, nil
}

func (s *stageService) RenameStage(ctx context.Context, id uuid.UUID, name string) (*models.Stage, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if err := s.stageRepo.UpdateName(ctx, nil, id, name); err != nil {
		return nil, handleRepositoryError(err, "rename stage")
	}
	stage, err := s.GetStage(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(s.notifier, stage.EventID, models.UpdateStagesChanged, stage)
	return stage, nil
}

// DeleteStage removes the stage with everything it owns.
func (s *stageService) DeleteStage(ctx context.Context, id uuid.UUID) error {
	stage, err := s.GetStage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.stageRepo.Delete(ctx, nil, id); err != nil {
		return handleRepositoryError(err, "delete stage")
	}
	s.logger.InfoContext(ctx, "stage deleted", slog.String("stage_id", id.String()))
	notify(s.notifier, stage.EventID, models.UpdateStagesChanged, map[string]string{"deleted_stage_id": id.String()})
	return nil
}
