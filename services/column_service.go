package services

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type ColumnInput struct {
	Name         string `json:"column_field"`
	DefaultValue string `json:"default_value"`
	ToShow       *bool  `json:"to_show"`
}

// ColumnUpdate changes only the fields that are set.
type ColumnUpdate struct {
	Name         *string `json:"column_field"`
	DefaultValue *string `json:"default_value"`
	ToShow       *bool   `json:"to_show"`
}

type ColumnService interface {
	CreateColumn(ctx context.Context, stageID uuid.UUID, input ColumnInput) (*models.StandingColumn, error)
	ListColumns(ctx context.Context, stageID uuid.UUID) ([]models.StandingColumn, error)
	UpdateColumn(ctx context.Context, id uuid.UUID, update ColumnUpdate) (*models.StandingColumn, error)
	DeleteColumn(ctx context.Context, id uuid.UUID) error
	SetValue(ctx context.Context, participantID, columnID uuid.UUID, value string) error
	GetValuesForParticipant(ctx context.Context, participantID, stageID uuid.UUID) ([]models.ColumnEntry, error)
}

type columnService struct {
	db              *sql.DB
	stageRepo       repositories.StageRepository
	columnRepo      repositories.StandingColumnRepository
	valueRepo       repositories.ColumnValueRepository
	participantRepo repositories.ParticipantRepository
	notifier        Notifier
	logger          *slog.Logger
}

func NewColumnService(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	columnRepo repositories.StandingColumnRepository,
	valueRepo repositories.ColumnValueRepository,
	participantRepo repositories.ParticipantRepository,
	notifier Notifier,
	logger *slog.Logger,
) ColumnService {
	return &columnService{
		db:              db,
		stageRepo:       stageRepo,
		columnRepo:      columnRepo,
		valueRepo:       valueRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// CreateColumn adds a column to the stage and seeds its default value for
// every participant already qualified for the stage.
func (s *columnService) CreateColumn(ctx context.Context, stageID uuid.UUID, input ColumnInput) (*models.StandingColumn, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	column := &models.StandingColumn{
		StageID:      stageID,
		Name:         name,
		DefaultValue: input.DefaultValue,
		ToShow:       input.ToShow == nil || *input.ToShow,
	}

	var stage *models.Stage
	var seeded int64
	err = withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		stage, err = s.stageRepo.GetByID(ctx, tx, stageID)
		if err != nil {
			return handleRepositoryError(err, "create column")
		}
		if err := s.columnRepo.Create(ctx, tx, column); err != nil {
			return handleRepositoryError(err, "create column")
		}
		seeded, err = s.valueRepo.SeedColumn(ctx, tx, column)
		return handleRepositoryError(err, "seed column values")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "standing column created",
		slog.String("column_id", column.ID.String()),
		slog.String("stage_id", stageID.String()),
		slog.Int64("seeded_values", seeded))
	notify(s.notifier, stage.EventID, models.UpdateColumnsChanged, column)
	return column, nil
}

func (s *columnService) ListColumns(ctx context.Context, stageID uuid.UUID) ([]models.StandingColumn, error) {
	if _, err := s.stageRepo.GetByID(ctx, nil, stageID); err != nil {
		return nil, handleRepositoryError(err, "list columns")
	}
	columns, err := s.columnRepo.ListByStage(ctx, nil, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "list columns")
	}
	return columns, nil
}

// UpdateColumn changes name, default or visibility. Existing values are not
// touched when the default changes.
func (s *columnService) UpdateColumn(ctx context.Context, id uuid.UUID, update ColumnUpdate) (*models.StandingColumn, error) {
	column, err := s.columnRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "update column")
	}
	if update.Name != nil {
		name, err := validateName(*update.Name)
		if err != nil {
			return nil, err
		}
		column.Name = name
	}
	if update.DefaultValue != nil {
		column.DefaultValue = *update.DefaultValue
	}
	if update.ToShow != nil {
		column.ToShow = *update.ToShow
	}
	if err := s.columnRepo.Update(ctx, nil, column); err != nil {
		return nil, handleRepositoryError(err, "update column")
	}

	s.notifyStage(ctx, column.StageID, models.UpdateColumnsChanged, column)
	return column, nil
}

// DeleteColumn hard deletes the column and its values. Totals derived from
// the column elsewhere are left as they are.
func (s *columnService) DeleteColumn(ctx context.Context, id uuid.UUID) error {
	column, err := s.columnRepo.GetByID(ctx, nil, id)
	if err != nil {
		return handleRepositoryError(err, "delete column")
	}
	if err := s.columnRepo.Delete(ctx, nil, id); err != nil {
		return handleRepositoryError(err, "delete column")
	}
	s.notifyStage(ctx, column.StageID, models.UpdateColumnsChanged, map[string]string{"deleted_column_id": id.String()})
	return nil
}

// SetValue upserts the participant's value for the column.
func (s *columnService) SetValue(ctx context.Context, participantID, columnID uuid.UUID, value string) error {
	column, err := s.columnRepo.GetByID(ctx, nil, columnID)
	if err != nil {
		return handleRepositoryError(err, "set value")
	}
	if _, err := s.participantRepo.GetByID(ctx, nil, participantID); err != nil {
		return handleRepositoryError(err, "set value")
	}
	if err := s.valueRepo.Upsert(ctx, nil, participantID, columnID, value); err != nil {
		return handleRepositoryError(err, "set value")
	}
	s.notifyStage(ctx, column.StageID, models.UpdateStandingsChanged, map[string]string{"stage_id": column.StageID.String()})
	return nil
}

func (s *columnService) GetValuesForParticipant(ctx context.Context, participantID, stageID uuid.UUID) ([]models.ColumnEntry, error) {
	if _, err := s.stageRepo.GetByID(ctx, nil, stageID); err != nil {
		return nil, handleRepositoryError(err, "get values")
	}
	entries, err := s.valueRepo.ListForParticipant(ctx, nil, participantID, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "get values")
	}
	return entries, nil
}

func (s *columnService) notifyStage(ctx context.Context, stageID uuid.UUID, updateType string, payload interface{}) {
	if s.notifier == nil {
		return
	}
	stage, err := s.stageRepo.GetByID(ctx, nil, stageID)
	if err != nil {
		s.logger.WarnContext(ctx, "live update skipped", slog.String("stage_id", stageID.String()), slog.Any("error", err))
		return
	}
	notify(s.notifier, stage.EventID, updateType, payload)
}
