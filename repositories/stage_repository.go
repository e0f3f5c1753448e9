package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var (
	ErrStageNotFound     = errors.New("stage not found")
	ErrStageEventInvalid = errors.New("stage event reference is invalid")
)

type StageRepository interface {
	Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Stage, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Stage, error)
	First(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) (*models.Stage, error)
	UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresStageRepository struct {
	db *sql.DB
}

func NewPostgresStageRepository(db *sql.DB) StageRepository {
	return &postgresStageRepository{db: db}
}

func (r *postgresStageRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create appends the stage after the event's last round.
func (r *postgresStageRepository) Create(ctx context.Context, exec SQLExecutor, stage *models.Stage) error {
	executor := r.getExecutor(exec)
	if stage.ID == uuid.Nil {
		stage.ID = uuid.Must(uuid.NewV7())
	}

	err := executor.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(round_order), 0) + 1 FROM stages WHERE event_id = $1`,
		stage.EventID,
	).Scan(&stage.RoundOrder)
	if err != nil {
		return fmt.Errorf("failed to compute round order: %w", err)
	}

	query := `INSERT INTO stages (id, event_id, name, round_order) VALUES ($1, $2, $3, $4)`
	_, err = executor.ExecContext(ctx, query, stage.ID, stage.EventID, stage.Name, stage.RoundOrder)
	return mapConstraintError(err, "failed to create stage", nil, ErrStageEventInvalid)
}

func (r *postgresStageRepository) scanStage(row rowScanner) (*models.Stage, error) {
	var s models.Stage
	if err := row.Scan(&s.ID, &s.EventID, &s.Name, &s.RoundOrder); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Stage, error) {
	query := `SELECT id, event_id, name, round_order FROM stages WHERE id = $1`
	stage, err := r.scanStage(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to get stage %s: %w", id, err)
	}
	return stage, nil
}

func (r *postgresStageRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Stage, error) {
	query := `
		SELECT id, event_id, name, round_order
		FROM stages
		WHERE event_id = $1
		ORDER BY round_order, created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer rows.Close()

	stages := make([]models.Stage, 0)
	for rows.Next() {
		stage, err := r.scanStage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		stages = append(stages, *stage)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stages: %w", err)
	}
	return stages, nil
}

// First returns the lowest round of the event, the one new participants enter.
func (r *postgresStageRepository) First(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) (*models.Stage, error) {
	query := `
		SELECT id, event_id, name, round_order
		FROM stages
		WHERE event_id = $1
		ORDER BY round_order, created_at, id
		LIMIT 1`
	stage, err := r.scanStage(r.getExecutor(exec).QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to get first stage: %w", err)
	}
	return stage, nil
}

func (r *postgresStageRepository) UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE stages SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename stage: %w", err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}

// Delete removes the stage; groups, tiesheets, columns and qualifiers go with it.
func (r *postgresStageRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM stages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stage: %w", err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}
