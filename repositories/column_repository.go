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
	ErrColumnNotFound     = errors.New("standing column not found")
	ErrColumnStageInvalid = errors.New("standing column stage reference is invalid")
)

type StandingColumnRepository interface {
	Create(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.StandingColumn, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.StandingColumn, error)
	Update(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresStandingColumnRepository struct {
	db *sql.DB
}

func NewPostgresStandingColumnRepository(db *sql.DB) StandingColumnRepository {
	return &postgresStandingColumnRepository{db: db}
}

func (r *postgresStandingColumnRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingColumnRepository) Create(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) error {
	if column.ID == uuid.Nil {
		column.ID = uuid.Must(uuid.NewV7())
	}
	query := `
		INSERT INTO standing_columns (id, stage_id, column_field, default_value, to_show)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		column.ID, column.StageID, column.Name, column.DefaultValue, column.ToShow)
	return mapConstraintError(err, "failed to create standing column", nil, ErrColumnStageInvalid)
}

func (r *postgresStandingColumnRepository) scanColumn(row rowScanner) (*models.StandingColumn, error) {
	var c models.StandingColumn
	if err := row.Scan(&c.ID, &c.StageID, &c.Name, &c.DefaultValue, &c.ToShow); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresStandingColumnRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.StandingColumn, error) {
	query := `SELECT id, stage_id, column_field, default_value, to_show FROM standing_columns WHERE id = $1`
	column, err := r.scanColumn(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to get standing column %s: %w", id, err)
	}
	return column, nil
}

// ListByStage returns the stage's columns in creation order.
func (r *postgresStandingColumnRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.StandingColumn, error) {
	query := `
		SELECT id, stage_id, column_field, default_value, to_show
		FROM standing_columns
		WHERE stage_id = $1
		ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standing columns: %w", err)
	}
	defer rows.Close()

	columns := make([]models.StandingColumn, 0)
	for rows.Next() {
		column, err := r.scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan standing column: %w", err)
		}
		columns = append(columns, *column)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standing columns: %w", err)
	}
	return columns, nil
}

func (r *postgresStandingColumnRepository) Update(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) error {
	query := `UPDATE standing_columns SET column_field = $1, default_value = $2, to_show = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, column.Name, column.DefaultValue, column.ToShow, column.ID)
	if err != nil {
		return fmt.Errorf("failed to update standing column: %w", err)
	}
	return checkAffectedRows(result, ErrColumnNotFound)
}

// Delete is a hard delete; the column's values cascade.
func (r *postgresStandingColumnRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM standing_columns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete standing column: %w", err)
	}
	return checkAffectedRows(result, ErrColumnNotFound)
}
