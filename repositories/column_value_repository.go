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
	ErrColumnValueNotFound  = errors.New("column value not found")
	ErrColumnValueReference = errors.New("column value participant or column reference is invalid")
)

type ColumnValueRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, participantID, columnID uuid.UUID, value string) error
	Get(ctx context.Context, exec SQLExecutor, participantID, columnID uuid.UUID) (*models.ColumnValue, error)
	SeedColumn(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) (int64, error)
	SeedParticipants(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (int64, error)
	ListForParticipant(ctx context.Context, exec SQLExecutor, participantID, stageID uuid.UUID) ([]models.ColumnEntry, error)
	ListForParticipants(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (map[uuid.UUID][]models.ColumnEntry, error)
	DeleteForStage(ctx context.Context, exec SQLExecutor, participantID, stageID uuid.UUID) error
}

type postgresColumnValueRepository struct {
	db *sql.DB
}

func NewPostgresColumnValueRepository(db *sql.DB) ColumnValueRepository {
	return &postgresColumnValueRepository{db: db}
}

func (r *postgresColumnValueRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert writes value for the (participant, column) pair, overwriting any
// existing value. Applying the same write twice leaves a single row.
func (r *postgresColumnValueRepository) Upsert(ctx context.Context, exec SQLExecutor, participantID, columnID uuid.UUID, value string) error {
	query := `
		INSERT INTO column_values (participant_id, column_id, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (participant_id, column_id)
		DO UPDATE SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, participantID, columnID, value)
	return mapConstraintError(err, "failed to upsert column value", nil, ErrColumnValueReference)
}

func (r *postgresColumnValueRepository) Get(ctx context.Context, exec SQLExecutor, participantID, columnID uuid.UUID) (*models.ColumnValue, error) {
	query := `SELECT participant_id, column_id, value FROM column_values WHERE participant_id = $1 AND column_id = $2`
	var v models.ColumnValue
	err := r.getExecutor(exec).QueryRowContext(ctx, query, participantID, columnID).Scan(&v.ParticipantID, &v.ColumnID, &v.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrColumnValueNotFound
		}
		return nil, fmt.Errorf("failed to get column value: %w", err)
	}
	return &v, nil
}

// SeedColumn gives every qualifier of the column's stage the column default.
func (r *postgresColumnValueRepository) SeedColumn(ctx context.Context, exec SQLExecutor, column *models.StandingColumn) (int64, error) {
	query := `
		INSERT INTO column_values (participant_id, column_id, value)
		SELECT q.participant_id, $1, $2
		FROM qualifiers q
		WHERE q.stage_id = $3
		ON CONFLICT (participant_id, column_id) DO NOTHING`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, column.ID, column.DefaultValue, column.StageID)
	if err != nil {
		return 0, fmt.Errorf("failed to seed values for column %s: %w", column.ID, err)
	}
	return result.RowsAffected()
}

// SeedParticipants gives each participant the default value of every column
// of the stage. Existing values are kept.
func (r *postgresColumnValueRepository) SeedParticipants(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (int64, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO column_values (participant_id, column_id, value)
		SELECT $1, c.id, c.default_value
		FROM standing_columns c
		WHERE c.stage_id = $2
		ON CONFLICT (participant_id, column_id) DO NOTHING`

	var seeded int64
	for _, participantID := range participantIDs {
		result, err := executor.ExecContext(ctx, query, participantID, stageID)
		if err != nil {
			return seeded, mapConstraintError(err,
				fmt.Sprintf("failed to seed values for participant %s", participantID), nil, ErrColumnValueReference)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return seeded, fmt.Errorf("failed to check seeded rows: %w", err)
		}
		seeded += n
	}
	return seeded, nil
}

const columnEntriesQuery = `
		SELECT cv.participant_id, c.id, c.column_field, cv.value, c.to_show
		FROM standing_columns c
		JOIN column_values cv ON cv.column_id = c.id
		WHERE c.stage_id = $1 AND cv.participant_id IN (%s)
		ORDER BY c.created_at, c.id`

// ListForParticipant returns the participant's values for the stage in column
// creation order, column id breaking ties.
func (r *postgresColumnValueRepository) ListForParticipant(ctx context.Context, exec SQLExecutor, participantID, stageID uuid.UUID) ([]models.ColumnEntry, error) {
	byParticipant, err := r.ListForParticipants(ctx, exec, stageID, []uuid.UUID{participantID})
	if err != nil {
		return nil, err
	}
	entries := byParticipant[participantID]
	if entries == nil {
		entries = []models.ColumnEntry{}
	}
	return entries, nil
}

func (r *postgresColumnValueRepository) ListForParticipants(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (map[uuid.UUID][]models.ColumnEntry, error) {
	result := make(map[uuid.UUID][]models.ColumnEntry, len(participantIDs))
	if len(participantIDs) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(columnEntriesQuery, placeholders(2, len(participantIDs)))
	args := append([]interface{}{stageID}, uuidArgs(participantIDs)...)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list column values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var participantID uuid.UUID
		var e models.ColumnEntry
		if err := rows.Scan(&participantID, &e.ColumnID, &e.Name, &e.Value, &e.ToShow); err != nil {
			return nil, fmt.Errorf("failed to scan column value: %w", err)
		}
		result[participantID] = append(result[participantID], e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column values: %w", err)
	}
	return result, nil
}

// DeleteForStage removes the participant's values for every column of the stage.
func (r *postgresColumnValueRepository) DeleteForStage(ctx context.Context, exec SQLExecutor, participantID, stageID uuid.UUID) error {
	query := `
		DELETE FROM column_values
		WHERE participant_id = $1
		  AND column_id IN (SELECT id FROM standing_columns WHERE stage_id = $2)`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, participantID, stageID); err != nil {
		return fmt.Errorf("failed to delete column values: %w", err)
	}
	return nil
}
