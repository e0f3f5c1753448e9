package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var ErrEventNotFound = errors.New("event not found")

// EventRepository covers the minimal event record stages hang off. Event
// CRUD proper belongs to the surrounding application.
type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Event, error)
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.Must(uuid.NewV7())
	}
	query := `INSERT INTO events (id, title) VALUES ($1, $2)`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, event.ID, event.Title); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Event, error) {
	query := `SELECT id, title FROM events WHERE id = $1`
	var e models.Event
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(&e.ID, &e.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return &e, nil
}

func (r *postgresEventRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
