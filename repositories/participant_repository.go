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
	ErrParticipantNotFound      = errors.New("participant not found")
	ErrParticipantUsernameTaken = errors.New("participant username already in use")
	ErrParticipantConflict      = errors.New("participant already registered for this event")
	ErrParticipantInvalid       = errors.New("participant or event reference is invalid")
)

// ParticipantRepository reads the user directory and records event
// participation. Users themselves are managed outside the engine; Create
// exists for seeding and tests.
type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Participant, error)
	CountExisting(ctx context.Context, exec SQLExecutor, ids []uuid.UUID) (int, error)
	AddToEvent(ctx context.Context, exec SQLExecutor, eventID, participantID uuid.UUID) error
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.Must(uuid.NewV7())
	}
	query := `INSERT INTO users (id, username, fullname) VALUES ($1, $2, $3)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, p.ID, p.Username, p.Fullname)
	return mapConstraintError(err, "failed to create participant", ErrParticipantUsernameTaken, nil)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Participant, error) {
	query := `SELECT id, username, fullname FROM users WHERE id = $1`
	var p models.Participant
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Username, &p.Fullname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant %s: %w", id, err)
	}
	return &p, nil
}

// CountExisting returns how many of the given ids exist in the directory.
func (r *postgresParticipantRepository) CountExisting(ctx context.Context, exec SQLExecutor, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `SELECT COUNT(*) FROM users WHERE id IN (` + placeholders(1, len(ids)) + `)`
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, uuidArgs(ids)...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return n, nil
}

func (r *postgresParticipantRepository) AddToEvent(ctx context.Context, exec SQLExecutor, eventID, participantID uuid.UUID) error {
	query := `INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, eventID, participantID)
	return mapConstraintError(err, "failed to add participant to event", ErrParticipantConflict, ErrParticipantInvalid)
}

func (r *postgresParticipantRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Participant, error) {
	query := `
		SELECT u.id, u.username, u.fullname
		FROM event_participants ep
		JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id = $1
		ORDER BY ep.created_at, u.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Username, &p.Fullname); err != nil {
			return nil, fmt.Errorf("failed to scan event participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event participants: %w", err)
	}
	return participants, nil
}
