package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

var (
	ErrQualifierNotFound  = errors.New("qualifier not found")
	ErrQualifierConflict  = errors.New("participant already qualified for this stage")
	ErrQualifierReference = errors.New("qualifier event, stage or participant reference is invalid")
)

type QualifierRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, qualifiers []*models.Qualifier) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Qualifier, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.Qualifier, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Qualifier, error)
	QualifiedSet(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ListUnassigned(ctx context.Context, exec SQLExecutor, eventID, stageID uuid.UUID, excludingGroupID *uuid.UUID) ([]models.Participant, error)
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresQualifierRepository struct {
	db *sql.DB
}

func NewPostgresQualifierRepository(db *sql.DB) QualifierRepository {
	return &postgresQualifierRepository{db: db}
}

func (r *postgresQualifierRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch inserts all qualifiers with a single statement.
func (r *postgresQualifierRepository) CreateBatch(ctx context.Context, exec SQLExecutor, qualifiers []*models.Qualifier) error {
	if len(qualifiers) == 0 {
		return nil
	}

	values := make([]string, 0, len(qualifiers))
	args := make([]interface{}, 0, len(qualifiers)*4)
	for i, q := range qualifiers {
		if q.ID == uuid.Nil {
			q.ID = uuid.Must(uuid.NewV7())
		}
		values = append(values, "("+placeholders(i*4+1, 4)+")")
		args = append(args, q.ID, q.EventID, q.StageID, q.ParticipantID)
	}

	query := `INSERT INTO qualifiers (id, event_id, stage_id, participant_id) VALUES ` + strings.Join(values, ", ")
	_, err := r.getExecutor(exec).ExecContext(ctx, query, args...)
	return mapConstraintError(err, "failed to create qualifiers", ErrQualifierConflict, ErrQualifierReference)
}

const qualifierSelect = `
		SELECT q.id, q.event_id, q.stage_id, q.participant_id, u.username
		FROM qualifiers q
		JOIN users u ON u.id = q.participant_id`

func (r *postgresQualifierRepository) scanQualifier(row rowScanner) (*models.Qualifier, error) {
	var q models.Qualifier
	if err := row.Scan(&q.ID, &q.EventID, &q.StageID, &q.ParticipantID, &q.Username); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *postgresQualifierRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Qualifier, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifiers: %w", err)
	}
	defer rows.Close()

	qualifiers := make([]models.Qualifier, 0)
	for rows.Next() {
		q, err := r.scanQualifier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan qualifier: %w", err)
		}
		qualifiers = append(qualifiers, *q)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating qualifiers: %w", err)
	}
	return qualifiers, nil
}

func (r *postgresQualifierRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Qualifier, error) {
	q, err := r.scanQualifier(r.getExecutor(exec).QueryRowContext(ctx, qualifierSelect+` WHERE q.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQualifierNotFound
		}
		return nil, fmt.Errorf("failed to get qualifier %s: %w", id, err)
	}
	return q, nil
}

// ListByStage returns the stage's qualifiers in the order they joined.
func (r *postgresQualifierRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.Qualifier, error) {
	return r.list(ctx, exec, qualifierSelect+`
		WHERE q.stage_id = $1
		ORDER BY q.created_at, q.id`, stageID)
}

func (r *postgresQualifierRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]models.Qualifier, error) {
	return r.list(ctx, exec, qualifierSelect+`
		JOIN stages s ON s.id = q.stage_id
		WHERE q.event_id = $1
		ORDER BY s.round_order, s.created_at, s.id, q.created_at, q.id`, eventID)
}

// QualifiedSet reports which of the given participants are qualified for the stage.
func (r *postgresQualifierRepository) QualifiedSet(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	set := make(map[uuid.UUID]bool, len(participantIDs))
	if len(participantIDs) == 0 {
		return set, nil
	}

	query := `SELECT participant_id FROM qualifiers WHERE stage_id = $1 AND participant_id IN (` +
		placeholders(2, len(participantIDs)) + `)`
	args := append([]interface{}{stageID}, uuidArgs(participantIDs)...)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check qualifiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan qualifier participant: %w", err)
		}
		set[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating qualifier participants: %w", err)
	}
	return set, nil
}

// ListUnassigned returns the stage's qualifiers that are in no group of the
// stage. Members of excludingGroupID count as unassigned, so an edit form can
// show the group's current members next to everyone still available.
func (r *postgresQualifierRepository) ListUnassigned(ctx context.Context, exec SQLExecutor, eventID, stageID uuid.UUID, excludingGroupID *uuid.UUID) ([]models.Participant, error) {
	query := `
		SELECT u.id, u.username, u.fullname
		FROM qualifiers q
		JOIN users u ON u.id = q.participant_id
		WHERE q.event_id = $1
		  AND q.stage_id = $2
		  AND q.participant_id NOT IN (
			SELECT gm.participant_id
			FROM group_members gm
			JOIN stage_groups g ON g.id = gm.group_id
			WHERE g.stage_id = $2
			  AND ($3 = '' OR g.id <> $3)
		  )
		ORDER BY q.created_at, q.id`

	excluded := ""
	if excludingGroupID != nil {
		excluded = excludingGroupID.String()
	}

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID, stageID, excluded)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned qualifiers: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Username, &p.Fullname); err != nil {
			return nil, fmt.Errorf("failed to scan unassigned qualifier: %w", err)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unassigned qualifiers: %w", err)
	}
	return participants, nil
}

func (r *postgresQualifierRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM qualifiers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete qualifier: %w", err)
	}
	return checkAffectedRows(result, ErrQualifierNotFound)
}
