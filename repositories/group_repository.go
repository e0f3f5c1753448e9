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
	ErrGroupNotFound        = errors.New("group not found")
	ErrGroupReference       = errors.New("group event or stage reference is invalid")
	ErrGroupMemberNotFound  = errors.New("group member not found")
	ErrGroupMemberConflict  = errors.New("participant already a member of this group")
	ErrGroupMemberReference = errors.New("group member participant reference is invalid")
)

type GroupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, group *models.Group) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Group, error)
	ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.Group, error)
	UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error

	AddMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID, participantIDs []uuid.UUID) error
	RemoveMember(ctx context.Context, exec SQLExecutor, groupID, participantID uuid.UUID) error
	DeleteMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID) error
	ListMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID) ([]models.GroupMember, error)
	GroupedElsewhere(ctx context.Context, exec SQLExecutor, stageID, groupID uuid.UUID, participantIDs []uuid.UUID) ([]uuid.UUID, error)
}

type postgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) GroupRepository {
	return &postgresGroupRepository{db: db}
}

func (r *postgresGroupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGroupRepository) Create(ctx context.Context, exec SQLExecutor, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.Must(uuid.NewV7())
	}
	query := `INSERT INTO stage_groups (id, event_id, stage_id, name) VALUES ($1, $2, $3, $4)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, group.ID, group.EventID, group.StageID, group.Name)
	return mapConstraintError(err, "failed to create group", nil, ErrGroupReference)
}

func (r *postgresGroupRepository) scanGroup(row rowScanner) (*models.Group, error) {
	var g models.Group
	if err := row.Scan(&g.ID, &g.EventID, &g.StageID, &g.Name); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *postgresGroupRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Group, error) {
	query := `SELECT id, event_id, stage_id, name FROM stage_groups WHERE id = $1`
	group, err := r.scanGroup(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}
	return group, nil
}

func (r *postgresGroupRepository) ListByStage(ctx context.Context, exec SQLExecutor, stageID uuid.UUID) ([]models.Group, error) {
	query := `
		SELECT id, event_id, stage_id, name
		FROM stage_groups
		WHERE stage_id = $1
		ORDER BY created_at, id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]models.Group, 0)
	for rows.Next() {
		group, err := r.scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, *group)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	return groups, nil
}

func (r *postgresGroupRepository) UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE stage_groups SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM stage_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return checkAffectedRows(result, ErrGroupNotFound)
}

func (r *postgresGroupRepository) AddMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID, participantIDs []uuid.UUID) error {
	if len(participantIDs) == 0 {
		return nil
	}

	values := make([]string, 0, len(participantIDs))
	args := make([]interface{}, 0, len(participantIDs)*2)
	for i, participantID := range participantIDs {
		values = append(values, "("+placeholders(i*2+1, 2)+")")
		args = append(args, groupID, participantID)
	}

	query := `INSERT INTO group_members (group_id, participant_id) VALUES ` + strings.Join(values, ", ")
	_, err := r.getExecutor(exec).ExecContext(ctx, query, args...)
	return mapConstraintError(err, "failed to add group members", ErrGroupMemberConflict, ErrGroupMemberReference)
}

func (r *postgresGroupRepository) RemoveMember(ctx context.Context, exec SQLExecutor, groupID, participantID uuid.UUID) error {
	query := `DELETE FROM group_members WHERE group_id = $1 AND participant_id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, groupID, participantID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return checkAffectedRows(result, ErrGroupMemberNotFound)
}

func (r *postgresGroupRepository) DeleteMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	return nil
}

// ListMembers returns members in the order they joined the group.
func (r *postgresGroupRepository) ListMembers(ctx context.Context, exec SQLExecutor, groupID uuid.UUID) ([]models.GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.participant_id, u.username
		FROM group_members gm
		JOIN users u ON u.id = gm.participant_id
		WHERE gm.group_id = $1
		ORDER BY gm.created_at, gm.participant_id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.ParticipantID, &m.Username); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group members: %w", err)
	}
	return members, nil
}

// GroupedElsewhere returns the participants that already belong to a group of
// the stage other than groupID.
func (r *postgresGroupRepository) GroupedElsewhere(ctx context.Context, exec SQLExecutor, stageID, groupID uuid.UUID, participantIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT gm.participant_id
		FROM group_members gm
		JOIN stage_groups g ON g.id = gm.group_id
		WHERE g.stage_id = $1 AND g.id <> $2
		  AND gm.participant_id IN (` + placeholders(3, len(participantIDs)) + `)`
	args := append([]interface{}{stageID, groupID}, uuidArgs(participantIDs)...)

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	defer rows.Close()

	var grouped []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan grouped participant: %w", err)
		}
		grouped = append(grouped, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grouped participants: %w", err)
	}
	return grouped, nil
}
