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
	ErrTiesheetNotFound        = errors.New("tiesheet not found")
	ErrTiesheetReference       = errors.New("tiesheet stage or group reference is invalid")
	ErrTiesheetPlayerNotFound  = errors.New("tiesheet player not found")
	ErrTiesheetPlayerConflict  = errors.New("participant already on this tiesheet")
	ErrTiesheetPlayerReference = errors.New("tiesheet player participant reference is invalid")
)

// TiesheetFilter narrows a tiesheet listing. Nil fields are not applied.
type TiesheetFilter struct {
	EventID uuid.UUID
	StageID *uuid.UUID
	Date    *models.Date
}

type TiesheetRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tiesheet *models.Tiesheet) error
	AddPlayers(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID, participantIDs []uuid.UUID) ([]models.TiesheetPlayer, error)
	FindByRoster(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (uuid.UUID, bool, error)
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tiesheet, error)
	ListPlayers(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.TiesheetPlayer, error)
	List(ctx context.Context, exec SQLExecutor, filter TiesheetFilter) ([]models.Tiesheet, error)
	Update(ctx context.Context, exec SQLExecutor, tiesheet *models.Tiesheet) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TiesheetStatus) error
	ClearWinners(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) error
	SetWinner(ctx context.Context, exec SQLExecutor, tiesheetID, participantID uuid.UUID) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error
}

type postgresTiesheetRepository struct {
	db *sql.DB
}

func NewPostgresTiesheetRepository(db *sql.DB) TiesheetRepository {
	return &postgresTiesheetRepository{db: db}
}

func (r *postgresTiesheetRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTiesheetRepository) Create(ctx context.Context, exec SQLExecutor, tiesheet *models.Tiesheet) error {
	if tiesheet.ID == uuid.Nil {
		tiesheet.ID = uuid.Must(uuid.NewV7())
	}
	if tiesheet.Status == "" {
		tiesheet.Status = models.TiesheetScheduled
	}
	query := `
		INSERT INTO tiesheets (id, stage_id, group_id, scheduled_date, scheduled_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		tiesheet.ID,
		tiesheet.StageID,
		nullableUUID(tiesheet.GroupID),
		tiesheet.ScheduledDate,
		tiesheet.ScheduledTime,
		string(tiesheet.Status),
	)
	return mapConstraintError(err, "failed to create tiesheet", nil, ErrTiesheetReference)
}

func (r *postgresTiesheetRepository) AddPlayers(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID, participantIDs []uuid.UUID) ([]models.TiesheetPlayer, error) {
	if len(participantIDs) == 0 {
		return []models.TiesheetPlayer{}, nil
	}

	players := make([]models.TiesheetPlayer, 0, len(participantIDs))
	values := make([]string, 0, len(participantIDs))
	args := make([]interface{}, 0, len(participantIDs)*3)
	for i, participantID := range participantIDs {
		player := models.TiesheetPlayer{
			ID:            uuid.Must(uuid.NewV7()),
			TiesheetID:    tiesheetID,
			ParticipantID: participantID,
		}
		players = append(players, player)
		values = append(values, "("+placeholders(i*3+1, 3)+")")
		args = append(args, player.ID, player.TiesheetID, player.ParticipantID)
	}

	query := `INSERT INTO tiesheet_players (id, tiesheet_id, participant_id) VALUES ` + strings.Join(values, ", ")
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, args...); err != nil {
		return nil, mapConstraintError(err, "failed to add tiesheet players", ErrTiesheetPlayerConflict, ErrTiesheetPlayerReference)
	}
	return players, nil
}

// FindByRoster looks for a tiesheet of the stage whose roster is exactly the
// given participant set.
func (r *postgresTiesheetRepository) FindByRoster(ctx context.Context, exec SQLExecutor, stageID uuid.UUID, participantIDs []uuid.UUID) (uuid.UUID, bool, error) {
	if len(participantIDs) == 0 {
		return uuid.Nil, false, nil
	}

	query := `
		SELECT tp.tiesheet_id
		FROM tiesheet_players tp
		JOIN tiesheets t ON t.id = tp.tiesheet_id
		WHERE t.stage_id = $1
		GROUP BY tp.tiesheet_id
		HAVING COUNT(*) = $2
		   AND SUM(CASE WHEN tp.participant_id IN (` + placeholders(3, len(participantIDs)) + `) THEN 1 ELSE 0 END) = $2
		LIMIT 1`
	args := append([]interface{}{stageID, len(participantIDs)}, uuidArgs(participantIDs)...)

	var id uuid.UUID
	err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("failed to look up tiesheet roster: %w", err)
	}
	return id, true, nil
}

const tiesheetSelect = `
		SELECT t.id, t.stage_id, t.group_id, t.scheduled_date, t.scheduled_time, t.status,
		       s.name, COALESCE(g.name, '')
		FROM tiesheets t
		JOIN stages s ON s.id = t.stage_id
		LEFT JOIN stage_groups g ON g.id = t.group_id`

func (r *postgresTiesheetRepository) scanTiesheet(row rowScanner) (*models.Tiesheet, error) {
	var t models.Tiesheet
	var groupID uuid.NullUUID
	err := row.Scan(&t.ID, &t.StageID, &groupID, &t.ScheduledDate, &t.ScheduledTime, &t.Status,
		&t.StageName, &t.GroupName)
	if err != nil {
		return nil, err
	}
	t.GroupID = uuidPtr(groupID)
	return &t, nil
}

func (r *postgresTiesheetRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Tiesheet, error) {
	tiesheet, err := r.scanTiesheet(r.getExecutor(exec).QueryRowContext(ctx, tiesheetSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTiesheetNotFound
		}
		return nil, fmt.Errorf("failed to get tiesheet %s: %w", id, err)
	}
	return tiesheet, nil
}

const playerSelect = `
		SELECT tp.id, tp.tiesheet_id, tp.participant_id, u.username, tp.is_winner
		FROM tiesheet_players tp
		JOIN users u ON u.id = tp.participant_id`

func (r *postgresTiesheetRepository) ListPlayers(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.TiesheetPlayer, error) {
	query := playerSelect + `
		WHERE tp.tiesheet_id = $1
		ORDER BY tp.created_at, tp.id`
	byTiesheet, err := r.listPlayers(ctx, exec, query, tiesheetID)
	if err != nil {
		return nil, err
	}
	players := byTiesheet[tiesheetID]
	if players == nil {
		players = []models.TiesheetPlayer{}
	}
	return players, nil
}

func (r *postgresTiesheetRepository) listPlayers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (map[uuid.UUID][]models.TiesheetPlayer, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiesheet players: %w", err)
	}
	defer rows.Close()

	players := make(map[uuid.UUID][]models.TiesheetPlayer)
	for rows.Next() {
		var p models.TiesheetPlayer
		if err := rows.Scan(&p.ID, &p.TiesheetID, &p.ParticipantID, &p.Username, &p.IsWinner); err != nil {
			return nil, fmt.Errorf("failed to scan tiesheet player: %w", err)
		}
		players[p.TiesheetID] = append(players[p.TiesheetID], p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tiesheet players: %w", err)
	}
	return players, nil
}

// List returns the event's tiesheets with their rosters, stage by stage.
func (r *postgresTiesheetRepository) List(ctx context.Context, exec SQLExecutor, filter TiesheetFilter) ([]models.Tiesheet, error) {
	conditions := []string{"s.event_id = $1"}
	args := []interface{}{filter.EventID}
	if filter.StageID != nil {
		args = append(args, *filter.StageID)
		conditions = append(conditions, fmt.Sprintf("t.stage_id = $%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		conditions = append(conditions, fmt.Sprintf("t.scheduled_date = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	query := tiesheetSelect + where + `
		ORDER BY s.round_order, s.created_at, s.id, t.created_at, t.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tiesheets: %w", err)
	}
	defer rows.Close()

	tiesheets := make([]models.Tiesheet, 0)
	for rows.Next() {
		t, err := r.scanTiesheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tiesheet: %w", err)
		}
		tiesheets = append(tiesheets, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tiesheets: %w", err)
	}
	if len(tiesheets) == 0 {
		return tiesheets, nil
	}

	playerQuery := playerSelect + `
		JOIN tiesheets t ON t.id = tp.tiesheet_id
		JOIN stages s ON s.id = t.stage_id` + where + `
		ORDER BY tp.created_at, tp.id`
	players, err := r.listPlayers(ctx, exec, playerQuery, args...)
	if err != nil {
		return nil, err
	}
	for i := range tiesheets {
		tiesheets[i].Players = players[tiesheets[i].ID]
	}
	return tiesheets, nil
}

func (r *postgresTiesheetRepository) Update(ctx context.Context, exec SQLExecutor, tiesheet *models.Tiesheet) error {
	query := `UPDATE tiesheets SET scheduled_date = $1, scheduled_time = $2, status = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		tiesheet.ScheduledDate, tiesheet.ScheduledTime, string(tiesheet.Status), tiesheet.ID)
	if err != nil {
		return fmt.Errorf("failed to update tiesheet: %w", err)
	}
	return checkAffectedRows(result, ErrTiesheetNotFound)
}

func (r *postgresTiesheetRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id uuid.UUID, status models.TiesheetStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE tiesheets SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update tiesheet status: %w", err)
	}
	return checkAffectedRows(result, ErrTiesheetNotFound)
}

func (r *postgresTiesheetRepository) ClearWinners(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) error {
	query := `UPDATE tiesheet_players SET is_winner = $1 WHERE tiesheet_id = $2`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, false, tiesheetID); err != nil {
		return fmt.Errorf("failed to clear tiesheet winners: %w", err)
	}
	return nil
}

func (r *postgresTiesheetRepository) SetWinner(ctx context.Context, exec SQLExecutor, tiesheetID, participantID uuid.UUID) error {
	query := `UPDATE tiesheet_players SET is_winner = $1 WHERE tiesheet_id = $2 AND participant_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, true, tiesheetID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set tiesheet winner: %w", err)
	}
	return checkAffectedRows(result, ErrTiesheetPlayerNotFound)
}

// Delete removes the tiesheet with its players, matches and scores.
func (r *postgresTiesheetRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tiesheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tiesheet: %w", err)
	}
	return checkAffectedRows(result, ErrTiesheetNotFound)
}
