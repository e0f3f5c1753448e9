package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// StandingsFilter selects the qualifiers a standings read covers. A nil
// StageID means every stage of the event.
type StandingsFilter struct {
	EventID uuid.UUID
	StageID *uuid.UUID
}

// StandingsCell is one (stage, participant, column, value) tuple in display
// order: stage round, qualifier join order, then column creation order.
type StandingsCell struct {
	StageID       uuid.UUID
	StageName     string
	ParticipantID uuid.UUID
	Username      string
	ColumnName    string
	Value         string
}

// GroupTreeRow is one row of the stage → group → member → column join.
// Group, member and column parts are null for stages without groups, empty
// groups and members without values respectively.
type GroupTreeRow struct {
	StageID       uuid.UUID
	StageName     string
	GroupID       uuid.NullUUID
	GroupName     sql.NullString
	ParticipantID uuid.NullUUID
	Username      sql.NullString
	ColumnID      uuid.NullUUID
	ColumnName    sql.NullString
	Value         sql.NullString
	ToShow        sql.NullBool
}

type StandingsRepository interface {
	Cells(ctx context.Context, exec SQLExecutor, filter StandingsFilter) ([]StandingsCell, error)
	CountRows(ctx context.Context, exec SQLExecutor, filter StandingsFilter) (int, error)
	GroupTree(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]GroupTreeRow, error)
}

type postgresStandingsRepository struct {
	db *sql.DB
}

func NewPostgresStandingsRepository(db *sql.DB) StandingsRepository {
	return &postgresStandingsRepository{db: db}
}

func (r *postgresStandingsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// standingsSource is the FROM/WHERE shared by the page and count queries, so
// both always see the same set of rows.
func standingsSource(filter StandingsFilter) (string, []interface{}) {
	source := `
		FROM qualifiers q
		JOIN stages s ON s.id = q.stage_id
		JOIN users u ON u.id = q.participant_id
		JOIN standing_columns c ON c.stage_id = q.stage_id
		JOIN column_values cv ON cv.column_id = c.id AND cv.participant_id = q.participant_id
		WHERE q.event_id = $1`
	args := []interface{}{filter.EventID}
	if filter.StageID != nil {
		source += ` AND q.stage_id = $2`
		args = append(args, *filter.StageID)
	}
	return source, args
}

func (r *postgresStandingsRepository) Cells(ctx context.Context, exec SQLExecutor, filter StandingsFilter) ([]StandingsCell, error) {
	source, args := standingsSource(filter)
	query := `SELECT s.id, s.name, q.participant_id, u.username, c.column_field, cv.value` + source + `
		ORDER BY s.round_order, s.created_at, s.id, q.created_at, q.id, c.created_at, c.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	cells := make([]StandingsCell, 0)
	for rows.Next() {
		var c StandingsCell
		if err := rows.Scan(&c.StageID, &c.StageName, &c.ParticipantID, &c.Username, &c.ColumnName, &c.Value); err != nil {
			return nil, fmt.Errorf("failed to scan standings cell: %w", err)
		}
		cells = append(cells, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating standings: %w", err)
	}
	return cells, nil
}

// CountRows counts distinct (stage, participant) pairs. With a stage filter
// this is the number of distinct participants.
func (r *postgresStandingsRepository) CountRows(ctx context.Context, exec SQLExecutor, filter StandingsFilter) (int, error) {
	source, args := standingsSource(filter)
	query := `SELECT COUNT(*) FROM (SELECT DISTINCT q.stage_id, q.participant_id` + source + `) AS standings_rows`

	var total int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count standings rows: %w", err)
	}
	return total, nil
}

func (r *postgresStandingsRepository) GroupTree(ctx context.Context, exec SQLExecutor, eventID uuid.UUID) ([]GroupTreeRow, error) {
	query := `
		SELECT s.id, s.name, g.id, g.name, gm.participant_id, u.username,
		       c.id, c.column_field, cv.value, c.to_show
		FROM stages s
		LEFT JOIN stage_groups g ON g.stage_id = s.id
		LEFT JOIN group_members gm ON gm.group_id = g.id
		LEFT JOIN users u ON u.id = gm.participant_id
		LEFT JOIN standing_columns c ON c.stage_id = s.id AND gm.participant_id IS NOT NULL
		LEFT JOIN column_values cv ON cv.column_id = c.id AND cv.participant_id = gm.participant_id
		WHERE s.event_id = $1
		ORDER BY s.round_order, s.created_at, s.id,
		         g.created_at, g.id,
		         gm.created_at, gm.participant_id,
		         c.created_at, c.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group standings: %w", err)
	}
	defer rows.Close()

	result := make([]GroupTreeRow, 0)
	for rows.Next() {
		var row GroupTreeRow
		if err := rows.Scan(&row.StageID, &row.StageName, &row.GroupID, &row.GroupName,
			&row.ParticipantID, &row.Username, &row.ColumnID, &row.ColumnName, &row.Value, &row.ToShow); err != nil {
			return nil, fmt.Errorf("failed to scan group standings row: %w", err)
		}
		result = append(result, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group standings: %w", err)
	}
	return result, nil
}
