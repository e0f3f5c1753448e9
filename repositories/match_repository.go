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
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchReference      = errors.New("match tiesheet reference is invalid")
	ErrMatchScoreNotFound  = errors.New("match score not found")
	ErrMatchScoreConflict  = errors.New("score already recorded for this player in this match")
	ErrMatchScoreReference = errors.New("match score match or player reference is invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	ListByTiesheet(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.Match, error)
	UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error
	Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error

	CreateScore(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error
	GetScore(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.MatchScore, error)
	UpdateScore(ctx context.Context, exec SQLExecutor, id uuid.UUID, points string, winner bool) error
	HasScoredPoints(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) (bool, error)
	OverallScore(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.MatchResult, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.ID == uuid.Nil {
		match.ID = uuid.Must(uuid.NewV7())
	}
	query := `INSERT INTO matches (id, tiesheet_id, match_name) VALUES ($1, $2, $3)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, match.ID, match.TiesheetID, match.Name)
	return mapConstraintError(err, "failed to create match", nil, ErrMatchReference)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	query := `SELECT id, tiesheet_id, match_name FROM matches WHERE id = $1`
	var m models.Match
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(&m.ID, &m.TiesheetID, &m.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return &m, nil
}

// ListByTiesheet returns matches in creation order with all their scores.
func (r *postgresMatchRepository) ListByTiesheet(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.Match, error) {
	query := `
		SELECT m.id, m.tiesheet_id, m.match_name,
		       ms.id, ms.tiesheet_player_id, ms.points, ms.winner, tp.participant_id, u.username
		FROM matches m
		LEFT JOIN match_scores ms ON ms.match_id = m.id
		LEFT JOIN tiesheet_players tp ON tp.id = ms.tiesheet_player_id
		LEFT JOIN users u ON u.id = tp.participant_id
		WHERE m.tiesheet_id = $1
		ORDER BY m.created_at, m.id, tp.created_at, tp.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tiesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var m models.Match
		var scoreID, playerID, participantID uuid.NullUUID
		var points, username sql.NullString
		var winner sql.NullBool
		if err := rows.Scan(&m.ID, &m.TiesheetID, &m.Name,
			&scoreID, &playerID, &points, &winner, &participantID, &username); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}

		i, ok := index[m.ID]
		if !ok {
			m.Scores = []models.MatchScore{}
			matches = append(matches, m)
			i = len(matches) - 1
			index[m.ID] = i
		}
		if scoreID.Valid {
			matches[i].Scores = append(matches[i].Scores, models.MatchScore{
				ID:               scoreID.UUID,
				MatchID:          m.ID,
				TiesheetPlayerID: playerID.UUID,
				Points:           points.String,
				Winner:           winner.Bool,
				ParticipantID:    participantID.UUID,
				Username:         username.String,
			})
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateName(ctx context.Context, exec SQLExecutor, id uuid.UUID, name string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE matches SET match_name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// Delete removes the match and its scores.
func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id uuid.UUID) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) CreateScore(ctx context.Context, exec SQLExecutor, score *models.MatchScore) error {
	if score.ID == uuid.Nil {
		score.ID = uuid.Must(uuid.NewV7())
	}
	query := `
		INSERT INTO match_scores (id, match_id, tiesheet_player_id, points, winner)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		score.ID, score.MatchID, score.TiesheetPlayerID, score.Points, score.Winner)
	return mapConstraintError(err, "failed to create match score", ErrMatchScoreConflict, ErrMatchScoreReference)
}

func (r *postgresMatchRepository) GetScore(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.MatchScore, error) {
	query := `
		SELECT ms.id, ms.match_id, ms.tiesheet_player_id, ms.points, ms.winner, tp.participant_id
		FROM match_scores ms
		JOIN tiesheet_players tp ON tp.id = ms.tiesheet_player_id
		WHERE ms.id = $1`
	var s models.MatchScore
	err := r.getExecutor(exec).QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.MatchID, &s.TiesheetPlayerID, &s.Points, &s.Winner, &s.ParticipantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchScoreNotFound
		}
		return nil, fmt.Errorf("failed to get match score %s: %w", id, err)
	}
	return &s, nil
}

func (r *postgresMatchRepository) UpdateScore(ctx context.Context, exec SQLExecutor, id uuid.UUID, points string, winner bool) error {
	query := `UPDATE match_scores SET points = $1, winner = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, points, winner, id)
	if err != nil {
		return fmt.Errorf("failed to update match score: %w", err)
	}
	return checkAffectedRows(result, ErrMatchScoreNotFound)
}

// HasScoredPoints reports whether any match of the tiesheet has non-empty points.
func (r *postgresMatchRepository) HasScoredPoints(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM match_scores ms
		JOIN matches m ON m.id = ms.match_id
		WHERE m.tiesheet_id = $1 AND ms.points <> ''`
	var n int
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, tiesheetID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check scored matches: %w", err)
	}
	return n > 0, nil
}

// OverallScore aggregates the recorded scores per match, matches ordered by
// creation so the result reads as match 1, match 2 and so on.
func (r *postgresMatchRepository) OverallScore(ctx context.Context, exec SQLExecutor, tiesheetID uuid.UUID) ([]models.MatchResult, error) {
	query := `
		SELECT m.id, m.match_name, ms.id, ms.tiesheet_player_id, tp.participant_id, u.username, ms.points, ms.winner
		FROM matches m
		JOIN match_scores ms ON ms.match_id = m.id
		JOIN tiesheet_players tp ON tp.id = ms.tiesheet_player_id
		JOIN users u ON u.id = tp.participant_id
		WHERE m.tiesheet_id = $1
		ORDER BY m.created_at, m.id, tp.created_at, tp.id`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tiesheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overall score: %w", err)
	}
	defer rows.Close()

	results := make([]models.MatchResult, 0)
	for rows.Next() {
		var matchID uuid.UUID
		var matchName string
		var s models.MatchScore
		if err := rows.Scan(&matchID, &matchName, &s.ID, &s.TiesheetPlayerID, &s.ParticipantID, &s.Username, &s.Points, &s.Winner); err != nil {
			return nil, fmt.Errorf("failed to scan overall score: %w", err)
		}
		s.MatchID = matchID

		if n := len(results); n == 0 || results[n-1].MatchID != matchID {
			results = append(results, models.MatchResult{MatchID: matchID, MatchName: matchName})
		}
		last := &results[len(results)-1]
		last.Scores = append(last.Scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overall score: %w", err)
	}
	return results, nil
}
