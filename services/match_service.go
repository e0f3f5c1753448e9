package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
)

type PlayerResult struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Points        string    `json:"points"`
	Winner        bool      `json:"winner"`
}

type MatchInput struct {
	Name    string         `json:"match_name"`
	Players []PlayerResult `json:"players"`
}

type RecordMatchesInput struct {
	Status        *models.TiesheetStatus `json:"status"`
	OverallWinner *uuid.UUID             `json:"overall_winner"`
	Matches       []MatchInput           `json:"matches"`
}

type MatchService interface {
	RecordMatches(ctx context.Context, tiesheetID uuid.UUID, input RecordMatchesInput) ([]models.Match, error)
	ListMatches(ctx context.Context, tiesheetID uuid.UUID) ([]models.Match, error)
	GetOverallScore(ctx context.Context, tiesheetID uuid.UUID) ([]models.MatchResult, error)
	DeleteMatch(ctx context.Context, matchID uuid.UUID) error
}

type matchService struct {
	db           *sql.DB
	stageRepo    repositories.StageRepository
	tiesheetRepo repositories.TiesheetRepository
	matchRepo    repositories.MatchRepository
	notifier     Notifier
	logger       *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	stageRepo repositories.StageRepository,
	tiesheetRepo repositories.TiesheetRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:           db,
		stageRepo:    stageRepo,
		tiesheetRepo: tiesheetRepo,
		matchRepo:    matchRepo,
		notifier:     notifier,
		logger:       logger,
	}
}

// RecordMatches updates the tiesheet status and winner and appends matches
// with their scores, all in one transaction. Once any match of the tiesheet
// has points, every later match needs non-empty points for every player on
// the roster.
func (s *matchService) RecordMatches(ctx context.Context, tiesheetID uuid.UUID, input RecordMatchesInput) ([]models.Match, error) {
	var eventID uuid.UUID
	created := make([]models.Match, 0, len(input.Matches))

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		tiesheet, err := s.tiesheetRepo.GetByID(ctx, tx, tiesheetID)
		if err != nil {
			return handleRepositoryError(err, "record matches")
		}
		stage, err := s.stageRepo.GetByID(ctx, tx, tiesheet.StageID)
		if err != nil {
			return handleRepositoryError(err, "record matches")
		}
		eventID = stage.EventID

		status, err := nextStatus(tiesheet.Status, input.Status)
		if err != nil {
			return err
		}
		if status != tiesheet.Status {
			if err := s.tiesheetRepo.UpdateStatus(ctx, tx, tiesheetID, status); err != nil {
				return handleRepositoryError(err, "record matches")
			}
		}
		if err := applyWinner(ctx, tx, s.tiesheetRepo, tiesheetID, status, input.OverallWinner); err != nil {
			return err
		}
		if len(input.Matches) == 0 {
			return nil
		}

		players, err := s.tiesheetRepo.ListPlayers(ctx, tx, tiesheetID)
		if err != nil {
			return handleRepositoryError(err, "record matches")
		}
		playerIDs := make(map[uuid.UUID]uuid.UUID, len(players))
		for _, p := range players {
			playerIDs[p.ParticipantID] = p.ID
		}

		scored, err := s.matchRepo.HasScoredPoints(ctx, tx, tiesheetID)
		if err != nil {
			return handleRepositoryError(err, "record matches")
		}
		existing, err := s.matchRepo.ListByTiesheet(ctx, tx, tiesheetID)
		if err != nil {
			return handleRepositoryError(err, "record matches")
		}

		for i, in := range input.Matches {
			if scored {
				if err := requirePoints(players, in.Players); err != nil {
					return err
				}
			}

			name := strings.TrimSpace(in.Name)
			if name == "" {
				name = fmt.Sprintf("Match %d", len(existing)+i+1)
			}
			match := models.Match{TiesheetID: tiesheetID, Name: name}
			if err := s.matchRepo.Create(ctx, tx, &match); err != nil {
				return handleRepositoryError(err, "record matches")
			}

			match.Scores = make([]models.MatchScore, 0, len(in.Players))
			for _, pr := range in.Players {
				playerID, ok := playerIDs[pr.ParticipantID]
				if !ok {
					return fmt.Errorf("%w: %s", ErrTiesheetPlayerNotFound, pr.ParticipantID)
				}
				score := models.MatchScore{
					MatchID:          match.ID,
					TiesheetPlayerID: playerID,
					Points:           strings.TrimSpace(pr.Points),
					Winner:           pr.Winner,
					ParticipantID:    pr.ParticipantID,
				}
				if err := s.matchRepo.CreateScore(ctx, tx, &score); err != nil {
					return handleRepositoryError(err, "record matches")
				}
				if score.Points != "" {
					scored = true
				}
				match.Scores = append(match.Scores, score)
			}
			created = append(created, match)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "matches recorded",
		slog.String("tiesheet_id", tiesheetID.String()),
		slog.Int("matches", len(created)))

	notify(s.notifier, eventID, models.UpdateTiesheetChanged, map[string]interface{}{
		"tiesheet_id": tiesheetID,
		"matches":     created,
	})
	return created, nil
}

// requirePoints checks that every roster player has non-empty points.
func requirePoints(roster []models.TiesheetPlayer, results []PlayerResult) error {
	points := make(map[uuid.UUID]string, len(results))
	for _, r := range results {
		points[r.ParticipantID] = strings.TrimSpace(r.Points)
	}
	for _, p := range roster {
		if points[p.ParticipantID] == "" {
			return fmt.Errorf("%w: %s", ErrPointsRequired, p.Username)
		}
	}
	return nil
}

func (s *matchService) ListMatches(ctx context.Context, tiesheetID uuid.UUID) ([]models.Match, error) {
	if _, err := s.tiesheetRepo.GetByID(ctx, nil, tiesheetID); err != nil {
		return nil, handleRepositoryError(err, "list matches")
	}
	matches, err := s.matchRepo.ListByTiesheet(ctx, nil, tiesheetID)
	if err != nil {
		return nil, handleRepositoryError(err, "list matches")
	}
	return matches, nil
}

// GetOverallScore returns every match of the tiesheet with its scored
// players, in match creation order.
func (s *matchService) GetOverallScore(ctx context.Context, tiesheetID uuid.UUID) ([]models.MatchResult, error) {
	if _, err := s.tiesheetRepo.GetByID(ctx, nil, tiesheetID); err != nil {
		return nil, handleRepositoryError(err, "overall score")
	}
	results, err := s.matchRepo.OverallScore(ctx, nil, tiesheetID)
	if err != nil {
		return nil, handleRepositoryError(err, "overall score")
	}
	return results, nil
}

// DeleteMatch removes the match and its scores.
func (s *matchService) DeleteMatch(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return handleRepositoryError(err, "delete match")
	}
	tiesheet, err := s.tiesheetRepo.GetByID(ctx, nil, match.TiesheetID)
	if err != nil {
		return handleRepositoryError(err, "delete match")
	}
	stage, err := s.stageRepo.GetByID(ctx, nil, tiesheet.StageID)
	if err != nil {
		return handleRepositoryError(err, "delete match")
	}
	if err := s.matchRepo.Delete(ctx, nil, matchID); err != nil {
		return handleRepositoryError(err, "delete match")
	}
	notify(s.notifier, stage.EventID, models.UpdateTiesheetChanged, map[string]uuid.UUID{"tiesheet_id": tiesheet.ID})
	return nil
}
