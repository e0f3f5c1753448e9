package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type TiesheetInput struct {
	StageID        uuid.UUID             `json:"stage_id"`
	GroupID        *uuid.UUID            `json:"group_id"`
	ScheduledDate  *models.Date          `json:"scheduled_date"`
	ScheduledTime  string                `json:"scheduled_time"`
	Status         models.TiesheetStatus `json:"status"`
	ParticipantIDs []uuid.UUID           `json:"participant_ids"`
}

type ScoreUpdate struct {
	ScoreID uuid.UUID `json:"score_id"`
	Points  *string   `json:"points"`
	Winner  *bool     `json:"winner"`
}

type MatchUpdate struct {
	MatchID uuid.UUID     `json:"match_id"`
	Name    *string       `json:"match_name"`
	Scores  []ScoreUpdate `json:"scores"`
}

type ColumnWrite struct {
	ColumnID uuid.UUID `json:"column_id"`
	Value    string    `json:"value"`
}

type PlayerColumns struct {
	ParticipantID uuid.UUID     `json:"participant_id"`
	Columns       []ColumnWrite `json:"columns"`
}

// EditTiesheetInput only touches existing rows. Nil fields are left as they are.
type EditTiesheetInput struct {
	ScheduledDate *models.Date           `json:"scheduled_date"`
	ScheduledTime *string                `json:"scheduled_time"`
	Status        *models.TiesheetStatus `json:"status"`
	OverallWinner *uuid.UUID             `json:"overall_winner"`
	Matches       []MatchUpdate          `json:"matches"`
	PlayerColumns []PlayerColumns        `json:"player_columns"`
}

type ScheduleInput struct {
	Generator     string       `json:"generator"`
	ScheduledDate *models.Date `json:"scheduled_date"`
	ScheduledTime string       `json:"scheduled_time"`
}

type TiesheetService interface {
	CreateTiesheet(ctx context.Context, input TiesheetInput) (*models.Tiesheet, error)
	GetTiesheet(ctx context.Context, id uuid.UUID) (*models.TiesheetDetail, error)
	ListTiesheets(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID, today bool) ([]models.Tiesheet, error)
	EditTiesheet(ctx context.Context, id uuid.UUID, input EditTiesheetInput) (*models.TiesheetDetail, error)
	DeleteTiesheet(ctx context.Context, id uuid.UUID) error
	ScheduleGroup(ctx context.Context, groupID uuid.UUID, input ScheduleInput) ([]models.Tiesheet, error)
	ScheduleStage(ctx context.Context, stageID uuid.UUID, input ScheduleInput) ([]models.Tiesheet, error)
}

type tiesheetService struct {
	db            *sql.DB
	eventRepo     repositories.EventRepository
	stageRepo     repositories.StageRepository
	groupRepo     repositories.GroupRepository
	qualifierRepo repositories.QualifierRepository
	columnRepo    repositories.StandingColumnRepository
	valueRepo     repositories.ColumnValueRepository
	tiesheetRepo  repositories.TiesheetRepository
	matchRepo     repositories.MatchRepository
	standingsRepo repositories.StandingsRepository
	notifier      Notifier
	logger        *slog.Logger
	now           func() time.Time
}

func NewTiesheetService(
	db *sql.DB,
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	groupRepo repositories.GroupRepository,
	qualifierRepo repositories.QualifierRepository,
	columnRepo repositories.StandingColumnRepository,
	valueRepo repositories.ColumnValueRepository,
	tiesheetRepo repositories.TiesheetRepository,
	matchRepo repositories.MatchRepository,
	standingsRepo repositories.StandingsRepository,
	notifier Notifier,
	logger *slog.Logger,
) TiesheetService {
	return &tiesheetService{
		db:            db,
		eventRepo:     eventRepo,
		stageRepo:     stageRepo,
		groupRepo:     groupRepo,
		qualifierRepo: qualifierRepo,
		columnRepo:    columnRepo,
		valueRepo:     valueRepo,
		tiesheetRepo:  tiesheetRepo,
		matchRepo:     matchRepo,
		standingsRepo: standingsRepo,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// nextStatus resolves a requested status against the current one.
func nextStatus(current models.TiesheetStatus, requested *models.TiesheetStatus) (models.TiesheetStatus, error) {
	if requested == nil {
		return current, nil
	}
	next, err := parseStatus(*requested)
	if err != nil {
		return "", err
	}
	if !current.CanTransitionTo(next) {
		return "", fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, current, next)
	}
	return next, nil
}

// applyWinner makes winner the only winner on the roster. Clearing and setting
// happen in the caller's transaction.
func applyWinner(ctx context.Context, tx *sql.Tx, repo repositories.TiesheetRepository, tiesheetID uuid.UUID, status models.TiesheetStatus, winner *uuid.UUID) error {
	if winner == nil {
		return nil
	}
	if status != models.TiesheetCompleted {
		return ErrWinnerRequiresCompletion
	}
	if err := repo.ClearWinners(ctx, tx, tiesheetID); err != nil {
		return handleRepositoryError(err, "clear winners")
	}
	if err := repo.SetWinner(ctx, tx, tiesheetID, *winner); err != nil {
		if errors.Is(err, repositories.ErrTiesheetPlayerNotFound) {
			return fmt.Errorf("%w: %s", ErrTiesheetPlayerNotFound, *winner)
		}
		return handleRepositoryError(err, "set winner")
	}
	return nil
}

// createTiesheetTx rejects a roster the stage already has a tiesheet for,
// regardless of participant order.
func (s *tiesheetService) createTiesheetTx(ctx context.Context, tx *sql.Tx, tiesheet *models.Tiesheet, participantIDs []uuid.UUID) error {
	existing, found, err := s.tiesheetRepo.FindByRoster(ctx, tx, tiesheet.StageID, participantIDs)
	if err != nil {
		return handleRepositoryError(err, "find tiesheet roster")
	}
	if found {
		return fmt.Errorf("%w: %s", ErrTiesheetConflict, existing)
	}
	if err := s.tiesheetRepo.Create(ctx, tx, tiesheet); err != nil {
		return handleRepositoryError(err, "create tiesheet")
	}
	players, err := s.tiesheetRepo.AddPlayers(ctx, tx, tiesheet.ID, participantIDs)
	if err != nil {
		return handleRepositoryError(err, "add tiesheet players")
	}
	tiesheet.Players = players
	return nil
}

func (s *tiesheetService) CreateTiesheet(ctx context.Context, input TiesheetInput) (*models.Tiesheet, error) {
	ids := uniqueIDs(input.ParticipantIDs)
	if len(ids) < 2 {
		return nil, ErrRosterTooSmall
	}
	status := models.TiesheetScheduled
	if input.Status != "" {
		var err error
		if status, err = parseStatus(input.Status); err != nil {
			return nil, err
		}
	}
	if err := validateScheduledTime(input.ScheduledTime); err != nil {
		return nil, err
	}

	tiesheet := &models.Tiesheet{
		StageID:       input.StageID,
		GroupID:       input.GroupID,
		ScheduledDate: input.ScheduledDate,
		ScheduledTime: input.ScheduledTime,
		Status:        status,
	}

	var stage *models.Stage
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		stage, err = s.stageRepo.GetByID(ctx, tx, input.StageID)
		if err != nil {
			return handleRepositoryError(err, "create tiesheet")
		}
		if input.GroupID != nil {
			group, err := s.groupRepo.GetByID(ctx, tx, *input.GroupID)
			if err != nil {
				return handleRepositoryError(err, "create tiesheet")
			}
			if group.StageID != stage.ID {
				return ErrGroupStageMismatch
			}
		}

		qualified, err := s.qualifierRepo.QualifiedSet(ctx, tx, stage.ID, ids)
		if err != nil {
			return handleRepositoryError(err, "create tiesheet")
		}
		for _, id := range ids {
			if !qualified[id] {
				return fmt.Errorf("%w: %s", ErrNotQualified, id)
			}
		}
		return s.createTiesheetTx(ctx, tx, tiesheet, ids)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tiesheet created",
		slog.String("tiesheet_id", tiesheet.ID.String()),
		slog.String("stage_id", stage.ID.String()),
		slog.Int("players", len(ids)))

	if players, err := s.tiesheetRepo.ListPlayers(ctx, nil, tiesheet.ID); err == nil {
		tiesheet.Players = players
	}
	tiesheet.StageName = stage.Name
	notify(s.notifier, stage.EventID, models.UpdateTiesheetChanged, tiesheet)
	return tiesheet, nil
}

// GetTiesheet loads the tiesheet with its roster, the roster's column values
// for the stage and the matches.
func (s *tiesheetService) GetTiesheet(ctx context.Context, id uuid.UUID) (*models.TiesheetDetail, error) {
	tiesheet, err := s.tiesheetRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tiesheet")
	}

	var players []models.TiesheetPlayer
	var matches []models.Match
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.tiesheetRepo.ListPlayers(gctx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTiesheet(gctx, nil, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err, "get tiesheet")
	}

	participantIDs := make([]uuid.UUID, len(players))
	for i, p := range players {
		participantIDs[i] = p.ParticipantID
	}
	columns, err := s.valueRepo.ListForParticipants(ctx, nil, tiesheet.StageID, participantIDs)
	if err != nil {
		return nil, handleRepositoryError(err, "get tiesheet")
	}
	for i := range players {
		players[i].Columns = columns[players[i].ParticipantID]
	}

	tiesheet.Players = players
	return &models.TiesheetDetail{Tiesheet: *tiesheet, Matches: matches}, nil
}

// ListTiesheets lists the event's tiesheets, optionally only one stage and
// only those scheduled for today.
func (s *tiesheetService) ListTiesheets(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID, today bool) ([]models.Tiesheet, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, handleRepositoryError(err, "list tiesheets")
	}
	if stageID != nil {
		stage, err := s.stageRepo.GetByID(ctx, nil, *stageID)
		if err != nil {
			return nil, handleRepositoryError(err, "list tiesheets")
		}
		if stage.EventID != eventID {
			return nil, ErrStageMismatch
		}
	}

	filter := repositories.TiesheetFilter{EventID: eventID, StageID: stageID}
	if today {
		d := models.NewDate(s.now())
		filter.Date = &d
	}
	tiesheets, err := s.tiesheetRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, handleRepositoryError(err, "list tiesheets")
	}
	return tiesheets, nil
}

// EditTiesheet updates schedule, status, winner, existing matches and scores,
// and players' column values in one transaction. A referenced match or score
// that does not exist on this tiesheet is NotFound; nothing is created.
func (s *tiesheetService) EditTiesheet(ctx context.Context, id uuid.UUID, input EditTiesheetInput) (*models.TiesheetDetail, error) {
	if input.ScheduledTime != nil {
		if err := validateScheduledTime(*input.ScheduledTime); err != nil {
			return nil, err
		}
	}

	var eventID uuid.UUID
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		tiesheet, err := s.tiesheetRepo.GetByID(ctx, tx, id)
		if err != nil {
			return handleRepositoryError(err, "edit tiesheet")
		}
		stage, err := s.stageRepo.GetByID(ctx, tx, tiesheet.StageID)
		if err != nil {
			return handleRepositoryError(err, "edit tiesheet")
		}
		eventID = stage.EventID

		if tiesheet.Status, err = nextStatus(tiesheet.Status, input.Status); err != nil {
			return err
		}
		if input.ScheduledDate != nil {
			tiesheet.ScheduledDate = input.ScheduledDate
		}
		if input.ScheduledTime != nil {
			tiesheet.ScheduledTime = *input.ScheduledTime
		}
		if err := s.tiesheetRepo.Update(ctx, tx, tiesheet); err != nil {
			return handleRepositoryError(err, "edit tiesheet")
		}
		if err := applyWinner(ctx, tx, s.tiesheetRepo, id, tiesheet.Status, input.OverallWinner); err != nil {
			return err
		}

		for _, mu := range input.Matches {
			if err := s.editMatchTx(ctx, tx, id, mu); err != nil {
				return err
			}
		}
		if len(input.PlayerColumns) > 0 {
			if err := s.writePlayerColumnsTx(ctx, tx, tiesheet, input.PlayerColumns); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tiesheet edited",
		slog.String("tiesheet_id", id.String()),
		slog.Int("matches", len(input.Matches)),
		slog.Int("player_columns", len(input.PlayerColumns)))

	detail, err := s.GetTiesheet(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(s.notifier, eventID, models.UpdateTiesheetChanged, detail)
	if len(input.PlayerColumns) > 0 {
		notify(s.notifier, eventID, models.UpdateStandingsChanged, map[string]uuid.UUID{"stage_id": detail.StageID})
	}
	return detail, nil
}

func (s *tiesheetService) editMatchTx(ctx context.Context, tx *sql.Tx, tiesheetID uuid.UUID, mu MatchUpdate) error {
	match, err := s.matchRepo.GetByID(ctx, tx, mu.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, mu.MatchID)
		}
		return handleRepositoryError(err, "edit match")
	}
	if match.TiesheetID != tiesheetID {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, mu.MatchID)
	}

	if mu.Name != nil {
		name := strings.TrimSpace(*mu.Name)
		if name == "" {
			return ErrMatchNameRequired
		}
		if err := s.matchRepo.UpdateName(ctx, tx, match.ID, name); err != nil {
			return handleRepositoryError(err, "edit match")
		}
	}

	for _, su := range mu.Scores {
		score, err := s.matchRepo.GetScore(ctx, tx, su.ScoreID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchScoreNotFound) {
				return fmt.Errorf("%w: %s", ErrMatchScoreNotFound, su.ScoreID)
			}
			return handleRepositoryError(err, "edit score")
		}
		if score.MatchID != match.ID {
			return fmt.Errorf("%w: %s", ErrMatchScoreNotFound, su.ScoreID)
		}
		points, winner := score.Points, score.Winner
		if su.Points != nil {
			points = strings.TrimSpace(*su.Points)
		}
		if su.Winner != nil {
			winner = *su.Winner
		}
		if err := s.matchRepo.UpdateScore(ctx, tx, score.ID, points, winner); err != nil {
			return handleRepositoryError(err, "edit score")
		}
	}
	return nil
}

// writePlayerColumnsTx upserts roster players' values for the tiesheet's stage.
func (s *tiesheetService) writePlayerColumnsTx(ctx context.Context, tx *sql.Tx, tiesheet *models.Tiesheet, writes []PlayerColumns) error {
	players, err := s.tiesheetRepo.ListPlayers(ctx, tx, tiesheet.ID)
	if err != nil {
		return handleRepositoryError(err, "write player columns")
	}
	onRoster := make(map[uuid.UUID]bool, len(players))
	for _, p := range players {
		onRoster[p.ParticipantID] = true
	}

	stageColumns := make(map[uuid.UUID]bool)
	for _, pc := range writes {
		if !onRoster[pc.ParticipantID] {
			return fmt.Errorf("%w: %s", ErrTiesheetPlayerNotFound, pc.ParticipantID)
		}
		for _, cw := range pc.Columns {
			if !stageColumns[cw.ColumnID] {
				column, err := s.columnRepo.GetByID(ctx, tx, cw.ColumnID)
				if err != nil {
					return handleRepositoryError(err, "write player columns")
				}
				if column.StageID != tiesheet.StageID {
					return fmt.Errorf("%w: %s", ErrColumnStageMismatch, cw.ColumnID)
				}
				stageColumns[cw.ColumnID] = true
			}
			if err := s.valueRepo.Upsert(ctx, tx, pc.ParticipantID, cw.ColumnID, cw.Value); err != nil {
				return handleRepositoryError(err, "write player columns")
			}
		}
	}
	return nil
}

func (s *tiesheetService) DeleteTiesheet(ctx context.Context, id uuid.UUID) error {
	tiesheet, err := s.tiesheetRepo.GetByID(ctx, nil, id)
	if err != nil {
		return handleRepositoryError(err, "delete tiesheet")
	}
	stage, err := s.stageRepo.GetByID(ctx, nil, tiesheet.StageID)
	if err != nil {
		return handleRepositoryError(err, "delete tiesheet")
	}
	if err := s.tiesheetRepo.Delete(ctx, nil, id); err != nil {
		return handleRepositoryError(err, "delete tiesheet")
	}
	s.logger.InfoContext(ctx, "tiesheet deleted", slog.String("tiesheet_id", id.String()))
	notify(s.notifier, stage.EventID, models.UpdateTiesheetDeleted, map[string]uuid.UUID{"tiesheet_id": id})
	return nil
}

// ScheduleGroup creates a tiesheet for every pairing the generator proposes
// for the group's members. Rosters that already have a tiesheet in the stage
// are skipped.
func (s *tiesheetService) ScheduleGroup(ctx context.Context, groupID uuid.UUID, input ScheduleInput) ([]models.Tiesheet, error) {
	if err := validateScheduledTime(input.ScheduledTime); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.GetByID(ctx, nil, groupID)
	if err != nil {
		return nil, handleRepositoryError(err, "schedule group")
	}
	stage, err := s.stageRepo.GetByID(ctx, nil, group.StageID)
	if err != nil {
		return nil, handleRepositoryError(err, "schedule group")
	}
	members, err := s.groupRepo.ListMembers(ctx, nil, groupID)
	if err != nil {
		return nil, handleRepositoryError(err, "schedule group")
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ParticipantID
	}

	pairings, err := s.generate(ctx, input.Generator, ids)
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, stage, &group.ID, pairings, input)
}

// ScheduleStage seeds the stage's qualifiers by their standings and creates
// the opening pairings. Without a generator name the seeding is a knockout.
func (s *tiesheetService) ScheduleStage(ctx context.Context, stageID uuid.UUID, input ScheduleInput) ([]models.Tiesheet, error) {
	if err := validateScheduledTime(input.ScheduledTime); err != nil {
		return nil, err
	}
	stage, err := s.stageRepo.GetByID(ctx, nil, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "schedule stage")
	}
	seeds, err := s.rankStage(ctx, stage)
	if err != nil {
		return nil, err
	}

	generator := input.Generator
	if generator == "" {
		generator = brackets.GeneratorSingleElimination
	}
	pairings, err := s.generate(ctx, generator, seeds)
	if err != nil {
		return nil, err
	}
	return s.schedule(ctx, stage, nil, pairings, input)
}

// rankStage orders the stage's qualifiers best first. Qualifiers without any
// column values follow in join order.
func (s *tiesheetService) rankStage(ctx context.Context, stage *models.Stage) ([]uuid.UUID, error) {
	cells, err := s.standingsRepo.Cells(ctx, nil, repositories.StandingsFilter{EventID: stage.EventID, StageID: &stage.ID})
	if err != nil {
		return nil, handleRepositoryError(err, "rank stage")
	}
	qualifiers, err := s.qualifierRepo.ListByStage(ctx, nil, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "rank stage")
	}

	_, rows := pivotCells(cells)
	seeds := make([]uuid.UUID, 0, len(qualifiers))
	ranked := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		seeds = append(seeds, r.ParticipantID)
		ranked[r.ParticipantID] = true
	}
	for _, q := range qualifiers {
		if !ranked[q.ParticipantID] {
			seeds = append(seeds, q.ParticipantID)
		}
	}
	return seeds, nil
}

func (s *tiesheetService) generate(ctx context.Context, name string, ids []uuid.UUID) ([]brackets.Pairing, error) {
	generator, err := brackets.GeneratorFor(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, name)
	}
	pairings, err := generator.Generate(ctx, brackets.GenerateParams{Participants: ids})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughParticipants) {
			return nil, ErrRosterTooSmall
		}
		return nil, fmt.Errorf("generate pairings: %w: %w", ErrInternal, err)
	}
	return pairings, nil
}

func (s *tiesheetService) schedule(ctx context.Context, stage *models.Stage, groupID *uuid.UUID, pairings []brackets.Pairing, input ScheduleInput) ([]models.Tiesheet, error) {
	created := make([]models.Tiesheet, 0, len(pairings))
	skipped := 0
	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		for _, p := range pairings {
			if p.IsBye {
				continue
			}
			tiesheet := &models.Tiesheet{
				StageID:       stage.ID,
				GroupID:       groupID,
				ScheduledDate: input.ScheduledDate,
				ScheduledTime: input.ScheduledTime,
				Status:        models.TiesheetScheduled,
			}
			err := s.createTiesheetTx(ctx, tx, tiesheet, p.ParticipantIDs)
			if errors.Is(err, ErrTiesheetConflict) {
				skipped++
				continue
			}
			if err != nil {
				return err
			}
			tiesheet.StageName = stage.Name
			created = append(created, *tiesheet)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tiesheets scheduled",
		slog.String("stage_id", stage.ID.String()),
		slog.Int("created", len(created)),
		slog.Int("skipped", skipped))

	if len(created) > 0 {
		notify(s.notifier, stage.EventID, models.UpdateTiesheetChanged, created)
	}
	return created, nil
}
