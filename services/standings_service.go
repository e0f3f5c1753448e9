package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const pointsColumn = "points"

type StandingsService interface {
	PivotStandings(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID, page, limit int) (*models.StandingsPage, error)
	GroupStandings(ctx context.Context, eventID uuid.UUID) ([]models.StageStanding, error)
}

type standingsService struct {
	eventRepo     repositories.EventRepository
	stageRepo     repositories.StageRepository
	standingsRepo repositories.StandingsRepository
	logger        *slog.Logger
}

func NewStandingsService(
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	standingsRepo repositories.StandingsRepository,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		eventRepo:     eventRepo,
		stageRepo:     stageRepo,
		standingsRepo: standingsRepo,
		logger:        logger,
	}
}

type standingsKey struct {
	stageID       uuid.UUID
	participantID uuid.UUID
}

var standingsPivot = Pivot[repositories.StandingsCell, standingsKey]{
	RowKey: func(c repositories.StandingsCell) standingsKey {
		return standingsKey{stageID: c.StageID, participantID: c.ParticipantID}
	},
	Column: func(c repositories.StandingsCell) string { return c.ColumnName },
	Value:  func(c repositories.StandingsCell) string { return c.Value },
}

// pivotCells builds standings rows from cells in display order. Rows stay
// grouped by stage; within a stage they are ordered by the points column
// when the stage has one and by qualifier order otherwise.
func pivotCells(cells []repositories.StandingsCell) ([]string, []models.StandingsRow) {
	columns, rows := standingsPivot.Build(cells)

	// Каждая стадия сортируется по своей колонке очков.
	stageIndex := make(map[uuid.UUID]int)
	stageColumns := make([][]string, 0)
	type stageColumn struct {
		stageID uuid.UUID
		name    string
	}
	seen := make(map[stageColumn]struct{})
	for _, c := range cells {
		i, ok := stageIndex[c.StageID]
		if !ok {
			i = len(stageColumns)
			stageIndex[c.StageID] = i
			stageColumns = append(stageColumns, nil)
		}
		key := stageColumn{stageID: c.StageID, name: c.ColumnName}
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			stageColumns[i] = append(stageColumns[i], c.ColumnName)
		}
	}
	points := make([]string, len(stageColumns))
	for i, names := range stageColumns {
		points[i], _ = findColumn(names, pointsColumn)
	}
	sortRowsDesc(rows,
		func(c repositories.StandingsCell) int { return stageIndex[c.StageID] },
		func(stage int) string { return points[stage] })

	result := make([]models.StandingsRow, len(rows))
	for i, r := range rows {
		result[i] = models.StandingsRow{
			StageID:       r.First.StageID,
			StageName:     r.First.StageName,
			ParticipantID: r.First.ParticipantID,
			Username:      r.First.Username,
			Values:        r.Values,
		}
	}
	return columns, result
}

func (s *standingsService) checkScope(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID) error {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return handleRepositoryError(err, "standings")
	}
	if stageID != nil {
		stage, err := s.stageRepo.GetByID(ctx, nil, *stageID)
		if err != nil {
			return handleRepositoryError(err, "standings")
		}
		if stage.EventID != eventID {
			return ErrStageMismatch
		}
	}
	return nil
}

// PivotStandings returns one page of pivoted standings. The page and the
// total come from queries over the same predicate and run concurrently.
func (s *standingsService) PivotStandings(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID, page, limit int) (*models.StandingsPage, error) {
	if page < 1 || limit < 1 {
		return nil, ErrInvalidPagination
	}
	if err := s.checkScope(ctx, eventID, stageID); err != nil {
		return nil, err
	}

	filter := repositories.StandingsFilter{EventID: eventID, StageID: stageID}
	var cells []repositories.StandingsCell
	var total int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cells, err = s.standingsRepo.Cells(gctx, nil, filter)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.standingsRepo.CountRows(gctx, nil, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, handleRepositoryError(err, "pivot standings")
	}

	columns, rows := pivotCells(cells)
	pageRows, totalPages := paginate(rows, page, limit, total)

	return &models.StandingsPage{
		Columns:    columns,
		Rows:       pageRows,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GroupStandings builds the stage → group → member → column tree of the event.
func (s *standingsService) GroupStandings(ctx context.Context, eventID uuid.UUID) ([]models.StageStanding, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, handleRepositoryError(err, "group standings")
	}
	rows, err := s.standingsRepo.GroupTree(ctx, nil, eventID)
	if err != nil {
		return nil, handleRepositoryError(err, "group standings")
	}
	return buildGroupTree(rows), nil
}

// buildGroupTree folds ordered join rows into the nested tree. Rows arrive
// sorted by stage, group, member and column, so each level only needs to
// look at its last element.
func buildGroupTree(rows []repositories.GroupTreeRow) []models.StageStanding {
	stages := make([]models.StageStanding, 0)
	for _, row := range rows {
		if n := len(stages); n == 0 || stages[n-1].StageID != row.StageID {
			stages = append(stages, models.StageStanding{
				StageID:   row.StageID,
				StageName: row.StageName,
				Groups:    []models.GroupStanding{},
			})
		}
		stage := &stages[len(stages)-1]

		if !row.GroupID.Valid {
			continue
		}
		if n := len(stage.Groups); n == 0 || stage.Groups[n-1].GroupID != row.GroupID.UUID {
			stage.Groups = append(stage.Groups, models.GroupStanding{
				GroupID:   row.GroupID.UUID,
				GroupName: row.GroupName.String,
				Members:   []models.MemberStanding{},
			})
		}
		group := &stage.Groups[len(stage.Groups)-1]

		if !row.ParticipantID.Valid {
			continue
		}
		if n := len(group.Members); n == 0 || group.Members[n-1].ParticipantID != row.ParticipantID.UUID {
			group.Members = append(group.Members, models.MemberStanding{
				ParticipantID: row.ParticipantID.UUID,
				Username:      row.Username.String,
				Columns:       []models.ColumnEntry{},
			})
		}
		member := &group.Members[len(group.Members)-1]

		if !row.ColumnID.Valid || !row.Value.Valid {
			continue
		}
		member.Columns = append(member.Columns, models.ColumnEntry{
			ColumnID: row.ColumnID.UUID,
			Name:     row.ColumnName.String,
			Value:    row.Value.String,
			ToShow:   row.ToShow.Bool,
		})
	}
	return stages
}
