package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
)

type ExportResult struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

type ExportService interface {
	ExportStandings(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID) (*ExportResult, error)
}

type exportService struct {
	eventRepo     repositories.EventRepository
	stageRepo     repositories.StageRepository
	standingsRepo repositories.StandingsRepository
	uploader      storage.FileUploader
	logger        *slog.Logger
	now           func() time.Time
}

// NewExportService returns a service that reports ErrExportDisabled when
// uploader is nil.
func NewExportService(
	eventRepo repositories.EventRepository,
	stageRepo repositories.StageRepository,
	standingsRepo repositories.StandingsRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ExportService {
	return &exportService{
		eventRepo:     eventRepo,
		stageRepo:     stageRepo,
		standingsRepo: standingsRepo,
		uploader:      uploader,
		logger:        logger,
		now:           time.Now,
	}
}

// ExportStandings renders the full pivot (every page) as CSV and uploads it.
func (s *exportService) ExportStandings(ctx context.Context, eventID uuid.UUID, stageID *uuid.UUID) (*ExportResult, error) {
	if s.uploader == nil {
		return nil, ErrExportDisabled
	}
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		return nil, handleRepositoryError(err, "export standings")
	}
	if stageID != nil {
		stage, err := s.stageRepo.GetByID(ctx, nil, *stageID)
		if err != nil {
			return nil, handleRepositoryError(err, "export standings")
		}
		if stage.EventID != eventID {
			return nil, ErrStageMismatch
		}
	}

	cells, err := s.standingsRepo.Cells(ctx, nil, repositories.StandingsFilter{EventID: eventID, StageID: stageID})
	if err != nil {
		return nil, handleRepositoryError(err, "export standings")
	}
	columns, rows := pivotCells(cells)

	var buf bytes.Buffer
	if err := writeStandingsCSV(&buf, columns, rows); err != nil {
		return nil, fmt.Errorf("export standings: %w: %w", ErrInternal, err)
	}

	key := storage.StandingsKey(eventID, stageID, s.now())
	uploaded, err := s.uploader.Upload(ctx, key, "text/csv", &buf)
	if err != nil {
		s.logger.ErrorContext(ctx, "standings export upload failed", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("export standings: %w: %w", ErrInternal, err)
	}

	s.logger.InfoContext(ctx, "standings exported",
		slog.String("event_id", eventID.String()),
		slog.String("key", uploaded.Key),
		slog.Int("rows", len(rows)))

	return &ExportResult{Key: uploaded.Key, URL: uploaded.Location, Rows: len(rows)}, nil
}

// writeStandingsCSV writes one line per row with the discovered columns after
// the fixed participant fields. Missing values are empty cells.
func writeStandingsCSV(w io.Writer, columns []string, rows []models.StandingsRow) error {
	cw := csv.NewWriter(w)

	header := append([]string{"participant_id", "username", "stage"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.ParticipantID.String(), row.Username, row.StageName)
		for _, c := range columns {
			record = append(record, row.Values[c])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
