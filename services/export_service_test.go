package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}, types: map[string]string{}}
}

func (u *memoryUploader) Upload(_ context.Context, key, contentType string, body io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	u.objects[key] = data
	u.types[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

func newExportService(f *fixture, uploader storage.FileUploader) *exportService {
	s := NewExportService(f.eventRepo, repositories.NewPostgresStageRepository(f.db),
		repositories.NewPostgresStandingsRepository(f.db), uploader,
		slog.New(slog.NewTextHandler(io.Discard, nil))).(*exportService)
	s.now = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestExportStandings(t *testing.T) {
	f := newFixture(t)
	eventID, stage, ids := f.qualifiedStage(t, 2)
	points := f.columnID(t, stage.ID, "Points")
	require.NoError(t, f.columns.SetValue(f.ctx, ids[1], points, "4"))

	uploader := newMemoryUploader()
	s := newExportService(f, uploader)

	result, err := s.ExportStandings(f.ctx, eventID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, "exports/"+eventID.String()+"/standings-20261018T093000Z.csv", result.Key)
	assert.Equal(t, "https://cdn.example.test/"+result.Key, result.URL)
	assert.Equal(t, "text/csv", uploader.types[result.Key])

	records, err := csv.NewReader(bytes.NewReader(uploader.objects[result.Key])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append([]string{"participant_id", "username", "stage"}, defaultColumns...), records[0])
	assert.Equal(t, ids[1].String(), records[1][0], "highest points first")
	assert.Equal(t, "4", records[1][len(records[1])-1])
	assert.Equal(t, stage.Name, records[1][2])
}

func TestExportStandingsErrors(t *testing.T) {
	f := newFixture(t)
	eventID, stage, _ := f.qualifiedStage(t, 1)

	_, err := newExportService(f, nil).ExportStandings(f.ctx, eventID, nil)
	assert.ErrorIs(t, err, ErrExportDisabled)

	uploader := newMemoryUploader()
	_, err = newExportService(f, uploader).ExportStandings(f.ctx, f.event(t), &stage.ID)
	assert.ErrorIs(t, err, ErrStageMismatch)

	_, err = newExportService(f, uploader).ExportStandings(f.ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEventNotFound)

	uploader.err = errors.New("bucket unavailable")
	_, err = newExportService(f, uploader).ExportStandings(f.ctx, eventID, nil)
	assert.ErrorIs(t, err, ErrInternal)
	assert.Empty(t, uploader.objects)
}

func TestWriteStandingsCSVEmptyCells(t *testing.T) {
	var buf strings.Builder
	id := uuid.New()
	err := writeStandingsCSV(&buf, []string{"Points", "Time"}, []models.StandingsRow{
		{ParticipantID: id, Username: "ana", StageName: "Round 1", Values: map[string]string{"Points": "3"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "participant_id,username,stage,Points,Time\n"+id.String()+",ana,Round 1,3,\n", buf.String())
}
