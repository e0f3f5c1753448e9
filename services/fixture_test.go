package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.LiveUpdate
}

func (n *recordingNotifier) Publish(_ uuid.UUID, update models.LiveUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]string, len(n.updates))
	for i, u := range n.updates {
		result[i] = u.Type
	}
	return result
}

// fixture wires every service to a fresh sqlite database.
type fixture struct {
	ctx      context.Context
	db       *sql.DB
	notifier *recordingNotifier

	eventRepo       repositories.EventRepository
	participantRepo repositories.ParticipantRepository
	valueRepo       repositories.ColumnValueRepository

	stages     StageService
	columns    ColumnService
	qualifiers QualifierService
	groups     GroupService
	tiesheets  TiesheetService
	matches    MatchService
	standings  StandingsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "engine.db")
	dbConn, err := db.Connect(config.DriverSQLite, path, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	require.NoError(t, db.Migrate(ctx, dbConn, config.DriverSQLite, nil))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}

	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	stageRepo := repositories.NewPostgresStageRepository(dbConn)
	columnRepo := repositories.NewPostgresStandingColumnRepository(dbConn)
	valueRepo := repositories.NewPostgresColumnValueRepository(dbConn)
	qualifierRepo := repositories.NewPostgresQualifierRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	tiesheetRepo := repositories.NewPostgresTiesheetRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingsRepo := repositories.NewPostgresStandingsRepository(dbConn)

	return &fixture{
		ctx:             ctx,
		db:              dbConn,
		notifier:        notifier,
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		valueRepo:       valueRepo,
		stages:          NewStageService(dbConn, eventRepo, stageRepo, columnRepo, notifier, logger),
		columns:         NewColumnService(dbConn, stageRepo, columnRepo, valueRepo, participantRepo, notifier, logger),
		qualifiers: NewQualifierService(dbConn, eventRepo, stageRepo, qualifierRepo, valueRepo, groupRepo,
			participantRepo, notifier, logger),
		groups: NewGroupService(dbConn, stageRepo, groupRepo, qualifierRepo, notifier, logger),
		tiesheets: NewTiesheetService(dbConn, eventRepo, stageRepo, groupRepo, qualifierRepo, columnRepo,
			valueRepo, tiesheetRepo, matchRepo, standingsRepo, notifier, logger),
		matches:   NewMatchService(dbConn, stageRepo, tiesheetRepo, matchRepo, notifier, logger),
		standings: NewStandingsService(eventRepo, stageRepo, standingsRepo, logger),
	}
}

func (f *fixture) event(t *testing.T) uuid.UUID {
	t.Helper()
	event := &models.Event{Title: "Spring Cup"}
	require.NoError(t, f.eventRepo.Create(f.ctx, nil, event))
	return event.ID
}

func (f *fixture) participants(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		p := &models.Participant{Username: fmt.Sprintf("player-%s", uuid.NewString()[:8])}
		require.NoError(t, f.participantRepo.Create(f.ctx, nil, p))
		ids[i] = p.ID
	}
	return ids
}

// qualifiedStage creates an event with a first stage and n qualified participants.
func (f *fixture) qualifiedStage(t *testing.T, n int) (uuid.UUID, *models.Stage, []uuid.UUID) {
	t.Helper()
	eventID := f.event(t)
	stage, err := f.stages.SeedEvent(f.ctx, eventID)
	require.NoError(t, err)
	ids := f.participants(t, n)
	_, err = f.qualifiers.AddQualifiers(f.ctx, eventID, stage.ID, ids)
	require.NoError(t, err)
	return eventID, stage, ids
}

// columnID returns the id of the stage column named name.
func (f *fixture) columnID(t *testing.T, stageID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	columns, err := f.columns.ListColumns(f.ctx, stageID)
	require.NoError(t, err)
	for _, c := range columns {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("column %q not found", name)
	return uuid.Nil
}

func (f *fixture) countValues(t *testing.T, participantID, columnID uuid.UUID) int {
	t.Helper()
	var n int
	err := f.db.QueryRowContext(f.ctx,
		`SELECT COUNT(*) FROM column_values WHERE participant_id = $1 AND column_id = $2`,
		participantID, columnID).Scan(&n)
	require.NoError(t, err)
	return n
}
