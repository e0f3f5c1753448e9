package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("routes-secret")

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.Claims{
		UserID:           uuid.NewString(),
		Role:             role,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return "Bearer " + signed
}

// newServer wires the router to services backed by a fresh sqlite file.
func newServer(t *testing.T) (*httptest.Server, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	dbConn, err := db.Connect(config.DriverSQLite, filepath.Join(t.TempDir(), "routes.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { dbConn.Close() })
	require.NoError(t, db.Migrate(ctx, dbConn, config.DriverSQLite, nil))

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

	hub := brackets.NewHub(logger)
	hubCtx, stop := context.WithCancel(ctx)
	t.Cleanup(stop)
	go hub.Run(hubCtx)

	tiesheets := services.NewTiesheetService(dbConn, eventRepo, stageRepo, groupRepo, qualifierRepo, columnRepo,
		valueRepo, tiesheetRepo, matchRepo, standingsRepo, hub, logger)
	h := Handlers{
		Stage:  handlers.NewStageHandler(services.NewStageService(dbConn, eventRepo, stageRepo, columnRepo, hub, logger)),
		Column: handlers.NewColumnHandler(services.NewColumnService(dbConn, stageRepo, columnRepo, valueRepo, participantRepo, hub, logger)),
		Qualifier: handlers.NewQualifierHandler(services.NewQualifierService(dbConn, eventRepo, stageRepo, qualifierRepo,
			valueRepo, groupRepo, participantRepo, hub, logger)),
		Group:    handlers.NewGroupHandler(services.NewGroupService(dbConn, stageRepo, groupRepo, qualifierRepo, hub, logger), tiesheets),
		Tiesheet: handlers.NewTiesheetHandler(tiesheets, services.NewMatchService(dbConn, stageRepo, tiesheetRepo, matchRepo, hub, logger)),
		Standings: handlers.NewStandingsHandler(services.NewStandingsService(eventRepo, stageRepo, standingsRepo, logger),
			services.NewExportService(eventRepo, stageRepo, standingsRepo, nil, logger)),
		WebSocket: handlers.NewWebSocketHandler(hub, []string{"*"}, logger),
	}

	authz, err := middleware.NewAuthorizer(logger)
	require.NoError(t, err)
	router := chi.NewRouter()
	SetupRoutes(router, h, Options{AllowedOrigins: []string{"*"}, JWTSecret: secret, Authorizer: authz})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	event := &models.Event{Title: "Open"}
	require.NoError(t, eventRepo.Create(ctx, nil, event))
	return srv, event.ID
}

func do(t *testing.T, srv *httptest.Server, method, path, auth, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRoutesAuthorization(t *testing.T) {
	srv, eventID := newServer(t)
	stages := "/api/events/" + eventID.String() + "/stages"

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "", "").StatusCode)

	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodPost, stages, "", `{"name":"Heats"}`).StatusCode)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodPost, stages, token(t, middleware.RoleMember), `{"name":"Heats"}`).StatusCode)

	resp := do(t, srv, http.MethodPost, stages, token(t, middleware.RoleAdmin), `{"name":"Heats"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Stage models.Stage `json:"stage"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "Heats", created.Stage.Name)

	// Reads need no token.
	resp = do(t, srv, http.MethodGet, stages, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listed struct {
		Stages []models.Stage `json:"stages"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed.Stages, 1)

	resp = do(t, srv, http.MethodGet, "/api/stages/"+created.Stage.ID.String()+"/columns", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/tiesheets/"+uuid.NewString(), "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/events/"+eventID.String()+"/standings/export", token(t, middleware.RoleAdmin), "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "export without a bucket is rejected")
}
