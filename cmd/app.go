package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
)

// app holds the database and the services built on it.
type app struct {
	cfg *config.Config
	db  *sql.DB

	stages     services.StageService
	columns    services.ColumnService
	qualifiers services.QualifierService
	groups     services.GroupService
	tiesheets  services.TiesheetService
	matches    services.MatchService
	standings  services.StandingsService
	exports    services.ExportService
}

// openDB loads config and connects. Migrations run when force is set or
// AUTO_MIGRATE is on.
func openDB(ctx context.Context, force bool) (*config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("database connection established", slog.String("driver", cfg.DBDriver))

	if force || cfg.AutoMigrate {
		if err := db.Migrate(ctx, dbConn, cfg.DBDriver, logger); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
	}
	return cfg, dbConn, nil
}

func newApp(ctx context.Context, cfg *config.Config, dbConn *sql.DB, notifier services.Notifier) (*app, error) {
	// Инициализация репозиториев
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

	var uploader storage.FileUploader
	if cfg.Export.Enabled() {
		u, err := storage.NewCloudflareR2Uploader(ctx, cfg.Export, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		uploader = u
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация сервисов
	a := &app{cfg: cfg, db: dbConn}
	a.stages = services.NewStageService(dbConn, eventRepo, stageRepo, columnRepo, notifier, logger)
	a.columns = services.NewColumnService(dbConn, stageRepo, columnRepo, valueRepo, participantRepo, notifier, logger)
	a.qualifiers = services.NewQualifierService(dbConn, eventRepo, stageRepo, qualifierRepo, valueRepo, groupRepo,
		participantRepo, notifier, logger)
	a.groups = services.NewGroupService(dbConn, stageRepo, groupRepo, qualifierRepo, notifier, logger)
	a.tiesheets = services.NewTiesheetService(dbConn, eventRepo, stageRepo, groupRepo, qualifierRepo, columnRepo,
		valueRepo, tiesheetRepo, matchRepo, standingsRepo, notifier, logger)
	a.matches = services.NewMatchService(dbConn, stageRepo, tiesheetRepo, matchRepo, notifier, logger)
	a.standings = services.NewStandingsService(eventRepo, stageRepo, standingsRepo, logger)
	a.exports = services.NewExportService(eventRepo, stageRepo, standingsRepo, uploader, logger)
	logger.Info("services initialized")

	return a, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
