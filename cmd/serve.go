package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/routes"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, dbConn, err := openDB(ctx, false)
	if err != nil {
		return err
	}
	if err := cfg.RequireJWT(); err != nil {
		dbConn.Close()
		return err
	}
	if !cfg.AutoMigrate {
		logger.Info("automatic migrations disabled")
	}

	// Запуск WebSocket хаба
	hub := brackets.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)
	logger.Info("websocket hub started")

	a, err := newApp(ctx, cfg, dbConn, hub)
	if err != nil {
		dbConn.Close()
		return err
	}
	defer a.close()

	authorizer, err := middleware.NewAuthorizer(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize authorizer: %w", err)
	}

	// Инициализация обработчиков HTTP
	h := routes.Handlers{
		Stage:     handlers.NewStageHandler(a.stages),
		Column:    handlers.NewColumnHandler(a.columns),
		Qualifier: handlers.NewQualifierHandler(a.qualifiers),
		Group:     handlers.NewGroupHandler(a.groups, a.tiesheets),
		Tiesheet:  handlers.NewTiesheetHandler(a.tiesheets, a.matches),
		Standings: handlers.NewStandingsHandler(a.standings, a.exports),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, logger),
	}
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	routes.SetupRoutes(router, h, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      []byte(cfg.JWTSecretKey),
		Authorizer:     authorizer,
	})
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		// Хаб останавливаем первым, чтобы закрыть websocket-соединения.
		stopHub()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}
