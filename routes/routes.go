package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handlers struct {
	Stage     *handlers.StageHandler
	Column    *handlers.ColumnHandler
	Qualifier *handlers.QualifierHandler
	Group     *handlers.GroupHandler
	Tiesheet  *handlers.TiesheetHandler
	Standings *handlers.StandingsHandler
	WebSocket *handlers.WebSocketHandler
}

type Options struct {
	AllowedOrigins []string
	JWTSecret      []byte
	Authorizer     *middleware.Authorizer
}

// SetupRoutes mounts the API. Reads are public; writes need a token whose
// role the authorizer accepts.
func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/ws/events/{eventID}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		// Публичные маршруты для просмотра
		r.Get("/events/{eventID}/stages", h.Stage.ListStages)
		r.Get("/events/{eventID}/qualifiers", h.Qualifier.ListQualifiersByEvent)
		r.Get("/events/{eventID}/stages/{stageID}/unassigned", h.Qualifier.ListUnassigned)
		r.Get("/events/{eventID}/tiesheets", h.Tiesheet.ListTiesheets)
		r.Get("/events/{eventID}/standings", h.Standings.PivotStandings)
		r.Get("/events/{eventID}/standings/groups", h.Standings.GroupStandings)
		r.Get("/stages/{stageID}", h.Stage.GetStage)
		r.Get("/stages/{stageID}/columns", h.Column.ListColumns)
		r.Get("/stages/{stageID}/qualifiers", h.Qualifier.ListQualifiers)
		r.Get("/stages/{stageID}/groups", h.Group.ListGroups)
		r.Get("/stages/{stageID}/participants/{participantID}/values", h.Column.GetValues)
		r.Get("/groups/{groupID}", h.Group.GetGroup)
		r.Get("/tiesheets/{tiesheetID}", h.Tiesheet.GetTiesheet)
		r.Get("/tiesheets/{tiesheetID}/matches", h.Tiesheet.ListMatches)
		r.Get("/tiesheets/{tiesheetID}/score", h.Tiesheet.GetOverallScore)

		// Защищенные маршруты
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret))
			r.Use(opts.Authorizer.Authorize)

			r.Post("/events/{eventID}/stages", h.Stage.CreateStage)
			r.Post("/events/{eventID}/stages/seed", h.Stage.SeedEvent)
			r.Post("/events/{eventID}/participants", h.Qualifier.RegisterParticipant)
			r.Post("/events/{eventID}/stages/{stageID}/qualifiers", h.Qualifier.AddQualifiers)
			r.Post("/events/{eventID}/stages/{stageID}/promote", h.Qualifier.Promote)
			r.Post("/events/{eventID}/standings/export", h.Standings.ExportStandings)

			r.Patch("/stages/{stageID}", h.Stage.RenameStage)
			r.Delete("/stages/{stageID}", h.Stage.DeleteStage)
			r.Post("/stages/{stageID}/columns", h.Column.CreateColumn)
			r.Post("/stages/{stageID}/groups", h.Group.CreateGroup)
			r.Post("/stages/{stageID}/tiesheets", h.Tiesheet.CreateTiesheet)
			r.Post("/stages/{stageID}/schedule", h.Tiesheet.ScheduleStage)

			r.Patch("/columns/{columnID}", h.Column.UpdateColumn)
			r.Delete("/columns/{columnID}", h.Column.DeleteColumn)
			r.Put("/columns/{columnID}/values/{participantID}", h.Column.SetValue)

			r.Delete("/qualifiers/{qualifierID}", h.Qualifier.DeleteQualifier)

			r.Patch("/groups/{groupID}", h.Group.UpdateGroup)
			r.Delete("/groups/{groupID}", h.Group.DeleteGroup)
			r.Post("/groups/{groupID}/members", h.Group.AddMember)
			r.Delete("/groups/{groupID}/members/{participantID}", h.Group.RemoveMember)
			r.Post("/groups/{groupID}/schedule", h.Group.ScheduleGroup)

			r.Patch("/tiesheets/{tiesheetID}", h.Tiesheet.EditTiesheet)
			r.Delete("/tiesheets/{tiesheetID}", h.Tiesheet.DeleteTiesheet)
			r.Post("/tiesheets/{tiesheetID}/matches", h.Tiesheet.RecordMatches)
			r.Delete("/matches/{matchID}", h.Tiesheet.DeleteMatch)
		})
	})
}
