package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/session"
	"github.com/meltforce/gymtrack/internal/syncqueue"
)

// RecordsSource fetches the personal-best table from the backend. The
// remote gateway implements it.
type RecordsSource interface {
	GetRecords(ctx context.Context) ([]models.RemoteRecord, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	plans    *planstore.Store
	recorder *session.Recorder
	resolver *history.Resolver
	queue    *syncqueue.Queue
	monitor  *syncqueue.Monitor
	records  RecordsSource
	version  string
	log      *slog.Logger
	router   chi.Router
}

// New creates a Server with all routes configured. monitor and records
// may be nil; the status endpoint then reports offline and the records
// endpoint returns an empty table.
func New(plans *planstore.Store, recorder *session.Recorder, resolver *history.Resolver,
	queue *syncqueue.Queue, monitor *syncqueue.Monitor, records RecordsSource,
	version string, log *slog.Logger) *Server {
	s := &Server{
		plans:    plans,
		recorder: recorder,
		resolver: resolver,
		queue:    queue,
		monitor:  monitor,
		records:  records,
		version:  version,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)
		r.Post("/plans", s.handleCreatePlan)
		r.Put("/plans/{id}", s.handleSavePlan)
		r.Delete("/plans/{id}", s.handleDeletePlan)
		r.Post("/plans/{id}/activate", s.handleActivatePlan)

		r.Post("/sessions/start", s.handleStartSession)
		r.Get("/sessions/current", s.handleCurrentSession)
		r.Put("/sessions/current", s.handleSetWeight)
		r.Post("/sessions/save", s.handleSaveSession)

		r.Get("/history/prior", s.handlePriorWeight)
		r.Get("/records", s.handleRecords)

		r.Get("/sync/queue", s.handleSyncQueue)
		r.Get("/sync/deadletters", s.handleDeadLetters)
		r.Post("/sync/flush", s.handleFlush)
		r.Post("/sync/requeue", s.handleRequeue)

		r.Get("/status", s.handleStatus)
	})
}
