package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/otjlab/otj-engine/internal/analysis"
	"github.com/otjlab/otj-engine/internal/catalog"
	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/storage"
)

// EventBroker is the event-stream surface the server needs. Satisfied
// by *events.Broker; narrowed to an interface so handler tests can
// substitute a fake.
type EventBroker interface {
	Publish(ctx context.Context, userID, eventType string, payload interface{})
	Subscribe(ctx context.Context, userID string) (<-chan events.Event, func())
	HealthCheck(ctx context.Context) error
}

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	repo       storage.Repository
	catalog    *catalog.Loader
	broker     EventBroker
	thresholds analysis.Thresholds
	auth       *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(repo storage.Repository, cat *catalog.Loader, broker EventBroker, th analysis.Thresholds) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		repo:       repo,
		catalog:    cat,
		broker:     broker,
		thresholds: th,
		auth:       NewAuthMiddleware(repo),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Authenticate)

		r.Route("/specs", func(r chi.Router) {
			r.Get("/", s.handleListSpecs)
			r.Get("/{code}", s.handleGetSpec)
			r.Get("/{code}/ksbs", s.handleListKSBs)
		})

		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile/spec", s.handleSelectSpec)

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", s.handleListActivities)
			r.Post("/", s.handleCreateActivity)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetActivity)
				r.Put("/", s.handleUpdateActivity)
				r.Delete("/", s.handleDeleteActivity)
			})
		})

		r.Get("/tags", s.handleListTags)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTemplate)
				r.Put("/", s.handleUpdateTemplate)
				r.Delete("/", s.handleDeleteTemplate)
				r.Post("/apply", s.handleApplyTemplate)
			})
		})

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/recommendations", s.handleRecommendations)

		r.Get("/events/ws", s.handleEventsWS)
	})
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}
