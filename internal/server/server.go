package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/harshpatel5940/stripevigil/internal/api"
	"github.com/harshpatel5940/stripevigil/internal/config"
	"github.com/harshpatel5940/stripevigil/internal/database"
	"github.com/harshpatel5940/stripevigil/internal/models"
	"github.com/harshpatel5940/stripevigil/internal/webhook"
	"github.com/rs/zerolog"
)

type Server struct {
	cfg    *config.Config
	db     *database.DB
	pub    webhook.Publisher
	router *chi.Mux
	logger zerolog.Logger
}

// New builds the server. db may be nil, in which case events are verified
// and classified but not stored, and the read API is not mounted. pub may be
// nil to disable fan-out.
func New(cfg *config.Config, db *database.DB, pub webhook.Publisher, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		db:     db,
		pub:    pub,
		router: chi.NewRouter(),
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(s.loggingMiddleware)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.db == nil {
		webhookHandler := webhook.NewHandler(s.cfg, nil, s.pub, s.logger)
		s.router.Post("/webhook/stripe", webhookHandler.ServeHTTP)
		return
	}

	events := models.NewEventStore(s.db.Pool)
	checkouts := models.NewCheckoutStore(s.db.Pool)
	subscriptions := models.NewSubscriptionStore(s.db.Pool)

	// Webhook endpoint
	webhookHandler := webhook.NewHandler(s.cfg, &webhook.Stores{
		Events:        events,
		Checkouts:     checkouts,
		Subscriptions: subscriptions,
	}, s.pub, s.logger)
	s.router.Post("/webhook/stripe", webhookHandler.ServeHTTP)

	// API v1 endpoints
	apiHandler := api.NewHandler(events, checkouts, subscriptions, s.logger)
	s.router.Mount("/api/v1", apiHandler.Router())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbStatus := "disabled"
	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			s.logger.Error().Err(err).Msg("database health check failed")
			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
			return
		}
		dbStatus = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","database":"` + dbStatus + `"}`))
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("port", s.cfg.Port).Msg("starting server")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
