// Package server provides the HTTP API for SmartDesk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/smartdesk/internal/analytics"
	"github.com/hyperjump/smartdesk/internal/assist"
	"github.com/hyperjump/smartdesk/internal/canned"
	"github.com/hyperjump/smartdesk/internal/config"
	"github.com/hyperjump/smartdesk/internal/indexer"
	"github.com/hyperjump/smartdesk/internal/search"
	"github.com/hyperjump/smartdesk/internal/storage"
	"github.com/hyperjump/smartdesk/internal/ticket"
	"github.com/hyperjump/smartdesk/internal/triage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services are the engine components the API exposes.
type Services struct {
	Triage    *triage.Service
	Search    *search.Service
	Indexer   *indexer.Indexer
	Articles  storage.ArticleStore
	Tickets   *ticket.Service
	Analytics *analytics.Aggregator
	Canned    *canned.Service
	Assist    *assist.Service
	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is the HTTP server for the SmartDesk API.
type Server struct {
	svc    Services
	logger *zap.Logger
	server *http.Server

	// background work (backfill) outlives the request that started it
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// NewServer creates a server with the given dependencies.
func NewServer(svc Services, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		svc:      svc,
		logger:   logger,
		bgCtx:    ctx,
		bgCancel: cancel,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	if s.svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.svc.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/triage", s.handleTriage)
		r.Post("/chat", s.handleChat)

		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/search", s.handleSearch)
			r.Get("/suggest", s.handleSuggest)
			r.Post("/articles", s.handleCreateArticle)
			r.Get("/articles/{id}", s.handleGetArticle)
			r.Delete("/articles/{id}", s.handleDeactivateArticle)
			r.Post("/backfill", s.handleBackfill)
		})

		r.Get("/analytics", s.handleAnalytics)

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", s.handleListTickets)
			r.Post("/", s.handleCreateTicket)
			r.Get("/{id}", s.handleGetTicket)
			r.Post("/{id}/comments", s.handleAddComment)
			r.Post("/{id}/assign", s.handleAssignTicket)
			r.Post("/{id}/close", s.handleCloseTicket)
		})

		r.Post("/users", s.handleCreateUser)
		r.Get("/sla", s.handleListSLA)
		r.Put("/sla/{priority}", s.handleSetSLA)

		r.Get("/canned-responses", s.handleSearchCanned)
		r.Post("/canned-responses", s.handleCreateCanned)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server and cancels background work.
func (s *Server) Stop(ctx context.Context) error {
	s.bgCancel()
	err := s.server.Shutdown(ctx)
	s.bgWG.Wait()
	return err
}
