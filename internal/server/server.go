// Package server provides the HTTP API for pagelens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/keyword"
	"github.com/pagelens/pagelens/internal/llm"
	"github.com/pagelens/pagelens/internal/rag"
	"github.com/pagelens/pagelens/internal/scrape"
	"github.com/pagelens/pagelens/internal/sentiment"
	"github.com/pagelens/pagelens/internal/storage"
)

// Server is the HTTP server for the pagelens API.
type Server struct {
	engine    *rag.Engine
	scraper   *scrape.Scraper
	storage   storage.Storage
	keyword   *keyword.Index
	sentiment *sentiment.Analyzer
	generator llm.Client
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *rag.Engine,
	scraper *scrape.Scraper,
	store storage.Storage,
	kw *keyword.Index,
	analyzer *sentiment.Analyzer,
	generator llm.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:    engine,
		scraper:   scraper,
		storage:   store,
		keyword:   kw,
		sentiment: analyzer,
		generator: generator,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/scrape", s.handleScrape)
		r.Post("/scrape-and-index", s.handleScrapeAndIndex)
		r.Post("/query", s.handleQuery)
		r.Get("/sources", s.handleSources)
		r.Delete("/sources", s.handleDeleteSource)
		r.Delete("/index", s.handleClearIndex)
		r.Get("/status", s.handleStatus)

		r.Get("/scrapes", s.handleListScrapes)
		r.Get("/scrapes/search", s.handleSearchScrapes)
		r.Get("/scrapes/stats", s.handleScrapeStats)
		r.Get("/scrapes/{id}", s.handleGetScrape)
		r.Delete("/scrapes/{id}", s.handleDeleteScrape)
		r.Post("/scrapes/{id}/reindex", s.handleReindexScrape)
		r.Get("/scrapes/{id}/sentiment", s.handleScrapeSentiment)

		r.Post("/sentiment/analyze", s.handleAnalyzeSentiment)
		r.Get("/sentiment/stats", s.handleSentimentStats)
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
