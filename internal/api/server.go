package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"

	"portfolioinsight/internal/performance"
	"portfolioinsight/internal/store"
	"portfolioinsight/internal/utils"
	"portfolioinsight/scraper"
)

// Storage is the persistence surface the handlers need: the engine's
// read capability plus portfolio and transaction management. Implemented
// by store.Postgres and, for tests, store.Memory.
type Storage interface {
	performance.Store
	EnsureAsset(ctx context.Context, symbol, name string) (*performance.Asset, error)
	CreatePortfolio(ctx context.Context, p *store.Portfolio) error
	Portfolios(ctx context.Context, userID uuid.UUID) ([]store.Portfolio, error)
	CreateTransaction(ctx context.Context, tx *performance.Transaction) error
}

// Server wires the HTTP routes to the performance engine.
type Server struct {
	router  *mux.Router
	logger  utils.Logger
	config  *utils.Config
	engine  *performance.Service
	store   Storage
	scraper *scraper.Scraper
	cron    *cron.Cron
}

func NewServer(logger utils.Logger, config *utils.Config, engine *performance.Service, st Storage, sc *scraper.Scraper) *Server {
	server := &Server{
		router:  mux.NewRouter(),
		logger:  logger,
		config:  config,
		engine:  engine,
		store:   st,
		scraper: sc,
		cron:    cron.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	// CORS
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-User-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Request logging
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("%s %s (%v)", r.Method, r.URL.Path, time.Since(start))
		})
	})
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")

	apiRouter := s.router.PathPrefix("/api").Subrouter()

	portfolioRouter := apiRouter.PathPrefix("/portfolios").Subrouter()
	portfolioRouter.HandleFunc("", s.ListPortfolios).Methods("GET")
	portfolioRouter.HandleFunc("", s.CreatePortfolio).Methods("POST")
	portfolioRouter.HandleFunc("/{id}/transactions", s.ListTransactions).Methods("GET")
	portfolioRouter.HandleFunc("/{id}/transactions", s.CreateTransaction).Methods("POST")

	// Performance routes
	portfolioRouter.HandleFunc("/{id}/performance", s.GetPortfolioPerformance).Methods("GET")
	portfolioRouter.HandleFunc("/{id}/assets/{assetId}/performance", s.GetAssetPerformance).Methods("GET")
	portfolioRouter.HandleFunc("/{id}/benchmark", s.GetBenchmarkComparison).Methods("GET")

	apiRouter.HandleFunc("/benchmark/performance", s.PostBenchmarkPerformance).Methods("POST")

	s.logger.Info("Routes registered")
}

// Start begins listening for HTTP requests and blocks until shutdown.
func (s *Server) Start() error {
	s.startPriceRefresh()

	srv := &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on :%s", s.config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
		s.logger.Info("Shutdown signal received")
	}

	if s.cron != nil {
		s.cron.Stop()
	}
	if s.scraper != nil {
		s.scraper.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server shutdown failed: %v", err)
		return err
	}

	s.logger.Info("Server stopped gracefully")
	return nil
}

// startPriceRefresh schedules the scraper on the configured cron
// expression and kicks off an initial run.
func (s *Server) startPriceRefresh() {
	if s.scraper == nil || !s.config.Scraper.Enabled {
		return
	}

	go func() {
		s.logger.Info("Initial price refresh running...")
		if err := s.scraper.Refresh(); err != nil {
			s.logger.Error("Initial price refresh failed: %v", err)
		}
	}()

	_, err := s.cron.AddFunc(s.config.Scraper.Schedule, func() {
		s.logger.Info("Scheduled price refresh running")
		if err := s.scraper.Refresh(); err != nil {
			s.logger.Error("Scheduled price refresh failed: %v", err)
		}
	})
	if err != nil {
		s.logger.Error("Failed to schedule price refresh: %v", err)
		return
	}
	s.cron.Start()
	s.logger.Info("Price refresh scheduled: %s", s.config.Scraper.Schedule)
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": "1.0.0",
	})
}
