package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/agrogpt/advisor/internal/advisory"
	"github.com/agrogpt/advisor/internal/api"
	"github.com/agrogpt/advisor/internal/config"
	"github.com/agrogpt/advisor/internal/disease"
	"github.com/agrogpt/advisor/internal/i18n"
	"github.com/agrogpt/advisor/internal/market"
	"github.com/agrogpt/advisor/internal/ml"
	"github.com/agrogpt/advisor/internal/notify"
	"github.com/agrogpt/advisor/internal/weather"
)

// Server holds all the components for the advisory backend
type Server struct {
	cfg        config.Config
	httpServer *http.Server
	router     *mux.Router

	svc         *advisory.Service
	store       *market.Store
	broadcaster *notify.Broadcaster
}

// Option configures optional server collaborators
type Option func(*Server)

// WithGateway attaches an SMS gateway, enabling scheduled broadcasts
// when the config carries a broadcast schedule.
func WithGateway(gw notify.Gateway) Option {
	return func(s *Server) {
		s.broadcaster = notify.NewBroadcaster(s.svc, gw)
	}
}

// New constructs every engine once and wires them into the aggregator.
// A missing or corrupt disease classifier artifact is fatal; a missing
// weather regressor artifact cold-starts an untrained model.
func New(cfg config.Config, opts ...Option) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	diseaseEngine, err := disease.NewEngine(cfg.ClassifierPath(), cfg.DiseaseConfigPath())
	if err != nil {
		return nil, fmt.Errorf("initialize disease engine: %w", err)
	}
	log.Printf("Disease classifier loaded from %s", cfg.ClassifierPath())

	regressor, err := ml.LoadRegressor(cfg.RegressorPath(), weather.FeatureDim)
	if err != nil {
		return nil, fmt.Errorf("initialize weather engine: %w", err)
	}
	weatherEngine := weather.NewEngine(regressor)

	store, err := market.OpenStore(cfg.PriceDBPath())
	if err != nil {
		return nil, fmt.Errorf("open price history: %w", err)
	}

	translator, err := i18n.NewTranslator(cfg.TranslationsDir())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load translations: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
		store:  store,
		svc: advisory.NewService(
			diseaseEngine,
			weatherEngine,
			market.NewAnalyzer(store),
			translator,
			cfg.DefaultLanguage,
		),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	apiRouter := s.router.PathPrefix("/api").Subrouter()
	api.NewHandler(s.svc, s.cfg).RegisterRoutes(apiRouter)

	// Bare health endpoint for load balancer probes
	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
}

// Service exposes the aggregator, used by tests and the broadcaster
func (s *Server) Service() *advisory.Service {
	return s.svc
}

// Start begins listening for HTTP connections and starts the
// broadcast schedule when one is configured.
func (s *Server) Start() error {
	if s.broadcaster != nil && s.cfg.BroadcastSpec != "" {
		if err := s.broadcaster.Start(s.cfg.BroadcastSpec); err != nil {
			return err
		}
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server and closes the price store
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.broadcaster != nil {
		s.broadcaster.Stop()
	}
	if err := s.store.Close(); err != nil {
		log.Printf("Error closing price store: %v", err)
	}

	return s.httpServer.Shutdown(ctx)
}
