// Package gateway exposes the query pipeline over WebSocket and HTTP.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sentinelai/sentinel/internal/metrics"
	"github.com/sentinelai/sentinel/pkg/knowledge"
	"github.com/sentinelai/sentinel/pkg/pipeline"
	"github.com/sentinelai/sentinel/pkg/registry"
)

// Server serves live clients over WebSocket and a small REST surface
type Server struct {
	host     string
	port     int
	pipeline *pipeline.Pipeline
	registry *registry.Registry
	store    *knowledge.Store
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	server   *http.Server
	upgrader websocket.Upgrader

	clients        map[string]*client
	clientsMu      sync.RWMutex
	isShuttingDown bool
	shutdownMu     sync.RWMutex
}

// Config holds gateway server configuration
type Config struct {
	Host     string
	Port     int
	Pipeline *pipeline.Pipeline
	Registry *registry.Registry
	Store    *knowledge.Store // optional, nil disables /knowledge/add
	Metrics  *metrics.Metrics // optional
	Logger   zerolog.Logger
}

// NewServer creates a gateway server
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}

	return &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		pipeline: cfg.Pipeline,
		registry: cfg.Registry,
		store:    cfg.Store,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		clients:  make(map[string]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local assistant, all origins accepted
			},
		},
	}, nil
}

// Handler returns the HTTP handler serving every route
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/tools", s.handleTools)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/knowledge/add", s.handleKnowledgeAdd)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start starts serving. It does not block.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}

	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()

	return nil
}

// Stop gracefully stops the server, closing live connections
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")

	s.clientsMu.RLock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.clientsMu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()

	if s.metrics != nil {
		s.metrics.ConnectionsActive.Inc()
	}
}

func (s *Server) removeClient(id string) {
	s.clientsMu.Lock()
	delete(s.clients, id)
	s.clientsMu.Unlock()

	if s.metrics != nil {
		s.metrics.ConnectionsActive.Dec()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
