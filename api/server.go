// Package api provides the HTTP REST API server for stockchat.
//
// It exposes the chat endpoints and read-only lookups over the stock-index
// datasets.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/stockchat/internal/chat"
	"github.com/seenimoa/stockchat/internal/config"
	"github.com/seenimoa/stockchat/internal/datasource"
	"github.com/seenimoa/stockchat/internal/llm"
	"github.com/seenimoa/stockchat/pkg/models"
)

// Version is reported by GET /.
var Version = "dev"

// Dataset is everything the server reads from the dataset accessor.
type Dataset interface {
	chat.Dataset
	Summary(ctx context.Context) (models.DataSummary, error)
	Sample(ctx context.Context) (models.RawSample, error)
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	data   Dataset
	chat   *chat.Router
	logger *zap.Logger
}

// New wires the dataset store and the Gemini provider from cfg.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	store := datasource.NewStore(cfg.Data, logger)
	gemini := llm.NewGeminiFromConfig(llm.ProviderConfigFrom(cfg.LLM))
	return NewServer(cfg, store, gemini, logger)
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, data Dataset, completer llm.Completer, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	routerCfg, err := chat.RouterConfigFrom(cfg.Router)
	if err != nil {
		return nil, fmt.Errorf("chat router setup failed: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		data:   data,
		chat:   chat.NewRouter(data, completer, routerCfg, logger),
		logger: logger.Named("api"),
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Reload drops the cached dataset so the next request rereads the files.
// Datasets without a cache are left alone.
func (s *Server) Reload() {
	if c, ok := s.data.(interface{ Invalidate() }); ok {
		c.Invalidate()
		s.logger.Info("dataset cache invalidated")
	}
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:         s.cfg.API.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	// Chat
	r.Post("/chat", s.handleChat)
	r.Post("/query-gemini", s.handleQueryGemini)

	// Data
	r.Get("/data/summary", s.handleDataSummary)
	r.Get("/indices", s.handleIndices)
	r.Get("/indices/region/{region}", s.handleIndicesByRegion)
	r.Get("/stock-data/{symbol}", s.handleStockData)
	r.Get("/raw-data", s.handleRawData)

	// Configuration
	r.Get("/config", s.handleGetConfig)
	r.Get("/config/keys", s.handleGetConfigKeys)

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope for non-chat endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DirectAnswer is the payload of POST /query-gemini.
type DirectAnswer struct {
	Response string `json:"response"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
