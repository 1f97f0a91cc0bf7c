package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"Dormant/internal/analytics"
	"Dormant/internal/config"
	"Dormant/internal/middleware"
	"Dormant/internal/provider"
	v1 "Dormant/pkg/api/v1"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	config     *config.Config
	providers  []provider.Provider
	handler    *v1.Handler
	tracker    *analytics.Tracker
	registry   *prometheus.Registry
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a new API server
func New(
	cfg *config.Config,
	providers []provider.Provider,
	runner v1.PassRunner,
	tracker *analytics.Tracker,
	registry *prometheus.Registry,
	logger *slog.Logger,
) *Server {
	return &Server{
		config:    cfg,
		providers: providers,
		handler:   v1.NewHandler(runner, tracker),
		tracker:   tracker,
		registry:  registry,
		logger:    logger.With("component", "api-server"),
	}
}

// Handler builds the request router
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and readiness endpoints
	mux.HandleFunc("GET "+s.config.Observability.HealthCheckPath, s.handler.HandleHealth)
	mux.HandleFunc("GET "+s.config.Observability.ReadinessPath, s.handleReadiness)

	if s.config.Observability.EnableMetrics {
		mux.Handle("GET "+s.config.Observability.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// API v1 endpoints
	mux.HandleFunc("GET /api/v1/status", s.authMiddleware(s.handleStatus))
	mux.HandleFunc("GET /api/v1/summary", s.authMiddleware(s.handler.HandleSummary))
	mux.HandleFunc("POST /api/v1/passes", s.authMiddleware(s.handler.HandleTriggerPass))

	return middleware.Logging(s.logger, mux)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	s.logger.Info("starting API server", "address", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for _, prov := range s.providers {
		if err := prov.HealthCheck(ctx); err != nil {
			s.logger.Error("readiness check failed", "provider", prov.Name(), "error", err)
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "not ready",
				"provider": prov.Name(),
				"error":    err.Error(),
			})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	kinds := make([]string, 0, len(s.providers))
	for _, prov := range s.providers {
		kinds = append(kinds, string(prov.Kind()))
	}

	response := map[string]any{
		"timestamp":    time.Now().Format(time.RFC3339),
		"tag_key":      s.config.Schedule.TagKey,
		"time_mode":    s.config.TimeMode(),
		"force_create": s.config.Schedule.ForceCreate,
		"excluded":     len(s.config.Schedule.Exclude),
		"kinds":        kinds,
		"dry_run":      s.config.DryRun,
		"passes":       s.tracker.Passes(),
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.config.Server.EnableAuth {
			next(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.config.Server.APIKey)) != 1 {
			s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		next(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON", "error", err)
	}
}
