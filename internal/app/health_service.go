package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/ambient"
	"github.com/dokzlo13/ambilightd/internal/config"
	"github.com/dokzlo13/ambilightd/internal/lamp"
)

// HealthService provides HTTP health check endpoints.
type HealthService struct {
	cfg        *config.Config
	supervisor *ambient.Supervisor
	server     *http.Server
}

// NewHealthService creates a new HealthService.
func NewHealthService(cfg *config.Config, supervisor *ambient.Supervisor) *HealthService {
	return &HealthService{
		cfg:        cfg,
		supervisor: supervisor,
	}
}

// Start begins the health check server if enabled.
func (s *HealthService) Start(ctx context.Context) {
	if !s.cfg.Healthcheck.Enabled {
		return
	}

	go s.run(ctx)
}

func (s *HealthService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Healthcheck.Host, s.cfg.Healthcheck.Port)

	mux := http.NewServeMux()

	// Health check endpoint with per-lamp detail
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		states := s.supervisor.States()
		lamps := make(map[string]string, len(states))
		for side, state := range states {
			lamps[string(side)] = state.String()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "healthy",
			"ambient": s.supervisor.Running(),
			"lamps":   lamps,
		})
	})

	// Ready when at least one lamp is connected
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ready := false
		for _, state := range s.supervisor.States() {
			if state == lamp.StateConnected {
				ready = true
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"no lamps connected"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	log.Info().Str("addr", addr).Msg("Starting health check server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout.Duration())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Health check server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Health check server error")
	}
}
