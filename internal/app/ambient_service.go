package app

import (
	"context"

	"github.com/dokzlo13/ambilightd/internal/ambient"
	"github.com/dokzlo13/ambilightd/internal/config"
)

// AmbientService starts and stops the ambient sampling session.
type AmbientService struct {
	cfg        *config.Config
	supervisor *ambient.Supervisor
}

// NewAmbientService creates a new AmbientService.
func NewAmbientService(cfg *config.Config, supervisor *ambient.Supervisor) *AmbientService {
	return &AmbientService{cfg: cfg, supervisor: supervisor}
}

// Start launches the dual ambient session with the configured tunables.
func (s *AmbientService) Start(ctx context.Context) error {
	return s.supervisor.StartAmbient(ctx, ambient.Params{
		FPS:             s.cfg.Ambient.FPS,
		Unlimited:       s.cfg.Ambient.Unlimited,
		Saturation:      s.cfg.Ambient.Saturation,
		BrightnessBoost: s.cfg.Ambient.BrightnessBoost,
		Smoothing:       s.cfg.Ambient.Smoothing,
	})
}

// Stop cancels the running session, if any.
func (s *AmbientService) Stop() {
	s.supervisor.StopAmbient()
}
