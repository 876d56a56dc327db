package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/ambient"
	"github.com/dokzlo13/ambilightd/internal/capture"
	"github.com/dokzlo13/ambilightd/internal/config"
	"github.com/dokzlo13/ambilightd/internal/display"
	"github.com/dokzlo13/ambilightd/internal/eventbus"
	"github.com/dokzlo13/ambilightd/internal/lamp"
)

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	Bus     *eventbus.Bus
	Display display.Descriptor
	Sampler *capture.Sampler

	// Lamp channels; Right is nil in a single-lamp setup
	Left  *lamp.Channel
	Right *lamp.Channel

	// High-level services
	Supervisor *ambient.Supervisor
	Lamps      *LampService
	Ambient    *AmbientService
	Status     *StatusService
	Health     *HealthService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize event bus
	s.Bus = eventbus.NewWithConfig(cfg.EventBus.GetWorkers(), cfg.EventBus.GetQueueSize())

	// Resolve the display to sample
	displays, err := display.Enumerate()
	if err != nil {
		return nil, err
	}
	s.Display, err = display.Find(displays, cfg.Ambient.Display)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("display", s.Display.ID).
		Str("bounds", s.Display.Bounds.String()).
		Float64("scale", s.Display.Scale).
		Msg("Sampling display resolved")

	// Initialize screen sampler
	s.Sampler = capture.NewSampler(capture.NewScreenSource(), capture.Config{
		EdgeOnly:  cfg.Ambient.EdgeOnly,
		EdgeWidth: cfg.Ambient.EdgeWidth,
	})

	// Initialize lamp channels; the right lamp is optional
	s.Left, err = s.newChannel(cfg.Lamps.Left)
	if err != nil {
		return nil, err
	}
	channels := []*lamp.Channel{s.Left}
	if cfg.Lamps.Right.Address != "" {
		s.Right, err = s.newChannel(cfg.Lamps.Right)
		if err != nil {
			return nil, err
		}
		channels = append(channels, s.Right)
	}

	// Initialize lamp supervisor (single or dual)
	s.Supervisor = ambient.NewSupervisor(s.Display, s.Left, s.Right, s.Sampler, s.Bus)

	// Initialize high-level services
	s.Lamps = NewLampService(cfg, s.Supervisor, s.Bus, channels...)
	s.Ambient = NewAmbientService(cfg, s.Supervisor)
	s.Status = NewStatusService(s.Bus)
	s.Health = NewHealthService(cfg, s.Supervisor)

	return s, nil
}

// newChannel builds the BLE transport and connection channel for one
// lamp, wiring state transitions into the event bus.
func (s *Services) newChannel(lc config.LampConfig) (*lamp.Channel, error) {
	transport, err := lamp.NewBLETransport(lc.Address)
	if err != nil {
		return nil, err
	}

	ch := lamp.NewChannel(lc.Name, transport, lamp.ChannelConfig{
		ConnectTimeout: s.cfg.Lamps.ConnectTimeout.Duration(),
		RetryAttempts:  s.cfg.Lamps.RetryAttempts,
		RetryDelay:     s.cfg.Lamps.RetryDelay.Duration(),
	})
	ch.OnTransition(func(name string, from, to lamp.ConnectionState) {
		s.Bus.Publish(eventbus.Event{
			Type: eventbus.EventTypeConnection,
			Lamp: name,
			Data: map[string]any{
				"from": from.String(),
				"to":   to.String(),
			},
		})
	})
	return ch, nil
}

// Start starts all services in the correct order.
// The onFatalError callback is called when a fatal error occurs (e.g., both lamps failed).
func (s *Services) Start(ctx context.Context, onFatalError func(error)) error {
	// Status and health listeners come up before anything can publish
	s.Status.Start(ctx)
	s.Health.Start(ctx)

	// Connect lamps and start the reconnect watcher
	if err := s.Lamps.Start(ctx, onFatalError); err != nil {
		return err
	}

	// Start the ambient loop
	return s.Ambient.Start(ctx)
}

// Stop gracefully stops all services.
func (s *Services) Stop() error {
	s.Close()
	return nil
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Ambient != nil {
		s.Ambient.Stop()
	}
	if s.Supervisor != nil {
		// Lamps keep their last color; only the links are torn down.
		s.Supervisor.DisconnectBoth()
	}
	if s.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		s.Bus.Close(ctx)
	}
}

func (s *Services) shutdownTimeout() time.Duration {
	if d := s.cfg.ShutdownTimeout.Duration(); d > 0 {
		return d
	}
	return 5 * time.Second
}
