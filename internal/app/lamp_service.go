package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/ambient"
	"github.com/dokzlo13/ambilightd/internal/config"
	"github.com/dokzlo13/ambilightd/internal/eventbus"
	"github.com/dokzlo13/ambilightd/internal/lamp"
)

// ErrNoLampsReachable is returned when neither lamp connects at startup.
var ErrNoLampsReachable = errors.New("no lamps reachable")

// LampService owns lamp connectivity: initial connects and the
// event-driven reconnect path after a dropped link.
type LampService struct {
	cfg        *config.Config
	supervisor *ambient.Supervisor
	bus        *eventbus.Bus

	channels map[string]*lamp.Channel
}

// NewLampService creates a new LampService.
func NewLampService(cfg *config.Config, supervisor *ambient.Supervisor, bus *eventbus.Bus, channels ...*lamp.Channel) *LampService {
	byName := make(map[string]*lamp.Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}
	return &LampService{
		cfg:        cfg,
		supervisor: supervisor,
		bus:        bus,
		channels:   byName,
	}
}

// Start connects both lamps and registers the reconnect handler.
// Partial connectivity is tolerated; only a total failure is an error.
func (s *LampService) Start(ctx context.Context, onFatalError func(error)) error {
	result := s.supervisor.ConnectBoth(ctx)
	if !result.AnyOK() {
		return ErrNoLampsReachable
	}
	for side, err := range result {
		if err != nil {
			log.Warn().Err(err).Str("side", string(side)).Msg("Lamp unreachable at startup")
		}
	}

	// A channel that loses its link moves itself to Reconnecting; this
	// handler drives it back to Connected or to terminal Failed.
	s.bus.Subscribe(eventbus.EventTypeConnection, func(event eventbus.Event) {
		to, _ := event.Data["to"].(string)
		if to != lamp.StateReconnecting.String() {
			return
		}
		ch, ok := s.channels[event.Lamp]
		if !ok {
			return
		}

		if err := ch.Reconnect(ctx); err != nil {
			log.Error().Err(err).Str("lamp", event.Lamp).Msg("Lamp reconnect gave up")
			if s.allFailed() {
				onFatalError(errors.New("all lamps failed"))
			}
		}
	})

	return nil
}

func (s *LampService) allFailed() bool {
	for _, ch := range s.channels {
		if ch.State() != lamp.StateFailed {
			return false
		}
	}
	return true
}
