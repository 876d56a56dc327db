package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/eventbus"
)

// StatusService logs status events from the bus: connection
// transitions, capture failures and periodic loop stats.
type StatusService struct {
	bus *eventbus.Bus
}

// NewStatusService creates a new StatusService.
func NewStatusService(bus *eventbus.Bus) *StatusService {
	return &StatusService{bus: bus}
}

// Start registers the bus subscriptions.
func (s *StatusService) Start(ctx context.Context) {
	s.bus.Subscribe(eventbus.EventTypeConnection, func(event eventbus.Event) {
		from, _ := event.Data["from"].(string)
		to, _ := event.Data["to"].(string)
		log.Info().
			Str("lamp", event.Lamp).
			Str("from", from).
			Str("to", to).
			Msg("Lamp connection state")
	})

	s.bus.Subscribe(eventbus.EventTypeCapture, func(event eventbus.Event) {
		msg, _ := event.Data["error"].(string)
		log.Warn().Str("error", msg).Msg("Screen capture unavailable")
	})

	s.bus.Subscribe(eventbus.EventTypeTick, func(event eventbus.Event) {
		log.Debug().Fields(event.Data).Msg("Ambient status")
	})
}
