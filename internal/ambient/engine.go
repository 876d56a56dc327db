package ambient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/capture"
	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/eventbus"
	"github.com/dokzlo13/ambilightd/internal/lamp"
	"github.com/dokzlo13/ambilightd/internal/protocol"
)

// statusInterval is how often the engine reports tick stats.
const statusInterval = time.Second

// Engine drives 1..2 lamp channels from screen samples at the
// session's frame rate. One logical loop; per-tick failures are
// absorbed and reported, never abort the loop.
type Engine struct {
	sampler  *capture.Sampler
	channels []*lamp.Channel
	bus      *eventbus.Bus
}

// NewEngine creates an engine over the given channels. The channel
// order must match the session's zone order.
func NewEngine(sampler *capture.Sampler, channels []*lamp.Channel, bus *eventbus.Bus) *Engine {
	return &Engine{sampler: sampler, channels: channels, bus: bus}
}

// Run executes the ambient loop until ctx is cancelled. Cancellation is
// the only clean exit; lamps retain their last sent color. A channel
// reaching Failed never stops the loop - its sends are skipped until an
// external reconnect succeeds.
func (e *Engine) Run(ctx context.Context, session *Session) error {
	if len(session.Zones) != len(e.channels) {
		return fmt.Errorf("zone/channel mismatch: %d zones, %d channels",
			len(session.Zones), len(e.channels))
	}

	log.Info().
		Str("session", session.ID.String()).
		Int("lamps", len(e.channels)).
		Dur("interval", session.Interval()).
		Bool("unlimited", session.Params.Unlimited).
		Msg("Ambient loop started")

	var (
		last       []color.RGB // last colors sent, reused on capture failure
		ticks      int64
		sent       int64
		skipped    int64
		captureErr int64
		lastStatus = time.Now()
	)

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("session", session.ID.String()).
				Int64("ticks", ticks).
				Msg("Ambient loop stopped")
			return nil
		default:
		}

		colors := e.sampleTick(session, last, &captureErr)

		if colors != nil {
			n := e.dispatch(ctx, session, colors)
			sent += int64(n)
			skipped += int64(len(e.channels) - n)
			last = colors
		}

		ticks++
		if time.Since(lastStatus) >= statusInterval {
			e.reportStatus(session, ticks, sent, skipped, captureErr)
			lastStatus = time.Now()
		}

		// Paced sleep for the rest of the frame interval. Burst 1 means
		// an over-budget tick continues immediately without catch-up.
		if err := session.limiter.Wait(ctx); err != nil {
			log.Info().
				Str("session", session.ID.String()).
				Int64("ticks", ticks).
				Msg("Ambient loop stopped")
			return nil
		}
	}
}

// sampleTick captures all zones from one frame and enhances them.
// On capture failure it falls back to the previous tick's colors
// (nil when there are none yet).
func (e *Engine) sampleTick(session *Session, last []color.RGB, captureErr *int64) []color.RGB {
	raw, err := e.sampler.SampleFrame(session.Zones)
	if err != nil {
		*captureErr++
		if errors.Is(err, capture.ErrNoSample) {
			e.publish(eventbus.Event{
				Type: eventbus.EventTypeCapture,
				Data: map[string]any{"error": err.Error()},
			})
		}
		log.Debug().Err(err).Msg("Capture failed, reusing previous colors")
		return last
	}

	out := make([]color.RGB, len(raw))
	for i, c := range raw {
		enhanced := color.Enhance(c, session.Params.Saturation, session.Params.BrightnessBoost)
		out[i] = session.smoothers[i].Next(enhanced)
	}
	return out
}

// dispatch sends colors to their channels, skipping channels that are
// not Connected (no queuing, no blocking). Sends run concurrently to
// minimize left/right skew; all complete before the tick's sleep.
// Returns the number of successful sends.
func (e *Engine) dispatch(ctx context.Context, session *Session, colors []color.RGB) int {
	var wg sync.WaitGroup
	results := make([]bool, len(e.channels))

	for i := range e.channels {
		ch := e.channels[i]
		if ch.State() != lamp.StateConnected {
			continue
		}

		wg.Add(1)
		go func(i int, c color.RGB) {
			defer wg.Done()
			// A failed send moves the channel to Reconnecting on its
			// own; the engine never retries sends.
			if err := ch.Send(ctx, protocol.Encode(c)); err == nil {
				results[i] = true
			}
		}(i, colors[i])
	}
	wg.Wait()

	sent := 0
	for _, ok := range results {
		if ok {
			sent++
		}
	}
	return sent
}

func (e *Engine) reportStatus(session *Session, ticks, sent, skipped, captureErr int64) {
	states := make(map[string]any, len(e.channels))
	for _, ch := range e.channels {
		states[ch.Name()] = ch.State().String()
	}

	log.Debug().
		Int64("ticks", ticks).
		Int64("sent", sent).
		Int64("skipped", skipped).
		Int64("capture_errors", captureErr).
		Msg("Ambient loop status")

	e.publish(eventbus.Event{
		Type: eventbus.EventTypeTick,
		Data: map[string]any{
			"session":        session.ID.String(),
			"ticks":          ticks,
			"sent":           sent,
			"skipped":        skipped,
			"capture_errors": captureErr,
			"channels":       states,
		},
	})
}

func (e *Engine) publish(event eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}
