package ambient

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/capture"
	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/display"
	"github.com/dokzlo13/ambilightd/internal/eventbus"
	"github.com/dokzlo13/ambilightd/internal/lamp"
	"github.com/dokzlo13/ambilightd/internal/protocol"
)

var (
	// ErrSessionRunning is returned when starting an ambient session
	// while one is already active.
	ErrSessionRunning = errors.New("ambient session already running")

	// ErrSideNotConfigured is returned for operations on a side that
	// has no lamp in a single-lamp setup.
	ErrSideNotConfigured = errors.New("lamp side not configured")
)

// Side identifies a lamp position in the dual setup.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// SideResult maps each configured side to the outcome of an operation,
// nil for success. Partial failure is always visible per side, never
// collapsed into a single boolean.
type SideResult map[Side]error

// AllOK reports whether every side succeeded.
func (r SideResult) AllOK() bool {
	for _, err := range r {
		if err != nil {
			return false
		}
	}
	return true
}

// AnyOK reports whether at least one side succeeded.
func (r SideResult) AnyOK() bool {
	for _, err := range r {
		if err == nil {
			return true
		}
	}
	return false
}

// Supervisor composes the lamp channels and one engine into the
// left/right Ambilight API. With two lamps the zones are the vertical
// halves of the chosen display, sampled from the same frame each tick;
// with a single lamp (right == nil) one full-frame zone feeds the left
// channel.
type Supervisor struct {
	left  *lamp.Channel
	right *lamp.Channel // nil in a single-lamp setup
	disp  display.Descriptor

	engine *Engine

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor creates a supervisor for the given display and sides.
// right may be nil for a single-lamp setup.
func NewSupervisor(disp display.Descriptor, left, right *lamp.Channel, sampler *capture.Sampler, bus *eventbus.Bus) *Supervisor {
	channels := []*lamp.Channel{left}
	if right != nil {
		channels = append(channels, right)
	}
	return &Supervisor{
		left:   left,
		right:  right,
		disp:   disp,
		engine: NewEngine(sampler, channels, bus),
	}
}

func (s *Supervisor) sides() []Side {
	if s.right == nil {
		return []Side{SideLeft}
	}
	return []Side{SideLeft, SideRight}
}

func (s *Supervisor) channel(side Side) *lamp.Channel {
	if side == SideLeft {
		return s.left
	}
	return s.right
}

// forEachSide runs op for each configured side concurrently and
// collects per-side results.
func (s *Supervisor) forEachSide(op func(*lamp.Channel) error) SideResult {
	var wg sync.WaitGroup
	var mu sync.Mutex
	result := make(SideResult, 2)

	for _, side := range s.sides() {
		wg.Add(1)
		go func(side Side) {
			defer wg.Done()
			err := op(s.channel(side))
			mu.Lock()
			result[side] = err
			mu.Unlock()
		}(side)
	}
	wg.Wait()
	return result
}

// ConnectBoth attempts a bounded connect on each configured side.
func (s *Supervisor) ConnectBoth(ctx context.Context) SideResult {
	result := s.forEachSide(func(ch *lamp.Channel) error {
		return ch.Connect(ctx)
	})
	s.logResult("connect", result)
	return result
}

// DisconnectBoth tears down the configured links. Idempotent per side.
func (s *Supervisor) DisconnectBoth() SideResult {
	result := s.forEachSide(func(ch *lamp.Channel) error {
		return ch.Disconnect()
	})
	s.logResult("disconnect", result)
	return result
}

// ReconnectBoth retries each side independently and succeeds only when
// every configured side reaches Connected. A Failed side is reset
// first; partial success is reported, not hidden.
func (s *Supervisor) ReconnectBoth(ctx context.Context) SideResult {
	result := s.forEachSide(func(ch *lamp.Channel) error {
		return reconnectChannel(ctx, ch)
	})
	s.logResult("reconnect", result)
	return result
}

// reconnectChannel drives one channel back to Connected from whatever
// state it is in.
func reconnectChannel(ctx context.Context, ch *lamp.Channel) error {
	switch ch.State() {
	case lamp.StateConnected:
		return nil
	case lamp.StateReconnecting:
		return ch.Reconnect(ctx)
	case lamp.StateFailed:
		ch.Reset()
		return ch.Connect(ctx)
	default:
		return ch.Connect(ctx)
	}
}

// SetColor sets one side to a color directly, bypassing the engine.
// For manual control outside ambient mode.
func (s *Supervisor) SetColor(ctx context.Context, side Side, c color.RGB) error {
	ch := s.channel(side)
	if ch == nil {
		return ErrSideNotConfigured
	}
	return ch.Send(ctx, protocol.Encode(c))
}

// SetBoth sets the configured sides to the same color, reporting per side.
func (s *Supervisor) SetBoth(ctx context.Context, c color.RGB) SideResult {
	frame := protocol.Encode(c)
	return s.forEachSide(func(ch *lamp.Channel) error {
		return ch.Send(ctx, frame)
	})
}

// TurnOffBoth sends the off preset to the configured sides.
func (s *Supervisor) TurnOffBoth(ctx context.Context) SideResult {
	return s.forEachSide(func(ch *lamp.Channel) error {
		return ch.Send(ctx, protocol.Off())
	})
}

// StartAmbient launches the ambient session over the configured lamps.
// Fails if a session is already running or the parameters are invalid.
func (s *Supervisor) StartAmbient(ctx context.Context, p Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrSessionRunning
	}

	zones, err := display.SplitZones(s.disp, len(s.sides()))
	if err != nil {
		return err
	}
	session, err := NewSession(zones, p)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		if err := s.engine.Run(runCtx, session); err != nil {
			log.Error().Err(err).Msg("Ambient engine error")
		}
	}()

	log.Info().
		Str("session", session.ID.String()).
		Int("display", s.disp.ID).
		Int("lamps", len(zones)).
		Msg("Ambient session started")
	return nil
}

// StopAmbient cancels the running session and waits for the loop to
// exit. Lamps keep their last color. No-op when idle.
func (s *Supervisor) StopAmbient() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("Ambient session stopped")
}

// Running reports whether an ambient session is active.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// States returns the current per-side connection states.
func (s *Supervisor) States() map[Side]lamp.ConnectionState {
	states := make(map[Side]lamp.ConnectionState, 2)
	for _, side := range s.sides() {
		states[side] = s.channel(side).State()
	}
	return states
}

func (s *Supervisor) logResult(op string, result SideResult) {
	evt := log.Info()
	for side, err := range result {
		if err != nil {
			evt = evt.AnErr(string(side), err)
		} else {
			evt = evt.Str(string(side), "ok")
		}
	}
	evt.Msgf("Lamp %s", op)
}
