package lamp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ambilightd/internal/protocol"
)

var (
	// ErrNotConnected is returned by Send when the channel is not in
	// the Connected state.
	ErrNotConnected = errors.New("channel not connected")

	// ErrChannelFailed is returned by operations on a Failed channel.
	// Failed is terminal until Reset is called.
	ErrChannelFailed = errors.New("channel failed, reset required")

	// ErrRetriesExhausted is returned by Reconnect when the attempt
	// budget runs out.
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

// TransitionHook observes channel state transitions. Called outside the
// state lock; must not call back into the channel.
type TransitionHook func(name string, from, to ConnectionState)

// ChannelConfig bounds connection and retry behavior.
type ChannelConfig struct {
	ConnectTimeout time.Duration // per connect attempt
	RetryAttempts  int           // reconnect budget
	RetryDelay     time.Duration // fixed delay between reconnect attempts
}

// DefaultChannelConfig returns the defaults used when fields are unset.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		ConnectTimeout: 10 * time.Second,
		RetryAttempts:  5,
		RetryDelay:     time.Second,
	}
}

// Channel owns the connection lifecycle of exactly one lamp. All
// mutation of the connection state happens here; other components only
// read State and invoke operations.
type Channel struct {
	name      string
	transport Transport
	cfg       ChannelConfig
	hook      TransitionHook

	// opMu serializes connect/send/disconnect; stateMu guards state
	// reads so State() never blocks behind transport I/O.
	opMu    sync.Mutex
	stateMu sync.RWMutex
	state   ConnectionState
}

// NewChannel creates a channel over the given transport. name is used
// in logs and transition events ("left", "right", ...).
func NewChannel(name string, transport Transport, cfg ChannelConfig) *Channel {
	def := DefaultChannelConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = def.RetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}

	return &Channel{
		name:      name,
		transport: transport,
		cfg:       cfg,
		state:     StateDisconnected,
	}
}

// OnTransition registers a hook observing every state change.
// Must be called before the channel is used.
func (c *Channel) OnTransition(hook TransitionHook) {
	c.hook = hook
}

// Name returns the channel's name.
func (c *Channel) Name() string {
	return c.name
}

// State returns the current connection state.
func (c *Channel) State() ConnectionState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Channel) setState(to ConnectionState) {
	c.stateMu.Lock()
	from := c.state
	c.state = to
	c.stateMu.Unlock()

	if from == to {
		return
	}

	log.Debug().
		Str("lamp", c.name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Channel state changed")

	if c.hook != nil {
		c.hook(c.name, from, to)
	}
}

// Connect performs a single bounded connection attempt. It does not
// retry; retry policy belongs to the caller via Reconnect.
func (c *Channel) Connect(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.State() {
	case StateConnected:
		return nil
	case StateFailed:
		return ErrChannelFailed
	}

	c.setState(StateConnecting)

	if err := c.attempt(ctx); err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.setState(StateConnected)
	return nil
}

func (c *Channel) attempt(ctx context.Context) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	return c.transport.Connect(attemptCtx)
}

// Send writes one command frame. Requires Connected; a transport error
// moves the channel to Reconnecting and is reported, never raised.
func (c *Channel) Send(ctx context.Context, frame protocol.Frame) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if state := c.State(); state != StateConnected {
		if state == StateFailed {
			return ErrChannelFailed
		}
		return ErrNotConnected
	}

	if err := c.transport.Write(ctx, frame.Bytes()); err != nil {
		// A cancelled caller says nothing about link health; only a
		// transport failure drives the reconnect path.
		if errors.Is(err, context.Canceled) {
			return err
		}
		log.Warn().Err(err).Str("lamp", c.name).Msg("Lamp write failed")
		c.setState(StateReconnecting)
		return fmt.Errorf("send to %s: %w", c.name, err)
	}
	return nil
}

// Reconnect retries the connection while in Reconnecting, up to the
// configured attempt budget with a fixed delay between attempts.
// Exhaustion moves the channel to Failed; there are no automatic
// attempts after that.
func (c *Channel) Reconnect(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	switch c.State() {
	case StateConnected:
		return nil
	case StateFailed:
		return ErrChannelFailed
	case StateDisconnected, StateConnecting:
		return fmt.Errorf("reconnect from state %s", c.State())
	}

	// Drop the dead link before dialing again.
	_ = c.transport.Disconnect()

	var lastErr error
	for i := 0; i < c.cfg.RetryAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				// Cancellation is not exhaustion; stay Reconnecting.
				return ctx.Err()
			case <-time.After(c.cfg.RetryDelay):
			}
		}

		lastErr = c.attempt(ctx)
		if lastErr == nil {
			c.setState(StateConnected)
			log.Info().Str("lamp", c.name).Int("attempt", i+1).Msg("Lamp reconnected")
			return nil
		}

		log.Warn().
			Err(lastErr).
			Str("lamp", c.name).
			Int("attempt", i+1).
			Int("budget", c.cfg.RetryAttempts).
			Msg("Reconnect attempt failed")
	}

	c.setState(StateFailed)
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, c.cfg.RetryAttempts, lastErr)
}

// Disconnect tears down the link from any non-Disconnected state.
// Idempotent.
func (c *Channel) Disconnect() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() == StateDisconnected {
		return nil
	}

	err := c.transport.Disconnect()
	c.setState(StateDisconnected)
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", c.name, err)
	}
	return nil
}

// Reset clears the terminal Failed state back to Disconnected so an
// external caller can try Connect again.
func (c *Channel) Reset() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.State() == StateFailed {
		c.setState(StateDisconnected)
	}
}
