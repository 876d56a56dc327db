package lamp

import "context"

// Transport is the capability a channel needs from its radio link.
// Implementations must be safe for use by a single channel; the channel
// serializes all calls.
type Transport interface {
	// Connect establishes the link. Bounded by ctx.
	Connect(ctx context.Context) error

	// Write sends one command frame. Bounded by ctx.
	Write(ctx context.Context, data []byte) error

	// Disconnect tears down the link. Safe to call when not connected.
	Disconnect() error
}
