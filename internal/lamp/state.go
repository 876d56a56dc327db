// Package lamp owns the connection lifecycle to a single BLE LED lamp:
// the channel state machine, bounded reconnection, and the transport
// abstraction it drives.
package lamp

// ConnectionState is the lifecycle state of a lamp channel. Transitions
// happen only inside the owning Channel.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns a human-readable name for the state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
