package lamp

import (
	"context"
	"sync"
)

// FakeTransport is a scripted test double for Transport.
type FakeTransport struct {
	mu sync.Mutex

	// ConnectErrs are consumed one per Connect call; nil entries mean
	// success. When exhausted, the last entry repeats.
	ConnectErrs []error

	// WriteErrs are consumed one per Write call, same semantics.
	WriteErrs []error

	connects    int
	writes      int
	disconnects int
	frames      [][]byte
}

// NewFakeTransport creates a transport that always succeeds.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func nextScripted(errs []error, n int) error {
	if len(errs) == 0 {
		return nil
	}
	if n >= len(errs) {
		return errs[len(errs)-1]
	}
	return errs[n]
}

// Connect implements Transport.
func (f *FakeTransport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := nextScripted(f.ConnectErrs, f.connects)
	f.connects++
	return err
}

// Write implements Transport.
func (f *FakeTransport) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := nextScripted(f.WriteErrs, f.writes)
	f.writes++
	if err != nil {
		return err
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	f.frames = append(f.frames, frame)
	return nil
}

// Disconnect implements Transport.
func (f *FakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

// Connects returns how many Connect calls were made.
func (f *FakeTransport) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

// Disconnects returns how many Disconnect calls were made.
func (f *FakeTransport) Disconnects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnects
}

// Frames returns a copy of all successfully written frames.
func (f *FakeTransport) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

// SetWriteErrs replaces the scripted write errors.
func (f *FakeTransport) SetWriteErrs(errs []error) {
	f.mu.Lock()
	f.WriteErrs = errs
	f.mu.Unlock()
}
