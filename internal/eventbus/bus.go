// Package eventbus delivers status events (connection transitions,
// capture problems, tick stats) to subscribers over a bounded worker
// pool. Publishing never blocks the ambient loop: when the queue is
// full, events are dropped.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType classifies status events.
type EventType string

const (
	// EventTypeConnection is a lamp channel state transition.
	EventTypeConnection EventType = "connection"
	// EventTypeCapture is a screen capture failure or recovery.
	EventTypeCapture EventType = "capture"
	// EventTypeTick is a periodic ambient loop stats report.
	EventTypeTick EventType = "tick"
)

const (
	DefaultWorkerCount = 2
	DefaultQueueSize   = 64
)

// Event is one status report.
type Event struct {
	Type EventType
	Lamp string // channel name, empty for session-wide events
	At   time.Time
	Data map[string]any
}

// Handler consumes events.
type Handler func(Event)

type work struct {
	event   Event
	handler Handler
}

// Bus routes events to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler

	workQueue chan work
	wg        sync.WaitGroup

	// closing signals publishers to stop; a closed channel in select
	// is race-free, unlike a mutex-guarded bool.
	closing   chan struct{}
	closeOnce sync.Once
}

// New creates a bus with default sizing.
func New() *Bus {
	return NewWithConfig(DefaultWorkerCount, DefaultQueueSize)
}

// NewWithConfig creates a bus with a custom worker count and queue size.
func NewWithConfig(workerCount, queueSize int) *Bus {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	b := &Bus{
		handlers:  make(map[EventType][]Handler),
		workQueue: make(chan work, queueSize),
		closing:   make(chan struct{}),
	}

	for i := 0; i < workerCount; i++ {
		b.wg.Add(1)
		go b.worker()
	}

	log.Debug().Int("workers", workerCount).Int("queue_size", queueSize).Msg("Status bus started")
	return b
}

func (b *Bus) worker() {
	defer b.wg.Done()

	for w := range b.workQueue {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Str("event_type", string(w.event.Type)).
						Msg("Status handler panicked")
				}
			}()
			w.handler(w.event)
		}()
	}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish routes an event to all handlers of its type. Non-blocking;
// fills in At when unset.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		select {
		case <-b.closing:
			return
		case b.workQueue <- work{event: event, handler: handler}:
		default:
			log.Warn().Str("event_type", string(event.Type)).Msg("Status bus queue full, dropping event")
		}
	}
}

// Close drains the pool. Bounded by ctx; safe to call more than once.
func (b *Bus) Close(ctx context.Context) {
	b.closeOnce.Do(func() {
		close(b.closing)
		close(b.workQueue)
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Warn().Msg("Status bus shutdown timed out, some events may be lost")
	}
}
