package events

import (
	"context"
	"log/slog"
	"sync"
)

// Appender persists published events. The history store implements this.
type Appender interface {
	Append(e Event) (int64, error)
}

// Bus is the central event bus for pub/sub.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event // eventType -> channels
	allSubs     []chan Event            // subscribers to all events
	sink        Appender                // persistence (may be nil)
	logger      *slog.Logger
	closed      bool
}

// NewBus creates a new event bus.
// The Appender is optional - pass nil to disable persistence.
func NewBus(sink Appender, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string][]chan Event),
		sink:        sink,
		logger:      logger,
	}
}

// Publish sends an event to all subscribers and optionally persists it.
// Delivery is non-blocking: a slow subscriber loses events, it never stalls
// the job loop.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}

	subs := make([]chan Event, len(b.subscribers[e.EventType()]))
	copy(subs, b.subscribers[e.EventType()])

	allSubs := make([]chan Event, len(b.allSubs))
	copy(allSubs, b.allSubs)
	b.mu.RUnlock()

	if b.sink != nil {
		if _, err := b.sink.Append(e); err != nil {
			// Delivery matters more than persistence.
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"type", e.EventType(), "job_id", e.JobID())
		}
	}

	for _, ch := range allSubs {
		select {
		case ch <- e:
		default:
			b.logger.Warn("all-subscriber channel full, dropping event",
				"type", e.EventType())
		}
	}

	return nil
}

// Subscribe returns a channel for events of a specific type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll returns a channel for all events.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, bufferSize)
	b.allSubs = append(b.allSubs, ch)
	return ch
}

// SubscribeJob returns events for a specific job, implemented by filtering
// the all-events stream.
func (b *Bus) SubscribeJob(jobID string, bufferSize int) <-chan Event {
	allCh := b.SubscribeAll(bufferSize * 10) // larger buffer for filtering
	filtered := make(chan Event, bufferSize)

	go func() {
		for e := range allCh {
			if e.JobID() == jobID {
				select {
				case filtered <- e:
				default:
					// Drop if full
				}
			}
		}
		close(filtered)
	}()

	return filtered
}

// Unsubscribe removes a subscription channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(sub)
				return
			}
		}
	}

	for i, sub := range b.allSubs {
		if sub == ch {
			b.allSubs = append(b.allSubs[:i], b.allSubs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = nil

	for _, ch := range b.allSubs {
		close(ch)
	}
	b.allSubs = nil

	return nil
}
