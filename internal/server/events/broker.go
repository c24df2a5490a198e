package events

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Broker distributes events to subscribers. Publish never blocks: when the
// queue is full the event is dropped and counted.
type Broker struct {
	subscribers []Subscriber
	events      chan Event
	register    chan Subscriber
	unregister  chan Subscriber
	mu          sync.RWMutex
	logger      *zerolog.Logger

	published atomic.Int64
	dropped   atomic.Int64
}

// NewBroker creates a broker. Subscribe may be called before Run.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		events:     make(chan Event, 256),
		register:   make(chan Subscriber, 16),
		unregister: make(chan Subscriber, 16),
		logger:     logger,
	}
}

// Run delivers events until ctx is canceled, then closes every subscriber.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			for _, sub := range b.subscribers {
				_ = sub.Close()
			}
			b.subscribers = nil
			b.mu.Unlock()
			b.logger.Debug().Msg("Event broker shut down")
			return

		case sub := <-b.register:
			b.mu.Lock()
			b.subscribers = append(b.subscribers, sub)
			n := len(b.subscribers)
			b.mu.Unlock()
			b.logger.Debug().Int("total_subscribers", n).Msg("Subscriber registered")

		case sub := <-b.unregister:
			b.mu.Lock()
			if i := slices.Index(b.subscribers, sub); i >= 0 {
				b.subscribers = slices.Delete(b.subscribers, i, i+1)
				_ = sub.Close()
			}
			b.mu.Unlock()

		case event := <-b.events:
			b.mu.RLock()
			subs := slices.Clone(b.subscribers)
			b.mu.RUnlock()

			for _, sub := range subs {
				if err := sub.Send(event); err != nil {
					b.logger.Warn().
						Err(err).
						Str("event_type", string(event.Type)).
						Msg("Failed to send event to subscriber")
				}
			}
			b.logger.Debug().
				Str("event_type", string(event.Type)).
				Int("subscribers", len(subs)).
				Msg("Event broadcasted")
		}
	}
}

// Publish queues an event for delivery.
func (b *Broker) Publish(eventType EventType, data any) {
	event := Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}
	select {
	case b.events <- event:
		b.published.Add(1)
	default:
		b.dropped.Add(1)
		b.logger.Warn().Str("event_type", string(eventType)).Msg("Event queue full, event dropped")
	}
}

// Subscribe registers a subscriber.
func (b *Broker) Subscribe(sub Subscriber) {
	b.register <- sub
}

// Unsubscribe removes and closes a subscriber.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.unregister <- sub
}

// SubscriberCount returns the number of registered subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Stats reports publish counters and the current queue depth.
type Stats struct {
	Published int64 `json:"published_total"`
	Dropped   int64 `json:"dropped_total"`
	Queued    int   `json:"queue_depth"`
}

// Stats returns the broker counters.
func (b *Broker) Stats() Stats {
	return Stats{
		Published: b.published.Load(),
		Dropped:   b.dropped.Load(),
		Queued:    len(b.events),
	}
}
