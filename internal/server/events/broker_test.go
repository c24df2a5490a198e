package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (r *recorder) Send(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestBroker_PublishFansOut verifies every subscriber receives each event.
func TestBroker_PublishFansOut(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	// Subscribing before Run must not block.
	a, c := &recorder{}, &recorder{}
	b.Subscribe(a)
	b.Subscribe(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	waitFor(t, func() bool { return b.SubscriberCount() == 2 })

	b.Publish(ComicAdded, map[string]any{"source": "https://example.com/a"})
	b.Publish(ComicUpdated, nil)

	waitFor(t, func() bool { return a.count() == 2 && c.count() == 2 })
	if a.events[0].Type != ComicAdded || a.events[1].Type != ComicUpdated {
		t.Errorf("events out of order: %v, %v", a.events[0].Type, a.events[1].Type)
	}
	if stats := b.Stats(); stats.Published != 2 || stats.Dropped != 0 {
		t.Errorf("Stats() = %+v, want 2 published", stats)
	}
}

// TestBroker_Unsubscribe verifies removed subscribers are closed.
func TestBroker_Unsubscribe(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	sub := &recorder{}
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	b.Unsubscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 0 })
	if !sub.closed {
		t.Error("unsubscribed subscriber was not closed")
	}
}

// TestBroker_Shutdown verifies subscribers are closed when Run returns.
func TestBroker_Shutdown(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	sub := &recorder{}
	b.Subscribe(sub)
	waitFor(t, func() bool { return b.SubscriberCount() == 1 })

	cancel()
	<-done
	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after shutdown, got %d", b.SubscriberCount())
	}
	if !sub.closed {
		t.Error("subscriber not closed on shutdown")
	}
}

// TestBroker_PublishDropsWhenFull verifies Publish never blocks.
func TestBroker_PublishDropsWhenFull(t *testing.T) {
	logger := zerolog.Nop()
	b := NewBroker(&logger)

	for i := 0; i < cap(b.events)+5; i++ {
		b.Publish(CycleCompleted, i)
	}
	if stats := b.Stats(); stats.Dropped != 5 || stats.Queued != cap(b.events) {
		t.Errorf("Stats() = %+v, want 5 dropped", stats)
	}
}
