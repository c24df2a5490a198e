package comicmap

import (
	"sync"

	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for collection events
type (
	// ComicAddedHook is called when a new source is added to the collection
	ComicAddedHook func(rec comics.Record)

	// ComicUpdatedHook is called when a tracked series changes chapter count
	ComicUpdatedHook func(old, new comics.Record)
)

// Hooks registers callbacks fired after a cycle saves the collection.
type Hooks interface {
	// OnComicAdded registers a callback for when records are added
	OnComicAdded(ComicAddedHook)

	// OnComicUpdated registers a callback for when records are updated
	OnComicUpdated(ComicUpdatedHook)
}

// OnComicAdded registers a callback for when records are added.
func (c *client) OnComicAdded(fn ComicAddedHook) {
	c.hooks.OnComicAdded(fn)
}

// OnComicUpdated registers a callback for when records are updated.
func (c *client) OnComicUpdated(fn ComicUpdatedHook) {
	c.hooks.OnComicUpdated(fn)
}

// hooks manages event callbacks for collection changes
type hooks struct {
	mu             sync.RWMutex
	onComicAdded   []ComicAddedHook
	onComicUpdated []ComicUpdatedHook
}

func newHooks() *hooks {
	return &hooks{}
}

func (h *hooks) OnComicAdded(fn ComicAddedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onComicAdded = append(h.onComicAdded, fn)
}

func (h *hooks) OnComicUpdated(fn ComicUpdatedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onComicUpdated = append(h.onComicUpdated, fn)
}

// triggerResult calls the registered hooks for every change in result.
// A panicking hook is logged and does not stop the others.
func (h *hooks) triggerResult(result *reconciler.Result) {
	h.mu.RLock()
	added := h.onComicAdded
	updated := h.onComicUpdated
	h.mu.RUnlock()

	for _, rec := range result.Added {
		for _, hook := range added {
			safeCall("added", rec.Source, func() { hook(rec) })
		}
	}
	for _, change := range result.Updated {
		for _, hook := range updated {
			safeCall("updated", change.New.Source, func() { hook(change.Old, change.New) })
		}
	}
}

func safeCall(event, source string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Str("event", event).
				Str("source", source).
				Interface("panic", rec).
				Msg("Hook panicked")
		}
	}()
	fn()
}
