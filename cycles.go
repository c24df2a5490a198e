package comicmap

import (
	"context"

	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ Cycles = (*client)(nil)

// Cycles runs single passes outside the background loops.
type Cycles interface {
	// Ingest syncs the request list and adds sources not yet tracked
	Ingest(ctx context.Context) (*reconciler.Result, error)

	// Refresh re-extracts every tracked source and records chapter changes
	Refresh(ctx context.Context) (*reconciler.Result, error)
}

// Ingest syncs the request list, then adds every listed source that is not
// tracked yet. Hooks fire for records that reached the local mirror.
func (c *client) Ingest(ctx context.Context) (*reconciler.Result, error) {
	sources, err := c.requests.Sync(ctx)
	if err != nil {
		// the list is still usable; only the local copy failed to update
		logging.FromContext(ctx).Warn().Err(err).Msg("Failed to save request list")
	}

	result, err := c.reconciler.Ingest(ctx, sources)
	c.notify(result)
	return result, err
}

// Refresh re-extracts every tracked source.
func (c *client) Refresh(ctx context.Context) (*reconciler.Result, error) {
	result, err := c.reconciler.Refresh(ctx)
	c.notify(result)
	return result, err
}

func (c *client) notify(result *reconciler.Result) {
	if result == nil || !result.Saved {
		return
	}
	c.hooks.triggerResult(result)
}
