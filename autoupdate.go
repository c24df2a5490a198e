package comicmap

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/reconciler"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoUpdater = (*client)(nil)

// AutoUpdater provides controls for the background ingest and refresh loops.
type AutoUpdater interface {
	// AutoUpdatesOn starts both loops
	AutoUpdatesOn() error

	// AutoUpdatesOff stops both loops and waits for in-flight cycles to return
	AutoUpdatesOff() error
}

// loops tracks the running background goroutines.
type loops struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newLoops() *loops {
	return &loops{}
}

// AutoUpdatesOn starts the ingest and refresh loops. Each loop runs a cycle
// immediately, then once per interval until AutoUpdatesOff is called.
func (c *client) AutoUpdatesOn() error {
	if c.options.ingestInterval <= 0 {
		return &errors.ValidationError{
			Field:   "ingestInterval",
			Value:   c.options.ingestInterval,
			Message: "update interval must be positive",
		}
	}
	if c.options.refreshInterval <= 0 {
		return &errors.ValidationError{
			Field:   "refreshInterval",
			Value:   c.options.refreshInterval,
			Message: "update interval must be positive",
		}
	}

	// Stop any existing loops first
	if err := c.AutoUpdatesOff(); err != nil {
		return err
	}

	c.loops.mu.Lock()
	defer c.loops.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	c.loops.cancel = cancel
	c.loops.wg.Add(2)
	go c.loop(ctx, reconciler.CycleIngest, c.options.ingestInterval, c.Ingest)
	go c.loop(ctx, reconciler.CycleRefresh, c.options.refreshInterval, c.Refresh)

	logging.Info().
		Dur("ingest_interval", c.options.ingestInterval).
		Dur("refresh_interval", c.options.refreshInterval).
		Msg("Auto-updates started")
	return nil
}

// AutoUpdatesOff stops the loops. It is safe to call when they are not running.
func (c *client) AutoUpdatesOff() error {
	c.loops.mu.Lock()
	cancel := c.loops.cancel
	c.loops.cancel = nil
	c.loops.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	c.loops.wg.Wait()
	logging.Info().Msg("Auto-updates stopped")
	return nil
}

type cycleFunc func(ctx context.Context) (*reconciler.Result, error)

func (c *client) loop(ctx context.Context, name string, interval time.Duration, run cycleFunc) {
	defer c.loops.wg.Done()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		c.iterate(ctx, name, run)
		timer.Reset(interval)
	}
}

// iterate runs one cycle under constants.CycleTimeout. Errors and panics are
// logged; the loop always continues.
func (c *client) iterate(ctx context.Context, name string, run cycleFunc) {
	ctx = logging.WithCycle(ctx, name)
	log := logging.FromContext(ctx)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("Cycle panicked")
		}
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, constants.CycleTimeout)
	defer cancel()

	result, err := run(cycleCtx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Bool("saved", result != nil && result.Saved).
			Msg("Cycle timed out, extracted sources were kept")
	case errors.IsConflict(err):
		log.Warn().Err(err).Msg("Remote changed since last read, push deferred to next cycle")
	default:
		log.Error().Err(err).Msg("Cycle failed")
	}

	if result != nil {
		log.Debug().
			Dur("duration", result.Duration).
			Int("failed", len(result.Failed)).
			Msg(result.Summary())
	}
}
