// Package reconciler merges freshly extracted metadata into the tracked
// collection. It runs the ingest pass (add sources not yet tracked) and the
// refresh pass (re-extract tracked sources and record chapter changes), then
// commits the collection to the local mirror and the remote store.
//
// Extraction happens without holding any lock. Merging and committing are
// serialized by the Reconciler, which re-reads the local mirror before every
// merge, so concurrent ingest and refresh passes never lose each other's writes.
package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/store"
)

// Extractor produces metadata for a source URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (*comics.Extraction, error)
}

// LocalFile is the durable local copy of the collection.
type LocalFile interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Reconciler owns every write to the collection.
type Reconciler struct {
	extractor Extractor
	local     LocalFile
	remote    store.Store
	key       string
	now       func() utc.Time
	overwrite bool

	mu      sync.Mutex
	version string // remote version of the last read or write
	stale   bool   // version must be re-read before the next conditional push
	pending bool   // local commit not yet pushed
}

// New creates a Reconciler.
func New(extractor Extractor, local LocalFile, opts ...Option) (*Reconciler, error) {
	if extractor == nil {
		return nil, &errors.ValidationError{Field: "extractor", Message: "cannot be nil"}
	}
	if local == nil {
		return nil, &errors.ValidationError{Field: "local", Message: "cannot be nil"}
	}
	o, err := defaultOptions().apply(opts...)
	if err != nil {
		return nil, err
	}
	return &Reconciler{
		extractor: extractor,
		local:     local,
		remote:    o.remote,
		key:       o.key,
		now:       o.now,
		overwrite: o.overwrite,
		stale:     true,
	}, nil
}

// Bootstrap seeds a missing local mirror from the remote blob, or with an
// empty collection when the remote has none. An existing mirror is kept.
func (r *Reconciler) Bootstrap(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := logging.FromContext(ctx)
	if _, err := r.local.Read(ctx); err == nil {
		return nil
	} else if !errors.IsNotFound(err) {
		return err
	}

	seed := comics.Collection{}
	if r.remote != nil {
		getCtx, cancel := context.WithTimeout(ctx, constants.PushTimeout)
		blob, err := r.remote.Get(getCtx, r.key)
		cancel()
		switch {
		case err == nil:
			r.version, r.stale = blob.Version, false
			decoded, derr := comics.Decode(blob.Data)
			if derr != nil {
				log.Warn().Err(derr).Str("key", r.key).Msg("Remote collection unreadable, starting empty")
			} else {
				seed = decoded
			}
		case errors.IsNotFound(err):
			r.version, r.stale = "", false
		default:
			log.Warn().Err(err).Str("key", r.key).Msg("Remote collection unavailable, starting empty")
		}
	}

	seed.Backfill(r.now())
	data, err := comics.Encode(seed)
	if err != nil {
		return err
	}
	if err := r.local.Write(ctx, data); err != nil {
		return err
	}
	log.Info().Int("records", len(seed)).Msg("Seeded local collection")
	return nil
}

// Collection returns the current collection from the local mirror.
func (r *Reconciler) Collection(ctx context.Context) (comics.Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// load reads the local mirror. Callers hold r.mu.
func (r *Reconciler) load(ctx context.Context) (comics.Collection, error) {
	data, err := r.local.Read(ctx)
	if err != nil {
		if errors.IsNotFound(err) {
			return comics.Collection{}, nil
		}
		return nil, err
	}
	return comics.Decode(data)
}

// Ingest extracts every source not yet in the collection and appends the
// successful results. Failed sources are reported and retried on the next call.
// When ctx ends mid-pass, extraction stops and the sources already extracted
// are still committed; the context error is returned alongside the result.
func (r *Reconciler) Ingest(ctx context.Context, sources []string) (*Result, error) {
	res := newResult(CycleIngest)
	defer res.finalize()
	ctx = logging.WithCycle(ctx, CycleIngest)

	snapshot, err := r.Collection(ctx)
	if err != nil {
		return res, err
	}

	type extracted struct {
		url string
		ex  *comics.Extraction
	}
	var results []extracted
	tracked := snapshot.Index()
	seen := make(map[string]struct{}, len(sources))
	for _, url := range sources {
		if _, dup := seen[url]; dup {
			continue
		}
		if _, ok := tracked[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		if interrupted(ctx, res) {
			break
		}
		ex, ok := r.extract(ctx, url, res)
		if ok {
			results = append(results, extracted{url: url, ex: ex})
		}
	}

	// What was extracted before an interruption is still merged and committed.
	cycleErr := ctx.Err()
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(results) == 0 && !r.pending {
		return res, cycleErr
	}

	current, err := r.load(ctx)
	if err != nil {
		return res, err
	}
	tracked = current.Index()
	now := r.now()
	for _, item := range results {
		rec := comics.NewRecord(item.url, item.ex, now)
		_, urlTracked := tracked[item.url]
		_, srcTracked := tracked[rec.Source]
		if urlTracked || srcTracked {
			res.Skipped++
			continue
		}
		tracked[rec.Source] = len(current)
		current = append(current, rec)
		res.Added = append(res.Added, rec)
		res.Dirty = true
		logging.FromContext(logging.WithStage(ctx, logging.StageAdd)).Info().
			Str("source", rec.Source).
			Str("title", rec.Title).
			Int("chapters", rec.ChapterCount).
			Msg("Added title")
	}

	return res, r.finish(ctx, current, res, cycleErr)
}

// Refresh re-extracts every tracked source. A changed chapter count replaces
// the record and bumps updated_at; an equal count replaces the record with
// both timestamps kept, and does not by itself trigger a commit.
func (r *Reconciler) Refresh(ctx context.Context) (*Result, error) {
	res := newResult(CycleRefresh)
	defer res.finalize()
	ctx = logging.WithCycle(ctx, CycleRefresh)

	snapshot, err := r.Collection(ctx)
	if err != nil {
		return res, err
	}

	fresh := make(map[string]*comics.Extraction, len(snapshot))
	for _, rec := range snapshot {
		if interrupted(ctx, res) {
			break
		}
		if ex, ok := r.extract(ctx, rec.Source, res); ok {
			fresh[rec.Source] = ex
		}
	}

	cycleErr := ctx.Err()
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.load(ctx)
	if err != nil {
		return res, err
	}
	now := r.now()
	for i, rec := range current {
		ex, ok := fresh[rec.Source]
		if !ok {
			continue
		}
		// Legacy records get their timestamps on the first pass that touches them.
		rec.Backfill(now)
		next := rec.WithExtraction(ex)
		if next.ChapterCount == rec.ChapterCount {
			current[i] = next
			res.Unchanged++
			continue
		}

		next.UpdatedAt = later(now, rec.UpdatedAt)
		current[i] = next
		res.Updated = append(res.Updated, Change{Old: rec, New: next})
		res.Dirty = true
		logging.FromContext(logging.WithStage(ctx, logging.StageUpdate)).Info().
			Str("source", rec.Source).
			Str("title", next.Title).
			Int("old", rec.ChapterCount).
			Int("new", next.ChapterCount).
			Msg("Chapter count changed")
	}

	return res, r.finish(ctx, current, res, cycleErr)
}

// finish commits when the pass changed something or a push is pending, and
// reports cycleErr, the reason extraction stopped early, if any. Callers hold r.mu.
func (r *Reconciler) finish(ctx context.Context, c comics.Collection, res *Result, cycleErr error) error {
	if res.Dirty || r.pending {
		if err := r.commit(ctx, c, res); err != nil {
			return err
		}
	}
	return cycleErr
}

// interrupted reports whether ctx ended, marking res so partial passes are visible.
func interrupted(ctx context.Context, res *Result) bool {
	if ctx.Err() == nil {
		return false
	}
	if !res.Interrupted {
		res.Interrupted = true
		logging.FromContext(ctx).Warn().Err(ctx.Err()).
			Int("failed", len(res.Failed)).
			Msg("Cycle interrupted, committing what was extracted")
	}
	return true
}

// extract runs the extractor and records failures on res.
func (r *Reconciler) extract(ctx context.Context, url string, res *Result) (*comics.Extraction, bool) {
	ex, err := r.extractor.Extract(ctx, url)
	if err == nil && ex == nil {
		err = errors.NewExtractionError("", url, "no result", nil)
	}
	if err != nil {
		res.Failed = append(res.Failed, Failure{Source: url, Err: err})
		log := logging.FromContext(logging.WithStage(ctx, logging.StageScrape)).Warn().Err(err).Str("source", url)
		if errors.IsNoExtractor(err) {
			log.Msg("No extractor for source")
		} else {
			log.Msg("Extraction failed")
		}
		return nil, false
	}
	return ex, true
}

// commit writes the collection locally then pushes it. Callers hold r.mu.
func (r *Reconciler) commit(ctx context.Context, c comics.Collection, res *Result) error {
	data, err := comics.Encode(c)
	if err != nil {
		return err
	}
	if err := r.local.Write(ctx, data); err != nil {
		logging.FromContext(logging.WithStage(ctx, logging.StageSave)).Error().Err(err).Msg("Failed to save collection")
		return err
	}
	res.Saved = true
	r.pending = true

	if r.remote == nil {
		r.pending = false
		return nil
	}

	ctx = logging.WithStage(ctx, logging.StagePush)
	pushCtx, cancel := context.WithTimeout(ctx, constants.PushTimeout)
	defer cancel()

	if r.stale || r.overwrite {
		blob, err := r.remote.Get(pushCtx, r.key)
		switch {
		case err == nil:
			r.version = blob.Version
		case errors.IsNotFound(err):
			r.version = ""
		default:
			return errors.WrapResource("push", "collection", r.key, err)
		}
		r.stale = false
	}

	version, err := r.remote.Put(pushCtx, r.key, data, r.version)
	if err != nil {
		// the write may or may not have landed; re-read before trying again
		r.stale = true
		if errors.IsConflict(err) {
			return err
		}
		return errors.WrapResource("push", "collection", r.key, err)
	}

	r.version = version
	r.pending = false
	res.Pushed = true
	logging.FromContext(ctx).Info().
		Str("key", r.key).
		Int("records", len(c)).
		Str("version", version).
		Msg("Pushed collection")
	return nil
}

// Pending reports whether a committed collection still awaits a successful push.
func (r *Reconciler) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// later returns now, or a microsecond past prev when the clock has not moved past it.
func later(now, prev utc.Time) utc.Time {
	if now.Time.After(prev.Time) {
		return now
	}
	return comics.Timestamp(prev.Time.Add(time.Microsecond))
}
