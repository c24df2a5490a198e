// Package extractors defines the site extractor capability and the ordered
// registry that routes a source URL to the first extractor able to handle it.
package extractors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
)

// Extractor pulls series metadata for URLs it recognizes.
type Extractor interface {
	// Name identifies the extractor in logs and errors.
	Name() string
	// CanHandle reports whether url belongs to this extractor's site.
	CanHandle(url string) bool
	// Extract fetches url and returns its metadata.
	Extract(ctx context.Context, url string) (*comics.Extraction, error)
}

// Registry holds extractors in priority order. The zero value is ready to use.
type Registry struct {
	mu         sync.RWMutex
	extractors []Extractor
	timeout    time.Duration
}

// NewRegistry returns a registry containing exs in the given order.
func NewRegistry(exs ...Extractor) *Registry {
	r := &Registry{}
	for _, ex := range exs {
		r.Register(ex)
	}
	return r
}

// Register appends ex at the lowest priority.
func (r *Registry) Register(ex Extractor) {
	if ex == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, ex)
}

// SetTimeout overrides the per-extraction timeout (constants.ExtractTimeout).
func (r *Registry) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Names lists registered extractors in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.extractors))
	for i, ex := range r.extractors {
		names[i] = ex.Name()
	}
	return names
}

// Resolve returns the first extractor whose CanHandle accepts url. A predicate
// that panics is logged and treated as not matching.
func (r *Registry) Resolve(ctx context.Context, url string) (Extractor, bool) {
	r.mu.RLock()
	exs := r.extractors
	r.mu.RUnlock()

	for _, ex := range exs {
		if canHandle(ctx, ex, url) {
			return ex, true
		}
	}
	return nil, false
}

func canHandle(ctx context.Context, ex Extractor, url string) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.FromContext(ctx).Warn().
				Str("extractor", ex.Name()).
				Str("url", url).
				Interface("panic", rec).
				Msg("Extractor predicate failed")
			ok = false
		}
	}()
	return ex.CanHandle(url)
}

// Extract resolves url and runs the matching extractor under a bounded timeout.
// Every failure, including no matching extractor, is an *errors.ExtractionError.
func (r *Registry) Extract(ctx context.Context, url string) (*comics.Extraction, error) {
	ex, ok := r.Resolve(ctx, url)
	if !ok {
		return nil, &errors.ExtractionError{
			URL:     url,
			Message: "no extractor found",
			Err:     errors.ErrNoExtractor,
		}
	}

	r.mu.RLock()
	timeout := r.timeout
	r.mu.RUnlock()
	if timeout <= 0 {
		timeout = constants.ExtractTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := run(ctx, ex, url)
	if err != nil {
		var exErr *errors.ExtractionError
		if errors.As(err, &exErr) {
			if exErr.Extractor == "" {
				exErr.Extractor = ex.Name()
			}
			return nil, exErr
		}
		return nil, errors.WrapExtraction(ex.Name(), url, err)
	}
	if result == nil {
		return nil, errors.NewExtractionError(ex.Name(), url, "extractor returned no result", nil)
	}
	return result, nil
}

func run(ctx context.Context, ex Extractor, url string) (result *comics.Extraction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extractor panic: %v", rec)
		}
	}()
	return ex.Extract(ctx, url)
}
