package extractors

import (
	"context"
	"strings"

	"github.com/agentstation/comicmap/pkg/comics"
)

// Func adapts plain functions to the Extractor interface.
type Func struct {
	ID        string
	Match     func(url string) bool
	ExtractFn func(ctx context.Context, url string) (*comics.Extraction, error)
}

// Name implements Extractor.
func (f *Func) Name() string { return f.ID }

// CanHandle implements Extractor.
func (f *Func) CanHandle(url string) bool { return f.Match != nil && f.Match(url) }

// Extract implements Extractor.
func (f *Func) Extract(ctx context.Context, url string) (*comics.Extraction, error) {
	return f.ExtractFn(ctx, url)
}

// Contains returns a predicate matching URLs that contain any of the fragments.
func Contains(fragments ...string) func(string) bool {
	return func(url string) bool {
		for _, frag := range fragments {
			if strings.Contains(url, frag) {
				return true
			}
		}
		return false
	}
}
