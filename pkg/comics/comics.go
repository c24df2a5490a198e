// Package comics defines the tracked comic record, the extraction result produced
// by extractors, and the JSON codec for the persisted collection.
//
// Decoding is tolerant of legacy documents: timestamps may be missing, chapter
// counts may be strings or null, and malformed entries are dropped with a warning.
// Everything past the decoder sees one canonical shape.
package comics

import (
	"slices"
	"time"

	"github.com/agentstation/utc"
)

// Record is one tracked series. Source is the unique key within a Collection.
type Record struct {
	Title        string   `json:"title"`
	ChapterCount int      `json:"chapter_count"`
	Genres       []string `json:"genres"`
	Source       string   `json:"source"`
	ThumbnailURL *string  `json:"thumbnail_url"`
	CreatedAt    utc.Time `json:"created_at"`
	UpdatedAt    utc.Time `json:"updated_at"`
}

// Extraction is the metadata an extractor returns for a single URL.
// It is never persisted directly.
type Extraction struct {
	Title        string
	ChapterCount int
	Genres       []string
	Source       string  // defaults to the requested URL when empty
	ThumbnailURL *string // nil when the page has no cover
}

// NewRecord builds a first-seen record from an extraction.
// Both timestamps are set to now.
func NewRecord(url string, ex *Extraction, now utc.Time) Record {
	r := Record{CreatedAt: now, UpdatedAt: now}
	r.apply(url, ex)
	return r
}

// WithExtraction returns a copy of r with the extracted fields applied. The
// source and timestamps are left untouched and a missing thumbnail keeps the
// previous one.
func (r Record) WithExtraction(ex *Extraction) Record {
	next := r
	next.apply(r.Source, ex)
	next.Source = r.Source
	if next.ThumbnailURL == nil {
		next.ThumbnailURL = r.ThumbnailURL
	}
	return next
}

func (r *Record) apply(url string, ex *Extraction) {
	r.Title = ex.Title
	r.ChapterCount = max(ex.ChapterCount, 0)
	r.Genres = slices.Clone(ex.Genres)
	if r.Genres == nil {
		r.Genres = []string{}
	}
	r.Source = ex.Source
	if r.Source == "" {
		r.Source = url
	}
	r.ThumbnailURL = ex.ThumbnailURL
}

// Backfill fills absent timestamps: created_at becomes now and updated_at
// becomes created_at. It reports whether anything changed.
func (r *Record) Backfill(now utc.Time) bool {
	changed := false
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
		changed = true
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
		changed = true
	}
	return changed
}

// Thumbnail returns the thumbnail URL or an empty string.
func (r Record) Thumbnail() string {
	if r.ThumbnailURL == nil {
		return ""
	}
	return *r.ThumbnailURL
}

// Collection is the ordered set of tracked records.
type Collection []Record

// Index maps each source to its position in the collection.
func (c Collection) Index() map[string]int {
	idx := make(map[string]int, len(c))
	for i, r := range c {
		idx[r.Source] = i
	}
	return idx
}

// Contains reports whether a record with the given source exists.
func (c Collection) Contains(source string) bool {
	return slices.ContainsFunc(c, func(r Record) bool { return r.Source == source })
}

// Find returns the record for source.
func (c Collection) Find(source string) (Record, bool) {
	i := slices.IndexFunc(c, func(r Record) bool { return r.Source == source })
	if i < 0 {
		return Record{}, false
	}
	return c[i], true
}

// Backfill applies Record.Backfill to every record.
func (c Collection) Backfill(now utc.Time) bool {
	changed := false
	for i := range c {
		if c[i].Backfill(now) {
			changed = true
		}
	}
	return changed
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, r := range c {
		r.Genres = slices.Clone(r.Genres)
		if r.ThumbnailURL != nil {
			thumb := *r.ThumbnailURL
			r.ThumbnailURL = &thumb
		}
		out[i] = r
	}
	return out
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}

// Timestamp converts t to a UTC timestamp.
func Timestamp(t time.Time) utc.Time {
	return utc.Time{Time: t.UTC()}
}
