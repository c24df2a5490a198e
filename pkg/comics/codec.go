package comics

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/utc"
)

// timestamp layouts accepted on decode, most specific first
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

type wireRecord struct {
	Title        string       `json:"title"`
	ChapterCount chapterCount `json:"chapter_count"`
	Genres       []string     `json:"genres"`
	Source       string       `json:"source"`
	ThumbnailURL *string      `json:"thumbnail_url"`
	CreatedAt    *string      `json:"created_at"`
	UpdatedAt    *string      `json:"updated_at"`
}

// MarshalJSON writes timestamps as RFC 3339 UTC strings and genres as an
// array even when empty.
func (r Record) MarshalJSON() ([]byte, error) {
	w := wireRecord{
		Title:        r.Title,
		ChapterCount: chapterCount(r.ChapterCount),
		Genres:       r.Genres,
		Source:       r.Source,
		ThumbnailURL: r.ThumbnailURL,
		CreatedAt:    formatTimestamp(r.CreatedAt),
		UpdatedAt:    formatTimestamp(r.UpdatedAt),
	}
	if w.Genres == nil {
		w.Genres = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts legacy records. Unparseable or absent timestamps decode
// as zero and are filled by Backfill.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Record{
		Title:        w.Title,
		ChapterCount: int(w.ChapterCount),
		Genres:       w.Genres,
		Source:       strings.TrimSpace(w.Source),
		ThumbnailURL: w.ThumbnailURL,
		CreatedAt:    parseTimestamp(w.CreatedAt),
		UpdatedAt:    parseTimestamp(w.UpdatedAt),
	}
	if r.Genres == nil {
		r.Genres = []string{}
	}
	return nil
}

// chapterCount decodes numbers, numeric strings and null. Null and garbage are 0.
type chapterCount int

func (c chapterCount) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(c), 10), nil
}

func (c *chapterCount) UnmarshalJSON(data []byte) error {
	*c = 0
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch n := v.(type) {
	case float64:
		*c = chapterCount(max(int(n), 0))
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			*c = chapterCount(max(int(f), 0))
		}
	}
	return nil
}

func formatTimestamp(t utc.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Time.UTC().Format(time.RFC3339Nano)
	return &s
}

func parseTimestamp(s *string) utc.Time {
	if s == nil || strings.TrimSpace(*s) == "" {
		return utc.Time{}
	}
	v := strings.TrimSpace(*s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Timestamp(t)
		}
	}
	return utc.Time{}
}

// Decode parses a collection document. The top level must be a JSON array.
// Entries that are not objects, fail to decode, or have no source are dropped;
// later duplicates of a source are dropped in favor of the first occurrence.
func Decode(data []byte) (Collection, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Collection{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapParse("json", constants.CollectionFile, err)
	}

	out := make(Collection, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			logging.Warn().Int("index", i).Msg("Dropping collection entry that is not an object")
			continue
		}
		var r Record
		if err := json.Unmarshal(item, &r); err != nil {
			logging.Warn().Err(err).Int("index", i).Msg("Dropping malformed collection entry")
			continue
		}
		if r.Source == "" {
			logging.Warn().Int("index", i).Str("title", r.Title).Msg("Dropping collection entry without source")
			continue
		}
		if _, dup := seen[r.Source]; dup {
			logging.Warn().Int("index", i).Str("source", r.Source).Msg("Dropping duplicate source")
			continue
		}
		seen[r.Source] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// Encode renders the collection as an indented UTF-8 JSON array.
func Encode(c Collection) ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return MarshalIndent(c)
}

// MarshalIndent renders v with the document indentation used on disk and remotely.
// HTML characters and non-ASCII text are written as-is.
func MarshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", constants.JSONIndent)
	if err := enc.Encode(v); err != nil {
		return nil, errors.WrapParse("json", "", err)
	}
	return buf.Bytes(), nil
}
