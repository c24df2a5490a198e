package comics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agentstation/comicmap/pkg/errors"
)

// Sort keys accepted by Query.
const (
	SortTitle    = "title"
	SortChapters = "chapters"
	SortUpdated  = "updated"
)

// Query selects and orders records for display. The zero Query returns the
// collection in stored order.
type Query struct {
	Sort  string // title, chapters (most first) or updated (newest first)
	Genre string // case-insensitive genre match
	Limit int    // 0 means no limit
}

// Query returns a filtered, sorted copy of c. The receiver is not modified.
func (c Collection) Query(q Query) (Collection, error) {
	if q.Limit < 0 {
		return nil, &errors.ValidationError{Field: "limit", Value: q.Limit, Message: "must not be negative"}
	}

	out := c.Clone()
	if q.Genre != "" {
		out = slices.DeleteFunc(out, func(r Record) bool {
			return !slices.ContainsFunc(r.Genres, func(g string) bool {
				return strings.EqualFold(g, q.Genre)
			})
		})
	}

	switch strings.ToLower(q.Sort) {
	case "":
	case SortTitle:
		slices.SortStableFunc(out, func(a, b Record) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case SortChapters:
		slices.SortStableFunc(out, func(a, b Record) int {
			return cmp.Compare(b.ChapterCount, a.ChapterCount)
		})
	case SortUpdated:
		slices.SortStableFunc(out, func(a, b Record) int {
			return b.UpdatedAt.Time.Compare(a.UpdatedAt.Time)
		})
	default:
		return nil, &errors.ValidationError{
			Field:   "sort",
			Value:   q.Sort,
			Message: "must be one of: title, chapters, updated",
		}
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}
