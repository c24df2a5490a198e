package output

import (
	"io"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/comicmap/internal/cmd/table"
	"github.com/agentstation/comicmap/pkg/comics"
)

// record is the structured (json/yaml) view of a comics.Record.
type record struct {
	Title        string   `json:"title" yaml:"title"`
	ChapterCount int      `json:"chapter_count" yaml:"chapter_count"`
	Genres       []string `json:"genres" yaml:"genres"`
	Source       string   `json:"source" yaml:"source"`
	ThumbnailURL *string  `json:"thumbnail_url" yaml:"thumbnail_url"`
	CreatedAt    string   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func timestamp(t utc.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Time.UTC().Format(time.RFC3339Nano)
}

// FormatCollection writes c to w in the given format.
func FormatCollection(w io.Writer, c comics.Collection, format Format) error {
	formatter := NewFormatter(format)

	switch format {
	case FormatTable, FormatWide, "":
		return formatter.Format(w, table.CollectionToTableData(c, format == FormatWide))
	}

	out := make([]record, 0, len(c))
	for _, r := range c {
		genres := r.Genres
		if genres == nil {
			genres = []string{}
		}
		out = append(out, record{
			Title:        r.Title,
			ChapterCount: r.ChapterCount,
			Genres:       genres,
			Source:       r.Source,
			ThumbnailURL: r.ThumbnailURL,
			CreatedAt:    timestamp(r.CreatedAt),
			UpdatedAt:    timestamp(r.UpdatedAt),
		})
	}
	return formatter.Format(w, out)
}
