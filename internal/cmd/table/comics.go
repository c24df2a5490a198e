// Package table converts domain values into rows for CLI table output.
package table

import (
	"strconv"
	"strings"

	"github.com/agentstation/utc"

	"github.com/agentstation/comicmap/pkg/comics"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// CollectionToTableData converts records to table format. Wide adds the
// thumbnail and creation time.
func CollectionToTableData(c comics.Collection, wide bool) Data {
	headers := []string{"Title", "Chapters", "Genres", "Updated", "Source"}
	align := []Align{AlignLeft, AlignRight, AlignLeft, AlignLeft, AlignLeft}
	if wide {
		headers = append(headers, "Created", "Thumbnail")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(c))
	for _, r := range c {
		row := []string{
			dash(r.Title),
			strconv.Itoa(r.ChapterCount),
			dash(strings.Join(r.Genres, ", ")),
			FormatTime(r.UpdatedAt),
			r.Source,
		}
		if wide {
			row = append(row, FormatTime(r.CreatedAt), dash(r.Thumbnail()))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// FormatTime renders a timestamp in UTC to the minute, or "-" when unset.
func FormatTime(t utc.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Time.UTC().Format("2006-01-02 15:04")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
