package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/comicmap/pkg/comics"
)

func sample() comics.Collection {
	ts := comics.Timestamp(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	return comics.Collection{
		{
			Title:        "Solo Leveling",
			ChapterCount: 200,
			Genres:       []string{"Action", "Fantasy"},
			Source:       "https://asuracomic.net/series/solo?x=1&y=2",
			ThumbnailURL: comics.String("https://img/solo.webp"),
			CreatedAt:    ts,
			UpdatedAt:    ts,
		},
		{Title: "Untimed", Source: "https://mangadex.org/title/abc"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"table", "JSON", "yaml", "wide", ""} {
		_, err := ParseFormat(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestFormatCollectionTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCollection(&buf, sample(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "Solo Leveling")
	assert.Contains(t, out, "Action, Fantasy")
	assert.Contains(t, out, "2024-05-01 12:30")
	assert.NotContains(t, out, "solo.webp")

	buf.Reset()
	require.NoError(t, FormatCollection(&buf, sample(), FormatWide))
	assert.Contains(t, buf.String(), "https://img/solo.webp")
}

func TestFormatCollectionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCollection(&buf, sample(), FormatJSON))

	out := buf.String()
	assert.Contains(t, out, `"chapter_count": 200`)
	assert.Contains(t, out, `"created_at": "2024-05-01T12:30:00Z"`)
	assert.Contains(t, out, "x=1&y=2")
	assert.Contains(t, out, `"thumbnail_url": null`)
	assert.Contains(t, out, `"genres": []`)
}

func TestFormatCollectionYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCollection(&buf, sample(), FormatYAML))

	out := buf.String()
	assert.Contains(t, out, "title: Solo Leveling")
	assert.Contains(t, out, "chapter_count: 200")
	assert.NotContains(t, out, "created_at: \"\"")
}

func TestTableFormatterStruct(t *testing.T) {
	info := struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}{"1.2.3", "go1.24"}

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, info))
	assert.Contains(t, buf.String(), "Go Version")
	assert.Contains(t, buf.String(), "1.2.3")
}
