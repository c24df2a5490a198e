package list

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/extractors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/store/memory"
)

func TestListCommand(t *testing.T) {
	logging.DisableLoggingForTest(t)

	requests := memory.New()
	requests.Seed("requests.json", []byte(`{"requests": ["https://comics.test/one"]}`))
	client, err := comicmap.New(
		comicmap.WithDataDir(t.TempDir()),
		comicmap.WithRequestsStore(requests, "requests.json"),
		comicmap.WithoutBuiltinExtractors(),
		comicmap.WithExtractors(&extractors.Func{
			ID:    "fake",
			Match: extractors.Contains("comics.test"),
			ExtractFn: func(context.Context, string) (*comics.Extraction, error) {
				return &comics.Extraction{Title: "One", ChapterCount: 4, Genres: []string{"Action"}}, nil
			},
		}),
	)
	require.NoError(t, err)
	_, err = client.Ingest(context.Background())
	require.NoError(t, err)

	app := &appcontext.Mock{
		ClientFunc:       func() (comicmap.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return "json" },
	}

	var buf bytes.Buffer
	cmd := NewCommand(app)
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--genre", "action"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "One", got[0]["title"])
	assert.EqualValues(t, 4, got[0]["chapter_count"])
}

func TestListCommandBadSort(t *testing.T) {
	logging.DisableLoggingForTest(t)

	client, err := comicmap.New(comicmap.WithDataDir(t.TempDir()), comicmap.WithoutBuiltinExtractors())
	require.NoError(t, err)
	app := &appcontext.Mock{ClientFunc: func() (comicmap.Client, error) { return client, nil }}

	cmd := NewCommand(app)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--sort", "rating"})
	err = cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sort")
}
