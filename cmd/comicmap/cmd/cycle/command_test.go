package cycle

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/comicmap"
	"github.com/agentstation/comicmap/internal/appcontext"
	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/extractors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/store/memory"
)

func newApp(t *testing.T, format string) (*appcontext.Mock, *memory.Store) {
	t.Helper()
	logging.DisableLoggingForTest(t)

	requests := memory.New()
	ex := &extractors.Func{
		ID:    "fake",
		Match: extractors.Contains("comics.test"),
		ExtractFn: func(_ context.Context, url string) (*comics.Extraction, error) {
			if url == "https://comics.test/broken" {
				return nil, errors.NewFetchError(url, 500, "boom")
			}
			return &comics.Extraction{Title: "Tower", ChapterCount: 12}, nil
		},
	}
	client, err := comicmap.New(
		comicmap.WithDataDir(t.TempDir()),
		comicmap.WithRequestsStore(requests, "requests.json"),
		comicmap.WithoutBuiltinExtractors(),
		comicmap.WithExtractors(ex),
	)
	require.NoError(t, err)

	return &appcontext.Mock{
		ClientFunc:       func() (comicmap.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	}, requests
}

func execute(t *testing.T, cmd *cobra.Command) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestIngestCommandTable(t *testing.T) {
	app, requests := newApp(t, "table")
	requests.Seed("requests.json", []byte(`{"requests": ["https://comics.test/tower", "https://comics.test/broken"]}`))

	out, err := execute(t, NewIngestCommand(app))
	require.NoError(t, err)
	assert.Contains(t, out, "https://comics.test/tower")
	assert.Contains(t, out, "Tower")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "ingest: 1 added, 1 failed")
}

func TestIngestCommandJSON(t *testing.T) {
	app, requests := newApp(t, "json")
	requests.Seed("requests.json", []byte(`{"requests": ["https://comics.test/tower"]}`))

	out, err := execute(t, NewIngestCommand(app))
	require.NoError(t, err)

	var rep Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "ingest", rep.Cycle)
	assert.Equal(t, []string{"https://comics.test/tower"}, rep.Added)
	assert.Empty(t, rep.Failed)
	assert.True(t, rep.Saved)
	assert.False(t, rep.Pushed)
}

func TestRefreshCommandNoChanges(t *testing.T) {
	app, requests := newApp(t, "table")
	requests.Seed("requests.json", []byte(`{"requests": ["https://comics.test/tower"]}`))

	_, err := execute(t, NewIngestCommand(app))
	require.NoError(t, err)

	out, err := execute(t, NewRefreshCommand(app))
	require.NoError(t, err)
	assert.Contains(t, out, "refresh:")
	assert.NotContains(t, out, "->")
}

func TestCommandClientError(t *testing.T) {
	app := &appcontext.Mock{
		ClientFunc: func() (comicmap.Client, error) {
			return nil, errors.NewConfigError("github", "token required", nil)
		},
	}
	_, err := execute(t, NewRefreshCommand(app))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token required")
}
