package requests_test

import (
	"context"
	"os"
	"testing"

	"github.com/agentstation/comicmap/internal/mirror"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/requests"
	"github.com/agentstation/comicmap/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const key = "requests.json"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{"bare array", `["a", "b"]`, []string{"a", "b"}, false},
		{"wrapped", `{"requests": ["a", "b"]}`, []string{"a", "b"}, false},
		{"skips non-strings", `["a", 1, null, {"u": "x"}, "", "  b  "]`, []string{"a", "b"}, false},
		{"dedups", `["a", "b", "a"]`, []string{"a", "b"}, false},
		{"empty document", ``, []string{}, false},
		{"empty array", `[]`, []string{}, false},
		{"object without requests", `{"urls": ["a"]}`, nil, true},
		{"wrapped non-array", `{"requests": "a"}`, nil, true},
		{"scalar", `"a"`, nil, true},
		{"garbage", `<html>`, nil, true},
		{"truncated", `["a",`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := requests.Normalize([]byte(tt.in))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setup(t *testing.T) (*memory.Store, *mirror.File, *requests.Synchronizer) {
	t.Helper()
	logging.DisableLoggingForTest(t)
	remote := memory.New()
	local := mirror.New(t.TempDir(), "requests.json")
	return remote, local, requests.NewSynchronizer(remote, key, local)
}

func TestSyncWrappedListNormalizesLocalCopy(t *testing.T) {
	remote, local, sync := setup(t)
	ctx := context.Background()
	remote.Seed(key, []byte(`{"requests": ["https://asuracomic.net/series/a", 5]}`))

	list, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://asuracomic.net/series/a"}, list)

	data, err := os.ReadFile(local.Path())
	require.NoError(t, err)
	assert.Equal(t, "[\n    \"https://asuracomic.net/series/a\"\n]\n", string(data))
}

func TestSyncFetchFailureKeepsLocal(t *testing.T) {
	remote, local, sync := setup(t)
	ctx := context.Background()
	require.NoError(t, local.Write(ctx, []byte(`["a","b"]`)))
	remote.FailWith(errors.NewFetchError("u", 503, "down"), nil)

	list, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	data, err := os.ReadFile(local.Path())
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(data), "local file must not be rewritten")
}

func TestSyncMissingRemoteAndLocal(t *testing.T) {
	_, _, sync := setup(t)
	list, err := sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSyncUnparseableCachesRawAndReturnsPrevious(t *testing.T) {
	remote, local, sync := setup(t)
	ctx := context.Background()

	remote.Seed(key, []byte(`["a"]`))
	list, err := sync.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, list)

	raw := []byte("<!DOCTYPE html><p>rate limited</p>")
	remote.Seed(key, raw)

	list, err = sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list)

	data, err := os.ReadFile(local.Path())
	require.NoError(t, err)
	assert.Equal(t, raw, data, "raw document is cached unmodified")

	// still served from memory while the local copy is opaque
	remote.FailWith(errors.NewFetchError("u", 0, "offline"), nil)
	list, err = sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list)
}

func TestLocalReadsExistingFile(t *testing.T) {
	_, local, sync := setup(t)
	ctx := context.Background()
	require.NoError(t, local.Write(ctx, []byte(`{"requests": ["x"]}`)))
	assert.Equal(t, []string{"x"}, sync.Local(ctx))
}

func TestSyncWithoutRemoteServesLocal(t *testing.T) {
	logging.DisableLoggingForTest(t)
	ctx := context.Background()
	local := mirror.New(t.TempDir(), "requests.json")
	require.NoError(t, local.Write(ctx, []byte(`["a", "a", "b"]`)))

	list, err := requests.NewSynchronizer(nil, "", local).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)
}
