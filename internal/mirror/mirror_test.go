package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissing(t *testing.T) {
	f := New(t.TempDir(), "comics.json")
	_, err := f.Read(context.Background())
	assert.True(t, errors.IsNotFound(err))
	assert.False(t, f.Exists())
}

func TestWriteCreatesDirAndReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	f := New(dir, "comics.json")
	ctx := context.Background()

	require.NoError(t, f.Write(ctx, []byte("[]\n")))
	require.NoError(t, f.Write(ctx, []byte(`[{"source":"a"}]`)))

	data, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"source":"a"}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestWriteIfMissing(t *testing.T) {
	f := New(t.TempDir(), "requests.json")
	ctx := context.Background()

	created, err := f.WriteIfMissing(ctx, []byte("[]"))
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, f.Write(ctx, []byte(`["a"]`)))
	created, err = f.WriteIfMissing(ctx, []byte("[]"))
	require.NoError(t, err)
	assert.False(t, created)

	data, err := f.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(data))
}

func TestConcurrentWritersNeverTear(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	payloads := []string{`["aaaaaaaaaaaaaaaa"]`, `["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"]`}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// separate handles mimic separate processes sharing the lock file
			f := New(dir, "comics.json")
			assert.NoError(t, f.Write(ctx, []byte(payloads[i%2])))
		}(i)
	}
	wg.Wait()

	data, err := New(dir, "comics.json").Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, payloads, string(data))
}

func TestLockTimeoutHonorsContext(t *testing.T) {
	dir := t.TempDir()
	holder := New(dir, "comics.json")
	ok, err := holder.lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = holder.lock.Unlock() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = New(dir, "comics.json").Write(ctx, []byte("[]"))
	require.Error(t, err)
	var ioErr *errors.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "lock", ioErr.Operation)
}
