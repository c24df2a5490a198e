package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo emulates the contents endpoint for a single repository.
type fakeRepo struct {
	mu    sync.Mutex
	files map[string]string // path -> content
	shas  map[string]string
	seq   int
	auth  []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{files: map[string]string{}, shas: map[string]string{}}
}

func (f *fakeRepo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	const prefix = "/repos/acme/comics/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		content, ok := f.files[path]
		if !ok {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		enc := base64.StdEncoding.EncodeToString([]byte(content))
		// GitHub wraps base64 at 60 columns
		var wrapped strings.Builder
		for i := 0; i < len(enc); i += 60 {
			wrapped.WriteString(enc[i:min(i+60, len(enc))])
			wrapped.WriteString("\n")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "file", "encoding": "base64", "content": wrapped.String(),
			"sha": f.shas[path], "size": len(content),
		})
	case http.MethodPut:
		var req putRequest
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &req)
		current, exists := f.shas[path]
		if exists && req.SHA == "" {
			http.Error(w, `{"message":"\"sha\" wasn't supplied."}`, http.StatusUnprocessableEntity)
			return
		}
		if exists && req.SHA != current {
			http.Error(w, `{"message":"does not match"}`, http.StatusConflict)
			return
		}
		content, _ := base64.StdEncoding.DecodeString(req.Content)
		f.seq++
		sha := strings.Repeat(string(rune('a'+f.seq)), 8)
		f.files[path] = string(content)
		f.shas[path] = sha
		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"content": map[string]any{"sha": sha}})
	}
}

func newTestStore(t *testing.T, repo *fakeRepo) *Store {
	t.Helper()
	srv := httptest.NewServer(repo)
	t.Cleanup(srv.Close)
	s, err := New(Config{Repo: "acme/comics", Token: "pat", APIURL: srv.URL})
	require.NoError(t, err)
	return s
}

func TestConfigValidate(t *testing.T) {
	for _, repo := range []string{"", "acme", "/comics", "acme/", "a/b/c"} {
		_, err := New(Config{Repo: repo})
		assert.True(t, errors.IsValidationError(err), repo)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t, newFakeRepo())
	_, err := s.Get(context.Background(), "output/comics.json")
	assert.True(t, errors.IsNotFound(err))
}

func TestCreateUpdateConflict(t *testing.T) {
	repo := newFakeRepo()
	s := newTestStore(t, repo)
	ctx := context.Background()
	doc := strings.Repeat(`{"title":"나 혼자만 레벨업"},`, 10)

	v1, err := s.Put(ctx, "output/comics.json", []byte(doc), "")
	require.NoError(t, err)
	require.NotEmpty(t, v1)

	blob, err := s.Get(ctx, "output/comics.json")
	require.NoError(t, err)
	assert.Equal(t, doc, string(blob.Data))
	assert.Equal(t, v1, blob.Version)

	v2, err := s.Put(ctx, "output/comics.json", []byte("[]"), v1)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	_, err = s.Put(ctx, "output/comics.json", []byte("[1]"), v1)
	assert.True(t, errors.IsConflict(err), "stale sha: %v", err)

	_, err = s.Put(ctx, "output/comics.json", []byte("[1]"), "")
	assert.True(t, errors.IsConflict(err), "create over existing: %v", err)

	for _, h := range repo.auth {
		assert.Equal(t, "token pat", h)
	}
}

func TestPutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	s, err := New(Config{Repo: "acme/comics", APIURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "x.json", []byte("[]"), "")
	require.Error(t, err)
	assert.False(t, errors.IsConflict(err))
	assert.ErrorIs(t, err, errors.ErrUnavailable)
}

func TestGetLargeFileUsesDownloadURL(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/repos/acme/comics/contents/big.json", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type": "file", "encoding": "none", "content": "", "sha": "bigsha", "size": 2 << 20,
			"download_url": srvURL + "/raw/big.json",
		})
	})
	mux.HandleFunc("/raw/big.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"source":"a"}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	s, err := New(Config{Repo: "acme/comics", APIURL: srv.URL, Branch: "main"})
	require.NoError(t, err)

	blob, err := s.Get(context.Background(), "big.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"source":"a"}]`, string(blob.Data))
	assert.Equal(t, "bigsha", blob.Version)
}

func TestContentsURL(t *testing.T) {
	s, err := New(Config{Repo: "acme/comics", Branch: "feature/x", APIURL: "https://gh.example/"})
	require.NoError(t, err)
	assert.Equal(t,
		"https://gh.example/repos/acme/comics/contents/output/my%20comics.json?ref=feature%2Fx",
		s.contentsURL("/output/my comics.json"))
}
