package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(
		WithAuth(&TokenAuth{}, "abc"),
		WithUserAgent("Mozilla/5.0"),
		WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	)

	var out struct{ OK bool }
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
	assert.Equal(t, "token abc", got.Get("Authorization"))
	assert.Equal(t, "Mozilla/5.0", got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.Equal(t, "2022-11-28", got.Get("X-GitHub-Api-Version"))
}

func TestClientEmptySecretSkipsAuth(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	_, err := New(WithAuth(&BearerAuth{}, "")).GetBytes(context.Background(), srv.URL, "text/html")
	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestGetBytesStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, errors.IsNotFound},
		{"rate limited", http.StatusTooManyRequests, errors.IsRateLimited},
		{"unavailable", http.StatusBadGateway, func(err error) bool { return errors.Is(err, errors.ErrUnavailable) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := New().GetBytes(context.Background(), srv.URL, "")
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected classification: %v", err)

			var fe *errors.FetchError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Contains(t, fe.Message, "nope")
		})
	}
}

func TestTimeoutIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(WithTimeout(50*time.Millisecond)).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err), "got %v", err)
}

func TestCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Get(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsCanceled(err))
}

func TestSendJSON(t *testing.T) {
	var body map[string]string
	var method, ctype string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		ctype = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := New().SendJSON(context.Background(), http.MethodPut, srv.URL, map[string]string{"message": "hi"})
	require.NoError(t, err)
	_, err = ReadBody(resp)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, "hi", body["message"])
}

func TestDecodeResponseBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	var out map[string]any
	err := New().GetJSON(context.Background(), srv.URL, &out)
	var pe *errors.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "json", pe.Format)
}
