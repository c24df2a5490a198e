// Package raw provides a read-only store.Reader over plain HTTPS, used for
// documents published as static files such as a raw.githubusercontent.com URL.
package raw

import (
	"context"
	"net/http"
	"strings"

	"github.com/agentstation/comicmap/internal/transport"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store resolves keys against a base URL. Absolute http(s) keys are fetched as-is.
type Store struct {
	baseURL string
	client  *transport.Client
}

// New returns a raw store rooted at baseURL, which may be empty when every key
// is an absolute URL.
func New(baseURL string, opts ...transport.Option) *Store {
	base := []transport.Option{transport.WithTimeout(constants.RequestListTimeout)}
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  transport.New(append(base, opts...)...),
	}
}

// URL returns the address a key resolves to.
func (s *Store) URL(key string) string {
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

// Get implements store.Reader. The ETag header, when present, becomes the version.
func (s *Store) Get(ctx context.Context, key string) (*store.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(key), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", key, err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	etag := resp.Header.Get("ETag")
	data, err := transport.ReadBody(resp)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("blob", key)
		}
		return nil, err
	}
	return &store.Blob{Key: key, Data: data, Version: etag}, nil
}

// Put always fails; published files are maintained outside comicmap.
func (s *Store) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	return "", errors.NewResourceError("put", "blob", key, errors.ErrReadOnly)
}
