// Package requests keeps the local copy of the tracked source list in step
// with the canonical remote list.
package requests

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/agentstation/comicmap/pkg/comics"
	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/logging"
	"github.com/agentstation/comicmap/pkg/store"
)

// LocalFile is the durable local copy of the list.
type LocalFile interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Synchronizer pulls the remote request list into a local file.
type Synchronizer struct {
	remote store.Reader
	key    string
	local  LocalFile

	mu   sync.Mutex
	last []string // last list that parsed, used when the local file is an opaque cache
}

// NewSynchronizer returns a synchronizer reading key from remote. A nil remote
// makes Sync serve the local file alone.
func NewSynchronizer(remote store.Reader, key string, local LocalFile) *Synchronizer {
	return &Synchronizer{remote: remote, key: key, local: local}
}

// Sync fetches the remote list and returns the sources to track.
//
// A fetch failure leaves the local file untouched and returns the local list.
// A document that is not a list, nor an object wrapping one under "requests",
// is cached locally byte for byte and the previous list is returned. The
// returned error only reports a failed local write; the list is usable either way.
func (s *Synchronizer) Sync(ctx context.Context) ([]string, error) {
	ctx = logging.WithStage(ctx, logging.StageSync)
	log := logging.FromContext(ctx)
	if s.remote == nil {
		return s.Local(ctx), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, constants.RequestListTimeout)
	blob, err := s.remote.Get(fetchCtx, s.key)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("Request list fetch failed, using local copy")
		return s.Local(ctx), nil
	}

	list, perr := Normalize(blob.Data)
	if perr != nil {
		prev := s.Local(ctx)
		log.Warn().Err(perr).Str("key", s.key).Msg("Request list is not a list, caching raw document")
		if err := s.local.Write(ctx, blob.Data); err != nil {
			return prev, err
		}
		return prev, nil
	}

	s.remember(list)
	data, err := comics.MarshalIndent(list)
	if err != nil {
		return list, err
	}
	if err := s.local.Write(ctx, data); err != nil {
		log.Error().Err(err).Msg("Failed to write local request list")
		return list, err
	}
	log.Debug().Int("sources", len(list)).Msg("Request list synced")
	return list, nil
}

// Local returns the list from the local file, or the last good list when the
// file is missing or holds an unparseable cached document.
func (s *Synchronizer) Local(ctx context.Context) []string {
	data, err := s.local.Read(ctx)
	if err != nil {
		if !errors.IsNotFound(err) {
			logging.FromContext(ctx).Warn().Err(err).Msg("Failed to read local request list")
		}
		return s.lastList()
	}
	list, err := Normalize(data)
	if err != nil {
		return s.lastList()
	}
	s.remember(list)
	return list
}

func (s *Synchronizer) remember(list []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append([]string(nil), list...)
}

func (s *Synchronizer) lastList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.last...)
}

// Normalize parses a request list document. Both a bare array and an object
// with a "requests" array are accepted. Entries that are not non-empty strings
// are skipped and duplicates keep their first position.
func Normalize(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []string{}, nil
	}

	var items []any
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, errors.WrapParse("json", constants.RequestsFile, err)
		}
	case '{':
		var wrapper struct {
			Requests []any `json:"requests"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, errors.WrapParse("json", constants.RequestsFile, err)
		}
		if wrapper.Requests == nil {
			return nil, errors.NewParseError("json", constants.RequestsFile, `object has no "requests" array`, nil)
		}
		items = wrapper.Requests
	default:
		return nil, errors.NewParseError("json", constants.RequestsFile, "expected array or object", nil)
	}

	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		u, ok := item.(string)
		if !ok {
			continue
		}
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out, nil
}
