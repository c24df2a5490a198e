// Package memory provides an in-process store.Store, used for tests and dry runs.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/agentstation/comicmap/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps blobs in a map. Versions are monotonically increasing integers.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]entry
	seq   int
	puts  int
	getErr error
	putErr error
}

type entry struct {
	data    []byte
	version string
}

// New returns an empty store.
func New() *Store {
	return &Store{blobs: make(map[string]entry)}
}

// Seed stores data at key bypassing version checks and returns the new version.
func (s *Store) Seed(key string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storeLocked(key, data)
}

// FailWith makes subsequent Get and Put calls return the given errors.
// Passing nil restores normal behavior.
func (s *Store) FailWith(getErr, putErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = getErr
	s.putErr = putErr
}

// Get implements store.Reader.
func (s *Store) Get(ctx context.Context, key string) (*store.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.blobs[key]
	if !ok {
		return nil, errors.NewNotFoundError("blob", key)
	}
	return &store.Blob{Key: key, Data: slices.Clone(e.data), Version: e.version}, nil
}

// Put implements store.Writer.
func (s *Store) Put(ctx context.Context, key string, data []byte, version string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return "", s.putErr
	}
	if version != "" {
		e, ok := s.blobs[key]
		if !ok || e.version != version {
			return "", errors.NewConflictError(key, version, nil)
		}
	}
	s.puts++
	return s.storeLocked(key, data), nil
}

// Puts returns how many successful writes the store has accepted.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

func (s *Store) storeLocked(key string, data []byte) string {
	s.seq++
	v := strconv.Itoa(s.seq)
	s.blobs[key] = entry{data: slices.Clone(data), version: v}
	return v
}
