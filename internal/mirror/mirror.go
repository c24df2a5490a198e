// Package mirror keeps the local durable copies of the request list and the
// collection. Writes replace the whole file atomically and are serialized
// across processes with an advisory file lock.
package mirror

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/agentstation/comicmap/pkg/constants"
	"github.com/agentstation/comicmap/pkg/errors"
	"github.com/gofrs/flock"
)

// File is one mirrored document.
type File struct {
	path string

	// mu serializes users of this handle; lock serializes processes.
	mu   sync.Mutex
	lock *flock.Flock
}

// New returns the mirror file name inside dir. The directory is not created.
func New(dir, name string) *File {
	path := filepath.Join(dir, name)
	return &File{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the file is present.
func (f *File) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Read returns the file contents. A missing file is reported as errors.ErrNotFound.
func (f *File) Read(ctx context.Context) ([]byte, error) {
	unlock, err := f.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("mirror", f.path)
		}
		return nil, errors.WrapIO("read", f.path, err)
	}
	return data, nil
}

// Write replaces the file contents via a temporary file and rename.
func (f *File) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	unlock, err := f.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.WrapIO("sync", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.WrapIO("close", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		cleanup()
		return errors.WrapIO("chmod", tmpPath, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		cleanup()
		return errors.WrapIO("rename", f.path, err)
	}
	return nil
}

// WriteIfMissing creates the file with data unless it already exists.
// It reports whether the file was created.
func (f *File) WriteIfMissing(ctx context.Context, data []byte) (bool, error) {
	if f.Exists() {
		return false, nil
	}
	if err := f.Write(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

func (f *File) acquire(ctx context.Context, exclusive bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(f.path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(f.path), err)
	}

	f.mu.Lock()
	ctx, cancel := context.WithTimeout(ctx, constants.LockTimeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = f.lock.TryLockContext(ctx, constants.LockRetryDelay)
	} else {
		ok, err = f.lock.TryRLockContext(ctx, constants.LockRetryDelay)
	}
	if err != nil {
		f.mu.Unlock()
		return nil, errors.WrapIO("lock", f.lock.Path(), err)
	}
	if !ok {
		f.mu.Unlock()
		return nil, errors.NewIOError("lock", f.lock.Path(), errors.ErrTimeout)
	}
	return func() {
		_ = f.lock.Unlock()
		f.mu.Unlock()
	}, nil
}
