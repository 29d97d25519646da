// Package kvstore provides the external key-value store the panel persists
// into. Two backends are available: a file-per-key store over a hackpadfs
// filesystem (an in-memory filesystem in tests, the OS filesystem in real
// use) and a sqlite table. Both are asynchronous from the caller's point of
// view and both may fail; callers are expected to treat every error as
// recoverable.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	hackos "github.com/hack-pad/hackpadfs/os"
)

// Store is the minimal contract the persistence adapter needs: get a value
// by key, set a value under a key.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// FileStore keeps one file per key under a directory of a hackpadfs
// filesystem.
type FileStore struct {
	fs  hackpadfs.FS
	dir string
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(fsys hackpadfs.FS, dir string) (*FileStore, error) {
	if dir != "" && dir != "." {
		if err := hackpadfs.MkdirAll(fsys, dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

// NewMemStore creates a file store over a fresh in-memory filesystem.
func NewMemStore() (*FileStore, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return NewFileStore(fsys, ".")
}

func (s *FileStore) keyPath(key string) string {
	return path.Join(s.dir, key+".json")
}

// Get reads the value stored under key. ok is false when the key has never
// been written.
func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := hackpadfs.ReadFile(s.fs, s.keyPath(key))
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes value under key, replacing any previous value.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return hackpadfs.WriteFullFile(s.fs, s.keyPath(key), []byte(value), 0644)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

// Open constructs a store for the configured backend. Supported backends:
// "mem", "file" (path is an OS directory), "sqlite" (path is a database
// file).
func Open(backend, osPath string) (Store, error) {
	switch backend {
	case "", "mem":
		return NewMemStore()
	case "file":
		fsys := hackos.NewFS()
		dir, err := fsys.FromOSPath(osPath)
		if err != nil {
			return nil, fmt.Errorf("resolving store path: %w", err)
		}
		return NewFileStore(fsys, dir)
	case "sqlite":
		return NewSQLiteStore(osPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
