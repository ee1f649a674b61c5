// Package file provides a kv.Store backed by one file per key under a
// directory, for durable client-side state without a database.
package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelorus-marine/spyglass/internal/kv"
)

// Compile-time check: Store implements kv.Store.
var _ kv.Store = (*Store)(nil)

// Store persists each key as a file named by the key's sha256 hex digest,
// so arbitrary key strings never reach the filesystem.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a file-backed store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kv.ErrKeyNotFound
		}
		return nil, &kv.Error{Op: kv.OpGet, Err: err}
	}
	return data, nil
}

// Set stores a value at the given key. The write goes through a temp file
// and rename so a crash never leaves a torn value.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".kv-*")
	if err != nil {
		return &kv.Error{Op: kv.OpSet, Err: err}
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &kv.Error{Op: kv.OpSet, Err: err}
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &kv.Error{Op: kv.OpSet, Err: err}
	}
	if err = os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return &kv.Error{Op: kv.OpSet, Err: err}
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return &kv.Error{Op: kv.OpDel, Err: err}
	}
	return nil
}

func (s *Store) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(s.dir, hex.EncodeToString(h[:]))
}
