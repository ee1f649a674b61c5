// Package kv defines the durable key/value capability behind the
// recent-query store. Backends: an in-memory map, a directory of files,
// or Redis.
package kv

import (
	"context"
	"errors"
)

// Sentinel errors for store operations.
var (
	// ErrKeyNotFound signals a missing key.
	ErrKeyNotFound = errors.New("kv: key not found")
)

// Op constants name store operations for error context.
const (
	OpGet = "GET"
	OpSet = "SET"
	OpDel = "DEL"
)

// Store is a minimal durable key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
