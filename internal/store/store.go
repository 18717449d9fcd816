// Package store defines the durable key-value substrate the state
// controller writes through to, and its implementations.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Entry is one persisted key and its encoded value.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a key-value persistence surface scoped to one controller
// instance. Every implementation is durable once a call returns nil.
type Store interface {
	// List returns every entry in the scope, in no particular order.
	List(ctx context.Context) ([]Entry, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// PutMany writes all entries atomically: either every entry is
	// durable or none is.
	PutMany(ctx context.Context, entries []Entry) error
	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// DeleteMany removes keys in one batch and returns how many existed.
	DeleteMany(ctx context.Context, keys []string) (int, error)

	// Lifecycle
	Close() error
}
