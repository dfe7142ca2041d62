// Package store holds the key-value store shared between the host app and its
// widgets, and the weather cache built on top of it.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("no value stored for key")
)

// Item is a stored value together with its write metadata.
type Item struct {
	Value     []byte
	WrittenAt time.Time
	WriterID  string
}

// KV is a namespaced byte store. Put replaces the whole value; concurrent
// writers race and the last one wins.
type KV interface {
	Get(ctx context.Context, key string) (Item, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
