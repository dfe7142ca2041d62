package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryKV is a concurrency-safe in-memory KV. The host app uses it as a
// process-local mirror of the shared store, and tests use it directly.
type MemoryKV struct {
	mu sync.RWMutex

	// key: namespaced key, value: latest item
	data map[string]Item

	writerID string
	// maxAge drops items older than this on read; zero keeps them forever.
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryKV creates a new MemoryKV. If maxAge is <= 0, items never expire.
func NewMemoryKV(maxAge time.Duration) *MemoryKV {
	return &MemoryKV{
		data:     make(map[string]Item),
		writerID: uuid.NewString(),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Get returns the latest item stored under key.
func (s *MemoryKV) Get(_ context.Context, key string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.data[key]
	if !ok {
		return Item{}, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(item.WrittenAt) > s.maxAge {
		return Item{}, ErrNotFound
	}
	item.Value = append([]byte(nil), item.Value...)
	return item, nil
}

// Put replaces the value stored under key.
func (s *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = Item{
		Value:     append([]byte(nil), value...),
		WrittenAt: s.now(),
		WriterID:  s.writerID,
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *MemoryKV) Close() error {
	return nil
}
