package kv

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// MemoryStore keeps values in process memory.
// quota bounds the total size of the stored values (0: unlimited, core.RejectAllWrites: read-only).
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	quota  int64
}

var _ core.KVStore = (*MemoryStore)(nil)

func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte), quota: quota}
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, errors.Wrap(core.ErrKeyNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var used int64
	for k, v := range s.values {
		if k != key {
			used += int64(len(v))
		}
	}
	if !fits(s.quota, used, len(value)) {
		return errors.Wrap(core.ErrStorageFull, key)
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// SetQuota changes the quota applied to later writes.
func (s *MemoryStore) SetQuota(quota int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quota = quota
}

// fits reports whether a value of size n can be written next to used bytes under quota.
func fits(quota, used int64, n int) bool {
	switch {
	case quota == core.RejectAllWrites:
		return false
	case quota <= 0:
		return true
	}
	return used+int64(n) <= quota
}
