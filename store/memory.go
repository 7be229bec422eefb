package store

import (
	"context"
	"sync"

	"github.com/UlicaLi/recommend-system/core"
)

// MemoryStore 是内存实现的 ListStore，用于测试与本地开发。
// TTL 不做真实过期，仅记录最近一次写入使用的值。
type MemoryStore struct {
	mu      sync.RWMutex
	lists   map[string][]int64
	lastTTL int
}

// NewMemoryStore 创建空的内存存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]int64)}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) GetList(_ context.Context, key string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.lists[key]
	if !ok {
		return nil, nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

func (s *MemoryStore) ReplaceLists(_ context.Context, lists map[string][]int64, ttlSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTTL = ttlSeconds
	for key, ids := range lists {
		delete(s.lists, key)
		if len(ids) == 0 {
			continue
		}
		stored := make([]int64, len(ids))
		copy(stored, ids)
		s.lists[key] = stored
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Keys 返回当前存在的全部 key（测试断言用）。
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.lists))
	for k := range s.lists {
		keys = append(keys, k)
	}
	return keys
}

// LastTTL 返回最近一次 ReplaceLists 使用的过期秒数（测试断言用）。
func (s *MemoryStore) LastTTL() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTTL
}

var _ core.ListStore = (*MemoryStore)(nil)
