package store

import (
	"context"
	"sync"
	"time"
)

// MemoryKV 内存 KV + TTL（Redis 未启用时使用，单实例）
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memoryItem
	now  func() time.Time
}

type memoryItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryItem), now: time.Now}
}

// get must be called with mu held.
func (m *MemoryKV) get(key string) (memoryItem, bool) {
	item, ok := m.data[key]
	if !ok {
		return memoryItem{}, false
	}
	if !item.expires.IsZero() && m.now().After(item.expires) {
		delete(m.data, key)
		return memoryItem{}, false
	}
	return item, true
}

func (m *MemoryKV) put(key, value string, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	m.data[key] = memoryItem{value: value, expires: exp}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.get(key)
	if !ok {
		return "", ErrMiss
	}
	return item.value, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(key, value, ttl)
	return nil
}

func (m *MemoryKV) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.get(key); ok {
		return false, nil
	}
	m.put(key, value, ttl)
	return true, nil
}

func (m *MemoryKV) DelIfEqual(ctx context.Context, key string, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.get(key)
	if !ok || item.value != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}
