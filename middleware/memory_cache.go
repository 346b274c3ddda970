package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shrek82/jrepo/core"
)

// MemoryCache records successful read results in memory and drops a
// table's entries whenever a write to that table passes through the
// chain. Install one instance on both sides of the Sentinel: the before
// side invalidates, the after side records.
//
// Cached values are served through Lookup; the chain itself cannot skip
// the backing operation, so the cache is a read-through companion
// rather than a short circuit.
type MemoryCache struct {
	TTL time.Duration

	mu        sync.RWMutex
	items     map[string]memoryCacheEntry
	stopClean chan struct{}
	once      sync.Once
}

type memoryCacheEntry struct {
	value     any
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	m := &MemoryCache{
		TTL:       ttl,
		items:     make(map[string]memoryCacheEntry),
		stopClean: make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Close stops the background cleanup goroutine.
func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stopClean) })
	return nil
}

func (m *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopClean:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *MemoryCache) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for k, v := range m.items {
		if now.After(v.expiresAt) {
			delete(m.items, k)
		}
	}
}

func (m *MemoryCache) Apply(ctx context.Context, value any, r *core.Resolution) (any, error) {
	switch r.Phase() {
	case core.PhaseBefore:
		if isWrite(r.Op) {
			m.invalidate(tableOf(r.Resource()))
		}
	case core.PhaseAfter:
		if isRead(r.Op) && value != nil {
			table := tableOf(r.Resource())
			if table == "" {
				table = tableOf(value)
			}
			m.store(cacheKey(table, r.Op, r.Args), value)
		}
	}
	return value, nil
}

// Lookup returns the cached result for a read call, if present and
// fresh.
func (m *MemoryCache) Lookup(table string, op core.Operation, args []any) (any, bool) {
	key := cacheKey(table, op, args)

	m.mu.RLock()
	entry, found := m.items[key]
	m.mu.RUnlock()

	if !found {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (m *MemoryCache) store(key string, value any) {
	m.mu.Lock()
	m.items[key] = memoryCacheEntry{
		value:     value,
		expiresAt: time.Now().Add(m.TTL),
	}
	m.mu.Unlock()
}

func (m *MemoryCache) invalidate(table string) {
	if table == "" {
		return
	}
	m.mu.Lock()
	for k := range m.items {
		if strings.HasPrefix(k, table+":") {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
}

func isWrite(op core.Operation) bool {
	switch op.Base() {
	case core.OpInsert, core.OpUpdate, core.OpDelete, core.OpInsertOrUpdate:
		return true
	}
	return false
}

func isRead(op core.Operation) bool {
	switch op.Base() {
	case core.OpOne, core.OpGet, core.OpAll, core.OpReload:
		return true
	}
	return false
}
