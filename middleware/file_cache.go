package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shrek82/jrepo/core"
)

// FileCache is the MemoryCache maintenance strategy over the file
// system: read results are written as JSON entries under Dir, writes
// drop every entry belonging to the affected table. Entries survive
// process restarts.
type FileCache struct {
	Dir string
	TTL time.Duration
}

func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileCache{Dir: dir, TTL: ttl}, nil
}

type fileCacheEntry struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (m *FileCache) Apply(ctx context.Context, value any, r *core.Resolution) (any, error) {
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

// Lookup unmarshals a cached read result into dest and reports whether
// a fresh entry was present.
func (m *FileCache) Lookup(table string, op core.Operation, args []any, dest any) (bool, error) {
	path := m.path(cacheKey(table, op, args))
	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}

	var entry fileCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false, nil
	}
	if time.Now().After(entry.ExpiresAt) {
		os.Remove(path)
		return false, nil
	}
	if err := json.Unmarshal(entry.Data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *FileCache) store(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	entry := fileCacheEntry{Data: data, ExpiresAt: time.Now().Add(m.TTL)}
	out, err := json.Marshal(entry)
	if err != nil {
		return
	}
	// Cache maintenance is best effort; a filesystem failure never fails
	// the repository call.
	os.WriteFile(m.path(key), out, 0644)
}

func (m *FileCache) invalidate(table string) {
	if table == "" {
		return
	}
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), table+"__") {
			os.Remove(filepath.Join(m.Dir, e.Name()))
		}
	}
}

// path maps a cache key to a file name; the table prefix stays visible
// so invalidation can match on it.
func (m *FileCache) path(key string) string {
	name := strings.Replace(key, ":", "__", 1) + ".json"
	return filepath.Join(m.Dir, name)
}
