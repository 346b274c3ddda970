package middleware

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/shrek82/jrepo/adapter/sqladapter"
	"github.com/shrek82/jrepo/core"
	"github.com/shrek82/jrepo/logger"
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

type Item struct {
	ID    int64 `jrepo:"pk auto"`
	Name  string
	Price float64
}

func silentLogger() logger.Logger {
	l := logger.NewStdLogger()
	l.SetLevel(logger.LogLevelSilent)
	return l
}

// newChainRepo builds a sqlite-backed repo whose every call runs the
// given interceptors around the backing operation.
func newChainRepo(t *testing.T, around ...core.Interceptor) *core.Repo {
	t.Helper()
	a, err := sqladapter.Open("sqlite3", ":memory:", &sqladapter.Options{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	a.SetLogger(silentLogger())
	t.Cleanup(func() { a.Close() })
	if err := a.AutoMigrate(&Item{}); err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	chain := make([]core.Interceptor, 0, 2*len(around)+1)
	chain = append(chain, around...)
	chain = append(chain, core.Sentinel)
	chain = append(chain, around...)

	return core.New(a,
		core.WithLogger(silentLogger()),
		core.WithMiddleware(func(op core.Operation, resource any) []core.Interceptor {
			return chain
		}),
	)
}

func itemModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.GetModel(&Item{})
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	return m
}

func TestMemoryCacheRecordsReads(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	repo := newChainRepo(t, cache)
	ctx := context.Background()

	out, err := repo.Insert(ctx, &Item{Name: "lamp", Price: 9.5})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	item := out.(*Item)

	if _, err := repo.Get(ctx, &Item{}, item.ID); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	cached, ok := cache.Lookup("item", core.OpGet, []any{itemModel(t), item.ID})
	if !ok {
		t.Fatalf("Get result was not cached")
	}
	if cached.(*Item).Name != "lamp" {
		t.Errorf("cached %+v", cached)
	}

	q := query.New(&Item{}).Eq("name", "lamp")
	if _, err := repo.One(ctx, q); err != nil {
		t.Fatalf("One failed: %v", err)
	}
	if _, ok := cache.Lookup("item", core.OpOne, []any{q}); !ok {
		t.Errorf("One result was not cached")
	}

	// An equivalent query built separately must hit the same entry.
	q2 := query.New(&Item{}).Eq("name", "lamp")
	if _, ok := cache.Lookup("item", core.OpOne, []any{q2}); !ok {
		t.Errorf("cache key depends on query identity, not content")
	}
}

func TestMemoryCacheMissedReadsNotCached(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	repo := newChainRepo(t, cache)
	ctx := context.Background()

	if got, err := repo.Get(ctx, &Item{}, int64(404)); err != nil || got != nil {
		t.Fatalf("Get = (%v, %v), want (nil, nil)", got, err)
	}
	if _, ok := cache.Lookup("item", core.OpGet, []any{itemModel(t), int64(404)}); ok {
		t.Errorf("a miss must not be cached")
	}
}

func TestMemoryCacheInvalidatesOnWrite(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer cache.Close()
	repo := newChainRepo(t, cache)
	ctx := context.Background()

	out, _ := repo.Insert(ctx, &Item{Name: "lamp"})
	item := out.(*Item)

	repo.MustGet(ctx, &Item{}, item.ID)
	if _, ok := cache.Lookup("item", core.OpGet, []any{itemModel(t), item.ID}); !ok {
		t.Fatalf("Get result was not cached")
	}

	cs, _ := core.Change(item, map[string]any{"name": "desk lamp"})
	if _, err := repo.Update(ctx, cs); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, ok := cache.Lookup("item", core.OpGet, []any{itemModel(t), item.ID}); ok {
		t.Errorf("write did not invalidate the table's entries")
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	cache := NewMemoryCache(5 * time.Millisecond)
	defer cache.Close()
	repo := newChainRepo(t, cache)
	ctx := context.Background()

	out, _ := repo.Insert(ctx, &Item{Name: "lamp"})
	item := out.(*Item)
	repo.MustGet(ctx, &Item{}, item.ID)

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Lookup("item", core.OpGet, []any{itemModel(t), item.ID}); ok {
		t.Errorf("expired entry served")
	}
}

func TestMemoryCacheCloseIdempotent(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
