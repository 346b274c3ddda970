package core

import (
	"context"
	"testing"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

func TestClassifyChangesetFirst(t *testing.T) {
	rec := &Plain{ID: 1, Name: "a"}
	cs, err := Change(rec, nil)
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}

	// The underlying record alone classifies as a persisted instance;
	// wrapped in a changeset it must classify as the changeset.
	if kind := Classify(cs); kind != KindChangeset {
		t.Errorf("Classify(changeset) = %v, want KindChangeset", kind)
	}
	if kind := Classify(rec); kind != KindRecord {
		t.Errorf("Classify(record) = %v, want KindRecord", kind)
	}
}

func TestClassifyQueryable(t *testing.T) {
	if kind := Classify(query.New(&Plain{})); kind != KindQuery {
		t.Errorf("Classify(query) = %v, want KindQuery", kind)
	}

	m, err := model.GetModel(&Plain{})
	if err != nil {
		t.Fatalf("GetModel failed: %v", err)
	}
	if kind := Classify(m); kind != KindQuery {
		t.Errorf("Classify(model) = %v, want KindQuery", kind)
	}
}

func TestClassifyNone(t *testing.T) {
	for _, v := range []any{nil, 42, "text", []int{1}} {
		if kind := Classify(v); kind != KindNone {
			t.Errorf("Classify(%T) = %v, want KindNone", v, kind)
		}
	}
}

func TestNewDeltaPopulatesOneField(t *testing.T) {
	repo := newTestRepo(newMemAdapter())

	rec := &Plain{ID: 1}
	cs, _ := Change(rec, nil)

	d := newDelta(repo, OpUpdate, HookAfterUpdate, cs)
	if d.Kind != KindChangeset || d.Changeset != cs || d.Record != nil || d.Queryable != nil {
		t.Errorf("changeset delta populated wrong fields: %+v", d)
	}
	if d.Repo != repo || d.Op != OpUpdate || d.Hook != HookAfterUpdate {
		t.Errorf("delta call metadata wrong: %+v", d)
	}

	q := query.New(&Plain{})
	d = newDelta(repo, OpAll, HookAfterGet, q)
	if d.Kind != KindQuery || d.Queryable != q || d.Changeset != nil || d.Record != nil {
		t.Errorf("query delta populated wrong fields: %+v", d)
	}

	d = newDelta(repo, OpReload, HookAfterGet, rec)
	if d.Kind != KindRecord || d.Record != rec || d.Changeset != nil || d.Queryable != nil {
		t.Errorf("record delta populated wrong fields: %+v", d)
	}
}

type deltaSpy struct {
	ID   int64  `jrepo:"pk auto"`
	Got  *Delta `jrepo:"-"`
}

func (s *deltaSpy) AfterInsert(ctx context.Context, d *Delta) error {
	s.Got = d
	return nil
}

func TestAfterHookReceivesDelta(t *testing.T) {
	repo := newTestRepo(newMemAdapter())

	rec := &deltaSpy{}
	if _, err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if rec.Got == nil {
		t.Fatalf("after-hook did not receive a delta")
	}
	if rec.Got.Op != OpInsert {
		t.Errorf("delta op = %v, want OpInsert", rec.Got.Op)
	}
	if rec.Got.Hook != HookAfterInsert {
		t.Errorf("delta hook = %v, want HookAfterInsert", rec.Got.Hook)
	}
	if rec.Got.Kind != KindRecord {
		t.Errorf("delta kind = %v, want KindRecord", rec.Got.Kind)
	}
	if rec.Got.Repo != repo {
		t.Errorf("delta repo should be the dispatching repo")
	}
}
