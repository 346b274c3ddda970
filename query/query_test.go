package query

import (
	"testing"
)

type Article struct {
	ID    int64 `jrepo:"pk auto"`
	Title string
	Views int
}

func TestQueryConds(t *testing.T) {
	q := New(&Article{}).
		Eq("title", "go").
		Gt("views", 10).
		OrderBy("views", true).
		Limit(5).
		Offset(2)

	if err := q.Err(); err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	if len(q.Conds) != 2 {
		t.Fatalf("cond count = %d, want 2", len(q.Conds))
	}
	if q.Conds[0].Column != "title" || q.Conds[0].Op != OpEq || q.Conds[0].Value != "go" {
		t.Errorf("first cond = %+v", q.Conds[0])
	}
	if q.Conds[1].Op != OpGt {
		t.Errorf("second cond op = %v, want >", q.Conds[1].Op)
	}
	if len(q.Orders) != 1 || !q.Orders[0].Desc {
		t.Errorf("orders = %+v", q.Orders)
	}
	if !q.HasLimit || q.LimitN != 5 || !q.HasOffset || q.OffsetN != 2 {
		t.Errorf("limit/offset not recorded: %+v", q)
	}
}

func TestQueryIn(t *testing.T) {
	q := New(&Article{}).In("views", 1, 2, 3)
	if err := q.Err(); err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	if len(q.Conds) != 1 || q.Conds[0].Op != OpIn {
		t.Fatalf("conds = %+v", q.Conds)
	}
	values := q.Conds[0].Value.([]any)
	if len(values) != 3 {
		t.Errorf("in values = %v", values)
	}
}

func TestQueryUnknownColumn(t *testing.T) {
	q := New(&Article{}).Eq("nope", 1)
	if q.Err() == nil {
		t.Fatalf("expected error for unknown column")
	}
	if len(q.Conds) != 0 {
		t.Errorf("invalid cond must not be recorded")
	}

	// The first error sticks even if later conditions are valid.
	q.Eq("title", "x")
	if q.Err() == nil {
		t.Errorf("builder error must persist")
	}
}

func TestQueryInvalidModel(t *testing.T) {
	q := New(42)
	if q.Err() == nil {
		t.Errorf("expected error for non-struct prototype")
	}
}

func TestPreloadSpec(t *testing.T) {
	spec := Preload("Books", Preload("Author"))
	if spec.Relation != "Books" {
		t.Errorf("relation = %q, want Books", spec.Relation)
	}
	if len(spec.Nested) != 1 || spec.Nested[0].Relation != "Author" {
		t.Errorf("nested = %+v", spec.Nested)
	}
}
