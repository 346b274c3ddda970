package core

import (
	"errors"
	"testing"

	"github.com/shrek82/jrepo/validator"
)

func requiredNameRules() validator.Rules {
	return validator.Rules{
		"Name": {validator.Required},
	}
}

func TestChangeInfersState(t *testing.T) {
	built, err := Change(&Plain{Name: "a"}, nil)
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if built.State != StateBuilt || built.Persisted() {
		t.Errorf("record without key should be StateBuilt")
	}

	loaded, err := Change(&Plain{ID: 7, Name: "a"}, nil)
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if loaded.State != StateLoaded || !loaded.Persisted() {
		t.Errorf("record with key should be StateLoaded")
	}
}

func TestChangeRejectsUnknownColumn(t *testing.T) {
	_, err := Change(&Plain{}, map[string]any{"nope": 1})
	if !errors.Is(err, ErrInvalidChangeset) {
		t.Fatalf("error = %v, want ErrInvalidChangeset", err)
	}
}

func TestChangeRejectsNonPointer(t *testing.T) {
	_, err := Change(Plain{}, nil)
	if !errors.Is(err, ErrInvalidResource) {
		t.Fatalf("error = %v, want ErrInvalidResource", err)
	}
}

func TestApplyCopiesChanges(t *testing.T) {
	rec := &Plain{ID: 1, Name: "old"}
	cs, err := Change(rec, map[string]any{"name": "new"})
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if err := cs.apply(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if rec.Name != "new" {
		t.Errorf("name = %q, want %q", rec.Name, "new")
	}
}

func TestApplyConvertsAssignableTypes(t *testing.T) {
	rec := &Plain{ID: 1}
	cs, err := Change(rec, map[string]any{"id": 9})
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if err := cs.apply(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if rec.ID != 9 {
		t.Errorf("id = %d, want 9", rec.ID)
	}
}

func TestApplyNilChangeZeroesField(t *testing.T) {
	rec := &Plain{ID: 1, Name: "x"}
	cs, err := Change(rec, map[string]any{"name": nil})
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if err := cs.apply(); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if rec.Name != "" {
		t.Errorf("name = %q, want empty", rec.Name)
	}
}

func TestApplyRejectsIncompatibleType(t *testing.T) {
	cs, err := Change(&Plain{ID: 1}, map[string]any{"name": []int{1}})
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	if err := cs.apply(); !errors.Is(err, ErrInvalidChangeset) {
		t.Fatalf("apply error = %v, want ErrInvalidChangeset", err)
	}
}

func TestApplyRunsRules(t *testing.T) {
	cs, err := Change(&Plain{ID: 1, Name: ""}, nil)
	if err != nil {
		t.Fatalf("Change failed: %v", err)
	}
	cs.Validate(requiredNameRules())
	if err := cs.apply(); !errors.Is(err, ErrInvalidChangeset) {
		t.Fatalf("apply error = %v, want ErrInvalidChangeset", err)
	}

	cs, _ = Change(&Plain{ID: 1, Name: "ok"}, nil)
	cs.Validate(requiredNameRules())
	if err := cs.apply(); err != nil {
		t.Fatalf("apply failed on valid record: %v", err)
	}
}

func TestAsChangesetWrapsRecord(t *testing.T) {
	rec := &Plain{Name: "a"}
	cs, err := asChangeset(rec)
	if err != nil {
		t.Fatalf("asChangeset failed: %v", err)
	}
	if cs.Record != rec {
		t.Errorf("wrapped changeset must carry the original record")
	}

	same, err := asChangeset(cs)
	if err != nil {
		t.Fatalf("asChangeset failed: %v", err)
	}
	if same != cs {
		t.Errorf("a changeset must pass through unchanged")
	}

	if _, err := asChangeset(nil); !errors.Is(err, ErrInvalidResource) {
		t.Errorf("nil resource error = %v, want ErrInvalidResource", err)
	}
}
