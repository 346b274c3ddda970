package core

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// memAdapter is an in-memory Adapter used by the dispatch tests. It
// keeps rows per table in insertion order and records every backing
// call so tests can assert what reached the storage layer.
type memAdapter struct {
	mu    sync.Mutex
	seq   int64
	rows  map[string][]any // table -> stored record pointers, insertion order
	calls []string
}

func newMemAdapter() *memAdapter {
	return &memAdapter{rows: make(map[string][]any)}
}

func (a *memAdapter) callLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *memAdapter) note(op string) {
	a.calls = append(a.calls, op)
}

func cloneRecord(rec any) any {
	rv := reflect.ValueOf(rec)
	out := reflect.New(rv.Elem().Type())
	out.Elem().Set(rv.Elem())
	return out.Interface()
}

func (a *memAdapter) findIndex(m *model.Model, pk any) int {
	for i, rec := range a.rows[m.TableName] {
		got, _ := m.PKValue(rec)
		if fmt.Sprint(got) == fmt.Sprint(pk) {
			return i
		}
	}
	return -1
}

func (a *memAdapter) Insert(ctx context.Context, cs *Changeset) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("insert")

	m := cs.Model
	if m.PKField != nil && m.PKField.IsAuto {
		a.seq++
		pkv := reflect.ValueOf(cs.Record).Elem().Field(m.PKField.Index)
		pkv.Set(reflect.ValueOf(a.seq).Convert(pkv.Type()))
	}
	a.rows[m.TableName] = append(a.rows[m.TableName], cloneRecord(cs.Record))
	return cs.Record, nil
}

func (a *memAdapter) Update(ctx context.Context, cs *Changeset) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("update")

	m := cs.Model
	pk, set := m.PKValue(cs.Record)
	if !set {
		return nil, ErrMissingPrimaryKey
	}
	i := a.findIndex(m, pk)
	if i < 0 {
		return nil, fmt.Errorf("row %v not found in %s", pk, m.TableName)
	}
	a.rows[m.TableName][i] = cloneRecord(cs.Record)
	return cs.Record, nil
}

func (a *memAdapter) Delete(ctx context.Context, cs *Changeset) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("delete")

	m := cs.Model
	pk, set := m.PKValue(cs.Record)
	if !set {
		return nil, ErrMissingPrimaryKey
	}
	if i := a.findIndex(m, pk); i >= 0 {
		a.rows[m.TableName] = append(a.rows[m.TableName][:i], a.rows[m.TableName][i+1:]...)
	}
	return cs.Record, nil
}

func (a *memAdapter) One(ctx context.Context, q *query.Query) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("one")

	matches, err := a.matching(q)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (a *memAdapter) Get(ctx context.Context, m *model.Model, key any) (any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("get")

	if i := a.findIndex(m, key); i >= 0 {
		return cloneRecord(a.rows[m.TableName][i]), nil
	}
	return nil, nil
}

func (a *memAdapter) All(ctx context.Context, q *query.Query) ([]any, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("all")
	return a.matching(q)
}

func (a *memAdapter) Reload(ctx context.Context, record any) (any, error) {
	m, err := model.GetModel(record)
	if err != nil {
		return nil, err
	}
	pk, set := m.PKValue(record)
	if !set {
		return nil, ErrMissingPrimaryKey
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.note("reload")
	if i := a.findIndex(m, pk); i >= 0 {
		return cloneRecord(a.rows[m.TableName][i]), nil
	}
	return nil, nil
}

func (a *memAdapter) matching(q *query.Query) ([]any, error) {
	out := make([]any, 0)
	for _, rec := range a.rows[q.Model.TableName] {
		ok, err := matches(q, rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneRecord(rec))
		}
	}
	if q.HasOffset && q.OffsetN < len(out) {
		out = out[q.OffsetN:]
	} else if q.HasOffset {
		out = out[:0]
	}
	if q.HasLimit && q.LimitN < len(out) {
		out = out[:q.LimitN]
	}
	return out, nil
}

func matches(q *query.Query, rec any) (bool, error) {
	val := reflect.ValueOf(rec).Elem()
	for _, cond := range q.Conds {
		field := q.Model.FieldMap[cond.Column]
		have := fmt.Sprint(val.Field(field.Index).Interface())
		switch cond.Op {
		case query.OpEq:
			if have != fmt.Sprint(cond.Value) {
				return false, nil
			}
		case query.OpIn:
			hit := false
			for _, want := range cond.Value.([]any) {
				if have == fmt.Sprint(want) {
					hit = true
					break
				}
			}
			if !hit {
				return false, nil
			}
		default:
			return false, fmt.Errorf("operator %q not supported by memAdapter", cond.Op)
		}
	}
	return true, nil
}

// Preload fills relation fields by scanning the related table, enough
// for has_many and belongs_to over integer keys.
func (a *memAdapter) Preload(ctx context.Context, records any, specs []query.PreloadSpec) error {
	a.mu.Lock()
	a.note("preload")
	a.mu.Unlock()

	return eachRecord(records, func(rec any, m *model.Model) error {
		for _, spec := range specs {
			rel, err := m.GetRelation(spec.Relation)
			if err != nil {
				return err
			}
			if err := a.fill(rec, m, rel); err != nil {
				return err
			}
			if len(spec.Nested) > 0 {
				loaded := relationValue(rec, rel)
				if loaded == nil {
					continue
				}
				if err := a.Preload(ctx, loaded, spec.Nested); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (a *memAdapter) fill(rec any, m *model.Model, rel *model.Relation) error {
	relModel, err := rel.Model()
	if err != nil {
		return err
	}

	var ownerCol, relatedCol string
	switch rel.Kind {
	case model.RelationHasOne, model.RelationHasMany:
		ownerCol, relatedCol = rel.References, rel.ForeignKey
	case model.RelationBelongsTo:
		ownerCol, relatedCol = rel.ForeignKey, rel.References
	}

	ownerVal := reflect.ValueOf(rec).Elem()
	key := fmt.Sprint(ownerVal.Field(m.FieldMap[ownerCol].Index).Interface())

	a.mu.Lock()
	defer a.mu.Unlock()

	field := ownerVal.Field(rel.FieldIndex)
	for _, related := range a.rows[relModel.TableName] {
		rv := reflect.ValueOf(related).Elem()
		if fmt.Sprint(rv.Field(relModel.FieldMap[relatedCol].Index).Interface()) != key {
			continue
		}
		stored := cloneRecord(related)
		switch field.Kind() {
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.Ptr {
				field.Set(reflect.Append(field, reflect.ValueOf(stored)))
			} else {
				field.Set(reflect.Append(field, reflect.ValueOf(stored).Elem()))
			}
		case reflect.Ptr:
			field.Set(reflect.ValueOf(stored))
			return nil
		case reflect.Struct:
			field.Set(reflect.ValueOf(stored).Elem())
			return nil
		}
	}
	return nil
}
