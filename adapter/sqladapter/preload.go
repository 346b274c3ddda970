package sqladapter

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// Preload eager-loads the requested relations into the given records
// with one batched query per relation. Nested specs are resolved on the
// loaded elements before they are attached to their owners.
func (a *Adapter) Preload(ctx context.Context, records any, specs []query.PreloadSpec) error {
	if len(specs) == 0 {
		return nil
	}

	owners, err := ownerValues(records)
	if err != nil {
		return err
	}
	if len(owners) == 0 {
		return nil
	}

	m, err := model.GetModel(owners[0].Addr().Interface())
	if err != nil {
		return err
	}

	for _, spec := range specs {
		rel, err := m.GetRelation(spec.Relation)
		if err != nil {
			return err
		}
		if err := a.preloadRelation(ctx, owners, m, rel, spec); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) preloadRelation(ctx context.Context, owners []reflect.Value, m *model.Model, rel *model.Relation, spec query.PreloadSpec) error {
	relModel, err := rel.Model()
	if err != nil {
		return err
	}

	var ownerKeyCol, relatedKeyCol string
	switch rel.Kind {
	case model.RelationHasOne, model.RelationHasMany:
		ownerKeyCol = rel.References
		relatedKeyCol = rel.ForeignKey
	case model.RelationBelongsTo:
		ownerKeyCol = rel.ForeignKey
		relatedKeyCol = rel.References
	default:
		return fmt.Errorf("relation %q has unsupported kind", rel.Name)
	}

	ownerKeyField, ok := m.FieldMap[ownerKeyCol]
	if !ok {
		return fmt.Errorf("column %q not found on %s", ownerKeyCol, m.TableName)
	}
	relatedKeyField, ok := relModel.FieldMap[relatedKeyCol]
	if !ok {
		return fmt.Errorf("column %q not found on %s", relatedKeyCol, relModel.TableName)
	}

	keys := make([]any, 0, len(owners))
	seen := make(map[any]bool, len(owners))
	for _, owner := range owners {
		fv := owner.Field(ownerKeyField.Index)
		if fv.IsZero() {
			continue
		}
		key := normKey(fv.Interface())
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	related, err := a.queryRelated(ctx, relModel, relatedKeyCol, keys)
	if err != nil {
		return err
	}

	// Nested relations load into the fresh pointers before they are
	// attached, so by-value relation fields keep the nested data.
	if len(spec.Nested) > 0 && len(related) > 0 {
		if err := a.Preload(ctx, related, spec.Nested); err != nil {
			return err
		}
	}

	grouped := make(map[any][]any, len(related))
	for _, rec := range related {
		rv := reflect.ValueOf(rec).Elem()
		key := normKey(rv.Field(relatedKeyField.Index).Interface())
		grouped[key] = append(grouped[key], rec)
	}

	for _, owner := range owners {
		key := normKey(owner.Field(ownerKeyField.Index).Interface())
		attachRelated(owner.Field(rel.FieldIndex), grouped[key])
	}
	return nil
}

func (a *Adapter) queryRelated(ctx context.Context, m *model.Model, keyCol string, keys []any) ([]any, error) {
	var sb strings.Builder
	sb.WriteString(selectClause(a, m))
	sb.WriteString(" WHERE ")
	sb.WriteString(a.dialect.Quote(keyCol))
	sb.WriteString(" IN (")
	for i := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("?")
	}
	sb.WriteString(")")

	stmt := a.replacePlaceholders(sb.String())
	start := time.Now()
	rows, err := a.pool.QueryContext(ctx, stmt, keys...)
	a.logSQL(stmt, time.Since(start), keys...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]any, 0)
	for rows.Next() {
		rec, err := scanRecord(rows, m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// attachRelated sets the loaded records onto a relation field, matching
// the field's shape (slice, pointer or embedded struct).
func attachRelated(field reflect.Value, recs []any) {
	switch field.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(field.Type(), 0, len(recs))
		elemIsPtr := field.Type().Elem().Kind() == reflect.Ptr
		for _, rec := range recs {
			rv := reflect.ValueOf(rec)
			if elemIsPtr {
				out = reflect.Append(out, rv)
			} else {
				out = reflect.Append(out, rv.Elem())
			}
		}
		field.Set(out)
	case reflect.Ptr:
		if len(recs) > 0 {
			field.Set(reflect.ValueOf(recs[0]))
		}
	case reflect.Struct:
		if len(recs) > 0 {
			field.Set(reflect.ValueOf(recs[0]).Elem())
		}
	}
}

// ownerValues normalizes the records argument into addressable struct
// values. Accepted shapes: pointer to struct, pointer to slice, or a
// slice whose elements are struct pointers.
func ownerValues(records any) ([]reflect.Value, error) {
	rv := reflect.ValueOf(records)
	if !rv.IsValid() {
		return nil, fmt.Errorf("records must not be nil")
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("records must not be nil")
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if !rv.CanAddr() {
			return nil, fmt.Errorf("records must be a pointer to a struct or slice")
		}
		return []reflect.Value{rv}, nil
	case reflect.Slice:
		owners := make([]reflect.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			if elem.Kind() == reflect.Ptr {
				if elem.IsNil() {
					continue
				}
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Struct || !elem.CanAddr() {
				continue
			}
			owners = append(owners, elem)
		}
		return owners, nil
	}
	return nil, fmt.Errorf("records must be a pointer to a struct or slice, got %s", rv.Kind())
}

// normKey folds integer types down to one representation so foreign and
// primary keys of different widths compare equal as map keys.
func normKey(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	}
	return v
}
