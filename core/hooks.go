package core

import (
	"context"
	"reflect"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// Lifecycle hook capability interfaces. Entity structs opt in by
// implementing them; the dispatcher probes with a type assertion and
// treats a missing implementation as the identity function.
//
// Before-hooks receive only the context and mutate their receiver.
// After-hooks additionally receive a Delta describing the call; nested
// repository calls made from a hook must reuse the given context so the
// re-entrancy guard can suppress further hooks.
type BeforeInsertHook interface{ BeforeInsert(ctx context.Context) error }
type BeforeUpdateHook interface{ BeforeUpdate(ctx context.Context) error }
type BeforeDeleteHook interface{ BeforeDelete(ctx context.Context) error }
type AfterInsertHook interface {
	AfterInsert(ctx context.Context, d *Delta) error
}
type AfterUpdateHook interface {
	AfterUpdate(ctx context.Context, d *Delta) error
}
type AfterDeleteHook interface {
	AfterDelete(ctx context.Context, d *Delta) error
}
type AfterGetHook interface {
	AfterGet(ctx context.Context, d *Delta) error
}

// LifecycleHooks is the interceptor implementing the convention-based
// hook mechanism. Placed on both sides of the Sentinel it runs the
// before-hook of the operation in the before phase and the after-hook
// in the after phase, consulting the re-entrancy guard each time.
var LifecycleHooks Interceptor = lifecycleHooks{}

type lifecycleHooks struct{}

func (lifecycleHooks) Apply(ctx context.Context, value any, r *Resolution) (any, error) {
	if !HooksEnabled(ctx) {
		return value, nil
	}

	switch r.Phase() {
	case PhaseBefore:
		return value, runBeforeHook(ctx, r, value)
	case PhaseAfter:
		return value, runAfterHook(ctx, r, value)
	}
	return value, nil
}

// hookPoints maps an operation to its before/after hook pair. Upserts
// route on the changeset state: a newly built record takes the insert
// pair, a persisted one the update pair. Read operations have no
// before-hook.
func hookPoints(op Operation, resource any) (before, after Hook) {
	base := op.Base()
	if base == OpInsertOrUpdate {
		base = OpInsert
		if cs, ok := resource.(*Changeset); ok {
			if cs.Persisted() {
				base = OpUpdate
			}
		} else if m, err := model.GetModel(resource); err == nil {
			if _, set := m.PKValue(resource); set {
				base = OpUpdate
			}
		}
	}

	switch base {
	case OpInsert:
		return HookBeforeInsert, HookAfterInsert
	case OpUpdate:
		return HookBeforeUpdate, HookAfterUpdate
	case OpDelete:
		return HookBeforeDelete, HookAfterDelete
	case OpOne, OpGet, OpAll, OpReload, OpPreload:
		return "", HookAfterGet
	}
	return "", ""
}

// hookTarget resolves the entity the hook methods live on: the record
// underlying a changeset, otherwise the resource itself.
func hookTarget(resource any) any {
	if cs, ok := resource.(*Changeset); ok {
		return cs.Record
	}
	return resource
}

func runBeforeHook(ctx context.Context, r *Resolution, value any) error {
	before, _ := hookPoints(r.Op, value)
	if before == "" {
		return nil
	}

	target := hookTarget(value)
	var fn func(context.Context) error
	switch before {
	case HookBeforeInsert:
		if h, ok := target.(BeforeInsertHook); ok {
			fn = h.BeforeInsert
		}
	case HookBeforeUpdate:
		if h, ok := target.(BeforeUpdateHook); ok {
			fn = h.BeforeUpdate
		}
	case HookBeforeDelete:
		if h, ok := target.(BeforeDeleteHook); ok {
			fn = h.BeforeDelete
		}
	}
	if fn == nil {
		return nil
	}
	return invokeGuarded(ctx, fn)
}

func runAfterHook(ctx context.Context, r *Resolution, value any) error {
	resource := r.Resource()
	_, after := hookPoints(r.Op, resource)
	if after == "" {
		return nil
	}

	if r.Op.Base() == OpPreload {
		specs, _ := preloadSpecs(r.Args)
		return afterGetGraph(ctx, r.Repo, r.Op, value, specs)
	}

	d := newDelta(r.Repo, r.Op, after, resource)
	return invokeAfter(ctx, value, after, d)
}

func invokeAfter(ctx context.Context, target any, after Hook, d *Delta) error {
	var fn func(context.Context) error
	switch after {
	case HookAfterInsert:
		if h, ok := target.(AfterInsertHook); ok {
			fn = func(ctx context.Context) error { return h.AfterInsert(ctx, d) }
		}
	case HookAfterUpdate:
		if h, ok := target.(AfterUpdateHook); ok {
			fn = func(ctx context.Context) error { return h.AfterUpdate(ctx, d) }
		}
	case HookAfterDelete:
		if h, ok := target.(AfterDeleteHook); ok {
			fn = func(ctx context.Context) error { return h.AfterDelete(ctx, d) }
		}
	case HookAfterGet:
		if h, ok := target.(AfterGetHook); ok {
			fn = func(ctx context.Context) error { return h.AfterGet(ctx, d) }
		}
	}
	if fn == nil {
		return nil
	}
	return invokeGuarded(ctx, fn)
}

// invokeGuarded runs one hook invocation under the re-entrancy guard:
// nesting counter bumped and hooks locally disabled for the duration,
// restored on every exit path.
func invokeGuarded(ctx context.Context, fn func(context.Context) error) error {
	st := hookStateFrom(ctx)
	if st == nil {
		st = &hookState{}
		ctx = context.WithValue(ctx, hookStateKey{}, st)
	}
	release := st.acquire()
	defer release()
	return fn(ctx)
}

// afterGetGraph applies the AfterGet hook to every element loaded by an
// eager-load call, at every requested nesting level. Relations that
// were not requested are left untouched.
func afterGetGraph(ctx context.Context, repo *Repo, op Operation, records any, specs []query.PreloadSpec) error {
	return eachRecord(records, func(rec any, m *model.Model) error {
		for _, spec := range specs {
			rel, err := m.GetRelation(spec.Relation)
			if err != nil {
				return err
			}
			loaded := relationValue(rec, rel)
			if loaded == nil {
				continue
			}
			if err := eachRecord(loaded, func(child any, _ *model.Model) error {
				d := newDelta(repo, op, HookAfterGet, child)
				return invokeAfter(ctx, child, HookAfterGet, d)
			}); err != nil {
				return err
			}
			if len(spec.Nested) > 0 {
				if err := afterGetGraph(ctx, repo, op, loaded, spec.Nested); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// relationValue extracts the loaded value of a relation field, or nil
// when the relation was not populated.
func relationValue(rec any, rel *model.Relation) any {
	val := reflect.ValueOf(rec)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	field := val.Field(rel.FieldIndex)
	switch field.Kind() {
	case reflect.Ptr:
		if field.IsNil() {
			return nil
		}
		return field.Interface()
	case reflect.Slice:
		if field.Len() == 0 {
			return nil
		}
		return field.Addr().Interface()
	case reflect.Struct:
		if field.IsZero() {
			return nil
		}
		return field.Addr().Interface()
	}
	return nil
}

// eachRecord walks a record, a pointer to a record, a slice, or a
// pointer to a slice, invoking fn with a pointer to each element.
func eachRecord(records any, fn func(rec any, m *model.Model) error) error {
	val := reflect.ValueOf(records)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		if val.Elem().Kind() != reflect.Slice {
			break
		}
		val = val.Elem()
	}

	if val.Kind() == reflect.Slice {
		for i := 0; i < val.Len(); i++ {
			elem := val.Index(i)
			if elem.Kind() == reflect.Interface {
				elem = elem.Elem()
			}
			if elem.Kind() != reflect.Ptr {
				if !elem.CanAddr() {
					continue
				}
				elem = elem.Addr()
			}
			m, err := model.GetModel(elem.Interface())
			if err != nil {
				return err
			}
			if err := fn(elem.Interface(), m); err != nil {
				return err
			}
		}
		return nil
	}

	m, err := model.GetModel(records)
	if err != nil {
		return err
	}
	return fn(records, m)
}

// preloadSpecs recovers the load specification from a preload call's
// argument list.
func preloadSpecs(args []any) ([]query.PreloadSpec, bool) {
	if len(args) < 2 {
		return nil, false
	}
	specs, ok := args[1].([]query.PreloadSpec)
	return specs, ok
}
