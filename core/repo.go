package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shrek82/jrepo/logger"
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// Repo is the interception layer over a backing Adapter. Every
// operation builds a Resolution, runs the resolved before chain over
// the input, invokes the adapter, and runs the after chain over each
// successful result value before returning it in the call's shape.
type Repo struct {
	name       string
	adapter    Adapter
	middleware MiddlewareFunc
	logger     logger.Logger
}

// Option configures a Repo at construction.
type Option func(*Repo)

// WithName sets the repository identity used in logs.
func WithName(name string) Option {
	return func(r *Repo) { r.name = name }
}

// WithMiddleware replaces the middleware resolution function. Passing
// nil yields the bare chain {Sentinel}: no interceptors, no lifecycle
// hooks, just the backing operation.
func WithMiddleware(fn MiddlewareFunc) Option {
	return func(r *Repo) { r.middleware = fn }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Repo) { r.logger = l }
}

// New creates a Repo over the given adapter. Without WithMiddleware the
// repo uses DefaultMiddleware, so lifecycle hooks run out of the box.
func New(adapter Adapter, opts ...Option) *Repo {
	r := &Repo{
		name:       "repo",
		adapter:    adapter,
		middleware: DefaultMiddleware,
		logger:     logger.NewStdLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the repository identity.
func (r *Repo) Name() string {
	return r.name
}

// SetLogger replaces the repo's logger.
func (r *Repo) SetLogger(l logger.Logger) {
	r.logger = l
}

// Middleware resolves the ordered interceptor chain for one
// (operation, resource) pair. A repo with a nil chain function resolves
// to {Sentinel}.
func (r *Repo) Middleware(op Operation, resource any) []Interceptor {
	if r.middleware == nil {
		return []Interceptor{Sentinel}
	}
	return r.middleware(op, resource)
}

// PartitionMiddleware resolves and splits the chain for one call shape.
func (r *Repo) PartitionMiddleware(op Operation, resource any) (before, after []Interceptor) {
	return Partition(r.Middleware(op, resource))
}

// Insert persists a new record built from a changeset or a bare entity
// pointer and returns the stored record.
func (r *Repo) Insert(ctx context.Context, resource any) (any, error) {
	return r.dispatch(ctx, OpInsert, resource)
}

// MustInsert is Insert panicking on error.
func (r *Repo) MustInsert(ctx context.Context, resource any) any {
	v, err := r.dispatch(ctx, OpMustInsert, resource)
	must(err)
	return v
}

// Update applies a changeset to an already persisted record.
func (r *Repo) Update(ctx context.Context, resource any) (any, error) {
	return r.dispatch(ctx, OpUpdate, resource)
}

// MustUpdate is Update panicking on error.
func (r *Repo) MustUpdate(ctx context.Context, resource any) any {
	v, err := r.dispatch(ctx, OpMustUpdate, resource)
	must(err)
	return v
}

// Delete removes a persisted record.
func (r *Repo) Delete(ctx context.Context, resource any) (any, error) {
	return r.dispatch(ctx, OpDelete, resource)
}

// MustDelete is Delete panicking on error.
func (r *Repo) MustDelete(ctx context.Context, resource any) any {
	v, err := r.dispatch(ctx, OpMustDelete, resource)
	must(err)
	return v
}

// InsertOrUpdate routes on the changeset state: newly built records are
// inserted, persisted ones updated. Hooks follow the same routing.
func (r *Repo) InsertOrUpdate(ctx context.Context, resource any) (any, error) {
	return r.dispatch(ctx, OpInsertOrUpdate, resource)
}

// MustInsertOrUpdate is InsertOrUpdate panicking on error.
func (r *Repo) MustInsertOrUpdate(ctx context.Context, resource any) any {
	v, err := r.dispatch(ctx, OpMustInsertOrUpdate, resource)
	must(err)
	return v
}

// One returns the single record matching the query, or nil when none
// does.
func (r *Repo) One(ctx context.Context, q *query.Query) (any, error) {
	return r.dispatch(ctx, OpOne, q)
}

// MustOne is One panicking on error, including ErrNotFound when no
// record matches.
func (r *Repo) MustOne(ctx context.Context, q *query.Query) any {
	v, err := r.dispatch(ctx, OpMustOne, q)
	must(err)
	if v == nil {
		panic(ErrNotFound)
	}
	return v
}

// Get returns the record of the prototype's entity type with the given
// primary key, or nil when absent. The prototype may be an entity value
// or a *model.Model.
func (r *Repo) Get(ctx context.Context, prototype any, key any) (any, error) {
	m, err := asModel(prototype)
	if err != nil {
		return nil, err
	}
	return r.dispatch(ctx, OpGet, m, key)
}

// MustGet is Get panicking on error, including ErrNotFound when the key
// does not exist.
func (r *Repo) MustGet(ctx context.Context, prototype any, key any) any {
	m, err := asModel(prototype)
	must(err)
	v, err := r.dispatch(ctx, OpMustGet, m, key)
	must(err)
	if v == nil {
		panic(ErrNotFound)
	}
	return v
}

// All returns every record matching the query. The after chain runs per
// element; zero matches means zero after-phase invocations.
func (r *Repo) All(ctx context.Context, q *query.Query) ([]any, error) {
	v, err := r.dispatch(ctx, OpAll, q)
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

// Reload re-reads a record from storage by its primary key and returns
// the fresh copy, or nil when it no longer exists.
func (r *Repo) Reload(ctx context.Context, record any) (any, error) {
	return r.dispatch(ctx, OpReload, record)
}

// MustReload is Reload panicking on error, including ErrNotFound when
// the record is gone.
func (r *Repo) MustReload(ctx context.Context, record any) any {
	v, err := r.dispatch(ctx, OpMustReload, record)
	must(err)
	if v == nil {
		panic(ErrNotFound)
	}
	return v
}

// Preload eager-loads the requested relation specs into the given
// records (a pointer to a struct or to a slice of structs), applying
// the AfterGet hook to every loaded element at every requested nesting
// level.
func (r *Repo) Preload(ctx context.Context, records any, specs ...query.PreloadSpec) error {
	_, err := r.dispatch(ctx, OpPreload, records, specs)
	return err
}

// dispatch is the single execution path shared by all operations:
// resolve and partition the chain, fold the before chain, invoke the
// adapter, fold the after chain per the operation's result shape.
func (r *Repo) dispatch(ctx context.Context, op Operation, args ...any) (any, error) {
	if r.adapter == nil {
		return nil, ErrNoAdapter
	}

	ctx = WithHookState(ctx)
	st := hookStateFrom(ctx)
	if st.refs == 0 {
		// Top-level call: any local hook override set during this
		// dispatch (by a hook disabling itself) must not leak out.
		defer func() { st.local = nil }()
	}

	start := time.Now()
	defer func() {
		if r.logger != nil {
			r.logger.Op(string(op), time.Since(start), args...)
		}
	}()

	// Upserts route hooks on the record's persisted state, which must be
	// captured before the backing call assigns a key.
	if op.Base() == OpInsertOrUpdate && len(args) > 0 {
		if cs, err := asChangeset(args[0]); err == nil {
			args[0] = cs
		}
	}

	res := newResolution(r, op, args)

	out, err := res.runBefore(ctx)
	if err != nil {
		return nil, err
	}

	value, err := r.callAdapter(ctx, op, out, args)
	if err != nil {
		// After-phase logic only ever sees successful outcomes.
		return nil, err
	}

	switch op.shape() {
	case shapeNilable:
		if value == nil {
			return nil, nil
		}
		return res.runAfter(ctx, value)
	case shapeList:
		list := value.([]any)
		outList := make([]any, 0, len(list))
		for _, elem := range list {
			er := res.forElement()
			v, err := er.runAfter(ctx, elem)
			if err != nil {
				return nil, err
			}
			outList = append(outList, v)
		}
		return outList, nil
	default:
		return res.runAfter(ctx, value)
	}
}

// callAdapter invokes the backing operation with the before chain's
// output substituted for the original first argument.
func (r *Repo) callAdapter(ctx context.Context, op Operation, input any, args []any) (any, error) {
	switch op.Base() {
	case OpInsert:
		cs, err := applyChangeset(input)
		if err != nil {
			return nil, err
		}
		return r.adapter.Insert(ctx, cs)
	case OpUpdate:
		cs, err := applyChangeset(input)
		if err != nil {
			return nil, err
		}
		return r.adapter.Update(ctx, cs)
	case OpInsertOrUpdate:
		cs, err := applyChangeset(input)
		if err != nil {
			return nil, err
		}
		if cs.Persisted() {
			return r.adapter.Update(ctx, cs)
		}
		return r.adapter.Insert(ctx, cs)
	case OpDelete:
		cs, err := asChangeset(input)
		if err != nil {
			return nil, err
		}
		return r.adapter.Delete(ctx, cs)
	case OpOne:
		q, err := asQuery(input)
		if err != nil {
			return nil, err
		}
		return r.adapter.One(ctx, q)
	case OpGet:
		m, ok := input.(*model.Model)
		if !ok || len(args) < 2 {
			return nil, ErrInvalidResource
		}
		return r.adapter.Get(ctx, m, args[1])
	case OpAll:
		q, err := asQuery(input)
		if err != nil {
			return nil, err
		}
		list, err := r.adapter.All(ctx, q)
		if err != nil {
			return nil, err
		}
		return list, nil
	case OpReload:
		return r.adapter.Reload(ctx, input)
	case OpPreload:
		specs, ok := preloadSpecs(args)
		if !ok {
			return nil, ErrInvalidResource
		}
		if err := r.adapter.Preload(ctx, input, specs); err != nil {
			return nil, err
		}
		return input, nil
	}
	return nil, fmt.Errorf("unsupported operation %q", op)
}

func applyChangeset(resource any) (*Changeset, error) {
	cs, err := asChangeset(resource)
	if err != nil {
		return nil, err
	}
	if err := cs.apply(); err != nil {
		return nil, err
	}
	return cs, nil
}

func asQuery(resource any) (*query.Query, error) {
	q, ok := resource.(*query.Query)
	if !ok {
		return nil, ErrInvalidResource
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

func asModel(prototype any) (*model.Model, error) {
	if m, ok := prototype.(*model.Model); ok {
		return m, nil
	}
	return model.GetModel(prototype)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
