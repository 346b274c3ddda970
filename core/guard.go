package core

import (
	"context"
	"sync/atomic"
)

// hookState is the re-entrancy state for one call stack. It lives in
// the context so every concurrent caller gets an independent copy; all
// phases of a dispatch run on the caller's goroutine, so no locking is
// needed on the state itself.
type hookState struct {
	refs  int   // hook nesting depth
	local *bool // call-local enable override, nil when unset
}

type hookStateKey struct{}

// globalHooksOff is the process-wide enable layer. It only applies when
// no call-local override is set.
var globalHooksOff atomic.Bool

// WithHookState returns a context carrying re-entrancy state, installing
// a fresh state when the context has none. Every dispatch entry point
// calls this, so passing a plain context.Background() works.
func WithHookState(ctx context.Context) context.Context {
	if hookStateFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, hookStateKey{}, &hookState{})
}

func hookStateFrom(ctx context.Context) *hookState {
	if ctx == nil {
		return nil
	}
	st, _ := ctx.Value(hookStateKey{}).(*hookState)
	return st
}

// HooksEnabled reports whether lifecycle hooks would currently run on
// this call stack. A call-local override always wins; otherwise the
// global layer applies, defaulting to enabled.
func HooksEnabled(ctx context.Context) bool {
	if st := hookStateFrom(ctx); st != nil && st.local != nil {
		return *st.local
	}
	return !globalHooksOff.Load()
}

// InHook reports whether a lifecycle hook is executing on this call
// stack. Exposed for introspection and tests only.
func InHook(ctx context.Context) bool {
	return HooksRefCount(ctx) > 0
}

// HooksRefCount returns the current hook nesting depth for this call
// stack.
func HooksRefCount(ctx context.Context) int {
	if st := hookStateFrom(ctx); st != nil {
		return st.refs
	}
	return 0
}

// EnableHooks enables lifecycle hooks process-wide.
func EnableHooks() {
	globalHooksOff.Store(false)
}

// DisableHooks disables lifecycle hooks process-wide. Call-local
// overrides still take precedence.
func DisableHooks() {
	globalHooksOff.Store(true)
}

// EnableHooksLocal sets the call-local enable override. The override is
// transient: it is cleared when the enclosing top-level operation
// dispatch returns.
func EnableHooksLocal(ctx context.Context) context.Context {
	return setLocal(ctx, true)
}

// DisableHooksLocal sets the call-local disable override. Like
// EnableHooksLocal, it does not outlive the current top-level dispatch.
func DisableHooksLocal(ctx context.Context) context.Context {
	return setLocal(ctx, false)
}

func setLocal(ctx context.Context, enabled bool) context.Context {
	st := hookStateFrom(ctx)
	if st == nil {
		st = &hookState{}
		ctx = context.WithValue(ctx, hookStateKey{}, st)
	}
	st.local = &enabled
	return ctx
}

// acquire marks a hook invocation as running: it bumps the nesting
// counter and disables hooks locally so the hook's own repository calls
// do not re-enter the dispatcher. The returned release restores the
// previous state and must run on every exit path.
func (st *hookState) acquire() (release func()) {
	prev := st.local
	st.refs++
	off := false
	st.local = &off
	return func() {
		st.refs--
		if st.refs < 0 {
			st.refs = 0
		}
		st.local = prev
	}
}
