package core

import (
	"context"
)

// Interceptor is one link in an operation's middleware chain. Apply
// receives the value flowing through the current phase and may return
// a replacement; returning an error aborts the remaining chain and the
// whole call.
type Interceptor interface {
	Apply(ctx context.Context, value any, r *Resolution) (any, error)
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, value any, r *Resolution) (any, error)

func (f InterceptorFunc) Apply(ctx context.Context, value any, r *Resolution) (any, error) {
	return f(ctx, value, r)
}

// Sentinel marks the point in a configured chain where the backing
// operation runs: interceptors before it form the before chain,
// interceptors after it the after chain. It performs no transformation
// and must appear at most once per chain.
var Sentinel Interceptor = sentinel{}

type sentinel struct{}

func (sentinel) Apply(ctx context.Context, value any, r *Resolution) (any, error) {
	return value, nil
}

// MiddlewareFunc resolves the ordered interceptor chain for one call.
// It is consulted once per dispatch with the operation and the call's
// originating resource.
type MiddlewareFunc func(op Operation, resource any) []Interceptor

// DefaultMiddleware is installed on repos constructed without an
// explicit chain: lifecycle hooks on both sides of the backing call.
func DefaultMiddleware(op Operation, resource any) []Interceptor {
	return []Interceptor{LifecycleHooks, Sentinel, LifecycleHooks}
}

// Partition splits a chain at the first Sentinel occurrence, preserving
// order on both sides. A chain with no Sentinel partitions into an
// empty before chain and the whole list as the after chain.
func Partition(chain []Interceptor) (before, after []Interceptor) {
	for i, ic := range chain {
		if _, ok := ic.(sentinel); ok {
			return chain[:i], chain[i+1:]
		}
	}
	return nil, chain
}
