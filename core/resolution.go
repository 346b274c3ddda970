package core

import (
	"context"
)

// Phase tells an interceptor which side of the backing operation it is
// running on.
type Phase int

const (
	PhaseBefore Phase = iota
	PhaseAfter
)

// Resolution is the per-call context threaded through an interceptor
// chain. It is created fresh for every dispatched operation and owned
// exclusively by that call; for list results the dispatcher clones it
// per element so each element gets its own after pair while sharing the
// before-phase results.
type Resolution struct {
	Repo *Repo
	Op   Operation
	Args []any // Original argument list, first argument included

	Chain       []Interceptor
	BeforeChain []Interceptor
	AfterChain  []Interceptor

	// BeforeInput is the call's original first argument; BeforeOutput is
	// set once the before chain has completed.
	BeforeInput  any
	BeforeOutput any

	// AfterInput is the successful backing-operation value handed to the
	// after chain; AfterOutput is set once the after chain has completed.
	AfterInput  any
	AfterOutput any

	phase Phase
}

func newResolution(repo *Repo, op Operation, args []any) *Resolution {
	r := &Resolution{Repo: repo, Op: op, Args: args}
	var resource any
	if len(args) > 0 {
		resource = args[0]
	}
	r.Chain = repo.Middleware(op, resource)
	r.BeforeChain, r.AfterChain = Partition(r.Chain)
	r.BeforeInput = resource
	return r
}

// Phase reports which phase the chain is currently executing.
func (r *Resolution) Phase() Phase {
	return r.phase
}

// Resource returns the pre-operation resource: the before chain's
// output once it exists, otherwise the original first argument. Deltas
// for after-hooks are classified from this value.
func (r *Resolution) Resource() any {
	if r.BeforeOutput != nil {
		return r.BeforeOutput
	}
	return r.BeforeInput
}

// runBefore folds the before chain left to right over the original
// first argument and records the result as BeforeOutput.
func (r *Resolution) runBefore(ctx context.Context) (any, error) {
	r.phase = PhaseBefore
	acc := r.BeforeInput
	for _, ic := range r.BeforeChain {
		next, err := ic.Apply(ctx, acc, r)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	r.BeforeOutput = acc
	return acc, nil
}

// runAfter folds the after chain left to right over one successful
// backing-operation value and records the result as AfterOutput.
func (r *Resolution) runAfter(ctx context.Context, value any) (any, error) {
	r.phase = PhaseAfter
	r.AfterInput = value
	acc := value
	for _, ic := range r.AfterChain {
		next, err := ic.Apply(ctx, acc, r)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	r.AfterOutput = acc
	return acc, nil
}

// forElement clones the resolution for one element of a list result,
// sharing the before-phase outputs and chains.
func (r *Resolution) forElement() *Resolution {
	clone := *r
	clone.AfterInput = nil
	clone.AfterOutput = nil
	return &clone
}
