package core

import (
	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/query"
)

// DeltaKind classifies the originating resource of a call.
type DeltaKind int

const (
	KindNone DeltaKind = iota
	KindChangeset
	KindQuery
	KindRecord
)

// Delta is the metadata handed to every after-hook: the operation and
// hook point that fired, the classified source of the call, and the
// repo the call ran on (so hooks can issue their own, guarded calls).
// It is built once per hook invocation from the resolution's
// pre-operation resource and never mutated afterwards.
type Delta struct {
	Op   Operation
	Hook Hook
	Kind DeltaKind

	// Exactly one of the following is populated, matching Kind.
	Changeset *Changeset
	Queryable any // *query.Query or *model.Model
	Record    any

	Repo *Repo
}

// Classify decides what kind of resource originated a call. Changesets
// are checked first: their record would otherwise classify as a
// persisted instance.
func Classify(resource any) DeltaKind {
	switch resource.(type) {
	case *Changeset:
		return KindChangeset
	case *query.Query:
		return KindQuery
	case *model.Model:
		return KindQuery
	}
	if model.Introspectable(resource) {
		return KindRecord
	}
	return KindNone
}

func newDelta(repo *Repo, op Operation, hook Hook, resource any) *Delta {
	d := &Delta{
		Op:   op,
		Hook: hook,
		Kind: Classify(resource),
		Repo: repo,
	}
	switch d.Kind {
	case KindChangeset:
		d.Changeset = resource.(*Changeset)
	case KindQuery:
		d.Queryable = resource
	case KindRecord:
		d.Record = resource
	}
	return d
}
