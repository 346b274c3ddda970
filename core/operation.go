package core

import (
	"strings"
)

// Operation identifies the kind of repository call being dispatched.
// It is attached to every Resolution and never changes during a call.
//
// The "!" variants are the raising forms: they panic with the
// underlying error instead of returning it (the Must* entry points).
type Operation string

const (
	OpInsert             Operation = "insert"
	OpMustInsert         Operation = "insert!"
	OpOne                Operation = "one"
	OpMustOne            Operation = "one!"
	OpGet                Operation = "get"
	OpMustGet            Operation = "get!"
	OpAll                Operation = "all"
	OpUpdate             Operation = "update"
	OpMustUpdate         Operation = "update!"
	OpDelete             Operation = "delete"
	OpMustDelete         Operation = "delete!"
	OpInsertOrUpdate     Operation = "insert_or_update"
	OpMustInsertOrUpdate Operation = "insert_or_update!"
	OpReload             Operation = "reload"
	OpMustReload         Operation = "reload!"
	OpPreload            Operation = "preload"
)

// Raising reports whether the operation is a Must variant.
func (o Operation) Raising() bool {
	return strings.HasSuffix(string(o), "!")
}

// Base strips the raising marker so both variants of an operation share
// dispatch and hook behavior.
func (o Operation) Base() Operation {
	return Operation(strings.TrimSuffix(string(o), "!"))
}

// resultShape describes how the backing operation's outcome is carried
// through the after phase and re-wrapped for the caller.
type resultShape int

const (
	// shapeValue: a single record; the after chain folds over it once.
	shapeValue resultShape = iota
	// shapeNilable: a single record that may legitimately be absent;
	// an absent result skips the after phase entirely.
	shapeNilable
	// shapeList: a slice of records; the after chain folds over each
	// element with a fresh after-input/after-output pair.
	shapeList
	// shapeGraph: a record graph mutated in place (eager loading); the
	// after chain folds once over the whole graph.
	shapeGraph
)

// shapes is the dispatch table keyed by base operation.
var shapes = map[Operation]resultShape{
	OpInsert:         shapeValue,
	OpUpdate:         shapeValue,
	OpDelete:         shapeValue,
	OpInsertOrUpdate: shapeValue,
	OpOne:            shapeNilable,
	OpGet:            shapeNilable,
	OpReload:         shapeNilable,
	OpAll:            shapeList,
	OpPreload:        shapeGraph,
}

func (o Operation) shape() resultShape {
	return shapes[o.Base()]
}

// Hook identifies one of the seven lifecycle hook points.
type Hook string

const (
	HookBeforeInsert Hook = "before_insert"
	HookBeforeUpdate Hook = "before_update"
	HookBeforeDelete Hook = "before_delete"
	HookAfterInsert  Hook = "after_insert"
	HookAfterUpdate  Hook = "after_update"
	HookAfterDelete  Hook = "after_delete"
	HookAfterGet     Hook = "after_get"
)
