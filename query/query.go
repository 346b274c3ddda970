// Package query defines the declarative query specification consumed
// by persistence adapters. A Query describes what to read without
// referencing any particular entity instance.
package query

import (
	"fmt"

	"github.com/shrek82/jrepo/model"
)

// CondOp enumerates comparison operators a condition may use.
type CondOp string

const (
	OpEq   CondOp = "="
	OpNe   CondOp = "<>"
	OpGt   CondOp = ">"
	OpGte  CondOp = ">="
	OpLt   CondOp = "<"
	OpLte  CondOp = "<="
	OpLike CondOp = "LIKE"
	OpIn   CondOp = "IN"
)

// Cond is a single column comparison. Conditions on one Query are
// combined with AND.
type Cond struct {
	Column string
	Op     CondOp
	Value  any
}

// Order is a single ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Query is the declarative read specification. Build one with New and
// the chainable condition methods; a construction error is carried in
// the Query and surfaces via Err.
type Query struct {
	Model  *model.Model
	Conds  []Cond
	Orders []Order

	LimitN    int
	OffsetN   int
	HasLimit  bool
	HasOffset bool

	err error
}

// New starts a query for the entity type of the given value.
func New(value any) *Query {
	m, err := model.GetModel(value)
	return &Query{Model: m, err: err}
}

// Err returns the first error recorded while building the query.
func (q *Query) Err() error {
	return q.err
}

func (q *Query) cond(column string, op CondOp, value any) *Query {
	if q.Model != nil {
		if _, ok := q.Model.FieldMap[column]; !ok {
			if q.err == nil {
				q.err = fmt.Errorf("unknown column %q on %s", column, q.Model.TableName)
			}
			return q
		}
	}
	q.Conds = append(q.Conds, Cond{Column: column, Op: op, Value: value})
	return q
}

// Eq adds a column = value condition.
func (q *Query) Eq(column string, value any) *Query { return q.cond(column, OpEq, value) }

// Ne adds a column <> value condition.
func (q *Query) Ne(column string, value any) *Query { return q.cond(column, OpNe, value) }

// Gt adds a column > value condition.
func (q *Query) Gt(column string, value any) *Query { return q.cond(column, OpGt, value) }

// Gte adds a column >= value condition.
func (q *Query) Gte(column string, value any) *Query { return q.cond(column, OpGte, value) }

// Lt adds a column < value condition.
func (q *Query) Lt(column string, value any) *Query { return q.cond(column, OpLt, value) }

// Lte adds a column <= value condition.
func (q *Query) Lte(column string, value any) *Query { return q.cond(column, OpLte, value) }

// Like adds a column LIKE value condition.
func (q *Query) Like(column string, value any) *Query { return q.cond(column, OpLike, value) }

// In adds a column IN (values...) condition.
func (q *Query) In(column string, values ...any) *Query {
	return q.cond(column, OpIn, values)
}

// OrderBy appends an ORDER BY term.
func (q *Query) OrderBy(column string, desc bool) *Query {
	q.Orders = append(q.Orders, Order{Column: column, Desc: desc})
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.LimitN = n
	q.HasLimit = true
	return q
}

// Offset skips the first n rows.
func (q *Query) Offset(n int) *Query {
	q.OffsetN = n
	q.HasOffset = true
	return q
}

// PreloadSpec names a relation to eager-load, with optional nested
// specs applied to the loaded elements.
type PreloadSpec struct {
	Relation string
	Nested   []PreloadSpec
}

// Preload builds a PreloadSpec for the named relation.
func Preload(relation string, nested ...PreloadSpec) PreloadSpec {
	return PreloadSpec{Relation: relation, Nested: nested}
}
