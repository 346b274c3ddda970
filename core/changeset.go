package core

import (
	"fmt"
	"reflect"

	"github.com/shrek82/jrepo/model"
	"github.com/shrek82/jrepo/validator"
)

// ChangesetState tags whether the changeset's record has been persisted
// before. InsertOrUpdate routes on it: a Built changeset takes the
// insert path, a Loaded one the update path.
type ChangesetState int

const (
	StateBuilt ChangesetState = iota
	StateLoaded
)

// Changeset is the pending-change descriptor: a proposed, not yet
// applied mutation of one record, together with optional declarative
// field rules checked before the backing operation runs.
type Changeset struct {
	Model   *model.Model
	Record  any            // pointer to the entity struct
	Changes map[string]any // column name -> new value
	State   ChangesetState
	Rules   validator.Rules
}

// Change builds a changeset for a record with the given column changes.
// The record must be a pointer to an entity struct; the state tag is
// inferred from the primary key (zero key means newly built).
func Change(record any, changes map[string]any) (*Changeset, error) {
	m, err := model.GetModel(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResource, err)
	}
	if reflect.ValueOf(record).Kind() != reflect.Ptr {
		return nil, fmt.Errorf("%w: record must be a pointer", ErrInvalidResource)
	}

	for column := range changes {
		if _, ok := m.FieldMap[column]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidChangeset, column)
		}
	}

	state := StateBuilt
	if _, set := m.PKValue(record); set {
		state = StateLoaded
	}

	return &Changeset{
		Model:   m,
		Record:  record,
		Changes: changes,
		State:   state,
	}, nil
}

// Validate attaches declarative field rules to the changeset. They run
// when the changeset is applied, before the backing operation.
func (c *Changeset) Validate(rules validator.Rules) *Changeset {
	c.Rules = rules
	return c
}

// Persisted reports whether the record was already stored when the
// changeset was built.
func (c *Changeset) Persisted() bool {
	return c.State == StateLoaded
}

// apply copies the pending changes onto the record and runs the
// attached rules. Called by the dispatcher right before the backing
// operation; a failure here means the backing operation never runs.
func (c *Changeset) apply() error {
	val := reflect.ValueOf(c.Record).Elem()
	for column, change := range c.Changes {
		field := c.Model.FieldMap[column]
		fv := val.Field(field.Index)
		cv := reflect.ValueOf(change)
		if !cv.IsValid() {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		if !cv.Type().AssignableTo(fv.Type()) {
			if !cv.Type().ConvertibleTo(fv.Type()) {
				return fmt.Errorf("%w: cannot assign %T to column %q", ErrInvalidChangeset, change, column)
			}
			cv = cv.Convert(fv.Type())
		}
		fv.Set(cv)
	}

	if c.Rules != nil {
		if err := c.Rules.Validate(c.Record); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidChangeset, err)
		}
	}
	return nil
}

// asChangeset normalizes an operation's resource: a *Changeset passes
// through, a bare entity pointer is wrapped in an empty changeset.
func asChangeset(resource any) (*Changeset, error) {
	switch v := resource.(type) {
	case *Changeset:
		return v, nil
	case nil:
		return nil, ErrInvalidResource
	default:
		return Change(resource, nil)
	}
}
