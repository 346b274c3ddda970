package model

import (
	"fmt"
	"reflect"
	"time"
)

type RelationKind int

const (
	relationNone RelationKind = iota
	RelationHasOne
	RelationHasMany
	RelationBelongsTo
)

// Relation describes a link from one entity struct to another, parsed
// from the field's tag. The related model is resolved lazily because
// two models may reference each other.
type Relation struct {
	Name       string       // Field name on the owning struct
	Kind       RelationKind
	FieldIndex int          // Struct field index of the relation field
	Elem       reflect.Type // Related struct type (slice element for has_many)
	ForeignKey string       // Column holding the key on the many side
	References string       // Column referenced on the one side
}

// Model returns the metadata of the related entity type.
func (r *Relation) Model() (*Model, error) {
	return GetModel(reflect.New(r.Elem).Interface())
}

// GetRelation looks up a relation by field name.
func (m *Model) GetRelation(name string) (*Relation, error) {
	if rel, ok := m.Relations[name]; ok {
		return rel, nil
	}
	return nil, fmt.Errorf("relation %q not found on %s", name, m.TableName)
}

var timeType = reflect.TypeOf(time.Time{})

// relationKind decides whether a struct field is a relation rather than
// a column. Explicit tags win; otherwise slice-of-struct fields are
// has_many and bare struct (non-time) fields are belongs_to.
func relationKind(tag *Tag, typ reflect.Type) RelationKind {
	switch tag.RelationKind {
	case "has_one":
		return RelationHasOne
	case "has_many":
		return RelationHasMany
	case "belongs_to":
		return RelationBelongsTo
	}

	elem := typ
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Slice {
		inner := elem.Elem()
		for inner.Kind() == reflect.Ptr {
			inner = inner.Elem()
		}
		if inner.Kind() == reflect.Struct && inner != timeType {
			return RelationHasMany
		}
		return relationNone
	}
	if elem.Kind() == reflect.Struct && elem != timeType && tag.Column == "" && !tag.PrimaryKey {
		return RelationBelongsTo
	}
	return relationNone
}

func parseRelation(m *Model, sf reflect.StructField, index int, tag *Tag, kind RelationKind) (*Relation, error) {
	elem := sf.Type
	for elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Slice {
		elem = elem.Elem()
		for elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
	}
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("relation field %s.%s must be a struct or slice of structs", m.TableName, sf.Name)
	}

	rel := &Relation{
		Name:       sf.Name,
		Kind:       kind,
		FieldIndex: index,
		Elem:       elem,
		ForeignKey: tag.ForeignKey,
		References: tag.References,
	}

	switch kind {
	case RelationHasOne, RelationHasMany:
		if rel.ForeignKey == "" {
			rel.ForeignKey = m.TableName + "_id"
		}
		if rel.References == "" {
			rel.References = "id"
		}
	case RelationBelongsTo:
		if rel.ForeignKey == "" {
			rel.ForeignKey = camelToSnake(sf.Name) + "_id"
		}
		if rel.References == "" {
			rel.References = "id"
		}
	}

	return rel, nil
}
