package model

import (
	"fmt"
	"reflect"
	"sync"
	"unicode"
)

// Model represents the persisted metadata of an entity struct.
type Model struct {
	TableName string
	Type      reflect.Type // Underlying struct type
	Fields    []*Field
	FieldMap  map[string]*Field
	PKField   *Field
	Relations map[string]*Relation
}

var modelCache sync.Map

// GetModel returns the cached metadata for a given entity value.
// The value must be a struct or a pointer to a struct.
func GetModel(value any) (*Model, error) {
	if value == nil {
		return nil, fmt.Errorf("value is nil")
	}

	typ := reflect.TypeOf(value)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("value must be a struct or pointer to struct, got %s", typ.Kind())
	}

	key := typ.PkgPath() + "." + typ.Name()
	if cached, ok := modelCache.Load(key); ok {
		return cached.(*Model), nil
	}

	m, err := parseModel(typ)
	if err != nil {
		return nil, err
	}

	modelCache.Store(key, m)
	return m, nil
}

// Introspectable reports whether a value exposes persisted metadata,
// i.e. whether GetModel would succeed for it.
func Introspectable(value any) bool {
	if value == nil {
		return false
	}
	typ := reflect.TypeOf(value)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return false
	}
	_, err := GetModel(value)
	return err == nil
}

func parseModel(typ reflect.Type) (*Model, error) {
	m := &Model{
		TableName: camelToSnake(typ.Name()),
		Type:      typ,
		FieldMap:  make(map[string]*Field),
		Relations: make(map[string]*Relation),
	}

	for i := 0; i < typ.NumField(); i++ {
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}

		tagStr := structField.Tag.Get("jrepo")
		tag := ParseTag(tagStr)
		if tag.Skip {
			continue
		}

		if kind := relationKind(tag, structField.Type); kind != relationNone {
			rel, err := parseRelation(m, structField, i, tag, kind)
			if err != nil {
				return nil, err
			}
			m.Relations[structField.Name] = rel
			continue
		}

		columnName := tag.Column
		if columnName == "" {
			columnName = camelToSnake(structField.Name)
		}

		field := &Field{
			Name:       structField.Name,
			Column:     columnName,
			Type:       structField.Type,
			Index:      i,
			IsPK:       tag.PrimaryKey,
			IsAuto:     tag.AutoInc,
			AutoTime:   tag.AutoTime,
			AutoUpdate: tag.AutoUpdate,
			Tag:        tagStr,
		}

		m.Fields = append(m.Fields, field)
		m.FieldMap[columnName] = field

		if field.IsPK {
			m.PKField = field
		}
	}

	return m, nil
}

// New returns a pointer to a fresh zero value of the model's struct type.
func (m *Model) New() any {
	return reflect.New(m.Type).Interface()
}

// PKValue extracts the primary key value of a record of this model.
// The second return is false when the model has no primary key or the
// key holds its zero value.
func (m *Model) PKValue(record any) (any, bool) {
	if m.PKField == nil {
		return nil, false
	}
	val := reflect.ValueOf(record)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	fv := val.Field(m.PKField.Index)
	return fv.Interface(), !fv.IsZero()
}

func camelToSnake(s string) string {
	if s == "ID" {
		return "id"
	}
	var res []rune
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rune(s[i-1])) || (i+1 < len(s) && unicode.IsLower(rune(s[i+1])))) {
				res = append(res, '_')
			}
			res = append(res, unicode.ToLower(r))
		} else {
			res = append(res, r)
		}
	}
	return string(res)
}
