package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ValidationErrors maps field names to the errors their rules produced.
type ValidationErrors map[string][]error

func (v ValidationErrors) Error() string {
	var sb strings.Builder
	for field, errs := range v {
		for _, err := range errs {
			if sb.Len() > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", field, err))
		}
	}
	return sb.String()
}

// Rule validates a single field value. Msg, Optional and When return
// configured copies; the shared rule values exported by this package
// are never mutated.
type Rule interface {
	Validate(value any) error
	Msg(msg string) Rule
	Optional() Rule
	When(fn func(value any) bool) Rule
}

type rule struct {
	check    func(value any) error
	msg      string
	optional bool
	when     func(value any) bool
}

func (r *rule) Validate(v any) error {
	if r.when != nil && !r.when(v) {
		return nil
	}
	if r.optional && isZeroValue(v) {
		return nil
	}
	if err := r.check(v); err != nil {
		if r.msg != "" {
			return errors.New(r.msg)
		}
		return err
	}
	return nil
}

func (r *rule) Msg(msg string) Rule {
	nr := *r
	nr.msg = msg
	return &nr
}

func (r *rule) Optional() Rule {
	nr := *r
	nr.optional = true
	return &nr
}

func (r *rule) When(fn func(any) bool) Rule {
	nr := *r
	nr.when = fn
	return &nr
}

func isZeroValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return reflect.DeepEqual(v, reflect.Zero(rv.Type()).Interface())
}

// Rules maps struct field names to their validation rules.
type Rules map[string][]Rule

// Validate runs every rule against the named fields of a struct or
// struct pointer and collects all failures.
func (r Rules) Validate(value any) error {
	if value == nil {
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("validator: value must be a struct or pointer to struct")
	}

	errors := make(ValidationErrors)

	for fieldName, rules := range r {
		field := rv.FieldByName(fieldName)
		if !field.IsValid() {
			continue
		}

		val := field.Interface()
		for _, rule := range rules {
			if err := rule.Validate(val); err != nil {
				errors[fieldName] = append(errors[fieldName], err)
			}
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
