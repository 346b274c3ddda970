package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)
	numericRegex = regexp.MustCompile(`^[0-9]+$`)
)

// Required fails on zero values.
var Required Rule = &rule{check: func(v any) error {
	if isZeroValue(v) {
		return fmt.Errorf("is required")
	}
	return nil
}}

// MinLen fails when a string is shorter than min bytes.
func MinLen(min int) Rule {
	return &rule{check: func(v any) error {
		if s, ok := v.(string); ok && len(s) < min {
			return fmt.Errorf("length must be at least %d", min)
		}
		return nil
	}}
}

// MaxLen fails when a string is longer than max bytes.
func MaxLen(max int) Rule {
	return &rule{check: func(v any) error {
		if s, ok := v.(string); ok && len(s) > max {
			return fmt.Errorf("length must be at most %d", max)
		}
		return nil
	}}
}

// Range fails when a numeric value falls outside [min, max].
func Range(min, max float64) Rule {
	return &rule{check: func(v any) error {
		val := reflectToFloat(v)
		if val < min || val > max {
			return fmt.Errorf("value must be between %v and %v", min, max)
		}
		return nil
	}}
}

func reflectToFloat(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

// In fails when the value is not one of the allowed values.
func In(values ...any) Rule {
	return &rule{check: func(v any) error {
		for _, val := range values {
			if val == v {
				return nil
			}
		}
		return fmt.Errorf("value is not in the allowed list")
	}}
}

// Email fails on strings that are not plausible email addresses.
var Email Rule = &rule{check: func(v any) error {
	s, ok := v.(string)
	if !ok || !emailRegex.MatchString(strings.ToLower(s)) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}}

// Numeric fails on strings containing anything besides digits.
var Numeric Rule = &rule{check: func(v any) error {
	s, ok := v.(string)
	if !ok || !numericRegex.MatchString(s) {
		return fmt.Errorf("must be numeric")
	}
	return nil
}}

// Regexp fails on strings that do not match the pattern. The pattern
// must compile.
func Regexp(pattern string) Rule {
	re := regexp.MustCompile(pattern)
	return &rule{check: func(v any) error {
		s, ok := v.(string)
		if !ok || !re.MatchString(s) {
			return fmt.Errorf("does not match pattern")
		}
		return nil
	}}
}

// Contains fails on strings that do not contain substr.
func Contains(substr string) Rule {
	return &rule{check: func(v any) error {
		s, ok := v.(string)
		if !ok || !strings.Contains(s, substr) {
			return fmt.Errorf("must contain %s", substr)
		}
		return nil
	}}
}
