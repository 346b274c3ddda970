package validator

import (
	"strings"
	"testing"
)

type signupForm struct {
	Name  string
	Email string
	Age   int
	Bio   string
}

func TestRulesValidate(t *testing.T) {
	rules := Rules{
		"Name":  {Required, MinLen(2)},
		"Email": {Required, Email},
		"Age":   {Range(18, 120)},
	}

	err := rules.Validate(&signupForm{Name: "jo", Email: "jo@example.com", Age: 30})
	if err != nil {
		t.Fatalf("valid form rejected: %v", err)
	}

	err = rules.Validate(&signupForm{Name: "", Email: "bad", Age: 5})
	if err == nil {
		t.Fatalf("invalid form accepted")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(verrs["Name"]) != 2 {
		t.Errorf("Name errors = %v, want required and min length", verrs["Name"])
	}
	if len(verrs["Email"]) != 1 {
		t.Errorf("Email errors = %v", verrs["Email"])
	}
	if len(verrs["Age"]) != 1 {
		t.Errorf("Age errors = %v", verrs["Age"])
	}
}

func TestRulesValidateNilAndNonStruct(t *testing.T) {
	rules := Rules{"Name": {Required}}
	if err := rules.Validate(nil); err != nil {
		t.Errorf("nil value should validate: %v", err)
	}
	if err := rules.Validate("text"); err == nil {
		t.Errorf("non-struct value should be rejected")
	}
}

func TestRulesSkipUnknownField(t *testing.T) {
	rules := Rules{"Missing": {Required}}
	if err := rules.Validate(&signupForm{}); err != nil {
		t.Errorf("unknown field should be skipped: %v", err)
	}
}

func TestOptional(t *testing.T) {
	rule := Email.Optional()
	if err := rule.Validate(""); err != nil {
		t.Errorf("optional rule should skip zero values: %v", err)
	}
	if err := rule.Validate("not-an-email"); err == nil {
		t.Errorf("optional rule should still run on non-zero values")
	}
}

func TestMsg(t *testing.T) {
	rule := Required.Msg("give us a name")
	err := rule.Validate("")
	if err == nil || err.Error() != "give us a name" {
		t.Errorf("custom message not used: %v", err)
	}

	// The shared rule must stay untouched.
	if err := Required.Validate(""); err == nil || err.Error() == "give us a name" {
		t.Errorf("configuring a copy mutated the shared rule: %v", err)
	}
}

func TestWhen(t *testing.T) {
	rule := MinLen(5).When(func(v any) bool {
		s, _ := v.(string)
		return strings.HasPrefix(s, "x")
	})
	if err := rule.Validate("ab"); err != nil {
		t.Errorf("rule should be skipped when the condition is false: %v", err)
	}
	if err := rule.Validate("xab"); err == nil {
		t.Errorf("rule should run when the condition is true")
	}
}

func TestAssortedRules(t *testing.T) {
	if err := MaxLen(3).Validate("abcd"); err == nil {
		t.Errorf("MaxLen should fail on long strings")
	}
	if err := In("a", "b").Validate("c"); err == nil {
		t.Errorf("In should fail on values outside the list")
	}
	if err := In("a", "b").Validate("b"); err != nil {
		t.Errorf("In failed on an allowed value: %v", err)
	}
	if err := Numeric.Validate("123"); err != nil {
		t.Errorf("Numeric failed on digits: %v", err)
	}
	if err := Numeric.Validate("12a"); err == nil {
		t.Errorf("Numeric should fail on non-digits")
	}
	if err := Regexp(`^[a-z]+$`).Validate("abc"); err != nil {
		t.Errorf("Regexp failed on a match: %v", err)
	}
	if err := Contains("@").Validate("user@host"); err != nil {
		t.Errorf("Contains failed: %v", err)
	}
}
