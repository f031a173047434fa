package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidatorCleanPass(t *testing.T) {
	v := NewValidator().
		RequireNonEmpty("provider", "gemini").
		RequirePositive("limit", 8).
		RequirePositiveDuration("timeout", time.Second).
		ValidateRange("limit", 8, 1, 64).
		ValidateOneOf("provider", "gemini", "gemini", "openai", "claude").
		RequireNotNil("client", struct{}{})
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
	if err := v.Error(); err != nil {
		t.Fatalf("Error() = %v, want nil", err)
	}
}

func TestRequireNonEmpty(t *testing.T) {
	v := NewValidator().RequireNonEmpty("api key", "   ")
	if !v.HasErrors() {
		t.Fatal("whitespace-only value must fail")
	}
	if got := v.Errors()[0].Field; got != "api key" {
		t.Errorf("field = %q, want %q", got, "api key")
	}
}

func TestValidateRange(t *testing.T) {
	cases := []struct {
		value int
		ok    bool
	}{
		{0, false},
		{1, true},
		{64, true},
		{65, false},
	}
	for _, tc := range cases {
		v := NewValidator().ValidateRange("limit", tc.value, 1, 64)
		if v.HasErrors() == tc.ok {
			t.Errorf("value %d: HasErrors = %v, want %v", tc.value, v.HasErrors(), !tc.ok)
		}
	}
}

func TestValidateOneOf(t *testing.T) {
	if NewValidator().ValidateOneOf("provider", "openai", "gemini", "openai").HasErrors() {
		t.Error("allowed value rejected")
	}
	v := NewValidator().ValidateOneOf("provider", "cohere", "gemini", "openai")
	if !v.HasErrors() {
		t.Fatal("disallowed value accepted")
	}
	if msg := v.Errors()[0].Message; !strings.Contains(msg, `"cohere"`) {
		t.Errorf("message %q should name the rejected value", msg)
	}
}

func TestErrorAggregatesAllFailures(t *testing.T) {
	err := NewValidator().
		RequireNonEmpty("name", "").
		RequirePositive("count", -1).
		RequireNotNil("store", nil).
		Error()
	if err == nil {
		t.Fatal("expected combined error")
	}
	for _, field := range []string{"name", "count", "store"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("combined error missing field %q: %v", field, err)
		}
	}
}
