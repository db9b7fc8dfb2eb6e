package rules_test

import (
	"testing"

	"github.com/reoring/formstate/rules"
)

func TestWhen_Then(t *testing.T) {
	needsAddress := rules.When("shipping", rules.Eq, true).Then(rules.Required("address required"))

	if msg := needsAddress("", map[string]any{"shipping": true}); msg != "address required" {
		t.Fatalf("expected address required, got %q", msg)
	}
	if msg := needsAddress("", map[string]any{"shipping": false}); msg != "" {
		t.Fatalf("condition off: got %q", msg)
	}
	// missing field never matches
	if msg := needsAddress("", nil); msg != "" {
		t.Fatalf("nil entity: got %q", msg)
	}
}

func TestWhen_Operators(t *testing.T) {
	entity := map[string]any{
		"qty":   5,
		"price": 9.5,
		"kind":  "bulk",
		"meta":  map[string]any{"tags": []any{"a", "b"}},
	}
	tests := []struct {
		name string
		cond rules.Conditional
		want bool
	}{
		{name: "eq number across types", cond: rules.When("qty", rules.Eq, 5.0), want: true},
		{name: "ne", cond: rules.When("kind", rules.Ne, "single"), want: true},
		{name: "lt", cond: rules.When("price", rules.Lt, 10), want: true},
		{name: "le", cond: rules.When("qty", rules.Le, 4), want: false},
		{name: "gt", cond: rules.When("qty", rules.Gt, 1), want: true},
		{name: "ge non numeric", cond: rules.When("kind", rules.Ge, 1), want: false},
		{name: "nested path", cond: rules.When("meta.tags.1", rules.Eq, "b"), want: true},
		{name: "all", cond: rules.When("qty", rules.Gt, 1).And(rules.When("kind", rules.Eq, "bulk")), want: true},
		{name: "all fails", cond: rules.WhenAll(rules.When("qty", rules.Gt, 1), rules.When("kind", rules.Eq, "x")), want: false},
		{name: "any", cond: rules.When("qty", rules.Gt, 100).Or(rules.When("kind", rules.Eq, "bulk")), want: true},
		{name: "any fails", cond: rules.WhenAny(rules.When("qty", rules.Gt, 100)), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.cond.Then(fail("hit"))
			if got := rule(nil, entity) == "hit"; got != tt.want {
				t.Fatalf("matched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWhen_InChain(t *testing.T) {
	c := rules.New().
		MaxLength(10).
		ValidateWithEntity(rules.When("country", rules.Eq, "US").Then(rules.PhoneNumber()))

	if msg := c.Run("12345", map[string]any{"country": "US"}); msg != "Not a valid phone number" {
		t.Fatalf("US: got %q", msg)
	}
	if msg := c.Run("12345", map[string]any{"country": "JP"}); msg != "" {
		t.Fatalf("JP: got %q", msg)
	}
}
