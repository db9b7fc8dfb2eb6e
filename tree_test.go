package formstate_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/reoring/formstate"
)

func sampleTree() map[string]any {
	return map[string]any{
		"name": "Ada",
		"orders": []any{
			map[string]any{"sku": "A-1", "lineItems": []any{map[string]any{"qty": 1}}},
			map[string]any{"sku": "B-2", "lineItems": []any{}},
		},
	}
}

func TestGetByPath(t *testing.T) {
	tree := sampleTree()

	if v, ok := formstate.GetByPath(tree, formstate.MustParsePath("orders.0.lineItems.0.qty")); !ok || v != 1 {
		t.Fatalf("qty = %v, %v", v, ok)
	}
	if v, ok := formstate.GetByPath(tree, formstate.MustParsePath("orders.1.sku")); !ok || v != "B-2" {
		t.Fatalf("sku = %v, %v", v, ok)
	}

	for _, p := range []string{"missing", "orders.5.sku", "orders.0.nope", "name.first", "orders.sku"} {
		if _, ok := formstate.GetByPath(tree, formstate.MustParsePath(p)); ok {
			t.Fatalf("%s: expected missing node", p)
		}
	}
	if _, ok := formstate.GetByPath(tree, formstate.Path{formstate.Key("orders"), formstate.Index(-1)}); ok {
		t.Fatalf("negative index must not resolve")
	}
}

func TestSetByPath_CopyOnWrite(t *testing.T) {
	tree := sampleTree()

	out, err := formstate.SetByPath(tree, formstate.MustParsePath("orders.0.sku"), "Z-9")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got, _ := formstate.GetByPath(out, formstate.MustParsePath("orders.0.sku")); got != "Z-9" {
		t.Fatalf("new tree sku = %v", got)
	}
	if !reflect.DeepEqual(tree, sampleTree()) {
		t.Fatalf("the input tree changed: %v", tree)
	}

	// the untouched sibling is shared, not copied
	oldSibling := tree["orders"].([]any)[1].(map[string]any)
	newSibling := out.(map[string]any)["orders"].([]any)[1].(map[string]any)
	oldSibling["marker"] = true
	if newSibling["marker"] != true {
		t.Fatalf("untouched sibling was copied")
	}
}

func TestSetByPath_ImplicitCreate(t *testing.T) {
	t.Run("missing array becomes single element array", func(t *testing.T) {
		out, err := formstate.SetByPath(map[string]any{}, formstate.MustParsePath("tags.3"), "x")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if want := map[string]any{"tags": []any{"x"}}; !reflect.DeepEqual(out, want) {
			t.Fatalf("got %v, want %v", out, want)
		}
	})

	t.Run("index past the end appends", func(t *testing.T) {
		in := map[string]any{"tags": []any{"a", "b"}}
		out, err := formstate.SetByPath(in, formstate.MustParsePath("tags.7"), "c")
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if want := map[string]any{"tags": []any{"a", "b", "c"}}; !reflect.DeepEqual(out, want) {
			t.Fatalf("got %v, want %v", out, want)
		}
		if len(in["tags"].([]any)) != 2 {
			t.Fatalf("input array grew: %v", in["tags"])
		}
	})

	t.Run("missing objects are created", func(t *testing.T) {
		out, err := formstate.SetByPath(nil, formstate.MustParsePath("a.b"), 1)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if want := map[string]any{"a": map[string]any{"b": 1}}; !reflect.DeepEqual(out, want) {
			t.Fatalf("got %v, want %v", out, want)
		}
	})
}

func TestSetByPath_Invalid(t *testing.T) {
	tree := sampleTree()
	for _, p := range []formstate.Path{
		formstate.MustParsePath("orders.sku"),
		formstate.MustParsePath("name.first"),
		{formstate.Key("orders"), formstate.Index(-1), formstate.Key("sku")},
		{formstate.Key("fresh"), formstate.Index(-1)},
	} {
		if _, err := formstate.SetByPath(tree, p, "x"); !errors.Is(err, formstate.ErrInvalidPath) {
			t.Fatalf("%s: expected ErrInvalidPath, got %v", p, err)
		}
	}
}

func TestRemoveByPath(t *testing.T) {
	in := map[string]any{"tags": []any{"a", "b", "c", "d"}}

	out, err := formstate.RemoveByPath(in, formstate.MustParsePath("tags"), []int{1, 3, 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if want := map[string]any{"tags": []any{"a", "c"}}; !reflect.DeepEqual(out, want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	if want := []any{"a", "b", "c", "d"}; !reflect.DeepEqual(in["tags"], want) {
		t.Fatalf("input changed: %v", in["tags"])
	}

	if _, err := formstate.RemoveByPath(in, formstate.MustParsePath("missing"), []int{0}); !errors.Is(err, formstate.ErrArrayNotFound) {
		t.Fatalf("missing: expected ErrArrayNotFound, got %v", err)
	}
	if _, err := formstate.RemoveByPath(map[string]any{"tags": "x"}, formstate.MustParsePath("tags"), []int{0}); !errors.Is(err, formstate.ErrArrayNotFound) {
		t.Fatalf("scalar: expected ErrArrayNotFound, got %v", err)
	}
	if _, err := formstate.RemoveByPath(in, formstate.MustParsePath("tags"), []int{4}); !errors.Is(err, formstate.ErrInvalidPath) {
		t.Fatalf("out of range: expected ErrInvalidPath, got %v", err)
	}
}
