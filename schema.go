package formstate

import (
	"fmt"

	"github.com/reoring/formstate/rules"
)

// Kind classifies schema nodes.
type Kind int

const (
	KindField  Kind = iota // scalar or options field validated by a rule chain
	KindList               // nested list of objects
	KindObject             // an object level: the root or one list item
)

// Node is a schema entry: *FieldSchema, *ListSchema or *Schema.
type Node interface {
	Kind() Kind
}

// FieldType tags what kind of value a field holds.
type FieldType int

const (
	// FieldScalar holds a single value; it defaults to nil (unset).
	FieldScalar FieldType = iota
	// FieldOptions holds a flat sequence of plain values (multi-select); it
	// defaults to an empty sequence.
	FieldOptions
)

// FieldSchema validates a single field.
type FieldSchema struct {
	Type  FieldType
	Rules *rules.Chain
}

func (*FieldSchema) Kind() Kind { return KindField }

// ListSchema describes a nested list: the shape of every item and an optional
// chain applied to the list as a whole (e.g. "at least one item").
type ListSchema struct {
	Item  *Schema
	Rules *rules.Chain
}

func (*ListSchema) Kind() Kind { return KindList }

// Schema is an ordered mapping of field name to Node. It mirrors the shape of
// the data and must not be modified once handed to an engine.
type Schema struct {
	keys  []string
	nodes map[string]Node
}

// NewSchema returns an empty Schema.
func NewSchema() *Schema {
	return &Schema{nodes: map[string]Node{}}
}

func (*Schema) Kind() Kind { return KindObject }

// Field adds a scalar field. A nil chain means the field is never invalid.
func (s *Schema) Field(name string, chain *rules.Chain) *Schema {
	return s.Add(name, &FieldSchema{Type: FieldScalar, Rules: chain})
}

// Options adds a field holding a sequence of plain values.
func (s *Schema) Options(name string, chain *rules.Chain) *Schema {
	return s.Add(name, &FieldSchema{Type: FieldOptions, Rules: chain})
}

// List adds a nested list whose items follow item. listRules may be nil.
func (s *Schema) List(name string, item *Schema, listRules *rules.Chain) *Schema {
	if item == nil {
		item = NewSchema()
	}
	return s.Add(name, &ListSchema{Item: item, Rules: listRules})
}

// Add registers n under name. Re-adding a name replaces the node but keeps
// its original position.
func (s *Schema) Add(name string, n Node) *Schema {
	if _, exists := s.nodes[name]; !exists {
		s.keys = append(s.keys, name)
	}
	s.nodes[name] = n
	return s
}

// Get returns the node registered under name.
func (s *Schema) Get(name string) (Node, bool) {
	n, ok := s.nodes[name]
	return n, ok
}

// Keys returns field names in declaration order.
func (s *Schema) Keys() []string { return append([]string(nil), s.keys...) }

// Len reports the number of fields.
func (s *Schema) Len() int { return len(s.keys) }

// HasLists reports whether any top-level field is a nested list.
func (s *Schema) HasLists() bool {
	for _, k := range s.keys {
		if s.nodes[k].Kind() == KindList {
			return true
		}
	}
	return false
}

// Resolve walks the schema along p. Key segments select fields; an index
// segment is only valid directly below a ListSchema and moves into its item
// schema. The returned node is a *FieldSchema, a *ListSchema, or the item
// *Schema when p ends on a list index.
func (s *Schema) Resolve(p Path) (Node, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	var cur Node = s
	for i, seg := range p {
		switch n := cur.(type) {
		case *Schema:
			if seg.IsIndex() {
				return nil, fmt.Errorf("%w: index %d at %q where a field name is expected", ErrSchemaMismatch, seg.Index(), p[:i].String())
			}
			next, ok := n.nodes[seg.Key()]
			if !ok {
				return nil, fmt.Errorf("%w: no field %q at %q", ErrSchemaMismatch, seg.Key(), p[:i+1].String())
			}
			cur = next
		case *ListSchema:
			if !seg.IsIndex() {
				return nil, fmt.Errorf("%w: key %q at %q where an index is expected", ErrSchemaMismatch, seg.Key(), p[:i].String())
			}
			cur = n.Item
		default:
			return nil, fmt.Errorf("%w: %q is a field and has no children", ErrSchemaMismatch, p[:i].String())
		}
	}
	return cur, nil
}

// Defaults builds a value tree from the schema: lists and options fields
// become empty sequences, scalar fields nil.
func (s *Schema) Defaults() map[string]any {
	return s.normalize(nil)
}

// normalize fills every schema field missing from obj, recursing into list
// items. obj must be owned by the caller; it is modified in place. Keys not
// present in the schema are kept.
func (s *Schema) normalize(obj map[string]any) map[string]any {
	if obj == nil {
		obj = make(map[string]any, len(s.keys))
	}
	for _, k := range s.keys {
		switch n := s.nodes[k].(type) {
		case *FieldSchema:
			if _, ok := obj[k]; !ok && n.Type == FieldOptions {
				obj[k] = []any{}
			} else if !ok {
				obj[k] = nil
			}
		case *ListSchema:
			items, _ := obj[k].([]any)
			if items == nil {
				items = []any{}
			}
			for i, it := range items {
				if m, ok := it.(map[string]any); ok {
					items[i] = n.Item.normalize(m)
				}
			}
			obj[k] = items
		}
	}
	return obj
}

// misshapenLists returns the paths of lists in obj that hold something other
// than a []any. normalize replaces those values with an empty list.
func (s *Schema) misshapenLists(obj map[string]any, prefix Path) []string {
	var out []string
	for _, k := range s.keys {
		ls, ok := s.nodes[k].(*ListSchema)
		if !ok {
			continue
		}
		v, present := obj[k]
		if !present || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			out = append(out, prefix.Append(Key(k)).String())
			continue
		}
		for i, it := range items {
			if m, ok := it.(map[string]any); ok {
				out = append(out, ls.Item.misshapenLists(m, prefix.Append(Key(k), Index(i)))...)
			}
		}
	}
	return out
}

// fill returns obj with missing schema fields added, copying obj only when
// something is missing. Present values are never touched.
func (s *Schema) fill(obj map[string]any) map[string]any {
	var out map[string]any
	for _, k := range s.keys {
		if _, ok := obj[k]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(obj)+1)
			for key, v := range obj {
				out[key] = v
			}
		}
		switch n := s.nodes[k].(type) {
		case *FieldSchema:
			if n.Type == FieldOptions {
				out[k] = []any{}
			} else {
				out[k] = nil
			}
		case *ListSchema:
			out[k] = []any{}
		}
	}
	if out == nil {
		return obj
	}
	return out
}

// errorShape builds the error object mirroring obj: fields hold nil, lists
// hold one error object per item.
func (s *Schema) errorShape(obj map[string]any) map[string]any {
	out := make(map[string]any, len(s.keys))
	for _, k := range s.keys {
		switch n := s.nodes[k].(type) {
		case *FieldSchema:
			out[k] = nil
		case *ListSchema:
			items, _ := obj[k].([]any)
			out[k] = n.errorShape(items)
		}
	}
	return out
}

func (l *ListSchema) errorShape(items []any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		m, _ := it.(map[string]any)
		out[i] = l.Item.errorShape(m)
	}
	return out
}
