// Package schemafile loads form schemas declared in YAML.
//
// A document maps field names to field specs, in order:
//
//	name:
//	  rules: [required, {maxLength: 50}]
//	email:
//	  rules:
//	    - required
//	    - rule: validEmailAddress
//	      message: Please enter a work email
//	colors:
//	  type: options
//	  rules: [{minArrayOptions: 1}]
//	orders:
//	  type: list
//	  rules: [{minArrayOptions: 1}]
//	  item:
//	    sku:
//	      rules: [required]
//
// A field with no spec (`nickname:`) has no rules. A rule is a bare name, a
// single-key map of name to arguments, or a map with rule, args and message.
package schemafile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate"
	"github.com/reoring/formstate/rules"
)

// ErrInvalidSchema is returned for documents that do not describe a schema.
var ErrInvalidSchema = errors.New("schemafile: invalid schema")

// DuplicateKeyError reports a key declared twice in the same mapping.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	Line      int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("schemafile: duplicate key %q at line %d (first at line %d)", e.Key, e.Line, e.FirstLine)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrInvalidSchema }

// LoadFile reads and parses the schema file at path.
func LoadFile(path string) (*formstate.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemafile: read %s: %w", path, err)
	}
	return Load(data)
}

// Load parses a YAML schema document.
func Load(data []byte) (*formstate.Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidSchema)
	}
	return objectSchema(doc.Content[0])
}

func objectSchema(n *yaml.Node) (*formstate.Schema, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of fields", ErrInvalidSchema, n.Line)
	}
	s := formstate.NewSchema()
	err := eachPair(n, func(key string, val *yaml.Node) error {
		node, err := fieldNode(key, val)
		if err != nil {
			return err
		}
		s.Add(key, node)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

type fieldSpec struct {
	Type  string
	Rules *yaml.Node
	Item  *yaml.Node
}

func fieldNode(name string, n *yaml.Node) (formstate.Node, error) {
	if isNull(n) {
		return &formstate.FieldSchema{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: field %q must be a mapping", ErrInvalidSchema, n.Line, name)
	}
	var spec fieldSpec
	err := eachPair(n, func(key string, val *yaml.Node) error {
		switch key {
		case "type":
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("%w: line %d: field %q: type must be a name", ErrInvalidSchema, val.Line, name)
			}
			spec.Type = val.Value
		case "rules":
			spec.Rules = val
		case "item":
			spec.Item = val
		default:
			return fmt.Errorf("%w: line %d: field %q: unknown key %q", ErrInvalidSchema, val.Line, name, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	chain, err := ruleChain(name, spec.Rules)
	if err != nil {
		return nil, err
	}
	switch spec.Type {
	case "", "field", "scalar":
		if spec.Item != nil {
			return nil, fmt.Errorf("%w: line %d: field %q: item is only allowed on lists", ErrInvalidSchema, spec.Item.Line, name)
		}
		return &formstate.FieldSchema{Type: formstate.FieldScalar, Rules: chain}, nil
	case "options":
		return &formstate.FieldSchema{Type: formstate.FieldOptions, Rules: chain}, nil
	case "list":
		if spec.Item == nil {
			return nil, fmt.Errorf("%w: line %d: list %q needs an item", ErrInvalidSchema, n.Line, name)
		}
		item, err := objectSchema(spec.Item)
		if err != nil {
			return nil, err
		}
		return &formstate.ListSchema{Item: item, Rules: chain}, nil
	default:
		return nil, fmt.Errorf("%w: line %d: field %q: unknown type %q", ErrInvalidSchema, n.Line, name, spec.Type)
	}
}

func ruleChain(field string, n *yaml.Node) (*rules.Chain, error) {
	if n == nil || isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: rules of %q must be a list", ErrInvalidSchema, n.Line, field)
	}
	c := rules.New()
	for _, rn := range n.Content {
		r, err := parseRule(rn)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		if err := r.apply(c); err != nil {
			return nil, fmt.Errorf("%w: line %d: field %q: %v", ErrInvalidSchema, rn.Line, field, err)
		}
	}
	return c, nil
}

// eachPair walks a mapping in document order and rejects duplicate keys.
func eachPair(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	seen := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode {
			return fmt.Errorf("%w: line %d: keys must be scalars", ErrInvalidSchema, k.Line)
		}
		if first, dup := seen[k.Value]; dup {
			return &DuplicateKeyError{Key: k.Value, FirstLine: first, Line: k.Line}
		}
		seen[k.Value] = k.Line
		if err := fn(k.Value, v); err != nil {
			return err
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
