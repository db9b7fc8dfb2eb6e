package rules

import (
	"reflect"
	"strconv"
	"strings"
)

// Op defines simple comparison operators for When(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional gates rules on the state of a sibling field in the entity.
type Conditional struct {
	field string
	op    Op
	want  any
	all   []Conditional // composite AND
	any   []Conditional // composite OR
}

// When builds a conditional comparing the entity field at path (dotted, relative
// to the entity) against want.
func When(path string, op Op, want any) Conditional {
	return Conditional{field: path, op: op, want: want}
}

// WhenAll builds a conditional that requires all conditions to hold.
func WhenAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// WhenAny builds a conditional that requires any condition to hold.
func WhenAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return WhenAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return WhenAny(append([]Conditional{c}, others...)...)
}

// Then returns an entity rule that runs rules only while the condition holds.
// Like Chain.Run, the last failing rule wins.
func (c Conditional) Then(rules ...ValueRule) EntityRule {
	inner := And(rules...)
	return func(v any, entity map[string]any) string {
		if !c.eval(entity) {
			return ""
		}
		return inner(v)
	}
}

func (c Conditional) eval(entity map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(entity) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(entity) {
				return true
			}
		}
		return false
	}
	cur, ok := valueWithin(entity, c.field)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// valueWithin navigates nested maps/slices by a dotted relative path.
func valueWithin(v any, rel string) (any, bool) {
	if rel == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(rel, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return equal(cur, want)
	case Ne:
		return !equal(cur, want)
	case Lt, Le, Gt, Ge:
		a, ok1 := toNumber(cur)
		b, ok2 := toNumber(want)
		if !ok1 || !ok2 {
			return false
		}
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		default:
			return a >= b
		}
	default:
		return false
	}
}

// equal treats numbers of different Go types as equal when their values are.
func equal(a, b any) bool {
	if _, isString := a.(string); !isString {
		if x, ok := toNumber(a); ok {
			if y, ok := toNumber(b); ok {
				if _, bString := b.(string); !bString {
					return x == y
				}
			}
		}
	}
	return reflect.DeepEqual(a, b)
}
