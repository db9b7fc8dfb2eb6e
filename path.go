package formstate

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Segment is one step of a Path: an object key or a non-negative array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns an object-key segment.
func Key(name string) Segment { return Segment{key: name} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Key returns the object key; it is "" for index segments.
func (s Segment) Key() string { return s.key }

// Index returns the array index; it is 0 for key segments.
func (s Segment) Index() int { return s.index }

func (s Segment) String() string {
	if s.isIndex {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Path is an ordered sequence of segments addressing a node in a value or
// error tree. Paths stay valid only while the array indices they reference
// do not shift: removing an earlier sibling invalidates paths to later ones.
type Path []Segment

// String renders the path dot-joined, e.g. "orders.2.lineItems.0.sku".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Append returns a new path with segs added; p is never modified.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final segment.
func (p Path) Last() (Segment, bool) {
	if len(p) == 0 {
		return Segment{}, false
	}
	return p[len(p)-1], true
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	for i := range q {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// ParsePath converts input into a Path. Accepted inputs are a dotted string,
// a Path, a PathRef, a []string, or a []any of strings and non-negative
// integers. String parts containing "." are split further. A string segment
// is an index iff it is made only of ASCII digits.
func ParsePath(input any) (Path, error) {
	switch v := input.(type) {
	case string:
		return appendParts(nil, v)
	case Path:
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
		}
		for _, s := range v {
			if s.isIndex && s.index < 0 {
				return nil, fmt.Errorf("%w: negative index %d in %q", ErrInvalidPath, s.index, v.String())
			}
			if !s.isIndex && s.key == "" {
				return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, v.String())
			}
		}
		return v.Append(), nil
	case []Segment:
		return ParsePath(Path(v))
	case PathRef:
		return ParsePath(v.path)
	case []string:
		var out Path
		for _, s := range v {
			var err error
			if out, err = appendParts(out, s); err != nil {
				return nil, err
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
		}
		return out, nil
	case []any:
		var out Path
		for _, el := range v {
			switch e := el.(type) {
			case string:
				var err error
				if out, err = appendParts(out, e); err != nil {
					return nil, err
				}
			default:
				i, ok := nonNegativeInt(el)
				if !ok {
					return nil, fmt.Errorf("%w: unsupported segment %v (%T)", ErrInvalidPath, el, el)
				}
				out = append(out, Index(i))
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported path type %T", ErrInvalidPath, input)
	}
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(input any) Path {
	p, err := ParsePath(input)
	if err != nil {
		panic(err)
	}
	return p
}

func appendParts(dst Path, s string) (Path, error) {
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, s)
		}
		dst = append(dst, classify(part))
	}
	return dst, nil
}

func classify(part string) Segment {
	for i := 0; i < len(part); i++ {
		if part[i] < '0' || part[i] > '9' {
			return Key(part)
		}
	}
	n, err := strconv.Atoi(part)
	if err != nil {
		// overflow: keep it addressable as a key
		return Key(part)
	}
	return Index(n)
}

func nonNegativeInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < 0 {
			return 0, false
		}
		return int(n), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
