package formstate

import (
	"fmt"
	"sort"
)

// Trees are built from map[string]any (objects) and []any (ordered
// sequences). Every mutation below is copy-on-write: ancestors along the path
// are shallow-copied and untouched siblings are shared, so a snapshot handed
// out earlier never changes underneath its reader.

// GetByPath returns the node at p. ok is false when any node along the path,
// including the leaf, is absent.
func GetByPath(tree any, p Path) (any, bool) {
	cur := tree
	for _, seg := range p {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg.String()]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			if !seg.IsIndex() || seg.Index() < 0 || seg.Index() >= len(node) {
				return nil, false
			}
			cur = node[seg.Index()]
		default:
			return nil, false
		}
	}
	return cur, true
}

// SetByPath returns a new tree with the node at p replaced by value.
//
// An index segment on an absent node creates a slice, and an index at or past
// the end appends instead of padding with holes: setting "tags.3" when tags
// does not exist yields tags == [value]. This permissive implicit-create
// behavior is intentional. Descending by key into a slice, or into a scalar,
// fails with ErrInvalidPath.
func SetByPath(tree any, p Path, value any) (any, error) {
	return setAt(tree, p, value)
}

func setAt(node any, p Path, value any) (any, error) {
	if len(p) == 0 {
		return value, nil
	}
	seg, rest := p[0], p[1:]
	if seg.IsIndex() && seg.Index() < 0 {
		return nil, fmt.Errorf("%w: negative index %d", ErrInvalidPath, seg.Index())
	}
	switch n := node.(type) {
	case nil:
		child, err := setAt(nil, rest, value)
		if err != nil {
			return nil, err
		}
		if seg.IsIndex() {
			return []any{child}, nil
		}
		return map[string]any{seg.Key(): child}, nil
	case map[string]any:
		k := seg.String()
		child, err := setAt(n[k], rest, value)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(n)+1)
		for key, v := range n {
			out[key] = v
		}
		out[k] = child
		return out, nil
	case []any:
		if !seg.IsIndex() {
			return nil, fmt.Errorf("%w: key %q used on an array", ErrInvalidPath, seg.Key())
		}
		out := make([]any, len(n), len(n)+1)
		copy(out, n)
		if i := seg.Index(); i < len(n) {
			child, err := setAt(n[i], rest, value)
			if err != nil {
				return nil, err
			}
			out[i] = child
			return out, nil
		}
		child, err := setAt(nil, rest, value)
		if err != nil {
			return nil, err
		}
		return append(out, child), nil
	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at %q", ErrInvalidPath, node, seg.String())
	}
}

// RemoveByPath returns a new tree with the given indexes removed from the
// array at p. Indexes are applied in descending order so earlier removals do
// not shift later targets; duplicates collapse.
func RemoveByPath(tree any, p Path, indexes []int) (any, error) {
	node, ok := GetByPath(tree, p)
	arr, isArr := node.([]any)
	if !ok || !isArr {
		return nil, fmt.Errorf("%w: %q", ErrArrayNotFound, p.String())
	}
	drop := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(arr) {
			return nil, fmt.Errorf("%w: index %d out of range for %q (len %d)", ErrInvalidPath, i, p.String(), len(arr))
		}
		drop[i] = struct{}{}
	}
	desc := make([]int, 0, len(drop))
	for i := range drop {
		desc = append(desc, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(desc)))

	out := make([]any, len(arr))
	copy(out, arr)
	for _, i := range desc {
		out = append(out[:i], out[i+1:]...)
	}
	return setAt(tree, p, out)
}

// cloneTree deep-copies maps and slices so caller-owned input can never alias
// engine state.
func cloneTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneTree(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneTree(val)
		}
		return out
	default:
		return v
	}
}
