package formstate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// AddArrayItems appends items to the list at path. Each item is filled with
// the item schema defaults and gets an empty error object; a nil item is an
// all-default item. Items that are not objects fail with ErrSchemaMismatch
// and nothing is added. The list and every enclosing list that is in error
// are queued for revalidation.
func (f *Form) AddArrayItems(path any, items ...any) error {
	p, ls, err := f.arrayAt(path)
	if err != nil {
		return err
	}
	if err := checkItems(p, items); err != nil {
		return err
	}
	p = clampPath(f.values, p)
	cur, _ := GetByPath(f.values, p)
	arr, isArr := cur.([]any)
	if cur != nil && !isArr {
		return fmt.Errorf("%w: %q holds %T", ErrArrayNotFound, p.String(), cur)
	}

	added := make([]any, len(items))
	addedErrs := make([]any, len(items))
	for i, it := range items {
		m, _ := cloneTree(it).(map[string]any)
		m = ls.Item.normalize(m)
		added[i] = m
		addedErrs[i] = ls.Item.errorShape(m)
	}
	next := make([]any, 0, len(arr)+len(added))
	next = append(append(next, arr...), added...)
	nv, err := SetByPath(f.values, p, next)
	if err != nil {
		return err
	}
	f.values = nv.(map[string]any)
	if err := f.fillItems(p); err != nil {
		return err
	}

	errs := asSlice(valueAt(f.errors, p))
	if len(errs) != len(arr) {
		errs = ls.errorShape(arr)
	}
	nextErrs := make([]any, 0, len(next))
	nextErrs = append(append(nextErrs, errs...), addedErrs...)
	f.setSubtree(p, nextErrs)

	f.enqueueLists(p)
	f.log.Debug("array items added", slog.String("path", p.String()), slog.Int("count", len(items)))
	return nil
}

// RemoveArrayItems removes the items at indexes from the list at path,
// together with their error objects. Duplicate indexes collapse; an index out
// of range fails with ErrInvalidPath and changes nothing. List-level errors of
// nested lists follow their items to the new positions.
func (f *Form) RemoveArrayItems(path any, indexes ...int) error {
	p, ls, err := f.arrayAt(path)
	if err != nil {
		return err
	}
	nv, err := RemoveByPath(f.values, p, indexes)
	if err != nil {
		return err
	}
	f.values = nv.(map[string]any)

	if ne, err := RemoveByPath(f.errors, p, indexes); err == nil {
		f.errors = ne.(map[string]any)
	} else {
		f.setSubtree(p, ls.errorShape(asSlice(valueAt(f.values, p))))
	}
	f.shiftListErrors(p, indexes)

	f.enqueueLists(p)
	f.log.Debug("array items removed", slog.String("path", p.String()), slog.Any("indexes", indexes))
	return nil
}

// ReplaceAllArrayItems clears the list error at path and replaces the list
// contents with items.
func (f *Form) ReplaceAllArrayItems(path any, items ...any) error {
	p, _, err := f.arrayAt(path)
	if err != nil {
		return err
	}
	if err := checkItems(p, items); err != nil {
		return err
	}
	p = clampPath(f.values, p)
	if cur, _ := GetByPath(f.values, p); cur != nil {
		if _, ok := cur.([]any); !ok {
			return fmt.Errorf("%w: %q holds %T", ErrArrayNotFound, p.String(), cur)
		}
	}
	f.dropListErrors(p, true)
	nv, err := SetByPath(f.values, p, []any{})
	if err != nil {
		return err
	}
	f.values = nv.(map[string]any)
	f.setSubtree(p, []any{})
	return f.AddArrayItems(p, items...)
}

func checkItems(p Path, items []any) error {
	for i, it := range items {
		if it == nil {
			continue
		}
		if _, ok := it.(map[string]any); !ok {
			return fmt.Errorf("%w: item %d for %q is %T, not an object", ErrSchemaMismatch, i, p.String(), it)
		}
	}
	return nil
}

func (f *Form) arrayAt(path any) (Path, *ListSchema, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, nil, err
	}
	node, err := f.schema.Resolve(p)
	if err != nil {
		return nil, nil, err
	}
	ls, ok := node.(*ListSchema)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q is not a list", ErrArrayNotFound, p.String())
	}
	return p, ls, nil
}

// shiftListErrors moves list-level errors and pending revalidations of lists
// nested in the items of p after the items at removed were deleted.
func (f *Form) shiftListErrors(p Path, removed []int) {
	gone := make(map[int]struct{}, len(removed))
	for _, i := range removed {
		gone[i] = struct{}{}
	}
	sorted := make([]int, 0, len(gone))
	for i := range gone {
		sorted = append(sorted, i)
	}
	sort.Ints(sorted)

	// remap returns the new path for q, or false when its item was removed.
	remap := func(q Path) (Path, bool) {
		if len(q) <= len(p) || !q.HasPrefix(p) || !q[len(p)].IsIndex() {
			return q, true
		}
		i := q[len(p)].Index()
		if _, ok := gone[i]; ok {
			return nil, false
		}
		shift := sort.SearchInts(sorted, i)
		if shift == 0 {
			return q, true
		}
		out := q.Append()
		out[len(p)] = Index(i - shift)
		return out, true
	}

	prefix := p.String() + "."
	moved := make(map[string]string, len(f.listErrors))
	for k, msg := range f.listErrors {
		if !strings.HasPrefix(k, prefix) {
			moved[k] = msg
			continue
		}
		q, err := ParsePath(k)
		if err != nil {
			continue
		}
		if nq, ok := remap(q); ok {
			moved[nq.String()] = msg
		}
	}
	f.listErrors = moved

	kept := f.pending[:0:0]
	for _, q := range f.pending {
		if nq, ok := remap(q); ok {
			kept = append(kept, nq)
		}
	}
	f.pending = kept
}

func valueAt(tree any, p Path) any {
	v, _ := GetByPath(tree, p)
	return v
}
