package formstate

import (
	"fmt"
	"log/slog"
	"strings"
)

// ValidateField runs the chain of the field at path against its current value
// and records the result. It returns the message; "" means valid.
func (f *Form) ValidateField(path any) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	node, err := f.schema.Resolve(p)
	if err != nil {
		return "", err
	}
	fs, ok := node.(*FieldSchema)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a field", ErrSchemaMismatch, p.String())
	}
	v, _ := GetByPath(f.values, p)
	msg := fs.Rules.Run(v, f.entityOf(p))
	if _, ok := GetByPath(f.errors, p.Parent()); ok || len(p) == 1 {
		f.setError(p, msg)
	}
	return msg, nil
}

// ValidateList validates the list at path: its list-level chain and every
// field of every item, recursing into nested lists. It reports whether
// everything passed.
func (f *Form) ValidateList(path any) (bool, error) {
	p, err := ParsePath(path)
	if err != nil {
		return false, err
	}
	ls, err := f.listAt(p)
	if err != nil {
		return false, err
	}
	return f.validateList(p, ls), nil
}

// ValidateAll validates every field and list and drops pending
// revalidations, since everything was just checked.
func (f *Form) ValidateAll() bool {
	valid := f.validateObject(nil, f.schema, f.values)
	f.pending = nil
	f.log.Debug("validated form", slog.Bool("valid", valid))
	return valid
}

// Tick drains the revalidation queue. Each queued list is processed once and
// only if it still carries a list-level error; only its list chain runs.
// Tick returns the number of list chains run.
func (f *Form) Tick() int {
	if len(f.pending) == 0 {
		return 0
	}
	queue := f.pending
	f.pending = nil
	seen := make(map[string]struct{}, len(queue))
	ran := 0
	for _, p := range queue {
		key := p.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if f.listErrors[key] == "" {
			continue
		}
		ls, err := f.listAt(p)
		if err != nil {
			f.log.Warn("dropping stale revalidation", slog.String("path", key), slog.Any("err", err))
			continue
		}
		raw, _ := GetByPath(f.values, p)
		f.setListError(p, ls.Rules.Run(raw, f.entityOf(p)))
		ran++
	}
	f.log.Debug("revalidated lists", slog.Int("queued", len(queue)), slog.Int("ran", ran))
	return ran
}

// validateObject validates every field of the object at p (nil for the root)
// described by s.
func (f *Form) validateObject(p Path, s *Schema, obj map[string]any) bool {
	valid := true
	for _, k := range s.keys {
		fp := p.Append(Key(k))
		switch n := s.nodes[k].(type) {
		case *FieldSchema:
			msg := n.Rules.Run(obj[k], obj)
			f.setError(fp, msg)
			if msg != "" {
				valid = false
			}
		case *ListSchema:
			if !f.validateList(fp, n) {
				valid = false
			}
		}
	}
	return valid
}

// validateList runs the list chain against the raw value at p and validates
// every item. A value that is not a sequence is still passed to the list
// chain so it can report it.
func (f *Form) validateList(p Path, ls *ListSchema) bool {
	raw, _ := GetByPath(f.values, p)
	valid := true
	msg := ls.Rules.Run(raw, f.entityOf(p))
	f.setListError(p, msg)
	if msg != "" {
		valid = false
	}
	items, _ := raw.([]any)
	if errs, _ := GetByPath(f.errors, p); len(asSlice(errs)) != len(items) {
		f.setSubtree(p, ls.errorShape(items))
	}
	for i, it := range items {
		m, _ := it.(map[string]any)
		if !f.validateObject(p.Append(Index(i)), ls.Item, m) {
			valid = false
		}
	}
	return valid
}

// enqueueLists queues every list along p (p included) that currently has a
// list-level error.
func (f *Form) enqueueLists(p Path) {
	for i := 1; i <= len(p); i++ {
		q := p[:i]
		if q[i-1].IsIndex() || f.listErrors[q.String()] == "" {
			continue
		}
		if _, err := f.listAt(q); err != nil {
			continue
		}
		f.pending = append(f.pending, q.Append())
	}
}

func (f *Form) listAt(p Path) (*ListSchema, error) {
	node, err := f.schema.Resolve(p)
	if err != nil {
		return nil, err
	}
	ls, ok := node.(*ListSchema)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrSchemaMismatch, p.String())
	}
	return ls, nil
}

// dropListErrors forgets list-level errors and pending revalidations for
// lists below p, and for p itself when inclusive is set.
func (f *Form) dropListErrors(p Path, inclusive bool) {
	prefix := p.String()
	under := func(key string) bool {
		return (inclusive && key == prefix) || strings.HasPrefix(key, prefix+".")
	}
	for k := range f.listErrors {
		if under(k) {
			delete(f.listErrors, k)
		}
	}
	kept := f.pending[:0:0]
	for _, q := range f.pending {
		if !under(q.String()) {
			kept = append(kept, q)
		}
	}
	f.pending = kept
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
