package formstate

import (
	"fmt"
	"log/slog"
)

// Form holds the values, field errors and list-level errors of a nested form
// described by a Schema.
//
// Values and errors are copy-on-write trees: every mutation replaces the
// nodes along the changed path, so maps returned by Values and Errors are
// snapshots that never change afterwards. A Form is not safe for concurrent
// use; callers serialize mutations.
type Form struct {
	schema *Schema
	opts   options
	log    *slog.Logger

	values     map[string]any
	errors     map[string]any
	listErrors map[string]string // keyed by the dotted path of the list
	pending    []Path            // lists queued for revalidation
}

// New returns a Form for schema, seeded with schema defaults or with
// WithInitialValues.
func New(schema *Schema, opts ...Option) (*Form, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrSchemaMismatch)
	}
	o := buildOptions(opts)
	f := &Form{schema: schema, opts: o, log: o.logger}
	f.Reset(o.initial)
	return f, nil
}

// Schema returns the schema the form was built with.
func (f *Form) Schema() *Schema { return f.schema }

// ResolveSchemaForPath returns the schema node at path: a *FieldSchema, a
// *ListSchema, or the item *Schema for a path ending on a list index.
func (f *Form) ResolveSchemaForPath(path any) (Node, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return f.schema.Resolve(p)
}

// Reset replaces all values and clears every error and pending revalidation.
// A nil map resets to schema defaults. A list value that is not a []any is
// replaced by an empty list and logged at warn level.
func (f *Form) Reset(values map[string]any) {
	var base map[string]any
	if values != nil {
		base, _ = cloneTree(values).(map[string]any)
	}
	for _, lp := range f.schema.misshapenLists(base, nil) {
		f.log.Warn("list value is not a sequence, reset to empty", slog.String("path", lp))
	}
	f.values = f.schema.normalize(base)
	f.errors = f.schema.errorShape(f.values)
	f.listErrors = map[string]string{}
	f.pending = nil
}

// Value returns the value at path, or nil when it is absent.
func (f *Form) Value(path any) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	v, ok := GetByPath(f.values, p)
	if !ok {
		if _, parentOK := GetByPath(f.values, p.Parent()); len(p) > 1 && !parentOK {
			f.log.Warn("read through missing node", slog.String("path", p.String()))
		}
		return nil, nil
	}
	return v, nil
}

// ErrorMessage returns the field error at path; "" means no error.
func (f *Form) ErrorMessage(path any) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	v, _ := GetByPath(f.errors, p)
	s, _ := v.(string)
	return s, nil
}

// ListError returns the list-level error of the list at path.
func (f *Form) ListError(path any) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	if _, err := f.listAt(p); err != nil {
		return "", err
	}
	return f.listErrors[p.String()], nil
}

// Values returns the current value tree. Do not modify it.
func (f *Form) Values() map[string]any { return f.values }

// Errors returns the current field error tree. Do not modify it.
func (f *Form) Errors() map[string]any { return f.errors }

// ListErrors returns a copy of the list-level errors keyed by dotted path.
func (f *Form) ListErrors() map[string]string {
	out := make(map[string]string, len(f.listErrors))
	for k, v := range f.listErrors {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Pending returns the dotted paths of lists queued for revalidation.
func (f *Form) Pending() []string {
	out := make([]string, len(f.pending))
	for i, p := range f.pending {
		out[i] = p.String()
	}
	return out
}

// Issues flattens every field and list-level error, sorted by path.
func (f *Form) Issues() Issues { return collectIssues(f.errors, f.listErrors) }

// Err returns the current Issues as an error, or nil when the form is valid.
func (f *Form) Err() error {
	if iss := f.Issues(); len(iss) > 0 {
		return iss
	}
	return nil
}

// SetValue writes value at path, validates it against the schema node found
// there and queues enclosing lists that are currently in error for
// revalidation on the next Tick.
//
// Writing a whole list or list item replaces its error subtree. List items
// must be objects or nil (an all-default item); anything else fails with
// ErrSchemaMismatch and nothing changes. Index segments past the end of an
// array append, so the value lands at the first free position.
func (f *Form) SetValue(path any, value any) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	node, err := f.schema.Resolve(p)
	if err != nil {
		return err
	}
	p = clampPath(f.values, p)

	switch n := node.(type) {
	case *ListSchema:
		// a non-sequence is stored as given so the list chain can report it
		value = cloneTree(value)
		if items, ok := value.([]any); ok {
			if err := checkItems(p, items); err != nil {
				return err
			}
			for i, it := range items {
				m, _ := it.(map[string]any)
				items[i] = n.Item.normalize(m)
			}
		}
	case *Schema:
		if err := checkItems(p.Parent(), []any{value}); err != nil {
			return err
		}
		m, _ := cloneTree(value).(map[string]any)
		value = n.normalize(m)
	default:
		value = cloneTree(value)
	}

	nv, err := SetByPath(f.values, p, value)
	if err != nil {
		return err
	}
	f.values = nv.(map[string]any)
	if err := f.fillItems(p); err != nil {
		return err
	}

	switch n := node.(type) {
	case *FieldSchema:
		if !f.opts.noValidationOnChange {
			f.setError(p, n.Rules.Run(value, f.entityOf(p)))
		}
	case *ListSchema:
		items, _ := value.([]any)
		f.dropListErrors(p, true)
		f.setSubtree(p, n.errorShape(items))
		if !f.opts.noValidationOnChange {
			f.validateList(p, n)
		}
	case *Schema:
		m, _ := value.(map[string]any)
		f.dropListErrors(p, false)
		f.setSubtree(p, n.errorShape(m))
		if !f.opts.noValidationOnChange {
			f.validateObject(p, n, m)
		}
	}
	f.enqueueLists(p.Parent())
	f.log.Debug("value set", slog.String("path", p.String()))
	return nil
}

// HandleChange applies a control change event: the coerced value is written
// at the event's name.
func (f *Form) HandleChange(ev ChangeEvent) error {
	return f.SetValue(ev.Name, ev.Coerced())
}

// SetFieldError records msg at path. A list path sets its list-level error.
func (f *Form) SetFieldError(path any, msg string) error {
	p, err := ParsePath(path)
	if err != nil {
		return err
	}
	node, err := f.schema.Resolve(p)
	if err != nil {
		return err
	}
	switch node.(type) {
	case *FieldSchema:
		if _, ok := GetByPath(f.errors, p.Parent()); len(p) > 1 && !ok {
			return fmt.Errorf("%w: no item at %q", ErrInvalidPath, p.Parent().String())
		}
		f.setError(p, msg)
	case *ListSchema:
		f.setListError(p, msg)
	default:
		return fmt.Errorf("%w: %q is a list item, not a field", ErrSchemaMismatch, p.String())
	}
	return nil
}

// ClearError removes the error at path.
func (f *Form) ClearError(path any) error { return f.SetFieldError(path, "") }

// ClearErrors removes every field and list-level error and drops pending
// revalidations.
func (f *Form) ClearErrors() {
	f.errors = f.schema.errorShape(f.values)
	f.listErrors = map[string]string{}
	f.pending = nil
}

// entityOf returns the object enclosing p, which field rules receive as their
// entity.
func (f *Form) entityOf(p Path) map[string]any {
	parent := p.Parent()
	if len(parent) == 0 {
		return f.values
	}
	v, _ := GetByPath(f.values, parent)
	m, _ := v.(map[string]any)
	return m
}

func (f *Form) setError(p Path, msg string) {
	var leaf any
	if msg != "" {
		leaf = msg
	}
	f.setSubtree(p, leaf)
}

func (f *Form) setSubtree(p Path, v any) {
	nt, err := SetByPath(f.errors, p, v)
	if err != nil {
		f.log.Warn("error tree out of shape", slog.String("path", p.String()), slog.Any("err", err))
		return
	}
	f.errors = nt.(map[string]any)
}

func (f *Form) setListError(p Path, msg string) {
	if msg == "" {
		delete(f.listErrors, p.String())
		return
	}
	f.listErrors[p.String()] = msg
}

// fillItems completes every list item along p with missing schema fields and
// makes sure the error tree has an object for it. Items created implicitly by
// SetValue start out with only the field that was written.
func (f *Form) fillItems(p Path) error {
	for i := range p {
		if !p[i].IsIndex() {
			continue
		}
		q := p[:i+1]
		node, err := f.schema.Resolve(q)
		if err != nil {
			return err
		}
		item, ok := node.(*Schema)
		if !ok {
			continue
		}
		v, _ := GetByPath(f.values, q)
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if filled := item.fill(m); len(filled) != len(m) {
			nv, err := SetByPath(f.values, q, filled)
			if err != nil {
				return err
			}
			f.values = nv.(map[string]any)
			m = filled
		}
		if _, ok := GetByPath(f.errors, q); !ok {
			f.setSubtree(q, item.errorShape(m))
		}
	}
	return nil
}

// clampPath rewrites index segments that point past the end of their array
// to the append position, matching where SetByPath actually writes.
func clampPath(tree any, p Path) Path {
	out := p.Append()
	cur := tree
	for i, seg := range out {
		switch node := cur.(type) {
		case []any:
			if seg.IsIndex() && seg.Index() < len(node) {
				cur = node[seg.Index()]
				continue
			}
			if seg.IsIndex() {
				out[i] = Index(len(node))
			}
			cur = nil
		case map[string]any:
			cur = node[seg.String()]
		default:
			if seg.IsIndex() {
				out[i] = Index(0)
			}
			cur = nil
		}
	}
	return out
}
