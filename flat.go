package formstate

import (
	"fmt"
	"log/slog"
	"sort"
)

// FlatForm is the single-level variant of Form: every field is a scalar or
// options field addressed by name, and the error map only holds failing
// fields. Names missing from the schema are stored without validation, which
// suits auxiliary values such as display labels.
type FlatForm struct {
	schema *Schema
	opts   options
	log    *slog.Logger

	values map[string]any
	errors map[string]string
}

// NewFlat returns a FlatForm. Schemas containing lists are rejected; use Form.
func NewFlat(schema *Schema, opts ...Option) (*FlatForm, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrSchemaMismatch)
	}
	if schema.HasLists() {
		return nil, fmt.Errorf("%w: flat forms cannot hold lists", ErrSchemaMismatch)
	}
	o := buildOptions(opts)
	ff := &FlatForm{schema: schema, opts: o, log: o.logger}
	ff.Reset(o.initial)
	return ff, nil
}

// Reset replaces all values and clears all errors.
func (ff *FlatForm) Reset(values map[string]any) {
	var base map[string]any
	if values != nil {
		base, _ = cloneTree(values).(map[string]any)
	}
	ff.values = ff.schema.normalize(base)
	ff.errors = map[string]string{}
}

// SetValue stores v under name and, unless validation on change is off,
// validates it with the updated values as entity.
func (ff *FlatForm) SetValue(name string, v any) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidPath)
	}
	next := make(map[string]any, len(ff.values)+1)
	for k, val := range ff.values {
		next[k] = val
	}
	next[name] = cloneTree(v)
	ff.values = next
	if !ff.opts.noValidationOnChange {
		ff.Validate(name, ff.values[name])
	}
	ff.log.Debug("value set", slog.String("name", name))
	return nil
}

// HandleChange stores the coerced event value under the event's name.
func (ff *FlatForm) HandleChange(ev ChangeEvent) error {
	return ff.SetValue(ev.Name, ev.Coerced())
}

// Validate runs the chain of name against v, with the current values as
// entity, and records the result. Unknown names are always valid.
func (ff *FlatForm) Validate(name string, v any) string {
	node, ok := ff.schema.Get(name)
	if !ok {
		return ""
	}
	fs, _ := node.(*FieldSchema)
	if fs == nil {
		return ""
	}
	msg := fs.Rules.Run(v, ff.values)
	ff.putError(name, msg)
	return msg
}

// ValidateAll validates every schema field and reports whether all passed.
func (ff *FlatForm) ValidateAll() bool {
	valid := true
	for _, k := range ff.schema.keys {
		if ff.Validate(k, ff.values[k]) != "" {
			valid = false
		}
	}
	ff.log.Debug("validated flat form", slog.Bool("valid", valid))
	return valid
}

// Value returns the value stored under name.
func (ff *FlatForm) Value(name string) any { return ff.values[name] }

// Values returns the current values. Do not modify it.
func (ff *FlatForm) Values() map[string]any { return ff.values }

// ErrorMessage returns the error recorded for name.
func (ff *FlatForm) ErrorMessage(name string) string { return ff.errors[name] }

// Errors returns the failing fields. Do not modify it.
func (ff *FlatForm) Errors() map[string]string { return ff.errors }

// SetFieldError records msg for name; "" clears it.
func (ff *FlatForm) SetFieldError(name, msg string) { ff.putError(name, msg) }

// ClearError removes the error recorded for name.
func (ff *FlatForm) ClearError(name string) { ff.putError(name, "") }

// ClearErrors removes all errors.
func (ff *FlatForm) ClearErrors() { ff.errors = map[string]string{} }

// Issues returns the failing fields sorted by name.
func (ff *FlatForm) Issues() Issues {
	out := make(Issues, 0, len(ff.errors))
	for k, msg := range ff.errors {
		out = append(out, Issue{Path: k, Code: CodeField, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Register binds an input to name.
func (ff *FlatForm) Register(name string, typ InputType) Control {
	return bindControl(name, typ, ff.values[name], ff.errors[name], ff.SetValue)
}

// RegisterWithDisplayValue binds a selection input storing a key under name
// and its label under displayName.
func (ff *FlatForm) RegisterWithDisplayValue(name, displayName string) DisplayControl {
	return bindDisplayControl(name, displayName, ff.values[name], ff.values[displayName], ff.errors[name], ff.SetValue)
}

// putError replaces the error map so earlier snapshots stay intact.
func (ff *FlatForm) putError(name, msg string) {
	if _, had := ff.errors[name]; !had && msg == "" {
		return
	}
	next := make(map[string]string, len(ff.errors)+1)
	for k, v := range ff.errors {
		next[k] = v
	}
	if msg == "" {
		delete(next, name)
	} else {
		next[name] = msg
	}
	ff.errors = next
}
