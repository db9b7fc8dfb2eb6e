package formstate

import (
	"fmt"
)

// InputType names the kind of input a control is bound to.
type InputType string

const (
	InputText     InputType = "text"
	InputTextArea InputType = "textarea"
	InputNumber   InputType = "number"
	InputEmail    InputType = "email"
	InputDate     InputType = "date"
	InputTime     InputType = "time"
	InputSelect   InputType = "select"
	InputCheckbox InputType = "checkbox"
)

// ChangeEvent is what an input reports when it changes.
type ChangeEvent struct {
	Name    string
	Type    InputType
	Value   any
	Checked bool
}

// Coerced returns the value to store: Checked for checkboxes, Value otherwise.
func (e ChangeEvent) Coerced() any {
	if e.Type == InputCheckbox {
		return e.Checked
	}
	return e.Value
}

// Control is a snapshot of what an input needs to render, plus a change
// handler bound to its path. Register again after state changes to get fresh
// Value and ErrorMessage.
type Control struct {
	Path         string
	Type         InputType
	Value        any
	ErrorMessage string

	// OnChange stores the coerced event value at Path. The event's Name is
	// ignored.
	OnChange func(ev ChangeEvent) error
	// SetValue stores v at Path.
	SetValue func(v any) error
}

// DisplayControl binds a selection input that stores a key and a separate
// human-readable label, e.g. a country code and its name.
type DisplayControl struct {
	Path         string
	DisplayPath  string
	Value        any
	DisplayValue any
	ErrorMessage string

	// OnChange stores key at Path and display at DisplayPath.
	OnChange func(key, display any) error
}

// setter is the write side shared by Form and FlatForm controls.
type setter func(path string, v any) error

func bindControl(path string, typ InputType, value any, msg string, set setter) Control {
	if value == nil {
		value = ""
	}
	return Control{
		Path:         path,
		Type:         typ,
		Value:        value,
		ErrorMessage: msg,
		OnChange:     func(ev ChangeEvent) error { return set(path, ev.Coerced()) },
		SetValue:     func(v any) error { return set(path, v) },
	}
}

func bindDisplayControl(path, displayPath string, value, display any, msg string, set setter) DisplayControl {
	if value == nil {
		value = ""
	}
	if display == nil {
		display = ""
	}
	return DisplayControl{
		Path:         path,
		DisplayPath:  displayPath,
		Value:        value,
		DisplayValue: display,
		ErrorMessage: msg,
		OnChange: func(key, disp any) error {
			if err := set(path, key); err != nil {
				return err
			}
			return set(displayPath, disp)
		},
	}
}

// Register binds an input to the field at path. The path must resolve to a
// field in the schema.
func (f *Form) Register(path any, typ InputType) (Control, error) {
	p, err := f.fieldPath(path)
	if err != nil {
		return Control{}, err
	}
	v, _ := GetByPath(f.values, p)
	msg, _ := f.ErrorMessage(p)
	return bindControl(p.String(), typ, v, msg, f.setPath), nil
}

// RegisterWithDisplayValue binds a selection input storing a key at path and
// its label at displayPath. Both must be fields in the schema.
func (f *Form) RegisterWithDisplayValue(path, displayPath any) (DisplayControl, error) {
	p, err := f.fieldPath(path)
	if err != nil {
		return DisplayControl{}, err
	}
	dp, err := f.fieldPath(displayPath)
	if err != nil {
		return DisplayControl{}, err
	}
	v, _ := GetByPath(f.values, p)
	d, _ := GetByPath(f.values, dp)
	msg, _ := f.ErrorMessage(p)
	return bindDisplayControl(p.String(), dp.String(), v, d, msg, f.setPath), nil
}

func (f *Form) setPath(path string, v any) error { return f.SetValue(path, v) }

func (f *Form) fieldPath(path any) (Path, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	node, err := f.schema.Resolve(p)
	if err != nil {
		return nil, err
	}
	if node.Kind() != KindField {
		return nil, fmt.Errorf("%w: cannot bind a control to %q", ErrSchemaMismatch, p.String())
	}
	return p, nil
}
