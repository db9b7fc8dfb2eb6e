// Package snapshot moves form state in and out of JSON: decoding value trees
// for seeding forms and capturing values, errors and issues for storage or
// display.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/reoring/formstate"
)

// ErrNotObject is returned when a JSON document is not an object.
var ErrNotObject = errors.New("snapshot: document is not a JSON object")

// State is the serializable view of a Form.
type State struct {
	Values     map[string]any    `json:"values"`
	Errors     map[string]any    `json:"errors"`
	ListErrors map[string]string `json:"listErrors,omitempty"`
	Issues     formstate.Issues  `json:"issues,omitempty"`
	Valid      bool              `json:"valid"`
}

// DecodeValues decodes a JSON object into a value tree. Numbers are kept as
// json.Number so integer values survive unchanged; the built-in rules accept
// them as numbers. Objects repeating a key are rejected with a
// *DuplicateKeyError instead of silently keeping the last member.
func DecodeValues(data []byte) (map[string]any, error) {
	if err := checkDuplicateKeys(data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("snapshot: decode values: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotObject, v)
	}
	return m, nil
}

// DecodeValuesFrom is DecodeValues for a reader.
func DecodeValuesFrom(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read values: %w", err)
	}
	return DecodeValues(data)
}

// Capture takes the current state of f.
func Capture(f *formstate.Form) State {
	iss := f.Issues()
	return State{
		Values:     f.Values(),
		Errors:     f.Errors(),
		ListErrors: f.ListErrors(),
		Issues:     iss,
		Valid:      len(iss) == 0,
	}
}

// Restore resets f to s.Values and re-applies the recorded errors. Issues
// whose path no longer matches the schema are skipped and reported together.
func Restore(f *formstate.Form, s State) error {
	f.Reset(s.Values)
	var errs []error
	for _, it := range s.Issues {
		if err := f.SetFieldError(it.Path, it.Message); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", it.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Marshal encodes s as JSON.
func Marshal(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal decodes a State encoded by Marshal, keeping numbers as
// json.Number.
func Unmarshal(data []byte) (State, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var s State
	if err := dec.Decode(&s); err != nil {
		return State{}, fmt.Errorf("snapshot: decode state: %w", err)
	}
	return s, nil
}

// Write encodes s to w, indented when indent is set.
func Write(w io.Writer, s State, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(s)
}
