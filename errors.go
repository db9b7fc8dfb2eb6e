package formstate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Usage errors. They indicate a caller or schema bug rather than bad user
// input and are always returned to the caller; match them with errors.Is.
var (
	// ErrInvalidPath is returned for malformed path arguments.
	ErrInvalidPath = errors.New("formstate: invalid path")
	// ErrSchemaMismatch is returned when a path has no corresponding schema entry.
	ErrSchemaMismatch = errors.New("formstate: path does not match schema")
	// ErrArrayNotFound is returned by array operations on a missing or non-array node.
	ErrArrayNotFound = errors.New("formstate: array not found")
	// ErrMissingItemKey is returned when a list item lacks its identity key.
	ErrMissingItemKey = errors.New("formstate: list item has no key")
	// ErrDuplicateItemKey is returned when two list items share a key.
	ErrDuplicateItemKey = errors.New("formstate: duplicate list item key")
	// ErrItemNotFound is returned when no list item has the given key.
	ErrItemNotFound = errors.New("formstate: list item not found")
)

// Issue codes distinguishing field errors from list-level errors.
const (
	CodeField = "field"
	CodeList  = "list"
)

// Issue is a single validation failure flattened out of an error tree.
type Issue struct {
	Path    string `json:"path"` // dotted path (for example: orders.2.lineItems)
	Code    string `json:"code"` // CodeField or CodeList
	Message string `json:"message"`
}

// Issues is a collection of validation failures that implements error.
// Validation failures are ordinary engine output; Issues exists for callers
// that want to hand them across an error-returning API boundary.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. name: This field is required!
		fmt.Fprintf(b, "%s: %s", it.Path, it.Message)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Has reports whether any issue is recorded at path.
func (iss Issues) Has(path string) bool {
	for _, it := range iss {
		if it.Path == path {
			return true
		}
	}
	return false
}

// Get returns the messages recorded at path.
func (iss Issues) Get(path string) []string {
	var out []string
	for _, it := range iss {
		if it.Path == path {
			out = append(out, it.Message)
		}
	}
	return out
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// collectIssues walks an error tree and the list-level errors into a stable,
// path-sorted Issues slice.
func collectIssues(errTree map[string]any, listErrors map[string]string) Issues {
	var out Issues
	var walk func(prefix Path, node any)
	walk = func(prefix Path, node any) {
		switch n := node.(type) {
		case string:
			if n != "" {
				out = append(out, Issue{Path: prefix.String(), Code: CodeField, Message: n})
			}
		case map[string]any:
			for k, v := range n {
				walk(prefix.Append(Key(k)), v)
			}
		case []any:
			for i, v := range n {
				walk(prefix.Append(Index(i)), v)
			}
		}
	}
	walk(nil, errTree)
	for p, msg := range listErrors {
		if msg != "" {
			out = append(out, Issue{Path: p, Code: CodeList, Message: msg})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Code < out[j].Code
	})
	return out
}
