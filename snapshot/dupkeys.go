package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ErrDuplicateKey is matched by DuplicateKeyError.
var ErrDuplicateKey = errors.New("snapshot: duplicate object key")

// DuplicateKeyError reports a key that appears twice in the same JSON object.
// Path is the dotted path of the repeated member.
type DuplicateKeyError struct {
	Key  string
	Path string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("snapshot: duplicate key %q at %s", e.Key, e.Path)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

type frame struct {
	object  bool
	keys    map[string]struct{}
	wantKey bool
	key     string
	index   int
}

// checkDuplicateKeys walks the token stream of data and fails on the first
// repeated object key. Syntax errors are left to the decoder.
func checkDuplicateKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []*frame

	path := func() string {
		parts := make([]string, len(stack))
		for i, f := range stack {
			if f.object {
				parts[i] = f.key
			} else {
				parts[i] = strconv.Itoa(f.index)
			}
		}
		return strings.Join(parts, ".")
	}
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.wantKey = true
		} else {
			top.index++
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, &frame{object: true, keys: map[string]struct{}{}, wantKey: true})
			case '[':
				stack = append(stack, &frame{})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.object && top.wantKey {
					top.key = v
					if _, dup := top.keys[v]; dup {
						return &DuplicateKeyError{Key: v, Path: path()}
					}
					top.keys[v] = struct{}{}
					top.wantKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
}
