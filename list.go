package formstate

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/reoring/formstate/rules"
)

// Item is one element of a List: a stable identity key plus its values.
type Item struct {
	Key    string
	Values map[string]any
}

type itemState struct {
	key    string
	values map[string]any
	errors map[string]string
}

// List manages a flat list of items identified by key rather than index, so
// references to an item survive removal of its siblings. Field errors are
// tracked per item; an optional chain validates the list as a whole.
//
// Adding, removing or changing items marks the list dirty; Tick re-runs the
// list chain once if the list is in error. A List is not safe for concurrent
// use.
type List struct {
	item      *Schema
	listRules *rules.Chain
	opts      options
	log       *slog.Logger

	items     []itemState
	listError string
	dirty     bool
}

// NewList returns a List whose items follow item. listRules may be nil.
// Nested lists inside items are not supported; use Form for those. Items
// passed with WithItems that have no key get one from the key generator.
func NewList(item *Schema, listRules *rules.Chain, opts ...Option) (*List, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil item schema", ErrSchemaMismatch)
	}
	if item.HasLists() {
		return nil, fmt.Errorf("%w: list items cannot hold nested lists", ErrSchemaMismatch)
	}
	o := buildOptions(opts)
	l := &List{item: item, listRules: listRules, opts: o, log: o.logger}
	seed := make([]Item, len(o.items))
	taken := make(map[string]struct{}, len(o.items))
	for _, it := range o.items {
		if it.Key != "" {
			taken[it.Key] = struct{}{}
		}
	}
	for i, it := range o.items {
		if it.Key == "" {
			key, err := freshKey(o.keys, taken)
			if err != nil {
				return nil, err
			}
			it.Key = key
			taken[key] = struct{}{}
		}
		seed[i] = it
	}
	if err := l.Reset(seed...); err != nil {
		return nil, err
	}
	return l, nil
}

// Reset replaces all items and clears every error. Every item must carry a
// unique key.
func (l *List) Reset(items ...Item) error {
	next := make([]itemState, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if it.Key == "" {
			return fmt.Errorf("%w: item %d", ErrMissingItemKey, i)
		}
		if _, dup := seen[it.Key]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateItemKey, it.Key)
		}
		seen[it.Key] = struct{}{}
		next = append(next, l.newState(it.Key, it.Values))
	}
	l.items = next
	l.listError = ""
	l.dirty = false
	return nil
}

// AddItem appends an item built from values and returns its key. Generated
// keys already used by an item are skipped; ErrDuplicateItemKey is returned
// when the generator yields no unused key.
func (l *List) AddItem(values map[string]any) (string, error) {
	taken := make(map[string]struct{}, len(l.items))
	for _, st := range l.items {
		taken[st.key] = struct{}{}
	}
	key, err := freshKey(l.opts.keys, taken)
	if err != nil {
		return "", err
	}
	l.items = append(l.items[:len(l.items):len(l.items)], l.newState(key, values))
	l.dirty = true
	l.log.Debug("list item added", slog.String("key", key))
	return key, nil
}

// freshKey draws keys from gen until one is not in taken. A generator that
// never repeats needs at most len(taken)+1 draws.
func freshKey(gen KeyGenerator, taken map[string]struct{}) (string, error) {
	var key string
	for range len(taken) + 1 {
		key = gen.NewKey()
		if _, dup := taken[key]; !dup && key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: key generator returned %q", ErrDuplicateItemKey, key)
}

// RemoveItem removes the item with key along with its errors.
func (l *List) RemoveItem(key string) error {
	i, err := l.indexOf(key)
	if err != nil {
		return err
	}
	next := make([]itemState, 0, len(l.items)-1)
	next = append(append(next, l.items[:i]...), l.items[i+1:]...)
	l.items = next
	l.dirty = true
	l.log.Debug("list item removed", slog.String("key", key))
	return nil
}

// SetValue stores v in field of the item with key and validates it unless
// validation on change is off.
func (l *List) SetValue(key, field string, v any) error {
	i, err := l.indexOf(key)
	if err != nil {
		return err
	}
	st := l.items[i]
	values := make(map[string]any, len(st.values)+1)
	for k, val := range st.values {
		values[k] = val
	}
	values[field] = cloneTree(v)
	st.values = values
	l.replace(i, st)
	if !l.opts.noValidationOnChange {
		if _, err := l.Validate(key, field); err != nil {
			return err
		}
	}
	l.dirty = true
	return nil
}

// Validate runs the chain of field against the item's current value, with
// the item's values as entity, and records the result.
func (l *List) Validate(key, field string) (string, error) {
	i, err := l.indexOf(key)
	if err != nil {
		return "", err
	}
	st := l.items[i]
	var chain *rules.Chain
	if n, ok := l.item.Get(field); ok {
		if fs, ok := n.(*FieldSchema); ok {
			chain = fs.Rules
		}
	}
	msg := chain.Run(st.values[field], st.values)
	l.putError(i, field, msg)
	return msg, nil
}

// ValidateList runs the list chain against the item values and records the
// list-level error.
func (l *List) ValidateList() string {
	l.listError = l.listRules.Run(l.Values(), nil)
	l.dirty = false
	return l.listError
}

// ValidateAll validates every field of every item and the list chain.
func (l *List) ValidateAll() bool {
	valid := true
	for _, st := range l.items {
		for _, k := range l.item.keys {
			if msg, _ := l.Validate(st.key, k); msg != "" {
				valid = false
			}
		}
	}
	if l.ValidateList() != "" {
		valid = false
	}
	l.log.Debug("validated list", slog.Int("items", len(l.items)), slog.Bool("valid", valid))
	return valid
}

// Tick re-runs the list chain if the list changed since the last check and is
// currently in error. It reports whether the chain ran.
func (l *List) Tick() bool {
	if !l.dirty {
		return false
	}
	l.dirty = false
	if l.listError == "" {
		return false
	}
	l.ValidateList()
	return true
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Items returns the items in order. Values maps must not be modified.
func (l *List) Items() []Item {
	out := make([]Item, len(l.items))
	for i, st := range l.items {
		out[i] = Item{Key: st.key, Values: st.values}
	}
	return out
}

// Item returns the item with key.
func (l *List) Item(key string) (Item, error) {
	i, err := l.indexOf(key)
	if err != nil {
		return Item{}, err
	}
	return Item{Key: key, Values: l.items[i].values}, nil
}

// Values returns the item values in order, the shape the list chain sees.
func (l *List) Values() []any {
	out := make([]any, len(l.items))
	for i, st := range l.items {
		out[i] = st.values
	}
	return out
}

// ItemErrors returns a copy of the failing fields of the item with key.
func (l *List) ItemErrors(key string) (map[string]string, error) {
	i, err := l.indexOf(key)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(l.items[i].errors))
	for k, v := range l.items[i].errors {
		out[k] = v
	}
	return out, nil
}

// ErrorMessage returns the error recorded for field of the item with key.
func (l *List) ErrorMessage(key, field string) (string, error) {
	i, err := l.indexOf(key)
	if err != nil {
		return "", err
	}
	return l.items[i].errors[field], nil
}

// ListError returns the list-level error.
func (l *List) ListError() string { return l.listError }

// SetListError records a list-level error; "" clears it.
func (l *List) SetListError(msg string) { l.listError = msg }

// SetFieldError records msg for field of the item with key.
func (l *List) SetFieldError(key, field, msg string) error {
	i, err := l.indexOf(key)
	if err != nil {
		return err
	}
	l.putError(i, field, msg)
	return nil
}

// ClearFieldError removes the error for field of the item with key.
func (l *List) ClearFieldError(key, field string) error {
	return l.SetFieldError(key, field, "")
}

// ClearErrors removes every item and list-level error.
func (l *List) ClearErrors() {
	next := make([]itemState, len(l.items))
	for i, st := range l.items {
		st.errors = map[string]string{}
		next[i] = st
	}
	l.items = next
	l.listError = ""
}

// Issues flattens all errors; item errors use "<key>.<field>" paths and the
// list-level error an empty path.
func (l *List) Issues() Issues {
	var out Issues
	for _, st := range l.items {
		fields := make([]string, 0, len(st.errors))
		for k := range st.errors {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			out = append(out, Issue{Path: st.key + "." + k, Code: CodeField, Message: st.errors[k]})
		}
	}
	if l.listError != "" {
		out = append(out, Issue{Code: CodeList, Message: l.listError})
	}
	return out
}

func (l *List) newState(key string, values map[string]any) itemState {
	m, _ := cloneTree(values).(map[string]any)
	return itemState{key: key, values: l.item.normalize(m), errors: map[string]string{}}
}

func (l *List) indexOf(key string) (int, error) {
	for i, st := range l.items {
		if st.key == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrItemNotFound, key)
}

// replace swaps item i in a fresh slice so earlier Items snapshots keep their
// contents.
func (l *List) replace(i int, st itemState) {
	next := make([]itemState, len(l.items))
	copy(next, l.items)
	next[i] = st
	l.items = next
}

func (l *List) putError(i int, field, msg string) {
	st := l.items[i]
	if _, had := st.errors[field]; !had && msg == "" {
		return
	}
	errs := make(map[string]string, len(st.errors)+1)
	for k, v := range st.errors {
		errs[k] = v
	}
	if msg == "" {
		delete(errs, field)
	} else {
		errs[field] = msg
	}
	st.errors = errs
	l.replace(i, st)
}
