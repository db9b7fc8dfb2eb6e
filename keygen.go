package formstate

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// KeyGenerator hands out identity keys for List items. Keys must be unique
// within a List.
type KeyGenerator interface {
	NewKey() string
}

// KeyFunc adapts a function to KeyGenerator.
type KeyFunc func() string

func (f KeyFunc) NewKey() string { return f() }

// UUIDKeys generates random (version 4) UUID keys.
type UUIDKeys struct{}

func (UUIDKeys) NewKey() string { return uuid.NewString() }

// SequenceKeys generates prefix1, prefix2, ... and is safe for concurrent use.
// Handy in tests where keys should be predictable.
type SequenceKeys struct {
	prefix string
	n      atomic.Uint64
}

// NewSequenceKeys returns a SequenceKeys starting at 1.
func NewSequenceKeys(prefix string) *SequenceKeys {
	return &SequenceKeys{prefix: prefix}
}

func (s *SequenceKeys) NewKey() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}
