// Package history keeps the recent failures of a reachability source.
package history

import (
	"sync"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/reach"
)

// Log is a bounded, timestamped record of source failures. Once full, each
// new entry evicts the oldest. A nil *Log records nothing.
type Log struct {
	clock   clockz.Clock
	limit   int
	mu      sync.Mutex
	entries []reach.SourceError
}

// New returns a log keeping at most limit entries stamped with clock.
// A limit of zero or less disables recording and returns nil.
func New(limit int, clock clockz.Clock) *Log {
	if limit <= 0 {
		return nil
	}
	return &Log{
		clock:   clock,
		limit:   limit,
		entries: make([]reach.SourceError, 0, limit),
	}
}

// Record stores err as a failure of op on path. A nil err is ignored.
func (l *Log) Record(op, path string, err error) {
	if l == nil || err == nil {
		return
	}
	entry := reach.SourceError{
		At:   l.clock.Now(),
		Op:   op,
		Path: path,
		Err:  err,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == l.limit {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.limit-1]
	}
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded failures, oldest first, or nil
// when there are none.
func (l *Log) Entries() []reach.SourceError {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return nil
	}
	out := make([]reach.SourceError, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset drops every entry.
func (l *Log) Reset() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
