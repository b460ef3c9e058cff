// Package gamelog is the player-facing event log.
package gamelog

import (
	"fmt"

	"go.uber.org/zap"
)

// DefaultCapacity bounds how many entries are retained.
const DefaultCapacity = 100

// Log is an ordered list of player-facing messages. Entries are stored
// oldest-first and presented newest-first.
type Log struct {
	entries  []string
	capacity int
	turn     int
	logger   *zap.Logger
}

// New returns an empty log retaining at most capacity entries. Every entry is
// mirrored to logger at debug level. A nil logger is replaced with a no-op.
//
// Precondition: capacity > 0; otherwise DefaultCapacity is used.
func New(capacity int, logger *zap.Logger) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{capacity: capacity, logger: logger}
}

// Add appends msg, evicting the oldest entry when full.
func (l *Log) Add(msg string) {
	l.entries = append(l.entries, msg)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
	l.logger.Debug("game log", zap.Int("turn", l.turn), zap.String("entry", msg))
}

// SetTurn records the turn number attached to subsequent diagnostic entries.
func (l *Log) SetTurn(turn int) { l.turn = turn }

// Addf appends a formatted message.
func (l *Log) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return len(l.entries) }

// Last returns the most recent entry, or "" when empty.
func (l *Log) Last() string {
	if len(l.entries) == 0 {
		return ""
	}
	return l.entries[len(l.entries)-1]
}

// Recent returns up to n entries, most recent first. n <= 0 returns all.
func (l *Log) Recent(n int) []string {
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]string, 0, n)
	for i := len(l.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Entries returns all entries oldest-first.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Reset replaces the contents with entries (oldest-first).
func (l *Log) Reset(entries []string) {
	l.entries = l.entries[:0]
	for _, e := range entries {
		l.entries = append(l.entries, e)
	}
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0], l.entries[over:]...)
	}
}
