// internal/transcript/transcript.go
//
// In-memory record of guesses scored by the practice server.
// This is observability state only: a total counter plus a small ring of
// recent attempts, exposed through the server's /stats endpoint.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Bounded: only the most recent attempts are kept.
//   - State is lost when the process exits; nothing is ever persisted.

package transcript

import (
	"sync"
	"time"
)

// keep is how many recent attempts the ring retains.
const keep = 16

// Entry is one scored guess.
type Entry struct {
	Guess    string    // the 32-symbol body that was scored
	Feedback string    // glyph-encoded feedback it received
	At       time.Time // when it was scored
}

// Log accumulates scored guesses.
type Log struct {
	mu     sync.RWMutex
	total  int
	recent []Entry // oldest first, at most keep entries
}

// New constructs an empty Log.
func New() *Log {
	return &Log{recent: make([]Entry, 0, keep)}
}

// Record appends one scored guess, evicting the oldest entry once the ring
// is full.
func (l *Log) Record(guess, feedback string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total++
	if len(l.recent) == keep {
		copy(l.recent, l.recent[1:])
		l.recent = l.recent[:keep-1]
	}
	l.recent = append(l.recent, Entry{Guess: guess, Feedback: feedback, At: time.Now()})
}

// Total reports how many guesses were recorded overall.
func (l *Log) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Recent returns a copy of the retained attempts, oldest first.
func (l *Log) Recent() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.recent))
	copy(out, l.recent)
	return out
}
