// Package diag collects recoverable problems found while converting.
package diag

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Entry is one distinct diagnostic. Count is the number of consecutive
// identical reports it stands for.
type Entry struct {
	Category string
	Message  string
	Count    int
}

// Sink logs diagnostics as warnings, folding consecutive duplicates into a
// repeat count. It is safe for concurrent use.
type Sink struct {
	mu      sync.Mutex
	log     *zap.Logger
	entries []Entry
}

// New returns a sink logging to log. A nil logger discards output.
func New(log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{log: log}
}

func (s *Sink) Report(category, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > 0 {
		last := &s.entries[n-1]
		if last.Category == category && last.Message == message {
			last.Count++
			return
		}
		s.flushRepeats(last)
	}
	s.entries = append(s.entries, Entry{Category: category, Message: message, Count: 1})
	s.log.Warn(message, zap.String("category", category))
}

func (s *Sink) Reportf(category, format string, args ...interface{}) {
	s.Report(category, fmt.Sprintf(format, args...))
}

func (s *Sink) flushRepeats(e *Entry) {
	if e.Count > 1 {
		s.log.Warn(fmt.Sprintf("last message repeated %d times", e.Count-1), zap.String("category", e.Category))
	}
}

// Flush logs the repeat count of the last entry, if any.
func (s *Sink) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > 0 {
		s.flushRepeats(&s.entries[n-1])
	}
}

// Entries returns a copy of everything reported so far.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Has reports whether any entry with the given category was reported.
func (s *Sink) Has(category string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Category == category {
			return true
		}
	}
	return false
}
