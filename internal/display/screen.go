// Package display owns terminal output for a batch: one banner line
// plus one status line per job, rewritten in place when stdout is a
// terminal and appended as plain lines otherwise. All writes are
// serialized behind a mutex so concurrent workers never interleave.
package display

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sync"
)

var reANSI = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Screen renders the batch status block
type Screen struct {
	mu       sync.Mutex
	w        io.Writer
	tty      bool
	lines    []string
	rendered int
}

// New creates a screen writing to f, rewriting lines in place when f
// is a terminal
func New(f *os.File) *Screen {
	tty := false
	if info, err := f.Stat(); err == nil {
		tty = info.Mode()&os.ModeCharDevice != 0
	}
	return &Screen{w: f, tty: tty}
}

// NewWriter creates a plain, append-only screen for arbitrary writers
func NewWriter(w io.Writer) *Screen {
	return &Screen{w: w}
}

// Banner sets the batch-level line above the job block
func (s *Screen) Banner(text string) {
	s.setLine(0, text)
}

// Update sets the status line for the job at the given batch index
func (s *Screen) Update(idx int, text string) {
	s.setLine(idx+1, text)
}

// Lines returns a snapshot of the current content, ANSI stripped
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	for i, l := range s.lines {
		out[i] = reANSI.ReplaceAllString(l, "")
	}
	return out
}

func (s *Screen) setLine(idx int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.lines) <= idx {
		s.lines = append(s.lines, "")
	}
	s.lines[idx] = text
	s.flush(idx)
}

// flush redraws the whole block on a terminal, or prints just the
// changed line elsewhere (logs, CI).
func (s *Screen) flush(changed int) {
	if !s.tty {
		fmt.Fprintln(s.w, reANSI.ReplaceAllString(s.lines[changed], ""))
		return
	}
	if s.rendered > 0 {
		fmt.Fprintf(s.w, "\033[%dA", s.rendered)
	}
	for _, line := range s.lines {
		fmt.Fprintf(s.w, "\r\033[2K%s\n", line)
	}
	s.rendered = len(s.lines)
}
