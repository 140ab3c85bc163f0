package display

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestScreen_BannerAndUpdates(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)

	s.Banner("Downloading 2 videos")
	s.Update(0, "first pending")
	s.Update(1, "second pending")
	s.Update(0, "first downloading")

	lines := s.Lines()
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Downloading 2 videos" {
		t.Errorf("Unexpected banner: %q", lines[0])
	}
	if lines[1] != "first downloading" {
		t.Errorf("Expected job line rewritten, got %q", lines[1])
	}
	if lines[2] != "second pending" {
		t.Errorf("Unexpected second job line: %q", lines[2])
	}
}

func TestScreen_NonTTYAppendsChangedLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)

	s.Update(0, "\033[33mone\033[m")
	s.Update(0, "two")

	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) != 2 {
		t.Fatalf("Expected 2 appended lines, got %d: %q", len(out), buf.String())
	}
	if out[0] != "one" {
		t.Errorf("Expected ANSI stripped on plain writers, got %q", out[0])
	}
}

func TestScreen_SparseIndexesGrowBlock(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)

	s.Update(4, "fifth job")
	if n := len(s.Lines()); n != 6 {
		t.Errorf("Expected block grown to 6 lines, got %d", n)
	}
}

func TestScreen_ConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Update(idx, "tick")
			}
		}(i)
	}
	wg.Wait()

	if n := len(s.Lines()); n != 9 {
		t.Errorf("Expected 9 lines after concurrent writes, got %d", n)
	}
}
