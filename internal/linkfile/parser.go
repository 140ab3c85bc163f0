// Package linkfile reads text files of video links or identifiers, one
// or more per line, and normalizes them to bare video IDs. Blank lines
// and comments are skipped; duplicates collapse to their first
// occurrence with input order preserved.
package linkfile

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/ytget/yt-batch/internal/model"
)

// Recognized link shapes: watch URLs, short URLs, and bare IDs.
var (
	reWatch = regexp.MustCompile(`[?&]v=([^?&\s]+)`)
	reShort = regexp.MustCompile(`youtu\.be/([^?&\s/]+)`)
	reBare  = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
)

// Entry is one parsed video identifier and its source line number
type Entry struct {
	ID   string
	Line int
}

// Result holds the parsed identifiers in first-occurrence order plus a
// count of tokens that could not be identified as links
type Result struct {
	Entries   []Entry
	Malformed int
}

// IDs returns the bare identifiers in order
func (r *Result) IDs() []string {
	return lo.Map(r.Entries, func(e Entry, _ int) string { return e.ID })
}

// Jobs builds pending download jobs in order
func (r *Result) Jobs() []*model.VideoJob {
	return lo.Map(r.Entries, func(e Entry, i int) *model.VideoJob {
		job := model.NewVideoJob(e.ID, e.Line)
		job.Index = i
		return job
	})
}

// Parse reads and parses a link file. A missing or unreadable file is
// an error; a file with no links is a valid empty result.
func Parse(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open links file %s", path)
	}
	defer f.Close()
	res, err := parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read links file %s", path)
	}
	return res, nil
}

func parse(r io.Reader) (*Result, error) {
	res := &Result{}
	var entries []Entry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		for _, token := range strings.Fields(line) {
			id, ok := extractID(token)
			if !ok {
				res.Malformed++
				continue
			}
			entries = append(entries, Entry{ID: id, Line: lineNo})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	res.Entries = lo.UniqBy(entries, func(e Entry) string { return e.ID })
	return res, nil
}

// extractID normalizes a single token to a bare video ID
func extractID(token string) (string, bool) {
	if m := reWatch.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if m := reShort.FindStringSubmatch(token); m != nil {
		return m[1], true
	}
	if reBare.MatchString(token) {
		return token, true
	}
	return "", false
}
