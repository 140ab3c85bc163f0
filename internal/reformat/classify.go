package reformat

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies the meaning of a classified output line
type Kind int

const (
	// KindNone means the line carries no recognized signal and is dropped
	KindNone Kind = iota

	// KindFetching means the tool is requesting metadata
	KindFetching

	// KindDestination means a track download is starting
	KindDestination

	// KindProgress carries a percent and transfer rate sample
	KindProgress

	// KindMerging means downloaded tracks are being merged
	KindMerging

	// KindAlreadyDone means the file already exists on disk
	KindAlreadyDone

	// KindAccessDenied means the site refused the request (HTTP 403)
	KindAccessDenied

	// KindError carries an explicit tool error message
	KindError
)

// Event is the classified form of one raw output line
type Event struct {
	Kind    Kind
	Percent float64 // valid for KindProgress
	RateMiB float64 // valid for KindProgress, normalized to MiB/s
	Line    string  // raw line, kept for error reporting
}

// Progress and stage patterns as emitted by yt-dlp with --newline.
var (
	reProgress = regexp.MustCompile(
		`^\[download\]\s+(\d+(?:\.\d+)?)% of ~?\s*\d+(?:\.\d+)?([KMG])iB at\s+(\d+(?:\.\d+)?)([KMG])iB/s`)
	reDestination = regexp.MustCompile(`^\[download\] Destination:`)
	reMerging     = regexp.MustCompile(`^\[Merger\] Merging formats into`)
	reFetching    = regexp.MustCompile(`^\[(youtube|info)\]`)
)

// classifiers is the single ordered table of recognized patterns.
// Order matters: destination lines also match the generic download
// prefix, so more specific checks come first.
var classifiers = []func(string) (Event, bool){
	classifyDestination,
	classifyProgress,
	classifyMerging,
	classifyAlreadyDone,
	classifyAccessDenied,
	classifyError,
	classifyFetching,
}

// Classify maps one raw output line to an Event. Unrecognized lines
// yield KindNone.
func Classify(line string) Event {
	line = strings.TrimSpace(line)
	for _, fn := range classifiers {
		if ev, ok := fn(line); ok {
			return ev
		}
	}
	return Event{Kind: KindNone, Line: line}
}

func classifyDestination(line string) (Event, bool) {
	if !reDestination.MatchString(line) {
		return Event{}, false
	}
	return Event{Kind: KindDestination, Line: line}, true
}

func classifyProgress(line string) (Event, bool) {
	m := reProgress.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	pc, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Event{}, false
	}
	rate, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Event{}, false
	}
	return Event{
		Kind:    KindProgress,
		Percent: pc,
		RateMiB: toMiB(rate, m[4]),
		Line:    line,
	}, true
}

func classifyMerging(line string) (Event, bool) {
	if !reMerging.MatchString(line) {
		return Event{}, false
	}
	return Event{Kind: KindMerging, Line: line}, true
}

func classifyAlreadyDone(line string) (Event, bool) {
	if !strings.HasSuffix(line, "has already been downloaded") {
		return Event{}, false
	}
	return Event{Kind: KindAlreadyDone, Line: line}, true
}

func classifyAccessDenied(line string) (Event, bool) {
	if !strings.HasSuffix(line, "HTTP Error 403: Forbidden") {
		return Event{}, false
	}
	return Event{Kind: KindAccessDenied, Line: line}, true
}

func classifyError(line string) (Event, bool) {
	if !strings.HasPrefix(line, "ERROR:") {
		return Event{}, false
	}
	return Event{Kind: KindError, Line: strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))}, true
}

func classifyFetching(line string) (Event, bool) {
	if !reFetching.MatchString(line) {
		return Event{}, false
	}
	return Event{Kind: KindFetching, Line: line}, true
}

// toMiB normalizes a rate sample to MiB/s
func toMiB(value float64, unit string) float64 {
	switch unit {
	case "K":
		return value / 1024
	case "G":
		return value * 1024
	default:
		return value
	}
}
