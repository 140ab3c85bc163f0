package reformat

import (
	"fmt"
	"time"

	"github.com/ytget/yt-batch/internal/model"
)

// Minimum interval between progress-only status rewrites
const progressInterval = 333 * time.Millisecond

// ANSI fragments for status lines
const (
	ansiReset  = "\033[m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiViolet = "\033[35m"
)

// Sink receives one rewritten status line per meaningful transition
type Sink interface {
	Update(idx int, text string)
}

// Machine folds classified output events into a job's stage and emits
// compact status lines in place of the tool's multi-line chatter
type Machine struct {
	job       *model.VideoJob
	sink      Sink
	lastEmit  time.Time
	suffix    string
	headerPad int
}

// NewMachine creates a state machine bound to one job and sink
func NewMachine(job *model.VideoJob, sink Sink, headerPad int) *Machine {
	return &Machine{job: job, sink: sink, headerPad: headerPad}
}

// Apply folds one event into the job state. Unrecognized events have
// no effect. Returns true if a status line was emitted.
func (m *Machine) Apply(ev Event) bool {
	switch ev.Kind {
	case KindFetching:
		if m.job.Advance(model.StageFetching) {
			return m.emit()
		}
	case KindDestination:
		if m.job.Stage == model.StageDownloading {
			m.job.NextTrack()
			return m.emit()
		}
		if m.job.Advance(model.StageDownloading) {
			return m.emit()
		}
	case KindProgress:
		m.job.Advance(model.StageDownloading)
		// Late progress chatter after the merge started must not
		// distort the status line
		if m.job.Stage != model.StageDownloading {
			return false
		}
		m.job.Percent = ev.Percent
		m.job.RateMiB = ev.RateMiB
		if time.Since(m.lastEmit) >= progressInterval {
			return m.emit()
		}
	case KindMerging:
		if m.job.Advance(model.StageMerging) {
			return m.emit()
		}
	case KindAlreadyDone:
		if m.job.Advance(model.StageDone) {
			return m.emit()
		}
	case KindError:
		m.job.LastError = ev.Line
	}
	return false
}

// SetSuffix attaches a transient note to the status line, such as a
// restart counter. An empty string clears it.
func (m *Machine) SetSuffix(suffix string) {
	m.suffix = suffix
	m.emit()
}

// Emit forces a status line rewrite from the current job state
func (m *Machine) Emit() {
	m.emit()
}

func (m *Machine) emit() bool {
	m.lastEmit = time.Now()
	text := FormatStatus(m.job, m.headerPad)
	if m.suffix != "" {
		text += " " + ansiYellow + m.suffix + ansiReset
	}
	m.sink.Update(m.job.Index, text)
	return true
}

// FormatStatus renders one compact status line for a job: a stage
// marker, the padded video ID, and a stage-specific body.
func FormatStatus(j *model.VideoJob, headerPad int) string {
	header := ansiViolet + pad(j.VideoID, headerPad) + ansiReset
	var prefix, body string
	switch j.Stage {
	case model.StagePending:
		prefix = ansiYellow + "?" + ansiReset
		body = ansiDim + "Pending" + ansiReset
	case model.StageFetching:
		prefix = ansiYellow + "?" + ansiReset
		body = "Fetching metadata"
	case model.StageDownloading:
		prefix = ansiYellow + "?" + ansiReset
		body = fmt.Sprintf("Downloading %s (%5.1f%%)", j.Track, j.Percent)
		if j.RateMiB > 0 {
			body = fmt.Sprintf("Downloading %s (%5.1f%% at %.1fMiB/s)",
				j.Track, j.Percent, j.RateMiB)
		}
	case model.StageMerging:
		prefix = ansiYellow + "?" + ansiReset
		body = ansiCyan + "Merging data" + ansiReset
	case model.StageDone:
		prefix = ansiGreen + "✓" + ansiReset
		body = ansiGreen + "Downloaded and merged" + ansiReset
		if d := j.Elapsed(); d > 0 {
			body += fmt.Sprintf(" in %.1fs", d.Seconds())
		}
	case model.StageFailed:
		prefix = ansiRed + "✘" + ansiReset
		body = ansiRed + "Failed" + ansiReset
		if j.LastError != "" {
			body += ": " + j.LastError
		}
	}
	return prefix + " " + header + "  " + body
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}
