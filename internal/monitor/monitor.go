// Package monitor watches classified download events for failure
// conditions: a sustained run of low-throughput samples (a speed sink)
// or an access-denied signal. It decides whether the affected job is
// restarted or permanently failed once the restart cap is reached.
package monitor

import (
	"fmt"

	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/reformat"
)

// Action is the monitor's verdict for one observed event
type Action int

const (
	// ActionNone means the job continues undisturbed
	ActionNone Action = iota

	// ActionRestart means the current attempt is cancelled and the job
	// re-enqueued from Pending
	ActionRestart

	// ActionFail means the restart cap is exhausted and the job fails
	// permanently
	ActionFail
)

// Config holds the operationally tuned failure thresholds
type Config struct {
	// SlowThresholdMiB is the transfer rate, in MiB/s, below which a
	// progress sample counts as slow
	SlowThresholdMiB float64

	// SlowWindow is the number of consecutive slow samples tolerated
	// before a restart is triggered
	SlowWindow int

	// MaxRestarts caps the number of restarts per job
	MaxRestarts int
}

// Monitor tracks failure signals for a single job
type Monitor struct {
	cfg       Config
	job       *model.VideoJob
	slowCount int
}

// New creates a monitor bound to one job
func New(cfg Config, job *model.VideoJob) *Monitor {
	return &Monitor{cfg: cfg, job: job}
}

// Observe inspects one classified event and returns the action to take
// plus a human-readable reason for restart or failure verdicts.
func (m *Monitor) Observe(ev reformat.Event) (Action, string) {
	switch ev.Kind {
	case reformat.KindProgress:
		if ev.RateMiB < m.cfg.SlowThresholdMiB {
			m.slowCount++
			if m.slowCount > m.cfg.SlowWindow {
				m.slowCount = 0
				return m.trigger("reached slow speed limit")
			}
			return ActionNone, ""
		}
		m.slowCount = 0
	case reformat.KindAccessDenied:
		m.slowCount = 0
		return m.trigger("received HTTP Error 403")
	}
	return ActionNone, ""
}

// OnExit inspects a subprocess exit error. A clean exit returns
// ActionNone; anything else is treated as a transient failure subject
// to the same restart cap.
func (m *Monitor) OnExit(err error) (Action, string) {
	if err == nil {
		return ActionNone, ""
	}
	m.slowCount = 0
	return m.trigger(fmt.Sprintf("tool exited: %v", err))
}

// SlowCount returns the current consecutive slow sample count
func (m *Monitor) SlowCount() int {
	return m.slowCount
}

func (m *Monitor) trigger(reason string) (Action, string) {
	if m.job.Restarts >= m.cfg.MaxRestarts {
		return ActionFail, "restart limit reached"
	}
	remaining := m.cfg.MaxRestarts - m.job.Restarts - 1
	return ActionRestart, fmt.Sprintf("%s, restarting (remaining: %d)", reason, remaining)
}
