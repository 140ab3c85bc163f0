// Package runner drives one yt-dlp subprocess per download attempt,
// streaming its output line by line through the reformat classifier
// and the failure monitor. A monitor verdict kills the process and
// either re-enqueues a fresh attempt after a backoff delay or fails
// the job permanently.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/monitor"
	"github.com/ytget/yt-batch/internal/reformat"
)

// ErrRestartLimit marks a job that exhausted its restart budget
var ErrRestartLimit = errors.New("restart limit reached")

// Runner owns the subprocess lifecycle for a single job
type Runner struct {
	cfg     *config.Config
	job     *model.VideoJob
	machine *reformat.Machine
	mon     *monitor.Monitor
	log     logrus.FieldLogger
}

// New creates a runner for one job
func New(cfg *config.Config, job *model.VideoJob, machine *reformat.Machine, mon *monitor.Monitor, log logrus.FieldLogger) *Runner {
	return &Runner{cfg: cfg, job: job, machine: machine, mon: mon, log: log}
}

// Run downloads the job's video, restarting the subprocess on speed
// sinks, 403 responses, and transient exits until it succeeds, the
// restart cap is exhausted, or ctx is cancelled. Partial output of a
// killed attempt is never reused; each restart begins from Pending.
func (r *Runner) Run(ctx context.Context) error {
	r.job.StartedAt = time.Now()

	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: r.cfg.MinBackoff,
		MaxBackoff: r.cfg.MaxBackoff,
	})

	for {
		act, reason, err := r.attempt(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		switch act {
		case monitor.ActionNone:
			r.job.Advance(model.StageDone)
			r.machine.SetSuffix("")
			return nil

		case monitor.ActionRestart:
			r.log.WithFields(logrus.Fields{
				"video":    r.job.VideoID,
				"restarts": r.job.Restarts + 1,
			}).Warn(reason)
			r.job.Reset()
			r.machine.SetSuffix(fmt.Sprintf("[!] retry %d / %d", r.job.Restarts, r.cfg.MaxRestarts))
			boff.Wait()

		case monitor.ActionFail:
			if err != nil && r.job.LastError == "" {
				r.job.LastError = err.Error()
			}
			r.job.Fail(reason)
			r.machine.SetSuffix("")
			return errors.Wrapf(ErrRestartLimit, "video %s", r.job.VideoID)
		}
	}
}

// attempt runs one subprocess to completion or cancellation. It
// returns the monitor's verdict: ActionNone for a clean exit,
// otherwise the restart/fail decision and its reason.
func (r *Runner) attempt(ctx context.Context) (monitor.Action, string, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(actx, r.cfg.ToolPath, r.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return monitor.ActionFail, "tool pipe setup failed", err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return monitor.ActionFail, "tool pipe setup failed", err
	}
	if err := cmd.Start(); err != nil {
		return monitor.ActionFail, "tool could not be started", errors.Wrapf(err, "start %s", r.cfg.ToolPath)
	}

	// Both pipes feed the same machine and monitor; the 403 signal
	// arrives on stderr.
	var mu sync.Mutex
	verdict := monitor.ActionNone
	reason := ""
	observe := func(line string) {
		ev := reformat.Classify(line)
		mu.Lock()
		defer mu.Unlock()
		r.machine.Apply(ev)
		if verdict != monitor.ActionNone {
			return
		}
		if act, why := r.mon.Observe(ev); act != monitor.ActionNone {
			verdict, reason = act, why
			cancel()
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(stdout, observe, &wg)
	go scanLines(stderr, observe, &wg)
	wg.Wait()
	waitErr := cmd.Wait()

	mu.Lock()
	defer mu.Unlock()
	if verdict != monitor.ActionNone {
		return verdict, reason, nil
	}
	if act, why := r.mon.OnExit(waitErr); act != monitor.ActionNone {
		return act, why, waitErr
	}
	return monitor.ActionNone, "", nil
}

func (r *Runner) args() []string {
	tmpl := r.job.OutTmpl
	if tmpl == "" {
		tmpl = r.cfg.OutputTemplate
	}
	return []string{
		"--force-ipv4",
		"--geo-bypass",
		"--newline",
		"--format", r.cfg.Format,
		"--output", filepath.Join(r.cfg.DownloadDir, tmpl),
		r.job.URL(),
	}
}

func scanLines(r io.Reader, fn func(string), wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}
