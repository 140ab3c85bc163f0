package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/display"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/monitor"
	"github.com/ytget/yt-batch/internal/reformat"
	"github.com/ytget/yt-batch/internal/runner"
)

// Result pairs a job with its terminal outcome
type Result struct {
	Job *model.VideoJob
	Err error
}

// Service runs a batch of download jobs through a bounded worker pool.
// Serial batches (one worker) download in-process through the ytdlp
// library; parallel batches spawn one yt-dlp subprocess per job.
type Service struct {
	cfg       *config.Config
	log       logrus.FieldLogger
	screen    *display.Screen
	headerPad int

	mu      sync.Mutex
	results []Result

	// processFn overrides per-job processing in tests
	processFn func(ctx context.Context, job *model.VideoJob, machine *reformat.Machine) error

	// downloadFn performs one in-process download attempt; tests inject
	// a stub here to drive the library retry loop
	downloadFn func(ctx context.Context, job *model.VideoJob, machine *reformat.Machine) (string, error)
}

// NewService creates a download service
func NewService(cfg *config.Config, log logrus.FieldLogger, screen *display.Screen) *Service {
	return &Service{cfg: cfg, log: log, screen: screen}
}

// Run downloads all jobs and blocks until every job reaches a terminal
// stage or ctx is cancelled. Per-job failures never abort the batch.
// Results are returned in input order regardless of completion order.
func (s *Service) Run(ctx context.Context, jobs []*model.VideoJob) []Result {
	if len(jobs) == 0 {
		s.screen.Banner("No videos to download")
		return nil
	}

	s.headerPad = 0
	for _, job := range jobs {
		if len(job.VideoID) > s.headerPad {
			s.headerPad = len(job.VideoID)
		}
	}

	s.screen.Banner(fmt.Sprintf("Downloading %d video%s", len(jobs), plural(len(jobs))))
	for _, job := range jobs {
		s.screen.Update(job.Index, reformat.FormatStatus(job, s.headerPad))
	}

	workers := s.cfg.Threads
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan *model.VideoJob)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				s.process(ctx, job)
			}
		}()
	}

	start := time.Now()
feed:
	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	done := 0
	for _, job := range jobs {
		if job.Stage == model.StageDone {
			done++
		}
	}
	s.screen.Banner(fmt.Sprintf("Downloaded %d of %d video%s in %.1fs",
		done, len(jobs), plural(len(jobs)), time.Since(start).Seconds()))

	return s.ordered(jobs)
}

// process runs one job to a terminal stage and records the result
func (s *Service) process(ctx context.Context, job *model.VideoJob) {
	machine := reformat.NewMachine(job, s.screen, s.headerPad)

	var err error
	if s.processFn != nil {
		err = s.processFn(ctx, job, machine)
	} else if s.useLibrary(job) {
		err = s.processLibrary(ctx, job, machine)
	} else {
		mon := monitor.New(monitor.Config{
			SlowThresholdMiB: s.cfg.Slow.ThresholdMiB,
			SlowWindow:       s.cfg.Slow.Window,
			MaxRestarts:      s.cfg.MaxRestarts,
		}, job)
		err = runner.New(s.cfg, job, machine, mon, s.log).Run(ctx)
	}

	if err != nil && job.Stage != model.StageFailed && ctx.Err() == nil {
		job.Fail(err.Error())
		machine.Emit()
	}
	if err != nil {
		s.log.WithField("video", job.VideoID).WithError(err).Error("download failed")
	}

	s.mu.Lock()
	s.results = append(s.results, Result{Job: job, Err: err})
	s.mu.Unlock()
}

// useLibrary reports whether a job goes through the in-process ytdlp
// client instead of a yt-dlp subprocess. The library client handles
// the plain serial case only: jobs carrying a per-job output template
// (playlist members) or a custom format selector need the real tool,
// which is the only path that honors them and the speed sink monitor.
func (s *Service) useLibrary(job *model.VideoJob) bool {
	return s.cfg.Threads == 1 &&
		job.OutTmpl == "" &&
		s.cfg.Format == config.DefaultFormat
}

// libDownload runs one download attempt through the ytdlp client and
// returns the video title. The library reports percent progress only,
// so the speed sink monitor does not apply.
func (s *Service) libDownload(ctx context.Context, job *model.VideoJob, machine *reformat.Machine) (string, error) {
	d := ytdlp.New().
		WithOutputPath(s.cfg.DownloadDir).
		WithProgress(func(p ytdlp.Progress) {
			machine.Apply(reformat.Event{Kind: reformat.KindProgress, Percent: p.Percent})
		})
	info, err := d.Download(ctx, job.URL())
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", nil
	}
	return info.Title, nil
}

// processLibrary downloads in-process through the ytdlp client,
// retrying failed attempts up to the restart cap with backoff.
func (s *Service) processLibrary(ctx context.Context, job *model.VideoJob, machine *reformat.Machine) error {
	download := s.downloadFn
	if download == nil {
		download = s.libDownload
	}

	job.StartedAt = time.Now()
	job.Advance(model.StageFetching)
	machine.Emit()

	boff := backoff.New(ctx, backoff.Config{
		MinBackoff: s.cfg.MinBackoff,
		MaxBackoff: s.cfg.MaxBackoff,
	})

	for {
		title, err := download(ctx, job, machine)
		if err == nil {
			if title != "" {
				job.Title = title
			}
			job.Advance(model.StageDone)
			machine.SetSuffix("")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if job.Restarts >= s.cfg.MaxRestarts {
			job.LastError = err.Error()
			job.Fail("restart limit reached")
			machine.SetSuffix("")
			return errors.Wrapf(runner.ErrRestartLimit, "video %s", job.VideoID)
		}
		s.log.WithFields(logrus.Fields{
			"video":    job.VideoID,
			"restarts": job.Restarts + 1,
		}).WithError(err).Warn("download attempt failed, restarting")
		job.Reset()
		machine.SetSuffix(fmt.Sprintf("[!] retry %d / %d", job.Restarts, s.cfg.MaxRestarts))
		boff.Wait()
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// ordered returns results in input order
func (s *Service) ordered(jobs []*model.VideoJob) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]Result, len(s.results))
	for _, res := range s.results {
		byID[res.Job.ID] = res
	}
	out := make([]Result, 0, len(jobs))
	for _, job := range jobs {
		if res, ok := byID[job.ID]; ok {
			out = append(out, res)
			continue
		}
		// Jobs never handed to a worker (batch cancelled early)
		out = append(out, Result{Job: job, Err: context.Canceled})
	}
	return out
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
