// Package cli wires the cobra command surface: one positional argument
// naming either a link file (batch mode) or a playlist ID (playlist
// mode), plus flags overriding the loaded configuration.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ytget/yt-batch/internal/config"
	"github.com/ytget/yt-batch/internal/display"
	"github.com/ytget/yt-batch/internal/download"
	"github.com/ytget/yt-batch/internal/linkfile"
	"github.com/ytget/yt-batch/internal/model"
	"github.com/ytget/yt-batch/internal/playlist"
)

var (
	cfgFile           string
	flagThreads       int
	flagFormat        string
	flagOutput        string
	flagDownloadDir   string
	flagSlowThreshold float64
	flagSlowWindow    int
	flagMaxRestarts   int
	flagLogLevel      string
	flagLogFormat     string
)

var rootCmd = &cobra.Command{
	Use:   "yt-batch <links-file | playlist-id>",
	Short: "Batch video downloader around yt-dlp",
	Long: `yt-batch drives yt-dlp over a list of videos, re-presenting its
verbose progress stream as one compact status line per video, and
restarts downloads that stall below a throughput threshold or hit
rate limits.

The single argument is a path to a link file (one link or video ID
per line; blank lines and comment lines ignored) or, when no such
file exists, a playlist ID or playlist URL.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the root command. The returned error indicates an
// unrecoverable setup failure; per-job download failures are reported
// but do not surface here.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.yt-batch.yaml)")
	flags.IntVarP(&flagThreads, "threads", "t", 1, "number of parallel download workers")
	flags.StringVar(&flagFormat, "format", "", "yt-dlp format selector")
	flags.StringVar(&flagOutput, "output", "", "yt-dlp output template")
	flags.StringVar(&flagDownloadDir, "download-dir", "", "directory for downloaded media")
	flags.Float64Var(&flagSlowThreshold, "slow-threshold", config.DefaultSlowThresholdMiB,
		"transfer rate in MiB/s below which a sample counts as slow")
	flags.IntVar(&flagSlowWindow, "slow-window", config.DefaultSlowWindow,
		"consecutive slow samples tolerated before a restart")
	flags.IntVar(&flagMaxRestarts, "max-restarts", config.DefaultMaxRestarts,
		"restarts allowed per video before it is marked failed")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&flagLogFormat, "log-format", "", "log format (text, json)")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	log := newLogger(cfg)

	if cfg.DownloadDir != "" && cfg.DownloadDir != "." {
		if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
			return errors.Wrapf(err, "create download directory %s", cfg.DownloadDir)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := display.New(os.Stdout)
	svc := download.NewService(cfg, log, screen)

	target := args[0]
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return runBatch(ctx, log, svc, target)
	}
	return runPlaylist(ctx, log, svc, target)
}

// runBatch downloads every video listed in a link file
func runBatch(ctx context.Context, log logrus.FieldLogger, svc *download.Service, path string) error {
	parsed, err := linkfile.Parse(path)
	if err != nil {
		return err
	}
	if parsed.Malformed > 0 {
		log.WithField("count", parsed.Malformed).Warn("some lines could not be identified as links")
	}

	jobs := parsed.Jobs()
	if len(jobs) == 0 {
		log.Info("no links found")
		return nil
	}
	log.WithField("count", len(jobs)).Debug("parsed link file")

	return report(ctx, log, svc.Run(ctx, jobs))
}

// runPlaylist resolves a playlist and downloads its members
func runPlaylist(ctx context.Context, log logrus.FieldLogger, svc *download.Service, ref string) error {
	resolver := playlist.NewResolver()
	pl, err := resolver.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"playlist": pl.ID,
		"videos":   pl.Len(),
	}).Debug("resolved playlist")

	return report(ctx, log, svc.Run(ctx, pl.Jobs()))
}

// report logs the batch outcome. Per-job failures are reported but do
// not make the run fail; an interrupted batch does.
func report(ctx context.Context, log logrus.FieldLogger, results []download.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	failed := 0
	for _, res := range results {
		if res.Job.Stage == model.StageFailed {
			failed++
			log.WithFields(logrus.Fields{
				"video": res.Job.VideoID,
				"line":  res.Job.Line,
			}).WithError(res.Err).Error("video failed")
		}
	}
	if failed > 0 {
		log.WithField("failed", failed).Warn("batch finished with failures")
	}
	return nil
}

// applyFlags overrides loaded configuration with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("threads") {
		cfg.Threads = flagThreads
	}
	if flags.Changed("format") {
		cfg.Format = flagFormat
	}
	if flags.Changed("output") {
		cfg.OutputTemplate = flagOutput
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir = flagDownloadDir
	}
	if flags.Changed("slow-threshold") {
		cfg.Slow.ThresholdMiB = flagSlowThreshold
	}
	if flags.Changed("slow-window") {
		cfg.Slow.Window = flagSlowWindow
	}
	if flags.Changed("max-restarts") {
		cfg.MaxRestarts = flagMaxRestarts
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = flagLogFormat
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unknown log level %q, using info\n", cfg.Log.Level)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	if cfg.Log.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
