package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WatchURLTemplate builds a watch URL from a bare video ID
const WatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// VideoJob represents a single video download job
type VideoJob struct {
	ID         string // unique job key
	VideoID    string // bare video identifier
	Line       int    // source line number in the link file, 1-based
	Index      int    // position within the batch, 0-based
	Title      string // video title, if known
	Stage      Stage
	Track      Track   // current media track within StageDownloading
	Percent    float64 // 0 to 100 for the current track
	RateMiB    float64 // last observed transfer rate, MiB/s
	Restarts   int
	LastError  string
	OutTmpl    string // per-job output template override, if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewVideoJob creates a pending job for a video identifier
func NewVideoJob(videoID string, line int) *VideoJob {
	return &VideoJob{
		ID:      uuid.NewString(),
		VideoID: videoID,
		Line:    line,
		Stage:   StagePending,
	}
}

// URL returns the full watch URL for the job's video ID
func (j *VideoJob) URL() string {
	return fmt.Sprintf(WatchURLTemplate, j.VideoID)
}

// Advance moves the job to the given stage if the transition respects
// the forward-only ordering. Returns true if the stage changed.
func (j *VideoJob) Advance(next Stage) bool {
	if next == j.Stage || !j.Stage.CanAdvanceTo(next) {
		return false
	}
	j.Stage = next
	if next == StageDownloading && j.Track == TrackNone {
		j.Track = TrackVideo
	}
	if next.IsTerminal() {
		j.FinishedAt = time.Now()
	}
	return true
}

// NextTrack switches the job to the following media track and resets
// per-track progress. Called when a new destination line is seen while
// already downloading.
func (j *VideoJob) NextTrack() {
	j.Track = j.Track.Next()
	j.Percent = 0
	j.RateMiB = 0
}

// Reset returns the job to Pending for a retry and increments the
// restart count. Progress and track state are discarded; partial
// output is never reused.
func (j *VideoJob) Reset() {
	j.Stage = StagePending
	j.Track = TrackNone
	j.Percent = 0
	j.RateMiB = 0
	j.Restarts++
}

// Fail marks the job permanently failed with the given reason
func (j *VideoJob) Fail(reason string) {
	j.LastError = reason
	j.Advance(StageFailed)
}

// Elapsed returns the wall time the job has been running
func (j *VideoJob) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// DisplayName returns the title if known, otherwise the video ID
func (j *VideoJob) DisplayName() string {
	if j.Title != "" {
		return j.Title
	}
	return j.VideoID
}
