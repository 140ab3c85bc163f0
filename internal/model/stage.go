package model

// Stage represents the coarse phase of a single video download
type Stage string

const (
	// StagePending means the job is queued but not started
	StagePending Stage = "Pending"

	// StageFetching means metadata is being requested from the site
	StageFetching Stage = "Fetching"

	// StageDownloading means a media track download is in progress
	StageDownloading Stage = "Downloading"

	// StageMerging means downloaded tracks are being merged into one file
	StageMerging Stage = "Merging"

	// StageDone means the job finished successfully
	StageDone Stage = "Done"

	// StageFailed means the job failed permanently
	StageFailed Stage = "Failed"
)

// stageRank orders stages along the normal forward path. Failed sits
// outside the path and is reachable from any non-terminal stage.
var stageRank = map[Stage]int{
	StagePending:     0,
	StageFetching:    1,
	StageDownloading: 2,
	StageMerging:     3,
	StageDone:        4,
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// IsActive returns true if the job is in an active, non-terminal state
func (s Stage) IsActive() bool {
	return s == StageFetching || s == StageDownloading || s == StageMerging
}

// CanAdvanceTo reports whether a transition from s to next respects the
// forward-only ordering. Failed is always reachable from a non-terminal
// stage; every other move must not go backwards.
func (s Stage) CanAdvanceTo(next Stage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return stageRank[next] >= stageRank[s]
}

// Track identifies which media track is currently downloading. A video
// download normally runs two passes: the video track, then the audio
// track.
type Track int

const (
	TrackNone Track = iota
	TrackVideo
	TrackAudio
)

// String returns a lowercase track label for status lines
func (t Track) String() string {
	switch t {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	default:
		return ""
	}
}

// Next returns the track that follows t in the download order
func (t Track) Next() Track {
	switch t {
	case TrackNone:
		return TrackVideo
	case TrackVideo:
		return TrackAudio
	default:
		return TrackAudio
	}
}
