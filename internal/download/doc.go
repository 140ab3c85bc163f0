package download

// Package download implements the batch download pipeline: a bounded
// worker pool feeding jobs to either the in-process ytdlp client
// (serial mode) or per-job yt-dlp subprocesses (parallel mode), with
// status reporting through the display screen and automatic restarts
// handled by the failure monitor.
