package reformat

// Package reformat re-presents yt-dlp's verbose progress stream as
// compact stage-aware status lines. Classify maps raw output lines to
// tagged events using a single ordered pattern table; Machine folds
// events into a job's stage and emits one rewritten line per
// meaningful transition.
