package model

// Package model defines domain data structures shared across the tool:
// video jobs, the download stage state machine, and playlist references.
// Jobs are owned by a single worker at a time; cross-worker reporting
// goes through snapshots, not shared mutation.
