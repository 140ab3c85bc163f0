package model

import (
	"strings"
	"testing"
)

func TestNewVideoJob(t *testing.T) {
	job := NewVideoJob("dQw4w9WgXcQ", 3)

	if job.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("Expected VideoID 'dQw4w9WgXcQ', got '%s'", job.VideoID)
	}
	if job.Line != 3 {
		t.Errorf("Expected Line 3, got %d", job.Line)
	}
	if job.Stage != StagePending {
		t.Errorf("Expected Pending stage, got %s", job.Stage)
	}
	if job.ID == "" {
		t.Error("Expected non-empty job ID")
	}
	if !strings.HasSuffix(job.URL(), "watch?v=dQw4w9WgXcQ") {
		t.Errorf("Unexpected URL: %s", job.URL())
	}
}

func TestVideoJob_AdvanceForwardOnly(t *testing.T) {
	job := NewVideoJob("abc123xyz99", 1)

	if !job.Advance(StageDownloading) {
		t.Fatal("Expected advance to Downloading")
	}
	if job.Track != TrackVideo {
		t.Errorf("Expected video track on entering Downloading, got %v", job.Track)
	}
	if job.Advance(StageFetching) {
		t.Error("Expected backwards advance to be rejected")
	}
	if job.Stage != StageDownloading {
		t.Errorf("Stage changed on rejected advance: %s", job.Stage)
	}
	if !job.Advance(StageDone) {
		t.Fatal("Expected advance to Done")
	}
	if job.FinishedAt.IsZero() {
		t.Error("Expected FinishedAt to be set on terminal stage")
	}
	if job.Advance(StageFailed) {
		t.Error("Expected no transitions out of Done")
	}
}

func TestVideoJob_Reset(t *testing.T) {
	job := NewVideoJob("abc123xyz99", 1)
	job.Advance(StageDownloading)
	job.NextTrack()
	job.Percent = 50
	job.RateMiB = 2.5

	job.Reset()

	if job.Stage != StagePending {
		t.Errorf("Expected Pending after reset, got %s", job.Stage)
	}
	if job.Track != TrackNone {
		t.Errorf("Expected no track after reset, got %v", job.Track)
	}
	if job.Percent != 0 || job.RateMiB != 0 {
		t.Errorf("Expected progress cleared, got %.1f%% %.1fMiB/s", job.Percent, job.RateMiB)
	}
	if job.Restarts != 1 {
		t.Errorf("Expected restart count 1, got %d", job.Restarts)
	}

	job.Reset()
	if job.Restarts != 2 {
		t.Errorf("Expected restart count to be monotonic, got %d", job.Restarts)
	}
}

func TestVideoJob_Fail(t *testing.T) {
	job := NewVideoJob("abc123xyz99", 1)
	job.Advance(StageDownloading)

	job.Fail("restart limit reached")

	if job.Stage != StageFailed {
		t.Errorf("Expected Failed, got %s", job.Stage)
	}
	if job.LastError != "restart limit reached" {
		t.Errorf("Unexpected LastError: %s", job.LastError)
	}
}
