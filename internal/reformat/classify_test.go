package reformat

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Kind
	}{
		{
			name:     "destination line",
			line:     "[download] Destination: Uploader/Some Title.f298.mp4",
			expected: KindDestination,
		},
		{
			name:     "progress line",
			line:     "[download]  24.5% of 120.45MiB at 5.52MiB/s ETA 00:18",
			expected: KindProgress,
		},
		{
			name:     "progress line with estimated size",
			line:     "[download]   1.2% of ~250.00MiB at 800.10KiB/s ETA 05:10",
			expected: KindProgress,
		},
		{
			name:     "merger line",
			line:     `[Merger] Merging formats into "Uploader/Some Title.mkv"`,
			expected: KindMerging,
		},
		{
			name:     "already downloaded",
			line:     "[download] Uploader/Some Title.mp4 has already been downloaded",
			expected: KindAlreadyDone,
		},
		{
			name:     "access denied on stderr",
			line:     "ERROR: unable to download video data: HTTP Error 403: Forbidden",
			expected: KindAccessDenied,
		},
		{
			name:     "tool error",
			line:     "ERROR: [youtube] abc123: Video unavailable",
			expected: KindError,
		},
		{
			name:     "metadata fetch",
			line:     "[youtube] dQw4w9WgXcQ: Downloading webpage",
			expected: KindFetching,
		},
		{
			name:     "info fetch",
			line:     "[info] dQw4w9WgXcQ: Downloading 1 format(s): 298+bestaudio",
			expected: KindFetching,
		},
		{
			name:     "unrecognized chatter dropped",
			line:     "Deleting original file Some Title.f298.mp4 (pass -k to keep)",
			expected: KindNone,
		},
		{
			name:     "empty line dropped",
			line:     "",
			expected: KindNone,
		},
		{
			name:     "fragment progress without rate dropped",
			line:     "[download] Got server HTTP error: <urlopen error timed out>",
			expected: KindNone,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ev := Classify(test.line)
			if ev.Kind != test.expected {
				t.Errorf("Classify(%q).Kind = %v, expected %v", test.line, ev.Kind, test.expected)
			}
		})
	}
}

func TestClassify_ProgressValues(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		percent float64
		rateMiB float64
	}{
		{
			name:    "MiB rate",
			line:    "[download]  24.5% of 120.45MiB at 5.52MiB/s ETA 00:18",
			percent: 24.5,
			rateMiB: 5.52,
		},
		{
			name:    "KiB rate normalized",
			line:    "[download]  80.0% of 10.00MiB at 512.00KiB/s ETA 00:04",
			percent: 80.0,
			rateMiB: 0.5,
		},
		{
			name:    "GiB rate normalized",
			line:    "[download]   3.0% of 8.00GiB at 1.50GiB/s ETA 00:05",
			percent: 3.0,
			rateMiB: 1536,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ev := Classify(test.line)
			if ev.Kind != KindProgress {
				t.Fatalf("Expected progress event, got %v", ev.Kind)
			}
			if ev.Percent != test.percent {
				t.Errorf("Expected percent %.1f, got %.1f", test.percent, ev.Percent)
			}
			if math.Abs(ev.RateMiB-test.rateMiB) > 1e-9 {
				t.Errorf("Expected rate %.3f MiB/s, got %.3f", test.rateMiB, ev.RateMiB)
			}
		})
	}
}
