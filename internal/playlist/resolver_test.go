package playlist

import (
	"testing"

	"github.com/ytget/yt-batch/internal/model"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{
			name:     "bare playlist ID",
			ref:      "PLabc123def456",
			expected: "PLabc123def456",
		},
		{
			name:     "playlist URL",
			ref:      "https://www.youtube.com/playlist?list=PLabc123def456",
			expected: "PLabc123def456",
		},
		{
			name:     "watch URL with list parameter",
			ref:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLabc123def456&index=2",
			expected: "PLabc123def456",
		},
		{
			name:     "URL without list parameter",
			ref:      "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expected: "",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if result := ExtractID(test.ref); result != test.expected {
				t.Errorf("ExtractID(%q) = %q, expected %q", test.ref, result, test.expected)
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		titles   []string
		expected string
	}{
		{
			name:     "no videos",
			titles:   nil,
			expected: "",
		},
		{
			name:     "single untitled video",
			titles:   []string{""},
			expected: "",
		},
		{
			name:     "single video",
			titles:   []string{"Lecture"},
			expected: "Lecture Playlist",
		},
		{
			name:     "common prefix",
			titles:   []string{"Algorithms 101 - Part 1", "Algorithms 101 - Part 2"},
			expected: "Algorithms 101 - Part Playlist",
		},
		{
			name:     "short prefix falls back to first title",
			titles:   []string{"Intro", "Other"},
			expected: "Intro Playlist",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			videos := make([]*model.VideoJob, len(test.titles))
			for i, title := range test.titles {
				videos[i] = model.NewVideoJob("id", i+1)
				videos[i].Title = title
			}
			if result := deriveTitle(videos); result != test.expected {
				t.Errorf("deriveTitle(%v) = %q, expected %q", test.titles, result, test.expected)
			}
		})
	}
}
