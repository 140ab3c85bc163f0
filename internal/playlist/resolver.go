// Package playlist resolves playlist identifiers into ordered member
// video jobs using the ytdlp library client.
package playlist

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-batch/internal/model"
)

// DefaultResolveTimeout bounds playlist enumeration
const DefaultResolveTimeout = 60 * time.Second

// URL parameters for playlist link forms
const (
	playlistParam  = "list="
	paramSeparator = "&"
)

// Title derivation constants
const (
	minPrefixLength = 10
	playlistSuffix  = " Playlist"
)

// ErrEmpty marks a playlist that resolved to no members
var ErrEmpty = errors.New("playlist is empty")

// Resolver enumerates playlist members
type Resolver struct {
	timeout time.Duration
}

// NewResolver creates a resolver with the default timeout
func NewResolver() *Resolver {
	return &Resolver{timeout: DefaultResolveTimeout}
}

// SetTimeout sets the timeout for resolution
func (r *Resolver) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// Resolve turns a playlist ID or playlist URL into an ordered set of
// member jobs. An inaccessible or empty playlist is an error.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*model.PlaylistRef, error) {
	playlistID := ExtractID(ref)
	if playlistID == "" {
		return nil, errors.Errorf("could not extract playlist ID from %q", ref)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve playlist %s", playlistID)
	}
	if len(items) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "playlist %s", playlistID)
	}

	videos := make([]*model.VideoJob, 0, len(items))
	for i, it := range items {
		job := model.NewVideoJob(it.VideoID, i+1)
		job.Title = it.Title
		job.Index = i
		videos = append(videos, job)
	}

	return &model.PlaylistRef{
		ID:     playlistID,
		Title:  deriveTitle(videos),
		Videos: videos,
	}, nil
}

// ExtractID pulls a playlist ID out of a playlist URL, or returns the
// input unchanged when it already looks like a bare ID.
func ExtractID(ref string) string {
	if !strings.Contains(ref, playlistParam) {
		if strings.ContainsAny(ref, "/?") {
			return ""
		}
		return ref
	}
	part := strings.SplitN(ref, playlistParam, 2)[1]
	if i := strings.Index(part, paramSeparator); i >= 0 {
		part = part[:i]
	}
	return part
}

// deriveTitle guesses a playlist title from a shared prefix of the
// first two member titles
func deriveTitle(videos []*model.VideoJob) string {
	if len(videos) == 0 {
		return ""
	}
	if len(videos) > 1 {
		prefix := commonPrefix(videos[0].Title, videos[1].Title)
		if len(prefix) > minPrefixLength {
			return strings.TrimSpace(prefix) + playlistSuffix
		}
	}
	if videos[0].Title == "" {
		return ""
	}
	return videos[0].Title + playlistSuffix
}

func commonPrefix(s1, s2 string) string {
	n := min(len(s1), len(s2))
	for i := 0; i < n; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:n]
}
