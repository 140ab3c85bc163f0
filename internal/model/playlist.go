package model

import "fmt"

// PlaylistRef represents a playlist identifier resolved into an ordered
// sequence of member videos
type PlaylistRef struct {
	ID     string
	Title  string
	Videos []*VideoJob
}

// Len returns the number of member videos
func (p *PlaylistRef) Len() int {
	return len(p.Videos)
}

// Jobs returns the member jobs in playlist order, each carrying an
// index-prefixed output template so files sort in playlist order on
// disk. Indexes are zero-padded to the playlist width.
func (p *PlaylistRef) Jobs() []*VideoJob {
	width := len(fmt.Sprintf("%d", len(p.Videos)))
	for i, job := range p.Videos {
		job.Index = i
		job.OutTmpl = fmt.Sprintf("%%(uploader)s/%s/%0*d__%%(title)s.%%(ext)s",
			p.dirName(), width, i+1)
	}
	return p.Videos
}

func (p *PlaylistRef) dirName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}
