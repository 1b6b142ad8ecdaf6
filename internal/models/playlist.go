package models

// Resource kind of a playlist item that points at a video.
const VideoKind = "youtube#video"

// Placeholder titles the platform gives to unavailable videos.
const (
	PrivateVideoTitle = "[Private video]"
	DeletedVideoTitle = "[Deleted video]"
)

// PlaylistDescriptor identifies a resolved playlist.
type PlaylistDescriptor struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// PlaylistItem is one entry of a playlist.
type PlaylistItem struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
}

// Eligible reports whether the item names a video that is neither private nor deleted.
//
// Detection relies on placeholder titles and misses unavailable videos that keep their title.
func (i PlaylistItem) Eligible() bool {
	if i.Kind != VideoKind || i.VideoID == "" {
		return false
	}
	return !i.Unavailable()
}

// Unavailable reports whether the title is one of the private/deleted placeholders.
func (i PlaylistItem) Unavailable() bool {
	return i.Title == PrivateVideoTitle || i.Title == DeletedVideoTitle
}

// ItemPage is one page of playlist items.
type ItemPage struct {
	Items         []PlaylistItem
	NextPageToken string
	TotalResults  int64
}

// PlaylistPage is one page of the caller's own playlists.
type PlaylistPage struct {
	Playlists     []PlaylistDescriptor
	NextPageToken string
}

// VideoIDSet is a set of video IDs that remembers insertion order.
type VideoIDSet struct {
	ids  []string
	seen map[string]struct{}
}

// NewVideoIDSet creates a set holding ids, dropping repeats.
func NewVideoIDSet(ids ...string) *VideoIDSet {
	s := &VideoIDSet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was new.
func (s *VideoIDSet) Add(id string) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Has reports whether id is in the set.
func (s *VideoIDSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of IDs.
func (s *VideoIDSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the IDs in insertion order.
func (s *VideoIDSet) IDs() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Difference returns the IDs of s that are not in other, in the order of s.
func (s *VideoIDSet) Difference(other *VideoIDSet) []string {
	var out []string
	for _, id := range s.IDs() {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
