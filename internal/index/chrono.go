package index

import (
	"sort"

	"github.com/davidgrier/inkwell/internal/content"
)

// Adjacency holds a post's immediate chronological neighbors over the
// whole corpus. Prev is the next-newer slug, Next the next-older; either
// is empty at a corpus boundary.
type Adjacency struct {
	Prev string `json:"prev,omitempty"`
	Next string `json:"next,omitempty"`
}

// SortPosts returns a new slice ordered newest first by created time.
// Posts sharing an identical created timestamp are ordered by slug, so
// the ordering is reproducible across rebuilds rather than an accident
// of sort stability.
func SortPosts(posts []*content.Post) []*content.Post {
	sorted := make([]*content.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Created.Equal(sorted[j].Created) {
			return sorted[i].Created.After(sorted[j].Created)
		}
		return sorted[i].Slug < sorted[j].Slug
	})
	return sorted
}

// BuildAdjacency walks the sorted corpus once and assigns prev/next per
// slug. The input must already be in SortPosts order.
func BuildAdjacency(sorted []*content.Post) map[string]Adjacency {
	adj := make(map[string]Adjacency, len(sorted))
	for i, p := range sorted {
		var a Adjacency
		if i > 0 {
			a.Prev = sorted[i-1].Slug
		}
		if i < len(sorted)-1 {
			a.Next = sorted[i+1].Slug
		}
		adj[p.Slug] = a
	}
	return adj
}
