package index

import (
	"fmt"
	"sort"
	"strings"

	"github.com/davidgrier/inkwell/internal/content"
)

// TagIndex maps a tag to the slugs carrying it. Slug order within a tag
// is not significant; consumers re-sort by date.
type TagIndex map[string][]string

// BuildTagIndex groups slugs by tag over the full post set. Every tag a
// post carries becomes a key, including tags used exactly once.
func BuildTagIndex(posts []*content.Post) TagIndex {
	ti := make(TagIndex)
	for _, p := range posts {
		for _, tag := range p.Tags {
			ti[tag] = append(ti[tag], p.Slug)
		}
	}
	return ti
}

// Tags returns all tag keys sorted case-insensitively for display.
func (ti TagIndex) Tags() []string {
	tags := make([]string, 0, len(ti))
	for tag := range ti {
		tags = append(tags, tag)
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})
	return tags
}

// Validate checks the two index invariants against the metadata set:
// every slug listed under a tag exists, and every tag on a post appears
// as a key listing that post.
func (ti TagIndex) Validate(posts []*content.Post) error {
	bySlug := make(map[string]*content.Post, len(posts))
	for _, p := range posts {
		bySlug[p.Slug] = p
	}

	for tag, slugs := range ti {
		for _, slug := range slugs {
			p, ok := bySlug[slug]
			if !ok {
				return fmt.Errorf("tag %q lists unknown slug %q", tag, slug)
			}
			if !p.HasTag(tag) {
				return fmt.Errorf("tag %q lists slug %q which does not carry it", tag, slug)
			}
		}
	}

	for _, p := range posts {
		for _, tag := range p.Tags {
			found := false
			for _, slug := range ti[tag] {
				if slug == p.Slug {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("post %q tag %q missing from index", p.Slug, tag)
			}
		}
	}

	return nil
}
