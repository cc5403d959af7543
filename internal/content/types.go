// Package content reads source documents and normalizes them into the
// canonical post metadata record.
package content

import (
	"time"
)

// FrontMatter is the structured metadata block at the top of a document.
// Only Title is mandatory; everything else has a documented fallback.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Summary     string   `yaml:"summary"`
	Tags        []string `yaml:"tags"`
	Created     string   `yaml:"created"`
	Updated     string   `yaml:"updated"`
	Image       string   `yaml:"image"`
	Caption     string   `yaml:"caption"`
	ReadingTime string   `yaml:"readingTime"`
}

// Document is one content file as read from disk: raw front-matter split
// from body text, plus the filesystem facts the timestamp resolver needs.
type Document struct {
	// Path is the path relative to the content root.
	Path string

	// AbsPath is the absolute path on disk.
	AbsPath string

	// Front is the parsed front-matter block.
	Front FrontMatter

	// Body is the raw body text after the front-matter block.
	Body string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the filesystem modification time.
	ModTime time.Time
}

// Post is the canonical metadata record for one document. The full set of
// posts plus the derived indices form one immutable snapshot generation.
type Post struct {
	// Slug is derived deterministically from the file path and is unique
	// across the corpus.
	Slug string `json:"slug"`

	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`

	// Created never regresses across rebuilds once recorded from
	// front-matter. Stored normalized to UTC.
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`

	// Body is the raw text used for search and word count.
	Body string `json:"body"`

	// WordCount is recomputed on every rebuild.
	WordCount int `json:"wordCount"`

	// Display fields passed through unmodified.
	Image       string `json:"image,omitempty"`
	Caption     string `json:"caption,omitempty"`
	ReadingTime string `json:"readingTime,omitempty"`
}

// HasTag reports whether the post carries the tag (case-sensitive).
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
