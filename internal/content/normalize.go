package content

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	ierr "github.com/davidgrier/inkwell/internal/errors"
)

// Slug derives the canonical identifier for a document from its path
// relative to the content root: strip the document suffix, normalize
// path separators to forward slashes. The transform is deterministic so
// slugs are stable across rebuilds.
func Slug(relPath string) string {
	slashPath := filepath.ToSlash(relPath)
	ext := filepath.Ext(slashPath)
	switch strings.ToLower(ext) {
	case ".md", ".mdx", ".markdown":
		slashPath = strings.TrimSuffix(slashPath, ext)
	}
	return slashPath
}

// CountWords tokenizes body text on whitespace. An empty or
// whitespace-only body counts zero words.
func CountWords(body string) int {
	return len(strings.Fields(body))
}

// NewPost builds the canonical Post record from a read document and its
// resolved timestamps. It is a pure function of its inputs; the same
// document always yields the same record, which rebuild idempotency
// depends on.
//
// A missing title fails the document, not the run.
func NewPost(doc *Document, created, updated time.Time) (*Post, error) {
	if strings.TrimSpace(doc.Front.Title) == "" {
		return nil, ierr.DocumentError(ierr.ErrCodeDocMissingTitle, doc.Path, nil)
	}

	// Tags are stored case-sensitively but ordered case-insensitively
	// for display.
	tags := make([]string, len(doc.Front.Tags))
	copy(tags, doc.Front.Tags)
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i]) < strings.ToLower(tags[j])
	})

	return &Post{
		Slug:        Slug(doc.Path),
		Title:       doc.Front.Title,
		Summary:     doc.Front.Summary,
		Tags:        tags,
		Created:     created.UTC(),
		Updated:     updated.UTC(),
		Body:        doc.Body,
		WordCount:   CountWords(doc.Body),
		Image:       doc.Front.Image,
		Caption:     doc.Front.Caption,
		ReadingTime: doc.Front.ReadingTime,
	}, nil
}

// docUnreadable wraps a filesystem failure as a document-level error.
func docUnreadable(path string, cause error) error {
	return ierr.DocumentError(ierr.ErrCodeDocUnreadable, path, cause)
}
