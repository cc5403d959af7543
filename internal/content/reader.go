package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

// DefaultMaxFileSize is the largest document the reader will ingest.
// Anything bigger is skipped with a document error.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Reader walks a content root and produces documents with their
// front-matter split from the body.
type Reader struct {
	extensions  []string
	excludes    []string
	maxFileSize int64

	// scans counts completed directory scans. The single-flight property
	// of the pipeline is verified against this counter.
	scans atomic.Int64
}

// ReaderOptions configures a Reader.
type ReaderOptions struct {
	// Extensions are the file suffixes treated as documents (".md", ".mdx").
	Extensions []string

	// ExcludePatterns are path prefixes or base names skipped during the
	// scan (relative to the content root).
	ExcludePatterns []string

	// MaxFileSize caps document size in bytes. Zero means DefaultMaxFileSize.
	MaxFileSize int64
}

// NewReader creates a Reader.
func NewReader(opts ReaderOptions) *Reader {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".md", ".mdx"}
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Reader{
		extensions:  exts,
		excludes:    opts.ExcludePatterns,
		maxFileSize: maxSize,
	}
}

// ScanCount returns how many directory scans have completed.
func (r *Reader) ScanCount() int64 {
	return r.scans.Load()
}

// List returns the document file paths under root, relative to root, in
// deterministic (sorted) order. Unreadable subtrees are skipped.
func (r *Reader) List(ctx context.Context, root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root is not a directory: %s", absRoot)
	}

	var paths []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if r.isExcluded(relPath) || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if r.isExcluded(relPath) || !r.hasDocumentExtension(relPath) {
			return nil
		}

		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	r.scans.Add(1)
	return paths, nil
}

// Read loads one document: stats the file, reads it, and splits and
// parses the front-matter. All failures are document-level errors.
func (r *Reader) Read(ctx context.Context, root, relPath string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	absPath := filepath.Join(absRoot, relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, docUnreadable(relPath, err)
	}
	if info.Size() > r.maxFileSize {
		return nil, docUnreadable(relPath, fmt.Errorf("file exceeds %d bytes", r.maxFileSize))
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, docUnreadable(relPath, err)
	}

	block, body := SplitFrontMatter(raw)
	fm, err := ParseFrontMatter(relPath, block)
	if err != nil {
		return nil, err
	}

	return &Document{
		Path:    relPath,
		AbsPath: absPath,
		Front:   fm,
		Body:    body,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// hasDocumentExtension reports whether relPath ends with a configured
// document suffix.
func (r *Reader) hasDocumentExtension(relPath string) bool {
	ext := filepath.Ext(relPath)
	for _, e := range r.extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// isExcluded reports whether relPath matches an exclude pattern, either
// as a path prefix or as a base-name match.
func (r *Reader) isExcluded(relPath string) bool {
	base := filepath.Base(relPath)
	slashPath := filepath.ToSlash(relPath)
	for _, pattern := range r.excludes {
		if base == pattern || slashPath == pattern {
			return true
		}
		if strings.HasPrefix(slashPath, strings.TrimSuffix(pattern, "/")+"/") {
			return true
		}
	}
	return false
}
