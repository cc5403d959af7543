package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/davidgrier/inkwell/internal/errors"
)

func writeDoc(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReader_List_FindsNestedDocuments(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "hello.md", "body")
	writeDoc(t, root, "2024/deep/nested.mdx", "body")
	writeDoc(t, root, "notes.txt", "not a document")
	writeDoc(t, root, "drafts/wip.md", "body")

	r := NewReader(ReaderOptions{})
	paths, err := r.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("2024", "deep", "nested.mdx"),
		filepath.Join("drafts", "wip.md"),
		"hello.md",
	}, paths)
}

func TestReader_List_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "b.md", "x")
	writeDoc(t, root, "a.md", "x")
	writeDoc(t, root, "c.md", "x")

	r := NewReader(ReaderOptions{})
	first, err := r.List(context.Background(), root)
	require.NoError(t, err)
	second, err := r.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReader_List_RespectsExcludes(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "keep.md", "x")
	writeDoc(t, root, "drafts/skip.md", "x")

	r := NewReader(ReaderOptions{ExcludePatterns: []string{"drafts"}})
	paths, err := r.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.md"}, paths)
}

func TestReader_List_SkipsHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "visible.md", "x")
	writeDoc(t, root, ".obsidian/hidden.md", "x")

	r := NewReader(ReaderOptions{})
	paths, err := r.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"visible.md"}, paths)
}

func TestReader_List_MissingRoot(t *testing.T) {
	r := NewReader(ReaderOptions{})
	_, err := r.List(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestReader_List_IncrementsScanCount(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "a.md", "x")

	r := NewReader(ReaderOptions{})
	assert.Equal(t, int64(0), r.ScanCount())

	_, err := r.List(context.Background(), root)
	require.NoError(t, err)
	_, err = r.List(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, int64(2), r.ScanCount())
}

func TestReader_Read_SplitsFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "post.mdx", `---
title: A Post
tags:
  - go
  - blogging
summary: short version
---
The body starts here.`)

	r := NewReader(ReaderOptions{})
	doc, err := r.Read(context.Background(), root, "post.mdx")
	require.NoError(t, err)

	assert.Equal(t, "A Post", doc.Front.Title)
	assert.Equal(t, []string{"go", "blogging"}, doc.Front.Tags)
	assert.Equal(t, "short version", doc.Front.Summary)
	assert.Equal(t, "The body starts here.", doc.Body)
}

func TestReader_Read_NoFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "bare.md", "just text, no block")

	r := NewReader(ReaderOptions{})
	doc, err := r.Read(context.Background(), root, "bare.md")
	require.NoError(t, err)

	assert.Empty(t, doc.Front.Title)
	assert.Equal(t, "just text, no block", doc.Body)
}

func TestReader_Read_BadFrontMatterIsDocumentError(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "broken.md", "---\ntitle: [unclosed\n---\nbody")

	r := NewReader(ReaderOptions{})
	_, err := r.Read(context.Background(), root, "broken.md")
	require.Error(t, err)
	assert.Equal(t, ierr.ErrCodeDocBadFront, ierr.GetCode(err))
}

func TestReader_Read_MissingFileIsDocumentError(t *testing.T) {
	root := t.TempDir()

	r := NewReader(ReaderOptions{})
	_, err := r.Read(context.Background(), root, "ghost.md")
	require.Error(t, err)
	assert.Equal(t, ierr.ErrCodeDocUnreadable, ierr.GetCode(err))
}

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantBlock string
		wantBody  string
	}{
		{
			name:      "standard block",
			raw:       "---\ntitle: X\n---\nbody here",
			wantBlock: "title: X",
			wantBody:  "body here",
		},
		{
			name:      "crlf line endings",
			raw:       "---\r\ntitle: X\r\n---\r\nbody",
			wantBlock: "title: X",
			wantBody:  "body",
		},
		{
			name:      "no block",
			raw:       "plain body",
			wantBlock: "",
			wantBody:  "plain body",
		},
		{
			name:      "empty body",
			raw:       "---\ntitle: X\n---\n",
			wantBlock: "title: X",
			wantBody:  "",
		},
		{
			name:      "delimiter not at start",
			raw:       "intro\n---\ntitle: X\n---\n",
			wantBlock: "",
			wantBody:  "intro\n---\ntitle: X\n---\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, body := SplitFrontMatter([]byte(tt.raw))
			assert.Equal(t, tt.wantBlock, string(block))
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
