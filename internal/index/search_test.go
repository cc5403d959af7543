package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidgrier/inkwell/internal/content"
)

func testPosts() []*content.Post {
	return []*content.Post{
		{
			Slug:    "go-concurrency",
			Title:   "Concurrency Patterns in Go",
			Summary: "channels and goroutines",
			Body:    "A walk through worker pools and fan-out fan-in.",
			Tags:    []string{"go", "concurrency"},
			Created: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Slug:    "gardening",
			Title:   "Tomatoes in Small Spaces",
			Summary: "balcony gardening",
			Body:    "Growing tomatoes on a balcony with containers.",
			Tags:    []string{"gardening"},
			Created: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			Slug:    "empty-post",
			Title:   "A",
			Tags:    []string{"x", "y"},
			Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestSearchIndex_TitleMatchRanksFirst(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search(context.Background(), "concurrency", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "go-concurrency", hits[0].Slug)
}

func TestSearchIndex_BodyOnlyMatch(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search(context.Background(), "balcony containers", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "gardening", hits[0].Slug)
}

func TestSearchIndex_EmptyOptionalFieldsTolerated(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	// The empty-body post is findable by its title.
	hits, err := idx.Search(context.Background(), "A", 10)
	require.NoError(t, err)

	found := false
	for _, h := range hits {
		if h.Slug == "empty-post" {
			found = true
		}
	}
	assert.True(t, found, "empty-body post should be a match for its title")
}

func TestSearchIndex_EmptyQueryNoHits(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchIndex_NoMatches(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	hits, err := idx.Search(context.Background(), "quixotic zeppelin", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchIndex_PersistAndReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.bleve")

	idx, err := BuildSearchIndex(path, testPosts(), DefaultSearchConfig())
	require.NoError(t, err)

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
	require.NoError(t, idx.Close())

	reopened, err := OpenSearchIndex(path, DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	hits, err := reopened.Search(context.Background(), "tomatoes", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "gardening", hits[0].Slug)
}

func TestSearchIndex_RebuildReplacesOldGeneration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.bleve")

	idx, err := BuildSearchIndex(path, testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	// Rebuild with a single post; the old corpus must be gone.
	idx, err = BuildSearchIndex(path, testPosts()[:1], DefaultSearchConfig())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestOpenSearchIndex_Missing(t *testing.T) {
	_, err := OpenSearchIndex(filepath.Join(t.TempDir(), "absent.bleve"), DefaultSearchConfig())
	assert.Error(t, err)
}

func TestOpenSearchIndex_CorruptMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "search.bleve")

	idx, err := BuildSearchIndex(path, testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), []byte("{not json"), 0o644))

	_, err = OpenSearchIndex(path, DefaultSearchConfig())
	assert.Error(t, err)
}

func TestSearchIndex_ClosedIndexErrors(t *testing.T) {
	idx, err := BuildSearchIndex("", testPosts(), DefaultSearchConfig())
	require.NoError(t, err)
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close(), "double close is safe")

	_, err = idx.Search(context.Background(), "go", 10)
	assert.Error(t, err)
}
