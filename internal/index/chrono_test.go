package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidgrier/inkwell/internal/content"
)

func post(slug string, created time.Time) *content.Post {
	return &content.Post{Slug: slug, Title: slug, Created: created}
}

func TestSortPosts_NewestFirst(t *testing.T) {
	older := post("older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := post("newer", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	sorted := SortPosts([]*content.Post{older, newer})

	require.Len(t, sorted, 2)
	assert.Equal(t, "newer", sorted[0].Slug)
	assert.Equal(t, "older", sorted[1].Slug)
}

func TestSortPosts_TieBrokenBySlug(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := post("apple", ts)
	b := post("banana", ts)

	// Input order must not matter for ties.
	first := SortPosts([]*content.Post{b, a})
	second := SortPosts([]*content.Post{a, b})

	assert.Equal(t, first[0].Slug, second[0].Slug)
	assert.Equal(t, "apple", first[0].Slug)
}

func TestSortPosts_DoesNotMutateInput(t *testing.T) {
	older := post("older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := post("newer", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	input := []*content.Post{older, newer}

	_ = SortPosts(input)

	assert.Equal(t, "older", input[0].Slug)
}

func TestBuildAdjacency_OrderingInvariant(t *testing.T) {
	posts := []*content.Post{
		post("a", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)),
		post("b", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		post("c", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	sorted := SortPosts(posts)
	adj := BuildAdjacency(sorted)

	bySlug := map[string]*content.Post{}
	for _, p := range posts {
		bySlug[p.Slug] = p
	}

	// When both neighbors exist: created(prev) > created(slug) > created(next).
	middle := adj["b"]
	require.NotEmpty(t, middle.Prev)
	require.NotEmpty(t, middle.Next)
	assert.True(t, bySlug[middle.Prev].Created.After(bySlug["b"].Created))
	assert.True(t, bySlug["b"].Created.After(bySlug[middle.Next].Created))
}

func TestBuildAdjacency_Boundaries(t *testing.T) {
	posts := SortPosts([]*content.Post{
		post("newest", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)),
		post("oldest", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	adj := BuildAdjacency(posts)

	assert.Empty(t, adj["newest"].Prev, "newest has no newer neighbor")
	assert.Equal(t, "oldest", adj["newest"].Next)
	assert.Equal(t, "newest", adj["oldest"].Prev)
	assert.Empty(t, adj["oldest"].Next, "oldest has no older neighbor")
}

func TestBuildAdjacency_SinglePost(t *testing.T) {
	adj := BuildAdjacency([]*content.Post{post("only", time.Now())})
	assert.Empty(t, adj["only"].Prev)
	assert.Empty(t, adj["only"].Next)
}

func TestBuildAdjacency_Empty(t *testing.T) {
	adj := BuildAdjacency(nil)
	assert.Empty(t, adj)
}
