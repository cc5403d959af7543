package index

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidgrier/inkwell/internal/content"
)

func feedInfo() FeedInfo {
	return FeedInfo{
		Title:       "Late Nights",
		Description: "notes from the workshop",
		BaseURL:     "https://example.org/",
		Author:      "Sam Watters",
		AuthorEmail: "sam@example.org",
		Language:    "en-us",
	}
}

func feedPosts() []*content.Post {
	return SortPosts([]*content.Post{
		{
			Slug:    "second",
			Title:   "Second Post",
			Summary: "the newer one",
			Body:    "newer body",
			Tags:    []string{"go", "notes"},
			Created: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			Slug:    "first",
			Title:   "First Post",
			Summary: "the older one",
			Body:    "older body",
			Tags:    []string{"notes"},
			Created: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		},
	})
}

func TestBuildFeed_NewestFirst(t *testing.T) {
	out, err := BuildFeed(feedInfo(), feedPosts(), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	body := string(out)
	secondIdx := strings.Index(body, "Second Post")
	firstIdx := strings.Index(body, "First Post")
	require.Greater(t, secondIdx, 0)
	require.Greater(t, firstIdx, 0)
	assert.Less(t, secondIdx, firstIdx, "newer entry must come first")
}

func TestBuildFeed_WellFormedXML(t *testing.T) {
	out, err := BuildFeed(feedInfo(), feedPosts(), time.Now())
	require.NoError(t, err)

	type channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title      string   `xml:"title"`
			Link       string   `xml:"link"`
			Categories []string `xml:"category"`
			PubDate    string   `xml:"pubDate"`
		} `xml:"item"`
	}
	var doc struct {
		XMLName xml.Name `xml:"rss"`
		Channel channel  `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))

	assert.Equal(t, "Late Nights", doc.Channel.Title)
	require.Len(t, doc.Channel.Items, 2)
	assert.Equal(t, "Second Post", doc.Channel.Items[0].Title)
	assert.Equal(t, "https://example.org/blog/second", doc.Channel.Items[0].Link)
	assert.Equal(t, []string{"go", "notes"}, doc.Channel.Items[0].Categories)

	pub, err := time.Parse(time.RFC1123Z, doc.Channel.Items[0].PubDate)
	require.NoError(t, err)
	assert.True(t, pub.Equal(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)))
}

func TestBuildFeed_CarriesBodyAndAuthor(t *testing.T) {
	out, err := BuildFeed(feedInfo(), feedPosts(), time.Now())
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "newer body")
	assert.Contains(t, body, "sam@example.org (Sam Watters)")
	assert.Contains(t, body, "the newer one")
}

func TestBuildFeed_EmptyCorpus(t *testing.T) {
	out, err := BuildFeed(feedInfo(), nil, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(out), "<rss")
	assert.NotContains(t, string(out), "<item>")
}
