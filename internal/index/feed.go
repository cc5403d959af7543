package index

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/davidgrier/inkwell/internal/content"
)

// FeedInfo is the site-level metadata stamped onto the generated feed.
type FeedInfo struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
	AuthorEmail string
	Language    string
}

// RSS 2.0 document structure. Element names with a colon (content:encoded)
// are passed through literally by the xml encoder.
type rssDoc struct {
	XMLName          xml.Name   `xml:"rss"`
	Version          string     `xml:"version,attr"`
	ContentNamespace string     `xml:"xmlns:content,attr"`
	Channel          rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	GUID        rssGUID   `xml:"guid"`
	Description string    `xml:"description,omitempty"`
	Content     *rssCDATA `xml:"content:encoded,omitempty"`
	Author      string    `xml:"author,omitempty"`
	Categories  []string  `xml:"category"`
	PubDate     string    `xml:"pubDate"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink string `xml:"isPermaLink,attr"`
}

type rssCDATA struct {
	Value string `xml:",cdata"`
}

// BuildFeed renders the syndication document for the sorted corpus, one
// entry per post, newest first. The input must already be in SortPosts
// order; the feed preserves it.
func BuildFeed(info FeedInfo, sorted []*content.Post, now time.Time) ([]byte, error) {
	base := strings.TrimSuffix(info.BaseURL, "/")

	items := make([]rssItem, 0, len(sorted))
	for _, p := range sorted {
		link := fmt.Sprintf("%s/blog/%s", base, p.Slug)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{Value: link, IsPermaLink: "true"},
			Description: p.Summary,
			Categories:  p.Tags,
			PubDate:     p.Created.Format(time.RFC1123Z),
		}
		if p.Body != "" {
			item.Content = &rssCDATA{Value: p.Body}
		}
		if info.Author != "" {
			if info.AuthorEmail != "" {
				item.Author = fmt.Sprintf("%s (%s)", info.AuthorEmail, info.Author)
			} else {
				item.Author = info.Author
			}
		}
		items = append(items, item)
	}

	doc := rssDoc{
		Version:          "2.0",
		ContentNamespace: "http://purl.org/rss/1.0/modules/content/",
		Channel: rssChannel{
			Title:         info.Title,
			Link:          base,
			Description:   info.Description,
			Language:      info.Language,
			LastBuildDate: now.Format(time.RFC1123Z),
			Items:         items,
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feed: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}
