// Package index derives the disposable indices over the post corpus:
// weighted full-text search, the tag inverted index, chronological
// adjacency, and the syndication feed. Each builder consumes the full
// metadata set independently; none assumes another has run.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/davidgrier/inkwell/internal/content"
)

// SearchConfig holds the field boosts and match threshold. Boosts are
// applied at query time so tuning does not require reindexing.
type SearchConfig struct {
	TitleBoost   float64
	TagBoost     float64
	SummaryBoost float64
	BodyBoost    float64
	MinScore     float64
	MaxResults   int
}

// DefaultSearchConfig weights title > tags > summary > body.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TitleBoost:   4.0,
		TagBoost:     3.0,
		SummaryBoost: 2.0,
		BodyBoost:    1.0,
		MinScore:     0.0,
		MaxResults:   50,
	}
}

// Hit is one ranked search result.
type Hit struct {
	Slug  string
	Score float64
}

// searchDoc is the shape indexed into bleve. Document identity is the
// slug, carried as the bleve doc ID rather than a stored field.
type searchDoc struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Body    string   `json:"body"`
	Tags    []string `json:"tags"`
}

// SearchIndex wraps a persisted bleve index over the post corpus.
type SearchIndex struct {
	mu     sync.RWMutex
	idx    bleve.Index
	config SearchConfig
	closed bool
}

// BuildSearchIndex creates a fresh index at path from the full post set,
// replacing whatever was there. An empty path builds an in-memory index.
func BuildSearchIndex(path string, posts []*content.Post, cfg SearchConfig) (*SearchIndex, error) {
	im, err := createIndexMapping()
	if err != nil {
		return nil, err
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		// The index is fully reconstructible; a stale generation is
		// removed rather than merged into.
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("failed to clear old search index: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}

	batch := idx.NewBatch()
	for _, p := range posts {
		doc := searchDoc{
			Title:   p.Title,
			Summary: p.Summary,
			Body:    p.Body,
			Tags:    p.Tags,
		}
		if err := batch.Index(p.Slug, doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index %s: %w", p.Slug, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to execute index batch: %w", err)
	}

	return &SearchIndex{idx: idx, config: cfg}, nil
}

// OpenSearchIndex opens a previously persisted index. Corruption is
// returned as an error so the caller can fall back to a full rebuild.
func OpenSearchIndex(path string, cfg SearchConfig) (*SearchIndex, error) {
	if err := validateIndexIntegrity(path); err != nil {
		return nil, err
	}

	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open search index: %w", err)
	}

	return &SearchIndex{idx: idx, config: cfg}, nil
}

// createIndexMapping maps the four searchable fields with the default
// text analyzer.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	doc := bleve.NewDocumentMapping()
	for _, field := range []string{"title", "summary", "body", "tags"} {
		fm := bleve.NewTextFieldMapping()
		doc.AddFieldMappingsAt(field, fm)
	}
	im.DefaultMapping = doc

	return im, nil
}

// Search returns ranked matches for the query. The empty-query
// pass-through is handled a layer up in the query service; here an empty
// query yields no hits.
func (s *SearchIndex) Search(ctx context.Context, queryStr string, limit int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("search index is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = s.config.MaxResults
	}

	fields := []struct {
		name  string
		boost float64
	}{
		{"title", s.config.TitleBoost},
		{"tags", s.config.TagBoost},
		{"summary", s.config.SummaryBoost},
		{"body", s.config.BodyBoost},
	}

	var subQueries []query.Query
	for _, f := range fields {
		if f.boost <= 0 {
			continue
		}
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(f.name)
		mq.SetBoost(f.boost)
		subQueries = append(subQueries, mq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(subQueries...))
	req.Size = limit

	result, err := s.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		if h.Score < s.config.MinScore {
			continue
		}
		hits = append(hits, Hit{Slug: h.ID, Score: h.Score})
	}
	return hits, nil
}

// DocCount returns the number of indexed documents.
func (s *SearchIndex) DocCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, fmt.Errorf("search index is closed")
	}
	return s.idx.DocCount()
}

// Close releases the underlying index. Safe to call more than once.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.idx.Close()
}

// validateIndexIntegrity checks a persisted bleve directory before
// opening it: the metadata file must exist, be non-empty, and parse.
// Opening a corrupt index can otherwise wedge on partial segments.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("search index missing at %s", path)
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}
