// Package query is the read API over the preprocessed snapshot. Every
// operation ensures preprocessing has happened before answering, and hot
// lookups go through bounded TTL caches so repeated page loads do not
// touch the snapshot structures at all.
package query

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/davidgrier/inkwell/internal/config"
	"github.com/davidgrier/inkwell/internal/content"
	ierr "github.com/davidgrier/inkwell/internal/errors"
	"github.com/davidgrier/inkwell/internal/pipeline"
)

// maxQueryLength bounds a search query. Anything longer is rejected as
// invalid rather than handed to the search index.
const maxQueryLength = 1024

// Adjacent is a post's chronological neighborhood. Prev is the next
// newer post, Next the next older one; either may be nil at the
// boundaries of the corpus.
type Adjacent struct {
	Prev *content.Post `json:"prev"`
	Next *content.Post `json:"next"`
}

// Service answers read queries against the current snapshot.
type Service struct {
	orch *pipeline.Orchestrator
	cfg  *config.Config
	log  *slog.Logger

	posts    *expirable.LRU[string, *content.Post]
	searches *expirable.LRU[string, []*content.Post]
	tagged   *expirable.LRU[string, []*content.Post]
}

// NewService builds the query layer over an orchestrator. Cache sizes
// and TTL come from the cache configuration block.
func NewService(orch *pipeline.Orchestrator, cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		orch:     orch,
		cfg:      cfg,
		log:      log,
		posts:    expirable.NewLRU[string, *content.Post](cfg.Cache.PostEntries, nil, cfg.Cache.TTL),
		searches: expirable.NewLRU[string, []*content.Post](cfg.Cache.SearchEntries, nil, cfg.Cache.TTL),
		tagged:   expirable.NewLRU[string, []*content.Post](cfg.Cache.TagEntries, nil, cfg.Cache.TTL),
	}
}

// GetPost returns the post for a slug. A missing slug is not an error;
// the second return is false.
func (s *Service) GetPost(ctx context.Context, slug string) (*content.Post, bool, error) {
	// Ensure comes before the cache so an invalidation is honored even
	// when the answer is already cached.
	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return nil, false, err
	}

	if p, ok := s.posts.Get(slug); ok {
		return p, true, nil
	}

	p, ok := snap.Lookup(slug)
	if !ok {
		return nil, false, nil
	}
	s.posts.Add(slug, p)
	return p, true, nil
}

// GetAllPosts returns the full corpus, newest first.
func (s *Service) GetAllPosts(ctx context.Context) ([]*content.Post, error) {
	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Posts, nil
}

// Search runs a weighted full-text query and returns matching posts in
// rank order. An empty query is the browse case and returns the full
// corpus in chronological order.
func (s *Service) Search(ctx context.Context, q string) ([]*content.Post, error) {
	q = strings.TrimSpace(q)
	if len(q) > maxQueryLength {
		return nil, ierr.New(ierr.ErrCodeInvalidQuery, "query too long", nil)
	}
	if q == "" {
		return s.GetAllPosts(ctx)
	}

	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.searches.Get(q); ok {
		return cached, nil
	}

	hits, err := snap.Search.Search(ctx, q, s.cfg.Search.MaxResults)
	if err != nil {
		return nil, err
	}

	results := make([]*content.Post, 0, len(hits))
	for _, h := range hits {
		if p, ok := snap.Lookup(h.Slug); ok {
			results = append(results, p)
		}
	}

	s.searches.Add(q, results)
	return results, nil
}

// GetPostsByTag returns the posts carrying a tag, newest first. An
// unknown tag yields an empty result, never an error.
func (s *Service) GetPostsByTag(ctx context.Context, tag string) ([]*content.Post, error) {
	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.tagged.Get(tag); ok {
		return cached, nil
	}

	slugs := snap.Tags[tag]
	results := make([]*content.Post, 0, len(slugs))
	// Walk the sorted corpus so tagged results keep chronological order.
	for _, p := range snap.Posts {
		if p.HasTag(tag) {
			results = append(results, p)
		}
	}

	s.tagged.Add(tag, results)
	return results, nil
}

// GetAllTags returns every tag in use, sorted case-insensitively.
func (s *Service) GetAllTags(ctx context.Context) ([]string, error) {
	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Tags.Tags(), nil
}

// GetAdjacentPosts returns a post's chronological neighbors. The second
// return is false when the slug itself is unknown.
func (s *Service) GetAdjacentPosts(ctx context.Context, slug string) (Adjacent, bool, error) {
	snap, err := s.orch.Ensure(ctx)
	if err != nil {
		return Adjacent{}, false, err
	}

	adj, ok := snap.Adjacency[slug]
	if !ok {
		return Adjacent{}, false, nil
	}

	var out Adjacent
	if adj.Prev != "" {
		out.Prev, _ = snap.Lookup(adj.Prev)
	}
	if adj.Next != "" {
		out.Next, _ = snap.Lookup(adj.Next)
	}
	return out, true, nil
}

// RebuildCache drops every cached answer and forces a full preprocessing
// run. It returns once the new snapshot is live.
func (s *Service) RebuildCache(ctx context.Context) (*pipeline.RunSummary, error) {
	s.posts.Purge()
	s.searches.Purge()
	s.tagged.Purge()

	if _, err := s.orch.Rebuild(ctx); err != nil {
		return nil, err
	}
	s.log.Info("cache rebuilt")
	return s.orch.Summary(), nil
}

// Summary exposes the last rebuild outcome for the status surface.
func (s *Service) Summary() *pipeline.RunSummary {
	return s.orch.Summary()
}
