// Package pipeline orchestrates preprocessing: loading the persisted
// snapshot when it is usable, rebuilding it from the content directory
// when it is not, and making sure concurrent callers share one run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/davidgrier/inkwell/internal/config"
	"github.com/davidgrier/inkwell/internal/content"
	ierr "github.com/davidgrier/inkwell/internal/errors"
	"github.com/davidgrier/inkwell/internal/index"
	"github.com/davidgrier/inkwell/internal/store"
	"github.com/davidgrier/inkwell/internal/timestamp"
)

// RunSummary reports the outcome of one rebuild.
type RunSummary struct {
	// Scanned is how many candidate documents the scan found.
	Scanned int `json:"scanned"`

	// Indexed is how many documents made it into the snapshot.
	Indexed int `json:"indexed"`

	// Failed is how many documents were excluded by per-document errors.
	Failed int `json:"failed"`

	// Duration is wall-clock time of the rebuild.
	Duration time.Duration `json:"duration"`
}

// call is one in-flight preprocessing run. Late arrivals block on done
// and share the result instead of starting their own run.
type call struct {
	done chan struct{}
	snap *store.Snapshot
	err  error

	// rebuild records whether this run was started as a forced rebuild.
	// Only a rebuild run may clear a pending invalidation.
	rebuild bool
}

// Orchestrator owns the preprocessing state machine. A snapshot is
// either memoized (preprocessed), being produced (one in-flight call),
// or absent. A failed run clears the in-flight slot so the next caller
// retries instead of inheriting a cached failure.
type Orchestrator struct {
	cfg      *config.Config
	reader   *content.Reader
	resolver *timestamp.Resolver
	store    *store.Store
	log      *slog.Logger

	mu           sync.Mutex
	inflight     *call
	snap         *store.Snapshot
	preprocessed bool

	// dirty forces the next run to rebuild instead of loading the
	// persisted snapshot. Set by Invalidate and Rebuild.
	dirty bool

	lastSummary *RunSummary
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, reader *content.Reader, resolver *timestamp.Resolver, st *store.Store, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		reader:   reader,
		resolver: resolver,
		store:    st,
		log:      log,
	}
}

// Ensure returns the current snapshot, producing one if necessary.
// Concurrent callers during a run all receive the same result; the
// content directory is scanned at most once per run. If an invalidation
// arrives while a load-path run is in flight, joiners do not return its
// stale result; they go around again and perform the rebuild.
func (o *Orchestrator) Ensure(ctx context.Context) (*store.Snapshot, error) {
	for {
		o.mu.Lock()
		if o.preprocessed && o.snap != nil {
			snap := o.snap
			o.mu.Unlock()
			return snap, nil
		}
		if c := o.inflight; c != nil {
			o.mu.Unlock()
			select {
			case <-c.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if c.err != nil {
				return nil, c.err
			}
			if c.rebuild {
				return c.snap, nil
			}
			o.mu.Lock()
			pending := o.dirty
			o.mu.Unlock()
			if !pending {
				return c.snap, nil
			}
			continue
		}
		c := &call{done: make(chan struct{}), rebuild: o.dirty}
		o.inflight = c
		o.mu.Unlock()

		snap, err := o.produce(ctx, c.rebuild)
		o.finish(c, snap, err)
		return snap, err
	}
}

// Invalidate marks the current snapshot stale. The next Ensure triggers
// a full rebuild; until then queries keep serving the old generation.
func (o *Orchestrator) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.preprocessed = false
	o.dirty = true
}

// Rebuild forces a fresh run and returns its snapshot. A rebuild
// already in flight is joined; a load-path run in flight is waited out
// and the rebuild then performed.
func (o *Orchestrator) Rebuild(ctx context.Context) (*store.Snapshot, error) {
	o.Invalidate()
	return o.Ensure(ctx)
}

// Summary returns the last rebuild's outcome, or nil if no rebuild has
// run in this process.
func (o *Orchestrator) Summary() *RunSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSummary
}

// Close releases the memoized snapshot.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := o.snap
	o.snap = nil
	o.preprocessed = false
	if snap != nil {
		return snap.Close()
	}
	return nil
}

// produce loads the persisted snapshot or rebuilds from source.
func (o *Orchestrator) produce(ctx context.Context, forceRebuild bool) (*store.Snapshot, error) {
	if !forceRebuild {
		snap, err := o.store.Load(ctx)
		if err == nil {
			o.log.Info("snapshot loaded",
				slog.Int("posts", len(snap.Posts)),
				slog.String("dir", o.store.Dir()))
			return snap, nil
		}
		switch ierr.GetCode(err) {
		case ierr.ErrCodeSnapshotMissing:
			o.log.Info("no snapshot found, rebuilding")
		case ierr.ErrCodeSnapshotCorrupt:
			o.log.Warn("snapshot unreadable, rebuilding", slog.String("error", err.Error()))
		default:
			return nil, err
		}
	}
	return o.build(ctx)
}

// finish publishes the run result and advances the state machine.
// Success memoizes the snapshot; failure leaves the slot empty so the
// next caller starts over. An invalidation that arrived while a
// load-path run was in flight is left pending: only a run that actually
// rebuilt may clear it, otherwise the next Ensure still rebuilds.
func (o *Orchestrator) finish(c *call, snap *store.Snapshot, err error) {
	o.mu.Lock()
	c.snap, c.err = snap, err
	close(c.done)
	o.inflight = nil
	if err == nil {
		old := o.snap
		o.snap = snap
		if c.rebuild || !o.dirty {
			o.preprocessed = true
			o.dirty = false
		}
		o.mu.Unlock()
		if old != nil && old != snap {
			if cerr := old.Close(); cerr != nil {
				o.log.Warn("closing replaced snapshot", slog.String("error", cerr.Error()))
			}
		}
		return
	}
	o.mu.Unlock()
}

// docResult is the outcome of processing one candidate document.
type docResult struct {
	post *content.Post
	err  error
}

// build runs the full preprocessing pass: scan, per-document processing
// under a bounded worker pool, index derivation, and persistence.
//
// Per-document failures degrade the snapshot (the document is excluded)
// but do not abort the run. A run where every candidate fails is a
// failed run.
func (o *Orchestrator) build(ctx context.Context) (*store.Snapshot, error) {
	start := time.Now()

	root := o.cfg.Content.Root
	paths, err := o.reader.List(ctx, root)
	if err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeRebuildFailed, err)
	}

	o.log.Info("rebuild started",
		slog.Int("candidates", len(paths)),
		slog.String("root", root))

	// Results keep the scan's path order so slug collisions resolve
	// deterministically regardless of worker scheduling.
	results := make([]docResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Pipeline.Workers)
	for i, relPath := range paths {
		g.Go(func() error {
			results[i] = o.processDocument(gctx, root, relPath)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeRebuildFailed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := RunSummary{Scanned: len(paths)}
	seen := make(map[string]string, len(paths))
	posts := make([]*content.Post, 0, len(paths))
	for i, res := range results {
		if res.err != nil {
			summary.Failed++
			o.log.Warn("document excluded",
				slog.String("path", paths[i]),
				slog.String("error", res.err.Error()))
			continue
		}
		if prior, dup := seen[res.post.Slug]; dup {
			summary.Failed++
			collision := ierr.DocumentError(ierr.ErrCodeSlugCollision, paths[i],
				fmt.Errorf("slug %q already produced by %s", res.post.Slug, prior))
			o.log.Warn("document excluded", slog.String("error", collision.Error()))
			continue
		}
		seen[res.post.Slug] = paths[i]
		posts = append(posts, res.post)
		summary.Indexed++
	}

	if len(paths) > 0 && summary.Indexed == 0 {
		return nil, ierr.New(ierr.ErrCodeRebuildFailed,
			fmt.Sprintf("all %d candidate documents failed ingestion", len(paths)), nil)
	}

	sorted := index.SortPosts(posts)
	tags := index.BuildTagIndex(sorted)

	feed, err := index.BuildFeed(o.feedInfo(), sorted, time.Now())
	if err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeIndexFailed, err)
	}

	search, err := o.store.Persist(ctx, sorted, tags, feed)
	if err != nil {
		return nil, err
	}

	summary.Duration = time.Since(start)
	o.mu.Lock()
	o.lastSummary = &summary
	o.mu.Unlock()

	o.log.Info("rebuild finished",
		slog.Int("indexed", summary.Indexed),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))

	return &store.Snapshot{
		Posts:     sorted,
		Tags:      tags,
		Adjacency: index.BuildAdjacency(sorted),
		Search:    search,
		BuiltAt:   time.Now(),
	}, nil
}

// processDocument reads, resolves, and normalizes one document under the
// per-document deadline. A document that cannot finish in time is a
// failed document, not a stalled rebuild.
func (o *Orchestrator) processDocument(ctx context.Context, root, relPath string) docResult {
	dctx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.DocumentTimeout)
	defer cancel()

	doc, err := o.reader.Read(dctx, root, relPath)
	if err != nil {
		return docResult{err: timeoutOr(dctx, relPath, err)}
	}

	stamps := o.resolver.Resolve(dctx, timestamp.Request{
		AbsPath:      doc.AbsPath,
		FrontCreated: doc.Front.Created,
		FrontUpdated: doc.Front.Updated,
	})
	if err := dctx.Err(); err != nil {
		// A stalled resolver must not smuggle a half-resolved document
		// into the corpus.
		if err == context.DeadlineExceeded {
			return docResult{err: ierr.DocumentError(ierr.ErrCodeDocTimeout, relPath, err)}
		}
		return docResult{err: err}
	}

	post, err := content.NewPost(doc, stamps.Created, stamps.Updated)
	if err != nil {
		return docResult{err: timeoutOr(dctx, relPath, err)}
	}
	return docResult{post: post}
}

// timeoutOr maps a deadline expiry to the timeout document error,
// passing every other failure through.
func timeoutOr(ctx context.Context, relPath string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ierr.DocumentError(ierr.ErrCodeDocTimeout, relPath, ctx.Err())
	}
	return err
}

func (o *Orchestrator) feedInfo() index.FeedInfo {
	return index.FeedInfo{
		Title:       o.cfg.Site.Title,
		Description: o.cfg.Site.Description,
		BaseURL:     o.cfg.Site.BaseURL,
		Author:      o.cfg.Site.Author,
		AuthorEmail: o.cfg.Site.AuthorEmail,
		Language:    o.cfg.Site.Language,
	}
}
