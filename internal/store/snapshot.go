// Package store persists the preprocessing snapshot: the canonical post
// metadata, the tag index, the search index directory, and the generated
// feed under one cache directory. The snapshot is the durable unit a
// process restart recovers from; anything unreadable triggers a rebuild
// rather than an error to the caller.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/davidgrier/inkwell/internal/content"
	ierr "github.com/davidgrier/inkwell/internal/errors"
	"github.com/davidgrier/inkwell/internal/index"
)

const (
	metadataFile  = "metadata.json"
	tagsFile      = "tags.json"
	feedFile      = "feed.xml"
	searchDirName = "search.bleve"
	lockFile      = ".inkwell.lock"
)

// lockRetryInterval is how often a blocked process re-attempts the cache
// directory lock.
const lockRetryInterval = 100 * time.Millisecond

// Sentinel errors distinguishing the two load failure modes. A missing
// snapshot is expected on first run and is not logged as an error; a
// corrupt one is logged and triggers a rebuild.
var (
	ErrSnapshotMissing = ierr.New(ierr.ErrCodeSnapshotMissing, "snapshot not found", nil)
	ErrSnapshotCorrupt = ierr.New(ierr.ErrCodeSnapshotCorrupt, "snapshot unreadable", nil)
)

// Snapshot is one loaded generation of the corpus and its indices.
// It is immutable until the next full rebuild replaces it wholesale.
type Snapshot struct {
	// Posts is the corpus sorted newest first (SortPosts order).
	Posts []*content.Post

	// Tags maps tag -> slugs.
	Tags index.TagIndex

	// Adjacency maps slug -> chronological neighbors. Derived, not
	// persisted; recomputed from Posts on load.
	Adjacency map[string]index.Adjacency

	// Search is the opened full-text index.
	Search *index.SearchIndex

	// BuiltAt is when this generation was produced or loaded.
	BuiltAt time.Time
}

// Lookup returns the post for a slug, or false.
func (s *Snapshot) Lookup(slug string) (*content.Post, bool) {
	for _, p := range s.Posts {
		if p.Slug == slug {
			return p, true
		}
	}
	return nil, false
}

// Close releases the snapshot's search index.
func (s *Snapshot) Close() error {
	if s == nil || s.Search == nil {
		return nil
	}
	return s.Search.Close()
}

// Store reads and writes snapshots under a cache directory.
type Store struct {
	dir       string
	searchCfg index.SearchConfig
}

// New creates a Store rooted at dir. The search configuration is needed
// to reopen the persisted search index.
func New(dir string, searchCfg index.SearchConfig) *Store {
	return &Store{dir: dir, searchCfg: searchCfg}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// SearchIndexPath is where the search index builder persists its output.
func (s *Store) SearchIndexPath() string {
	return filepath.Join(s.dir, searchDirName)
}

// FeedPath is where the generated syndication document lives.
func (s *Store) FeedPath() string {
	return filepath.Join(s.dir, feedFile)
}

// Persist writes one snapshot generation as a single logical unit: the
// search index directory is rebuilt and the metadata, tag index, and
// feed are written, all under the cross-process cache lock so a second
// process cannot interleave its own write anywhere in the phase.
//
// The returned search index is open and ready to serve. Sidecar files
// are written via temp-file-plus-rename so a crash never leaves a
// half-written JSON document behind.
func (s *Store) Persist(ctx context.Context, posts []*content.Post, tags index.TagIndex, feed []byte) (*index.SearchIndex, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
	}

	unlock, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	search, err := index.BuildSearchIndex(s.SearchIndexPath(), posts, s.searchCfg)
	if err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
	}

	metadata, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		_ = search.Close()
		return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
	}
	tagData, err := json.MarshalIndent(tags, "", "  ")
	if err != nil {
		_ = search.Close()
		return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
	}

	for _, f := range []struct {
		name string
		data []byte
	}{
		{metadataFile, metadata},
		{tagsFile, tagData},
		{feedFile, feed},
	} {
		if err := writeFileAtomic(filepath.Join(s.dir, f.name), f.data); err != nil {
			_ = search.Close()
			return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
		}
	}

	return search, nil
}

// Load reads the persisted snapshot back. Error contract:
//   - ErrSnapshotMissing: no snapshot has been written yet (first run).
//   - ErrSnapshotCorrupt: snapshot exists but cannot be trusted.
//
// Adjacency is recomputed from the loaded metadata; it is fully derived
// and never persisted.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metaPath := filepath.Join(s.dir, metadataFile)
	data, err := os.ReadFile(metaPath)
	if os.IsNotExist(err) {
		return nil, ErrSnapshotMissing
	}
	if err != nil {
		return nil, corrupt(fmt.Sprintf("cannot read %s", metadataFile), err)
	}

	var posts []*content.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, corrupt(fmt.Sprintf("%s is not valid JSON", metadataFile), err)
	}

	tagData, err := os.ReadFile(filepath.Join(s.dir, tagsFile))
	if err != nil {
		return nil, corrupt(fmt.Sprintf("cannot read %s", tagsFile), err)
	}
	var tags index.TagIndex
	if err := json.Unmarshal(tagData, &tags); err != nil {
		return nil, corrupt(fmt.Sprintf("%s is not valid JSON", tagsFile), err)
	}

	if err := tags.Validate(posts); err != nil {
		return nil, corrupt("tag index inconsistent with metadata", err)
	}

	search, err := index.OpenSearchIndex(s.SearchIndexPath(), s.searchCfg)
	if err != nil {
		return nil, corrupt("search index unreadable", err)
	}

	sorted := index.SortPosts(posts)
	return &Snapshot{
		Posts:     sorted,
		Tags:      tags,
		Adjacency: index.BuildAdjacency(sorted),
		Search:    search,
		BuiltAt:   time.Now(),
	}, nil
}

// acquireLock takes the cross-process cache lock, retrying until the
// context expires.
func (s *Store) acquireLock(ctx context.Context) (func(), error) {
	l := flock.New(filepath.Join(s.dir, lockFile))
	ok, err := l.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, ierr.Wrap(ierr.ErrCodeSnapshotWrite, err)
	}
	if !ok {
		return nil, ierr.New(ierr.ErrCodeSnapshotWrite, "cache directory is locked by another process", nil)
	}
	return func() { _ = l.Unlock() }, nil
}

// corrupt builds an ErrSnapshotCorrupt-compatible error with context.
func corrupt(msg string, cause error) error {
	return ierr.New(ierr.ErrCodeSnapshotCorrupt, msg, cause)
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}
