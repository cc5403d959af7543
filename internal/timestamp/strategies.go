package timestamp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// gitTimeout bounds a single git history query.
const gitTimeout = 5 * time.Second

// FrontMatterStrategy uses the created/updated values declared in the
// document's front-matter. Unparseable values are treated as absent and
// logged, so the chain falls through instead of failing the document.
type FrontMatterStrategy struct{}

func (FrontMatterStrategy) Name() string { return "frontmatter" }

func (FrontMatterStrategy) Resolve(_ context.Context, req Request) (time.Time, time.Time, error) {
	var created, updated time.Time
	if req.FrontCreated != "" {
		if t, ok := Parse(req.FrontCreated); ok {
			created = t
		} else {
			slog.Warn("unparseable front-matter created date",
				slog.String("path", req.AbsPath),
				slog.String("value", req.FrontCreated))
		}
	}
	if req.FrontUpdated != "" {
		if t, ok := Parse(req.FrontUpdated); ok {
			updated = t
		} else {
			slog.Warn("unparseable front-matter updated date",
				slog.String("path", req.AbsPath),
				slog.String("value", req.FrontUpdated))
		}
	}
	return created, updated, nil
}

// GitStrategy derives timestamps from version-control history: the first
// commit touching the path gives created, the most recent gives updated.
// Any failure (not a repository, no history, git missing) is non-fatal;
// the resolver falls through to filesystem stat.
type GitStrategy struct{}

func (GitStrategy) Name() string { return "git" }

func (GitStrategy) Resolve(ctx context.Context, req Request) (time.Time, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	dir := filepath.Dir(req.AbsPath)
	base := filepath.Base(req.AbsPath)

	cmd := exec.CommandContext(ctx, "git", "-C", dir,
		"log", "--follow", "--format=%aI", "--", base)
	out, err := cmd.Output()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("git log: %w", err)
	}

	return parseGitLog(string(out))
}

// parseGitLog reads `git log --format=%aI` output (newest commit first)
// into (created, updated).
func parseGitLog(out string) (time.Time, time.Time, error) {
	lines := strings.Fields(strings.TrimSpace(out))
	if len(lines) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no commit history")
	}

	updated, err := time.Parse(time.RFC3339, lines[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad commit date %q: %w", lines[0], err)
	}
	created, err := time.Parse(time.RFC3339, lines[len(lines)-1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad commit date %q: %w", lines[len(lines)-1], err)
	}

	return created.UTC(), updated.UTC(), nil
}

// FileStatStrategy is the terminal fallback: the file's modification time
// serves for both fields. Creation time is not portably available, so
// mtime is the documented approximation.
type FileStatStrategy struct{}

func (FileStatStrategy) Name() string { return "stat" }

func (FileStatStrategy) Resolve(_ context.Context, req Request) (time.Time, time.Time, error) {
	info, err := os.Stat(req.AbsPath)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	mod := info.ModTime().UTC()
	return mod, mod, nil
}
