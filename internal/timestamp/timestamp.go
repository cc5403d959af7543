// Package timestamp resolves creation and modification times for content
// files.
//
// Resolution is an explicit ordered list of strategies evaluated in
// sequence, each filling whichever of the two fields is still unset:
// explicit front-matter values, then version-control history, then
// filesystem stat. Keeping the chain as data makes the ordering visible
// and lets each strategy be tested in isolation.
package timestamp

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Request identifies the document whose timestamps are being resolved.
type Request struct {
	// AbsPath is the absolute path of the content file.
	AbsPath string

	// FrontCreated and FrontUpdated are the raw front-matter values,
	// empty when the document does not declare them.
	FrontCreated string
	FrontUpdated string
}

// Stamps is a resolved pair of timestamps, normalized to UTC.
type Stamps struct {
	Created time.Time
	Updated time.Time
}

// Strategy resolves zero or more of the two timestamp fields.
// A zero time means "no answer"; an error means the strategy could not
// run at all. Both are non-fatal to resolution.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, req Request) (created, updated time.Time, err error)
}

// Resolver evaluates strategies in order, short-circuiting once both
// fields are set.
type Resolver struct {
	strategies []Strategy
}

// NewResolver builds a resolver over the given strategies, evaluated in
// the order given.
func NewResolver(strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies}
}

// Default returns the production chain: front-matter, then git history,
// then filesystem stat.
func Default() *Resolver {
	return NewResolver(
		FrontMatterStrategy{},
		GitStrategy{},
		FileStatStrategy{},
	)
}

// Resolve runs the chain. Strategy failures are logged as warnings and
// never surface as ingestion errors; the final stat fallback means the
// result is always populated for an existing file.
func (r *Resolver) Resolve(ctx context.Context, req Request) Stamps {
	var out Stamps
	for _, s := range r.strategies {
		if !out.Created.IsZero() && !out.Updated.IsZero() {
			break
		}
		created, updated, err := s.Resolve(ctx, req)
		if err != nil {
			slog.Warn("timestamp strategy failed, falling through",
				slog.String("strategy", s.Name()),
				slog.String("path", req.AbsPath),
				slog.String("error", err.Error()))
			continue
		}
		if out.Created.IsZero() && !created.IsZero() {
			out.Created = created.UTC()
		}
		if out.Updated.IsZero() && !updated.IsZero() {
			out.Updated = updated.UTC()
		}
	}
	return out
}

// acceptedLayouts are the date formats a front-matter value may use.
// Everything is normalized to UTC before comparison or storage; comparing
// raw date strings of mixed formats is exactly the bug this prevents.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse normalizes a date string into UTC. The second return is false
// when the value matches none of the accepted layouts.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
