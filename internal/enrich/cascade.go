// Package enrich recovers tags for episodes whose feed carried none.
//
// A [Cascade] runs an ordered list of strategies, from cheap scans of the
// episode's own text to fetching its web page, and stops at the first one
// that finds anything.
package enrich

import (
	"context"
	"log/slog"

	"github.com/jdholdren/tagcast/internal/fetch"
	"github.com/jdholdren/tagcast/internal/podcast"
)

// Strategy is one way of finding tags for an episode. TryExtract returns
// the raw tags, a short description of where they came from and whether it
// found any.
type Strategy interface {
	Name() string
	TryExtract(ctx context.Context, e podcast.Episode) (tags []string, source string, ok bool)
}

// Result is the outcome of [Cascade.Enrich]. Strategy and Source are empty
// when nothing was found.
type Result struct {
	Tags     []string
	Strategy string
	Source   string
}

type Cascade struct {
	strategies []Strategy
}

// NewCascade runs strategies in the given order.
func NewCascade(strategies ...Strategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// New builds the standard cascade: hashtags, labeled lists, the episode's
// website and finally the platform hashtag rescan. Pages are fetched with
// pages.
func New(pages fetch.Fetcher, opts ...WebsiteOption) *Cascade {
	return NewCascade(
		Hashtags{},
		LabeledList{},
		NewWebsite(pages, opts...),
		PlatformHashtags{},
	)
}

// Enrich tries every strategy in order and returns the first cleaned,
// non-empty tag set. It never fails; finding nothing is an empty Result.
func (c *Cascade) Enrich(ctx context.Context, e podcast.Episode) Result {
	for _, s := range c.strategies {
		if ctx.Err() != nil {
			break
		}

		raw, source, ok := s.TryExtract(ctx, e)
		if !ok {
			continue
		}
		tags := Clean(raw)
		if len(tags) == 0 {
			continue
		}

		slog.DebugContext(ctx, "enriched episode tags",
			"guid", e.GUID,
			"strategy", s.Name(),
			"source", source,
			"count", len(tags),
		)
		return Result{Tags: tags, Strategy: s.Name(), Source: source}
	}

	slog.DebugContext(ctx, "no tags found for episode", "guid", e.GUID)
	return Result{Tags: []string{}}
}
