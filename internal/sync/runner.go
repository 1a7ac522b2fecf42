package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/jdholdren/tagcast/internal/catalog"
	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/feed"
	"github.com/jdholdren/tagcast/internal/sqlite"
	"github.com/jdholdren/tagcast/logger"
)

// FeedSource hands out feed documents, optionally bypassing its cache.
type FeedSource interface {
	Get(ctx context.Context, url string, forceFresh bool) ([]byte, error)
}

// Status of one podcast within a run.
const (
	StatusSynced    = "synced"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

type (
	// Runner synchronizes every podcast of a catalog and cleans up after.
	Runner struct {
		engine      *Engine
		store       Store
		feeds       FeedSource
		parallelism int
		retries     uint64
		retryBase   time.Duration
		lock        *flock.Flock
	}

	RunnerOption func(*Runner)

	Outcome struct {
		Feed   string `json:"feed"`
		Status string `json:"status"`
		Report Report `json:"report"`
		Err    error  `json:"-"`
	}

	RunReport struct {
		RunID    string               `json:"run_id"`
		Outcomes []Outcome            `json:"outcomes"`
		Cleanup  sqlite.CleanupReport `json:"cleanup"`
	}
)

// WithParallelism bounds how many podcasts sync at once.
func WithParallelism(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithRetries sets how often a feed fetch is retried and the first delay
// of the Fibonacci backoff between attempts.
func WithRetries(n uint64, base time.Duration) RunnerOption {
	return func(r *Runner) {
		r.retries = n
		r.retryBase = base
	}
}

// WithLockFile makes runs against the same lock file mutually exclusive,
// across processes.
func WithLockFile(path string) RunnerOption {
	return func(r *Runner) {
		r.lock = flock.New(path)
	}
}

func NewRunner(engine *Engine, store Store, feeds FeedSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:      engine,
		store:       store,
		feeds:       feeds,
		parallelism: 4,
		retries:     3,
		retryBase:   time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Failed counts the podcasts that could not be synchronized.
func (rr RunReport) Failed() int {
	n := 0
	for _, o := range rr.Outcomes {
		if o.Status == StatusFailed {
			n++
		}
	}

	return n
}

// Run synchronizes every catalog entry, then removes whatever the catalog
// no longer lists. A podcast that fails is logged and does not stop the
// others. With force, unchanged feeds are refetched and rewritten.
func (r *Runner) Run(ctx context.Context, cat catalog.Catalog, force bool) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString()}
	ctx = logger.Ctx(ctx, slog.String("run_id", report.RunID))

	if r.lock != nil {
		locked, err := r.lock.TryLock()
		if err != nil {
			return report, fmt.Errorf("error acquiring sync lock: %w", err)
		}
		if !locked {
			return report, tcerrs.E(fmt.Sprintf("a sync is already running (lock %s)", r.lock.Path()))
		}
		defer r.lock.Unlock()
	}

	slog.InfoContext(ctx, "sync started", "podcasts", len(cat.Podcasts), "force", force)

	tracked := cat.Tracked()
	report.Outcomes = make([]Outcome, len(cat.Podcasts))
	g := errgroup.Group{}
	g.SetLimit(r.parallelism)
	for i, entry := range cat.Podcasts {
		i, entry := i, entry
		g.Go(func() error {
			pctx := logger.Ctx(ctx, slog.String("feed", entry.Feed))
			out := r.syncOne(pctx, entry, tracked, force)
			if out.Err != nil {
				slog.ErrorContext(pctx, "error syncing podcast", "error", out.Err)
			}
			report.Outcomes[i] = out

			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, err
	}

	cleanup, err := r.engine.Cleanup(ctx, cat.Feeds())
	if err != nil {
		return report, fmt.Errorf("error cleaning up: %w", err)
	}
	report.Cleanup = cleanup

	slog.InfoContext(ctx, "sync finished", "podcasts", len(report.Outcomes), "failed", report.Failed())

	return report, nil
}

func (r *Runner) syncOne(ctx context.Context, entry catalog.Entry, tracked map[string]bool, force bool) Outcome {
	out := Outcome{Feed: entry.Feed, Status: StatusFailed}

	raw, err := r.fetch(ctx, entry.Feed, force)
	if err != nil {
		out.Err = err
		return out
	}

	p, err := feed.Parse(ctx, raw)
	if err != nil {
		out.Err = err
		return out
	}
	p.FeedURL = entry.Feed

	if !force {
		stored, err := r.store.PodcastByFeed(ctx, entry.Feed)
		if err == nil && stored.Hash == p.ContentHash {
			slog.DebugContext(ctx, "feed unchanged")
			out.Status = StatusUnchanged
			out.Report = Report{PodcastID: stored.ID}
			return out
		}
		if err != nil && !tcerrs.Is(err, tcerrs.NotFound) {
			out.Err = err
			return out
		}
	}

	rep, err := r.engine.Synchronize(ctx, p, entry.Overrides, tracked)
	out.Report = rep
	if err != nil {
		out.Err = err
		return out
	}
	out.Status = StatusSynced

	slog.InfoContext(ctx, "podcast synced",
		"created", rep.Created,
		"replaced", rep.Replaced,
		"skipped", rep.Skipped,
		"assigned", rep.Assigned,
		"enriched", len(rep.Enriched),
	)

	return out
}

func (r *Runner) fetch(ctx context.Context, url string, force bool) ([]byte, error) {
	var raw []byte
	backoff := retry.WithMaxRetries(r.retries, retry.NewFibonacci(r.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		body, err := r.feeds.Get(ctx, url, force)
		if err != nil {
			slog.WarnContext(ctx, "feed fetch failed", "error", err)
			return retry.RetryableError(err)
		}
		raw = body

		return nil
	})
	if err != nil {
		return nil, err
	}

	return raw, nil
}

// Loop runs the catalog right away and then every interval until ctx ends.
// Failed runs are logged, the loop carries on.
func (r *Runner) Loop(ctx context.Context, load func() (catalog.Catalog, error), interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		cat, err := load()
		if err != nil {
			slog.ErrorContext(ctx, "error loading catalog", "error", err)
		} else if _, err := r.Run(ctx, cat, false); err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "error running sync", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
