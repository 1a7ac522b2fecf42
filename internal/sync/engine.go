// Package sync writes parsed podcasts into the store: podcast rows, changed
// episodes and their tags.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/jdholdren/tagcast/internal/enrich"
	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/podcast"
	"github.com/jdholdren/tagcast/internal/remap"
	"github.com/jdholdren/tagcast/internal/sqlite"
	"github.com/jdholdren/tagcast/logger"
)

const (
	defaultColor         = "0,0,0"
	defaultColorContrast = "199,199,199"
)

// Store is the persistence the engine needs.
type Store interface {
	UpsertPodcast(ctx context.Context, p sqlite.Podcast) (int64, error)
	SetPodcastHash(ctx context.Context, id int64, hash string) error
	PodcastByFeed(ctx context.Context, feed string) (sqlite.Podcast, error)
	EpisodeHash(ctx context.Context, podcastID int64, guid string) (string, bool, error)
	SaveEpisode(ctx context.Context, e sqlite.Episode, tags []string) (int, error)
	Cleanup(ctx context.Context, feeds []string) (sqlite.CleanupReport, error)
}

var _ Store = sqlite.Repo{}

// Enricher finds tags for episodes whose feed did not carry any.
type Enricher interface {
	Enrich(ctx context.Context, e podcast.Episode) enrich.Result
}

type (
	Engine struct {
		store    Store
		enricher Enricher
		rules    remap.Rules
		now      func() time.Time
	}

	// Report sums up one podcast's synchronization.
	Report struct {
		PodcastID int64 `json:"podcast_id"`
		Created   int   `json:"created"`
		Replaced  int   `json:"replaced"`
		Skipped   int   `json:"skipped"`
		Failed    int   `json:"failed"`
		Assigned  int   `json:"assigned"`
		// Strategy that produced the tags, per enriched episode guid.
		Enriched map[string]string `json:"enriched"`
	}
)

// NewEngine builds an engine. The enricher may be nil, in which case
// episodes without feed keywords stay untagged.
func NewEngine(store Store, enricher Enricher, rules remap.Rules) *Engine {
	return &Engine{
		store:    store,
		enricher: enricher,
		rules:    rules,
		now:      time.Now,
	}
}

// Synchronize stores the podcast row with the overrides applied, then its
// changed episodes. A non-nil tracked set limits which feeds are accepted.
//
// The podcast's hash is only recorded once every episode made it, so a
// failed run is retried in full next time.
func (e *Engine) Synchronize(ctx context.Context, p podcast.Podcast, o podcast.Overrides, tracked map[string]bool) (Report, error) {
	if tracked != nil && !tracked[p.FeedURL] {
		return Report{}, tcerrs.E(tcerrs.NoTrackedPodcastFound, fmt.Sprintf("feed %q is not tracked", p.FeedURL))
	}

	id, err := e.store.UpsertPodcast(ctx, podcastRow(p, o, e.now()))
	if err != nil {
		return Report{}, fmt.Errorf("error storing podcast: %w", err)
	}

	report, err := e.SyncEpisodes(ctx, p)
	if err != nil {
		return report, err
	}

	if err := e.store.SetPodcastHash(ctx, id, p.ContentHash); err != nil {
		return report, err
	}

	return report, nil
}

// SyncEpisodes stores every episode whose hash differs from the stored one.
// Each episode is written in its own transaction; a failing one is
// reported and the rest carry on.
func (e *Engine) SyncEpisodes(ctx context.Context, p podcast.Podcast) (Report, error) {
	stored, err := e.store.PodcastByFeed(ctx, p.FeedURL)
	if tcerrs.Is(err, tcerrs.NotFound) {
		return Report{}, tcerrs.E(tcerrs.NoTrackedPodcastFound, fmt.Sprintf("no podcast stored for %q", p.FeedURL))
	}
	if err != nil {
		return Report{}, fmt.Errorf("error resolving podcast: %w", err)
	}

	episodes := uniqueEpisodes(ctx, p.Episodes)
	report := Report{PodcastID: stored.ID, Enriched: map[string]string{}}
	var errs []error
	for i, ep := range episodes {
		ectx := logger.Ctx(ctx, slog.String("guid", ep.GUID))

		hash, found, err := e.store.EpisodeHash(ectx, stored.ID, ep.GUID)
		if err != nil {
			report.Failed++
			errs = append(errs, err)
			continue
		}
		if found && hash == ep.ContentHash {
			report.Skipped++
			continue
		}

		tags := e.tags(ectx, ep, &report)
		row := episodeRow(stored.ID, ep, i, len(episodes), e.now())
		assigned, err := e.store.SaveEpisode(ectx, row, tags)
		if err != nil {
			slog.ErrorContext(ectx, "error storing episode", "error", err)
			report.Failed++
			errs = append(errs, err)
			continue
		}

		report.Assigned += assigned
		if found {
			report.Replaced++
		} else {
			report.Created++
		}
	}

	if len(errs) > 0 {
		return report, tcerrs.E(tcerrs.StorageWriteFailed, errors.Join(errs...))
	}

	return report, nil
}

// uniqueEpisodes drops repeated guids. The first item in feed order wins.
func uniqueEpisodes(ctx context.Context, episodes []podcast.Episode) []podcast.Episode {
	ret := make([]podcast.Episode, 0, len(episodes))
	seen := make(map[string]bool, len(episodes))
	for _, ep := range episodes {
		if seen[ep.GUID] {
			slog.WarnContext(ctx, "skipping duplicate episode guid", "guid", ep.GUID, "title", ep.Title)
			continue
		}
		seen[ep.GUID] = true
		ret = append(ret, ep)
	}

	return ret
}

// tags are the feed's own keywords, or whatever the enricher finds, after
// the remap rules ran over them.
func (e *Engine) tags(ctx context.Context, ep podcast.Episode, report *Report) []string {
	tags := ep.Tags
	if len(tags) == 0 && e.enricher != nil {
		res := e.enricher.Enrich(ctx, ep)
		if res.Strategy != "" {
			report.Enriched[ep.GUID] = res.Strategy
		}
		tags = res.Tags
	}

	return e.rules.ApplyAll(tags)
}

func (e *Engine) Cleanup(ctx context.Context, feeds []string) (sqlite.CleanupReport, error) {
	return e.store.Cleanup(ctx, feeds)
}

func podcastRow(p podcast.Podcast, o podcast.Overrides, now time.Time) sqlite.Podcast {
	s := o.Slug
	if s == "" {
		s = slug.Make(p.Title)
	}
	if s == "" {
		s = "n-a"
	}

	return sqlite.Podcast{
		Feed:                 p.FeedURL,
		Title:                or(o.Name, p.Title),
		Authors:              or(o.Author, podcast.Str(p.Author)),
		Contact:              or(o.Contact, podcast.Str(p.OwnerEmail)),
		Website:              or(o.Website, p.Link),
		Categories:           strings.Join(p.Categories, ", "),
		Cover:                p.CoverURL,
		LastUpdate:           &now,
		Description:          p.Description,
		Summary:              podcast.Str(p.Summary),
		Slug:                 s,
		Shortname:            o.Shortname,
		Color:                rgb(o.Color, defaultColor),
		ColorContrast:        rgb(o.ColorContrast, defaultColorContrast),
		FullEpisodesOnly:     o.FullEpisodesOnly,
		StripFromDescription: o.StripFromDescription,
		StripFromShownotes:   o.StripFromShownotes,
		StripEpisodeNumbers:  o.StripEpisodeNumbers,
	}
}

// episodeRow maps a parsed episode. Unnumbered episodes are numbered by
// their position, counting up from the oldest.
func episodeRow(podcastID int64, ep podcast.Episode, idx, total int, now time.Time) sqlite.Episode {
	number := ep.EpisodeNumber
	if !ep.HasNumber() {
		number = podcast.PositionalNumber(idx, total)
	}

	return sqlite.Episode{
		PodcastID:   podcastID,
		GUID:        ep.GUID,
		Name:        ep.Title,
		Season:      ep.Season,
		Number:      number,
		Link:        ep.Link,
		MediaFile:   ep.Enclosure.URL,
		Cover:       ep.CoverURL,
		Type:        podcast.Str(ep.EpisodeType),
		PubDate:     ep.PubDate,
		Hash:        ep.ContentHash,
		Chapters:    sqlite.Chapters(ep.Chapters),
		Subtitle:    podcast.Str(ep.Subtitle),
		Description: ep.Description,
		Summary:     podcast.Str(ep.Summary),
		Shownotes:   podcast.Str(ep.Shownotes),
		Duration:    ep.DurationSeconds,
		LastUpdated: &now,
	}
}

func or(override, fallback string) string {
	if override != "" {
		return override
	}

	return fallback
}

func rgb(c []int, fallback string) string {
	if len(c) != 3 {
		return fallback
	}

	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}
