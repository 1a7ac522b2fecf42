package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
)

// UpsertPodcast inserts the podcast or overwrites the stored row with the
// same feed, returning the row id. The stored hash is left alone, see
// SetPodcastHash.
func (r Repo) UpsertPodcast(ctx context.Context, p Podcast) (int64, error) {
	const q = `INSERT INTO podcasts (
		feed, title, authors, contact, categories, website, cover, last_update,
		description, summary, slug, shortname, color, colorcontrast, fullepisodesonly,
		stripfromdescription, stripfromshownotes, stripepisodenumbers
	) VALUES (
		:feed, :title, :authors, :contact, :categories, :website, :cover, :last_update,
		:description, :summary, :slug, :shortname, :color, :colorcontrast, :fullepisodesonly,
		:stripfromdescription, :stripfromshownotes, :stripepisodenumbers
	) ON CONFLICT (feed) DO UPDATE SET
		title = excluded.title,
		authors = excluded.authors,
		contact = excluded.contact,
		categories = excluded.categories,
		website = excluded.website,
		cover = excluded.cover,
		last_update = excluded.last_update,
		description = excluded.description,
		summary = excluded.summary,
		slug = excluded.slug,
		shortname = excluded.shortname,
		color = excluded.color,
		colorcontrast = excluded.colorcontrast,
		fullepisodesonly = excluded.fullepisodesonly,
		stripfromdescription = excluded.stripfromdescription,
		stripfromshownotes = excluded.stripfromshownotes,
		stripepisodenumbers = excluded.stripepisodenumbers;`
	if _, err := r.db.NamedExecContext(ctx, q, p); err != nil {
		return 0, tcerrs.E(tcerrs.StorageWriteFailed, fmt.Errorf("error upserting podcast: %w", err))
	}

	const idQ = `SELECT id FROM podcasts WHERE feed = ?;`
	var id int64
	if err := r.db.GetContext(ctx, &id, idQ, p.Feed); err != nil {
		return 0, fmt.Errorf("error fetching podcast id: %w", err)
	}

	return id, nil
}

// SetPodcastHash records the feed hash once every episode of it is stored.
func (r Repo) SetPodcastHash(ctx context.Context, id int64, hash string) error {
	const q = `UPDATE podcasts SET hash = ? WHERE id = ?;`
	if _, err := r.db.ExecContext(ctx, q, hash, id); err != nil {
		return tcerrs.E(tcerrs.StorageWriteFailed, fmt.Errorf("error updating podcast hash: %w", err))
	}

	return nil
}

func (r Repo) Podcast(ctx context.Context, id int64) (Podcast, error) {
	const q = `SELECT * FROM podcasts WHERE id = ?;`
	var p Podcast
	err := r.db.GetContext(ctx, &p, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Podcast{}, tcerrs.E(tcerrs.NotFound, "podcast not found")
	}
	if err != nil {
		return Podcast{}, fmt.Errorf("error fetching podcast: %w", err)
	}

	return p, nil
}

func (r Repo) PodcastByFeed(ctx context.Context, feed string) (Podcast, error) {
	const q = `SELECT * FROM podcasts WHERE feed = ?;`
	var p Podcast
	err := r.db.GetContext(ctx, &p, q, feed)
	if errors.Is(err, sql.ErrNoRows) {
		return Podcast{}, tcerrs.E(tcerrs.NotFound, "podcast not found")
	}
	if err != nil {
		return Podcast{}, fmt.Errorf("error fetching podcast: %w", err)
	}

	return p, nil
}

func (r Repo) Podcasts(ctx context.Context) ([]Podcast, error) {
	const q = `SELECT * FROM podcasts ORDER BY lower(title) ASC;`
	podcasts := []Podcast{}
	if err := r.db.SelectContext(ctx, &podcasts, q); err != nil {
		return nil, fmt.Errorf("error fetching podcasts: %w", err)
	}

	return podcasts, nil
}
