package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/podcast"
)

// EpisodeHash returns the stored content hash of an episode. The bool is
// false when the episode has not been stored yet.
func (r Repo) EpisodeHash(ctx context.Context, podcastID int64, guid string) (string, bool, error) {
	const q = `SELECT hash FROM episodes WHERE podcastid = ? AND guid = ?;`
	var hash string
	err := r.db.GetContext(ctx, &hash, q, podcastID, guid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error fetching episode hash: %w", err)
	}

	return hash, true, nil
}

// SaveEpisode replaces the stored episode and its tag assignments in one
// transaction. Tags missing from the vocabulary are created. It returns
// the number of assignments written.
func (r Repo) SaveEpisode(ctx context.Context, e Episode, tags []string) (int, error) {
	n, err := r.saveEpisode(ctx, e, tags)
	if err != nil {
		return 0, tcerrs.E(tcerrs.StorageWriteFailed, err)
	}

	return n, nil
}

func (r Repo) saveEpisode(ctx context.Context, e Episode, tags []string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const deleteQ = `DELETE FROM tags2episodes WHERE podcastid = ? AND episodeguid = ?;`
	if _, err := tx.ExecContext(ctx, deleteQ, e.PodcastID, e.GUID); err != nil {
		return 0, fmt.Errorf("error deleting tag assignments: %w", err)
	}

	const upsertQ = `INSERT INTO episodes (
		podcastid, guid, name, season, number, link, mediafile, cover, type, pubdate,
		hash, chapters, subtitle, description, summary, shownotes, duration, last_updated
	) VALUES (
		:podcastid, :guid, :name, :season, :number, :link, :mediafile, :cover, :type, :pubdate,
		:hash, :chapters, :subtitle, :description, :summary, :shownotes, :duration, :last_updated
	) ON CONFLICT (podcastid, guid) DO UPDATE SET
		name = excluded.name,
		season = excluded.season,
		number = excluded.number,
		link = excluded.link,
		mediafile = excluded.mediafile,
		cover = excluded.cover,
		type = excluded.type,
		pubdate = excluded.pubdate,
		hash = excluded.hash,
		chapters = excluded.chapters,
		subtitle = excluded.subtitle,
		description = excluded.description,
		summary = excluded.summary,
		shownotes = excluded.shownotes,
		duration = excluded.duration,
		last_updated = excluded.last_updated;`
	if _, err := tx.NamedExecContext(ctx, upsertQ, e); err != nil {
		return 0, fmt.Errorf("error upserting episode: %w", err)
	}

	assigned := 0
	for _, tag := range tags {
		tagID, err := findOrCreateTag(ctx, tx, tag)
		if err != nil {
			return 0, err
		}

		const assignQ = `INSERT OR IGNORE INTO tags2episodes (episodeguid, tagid, podcastid) VALUES (?, ?, ?);`
		res, err := tx.ExecContext(ctx, assignQ, e.GUID, tagID, e.PodcastID)
		if err != nil {
			return 0, fmt.Errorf("error assigning tag: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			assigned += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}

	return assigned, nil
}

// findOrCreateTag resolves a tag case-insensitively, inserting it in its
// title-cased form when the vocabulary does not know it yet.
func findOrCreateTag(ctx context.Context, tx *sqlx.Tx, tag string) (int64, error) {
	tag = podcast.NormalizeTag(tag)

	const insertQ = `INSERT OR IGNORE INTO tags (tag) VALUES (?);`
	if _, err := tx.ExecContext(ctx, insertQ, tag); err != nil {
		return 0, fmt.Errorf("error inserting tag: %w", err)
	}

	const q = `SELECT id FROM tags WHERE lower(tag) = lower(?);`
	var id int64
	if err := tx.GetContext(ctx, &id, q, tag); err != nil {
		return 0, fmt.Errorf("error fetching tag id: %w", err)
	}

	return id, nil
}

func (r Repo) Episodes(ctx context.Context, f EpisodeFilter) ([]Episode, error) {
	b := sq.Select("e.*").From("episodes e")
	if f.PodcastID != 0 {
		b = b.Where(sq.Eq{"e.podcastid": f.PodcastID})
	}
	if f.Tag != "" {
		b = b.
			Join("tags2episodes te ON te.episodeguid = e.guid AND te.podcastid = e.podcastid").
			Join("tags t ON t.id = te.tagid").
			Where("lower(t.tag) = lower(?)", strings.TrimSpace(f.Tag))
	}

	dir := "DESC"
	if strings.EqualFold(f.Order, "asc") {
		dir = "ASC"
	}
	b = b.OrderBy("e.pubdate "+dir, "e.id "+dir)

	switch {
	case f.Limit > 0:
		b = b.Limit(f.Limit)
	case f.Offset > 0:
		// SQLite only accepts OFFSET after a LIMIT.
		b = b.Limit(math.MaxInt64)
	}
	if f.Offset > 0 {
		b = b.Offset(f.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	episodes := []Episode{}
	if err := r.db.SelectContext(ctx, &episodes, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching episodes: %w", err)
	}

	return episodes, nil
}

// EpisodesMatchingTags returns the episodes carrying any of tags, newest
// first.
func (r Repo) EpisodesMatchingTags(ctx context.Context, tags []string) ([]Episode, error) {
	if len(tags) == 0 {
		return []Episode{}, nil
	}

	or := sq.Or{}
	for _, t := range tags {
		or = append(or, sq.Expr("lower(t.tag) = lower(?)", strings.TrimSpace(t)))
	}
	query, args, err := sq.Select("e.*").
		Distinct().
		From("episodes e").
		Join("tags2episodes te ON te.episodeguid = e.guid AND te.podcastid = e.podcastid").
		Join("tags t ON t.id = te.tagid").
		Where(or).
		OrderBy("e.pubdate DESC", "e.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	episodes := []Episode{}
	if err := r.db.SelectContext(ctx, &episodes, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching episodes: %w", err)
	}

	return episodes, nil
}

// EpisodeCovers lists the non-empty episode cover URLs of the podcast with
// the given feed.
func (r Repo) EpisodeCovers(ctx context.Context, feed string) ([]string, error) {
	const q = `SELECT e.cover FROM episodes e
		JOIN podcasts p ON p.id = e.podcastid
		WHERE p.feed = ? AND e.cover != ''
		ORDER BY e.pubdate DESC, e.id DESC;`
	covers := []string{}
	if err := r.db.SelectContext(ctx, &covers, q, feed); err != nil {
		return nil, fmt.Errorf("error fetching episode covers: %w", err)
	}

	return covers, nil
}
