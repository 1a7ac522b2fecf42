package sqlite

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// EpisodeTags lists the tags assigned to the episode with guid.
func (r Repo) EpisodeTags(ctx context.Context, guid string) ([]string, error) {
	const q = `SELECT DISTINCT t.tag FROM tags2episodes te
		JOIN tags t ON t.id = te.tagid
		WHERE te.episodeguid = ?
		ORDER BY lower(t.tag) ASC;`
	tags := []string{}
	if err := r.db.SelectContext(ctx, &tags, q, guid); err != nil {
		return nil, fmt.Errorf("error fetching episode tags: %w", err)
	}

	return tags, nil
}

// AllTags lists the vocabulary alphabetically. With usedMoreThan > 0 only
// tags assigned to more than that many episodes are returned.
func (r Repo) AllTags(ctx context.Context, usedMoreThan int) ([]TagUsage, error) {
	b := sq.Select("t.id", "t.tag", "COUNT(te.id) AS usage").
		From("tags t").
		LeftJoin("tags2episodes te ON te.tagid = t.id").
		GroupBy("t.id", "t.tag").
		OrderBy("lower(t.tag) ASC")
	if usedMoreThan > 0 {
		b = b.Having("COUNT(te.id) > ?", usedMoreThan)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	tags := []TagUsage{}
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching tags: %w", err)
	}

	return tags, nil
}

// MostCommonTags lists assigned tags by descending usage. A limit <= 0
// returns all of them.
func (r Repo) MostCommonTags(ctx context.Context, limit int) ([]TagUsage, error) {
	b := sq.Select("t.id", "t.tag", "COUNT(te.id) AS usage").
		From("tags2episodes te").
		Join("tags t ON t.id = te.tagid").
		GroupBy("t.id", "t.tag").
		OrderBy("usage DESC", "lower(t.tag) ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %w", err)
	}

	tags := []TagUsage{}
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, fmt.Errorf("error fetching most common tags: %w", err)
	}

	return tags, nil
}
