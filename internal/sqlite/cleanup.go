package sqlite

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/migrations"
)

// Cleanup removes everything that does not belong to one of the tracked
// feeds: foreign podcasts, their episodes and assignments, assignments of
// vanished episodes and tags nothing is assigned to anymore.
//
// An empty feed list is refused so a broken catalog cannot wipe the store.
func (r Repo) Cleanup(ctx context.Context, feeds []string) (CleanupReport, error) {
	if len(feeds) == 0 {
		slog.WarnContext(ctx, "refusing to clean up without tracked feeds")
		return CleanupReport{}, nil
	}

	report, err := r.cleanup(ctx, feeds)
	if err != nil {
		return CleanupReport{}, tcerrs.E(tcerrs.StorageWriteFailed, err)
	}

	return report, nil
}

func (r Repo) cleanup(ctx context.Context, feeds []string) (CleanupReport, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return CleanupReport{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	tracked := sq.Select("id").From("podcasts").Where(sq.Eq{"feed": feeds})
	orphaned := sq.Expr("NOT EXISTS (SELECT 1 FROM episodes e WHERE e.guid = tags2episodes.episodeguid AND e.podcastid = tags2episodes.podcastid)")

	var report CleanupReport
	steps := []struct {
		what  string
		del   sq.DeleteBuilder
		count *int64
	}{
		{"assignments", sq.Delete("tags2episodes").Where(sq.Expr("podcastid NOT IN (?)", tracked)), &report.Assignments},
		{"episodes", sq.Delete("episodes").Where(sq.Expr("podcastid NOT IN (?)", tracked)), &report.Episodes},
		{"podcasts", sq.Delete("podcasts").Where(sq.NotEq{"feed": feeds}), &report.Podcasts},
		{"assignments", sq.Delete("tags2episodes").Where(orphaned), &report.Assignments},
		{"tags", sq.Delete("tags").Where("id NOT IN (SELECT tagid FROM tags2episodes)"), &report.Tags},
	}
	for _, step := range steps {
		n, err := execDelete(ctx, tx, step.del)
		if err != nil {
			return CleanupReport{}, fmt.Errorf("error deleting %s: %w", step.what, err)
		}
		*step.count += n
	}

	if err := tx.Commit(); err != nil {
		return CleanupReport{}, fmt.Errorf("error committing transaction: %w", err)
	}

	slog.InfoContext(ctx, "cleaned up store",
		"podcasts", report.Podcasts,
		"episodes", report.Episodes,
		"assignments", report.Assignments,
		"tags", report.Tags,
	)

	return report, nil
}

func execDelete(ctx context.Context, tx *sqlx.Tx, del sq.DeleteBuilder) (int64, error) {
	query, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// Reset drops every table and recreates the empty schema.
func (r Repo) Reset(ctx context.Context) error {
	if err := migrations.Reset(r.db); err != nil {
		return tcerrs.E(tcerrs.StorageWriteFailed, err)
	}
	slog.InfoContext(ctx, "store reset")

	return nil
}
