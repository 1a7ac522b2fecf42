// Package feed turns raw podcast RSS bytes into the podcast model.
//
// Parsing happens in two layers: a tolerant tokenizer pass that finds the
// namespaces and item boundaries, and gofeed for the actual field decoding,
// run once for the channel and once per item. Running gofeed per item is
// what lets a single broken item be dropped instead of the whole document.
package feed

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed/rss"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/podcast"
	"github.com/jdholdren/tagcast/logger"
)

// Parse decodes a feed document. The returned podcast has no FeedURL; the
// caller knows where the bytes came from.
func Parse(ctx context.Context, raw []byte) (podcast.Podcast, error) {
	doc, err := toUTF8(raw)
	if err != nil {
		return podcast.Podcast{}, err
	}

	out, err := scan(doc)
	if err != nil {
		return podcast.Podcast{}, err
	}

	parser := &rss.Parser{}
	channel, err := parser.Parse(bytes.NewReader(withoutItems(doc, out.items)))
	if err != nil {
		return podcast.Podcast{}, tcerrs.E(tcerrs.InvalidFeed, fmt.Errorf("error parsing channel: %w", err))
	}

	p := channelFields(channel, out.caps)
	p.StylesheetHref = stylesheetHref(doc)
	p.ContentHash = hash(raw)

	root := out.caps.rootTag()
	for i, it := range out.items {
		fragment := doc[it.start:it.end]
		ictx := logger.Ctx(ctx, slog.Int("item", i))

		ep, err := parseItem(ictx, parser, root, fragment, out.caps)
		if err != nil {
			slog.WarnContext(ictx, "skipping malformed item", "error", err)
			continue
		}
		p.Episodes = append(p.Episodes, ep)
	}
	if len(p.Episodes) == 0 {
		return podcast.Podcast{}, tcerrs.E(tcerrs.InvalidFeed, fmt.Sprintf("none of %d items could be parsed", len(out.items)))
	}

	return p, nil
}

// hash is the change-detection digest used for feeds and items.
func hash(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// parseDate prefers gofeed's own parse and falls back to dateparse for the
// formats it does not know.
func parseDate(parsed *time.Time, raw string) *time.Time {
	if parsed != nil {
		return parsed
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	t = t.UTC()

	return &t
}
