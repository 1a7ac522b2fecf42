package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed/rss"

	"github.com/jdholdren/tagcast/internal/duration"
	"github.com/jdholdren/tagcast/internal/podcast"
)

var (
	errNoIdentity = errors.New("item has neither guid, enclosure nor link")
	plainImageURL = regexp.MustCompile(`(?is)<url>\s*(.*?)\s*</url>`)
)

// parseItem decodes one <item> fragment on its own.
func parseItem(ctx context.Context, parser *rss.Parser, root, fragment []byte, caps capabilities) (podcast.Episode, error) {
	var doc bytes.Buffer
	doc.Grow(len(root) + len(fragment) + 8)
	doc.Write(root)
	doc.Write(fragment)
	doc.WriteString("</rss>")

	f, err := parser.Parse(&doc)
	if err != nil {
		return podcast.Episode{}, fmt.Errorf("error parsing item: %w", err)
	}
	if len(f.Items) == 0 {
		return podcast.Episode{}, errors.New("item produced no entry")
	}
	it := f.Items[0]

	e := podcast.Episode{
		Title:         strings.TrimSpace(it.Title),
		Description:   strings.TrimSpace(it.Description),
		Link:          strings.TrimSpace(it.Link),
		PubDate:       parseDate(it.PubDateParsed, it.PubDate),
		EpisodeNumber: podcast.NotProvided,
		Season:        podcast.NotProvided,
		Chapters:      []podcast.Chapter{},
		Tags:          []string{},
		ContentHash:   hash(fragment),
	}

	if it.Enclosure != nil {
		e.Enclosure.URL = strings.TrimSpace(it.Enclosure.URL)
		e.Enclosure.MimeType = strings.TrimSpace(it.Enclosure.Type)
		e.Enclosure.Length, _ = strconv.ParseInt(strings.TrimSpace(it.Enclosure.Length), 10, 64)
	}

	if it.GUID != nil {
		e.GUID = strings.TrimSpace(it.GUID.Value)
	}
	switch {
	case e.GUID != "":
	case e.Enclosure.URL != "":
		e.GUID = e.Enclosure.URL
	case e.Link != "":
		e.GUID = e.Link
	default:
		return podcast.Episode{}, errNoIdentity
	}

	if caps.has(nsContent) && strings.TrimSpace(it.Content) != "" {
		notes := it.Content
		e.Shownotes = &notes
	}

	itunes := caps.group(it.Extensions, nsITunes)
	if itunes != nil {
		e.Subtitle = text(itunes, "subtitle")
		e.Author = text(itunes, "author")
		e.EpisodeType = text(itunes, "episodeType")
		e.Summary = text(itunes, "summary")
		e.Explicit = text(itunes, "explicit")
		e.Block = text(itunes, "block")
		e.EpisodeNumber = number(text(itunes, "episode"))
		e.Season = number(text(itunes, "season"))

		if kw := text(itunes, "keywords"); kw != nil {
			for _, t := range strings.Split(*kw, ",") {
				if t = podcast.NormalizeTag(t); t != "" {
					e.Tags = append(e.Tags, t)
				}
			}
		}
	}

	if m := plainImageURL.FindStringSubmatch(it.Custom["image"]); m != nil {
		e.CoverURL = m[1]
	}
	if e.CoverURL == "" {
		e.CoverURL = attr(itunes, "image", "href")
	}

	rawDuration, ok := it.Custom["duration"]
	if !ok {
		rawDuration = podcast.Str(text(itunes, "duration"))
	}
	if secs, err := duration.Sniff(rawDuration); err != nil {
		slog.WarnContext(ctx, "invalid episode duration", "guid", e.GUID, "error", err)
	} else {
		e.DurationSeconds = secs
	}

	e.Chapters = chapters(caps, it)

	return e, nil
}

// chapters reads Podlove Simple Chapters, keeping document order and the
// first chapter for any start offset.
func chapters(caps capabilities, it *rss.Item) []podcast.Chapter {
	ret := []podcast.Chapter{}
	psc := caps.group(it.Extensions, nsChapter)
	if psc == nil {
		return ret
	}

	seen := map[string]bool{}
	for _, group := range psc["chapters"] {
		for _, c := range group.Children["chapter"] {
			start := strings.TrimSpace(c.Attrs["start"])
			if start == "" || seen[start] {
				continue
			}
			seen[start] = true
			ret = append(ret, podcast.Chapter{
				Start: start,
				Title: strings.TrimSpace(c.Attrs["title"]),
				Href:  strings.TrimSpace(c.Attrs["href"]),
				Image: strings.TrimSpace(c.Attrs["image"]),
			})
		}
	}

	return ret
}

func number(raw *string) int {
	if raw == nil {
		return podcast.NotProvided
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil || n < 0 {
		return podcast.NotProvided
	}

	return n
}
