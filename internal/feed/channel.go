package feed

import (
	"strings"

	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/mmcdole/gofeed/rss"

	"github.com/jdholdren/tagcast/internal/podcast"
)

// group returns the extension elements of ns, or nil when the document
// did not declare it.
//
// gofeed keys extensions by a canonical prefix when it knows the namespace
// and by the document's own prefix otherwise, so both are tried.
func (c capabilities) group(exts ext.Extensions, ns namespace) map[string][]ext.Extension {
	if !c.has(ns) || exts == nil {
		return nil
	}
	if g, ok := exts[ns.prefix]; ok {
		return g
	}
	if p := c.declaredPrefix(ns); p != "" {
		return exts[p]
	}

	return nil
}

// text returns the trimmed value of the first element called name, or nil
// when there is none.
func text(group map[string][]ext.Extension, name string) *string {
	matches := group[name]
	if len(matches) == 0 {
		return nil
	}
	v := strings.TrimSpace(matches[0].Value)

	return &v
}

func attr(group map[string][]ext.Extension, name, key string) string {
	matches := group[name]
	if len(matches) == 0 {
		return ""
	}

	return strings.TrimSpace(matches[0].Attrs[key])
}

func channelFields(ch *rss.Feed, caps capabilities) podcast.Podcast {
	p := podcast.Podcast{
		Title:       strings.TrimSpace(ch.Title),
		Description: strings.TrimSpace(ch.Description),
		Link:        strings.TrimSpace(ch.Link),
		Language:    strings.TrimSpace(ch.Language),
		Copyright:   strings.TrimSpace(ch.Copyright),
		Generator:   strings.TrimSpace(ch.Generator),
		Categories:  []string{},

		PubDate:       parseDate(ch.PubDateParsed, ch.PubDate),
		LastBuildDate: parseDate(ch.LastBuildDateParsed, ch.LastBuildDate),
	}

	if itunes := caps.group(ch.Extensions, nsITunes); itunes != nil {
		p.Author = text(itunes, "author")
		p.Type = text(itunes, "type")
		p.Subtitle = text(itunes, "subtitle")
		p.Summary = text(itunes, "summary")
		p.NewFeedURL = text(itunes, "new-feed-url")
		p.Explicit = text(itunes, "explicit")
		p.Complete = text(itunes, "complete")
		p.Block = text(itunes, "block")

		for _, c := range itunes["category"] {
			if name := strings.TrimSpace(c.Attrs["text"]); name != "" {
				p.Categories = append(p.Categories, name)
			}
		}

		if owners := itunes["owner"]; len(owners) > 0 {
			p.OwnerName = text(owners[0].Children, "name")
			p.OwnerEmail = text(owners[0].Children, "email")
		}
	}

	if pod := caps.group(ch.Extensions, nsPodcast); pod != nil {
		p.Locked = text(pod, "locked")
		p.Funding = text(pod, "funding")
	}

	if ch.Image != nil {
		p.CoverURL = strings.TrimSpace(ch.Image.URL)
	}
	if p.CoverURL == "" && caps.has(nsITunes) {
		p.CoverURL = attr(caps.group(ch.Extensions, nsITunes), "image", "href")
	}

	return p
}
