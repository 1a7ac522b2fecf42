package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
)

// namespace is an XML vocabulary fields can be gated on.
type namespace struct {
	// Prefix gofeed and most feeds use for it.
	prefix string
	uris   []string
}

var (
	nsITunes  = namespace{prefix: "itunes", uris: []string{"http://www.itunes.com/dtds/podcast-1.0.dtd"}}
	nsContent = namespace{prefix: "content", uris: []string{"http://purl.org/rss/1.0/modules/content/"}}
	nsChapter = namespace{prefix: "psc", uris: []string{"http://podlove.org/simple-chapters"}}
	nsPodcast = namespace{prefix: "podcast", uris: []string{
		"https://podcastindex.org/namespace/1.0",
		"https://github.com/Podcastindex-org/podcast-namespace/blob/main/docs/1.0.md",
	}}
)

// capabilities is the set of namespaces a document declares.
type capabilities struct {
	// declaration order, first declaration of a prefix wins
	prefixes []string
	byPrefix map[string]string
	byURI    map[string]string
}

func newCapabilities() capabilities {
	return capabilities{
		byPrefix: map[string]string{},
		byURI:    map[string]string{},
	}
}

func normalizeURI(uri string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(uri)), "/")
}

func (c *capabilities) add(prefix, uri string) {
	if prefix == "" {
		return
	}
	if _, ok := c.byPrefix[prefix]; ok {
		return
	}
	c.prefixes = append(c.prefixes, prefix)
	c.byPrefix[prefix] = uri
	if _, ok := c.byURI[normalizeURI(uri)]; !ok {
		c.byURI[normalizeURI(uri)] = prefix
	}
}

// has reports whether ns was declared, either by one of its URIs or by its
// usual prefix.
func (c capabilities) has(ns namespace) bool {
	_, ok := c.byPrefix[ns.prefix]
	return ok || c.declaredPrefix(ns) != ""
}

func (c capabilities) declaredPrefix(ns namespace) string {
	for _, uri := range ns.uris {
		if p, ok := c.byURI[normalizeURI(uri)]; ok {
			return p
		}
	}

	return ""
}

// rootTag opens a synthetic <rss> root re-declaring every namespace.
func (c capabilities) rootTag() []byte {
	var buf bytes.Buffer
	buf.WriteString(`<rss version="2.0"`)
	for _, prefix := range c.prefixes {
		fmt.Fprintf(&buf, ` xmlns:%s="`, prefix)
		_ = xml.EscapeText(&buf, []byte(c.byPrefix[prefix]))
		buf.WriteByte('"')
	}
	buf.WriteByte('>')

	return buf.Bytes()
}

type span struct {
	start, end int64
}

// outline is what a single tokenizer pass learns about a document.
type outline struct {
	caps       capabilities
	items      []span
	hasChannel bool
}

// scan walks the document once, recording namespace declarations, the
// byte range of every <item> and whether a <channel> exists.
func scan(doc []byte) (outline, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	d.Strict = false
	d.Entity = xml.HTMLEntity

	out := outline{caps: newCapabilities()}
	var (
		depth     int
		itemDepth = -1
		itemStart int64
	)
	for {
		offset := d.InputOffset()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return outline{}, tcerrs.E(tcerrs.InvalidFeed, fmt.Errorf("error tokenizing feed: %w", err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" {
					out.caps.add(attr.Name.Local, attr.Value)
				}
			}

			switch strings.ToLower(t.Name.Local) {
			case "channel":
				out.hasChannel = true
			case "item":
				if itemDepth < 0 {
					itemDepth = depth
					itemStart = offset
				}
			}
		case xml.EndElement:
			if depth == itemDepth {
				out.items = append(out.items, span{start: itemStart, end: d.InputOffset()})
				itemDepth = -1
			}
			depth--
		}
	}

	if !out.hasChannel {
		return outline{}, tcerrs.E(tcerrs.InvalidFeed, "document has no channel")
	}
	if len(out.items) == 0 {
		return outline{}, tcerrs.E(tcerrs.InvalidFeed, "document has no items")
	}

	return out, nil
}

// withoutItems returns doc with every item range cut out.
func withoutItems(doc []byte, items []span) []byte {
	var buf bytes.Buffer
	buf.Grow(len(doc))

	var last int64
	for _, it := range items {
		buf.Write(doc[last:it.start])
		last = it.end
	}
	buf.Write(doc[last:])

	return buf.Bytes()
}
