// Package catalog reads the list of podcasts to keep in sync.
package catalog

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jdholdren/tagcast/internal/podcast"
)

// Entry is one tracked feed and the values that override what it says.
type Entry struct {
	Feed string `toml:"feed"`
	podcast.Overrides
}

// Catalog is the decoded podcasts file:
//
//	[[podcast]]
//	feed = "https://example.com/feed.xml"
//	name = "Example Show"
//	color = [255, 102, 0]
type Catalog struct {
	Podcasts []Entry `toml:"podcast"`
}

// Load reads and validates the catalog at path.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode reads a catalog from r. Unknown keys are rejected so typos in
// override names do not go unnoticed.
func Decode(r io.Reader) (Catalog, error) {
	var c Catalog
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

// Parse is [Decode] over a byte slice.
func Parse(b []byte) (Catalog, error) {
	return Decode(bytes.NewReader(b))
}

// Validate checks every entry has a usable, unique feed URL and sane
// colours.
func (c Catalog) Validate() error {
	seen := map[string]bool{}
	for i, e := range c.Podcasts {
		feed := strings.TrimSpace(e.Feed)
		u, err := url.Parse(feed)
		if feed == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("podcast %d: feed %q is not an http(s) url", i, e.Feed)
		}
		if seen[feed] {
			return fmt.Errorf("podcast %d: feed %q is listed twice", i, feed)
		}
		seen[feed] = true

		for name, rgb := range map[string][]int{"color": e.Color, "colorcontrast": e.ColorContrast} {
			if len(rgb) != 0 && len(rgb) != 3 {
				return fmt.Errorf("podcast %d: %s needs three components, got %d", i, name, len(rgb))
			}
		}
	}

	return nil
}

// Feeds lists the tracked feed URLs in file order.
func (c Catalog) Feeds() []string {
	ret := make([]string, 0, len(c.Podcasts))
	for _, e := range c.Podcasts {
		ret = append(ret, strings.TrimSpace(e.Feed))
	}

	return ret
}

// Tracked is [Catalog.Feeds] as a set.
func (c Catalog) Tracked() map[string]bool {
	ret := make(map[string]bool, len(c.Podcasts))
	for _, f := range c.Feeds() {
		ret[f] = true
	}

	return ret
}
