// Package podcast holds the parsed podcast model and the read-side
// helpers that work on it.
package podcast

import (
	"strings"
	"time"
)

// NotProvided marks an episode or season number the feed did not carry.
const NotProvided = -1

type (
	// Podcast is one feed's channel-level metadata plus its episodes in feed
	// order (newest first by convention).
	//
	// Pointer fields are nil when the namespace they live in was not declared
	// by the feed or the element was missing.
	Podcast struct {
		FeedURL     string
		Title       string
		Description string
		Link        string
		Language    string
		Copyright   string
		Generator   string
		CoverURL    string
		Categories  []string

		Author     *string
		Summary    *string
		Subtitle   *string
		Type       *string
		NewFeedURL *string
		Explicit   *string
		Complete   *string
		Block      *string
		OwnerName  *string
		OwnerEmail *string
		Locked     *string
		Funding    *string

		PubDate        *time.Time
		LastBuildDate  *time.Time
		StylesheetHref *string

		// md5 of the raw feed bytes.
		ContentHash string

		Episodes []Episode
	}

	Episode struct {
		GUID        string
		Title       string
		Description string
		Link        string
		CoverURL    string
		Enclosure   Enclosure

		Subtitle    *string
		Summary     *string
		Author      *string
		Explicit    *string
		Block       *string
		EpisodeType *string
		Shownotes   *string

		DurationSeconds int
		PubDate         *time.Time
		EpisodeNumber   int
		Season          int

		Chapters []Chapter
		Tags     []string

		// md5 of the raw <item> fragment.
		ContentHash string
	}

	Enclosure struct {
		URL      string
		Length   int64
		MimeType string
	}

	// Chapter is a timestamped marker within an episode. Start is kept as
	// the feed wrote it ("00:01:30.000").
	Chapter struct {
		Start string `json:"start"`
		Title string `json:"title"`
		Href  string `json:"href,omitempty"`
		Image string `json:"image,omitempty"`
	}

	// Overrides are operator-supplied values that win over what the feed says
	// when the podcast row is written.
	Overrides struct {
		Name                 string `toml:"name"`
		Author               string `toml:"author"`
		Contact              string `toml:"contact"`
		Website              string `toml:"website"`
		Slug                 string `toml:"slug"`
		Shortname            string `toml:"shortname"`
		Color                []int  `toml:"color"`
		ColorContrast        []int  `toml:"colorcontrast"`
		FullEpisodesOnly     bool   `toml:"fullepisodesonly"`
		StripFromDescription string `toml:"stripfromdescription"`
		StripFromShownotes   string `toml:"stripfromshownotes"`
		StripEpisodeNumbers  string `toml:"stripepisodenumbers"`
	}
)

// Str returns the value behind p, or "" for nil.
func Str(p *string) string {
	if p == nil {
		return ""
	}

	return *p
}

// HasNumber reports whether the feed supplied an episode number.
func (e Episode) HasNumber() bool {
	return e.EpisodeNumber != NotProvided
}

func (e Episode) HasSeason() bool {
	return e.Season != NotProvided
}

// PrimaryCategory is the first category, optionally translated to German.
func (p Podcast) PrimaryCategory(translated bool) string {
	if len(p.Categories) == 0 {
		return ""
	}
	if translated {
		return TranslateCategory(p.Categories[0], true)
	}

	return p.Categories[0]
}

// EffectivePubDate is the channel's pubDate, falling back to the newest
// episode's.
func (p Podcast) EffectivePubDate() *time.Time {
	if p.PubDate != nil {
		return p.PubDate
	}
	if len(p.Episodes) > 0 {
		return p.Episodes[0].PubDate
	}

	return nil
}

// DisplayTitle is the title without double quotes, which break the
// places the title gets embedded into.
func (p Podcast) DisplayTitle() string {
	return strings.ReplaceAll(p.Title, `"`, "")
}
