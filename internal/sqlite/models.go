package sqlite

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdholdren/tagcast/internal/podcast"
)

type (
	// Podcast is a stored podcast row.
	Podcast struct {
		ID                   int64      `db:"id" json:"id"`
		Feed                 string     `db:"feed" json:"feed"`
		Title                string     `db:"title" json:"title"`
		Authors              string     `db:"authors" json:"authors"`
		Contact              string     `db:"contact" json:"contact"`
		Categories           string     `db:"categories" json:"categories"`
		Website              string     `db:"website" json:"website"`
		Cover                string     `db:"cover" json:"cover"`
		LastUpdate           *time.Time `db:"last_update" json:"last_update"`
		Hash                 string     `db:"hash" json:"hash"`
		Description          string     `db:"description" json:"description"`
		Summary              string     `db:"summary" json:"summary"`
		Slug                 string     `db:"slug" json:"slug"`
		Shortname            string     `db:"shortname" json:"shortname"`
		Color                string     `db:"color" json:"color"`
		ColorContrast        string     `db:"colorcontrast" json:"colorcontrast"`
		FullEpisodesOnly     bool       `db:"fullepisodesonly" json:"fullepisodesonly"`
		StripFromDescription string     `db:"stripfromdescription" json:"stripfromdescription"`
		StripFromShownotes   string     `db:"stripfromshownotes" json:"stripfromshownotes"`
		StripEpisodeNumbers  string     `db:"stripepisodenumbers" json:"stripepisodenumbers"`
	}

	// Episode is a stored episode row, keyed by (PodcastID, GUID).
	Episode struct {
		ID          int64      `db:"id" json:"id"`
		PodcastID   int64      `db:"podcastid" json:"podcast_id"`
		GUID        string     `db:"guid" json:"guid"`
		Name        string     `db:"name" json:"name"`
		Season      int        `db:"season" json:"season"`
		Number      int        `db:"number" json:"number"`
		Link        string     `db:"link" json:"link"`
		MediaFile   string     `db:"mediafile" json:"mediafile"`
		Cover       string     `db:"cover" json:"cover"`
		Type        string     `db:"type" json:"type"`
		PubDate     *time.Time `db:"pubdate" json:"pubdate"`
		Hash        string     `db:"hash" json:"hash"`
		Chapters    Chapters   `db:"chapters" json:"chapters"`
		Subtitle    string     `db:"subtitle" json:"subtitle"`
		Description string     `db:"description" json:"description"`
		Summary     string     `db:"summary" json:"summary"`
		Shownotes   string     `db:"shownotes" json:"shownotes"`
		Duration    int        `db:"duration" json:"duration"`
		LastUpdated *time.Time `db:"last_updated" json:"last_updated"`
	}

	// TagUsage is a vocabulary entry with the number of episodes carrying it.
	TagUsage struct {
		ID    int64  `db:"id" json:"id"`
		Tag   string `db:"tag" json:"tag"`
		Usage int    `db:"usage" json:"usage"`
	}

	// EpisodeFilter narrows Episodes. Zero values mean "no restriction".
	EpisodeFilter struct {
		PodcastID int64
		Tag       string
		Limit     uint64
		Offset    uint64
		// "asc" or "desc" (default) by publication date.
		Order string
	}

	CleanupReport struct {
		Podcasts    int64 `json:"podcasts"`
		Episodes    int64 `json:"episodes"`
		Assignments int64 `json:"assignments"`
		Tags        int64 `json:"tags"`
	}
)

// Chapters is stored as a JSON array.
type Chapters []podcast.Chapter

func (c Chapters) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]podcast.Chapter(c))
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

func (c *Chapters) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*c = Chapters{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported chapters value %T", src)
	}
	if len(b) == 0 {
		*c = Chapters{}
		return nil
	}

	var chapters []podcast.Chapter
	if err := json.Unmarshal(b, &chapters); err != nil {
		return fmt.Errorf("error decoding chapters: %w", err)
	}
	*c = chapters

	return nil
}
