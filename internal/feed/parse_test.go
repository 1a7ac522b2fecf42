package feed

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/jdholdren/tagcast/internal/duration"
	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/podcast"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func TestParseChannel(t *testing.T) {
	p, err := Parse(context.Background(), readFixture(t, "full.xml"))
	require.NoError(t, err)

	assert.Equal(t, "Kernel Panic Radio", p.Title)
	assert.Equal(t, "https://kernelpanic.example.com", p.Link)
	assert.Equal(t, "Weekly talk about operating systems & the people who build them.", p.Description)
	assert.Equal(t, "de-DE", p.Language)
	assert.Equal(t, "CC BY 4.0", p.Copyright)
	assert.Equal(t, "Podlove Podcast Publisher v4.0", p.Generator)

	assert.Equal(t, "Ada Example", podcast.Str(p.Author))
	assert.Equal(t, "episodic", podcast.Str(p.Type))
	assert.Equal(t, "Operating systems talk", podcast.Str(p.Subtitle))
	assert.Equal(t, "Operating systems, explained slowly.", podcast.Str(p.Summary))
	assert.Equal(t, "false", podcast.Str(p.Explicit))
	assert.Equal(t, "Ada Example", podcast.Str(p.OwnerName))
	assert.Equal(t, "ada@example.com", podcast.Str(p.OwnerEmail))
	assert.Equal(t, "yes", podcast.Str(p.Locked))
	assert.Equal(t, "Support the show", podcast.Str(p.Funding))
	assert.Nil(t, p.NewFeedURL)
	assert.Nil(t, p.Complete)

	assert.Equal(t, []string{"Technology", "Education"}, p.Categories)
	assert.Equal(t, "Technology", p.PrimaryCategory(false))
	assert.Contains(t, p.CoverURL, "http")
	assert.Equal(t, "https://kernelpanic.example.com/cover.jpg", p.CoverURL)

	require.NotNil(t, p.StylesheetHref)
	assert.Equal(t, "https://example.com/feed.xsl", *p.StylesheetHref)

	require.NotNil(t, p.PubDate)
	assert.Equal(t, 2024, p.PubDate.Year())
	assert.NotNil(t, p.LastBuildDate)

	assert.Len(t, p.ContentHash, 32)
}

func TestParseEpisodes(t *testing.T) {
	p, err := Parse(context.Background(), readFixture(t, "full.xml"))
	require.NoError(t, err)

	// The item without any identity is dropped, the rest keep their order.
	require.Len(t, p.Episodes, 3)
	for _, e := range p.Episodes {
		assert.NotEmpty(t, e.GUID)
		assert.GreaterOrEqual(t, e.DurationSeconds, 0)
		secs, err := duration.Parse(duration.ShortString(e.DurationSeconds))
		require.NoError(t, err)
		assert.Equal(t, e.DurationSeconds, secs)
		assert.Len(t, e.ContentHash, 32)
	}

	first := p.Episodes[0]
	assert.Equal(t, "kpr-003", first.GUID)
	assert.Equal(t, "KPR003 Schedulers", first.Title)
	assert.Equal(t, 3723, first.DurationSeconds)
	assert.Equal(t, 3, first.EpisodeNumber)
	assert.Equal(t, 1, first.Season)
	assert.Equal(t, "full", podcast.Str(first.EpisodeType))
	assert.Equal(t, "Who runs next", podcast.Str(first.Subtitle))
	assert.Equal(t, []string{"Linux", "Scheduling", "Cfs"}, first.Tags)
	assert.Equal(t, "https://kernelpanic.example.com/kpr003.jpg", first.CoverURL)
	assert.Equal(t, podcast.Enclosure{
		URL:      "https://cdn.example.com/kpr003.mp3",
		Length:   48213500,
		MimeType: "audio/mpeg",
	}, first.Enclosure)
	require.NotNil(t, first.Shownotes)
	assert.Contains(t, *first.Shownotes, "<b>schedulers</b>")
	require.NotNil(t, first.PubDate)

	require.Greater(t, len(first.Chapters), 1)
	assert.Equal(t, []podcast.Chapter{
		{Start: "00:00:00.000", Title: "Intro"},
		{Start: "00:05:30.000", Title: "Round Robin", Href: "https://en.wikipedia.org/wiki/Round-robin_scheduling"},
		{Start: "00:40:00.000", Title: "CFS", Image: "https://kernelpanic.example.com/cfs.png"},
	}, first.Chapters)

	second := p.Episodes[1]
	assert.Equal(t, "https://cdn.example.com/kpr002.mp3", second.GUID, "guid falls back to the enclosure")
	assert.Equal(t, 1834, second.DurationSeconds)
	assert.Equal(t, int64(0), second.Enclosure.Length)
	assert.Equal(t, "https://kernelpanic.example.com/kpr002.png", second.CoverURL)
	assert.Equal(t, podcast.NotProvided, second.EpisodeNumber)
	assert.Equal(t, podcast.NotProvided, second.Season)
	assert.Empty(t, second.Tags)
	assert.Empty(t, second.Chapters)
	assert.Nil(t, second.Shownotes)

	third := p.Episodes[2]
	assert.Equal(t, "kpr-001", third.GUID)
	assert.Equal(t, 0, third.DurationSeconds, "unparsable duration becomes zero")
	assert.Nil(t, third.PubDate)
}

func TestParseHashStability(t *testing.T) {
	raw := readFixture(t, "full.xml")

	a, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	b, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, a.ContentHash, b.ContentHash)
	for i := range a.Episodes {
		assert.Equal(t, a.Episodes[i].ContentHash, b.Episodes[i].ContentHash)
	}

	// Touching one item changes the feed hash and only that item's hash.
	changed := []byte(strings.Replace(string(raw), "Pages, frames and the TLB.", "Pages and frames.", 1))
	c, err := Parse(context.Background(), changed)
	require.NoError(t, err)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
	assert.Equal(t, a.Episodes[0].ContentHash, c.Episodes[0].ContentHash)
	assert.NotEqual(t, a.Episodes[1].ContentHash, c.Episodes[1].ContentHash)
	assert.Equal(t, a.Episodes[2].ContentHash, c.Episodes[2].ContentHash)
}

func TestParseInvalidFeed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", " \n\t "},
		{"not xml", "this is not a feed"},
		{"html without declaration", "<html><body>hello</body></html>"},
		{"no items", `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`},
		{"no channel", `<?xml version="1.0"?><rss version="2.0"><item><guid>1</guid></item></rss>`},
		{"truncated", `<?xml version="1.0"?><rss version="2.0"><channel><item><guid>1</guid></item>`},
		{"no identifiable item", `<?xml version="1.0"?><rss version="2.0"><channel><item><title>x</title></item></channel></rss>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.raw))
			require.Error(t, err)
			assert.True(t, tcerrs.Is(err, tcerrs.InvalidFeed), err.Error())
		})
	}
}

func TestParseNamespaceGating(t *testing.T) {
	raw := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Undeclared</title>
    <itunes:author>Nobody</itunes:author>
    <item>
      <guid>ep-1</guid>
      <itunes:subtitle>hidden</itunes:subtitle>
      <itunes:keywords>a, b</itunes:keywords>
      <content:encoded>hidden too</content:encoded>
      <psc:chapters><psc:chapter start="0" title="x"/><psc:chapter start="1" title="y"/></psc:chapters>
    </item>
  </channel>
</rss>`

	p, err := Parse(context.Background(), []byte(raw))
	require.NoError(t, err)
	assert.Nil(t, p.Author)
	assert.Empty(t, p.Categories)

	require.Len(t, p.Episodes, 1)
	e := p.Episodes[0]
	assert.Nil(t, e.Subtitle)
	assert.Nil(t, e.Shownotes)
	assert.Empty(t, e.Tags)
	assert.Empty(t, e.Chapters)
	assert.Equal(t, podcast.NotProvided, e.EpisodeNumber)
}

func TestParseWindows1252(t *testing.T) {
	raw := []byte("<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n" +
		"<rss version=\"2.0\"><channel><title>B\xe4renpodcast</title>" +
		"<item><guid>1</guid><title>Gr\xfc\xdfe \x80</title></item></channel></rss>")

	p, err := Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "Bärenpodcast", p.Title)
	require.Len(t, p.Episodes, 1)
	assert.Equal(t, "Grüße €", p.Episodes[0].Title)
}

func TestParseUTF16WithBOM(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-16"?>` + "\n" +
		`<rss version="2.0"><channel><title>Bärenpodcast</title>` +
		`<item><guid>1</guid><title>Grüße €</title></item></channel></rss>`

	for name, order := range map[string]unicode.Endianness{
		"little endian": unicode.LittleEndian,
		"big endian":    unicode.BigEndian,
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := unicode.UTF16(order, unicode.UseBOM).NewEncoder().Bytes([]byte(doc))
			require.NoError(t, err)

			p, err := Parse(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, "Bärenpodcast", p.Title)
			require.Len(t, p.Episodes, 1)
			assert.Equal(t, "Grüße €", p.Episodes[0].Title)
		})
	}
}

func TestToUTF8RewritesDeclaration(t *testing.T) {
	doc, err := toUTF8([]byte("\xef\xbb\xbf  <?xml version='1.0' encoding='ISO-8859-1'?><rss/>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), "<?xml version='1.0' encoding='UTF-8'?>"), string(doc))
}

func TestStylesheetHref(t *testing.T) {
	assert.Nil(t, stylesheetHref([]byte(`<?xml version="1.0"?><rss/>`)))

	href := stylesheetHref([]byte(`<?xml version="1.0"?>` + "\n" + `<?xml-stylesheet href='/style.xsl' type="text/xsl"?>`))
	require.NotNil(t, href)
	assert.Equal(t, "/style.xsl", *href)
}
