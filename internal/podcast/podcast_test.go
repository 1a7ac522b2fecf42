package podcast

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func day(s string) *time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func fixtureEpisodes() []Episode {
	return []Episode{
		{
			GUID: "c", Title: "Third: The Finale", DurationSeconds: 300, EpisodeNumber: 3, Season: 2,
			PubDate: day("2024-03-15"), Tags: []string{"Go", "Databases"}, EpisodeType: sp("full"),
		},
		{
			GUID: "b", Title: "second", DurationSeconds: 100, EpisodeNumber: NotProvided, Season: NotProvided,
			PubDate: day("2024-03-08"), Tags: []string{"go", "Testing"}, EpisodeType: sp("bonus"),
		},
		{
			GUID: "a", Title: "First Steps", DurationSeconds: 200, EpisodeNumber: 1, Season: 1,
			PubDate: day("2024-03-01"), EpisodeType: sp("trailer"),
		},
	}
}

func TestIsMatch(t *testing.T) {
	e := fixtureEpisodes()[0]

	assert.True(t, IsMatch(e, MatchString, "title", "Third: The Finale"))
	assert.False(t, IsMatch(e, MatchString, "title", "third: the finale"))
	assert.True(t, IsMatch(e, MatchStringCaseInsensitive, "title", "third: the finale"))

	assert.True(t, IsMatch(e, MatchRegex, "title", `^Third`))
	assert.True(t, IsMatch(e, MatchRegex, "title", `/^third/i`))
	assert.False(t, IsMatch(e, MatchRegex, "title", `/^third/`))
	assert.True(t, IsMatch(e, MatchRegex, "tags", `^Data`))

	assert.True(t, IsMatch(e, MatchContainsCaseSensitive, "tags", "Go"))
	assert.False(t, IsMatch(e, MatchContainsCaseSensitive, "tags", "go"))
	assert.True(t, IsMatch(e, MatchContains, "tags", "go"))
	assert.True(t, IsMatch(e, MatchContains, "title", "finale"))

	assert.True(t, IsMatch(e, MatchInteger, "episode", "3"))
	assert.True(t, IsMatch(e, MatchInt, "season", " 2 "))
	assert.False(t, IsMatch(e, MatchInteger, "episode", "three"))

	// Unset values and unknown inputs never match.
	assert.False(t, IsMatch(e, MatchString, "subtitle", ""))
	assert.False(t, IsMatch(e, MatchString, "nonexistent", ""))
	assert.False(t, IsMatch(e, "fuzzy", "title", "Third: The Finale"))
	assert.False(t, IsMatch(e, MatchRegex, "title", `([`))
}

func TestFilterEpisodesPositionalNumber(t *testing.T) {
	eps := fixtureEpisodes()

	// "b" has no number and is the second oldest, so it stands for 1.
	got := FilterEpisodes(eps, MatchInteger, "episode", "1")
	assert.Equal(t, "b,a", guids(got))

	assert.Empty(t, FilterEpisodes(eps, MatchInteger, "episode", "2"))

	got = FilterEpisodes(eps, MatchInteger, "episode", "3")
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].GUID)

	assert.Empty(t, FilterEpisodes(eps, MatchString, "title", "missing"))
}

func TestEpisodeLookups(t *testing.T) {
	eps := fixtureEpisodes()

	e, ok := EpisodeByGUID(eps, "a")
	require.True(t, ok)
	assert.Equal(t, "First Steps", e.Title)

	_, ok = EpisodeByGUID(eps, "zzz")
	assert.False(t, ok)

	e, ok = EpisodeByNumber(eps, 3)
	require.True(t, ok)
	assert.Equal(t, "c", e.GUID)

	e, ok = EpisodeByNumber(eps, 1)
	require.True(t, ok)
	assert.Equal(t, "b", e.GUID, "the positional number comes first in feed order")

	e, ok = LatestEpisode(eps)
	require.True(t, ok)
	assert.Equal(t, "c", e.GUID)

	_, ok = LatestEpisode(nil)
	assert.False(t, ok)

	assert.Equal(t, 600, TotalDuration(eps))
}

func guids(eps []Episode) string {
	ret := make([]string, 0, len(eps))
	for _, e := range eps {
		ret = append(ret, e.GUID)
	}
	return strings.Join(ret, ",")
}

func TestPositionalNumber(t *testing.T) {
	assert.Equal(t, 2, PositionalNumber(0, 3))
	assert.Equal(t, 0, PositionalNumber(2, 3))
}

func TestSortEpisodes(t *testing.T) {
	eps := fixtureEpisodes()

	tests := []struct {
		spec string
		want string
	}{
		{"", "c,b,a"},
		{"pubdate asc", "a,b,c"},
		{"date", "c,b,a"},
		{"title asc", "a,b,c"},
		{"duration", "c,a,b"},
		{"runtime asc", "b,a,c"},
		{"type asc", "b,c,a"},
		{"season_episode asc", "b,a,c"},
		{"bogus asc", "a,b,c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, guids(SortEpisodes(eps, tt.spec)), tt.spec)
	}

	// Input order is untouched.
	assert.Equal(t, "c,b,a", guids(eps))
}

func TestTags(t *testing.T) {
	eps := fixtureEpisodes()

	assert.Equal(t, []string{"Databases", "Go", "Go", "Testing"}, Tags(eps, false))
	assert.Equal(t, []string{"Databases", "Go", "Testing"}, Tags(eps, true))
	assert.Equal(t, "Rock And Roll", NormalizeTag("  rock and roll "))
	assert.Equal(t, "NASA", NormalizeTag("NASA"))
	assert.Equal(t, "JavaScript", NormalizeTag("JavaScript"))
	assert.Equal(t, "ROCK And ROLL", NormalizeTag("rOCK and ROLL"))
}

func TestMostCommonTags(t *testing.T) {
	eps := fixtureEpisodes()

	all := MostCommonTags(eps, -1)
	require.Len(t, all, 3)
	assert.Equal(t, TagCount{Tag: "Go", Count: 2}, all[0])
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Count, all[i].Count)
	}

	assert.Len(t, MostCommonTags(eps, 1), 1)
	assert.Empty(t, MostCommonTags(eps, 0))
}

func TestIntelligentContent(t *testing.T) {
	e := Episode{
		Subtitle:    sp("Short one"),
		Summary:     sp("A somewhat longer summary &amp; more"),
		Description: "<div><p>The description is the longest of the plain pieces here.</p></div>",
		Shownotes:   sp("<div><p>Shownotes</p>\n\n\n<p>with lots of markup and paragraphs that go on and on</p></div>"),
	}

	s := e.IntelligentContent("s")
	l := e.IntelligentContent("l")
	assert.Equal(t, "Short one", s)
	assert.LessOrEqual(t, len(s), len(l))
	assert.NotContains(t, s, "<div>")
	assert.NotContains(t, l, "<p>")
	assert.NotContains(t, l, "\n\n")
	assert.Equal(t, "A somewhat longer summary & more", e.IntelligentContent("md"))

	assert.Equal(t, "", Episode{}.IntelligentContent("s"))

	p := Podcast{Description: "<b>Only</b> description"}
	assert.Equal(t, "Only description", p.IntelligentContent("s"))
	assert.Equal(t, "Only description", p.IntelligentContent("m"))
}

func TestCategories(t *testing.T) {
	en := PossibleCategoryNames("EN")
	de := PossibleCategoryNames("de")
	require.Len(t, de, len(en))
	assert.Nil(t, PossibleCategoryNames("fr"))

	assert.Equal(t, "Wahre Kriminalfälle", TranslateCategory("true crime", true))
	assert.Equal(t, "Technology", TranslateCategory("Technologie", false))
	assert.Equal(t, "Unknown Thing", TranslateCategory("Unknown Thing", true))

	p := Podcast{Categories: []string{"Society & Culture", "History"}}
	assert.Equal(t, "Society & Culture", p.PrimaryCategory(false))
	assert.Equal(t, "Gesellschaft und Kultur", p.PrimaryCategory(true))
	assert.Equal(t, "", Podcast{}.PrimaryCategory(true))
}

func TestPublishingFrequency(t *testing.T) {
	eps := fixtureEpisodes()
	// Same day as "c" must not produce a zero gap.
	eps = append(eps, Episode{GUID: "d", PubDate: day("2024-03-15")})

	f, ok := PublishingFrequency(eps)
	require.True(t, ok)
	assert.Equal(t, 2, f.Samples)
	assert.Equal(t, 7*24*time.Hour, f.Median)
	assert.InDelta(t, 7.0, f.MeanDays(), 0.001)

	_, ok = PublishingFrequency(eps[:1])
	assert.False(t, ok)
}

func TestEffectivePubDate(t *testing.T) {
	p := Podcast{Episodes: fixtureEpisodes()}
	assert.Equal(t, day("2024-03-15"), p.EffectivePubDate())

	p.PubDate = day("2024-04-01")
	assert.Equal(t, day("2024-04-01"), p.EffectivePubDate())

	assert.Nil(t, Podcast{}.EffectivePubDate())
	assert.Equal(t, "Say Hi", Podcast{Title: `Say "Hi"`}.DisplayTitle())
}
