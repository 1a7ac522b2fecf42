package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/tagcast/internal/catalog"
	"github.com/jdholdren/tagcast/internal/enrich"
	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/migrations"
	"github.com/jdholdren/tagcast/internal/podcast"
	"github.com/jdholdren/tagcast/internal/remap"
	"github.com/jdholdren/tagcast/internal/sqlite"
)

func newRepo(t *testing.T) sqlite.Repo {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "tagcast.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))

	return sqlite.New(db)
}

type enricherFunc func(ctx context.Context, e podcast.Episode) enrich.Result

func (f enricherFunc) Enrich(ctx context.Context, e podcast.Episode) enrich.Result { return f(ctx, e) }

// Pretends every episode without keywords mentions #history.
var fakeEnricher = enricherFunc(func(_ context.Context, e podcast.Episode) enrich.Result {
	return enrich.Result{Tags: []string{"History"}, Strategy: "hashtags", Source: "description"}
})

const feedURL = "https://example.com/feed.xml"

func testPodcast() podcast.Podcast {
	author := "Jane Doe"
	return podcast.Podcast{
		FeedURL:     feedURL,
		Title:       "The Köln Show!",
		Link:        "https://example.com",
		Author:      &author,
		Categories:  []string{"History", "Society & Culture"},
		ContentHash: "feed-v1",
		Episodes: []podcast.Episode{
			{GUID: "ep-3", Title: "Three", EpisodeNumber: 3, Season: 1, Tags: []string{"Rome", "js"}, ContentHash: "h3"},
			{GUID: "ep-2", Title: "Two", EpisodeNumber: podcast.NotProvided, Season: podcast.NotProvided, ContentHash: "h2"},
			{GUID: "ep-1", Title: "One", EpisodeNumber: podcast.NotProvided, Season: podcast.NotProvided, Tags: []string{"spam"}, ContentHash: "h1"},
		},
	}
}

var testRules = remap.Rules{
	{Tag: "js", Replace: "JavaScript"},
	{Tag: "spam", Replace: ""},
}

func TestSynchronize(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	engine := NewEngine(repo, fakeEnricher, testRules)

	report, err := engine.Synchronize(ctx, testPodcast(), podcast.Overrides{Color: []int{10, 20, 30}}, map[string]bool{feedURL: true})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Zero(t, report.Replaced)
	assert.Equal(t, 3, report.Assigned)
	assert.Equal(t, map[string]string{"ep-2": "hashtags"}, report.Enriched)

	stored, err := repo.PodcastByFeed(ctx, feedURL)
	require.NoError(t, err)
	assert.Equal(t, report.PodcastID, stored.ID)
	assert.Equal(t, "the-koln-show", stored.Slug)
	assert.Equal(t, "10,20,30", stored.Color)
	assert.Equal(t, "199,199,199", stored.ColorContrast)
	assert.Equal(t, "Jane Doe", stored.Authors)
	assert.Equal(t, "History, Society & Culture", stored.Categories)
	assert.Equal(t, "feed-v1", stored.Hash)

	eps, err := repo.Episodes(ctx, sqlite.EpisodeFilter{PodcastID: stored.ID, Order: "asc"})
	require.NoError(t, err)
	numbers := map[string]int{}
	for _, e := range eps {
		numbers[e.GUID] = e.Number
	}
	assert.Equal(t, map[string]int{"ep-3": 3, "ep-2": 1, "ep-1": 0}, numbers)

	tags, err := repo.EpisodeTags(ctx, "ep-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"JavaScript", "Rome"}, tags)

	tags, err = repo.EpisodeTags(ctx, "ep-1")
	require.NoError(t, err)
	assert.Empty(t, tags, "remapped to nothing")
}

func TestSynchronizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	engine := NewEngine(repo, fakeEnricher, testRules)

	_, err := engine.Synchronize(ctx, testPodcast(), podcast.Overrides{}, nil)
	require.NoError(t, err)
	before, err := repo.MostCommonTags(ctx, 0)
	require.NoError(t, err)

	report, err := engine.Synchronize(ctx, testPodcast(), podcast.Overrides{}, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Replaced)
	assert.Zero(t, report.Created)
	assert.Equal(t, 3, report.Skipped)

	after, err := repo.MostCommonTags(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// A changed item is replaced along with its tags.
	p := testPodcast()
	p.Episodes[0].ContentHash = "h3-edited"
	p.Episodes[0].Tags = []string{"Carthage"}
	report, err = engine.Synchronize(ctx, p, podcast.Overrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replaced)
	assert.Equal(t, 2, report.Skipped)

	tags, err := repo.EpisodeTags(ctx, "ep-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carthage"}, tags)
}

func TestSynchronizeDuplicateGUIDs(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	engine := NewEngine(repo, nil, nil)

	p := testPodcast()
	dup := p.Episodes[0]
	dup.Title = "Three, reposted"
	dup.ContentHash = "h3-repost"
	p.Episodes = append(p.Episodes, dup)

	report, err := engine.Synchronize(ctx, p, podcast.Overrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)
	assert.Zero(t, report.Replaced)

	// Without dropping the repeat, every run would flip the stored row
	// between the two items.
	report, err = engine.Synchronize(ctx, p, podcast.Overrides{}, nil)
	require.NoError(t, err)
	assert.Zero(t, report.Replaced)
	assert.Equal(t, 3, report.Skipped)

	eps, err := repo.Episodes(ctx, sqlite.EpisodeFilter{PodcastID: report.PodcastID, Order: "asc"})
	require.NoError(t, err)
	numbers := map[string]int{}
	for _, e := range eps {
		if e.GUID == "ep-3" {
			assert.Equal(t, "Three", e.Name)
		}
		numbers[e.GUID] = e.Number
	}
	assert.Equal(t, map[string]int{"ep-3": 3, "ep-2": 1, "ep-1": 0}, numbers)
}

func TestSynchronizeKeepsTagSpelling(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	engine := NewEngine(repo, nil, testRules)

	p := testPodcast()
	p.Episodes[0].Tags = []string{"NASA", "js", "space travel"}
	_, err := engine.Synchronize(ctx, p, podcast.Overrides{}, nil)
	require.NoError(t, err)

	tags, err := repo.EpisodeTags(ctx, "ep-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"JavaScript", "NASA", "Space Travel"}, tags)
}

func TestStoredNumbersMatchEpisodeLookup(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	p := testPodcast()

	report, err := NewEngine(repo, nil, nil).Synchronize(ctx, p, podcast.Overrides{}, nil)
	require.NoError(t, err)

	eps, err := repo.Episodes(ctx, sqlite.EpisodeFilter{PodcastID: report.PodcastID, Order: "asc"})
	require.NoError(t, err)
	for _, stored := range eps {
		found, ok := podcast.EpisodeByNumber(p.Episodes, stored.Number)
		require.True(t, ok, stored.GUID)
		assert.Equal(t, stored.GUID, found.GUID)
	}
}

func TestSynchronizeUntracked(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	engine := NewEngine(repo, nil, nil)

	_, err := engine.Synchronize(ctx, testPodcast(), podcast.Overrides{}, map[string]bool{"https://other.example.com/feed": true})
	assert.True(t, tcerrs.Is(err, tcerrs.NoTrackedPodcastFound))

	_, err = engine.SyncEpisodes(ctx, testPodcast())
	assert.True(t, tcerrs.Is(err, tcerrs.NoTrackedPodcastFound))

	all, err := repo.Podcasts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// failingStore fails to save one episode.
type failingStore struct {
	sqlite.Repo
	guid string
}

func (s failingStore) SaveEpisode(ctx context.Context, e sqlite.Episode, tags []string) (int, error) {
	if e.GUID == s.guid {
		return 0, tcerrs.E(tcerrs.StorageWriteFailed, errors.New("disk full"))
	}

	return s.Repo.SaveEpisode(ctx, e, tags)
}

func TestSynchronizeStorageFailure(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	engine := NewEngine(failingStore{Repo: repo, guid: "ep-2"}, nil, nil)
	report, err := engine.Synchronize(ctx, testPodcast(), podcast.Overrides{}, nil)
	require.Error(t, err)
	assert.True(t, tcerrs.Is(err, tcerrs.StorageWriteFailed))
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Failed)

	stored, err := repo.PodcastByFeed(ctx, feedURL)
	require.NoError(t, err)
	assert.Empty(t, stored.Hash, "a partial sync does not record the feed hash")

	// The next run picks up exactly the episode that failed.
	report, err = NewEngine(repo, nil, nil).Synchronize(ctx, testPodcast(), podcast.Overrides{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Skipped)
}

func TestPodcastRow(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := podcast.Podcast{FeedURL: feedURL, Title: "", Link: "https://example.com"}

	row := podcastRow(p, podcast.Overrides{}, now)
	assert.Equal(t, "n-a", row.Slug)
	assert.Equal(t, "0,0,0", row.Color)
	assert.Equal(t, "https://example.com", row.Website)
	assert.Equal(t, &now, row.LastUpdate)

	row = podcastRow(p, podcast.Overrides{
		Name:          "Renamed",
		Website:       "https://elsewhere.example.com",
		Slug:          "custom",
		ColorContrast: []int{1, 2},
	}, now)
	assert.Equal(t, "Renamed", row.Title)
	assert.Equal(t, "custom", row.Slug)
	assert.Equal(t, "https://elsewhere.example.com", row.Website)
	assert.Equal(t, "199,199,199", row.ColorContrast, "only full triples override")
}

const feedDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>%s</title>
    <link>https://example.com</link>
    <description>A show</description>
    <item>
      <title>First</title>
      <guid>%s-1</guid>
      <description>About #rome</description>
      <itunes:keywords>rome, history</itunes:keywords>
    </item>
  </channel>
</rss>`

type feedSource map[string]string

func (f feedSource) Get(_ context.Context, url string, _ bool) ([]byte, error) {
	doc, ok := f[url]
	if !ok {
		return nil, tcerrs.E(tcerrs.FetchFailed, "404 Not Found")
	}

	return []byte(doc), nil
}

func TestRunner(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	// A podcast the catalog no longer lists.
	_, err := NewEngine(repo, nil, nil).Synchronize(ctx, testPodcast(), podcast.Overrides{}, nil)
	require.NoError(t, err)

	feeds := feedSource{
		"https://a.example.com/feed.xml": fmt.Sprintf(feedDoc, "A", "a"),
		"https://b.example.com/feed.xml": fmt.Sprintf(feedDoc, "B", "b"),
		"https://c.example.com/feed.xml": "<html>not a feed</html>",
	}
	cat := catalog.Catalog{Podcasts: []catalog.Entry{
		{Feed: "https://a.example.com/feed.xml", Overrides: podcast.Overrides{Shortname: "a"}},
		{Feed: "https://b.example.com/feed.xml"},
		{Feed: "https://c.example.com/feed.xml"},
		{Feed: "https://gone.example.com/feed.xml"},
	}}

	runner := NewRunner(NewEngine(repo, nil, nil), repo, feeds,
		WithParallelism(2),
		WithRetries(1, time.Millisecond),
		WithLockFile(filepath.Join(t.TempDir(), "sync.lock")),
	)
	report, err := runner.Run(ctx, cat, false)
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, StatusSynced, report.Outcomes[0].Status)
	assert.Equal(t, StatusSynced, report.Outcomes[1].Status)
	assert.Equal(t, StatusFailed, report.Outcomes[2].Status)
	assert.True(t, tcerrs.Is(report.Outcomes[2].Err, tcerrs.InvalidFeed))
	assert.True(t, tcerrs.Is(report.Outcomes[3].Err, tcerrs.FetchFailed))
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, int64(1), report.Cleanup.Podcasts)
	assert.Equal(t, int64(3), report.Cleanup.Episodes)

	stored, err := repo.PodcastByFeed(ctx, "https://a.example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Shortname)
	tags, err := repo.EpisodeTags(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"History", "Rome"}, tags)

	report, err = runner.Run(ctx, cat, false)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, report.Outcomes[0].Status)

	report, err = runner.Run(ctx, cat, true)
	require.NoError(t, err)
	assert.Equal(t, StatusSynced, report.Outcomes[0].Status)
	assert.Equal(t, 1, report.Outcomes[0].Report.Skipped)
}

func TestRunnerHoldsLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "sync.lock")
	held := flock.New(lockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer held.Unlock()

	repo := newRepo(t)
	runner := NewRunner(NewEngine(repo, nil, nil), repo, feedSource{}, WithLockFile(lockPath))
	_, err = runner.Run(context.Background(), catalog.Catalog{}, false)
	assert.ErrorContains(t, err, "already running")
}
