package podcast

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w]`)

// SortEpisodes returns a sorted copy of episodes. spec is "key [asc|desc]";
// unknown keys sort by pubdate and the direction defaults to descending.
func SortEpisodes(episodes []Episode, spec string) []Episode {
	key, desc := parseSortSpec(spec)

	var compare func(a, b Episode) int
	switch key {
	case "title":
		compare = func(a, b Episode) int {
			return strings.Compare(titleSortKey(a.Title), titleSortKey(b.Title))
		}
	case "duration", "length", "seconds", "runtime":
		compare = func(a, b Episode) int {
			return cmp.Compare(a.DurationSeconds, b.DurationSeconds)
		}
	case "type", "episodetype", "episode_type":
		compare = func(a, b Episode) int {
			return strings.Compare(Str(a.EpisodeType), Str(b.EpisodeType))
		}
	case "season", "episode", "episodenumber", "season_episode":
		compare = func(a, b Episode) int {
			return cmp.Compare(seasonEpisodeKey(a), seasonEpisodeKey(b))
		}
	default:
		compare = func(a, b Episode) int {
			return cmp.Compare(unixOrZero(a), unixOrZero(b))
		}
	}

	sorted := slices.Clone(episodes)
	slices.SortStableFunc(sorted, func(a, b Episode) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})

	return sorted
}

func parseSortSpec(spec string) (string, bool) {
	fields := strings.Fields(strings.ToLower(spec))
	key, desc := "pubdate", true
	if len(fields) > 0 {
		key = fields[0]
	}
	if len(fields) > 1 && fields[1] == "asc" {
		desc = false
	}

	return key, desc
}

func titleSortKey(title string) string {
	return nonWord.ReplaceAllString(strings.ToLower(title), "")
}

func seasonEpisodeKey(e Episode) int {
	season, number := 0, 0
	if e.HasSeason() {
		season = e.Season
	}
	if e.HasNumber() {
		number = e.EpisodeNumber
	}

	return season*1000 + number
}

func unixOrZero(e Episode) int64 {
	if e.PubDate == nil {
		return 0
	}

	return e.PubDate.Unix()
}
