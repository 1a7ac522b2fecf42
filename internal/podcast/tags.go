package podcast

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TagCount is a tag and how many episodes carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// TitleCase upper-cases the first letter of every word and leaves the rest
// alone, so "NASA" and "JavaScript" keep their spelling.
func TitleCase(s string) string {
	// Casers keep state and are not safe to share.
	return cases.Title(language.Und, cases.NoLower).String(s)
}

// NormalizeTag trims and title-cases a single tag.
func NormalizeTag(tag string) string {
	return TitleCase(strings.TrimSpace(tag))
}

// Tags collects every episode tag, normalized and sorted. With uniquesOnly
// set, tags differing only by case are reported once.
func Tags(episodes []Episode, uniquesOnly bool) []string {
	ret := []string{}
	seen := map[string]bool{}
	for _, e := range episodes {
		for _, t := range e.Tags {
			t = NormalizeTag(t)
			if t == "" {
				continue
			}
			if uniquesOnly {
				key := strings.ToLower(t)
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			ret = append(ret, t)
		}
	}
	slices.Sort(ret)

	return ret
}

// MostCommonTags counts tags across episodes and returns the n most used,
// highest count first. n < 0 returns every tag, n == 0 returns none.
func MostCommonTags(episodes []Episode, n int) []TagCount {
	if n == 0 {
		return []TagCount{}
	}

	counts := map[string]int{}
	for _, t := range Tags(episodes, false) {
		counts[t]++
	}

	ret := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		ret = append(ret, TagCount{Tag: tag, Count: count})
	}
	slices.SortFunc(ret, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Tag, b.Tag)
	})

	if n > 0 && n < len(ret) {
		ret = ret[:n]
	}

	return ret
}
