package enrich

import (
	"context"
	"regexp"

	"github.com/jdholdren/tagcast/internal/podcast"
)

var (
	// A hashtag must not be glued to a word, URL path or entity on its left.
	hashtag = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_&/#])#([\p{L}\p{N}_-]+)`)

	// "Tags: a, b | c" up to the next blank line.
	labeledList = regexp.MustCompile(`(?is)(?:^|\n)[ \t]*(?:tags|keywords|topics|themen)[ \t]*:[ \t]*(.+?)(?:\n[ \t]*\n|$)`)
	listSep     = regexp.MustCompile(`[|,\n]`)
)

type textSource struct {
	name string
	text string
}

// ownText is the episode's plain text, shownotes before description.
func ownText(e podcast.Episode) []textSource {
	return []textSource{
		{name: "shownotes", text: podcast.StripHTML(podcast.Str(e.Shownotes))},
		{name: "description", text: podcast.StripHTML(e.Description)},
	}
}

func findHashtags(re *regexp.Regexp, text string) []string {
	var ret []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		ret = append(ret, m[1])
	}

	return ret
}

// Hashtags collects #tags from the episode's shownotes, or from its
// description when the shownotes have none.
type Hashtags struct{}

func (Hashtags) Name() string { return "hashtags" }

func (Hashtags) TryExtract(_ context.Context, e podcast.Episode) ([]string, string, bool) {
	for _, src := range ownText(e) {
		if tags := Clean(findHashtags(hashtag, src.text)); len(tags) > 0 {
			return tags, src.name, true
		}
	}

	return nil, "", false
}

// LabeledList looks for a "Tags:", "Keywords:", "Topics:" or "Themen:"
// line and splits what follows it.
type LabeledList struct{}

func (LabeledList) Name() string { return "labeled-list" }

func (LabeledList) TryExtract(_ context.Context, e podcast.Episode) ([]string, string, bool) {
	for _, src := range ownText(e) {
		m := labeledList.FindStringSubmatch(src.text)
		if m == nil {
			continue
		}
		if tags := Clean(listSep.Split(m[1], -1)); len(tags) > 0 {
			return tags, src.name, true
		}
	}

	return nil, "", false
}
