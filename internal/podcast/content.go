package podcast

import (
	"cmp"
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy    = bluemonday.StrictPolicy()
	repeatedNewline = regexp.MustCompile(`\n{2,}`)
)

// StripHTML removes all markup from s and decodes entities.
func StripHTML(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// IntelligentContent picks one of the episode's text fields by size.
// length starting with "s" returns the shortest, "m" a middle one and
// anything else the longest. Markup is stripped and blank lines collapsed.
func (e Episode) IntelligentContent(length string) string {
	return pickContent(length, Str(e.Subtitle), Str(e.Summary), e.Description, Str(e.Shownotes))
}

// IntelligentContent is the channel-level equivalent of
// [Episode.IntelligentContent].
func (p Podcast) IntelligentContent(length string) string {
	return pickContent(length, Str(p.Subtitle), Str(p.Summary), p.Description)
}

func pickContent(length string, raw ...string) string {
	pieces := make([]string, 0, len(raw))
	for _, r := range raw {
		piece := strings.TrimSpace(StripHTML(r))
		if piece == "" {
			continue
		}
		piece = repeatedNewline.ReplaceAllString(piece, "\n")
		if slices.Contains(pieces, piece) {
			continue
		}
		pieces = append(pieces, piece)
	}
	if len(pieces) == 0 {
		return ""
	}

	slices.SortStableFunc(pieces, func(a, b string) int {
		return cmp.Compare(len(a), len(b))
	})

	switch strings.ToLower(length[:min(1, len(length))]) {
	case "s":
		return pieces[0]
	case "m":
		if len(pieces) > 2 {
			return pieces[1]
		}
	}

	return pieces[len(pieces)-1]
}
