package enrich

import (
	"regexp"
	"strings"

	"github.com/jdholdren/tagcast/internal/podcast"
)

var hexColour = regexp.MustCompile(`^#?(?:[0-9a-fA-F]{3}){1,2}$`)

// Clean normalizes raw tags: trimmed, without hex colour codes,
// underscores as spaces, title-cased and free of case-insensitive
// duplicates. The first spelling of a tag wins.
func Clean(raw []string) []string {
	ret := []string{}
	seen := map[string]bool{}
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" || hexColour.MatchString(t) {
			continue
		}
		t = podcast.NormalizeTag(strings.ReplaceAll(t, "_", " "))
		if t == "" {
			continue
		}

		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		ret = append(ret, t)
	}

	return ret
}
