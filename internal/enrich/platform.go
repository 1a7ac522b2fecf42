package enrich

import (
	"context"
	"net/url"
	"regexp"

	"github.com/jdholdren/tagcast/internal/podcast"
)

// Hosts whose episodes only ever carry hashtags.
var hashtagPlatforms = []string{
	"anchor.fm",
	"podcasters.spotify.com",
	"creators.spotify.com",
}

var looseHashtag = regexp.MustCompile(`#([\p{L}\p{N}_-]+)`)

// PlatformHashtags rescans every text field of episodes hosted on
// hashtag-only platforms with a looser pattern than [Hashtags].
type PlatformHashtags struct{}

func (PlatformHashtags) Name() string { return "platform-hashtags" }

func (PlatformHashtags) TryExtract(_ context.Context, e podcast.Episode) ([]string, string, bool) {
	u, err := url.Parse(e.Link)
	if err != nil || !hostMatches(u.Hostname(), hashtagPlatforms) {
		return nil, "", false
	}

	sources := append(ownText(e),
		textSource{name: "summary", text: podcast.StripHTML(podcast.Str(e.Summary))},
		textSource{name: "subtitle", text: podcast.StripHTML(podcast.Str(e.Subtitle))},
	)
	for _, src := range sources {
		if tags := Clean(findHashtags(looseHashtag, src.text)); len(tags) > 0 {
			return tags, src.name, true
		}
	}

	return nil, "", false
}
