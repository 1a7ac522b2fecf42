package api

import (
	"net/http"
	"strings"

	"github.com/jdholdren/tagcast/internal/serverutil"
	"github.com/jdholdren/tagcast/internal/sqlite"
)

const (
	defaultEpisodeLimit = 50
	maxEpisodeLimit     = 500
)

// paginationMeta echoes the window an episode list was cut from.
type paginationMeta struct {
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Order  string `json:"order"`
}

// episodePage reads ?limit=&offset=&order= for an episode listing. Limits
// above the maximum are clamped, malformed numbers are a bad request.
func episodePage(r *http.Request) (paginationMeta, error) {
	limit, err := serverutil.IntQuery(r, "limit", defaultEpisodeLimit)
	if err != nil {
		return paginationMeta{}, err
	}
	if limit <= 0 {
		limit = defaultEpisodeLimit
	}
	limit = min(limit, maxEpisodeLimit)

	offset, err := serverutil.IntQuery(r, "offset", 0)
	if err != nil {
		return paginationMeta{}, err
	}

	order := "desc"
	if strings.EqualFold(r.URL.Query().Get("order"), "asc") {
		order = "asc"
	}

	return paginationMeta{Limit: limit, Offset: max(offset, 0), Order: order}, nil
}

func (p paginationMeta) filter(podcastID int64, tag string) sqlite.EpisodeFilter {
	return sqlite.EpisodeFilter{
		PodcastID: podcastID,
		Tag:       tag,
		Limit:     uint64(p.Limit),
		Offset:    uint64(p.Offset),
		Order:     p.Order,
	}
}
