package api

import (
	"net/http"

	"github.com/jdholdren/tagcast/internal/duration"
	"github.com/jdholdren/tagcast/internal/serverutil"
	"github.com/jdholdren/tagcast/internal/sqlite"
)

type (
	PodcastsResp struct {
		Podcasts []sqlite.Podcast `json:"podcasts"`
	}

	// EpisodeResp is a stored episode plus its human readable duration.
	EpisodeResp struct {
		sqlite.Episode
		DurationText string `json:"duration_text"`
	}

	EpisodesResp struct {
		Episodes   []EpisodeResp  `json:"episodes"`
		Pagination paginationMeta `json:"pagination"`
	}

	CoversResp struct {
		Covers []string `json:"covers"`
	}
)

func episodeResps(eps []sqlite.Episode) []EpisodeResp {
	ret := make([]EpisodeResp, len(eps))
	for i, e := range eps {
		ret[i] = EpisodeResp{Episode: e, DurationText: duration.ShortString(e.Duration)}
	}

	return ret
}

func (s Server) getPodcasts(w http.ResponseWriter, r *http.Request) error {
	podcasts, err := s.store.Podcasts(r.Context())
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, PodcastsResp{Podcasts: podcasts})
}

func (s Server) getPodcast(w http.ResponseWriter, r *http.Request) error {
	id, err := serverutil.Int64Var(r, "podcastID")
	if err != nil {
		return err
	}

	p, err := s.store.Podcast(r.Context(), id)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, p)
}

func (s Server) getPodcastEpisodes(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := serverutil.Int64Var(r, "podcastID")
	if err != nil {
		return err
	}
	// 404 for unknown podcasts rather than an empty list.
	if _, err := s.store.Podcast(ctx, id); err != nil {
		return err
	}

	page, err := episodePage(r)
	if err != nil {
		return err
	}

	eps, err := s.store.Episodes(ctx, page.filter(id, r.URL.Query().Get("tag")))
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, EpisodesResp{
		Episodes:   episodeResps(eps),
		Pagination: page,
	})
}

func (s Server) getPodcastCovers(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id, err := serverutil.Int64Var(r, "podcastID")
	if err != nil {
		return err
	}

	p, err := s.store.Podcast(ctx, id)
	if err != nil {
		return err
	}
	covers, err := s.store.EpisodeCovers(ctx, p.Feed)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, CoversResp{Covers: covers})
}
