package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	tcerrs "github.com/jdholdren/tagcast/internal/errors"
	"github.com/jdholdren/tagcast/internal/serverutil"
	"github.com/jdholdren/tagcast/internal/sqlite"
)

type (
	TagsResp struct {
		Tags []sqlite.TagUsage `json:"tags"`
	}

	EpisodeTagsResp struct {
		GUID string   `json:"guid"`
		Tags []string `json:"tags"`
	}
)

// getEpisodesByTags lists the episodes carrying any of the ?tag= values.
func (s Server) getEpisodesByTags(w http.ResponseWriter, r *http.Request) error {
	var tags []string
	for _, t := range r.URL.Query()["tag"] {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return tcerrs.E(tcerrs.BadRequest, tcerrs.Detail{Field: "tag", Error: "required"}, "at least one tag is required")
	}

	eps, err := s.store.EpisodesMatchingTags(r.Context(), tags)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, EpisodesResp{
		Episodes:   episodeResps(eps),
		Pagination: paginationMeta{Limit: len(eps), Order: "desc"},
	})
}

func (s Server) getEpisodeTags(w http.ResponseWriter, r *http.Request) error {
	// Guids are often URLs, so the path is matched encoded.
	guid, err := url.PathUnescape(mux.Vars(r)["guid"])
	if err != nil {
		return tcerrs.E(tcerrs.BadRequest, "invalid guid")
	}
	tags, err := s.store.EpisodeTags(r.Context(), guid)
	if err != nil {
		return err
	}

	return serverutil.WriteJSON(w, http.StatusOK, EpisodeTagsResp{GUID: guid, Tags: tags})
}

func (s Server) getTags(w http.ResponseWriter, r *http.Request) error {
	moreThan, err := serverutil.IntQuery(r, "min", 0)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("all:%d", moreThan)
	tags, ok := s.tagCache.Get(key)
	if !ok {
		if tags, err = s.store.AllTags(r.Context(), moreThan); err != nil {
			return err
		}
		s.tagCache.Add(key, tags)
	}

	return serverutil.WriteJSON(w, http.StatusOK, TagsResp{Tags: tags})
}

func (s Server) getCommonTags(w http.ResponseWriter, r *http.Request) error {
	limit, err := serverutil.IntQuery(r, "limit", 25)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("common:%d", limit)
	tags, ok := s.tagCache.Get(key)
	if !ok {
		if tags, err = s.store.MostCommonTags(r.Context(), limit); err != nil {
			return err
		}
		s.tagCache.Add(key, tags)
	}

	return serverutil.WriteJSON(w, http.StatusOK, TagsResp{Tags: tags})
}
