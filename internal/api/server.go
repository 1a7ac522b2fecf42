// Package api serves the stored podcasts, episodes and tags as JSON.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jdholdren/tagcast/internal/serverutil"
	"github.com/jdholdren/tagcast/internal/sqlite"
)

// Store is the read side of the database the API serves from.
type Store interface {
	Podcasts(ctx context.Context) ([]sqlite.Podcast, error)
	Podcast(ctx context.Context, id int64) (sqlite.Podcast, error)
	Episodes(ctx context.Context, f sqlite.EpisodeFilter) ([]sqlite.Episode, error)
	EpisodeCovers(ctx context.Context, feed string) ([]string, error)
	EpisodesMatchingTags(ctx context.Context, tags []string) ([]sqlite.Episode, error)
	EpisodeTags(ctx context.Context, guid string) ([]string, error)
	AllTags(ctx context.Context, usedMoreThan int) ([]sqlite.TagUsage, error)
	MostCommonTags(ctx context.Context, limit int) ([]sqlite.TagUsage, error)
}

var _ Store = sqlite.Repo{}

type (
	// Server answers read-only queries against the store.
	Server struct {
		*http.Server

		store Store
		// Tag aggregates are expensive and only change when a sync runs.
		tagCache *expirable.LRU[string, []sqlite.TagUsage]
	}

	ServerConfig struct {
		Port        int
		CorsOrigins []string
		CacheTTL    time.Duration
	}
)

func NewServer(config ServerConfig, store Store) *Server {
	r := serverutil.ErrRouter{Router: mux.NewRouter().UseEncodedPath()}

	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	origins := config.CorsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	srvr := Server{
		store:    store,
		tagCache: expirable.NewLRU[string, []sqlite.TagUsage](128, nil, ttl),
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins(origins),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
			)(handlers.CompressHandler(r)),
		},
	}

	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.HandleFuncE("/api/health", srvr.getHealth).Methods(http.MethodGet)

	r.HandleFuncE("/api/podcasts", srvr.getPodcasts).Methods(http.MethodGet)
	r.HandleFuncE("/api/podcasts/{podcastID}", srvr.getPodcast).Methods(http.MethodGet)
	r.HandleFuncE("/api/podcasts/{podcastID}/episodes", srvr.getPodcastEpisodes).Methods(http.MethodGet)
	r.HandleFuncE("/api/podcasts/{podcastID}/covers", srvr.getPodcastCovers).Methods(http.MethodGet)

	r.HandleFuncE("/api/episodes", srvr.getEpisodesByTags).Methods(http.MethodGet)
	r.HandleFuncE("/api/episodes/{guid}/tags", srvr.getEpisodeTags).Methods(http.MethodGet)

	r.HandleFuncE("/api/tags", srvr.getTags).Methods(http.MethodGet)
	r.HandleFuncE("/api/tags/common", srvr.getCommonTags).Methods(http.MethodGet)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr
}

func (s Server) getHealth(w http.ResponseWriter, r *http.Request) error {
	return serverutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
