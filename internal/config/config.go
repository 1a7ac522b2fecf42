// Package config reads the environment shared by the daemon and tagctl and
// wires the services both of them run.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/time/rate"

	"github.com/jdholdren/tagcast/internal/catalog"
	"github.com/jdholdren/tagcast/internal/enrich"
	"github.com/jdholdren/tagcast/internal/fetch"
	"github.com/jdholdren/tagcast/internal/migrations"
	"github.com/jdholdren/tagcast/internal/remap"
	"github.com/jdholdren/tagcast/internal/sqlite"
	tcsync "github.com/jdholdren/tagcast/internal/sync"
)

type Config struct {
	Database string `env:"DATABASE, required"`
	Port     int    `env:"PORT, default=4444"`

	// Which format to use for logging: either text or json
	LoggerFormat string `env:"LOGGER_FORMAT, default=text"`
	LogLevel     string `env:"LOG_LEVEL, default=info"`

	CatalogFile string `env:"CATALOG_FILE, default=podcasts.toml"`
	TagMapFile  string `env:"TAGMAP_FILE"`
	// Defaults to the database path with a .lock suffix.
	LockFile string `env:"LOCK_FILE"`

	SyncInterval    time.Duration `env:"SYNC_INTERVAL, default=1h"`
	SyncParallelism int           `env:"SYNC_PARALLELISM, default=4"`

	FetchTimeout   time.Duration `env:"FETCH_TIMEOUT, default=10s"`
	FetchRetries   uint64        `env:"FETCH_RETRIES, default=3"`
	CacheTTL       time.Duration `env:"CACHE_TTL, default=12h"`
	CacheTTLJitter int           `env:"CACHE_TTL_JITTER, default=1"`
	CacheSize      int           `env:"CACHE_SIZE, default=256"`

	// Episode page fetches per second and host while enriching.
	EnrichRate float64 `env:"ENRICH_RATE, default=2"`

	CorsOrigins []string      `env:"CORS_ORIGINS, default=*"`
	APICacheTTL time.Duration `env:"API_CACHE_TTL, default=1m"`
}

// Load reads the environment, after filling it from envFile when that
// file exists.
func Load(ctx context.Context, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.LockFile == "" {
		cfg.LockFile = cfg.Database + ".lock"
	}

	return cfg, nil
}

// OpenStore opens and migrates the database.
func (c Config) OpenStore() (*sqlx.DB, sqlite.Repo, error) {
	dbx, err := sqlite.Open(c.Database)
	if err != nil {
		return nil, sqlite.Repo{}, err
	}
	if err := migrations.Run(dbx); err != nil {
		dbx.Close()
		return nil, sqlite.Repo{}, err
	}

	return dbx, sqlite.New(dbx), nil
}

// Catalog loads and validates the podcast catalog.
func (c Config) Catalog() (catalog.Catalog, error) {
	cat, err := catalog.Load(c.CatalogFile)
	if err != nil {
		return catalog.Catalog{}, err
	}
	if err := cat.Validate(); err != nil {
		return catalog.Catalog{}, err
	}

	return cat, nil
}

// Runner wires fetching, caching, enrichment and tag remapping into a sync
// runner over repo.
func (c Config) Runner(repo sqlite.Repo) (*tcsync.Runner, error) {
	rules, err := remap.Load(c.TagMapFile)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(c.FetchTimeout)
	feeds := fetch.NewCache(client, c.CacheSize, c.CacheTTL, fetch.WithJitter(c.CacheTTLJitter))
	enricher := enrich.New(client, enrich.WithHostRate(rate.Limit(c.EnrichRate), 2))

	engine := tcsync.NewEngine(repo, enricher, rules)
	return tcsync.NewRunner(engine, repo, feeds,
		tcsync.WithParallelism(c.SyncParallelism),
		tcsync.WithRetries(c.FetchRetries, time.Second),
		tcsync.WithLockFile(c.LockFile),
	), nil
}
