// Package config loads the catalog-admin settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-catalog-admin/auth"
	"github.com/goliatone/go-catalog-admin/catalog"
	"github.com/goliatone/go-catalog-admin/internal/cacheinfra"
	"github.com/goliatone/go-catalog-admin/query"
)

// Environment keys.
const (
	EnvCatalogBaseURL      = "CATALOG_BASE_URL"
	EnvAuthBaseURL         = "AUTH_BASE_URL"
	EnvAuthAPIKey          = "AUTH_API_KEY"
	EnvAuthFallbackDelay   = "AUTH_FALLBACK_DELAY"
	EnvHTTPTimeout         = "HTTP_TIMEOUT"
	EnvPageSize            = "PAGE_SIZE"
	EnvQueryStaleTime      = "QUERY_STALE_TIME"
	EnvRefetchConcurrency  = "REFETCH_CONCURRENCY"
	EnvDetailCacheTTL      = "DETAIL_CACHE_TTL"
	EnvDetailCacheCapacity = "DETAIL_CACHE_CAPACITY"
	EnvSessionDBPath       = "SESSION_DB_PATH"
	EnvLogLevel            = "LOG_LEVEL"
	EnvLogFormat           = "LOG_FORMAT"
)

// DefaultPageSize is the number of products per page.
const DefaultPageSize = 10

// Config holds every runtime setting.
type Config struct {
	CatalogBaseURL string
	AuthBaseURL    string
	// AuthAPIKey is sent as x-api-key to the identity provider when set.
	AuthAPIKey        string
	AuthFallbackDelay time.Duration
	HTTPTimeout       time.Duration

	PageSize           int
	QueryStaleTime     time.Duration
	RefetchConcurrency int

	DetailCacheTTL      time.Duration
	DetailCacheCapacity int

	SessionDBPath string

	LogLevel  string
	LogFormat string
}

// Default returns the built-in settings.
func Default() Config {
	q := query.DefaultConfig()
	d := cacheinfra.DefaultConfig()
	return Config{
		CatalogBaseURL:      catalog.DefaultBaseURL,
		AuthBaseURL:         auth.DefaultBaseURL,
		AuthFallbackDelay:   auth.DefaultFallbackDelay,
		HTTPTimeout:         30 * time.Second,
		PageSize:            DefaultPageSize,
		QueryStaleTime:      q.StaleTime,
		RefetchConcurrency:  q.RefetchConcurrency,
		DetailCacheTTL:      d.TTL,
		DetailCacheCapacity: d.Capacity,
		SessionDBPath:       DefaultSessionDBPath(),
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// DefaultSessionDBPath is catalog-admin/session.db under the user config directory.
func DefaultSessionDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "catalog-admin", "session.db")
}

// Query returns the query cache settings.
func (c Config) Query() query.Config {
	return query.Config{StaleTime: c.QueryStaleTime, RefetchConcurrency: c.RefetchConcurrency}
}

// DetailCache returns the detail cache settings.
func (c Config) DetailCache() cacheinfra.Config {
	d := cacheinfra.DefaultConfig()
	d.TTL = c.DetailCacheTTL
	d.Capacity = c.DetailCacheCapacity
	return d
}

// Load reads the process environment on top of the given .env files, then validates.
// Process variables win over file values. With no files, ./.env is read when it exists.
func Load(files ...string) (Config, error) {
	optional := len(files) == 0
	if optional {
		files = []string{".env"}
	}

	fileEnv, err := godotenv.Read(files...)
	if err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
		fileEnv = map[string]string{}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})
}

// FromLookup builds a Config from Default overridden by the values lookup returns,
// then validates it.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	r := reader{lookup: lookup}

	r.str(EnvCatalogBaseURL, &cfg.CatalogBaseURL)
	r.str(EnvAuthBaseURL, &cfg.AuthBaseURL)
	r.str(EnvAuthAPIKey, &cfg.AuthAPIKey)
	r.duration(EnvAuthFallbackDelay, &cfg.AuthFallbackDelay)
	r.duration(EnvHTTPTimeout, &cfg.HTTPTimeout)
	r.integer(EnvPageSize, &cfg.PageSize)
	r.duration(EnvQueryStaleTime, &cfg.QueryStaleTime)
	r.integer(EnvRefetchConcurrency, &cfg.RefetchConcurrency)
	r.duration(EnvDetailCacheTTL, &cfg.DetailCacheTTL)
	r.integer(EnvDetailCacheCapacity, &cfg.DetailCacheCapacity)
	r.str(EnvSessionDBPath, &cfg.SessionDBPath)
	r.str(EnvLogLevel, &cfg.LogLevel)
	r.str(EnvLogFormat, &cfg.LogFormat)

	if r.err != nil {
		return Config{}, r.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every setting and reports the first invalid one.
func (c Config) Validate() error {
	for _, f := range []struct {
		field string
		value any
		rules []validation.Rule
	}{
		{EnvCatalogBaseURL, c.CatalogBaseURL, []validation.Rule{validation.Required, is.RequestURL}},
		{EnvAuthBaseURL, c.AuthBaseURL, []validation.Rule{validation.Required, is.RequestURL}},
		{EnvAuthFallbackDelay, c.AuthFallbackDelay, []validation.Rule{validation.Min(time.Duration(0))}},
		{EnvHTTPTimeout, c.HTTPTimeout, []validation.Rule{validation.Required, validation.Min(time.Duration(0)).Exclusive()}},
		{EnvPageSize, c.PageSize, []validation.Rule{validation.Required, validation.Min(1), validation.Max(100)}},
		{EnvQueryStaleTime, c.QueryStaleTime, []validation.Rule{validation.Min(time.Duration(0))}},
		{EnvRefetchConcurrency, c.RefetchConcurrency, []validation.Rule{validation.Required, validation.Min(1)}},
		{EnvDetailCacheTTL, c.DetailCacheTTL, []validation.Rule{validation.Required, validation.Min(time.Duration(0)).Exclusive()}},
		{EnvDetailCacheCapacity, c.DetailCacheCapacity, []validation.Rule{validation.Required, validation.Min(1)}},
		{EnvSessionDBPath, c.SessionDBPath, []validation.Rule{validation.Required}},
		{EnvLogLevel, c.LogLevel, []validation.Rule{validation.In("debug", "info", "warn", "error")}},
		{EnvLogFormat, c.LogFormat, []validation.Rule{validation.In("json", "console")}},
	} {
		if err := validation.Validate(f.value, f.rules...); err != nil {
			return &ConfigError{Field: f.field, Message: err.Error()}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

type reader struct {
	lookup func(string) (string, bool)
	err    error
}

func (r *reader) get(key string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	v, ok := r.lookup(key)
	return v, ok && v != ""
}

func (r *reader) str(key string, dst *string) {
	if v, ok := r.get(key); ok {
		*dst = v
	}
}

func (r *reader) integer(key string, dst *int) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.err = &ConfigError{Field: key, Message: "must be an integer"}
		return
	}
	*dst = n
}

func (r *reader) duration(key string, dst *time.Duration) {
	v, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.err = &ConfigError{Field: key, Message: "must be a duration such as 300ms or 1m"}
		return
	}
	*dst = d
}
