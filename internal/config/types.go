package config

import "time"

// Env selects runtime behavior (cache TTLs, log format).
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// Config is the full alphadocs configuration.
type Config struct {
	Environment Env    `koanf:"environment" yaml:"environment"`
	Port        int    `koanf:"port" yaml:"port"`
	DataDir     string `koanf:"data_dir" yaml:"data_dir"`
	ContentDir  string `koanf:"content_dir" yaml:"content_dir"`

	// CDNBaseURL is prepended to relative article and manifest paths.
	// Empty means same-origin (resolved against APIBaseURL).
	CDNBaseURL string `koanf:"cdn_base_url" yaml:"cdn_base_url"`
	// APIBaseURL is where the stats/comments/auth API lives.
	APIBaseURL string `koanf:"api_base_url" yaml:"api_base_url"`

	// IndexTTLMinutes bounds reuse of the persisted article index cache.
	// Zero disables reuse entirely (development default).
	IndexTTLMinutes int `koanf:"index_ttl_minutes" yaml:"index_ttl_minutes"`
	// TransitionMillis is the fixed page exit/enter transition duration.
	TransitionMillis int `koanf:"transition_millis" yaml:"transition_millis"`
	// ContentCacheLimit caps persisted per-article content entries (LRU).
	ContentCacheLimit int `koanf:"content_cache_limit" yaml:"content_cache_limit"`

	JWTSecret           string `koanf:"jwt_secret" yaml:"jwt_secret"`
	AutoApproveUsers    bool   `koanf:"auto_approve_users" yaml:"auto_approve_users"`
	AutoApproveComments bool   `koanf:"auto_approve_comments" yaml:"auto_approve_comments"`
	AllowAllOrigins     bool   `koanf:"allow_all_origins" yaml:"allow_all_origins"`
}

// IndexTTL returns the persisted index TTL as a duration.
func (c *Config) IndexTTL() time.Duration {
	return time.Duration(c.IndexTTLMinutes) * time.Minute
}

// TransitionDuration returns the page transition duration.
func (c *Config) TransitionDuration() time.Duration {
	return time.Duration(c.TransitionMillis) * time.Millisecond
}

// IsDev reports whether the development environment is configured.
func (c *Config) IsDev() bool { return c.Environment != EnvProduction }
