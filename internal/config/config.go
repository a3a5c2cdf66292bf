// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Sink    SinkConfig    `mapstructure:"sink"`
	Archive ArchiveConfig `mapstructure:"archive"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlConfig governs the crawl pipeline: what to visit and when to stop.
type CrawlConfig struct {
	Seeds            []string `mapstructure:"seeds"`
	AllowedDomains   []string `mapstructure:"allowed_domains"`
	BlockedDomains   []string `mapstructure:"blocked_domains"`
	Keywords         []string `mapstructure:"keywords"`
	MaxDepth         int      `mapstructure:"max_depth"`
	MaxURLs          int      `mapstructure:"max_urls"`
	Concurrency      int      `mapstructure:"concurrency"`
	DeniedExtensions []string `mapstructure:"denied_extensions"`
	UserAgent        string   `mapstructure:"user_agent"`
}

// HTTPConfig configures the fetch client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxBodySize    int `mapstructure:"max_body_size"`
}

// SinkConfig selects where page records land.
// Provider is "postgres" or "memory".
type SinkConfig struct {
	Provider     string `mapstructure:"provider"`
	DSN          string `mapstructure:"dsn"`
	Table        string `mapstructure:"table"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// ArchiveConfig selects where raw page bodies are stored.
// Provider is "gcs", "local" or "none".
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for the optional record mirror topic.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KEYWORDCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Crawl.AllowedDomains) == 0 {
		cfg.Crawl.AllowedDomains = seedHosts(cfg.Crawl.Seeds)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// seedHosts derives an allowlist from the seed URLs so an unset
// allowed_domains keeps the crawl on the seeds' sites instead of admitting
// the open web. A leading "www." is dropped to match canonicalization, so
// both the bare domain and its subdomains stay admissible.
func seedHosts(seeds []string) []string {
	var hosts []string
	seen := make(map[string]struct{})
	for _, seed := range seeds {
		u, err := url.Parse(seed)
		if err != nil {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		hosts = append(hosts, host)
	}
	return hosts
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.max_urls", 100)
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("crawl.user_agent", "keywordcrawl-bot/0.1")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_body_size", 10*1024*1024)
	v.SetDefault("sink.provider", "memory")
	v.SetDefault("sink.table", "pages")
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if len(c.Crawl.Seeds) == 0 {
		return fmt.Errorf("crawl.seeds must not be empty")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.MaxURLs <= 0 {
		return fmt.Errorf("crawl.max_urls must be > 0")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	switch c.Sink.Provider {
	case "memory":
	case "postgres":
		if c.Sink.DSN == "" {
			return fmt.Errorf("sink.dsn must be set when sink.provider is postgres")
		}
	default:
		return fmt.Errorf("sink.provider must be postgres or memory, got %q", c.Sink.Provider)
	}
	switch c.Archive.Provider {
	case "none":
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
		}
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set when archive.provider is local")
		}
	default:
		return fmt.Errorf("archive.provider must be gcs, local or none, got %q", c.Archive.Provider)
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
