// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	PolicyFile string `mapstructure:"policy_file"`
}

// CrawlerConfig governs the ingestion pipeline.
type CrawlerConfig struct {
	SourceURLs   []string `mapstructure:"source_urls"`
	MaxTextChars int      `mapstructure:"max_text_chars"`
	// RelevanceKeywords, when non-empty, gates extraction on a keyword
	// match against the fetched text or URL.
	RelevanceKeywords []string `mapstructure:"relevance_keywords"`
	RawObject         string   `mapstructure:"raw_object"`
	CleanedObject     string   `mapstructure:"cleaned_object"`
	StalenessYears    int      `mapstructure:"staleness_years"`
}

// HTTPConfig configures the outbound fetch client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LLMConfig configures the completion API used for extraction.
type LLMConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

// HeadlessConfig configures the optional render fallback.
type HeadlessConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	MaxConcurrency    int      `mapstructure:"max_concurrency"`
	NavTimeoutSeconds int      `mapstructure:"nav_timeout_seconds"`
	DomainQPS         float64  `mapstructure:"domain_qps"`
	MinHTMLBytes      int      `mapstructure:"min_html_bytes"`
	Keywords          []string `mapstructure:"keywords"`
}

// StorageConfig selects the snapshot blob store.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // local | gcs | noop
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DatabaseConfig controls optional crawl-run history persistence.
type DatabaseConfig struct {
	Provider string `mapstructure:"provider"` // postgres | noop
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// NotifyConfig controls optional run-completion events.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"` // pubsub | noop
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus POLICYD_* environment
// variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POLICYD")
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
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.policy_file", "data/policies.cleaned.json")

	v.SetDefault("crawler.source_urls", []string{})
	v.SetDefault("crawler.max_text_chars", 9000)
	v.SetDefault("crawler.relevance_keywords", []string{})
	v.SetDefault("crawler.raw_object", "policies.json")
	v.SetDefault("crawler.cleaned_object", "policies.cleaned.json")
	v.SetDefault("crawler.staleness_years", 5)

	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "CoreTrust-PolicyCrawler/1.0 (+https://coretrust.ai)")

	v.SetDefault("llm.model", "claude-sonnet-4-5")
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_concurrency", 1)
	v.SetDefault("headless.nav_timeout_seconds", 15)
	v.SetDefault("headless.domain_qps", 0.5)
	v.SetDefault("headless.min_html_bytes", 2000)
	v.SetDefault("headless.keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"ng-app",
		"window.__APOLLO_STATE__",
	})

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.base_dir", "data")

	v.SetDefault("database.provider", "noop")
	v.SetDefault("database.table", "crawl_runs")

	v.SetDefault("notify.provider", "noop")

	v.SetDefault("logging.development", false)
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive")
	}
	if c.Crawler.StalenessYears <= 0 {
		return fmt.Errorf("crawler.staleness_years must be positive")
	}
	switch c.Storage.Provider {
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local provider")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs provider")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	switch c.Database.Provider {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres provider")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown database provider %q", c.Database.Provider)
	}
	switch c.Notify.Provider {
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.project_id and notify.topic_id are required for pubsub")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown notify provider %q", c.Notify.Provider)
	}
	return nil
}
