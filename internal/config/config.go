package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobsync/internal/scheduler"
)

// Config is the root configuration for the jobsync pipeline.
type Config struct {
	Schedule     string // cron spec for `start`
	Sources      SourcesConfig
	Filters      FilterConfig
	AI           AIConfig
	Pipeline     PipelineConfig
	Store        StoreConfig
	Lock         LockConfig
	Notification NotificationConfig
}

// SourcesConfig lists the feeds and sites to collect from.
type SourcesConfig struct {
	Concurrency int           // sources fetched in parallel
	ScrapeDelay time.Duration // minimum gap between requests to the same host
	HTTPTimeout time.Duration
	Feeds       []SourceConfig
}

// Source types.
const (
	SourceRSS    = "rss"
	SourceScrape = "scrape"
)

// SourceConfig describes a single RSS feed or HTML listing page.
type SourceConfig struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"` // "rss" or "scrape"
	URL       string          `yaml:"url"`
	Enabled   bool            `yaml:"enabled"`
	Selectors SelectorsConfig `yaml:"selectors"` // scrape only
}

// SelectorsConfig holds the CSS selectors of a scraped site.
type SelectorsConfig struct {
	Item         string `yaml:"item"`
	Title        string `yaml:"title"`
	Link         string `yaml:"link"`
	Description  string `yaml:"description"`
	Organization string `yaml:"organization"`
	LastDate     string `yaml:"last_date"`
}

// FilterConfig holds the raw-item keyword filter.
type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// AIConfig controls the verification provider.
type AIConfig struct {
	BaseURL            string        // defaults to https://api.openai.com/v1
	Model              string        // model identifier, e.g. "gpt-4o-mini"
	APIKey             string        // expanded from env var by Load
	Timeout            time.Duration // per-call timeout
	Concurrency        int           // parallel verifier calls
	MaxRetries         int           // extra attempts on transient errors
	RetryBaseDelay     time.Duration
	FallbackConfidence int // confidence given to unusable responses
}

// PipelineConfig holds the per-run limits.
type PipelineConfig struct {
	ConfidenceThreshold int
	MaxItemsPerRun      int
}

// Store types.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Type     string // "sqlite" or "mongo"
	Path     string // sqlite file
	URI      string // mongo connection string
	Database string // mongo database
	Timeout  time.Duration
}

// Lock types.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
	LockNone   = "none"
)

// LockConfig selects how overlapping runs are prevented.
type LockConfig struct {
	Type     string // "memory", "redis" or "none"
	RedisURL string
	Key      string
	TTL      time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log", "slack" or "none"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// Defaults.
const (
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultSourceConcurrency   = 4
	defaultScrapeDelay         = 2 * time.Second
	defaultHTTPTimeout         = 30 * time.Second
	defaultAITimeout           = 30 * time.Second
	defaultRetryBaseDelay      = 5 * time.Second
	defaultFallbackConfidence  = 60
	defaultConfidenceThreshold = 70
	defaultMaxItemsPerRun      = 10
	defaultSQLitePath          = "jobsync.db"
	defaultMongoDatabase       = "jobsync"
	defaultStoreTimeout        = 10 * time.Second
	defaultLockKey             = "jobsync:run-lock"
	defaultLockTTL             = 30 * time.Minute
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Schedule     string             `yaml:"schedule"`
	Sources      rawSourcesConfig   `yaml:"sources"`
	Filters      FilterConfig       `yaml:"filters"`
	AI           rawAIConfig        `yaml:"ai"`
	Pipeline     rawPipelineConfig  `yaml:"pipeline"`
	Store        rawStoreConfig     `yaml:"store"`
	Lock         rawLockConfig      `yaml:"lock"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawSourcesConfig struct {
	Concurrency int            `yaml:"concurrency"`
	ScrapeDelay string         `yaml:"scrape_delay"`
	HTTPTimeout string         `yaml:"http_timeout"`
	Feeds       []SourceConfig `yaml:"feeds"`
}

type rawAIConfig struct {
	BaseURL            string `yaml:"base_url"`
	Model              string `yaml:"model"`
	APIKey             string `yaml:"api_key"`
	Timeout            string `yaml:"timeout"`
	Concurrency        int    `yaml:"concurrency"`
	MaxRetries         int    `yaml:"max_retries"`
	RetryBaseDelay     string `yaml:"retry_base_delay"`
	FallbackConfidence *int   `yaml:"fallback_confidence"`
}

type rawPipelineConfig struct {
	ConfidenceThreshold *int `yaml:"confidence_threshold"`
	MaxItemsPerRun      int  `yaml:"max_items_per_run"`
}

type rawStoreConfig struct {
	Type     string `yaml:"type"`
	Path     string `yaml:"path"`
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Timeout  string `yaml:"timeout"`
}

type rawLockConfig struct {
	Type     string `yaml:"type"`
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
	TTL      string `yaml:"ttl"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var d durations
	cfg := &Config{
		Schedule: orDefault(raw.Schedule, scheduler.DefaultSchedule),
		Sources: SourcesConfig{
			Concurrency: positiveOr(raw.Sources.Concurrency, defaultSourceConcurrency),
			ScrapeDelay: d.parse("sources.scrape_delay", raw.Sources.ScrapeDelay, defaultScrapeDelay),
			HTTPTimeout: d.parse("sources.http_timeout", raw.Sources.HTTPTimeout, defaultHTTPTimeout),
			Feeds:       raw.Sources.Feeds,
		},
		Filters: raw.Filters,
		AI: AIConfig{
			BaseURL:            orDefault(raw.AI.BaseURL, defaultOpenAIBaseURL),
			Model:              raw.AI.Model,
			APIKey:             raw.AI.APIKey,
			Timeout:            d.parse("ai.timeout", raw.AI.Timeout, defaultAITimeout),
			Concurrency:        positiveOr(raw.AI.Concurrency, 1),
			MaxRetries:         raw.AI.MaxRetries,
			RetryBaseDelay:     d.parse("ai.retry_base_delay", raw.AI.RetryBaseDelay, defaultRetryBaseDelay),
			FallbackConfidence: intOr(raw.AI.FallbackConfidence, defaultFallbackConfidence),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: intOr(raw.Pipeline.ConfidenceThreshold, defaultConfidenceThreshold),
			MaxItemsPerRun:      positiveOr(raw.Pipeline.MaxItemsPerRun, defaultMaxItemsPerRun),
		},
		Store: StoreConfig{
			Type:     strings.ToLower(orDefault(raw.Store.Type, StoreSQLite)),
			Path:     orDefault(raw.Store.Path, defaultSQLitePath),
			URI:      raw.Store.URI,
			Database: orDefault(raw.Store.Database, defaultMongoDatabase),
			Timeout:  d.parse("store.timeout", raw.Store.Timeout, defaultStoreTimeout),
		},
		Lock: LockConfig{
			Type:     strings.ToLower(orDefault(raw.Lock.Type, LockMemory)),
			RedisURL: raw.Lock.RedisURL,
			Key:      orDefault(raw.Lock.Key, defaultLockKey),
			TTL:      d.parse("lock.ttl", raw.Lock.TTL, defaultLockTTL),
		},
		Notification: raw.Notification,
	}
	if d.err != nil {
		return nil, d.err
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// EnabledSources returns the sources with enabled set.
func (c *Config) EnabledSources() []SourceConfig {
	var out []SourceConfig
	for _, s := range c.Sources.Feeds {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

// durations parses optional duration strings, keeping the first error.
type durations struct {
	err error
}

func (d *durations) parse(field, value string, def time.Duration) time.Duration {
	if value == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, value, err)
		return def
	}
	return v
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func validate(cfg *Config) error {
	if err := scheduler.ValidateSchedule(cfg.Schedule); err != nil {
		return err
	}

	if len(cfg.EnabledSources()) == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}
	names := make(map[string]bool)
	for _, s := range cfg.Sources.Feeds {
		if s.Name == "" {
			return fmt.Errorf("sources.feeds: every source needs a name")
		}
		if names[s.Name] {
			return fmt.Errorf("sources.feeds: duplicate source name %q", s.Name)
		}
		names[s.Name] = true
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		switch s.Type {
		case SourceRSS:
		case SourceScrape:
			if s.Selectors.Item == "" || s.Selectors.Title == "" {
				return fmt.Errorf("source %q: selectors.item and selectors.title are required for scrape sources", s.Name)
			}
		default:
			return fmt.Errorf("source %q: type must be \"rss\" or \"scrape\", got %q", s.Name, s.Type)
		}
	}
	if cfg.Sources.ScrapeDelay < 0 {
		return fmt.Errorf("sources.scrape_delay must not be negative, got %v", cfg.Sources.ScrapeDelay)
	}

	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must not be negative, got %d", cfg.AI.MaxRetries)
	}
	if cfg.AI.FallbackConfidence < 0 || cfg.AI.FallbackConfidence > 100 {
		return fmt.Errorf("ai.fallback_confidence must be between 0 and 100, got %d", cfg.AI.FallbackConfidence)
	}

	if cfg.Pipeline.ConfidenceThreshold < 1 || cfg.Pipeline.ConfidenceThreshold > 100 {
		return fmt.Errorf("pipeline.confidence_threshold must be between 1 and 100, got %d", cfg.Pipeline.ConfidenceThreshold)
	}

	switch cfg.Store.Type {
	case StoreSQLite:
	case StoreMongo:
		if cfg.Store.URI == "" {
			return fmt.Errorf("store.uri is required when store.type is \"mongo\"")
		}
	default:
		return fmt.Errorf("store.type must be \"sqlite\" or \"mongo\", got %q", cfg.Store.Type)
	}

	switch cfg.Lock.Type {
	case LockMemory, LockNone:
	case LockRedis:
		if cfg.Lock.RedisURL == "" {
			return fmt.Errorf("lock.redis_url is required when lock.type is \"redis\"")
		}
		if cfg.Lock.TTL <= 0 {
			return fmt.Errorf("lock.ttl must be positive, got %v", cfg.Lock.TTL)
		}
	default:
		return fmt.Errorf("lock.type must be \"memory\", \"redis\" or \"none\", got %q", cfg.Lock.Type)
	}

	switch cfg.Notification.Type {
	case "log", "none":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\", \"slack\" or \"none\", got %q", cfg.Notification.Type)
	}

	return nil
}
