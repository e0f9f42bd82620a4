package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobsync/internal/ai"
	"github.com/amishk599/jobsync/internal/config"
	"github.com/amishk599/jobsync/internal/dedup"
	"github.com/amishk599/jobsync/internal/filter"
	"github.com/amishk599/jobsync/internal/lock"
	"github.com/amishk599/jobsync/internal/model"
	"github.com/amishk599/jobsync/internal/notifier"
	"github.com/amishk599/jobsync/internal/pipeline"
	"github.com/amishk599/jobsync/internal/ratelimit"
	"github.com/amishk599/jobsync/internal/retry"
	"github.com/amishk599/jobsync/internal/source"
	"github.com/amishk599/jobsync/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsync",
	Short: "Government job aggregator with AI verification",
	Long:  "JobSync collects job notices from RSS feeds and listing pages, verifies them with an LLM, and stores the legitimate ones.",
	// Default to `start` so that `jobsync` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSYNC_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSYNC_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSYNC_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	return newLogger(os.Stdout, dbg)
}

// newLogger writes text logs to w. Commands whose stdout carries data log
// to stderr instead.
func newLogger(w io.Writer, dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// setupNotifier returns nil when notifications are disabled.
func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.Store.Type {
	case config.StoreMongo:
		ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
		defer cancel()
		s, err := store.NewMongoStore(ctx, cfg.Store.URI, cfg.Store.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("using mongo store", "database", cfg.Store.Database)
		return s, nil
	default:
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", "path", cfg.Store.Path)
		return s, nil
	}
}

// setupLocker returns the run lock and a cleanup func that releases its
// resources.
func setupLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lock.Locker, func(), error) {
	switch cfg.Lock.Type {
	case config.LockRedis:
		rdb, err := lock.NewRedisClient(ctx, cfg.Lock.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis run lock", "key", cfg.Lock.Key, "ttl", cfg.Lock.TTL.String())
		return lock.NewRedisLocker(rdb, cfg.Lock.Key, cfg.Lock.TTL, logger), func() { rdb.Close() }, nil
	case config.LockNone:
		return lock.NopLocker{}, func() {}, nil
	default:
		return lock.NewMemoryLocker(), func() {}, nil
	}
}

// buildFetchers creates a fetcher per enabled source. Scrape sources share a
// per-host rate limiter.
func buildFetchers(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceFetcher {
	limiter := ratelimit.NewHostRateLimiter(cfg.Sources.ScrapeDelay)
	logger.Info("scrape rate limiter configured", "min_delay", cfg.Sources.ScrapeDelay.String())

	var fetchers []model.SourceFetcher
	for _, s := range cfg.EnabledSources() {
		var f model.SourceFetcher
		switch s.Type {
		case config.SourceRSS:
			f = source.NewRSSFetcher(s.Name, s.URL, httpClient)
		case config.SourceScrape:
			sel := source.Selectors{
				Item:         s.Selectors.Item,
				Title:        s.Selectors.Title,
				Link:         s.Selectors.Link,
				Description:  s.Selectors.Description,
				Organization: s.Selectors.Organization,
				LastDate:     s.Selectors.LastDate,
			}
			f = ratelimit.NewRateLimitedSource(source.NewScrapeFetcher(s.Name, s.URL, sel, httpClient), limiter, ratelimit.HostOf(s.URL))
		default:
			logger.Warn("unsupported source type, skipping", "source", s.Name, "type", s.Type)
			continue
		}
		fetchers = append(fetchers, f)
		logger.Info("registered source", "name", s.Name, "type", s.Type)
	}
	return fetchers
}

func buildVerifier(cfg *config.Config, logger *slog.Logger) *ai.LLMVerifier {
	// The per-call timeout is enforced by the verifier, so the provider's
	// client carries no timeout of its own.
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, &http.Client{})
	retrying := retry.NewRetryProvider(provider, cfg.AI.MaxRetries, cfg.AI.RetryBaseDelay, logger)
	logger.Info("AI verification configured", "model", cfg.AI.Model, "max_retries", cfg.AI.MaxRetries)
	return ai.NewLLMVerifier(retrying, ai.VerifyJobTemplate, cfg.AI.Timeout, cfg.AI.FallbackConfidence, logger)
}

func buildPipeline(cfg *config.Config, repo model.JobRepository, n model.Notifier, locker lock.Locker, logger *slog.Logger) (*pipeline.Pipeline, error) {
	httpClient := &http.Client{Timeout: cfg.Sources.HTTPTimeout}

	fetchers := buildFetchers(cfg, httpClient, logger)
	if len(fetchers) == 0 {
		return nil, fmt.Errorf("no sources to collect from")
	}

	return pipeline.NewPipeline(
		fetchers,
		filter.NewKeywordFilter(cfg.Filters.IncludeKeywords, cfg.Filters.ExcludeKeywords),
		dedup.NewDeduplicator(repo, cfg.Store.Timeout, logger),
		buildVerifier(cfg, logger),
		repo,
		n,
		locker,
		pipeline.Options{
			MaxItems:          cfg.Pipeline.MaxItemsPerRun,
			Threshold:         cfg.Pipeline.ConfidenceThreshold,
			VerifyConcurrency: cfg.AI.Concurrency,
			SourceConcurrency: cfg.Sources.Concurrency,
			StoreTimeout:      cfg.Store.Timeout,
		},
		logger,
	), nil
}

func logConfig(cfg *config.Config, logger *slog.Logger) {
	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"sources", len(cfg.EnabledSources()),
		"include_keywords", len(cfg.Filters.IncludeKeywords),
		"exclude_keywords", len(cfg.Filters.ExcludeKeywords),
		"max_items_per_run", cfg.Pipeline.MaxItemsPerRun,
		"confidence_threshold", cfg.Pipeline.ConfidenceThreshold,
		"store", cfg.Store.Type,
		"lock", cfg.Lock.Type,
	)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
