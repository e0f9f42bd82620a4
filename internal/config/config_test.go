package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
sources:
  feeds:
    - name: sarkari-rss
      type: rss
      url: https://jobs.example.com/feed.xml
      enabled: true
ai:
  model: gpt-4o-mini
  api_key: sk-test
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Schedule != "@every 30m" {
		t.Errorf("Schedule = %q, want @every 30m", cfg.Schedule)
	}
	if cfg.Sources.Concurrency != 4 || cfg.Sources.ScrapeDelay != 2*time.Second {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
	if cfg.AI.BaseURL != "https://api.openai.com/v1" || cfg.AI.Timeout != 30*time.Second {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.AI.Concurrency != 1 || cfg.AI.MaxRetries != 0 || cfg.AI.FallbackConfidence != 60 {
		t.Errorf("AI concurrency/retries/fallback = %d/%d/%d", cfg.AI.Concurrency, cfg.AI.MaxRetries, cfg.AI.FallbackConfidence)
	}
	if cfg.Pipeline.ConfidenceThreshold != 70 || cfg.Pipeline.MaxItemsPerRun != 10 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Store.Type != StoreSQLite || cfg.Store.Path != "jobsync.db" || cfg.Store.Timeout != 10*time.Second {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Lock.Type != LockMemory {
		t.Errorf("Lock.Type = %q, want memory", cfg.Lock.Type)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q, want log", cfg.Notification.Type)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("JOBSYNC_TEST_KEY", "sk-from-env")
	content := `
schedule: "0 */2 * * *"
sources:
  concurrency: 2
  scrape_delay: 5s
  feeds:
    - name: sarkari-rss
      type: rss
      url: https://jobs.example.com/feed.xml
      enabled: true
    - name: board
      type: scrape
      url: https://board.example.com/latest
      enabled: true
      selectors:
        item: "ul.jobs li"
        title: "a"
        last_date: ".date"
    - name: old-feed
      type: rss
      url: https://old.example.com/rss
      enabled: false
filters:
  include_keywords: [recruitment, vacancy]
  exclude_keywords: [result]
ai:
  model: gpt-4o-mini
  api_key: ${JOBSYNC_TEST_KEY}
  timeout: 45s
  concurrency: 3
  max_retries: 2
  fallback_confidence: 75
pipeline:
  confidence_threshold: 50
  max_items_per_run: 25
store:
  type: mongo
  uri: mongodb://localhost:27017
  database: govjobs
lock:
  type: redis
  redis_url: redis://localhost:6379/0
  ttl: 10m
notification:
  type: slack
  webhook_url: https://hooks.slack.com/services/T/B/X
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Schedule != "0 */2 * * *" {
		t.Errorf("Schedule = %q", cfg.Schedule)
	}
	if cfg.AI.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want env expansion", cfg.AI.APIKey)
	}
	if got := cfg.EnabledSources(); len(got) != 2 || got[1].Selectors.LastDate != ".date" {
		t.Errorf("EnabledSources = %+v", got)
	}
	if cfg.Sources.ScrapeDelay != 5*time.Second || cfg.Sources.Concurrency != 2 {
		t.Errorf("Sources = %+v", cfg.Sources)
	}
	if len(cfg.Filters.IncludeKeywords) != 2 || cfg.Filters.ExcludeKeywords[0] != "result" {
		t.Errorf("Filters = %+v", cfg.Filters)
	}
	if cfg.AI.MaxRetries != 2 || cfg.AI.FallbackConfidence != 75 || cfg.AI.Timeout != 45*time.Second {
		t.Errorf("AI = %+v", cfg.AI)
	}
	if cfg.Pipeline.ConfidenceThreshold != 50 || cfg.Pipeline.MaxItemsPerRun != 25 {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	if cfg.Store.Type != StoreMongo || cfg.Store.Database != "govjobs" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Lock.Type != LockRedis || cfg.Lock.TTL != 10*time.Minute || cfg.Lock.Key != "jobsync:run-lock" {
		t.Errorf("Lock = %+v", cfg.Lock)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "schedule: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		replace [2]string
		wantErr string
	}{
		{name: "bad schedule", extra: "schedule: sometimes\n", wantErr: "invalid schedule"},
		{name: "bad duration", extra: "store:\n  timeout: soon\n", wantErr: "store.timeout"},
		{name: "no enabled source", replace: [2]string{"enabled: true", "enabled: false"}, wantErr: "at least one source"},
		{name: "unknown source type", replace: [2]string{"type: rss", "type: atom"}, wantErr: "type must be"},
		{name: "missing api key", replace: [2]string{"api_key: sk-test", "api_key: \"\""}, wantErr: "ai.api_key"},
		{name: "threshold out of range", extra: "pipeline:\n  confidence_threshold: 101\n", wantErr: "confidence_threshold"},
		{name: "threshold zero", extra: "pipeline:\n  confidence_threshold: 0\n", wantErr: "confidence_threshold"},
		{name: "mongo without uri", extra: "store:\n  type: mongo\n", wantErr: "store.uri"},
		{name: "unknown store", extra: "store:\n  type: postgres\n", wantErr: "store.type"},
		{name: "redis without url", extra: "lock:\n  type: redis\n", wantErr: "lock.redis_url"},
		{name: "slack without webhook", extra: "notification:\n  type: slack\n", wantErr: "webhook_url"},
		{name: "slack bad webhook", extra: "notification:\n  type: slack\n  webhook_url: https://example.com/hook\n", wantErr: "hooks.slack.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := minimalConfig + tt.extra
			if tt.replace[0] != "" {
				content = strings.Replace(content, tt.replace[0], tt.replace[1], 1)
			}
			_, err := Load(writeConfig(t, content))
			if err == nil {
				t.Fatalf("Load: expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ScrapeSourceNeedsSelectors(t *testing.T) {
	content := strings.Replace(minimalConfig, "type: rss", "type: scrape", 1)
	_, err := Load(writeConfig(t, content))
	if err == nil || !strings.Contains(err.Error(), "selectors") {
		t.Fatalf("err = %v, want selectors error", err)
	}
}
