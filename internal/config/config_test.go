package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Google.Endpoint != "https://android.googleapis.com/gcm/send" {
		t.Fatalf("google endpoint default: %s", cfg.Google.Endpoint)
	}
	if cfg.Firefox.BaseURL != "https://updates.push.services.mozilla.com" {
		t.Fatalf("firefox base default: %s", cfg.Firefox.BaseURL)
	}
	if cfg.Dispatch.TTLSeconds != 60 {
		t.Fatalf("ttl default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pushsub.json")
	data := []byte(`{"google":{"apiKey":"k1"},"dispatch":{"maxInFlight":8,"requestTimeoutMs":2500}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Google.APIKey != "k1" {
		t.Fatalf("api key: %q", cfg.Google.APIKey)
	}
	// untouched fields keep defaults
	if cfg.Google.Endpoint == "" || cfg.Dispatch.TTLSeconds != 60 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Dispatch.MaxInFlight != 8 || cfg.Dispatch.RequestTimeout().Milliseconds() != 2500 {
		t.Fatalf("dispatch: %+v", cfg.Dispatch)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pushsub.yaml")
	data := []byte(`
firefox:
  baseURL: http://localhost:9000
schedules:
  - feature: news
    cron: "*/5 * * * *"
    filter: provider == "google"
`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Firefox.BaseURL != "http://localhost:9000" {
		t.Fatalf("firefox: %q", cfg.Firefox.BaseURL)
	}
	if len(cfg.Schedules) != 1 || cfg.Schedules[0].Feature != "news" || cfg.Schedules[0].Filter == "" {
		t.Fatalf("schedules: %+v", cfg.Schedules)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Google.Endpoint = ""
	cfg.Schedules = []Schedule{{Feature: "", Cron: "not a cron"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"google.endpoint", "feature is required", "cron"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing %q in %q", want, msg)
		}
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("GCM_API_KEY", "legacy")
	t.Setenv("PUSHSUB_GCM_API_KEY", "")
	t.Setenv("PUSHSUB_FIREFOX_BASE_URL", "http://push.local")
	t.Setenv("PUSHSUB_DISPATCH_MAX_IN_FLIGHT", "16")
	t.Setenv("PUSHSUB_DISPATCH_RATE_PER_SEC", "not-a-number")
	FromEnv(&cfg)
	if cfg.Google.APIKey != "legacy" {
		t.Fatalf("legacy api key not applied")
	}
	if cfg.Firefox.BaseURL != "http://push.local" {
		t.Fatalf("firefox override")
	}
	if cfg.Dispatch.MaxInFlight != 16 {
		t.Fatalf("max in flight override")
	}
	if cfg.Dispatch.RatePerSec != 0 {
		t.Fatalf("invalid int should be ignored")
	}

	t.Setenv("PUSHSUB_GCM_API_KEY", "prefixed")
	FromEnv(&cfg)
	if cfg.Google.APIKey != "prefixed" {
		t.Fatalf("prefixed key should win")
	}
}
