package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Google    GoogleConfig   `json:"google" yaml:"google"`
	Firefox   FirefoxConfig  `json:"firefox" yaml:"firefox"`
	Dispatch  DispatchConfig `json:"dispatch" yaml:"dispatch"`
	Schedules []Schedule     `json:"schedules" yaml:"schedules"`
}

// GoogleConfig configures the GCM-style batched endpoint.
type GoogleConfig struct {
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	APIKey   string `json:"apiKey" yaml:"apiKey"`
}

// FirefoxConfig configures the Mozilla push service.
type FirefoxConfig struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
}

// DispatchConfig shapes outbound push traffic.
type DispatchConfig struct {
	TTLSeconds       int `json:"ttlSeconds" yaml:"ttlSeconds"`
	MaxInFlight      int `json:"maxInFlight" yaml:"maxInFlight"`
	RatePerSec       int `json:"ratePerSec" yaml:"ratePerSec"`
	RequestTimeoutMs int `json:"requestTimeoutMs" yaml:"requestTimeoutMs"`
}

// RequestTimeout returns the per-request timeout as a duration.
func (d DispatchConfig) RequestTimeout() time.Duration {
	return time.Duration(d.RequestTimeoutMs) * time.Millisecond
}

// Schedule triggers a broadcast of Feature on a cron spec.
type Schedule struct {
	Feature string `json:"feature" yaml:"feature"`
	Cron    string `json:"cron" yaml:"cron"`
	Filter  string `json:"filter" yaml:"filter"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Google: GoogleConfig{
			Endpoint: "https://android.googleapis.com/gcm/send",
		},
		Firefox: FirefoxConfig{
			BaseURL: "https://updates.push.services.mozilla.com",
		},
		Dispatch: DispatchConfig{
			TTLSeconds:       60,
			MaxInFlight:      64,
			RatePerSec:       0,
			RequestTimeoutMs: 10_000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	var errs []error
	if c.Google.Endpoint == "" {
		errs = append(errs, errors.New("google.endpoint is required"))
	}
	if c.Firefox.BaseURL == "" {
		errs = append(errs, errors.New("firefox.baseURL is required"))
	}
	if c.Dispatch.MaxInFlight < 0 || c.Dispatch.RatePerSec < 0 || c.Dispatch.RequestTimeoutMs < 0 {
		errs = append(errs, errors.New("dispatch limits must not be negative"))
	}
	for i, s := range c.Schedules {
		if s.Feature == "" {
			errs = append(errs, fmt.Errorf("schedules[%d]: feature is required", i))
		}
		if _, err := cron.ParseStandard(s.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedules[%d]: cron %q: %w", i, s.Cron, err))
		}
	}
	return errors.Join(errs...)
}
