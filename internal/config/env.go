package config

import (
	"os"
	"strconv"
)

// FromEnv overlays PUSHSUB_* environment variables onto cfg. GCM_API_KEY is
// honored for deployments that predate the prefixed name; PUSHSUB_GCM_API_KEY
// wins when both are set.
func FromEnv(cfg *Config) {
	if v := os.Getenv("GCM_API_KEY"); v != "" {
		cfg.Google.APIKey = v
	}
	if v := os.Getenv("PUSHSUB_GCM_API_KEY"); v != "" {
		cfg.Google.APIKey = v
	}
	if v := os.Getenv("PUSHSUB_GOOGLE_ENDPOINT"); v != "" {
		cfg.Google.Endpoint = v
	}
	if v := os.Getenv("PUSHSUB_FIREFOX_BASE_URL"); v != "" {
		cfg.Firefox.BaseURL = v
	}
	setInt("PUSHSUB_DISPATCH_TTL_SECONDS", &cfg.Dispatch.TTLSeconds)
	setInt("PUSHSUB_DISPATCH_MAX_IN_FLIGHT", &cfg.Dispatch.MaxInFlight)
	setInt("PUSHSUB_DISPATCH_RATE_PER_SEC", &cfg.Dispatch.RatePerSec)
	setInt("PUSHSUB_DISPATCH_TIMEOUT_MS", &cfg.Dispatch.RequestTimeoutMs)
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
