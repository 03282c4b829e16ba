// Package config provides loading and environment overlay for pushsub
// configuration: provider endpoints and credentials, dispatch limits, and
// scheduled broadcasts.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/pushsub.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
