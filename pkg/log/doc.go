// Package log provides pushsub's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records flow through a log/slog handler
// into a Formatter (text or JSON) and one or more Outputs.
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("dispatch"), log.Str("provider", "google"))
//	l.Info("batch sent", log.Int("ids", 50))
//
// ApplyConfig builds a logger from a declarative Config, including key
// redaction (useful for API keys) and per-message sampling.
//
// RedirectStdLog routes the standard library logger, which Pebble writes
// to, through a Logger.
package log
