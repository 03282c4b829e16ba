package log

import (
	"fmt"
	"strings"
)

// Config declares how a process logger is built.
type Config struct {
	// Level is one of debug|info|warn|error.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
	// Output is console (default), file, or null.
	Output string `json:"output" yaml:"output"`
	// File is the target path when Output is file.
	File string `json:"file" yaml:"file"`
	// Redact lists field keys whose values are replaced with [REDACTED].
	Redact []string `json:"redact" yaml:"redact"`
	// SampleInitial and SampleThereafter enable per-message sampling when
	// SampleThereafter > 0.
	SampleInitial    int `json:"sampleInitial" yaml:"sampleInitial"`
	SampleThereafter int `json:"sampleThereafter" yaml:"sampleThereafter"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	var output Output
	switch strings.ToLower(cfg.Output) {
	case "", "console", "stderr":
		output = NewConsoleOutput()
	case "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("log: output=file requires a file path")
		}
		fo, err := NewFileOutput(cfg.File)
		if err != nil {
			return nil, err
		}
		output = fo
	case "null", "none":
		output = NullOutput{}
	default:
		return nil, fmt.Errorf("log: unknown output %q", cfg.Output)
	}

	l := NewLogger(WithLevel(level), WithFormatter(formatter), WithOutput(output)).(*BaseLogger)
	l.handler = l.handler.withRedactions(cfg.Redact).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	return l, nil
}
