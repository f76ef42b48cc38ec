// Package config loads logstream settings from defaults, a YAML file and
// LOGSTREAM_* environment variables, and applies them to a Stream.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/abyssdigger/logstream"
)

// EnvPrefix is the prefix of the environment variables overriding the file.
const EnvPrefix = "LOGSTREAM_"

// Config is the full logging configuration.
//
// Example file:
//
//	categories: [general, io, network]
//	priority: info
//	file_line: true
//	files:
//	  - path: /var/log/sim/io.log
//	    categories: [io]
//	    priority: debug
//	    rotate: {enabled: true, max_size_mb: 10, max_backups: 3}
type Config struct {
	Categories     []string     `koanf:"categories"`      // global mask, names or "all"
	Priority       string       `koanf:"priority"`        // global threshold
	DeveloperMode  bool         `koanf:"developer_mode"`  // DEV_* levels become WARN/POPUP
	FileLine       bool         `koanf:"file_line"`       // keep file:line of entries
	StartupLogging bool         `koanf:"startup_logging"` // replay early entries to late callbacks
	StartupLimit   int          `koanf:"startup_limit"`   // 0 = unbounded
	Console        bool         `koanf:"console"`         // stderr callback following the global levels
	Fallback       string       `koanf:"fallback"`        // "discard" or "stderr"
	Files          []FileConfig `koanf:"files"`
}

// FileConfig describes one file callback.
type FileConfig struct {
	Path       string       `koanf:"path"`
	Categories []string     `koanf:"categories"`
	Priority   string       `koanf:"priority"`
	Rotate     RotateConfig `koanf:"rotate"`
}

// RotateConfig switches a file callback to size based rotation.
type RotateConfig struct {
	Enabled    bool `koanf:"enabled"`
	MaxSizeMB  int  `koanf:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days"`
	Compress   bool `koanf:"compress"`
}

// Default returns the configuration used when nothing overrides it: every
// category at ALERT and above on the console.
func Default() *Config {
	return &Config{
		Categories: []string{"all"},
		Priority:   logstream.PriorityNames[logstream.DEFAULT_PRIORITY],
		Console:    true,
		Fallback:   "discard",
	}
}

// Load layers the defaults, the YAML file at path (skipped when path is
// empty) and the LOGSTREAM_* environment, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// LOGSTREAM_PRIORITY -> priority, LOGSTREAM_FILE_LINE -> file_line
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Top level keys settable from the environment.
var envKeys = map[string]bool{
	"categories":      true,
	"priority":        true,
	"developer_mode":  true,
	"file_line":       true,
	"startup_logging": true,
	"startup_limit":   true,
	"console":         true,
	"fallback":        true,
}

// envTransformFunc maps LOGSTREAM_FILE_LINE to file_line. Unknown names map
// to "" so koanf skips them.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if envKeys[key] {
		return key
	}
	return ""
}

// Validate checks every name and number, reporting all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.Levels(); err != nil {
		errs = append(errs, err)
	}
	if c.StartupLimit < 0 {
		errs = append(errs, fmt.Errorf("startup_limit must not be negative, got %d", c.StartupLimit))
	}
	switch c.Fallback {
	case "", "discard", "stderr":
	default:
		errs = append(errs, fmt.Errorf("fallback must be \"discard\" or \"stderr\", got %q", c.Fallback))
	}
	for i, fc := range c.Files {
		if fc.Path == "" {
			errs = append(errs, fmt.Errorf("files[%d]: path is empty", i))
		}
		if _, _, err := fc.Levels(); err != nil {
			errs = append(errs, fmt.Errorf("files[%d]: %w", i, err))
		}
		if fc.Rotate.MaxSizeMB < 0 || fc.Rotate.MaxBackups < 0 || fc.Rotate.MaxAgeDays < 0 {
			errs = append(errs, fmt.Errorf("files[%d]: rotation limits must not be negative", i))
		}
	}
	return errors.Join(errs...)
}

// Levels parses the global mask and threshold.
func (c *Config) Levels() (logstream.Category, logstream.Priority, error) {
	return parseLevels(c.Categories, c.Priority)
}

// Levels parses the file callback's mask and threshold.
func (fc *FileConfig) Levels() (logstream.Category, logstream.Priority, error) {
	return parseLevels(fc.Categories, fc.Priority)
}

func parseLevels(categories []string, priority string) (logstream.Category, logstream.Priority, error) {
	cat, err := logstream.ParseCategories(categories...)
	if err != nil {
		return logstream.CAT_NONE, logstream.LVL_UNKNOWN, fmt.Errorf("categories: %w", err)
	}
	prio, err := logstream.ParsePriority(priority)
	if err != nil {
		return logstream.CAT_NONE, logstream.LVL_UNKNOWN, fmt.Errorf("priority: %w", err)
	}
	return cat, prio, nil
}

// FallbackWriter returns the writer named by Fallback.
func (c *Config) FallbackWriter(stderr io.Writer) io.Writer {
	if c.Fallback == "stderr" {
		return stderr
	}
	return io.Discard
}

// Apply sets the global levels and the mode flags of s. It does not touch
// callbacks, so it can be repeated on a live stream (see Watch).
func (c *Config) Apply(s *logstream.Stream) error {
	cat, prio, err := c.Levels()
	if err != nil {
		return err
	}
	s.SetLevels(cat, prio).
		SetDeveloperMode(c.DeveloperMode).
		SetFileLine(c.FileLine).
		SetStartupLoggingEnabled(c.StartupLogging).
		SetStartupLimit(c.StartupLimit)
	return nil
}

// AttachSinks registers the console callback (if enabled) and one callback
// per file entry. Rotating callbacks that fail to set up are reported
// together; plain file callbacks report open errors through their Err.
func (c *Config) AttachSinks(s *logstream.Stream) error {
	if c.Console {
		s.AddConsoleCallback(logstream.NewConsoleCallback(logstream.CAT_ALL, logstream.LVL_BULK))
	}
	var errs []error
	for _, fc := range c.Files {
		cat, prio, err := fc.Levels()
		if err != nil {
			errs = append(errs, fmt.Errorf("file %s: %w", fc.Path, err))
			continue
		}
		if fc.Rotate.Enabled {
			_, err = s.LogToRotatingFile(fc.Path, cat, prio, logstream.RotateOptions{
				MaxSizeMB:  fc.Rotate.MaxSizeMB,
				MaxBackups: fc.Rotate.MaxBackups,
				MaxAgeDays: fc.Rotate.MaxAgeDays,
				Compress:   fc.Rotate.Compress,
			})
		} else {
			err = s.LogToFile(fc.Path, cat, prio).Err()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("file %s: %w", fc.Path, err))
		}
	}
	return errors.Join(errs...)
}

// NewStream builds a stopped stream from the configuration: levels, flags
// and sinks applied, fallback messages going to stderr or nowhere.
func (c *Config) NewStream(stderr io.Writer) (*logstream.Stream, error) {
	cat, prio, err := c.Levels()
	if err != nil {
		return nil, err
	}
	s := logstream.InitWithParams(cat, prio, c.FallbackWriter(stderr))
	if err := c.Apply(s); err != nil {
		return nil, err
	}
	if err := c.AttachSinks(s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
