package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user config, state and log directories
const AppName = "trash"

const (
	DefaultBulkThreshold = 150
	DefaultPreviewLimit  = 10
	DefaultRotationDays  = 30
)

type ConfirmCfg struct {
	BulkThreshold int `yaml:"bulk_threshold" json:"bulk_threshold"` // Counts above this need a double confirmation (default: 150)
}

type PreviewCfg struct {
	Limit int `yaml:"limit" json:"limit"` // Items listed before the "more not shown" line (default: 10)
}

type HistoryCfg struct {
	Enabled       *bool  `yaml:"enabled" json:"enabled"`               // Record runs in SQLite (default: true)
	Path          string `yaml:"path" json:"path"`                     // Database location (default: $XDG_STATE_HOME/trash/history.db)
	RetentionDays int    `yaml:"retention_days" json:"retention_days"` // Prune runs older than this, 0 keeps everything
}

type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // node_exporter textfile output, empty disables
}

type SafetyCfg struct {
	ProtectedPaths []string `yaml:"protected_paths" json:"protected_paths"` // Extra paths that may never be trashed
}

type Config struct {
	Confirm ConfirmCfg `yaml:"confirm" json:"confirm"`
	Preview PreviewCfg `yaml:"preview" json:"preview"`
	History HistoryCfg `yaml:"history" json:"history"`
	Logging LoggingCfg `yaml:"logging" json:"logging"`
	Metrics MetricsCfg `yaml:"metrics" json:"metrics"`
	Safety  SafetyCfg  `yaml:"safety" json:"safety"`
}

var (
	errInvalidPath      = errors.New("path must be absolute")
	errInvalidThreshold = errors.New("confirm.bulk_threshold must be at least 1")
	errNegativePreview  = errors.New("preview.limit cannot be negative")
	errNegativeRetain   = errors.New("history.retention_days cannot be negative")
)

// DefaultPath is the config file looked up when --config is not given
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// StateDir holds the history database and the log file
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	// Defaults alone always validate.
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to defaults otherwise
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file is a valid, all-defaults config.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Confirm.BulkThreshold < 0 {
		return errInvalidThreshold
	}
	if c.Confirm.BulkThreshold == 0 {
		c.Confirm.BulkThreshold = DefaultBulkThreshold
	}

	if c.Preview.Limit < 0 {
		return errNegativePreview
	}
	if c.Preview.Limit == 0 {
		c.Preview.Limit = DefaultPreviewLimit
	}

	if c.History.Enabled == nil {
		enabled := true
		c.History.Enabled = &enabled
	}
	if c.History.RetentionDays < 0 {
		return errNegativeRetain
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(StateDir(), "history.db")
	} else {
		cp, err := cleanAbsolute(c.History.Path)
		if err != nil {
			return fmt.Errorf("history.path: %w", err)
		}
		c.History.Path = cp
	}

	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = DefaultRotationDays
	}

	if c.Metrics.Textfile != "" {
		cp, err := cleanAbsolute(c.Metrics.Textfile)
		if err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
		c.Metrics.Textfile = cp
	}

	cleaned := make([]string, 0, len(c.Safety.ProtectedPaths))
	for _, p := range c.Safety.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("safety.protected_paths: %w", err)
		}
		cleaned = append(cleaned, cp)
	}
	c.Safety.ProtectedPaths = cleaned

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

// HistoryEnabled reports whether runs are recorded
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}
