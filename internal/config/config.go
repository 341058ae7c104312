package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file created by `tally init`.
const FileName = "tally.yaml"

// Environment overrides applied by Load.
const (
	EnvDBPath  = "TALLY_DB_PATH"
	EnvLogMode = "TALLY_LOG_MODE"
	EnvAddr    = "TALLY_ADDR"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Fiscal   FiscalConfig   `yaml:"fiscal"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Audit    AuditConfig    `yaml:"audit"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name       string `yaml:"name"`
	EntityType string `yaml:"entity_type"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// StorageConfig locates the ledger database. Relative paths resolve
// against the directory holding tally.yaml.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls `tally serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig selects the logger: "debug" for console output, anything else
// for JSON.
type LogConfig struct {
	Mode string `yaml:"mode"`
}

// AuditConfig controls the CSV audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Load reads a tally.yaml file from disk, then applies a .env file from the
// same directory and environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg.applyEnv()

	cfg.Storage.Path = resolve(filepath.Dir(path), cfg.Storage.Path)
	cfg.Audit.Dir = resolve(filepath.Dir(path), cfg.Audit.Dir)
	return &cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDBPath)); v != "" {
		c.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogMode)); v != "" {
		c.Log.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddr)); v != "" {
		c.Server.Addr = v
	}
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Validate checks the fields the engine cannot run without.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Fiscal.YearStart != "" && !validYearStart(c.Fiscal.YearStart) {
		return fmt.Errorf("fiscal.year_start %q must be MM-DD", c.Fiscal.YearStart)
	}
	return nil
}

func validYearStart(s string) bool {
	var m, d int
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	if _, err := fmt.Sscanf(s, "%02d-%02d", &m, &d); err != nil {
		return false
	}
	return m >= 1 && m <= 12 && d >= 1 && d <= 31
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(businessName, entityType string) *Config {
	return &Config{
		Business: BusinessConfig{
			Name:       businessName,
			EntityType: entityType,
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Storage: StorageConfig{
			Path: "data/ledger.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Mode: "release",
		},
		Audit: AuditConfig{
			Enabled: true,
			Dir:     "logs",
		},
	}
}
