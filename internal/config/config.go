// Package config loads nodeflow's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Config holds nodeflow configuration.
type Config struct {
	Storage  StorageConfig  `toml:"storage"`
	Autosave AutosaveConfig `toml:"autosave"`
	Minimap  MinimapConfig  `toml:"minimap"`
	Canvas   CanvasConfig   `toml:"canvas"`
	Log      LogConfig      `toml:"log"`
	MCP      MCPConfig      `toml:"mcp"`
}

// StorageConfig controls where workflows are kept.
type StorageConfig struct {
	DataDir string `toml:"data_dir" validate:"required"`
}

// AutosaveConfig controls periodic saving of the open workflow.
type AutosaveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule" validate:"required_if=Enabled true,cronspec"`
}

// MinimapConfig is the overview panel geometry, in pixels.
type MinimapConfig struct {
	Width   float64 `toml:"width" validate:"gt=0,lte=2000"`
	Height  float64 `toml:"height" validate:"gt=0,lte=2000"`
	Padding float64 `toml:"padding" validate:"gte=0"`
}

// CanvasConfig is the initial canvas viewport before the window reports its size.
type CanvasConfig struct {
	ViewportWidth  float64 `toml:"viewport_width" validate:"gt=0"`
	ViewportHeight float64 `toml:"viewport_height" validate:"gt=0"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// MCPConfig controls the MCP tool server.
type MCPConfig struct {
	Name            string   `toml:"name" validate:"required"`
	ApprovalTimeout Duration `toml:"approval_timeout" validate:"gt=0"`
}

// Duration is a time.Duration written as a string ("90s", "2m") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Storage:  StorageConfig{DataDir: defaultDataDir()},
		Autosave: AutosaveConfig{Enabled: true, Schedule: "@every 30s"},
		Minimap:  MinimapConfig{Width: 200, Height: 140, Padding: 40},
		Canvas:   CanvasConfig{ViewportWidth: 1440, ViewportHeight: 900},
		Log:      LogConfig{Level: "info"},
		MCP:      MCPConfig{Name: "nodeflow-mcp", ApprovalTimeout: Duration(120 * time.Second)},
	}
}

// ConfigDir returns the nodeflow config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "nodeflow")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "nodeflow")
}

// DataDir returns the storage directory with a leading "~" expanded.
func (c *Config) DataDir() string {
	dir := c.Storage.DataDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	return dir
}

// DBPath returns the SQLite database file path.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir(), "nodeflow.db")
}

// Load reads the config at path. A missing file yields the defaults; a file
// that does not parse or validate is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return Save(path, Default())
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		spec := fl.Field().String()
		if spec == "" {
			return true
		}
		_, err := cron.ParseStandard(spec)
		return err == nil
	})
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
