// Package config loads yesand's settings from ~/.yesand/config.json, with
// YESAND_* environment variables taking precedence over the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Graphics modes for the image reveal.
const (
	GraphicsAuto   = "auto"
	GraphicsKitty  = "kitty"
	GraphicsBlocks = "blocks"
)

// DefaultAPIBase is where the scene backend listens when nothing else is set.
const DefaultAPIBase = "http://localhost:8000"

// Config holds the yesand configuration.
type Config struct {
	APIBase     string `json:"api_base" env:"YESAND_API_BASE"`
	Language    string `json:"language,omitempty" env:"YESAND_LANG"`
	DownloadDir string `json:"download_dir" env:"YESAND_DOWNLOAD_DIR"`
	Graphics    string `json:"graphics" env:"YESAND_GRAPHICS"`       // auto, kitty or blocks
	RevealSize  int    `json:"reveal_size" env:"YESAND_REVEAL_SIZE"` // edge of the revealed frame in pixels
	Markdown    bool   `json:"markdown" env:"YESAND_MARKDOWN"`       // render finished replies as markdown
	MetricsAddr string `json:"metrics_addr,omitempty" env:"YESAND_METRICS_ADDR"`
	LogLevel    string `json:"log_level,omitempty" env:"YESAND_LOG_LEVEL"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:     DefaultAPIBase,
		DownloadDir: defaultDownloadDir(),
		Graphics:    GraphicsAuto,
		RevealSize:  512,
		Markdown:    true,
		LogLevel:    "info",
	}
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Downloads"
	}
	return filepath.Join(home, "Downloads")
}

// Dir returns the path to the .yesand directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".yesand"), nil
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file, writing the defaults there on first run.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// A read-only home still gets a working default config.
		_ = SaveFile(path, Default())
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config: %w", err)
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config environment: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	c.Graphics = strings.ToLower(strings.TrimSpace(c.Graphics))
	switch c.Graphics {
	case "":
		c.Graphics = GraphicsAuto
	case GraphicsAuto, GraphicsKitty, GraphicsBlocks:
	default:
		return fmt.Errorf("graphics must be auto, kitty or blocks, got %q", c.Graphics)
	}
	if c.RevealSize <= 0 {
		c.RevealSize = 512
	}
	if strings.HasPrefix(c.DownloadDir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			c.DownloadDir = filepath.Join(home, c.DownloadDir[2:])
		}
	}
	if c.DownloadDir == "" {
		c.DownloadDir = defaultDownloadDir()
	}
	return nil
}

// Save writes cfg to the default config path.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile writes cfg to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
