// Package config handles layoutsync configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/layoutsync/internal/doc"
)

// FileName is the config file looked up in the project root.
const FileName = ".layoutsync.yaml"

// Key generators accepted by Config.Keys.
const (
	KeysUUID     = "uuid"
	KeysSequence = "sequence"
)

// Config is the top-level layoutsync configuration.
type Config struct {
	DB             string   `yaml:"db"`
	Formats        []string `yaml:"formats,omitempty"`
	MaxFileSize    int64    `yaml:"max_file_size"`
	AllXML         bool     `yaml:"all_xml"`
	CheckIntegrity bool     `yaml:"check_integrity"`
	LogLevel       string   `yaml:"log_level"`
	Workers        int      `yaml:"workers,omitempty"`
	Keys           string   `yaml:"keys"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Load reads path when it exists and falls back to Default otherwise.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Path returns the config file location for a project root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

func (c *Config) applyDefaults() {
	if c.DB == "" {
		c.DB = filepath.Join(".layoutsync", "state.db")
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 1 << 20
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Keys == "" {
		c.Keys = KeysUUID
	}
}

// Validate rejects unknown formats, key generators and log levels.
func (c *Config) Validate() error {
	known := doc.Names()
	for _, f := range c.Formats {
		if !slices.Contains(known, f) {
			return fmt.Errorf("unknown format %q (known: %v)", f, known)
		}
	}
	if c.Keys != KeysUUID && c.Keys != KeysSequence {
		return fmt.Errorf("unknown key generator %q", c.Keys)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Marshal encodes the config as YAML. Workers is left out so the file does
// not pin the worker count to the machine that wrote it.
func (c *Config) Marshal() ([]byte, error) {
	out := *c
	out.Workers = 0
	return yaml.Marshal(&out)
}
