package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the workspace-relative config file consulted by Load.
const FileName = ".implscope.yaml"

const (
	BackendLocal   = "local"
	BackendCommand = "command"
)

// Offset encodings a command backend may report in.
const (
	EncodingUTF8  = "utf-8"
	EncodingUTF16 = "utf-16"
)

// Config holds workspace settings for implementation lookups.
type Config struct {
	// Backend selects the hierarchy source: local or command.
	Backend string `yaml:"backend" json:"backend"`

	// Command is the argv of an external hierarchy program. {file} and
	// {offset} are substituted; without placeholders both are appended.
	Command []string `yaml:"command,omitempty" json:"command,omitempty"`

	// OffsetEncoding is the unit of the offsets the command reads and prints:
	// utf-8 (bytes, the default) or utf-16 (code units, as analysis servers
	// speaking the LSP family of protocols report them).
	OffsetEncoding string `yaml:"offset_encoding,omitempty" json:"offset_encoding,omitempty"`

	Include []string `yaml:"include,omitempty" json:"include,omitempty"`

	Ignore []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`

	Concurrency int `yaml:"concurrency" json:"concurrency"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	path string
}

func Default() *Config {
	return &Config{
		Backend:     BackendLocal,
		Concurrency: 4,
		LogLevel:    "info",
	}
}

// Load reads FileName from root. A missing file yields the defaults.
func Load(root string) (*Config, error) {
	return LoadFile(filepath.Join(root, FileName))
}

func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
	case BackendCommand:
		if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
			return errors.New("backend \"command\" requires a command")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be > 0, got %d", c.Concurrency)
	}
	switch c.OffsetEncoding {
	case "", EncodingUTF8, EncodingUTF16:
	default:
		return fmt.Errorf("unknown offset_encoding %q", c.OffsetEncoding)
	}
	switch c.LogLevel {
	case "", "info", "debug":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for _, pattern := range c.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	return nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
