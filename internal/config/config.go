// Package config loads settings for the capcode tools from YAML or TOML
// files, with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/capcode/capcode"
)

// Config holds all capcode tool settings.
type Config struct {
	Alphabet  string `yaml:"alphabet" toml:"alphabet"`   // letters, control
	Normalize string `yaml:"normalize" toml:"normalize"` // none, nfc, nfd
	Compress  bool   `yaml:"compress" toml:"compress"`   // write zstd outputs
	Jobs      int    `yaml:"jobs" toml:"jobs"`           // 0 = one per CPU

	Suffixes SuffixConfig  `yaml:"suffixes" toml:"suffixes"`
	Frame    FrameConfig   `yaml:"frame" toml:"frame"`
	Logging  LoggingConfig `yaml:"logging" toml:"logging"`
}

// SuffixConfig names the default outputs of file conversions.
type SuffixConfig struct {
	Encoded string `yaml:"encoded" toml:"encoded"`
	Decoded string `yaml:"decoded" toml:"decoded"`
}

// FrameConfig configures CS1-T framing.
type FrameConfig struct {
	ChunkSize  int  `yaml:"chunk_size" toml:"chunk_size"`
	MaxPayload int  `yaml:"max_payload" toml:"max_payload"`
	CRC        bool `yaml:"crc" toml:"crc"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, text
}

// ValidNormalizations lists the accepted Normalize values.
var ValidNormalizations = []string{"", "none", "nfc", "nfd"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Alphabet:  "letters",
		Normalize: "none",
		Suffixes: SuffixConfig{
			Encoded: ".toknorm",
			Decoded: ".decoded",
		},
		Frame: FrameConfig{
			ChunkSize:  4096,
			MaxPayload: 64 * 1024 * 1024,
			CRC:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML or TOML file, picked by extension.
// A missing file yields the defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := unmarshal(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration, as TOML for .toml paths and YAML otherwise.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CAPCODE_ALPHABET"); v != "" {
		c.Alphabet = v
	}
	if v := os.Getenv("CAPCODE_NORMALIZE"); v != "" {
		c.Normalize = v
	}
	if v := os.Getenv("CAPCODE_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Jobs = n
		}
	}
	if v := os.Getenv("CAPCODE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, ok := capcode.AlphabetByName(c.Alphabet); !ok {
		return fmt.Errorf("invalid alphabet: %q (valid: letters, control)", c.Alphabet)
	}
	if !slices.Contains(ValidNormalizations, strings.ToLower(c.Normalize)) {
		return fmt.Errorf("invalid normalize: %q (valid: none, nfc, nfd)", c.Normalize)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative: %d", c.Jobs)
	}
	if c.Suffixes.Encoded == "" || c.Suffixes.Decoded == "" {
		return fmt.Errorf("output suffixes must not be empty")
	}
	if c.Suffixes.Encoded == c.Suffixes.Decoded {
		return fmt.Errorf("encoded and decoded suffixes must differ: %q", c.Suffixes.Encoded)
	}
	if c.Frame.ChunkSize <= 0 {
		return fmt.Errorf("frame chunk_size must be positive: %d", c.Frame.ChunkSize)
	}
	if c.Frame.MaxPayload < c.Frame.ChunkSize {
		return fmt.Errorf("frame max_payload %d is smaller than chunk_size %d", c.Frame.MaxPayload, c.Frame.ChunkSize)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %q (valid: json, text)", c.Logging.Format)
	}
	return nil
}

// AlphabetValue resolves the configured alphabet name.
func (c *Config) AlphabetValue() capcode.Alphabet {
	a, ok := capcode.AlphabetByName(c.Alphabet)
	if !ok {
		return capcode.DefaultAlphabet
	}
	return a
}
