// Package config loads the project-level compiler configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "bminor.yaml"

// ToolchainConfig names the external tools the driver invokes.
type ToolchainConfig struct {
	Nasm string `yaml:"nasm"`
	CC   string `yaml:"cc"`
}

// CacheConfig controls the build cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Config is the full compiler configuration.
type Config struct {
	// Output is the default executable name when -o is not given.
	Output string `yaml:"output"`
	// AsmFile is where the generated assembly is written.
	AsmFile string `yaml:"asm_file"`
	// LogLevel is the minimum diagnostic level (debug/info/warn/error).
	LogLevel string `yaml:"log_level"`
	// LogFormat selects text or json diagnostics.
	LogFormat string `yaml:"log_format"`

	Toolchain ToolchainConfig `yaml:"toolchain"`
	Cache     CacheConfig     `yaml:"cache"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Output:    "out",
		AsmFile:   "asem.asm",
		LogLevel:  "warn",
		LogFormat: "text",
		Toolchain: ToolchainConfig{
			Nasm: "nasm",
			CC:   "cc",
		},
		Cache: CacheConfig{
			Enabled: false,
			Path:    ".bminor-cache.db",
		},
	}
}

// Load reads a YAML config file, layering it over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads a config file if it exists, falling back to defaults
// when it does not. A present-but-invalid file is still an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(path)
}
