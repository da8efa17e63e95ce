// Copyright 2026 The Memex Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/memex-foundation/memex/lib/resource"
)

// Config is the master configuration for memex.
type Config struct {
	// Vault configures which vault commands operate on by default and
	// how resources are identified.
	Vault VaultConfig `yaml:"vault"`

	// Versioning configures the multi-machine versioned files that
	// back every store under the reserved folder.
	Versioning VersioningConfig `yaml:"versioning"`

	// Previews configures the generated preview cache.
	Previews PreviewsConfig `yaml:"previews"`

	// Watch configures the filesystem watcher.
	Watch WatchConfig `yaml:"watch"`
}

// VaultConfig configures vault location and resource identity.
type VaultConfig struct {
	// Root is the default vault root used when a command is given no
	// explicit path. Supports ${HOME} expansion.
	Root string `yaml:"root"`

	// Digest names the content digest used for resource identifiers.
	// Values: "blake3" (default) or "xxh64". All devices sharing a
	// vault must agree on this.
	Digest string `yaml:"digest"`
}

// VersioningConfig configures versioned-file behavior.
type VersioningConfig struct {
	// Retention is how many versions of each store file are kept on
	// disk. Older versions are pruned after every successful commit.
	// Default: 10.
	Retention uint64 `yaml:"retention"`

	// MaxAttempts bounds the retry loop of read-modify-write
	// operations under contention. Default: 100.
	MaxAttempts int `yaml:"max_attempts"`
}

// PreviewsConfig configures the preview cache.
type PreviewsConfig struct {
	// Compression selects the payload compression. Values: "auto"
	// (probe per payload, default), "none", "lz4", "zstd".
	Compression string `yaml:"compression"`
}

// WatchConfig configures reactive index maintenance.
type WatchConfig struct {
	// Enabled turns the filesystem watcher on for long-running
	// commands. Default: true.
	Enabled bool `yaml:"enabled"`
}

// Default returns the default configuration. These defaults are a
// working setup on their own; a config file only needs to state what
// differs.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			Root:   "${HOME}/memex",
			Digest: "blake3",
		},
		Versioning: VersioningConfig{
			Retention:   10,
			MaxAttempts: 100,
		},
		Previews: PreviewsConfig{
			Compression: "auto",
		},
		Watch: WatchConfig{
			Enabled: true,
		},
	}
}

// Load loads configuration from the file named by the MEMEX_CONFIG
// environment variable. When the variable is unset the defaults are
// returned, so memex works without any config file at all.
func Load() (*Config, error) {
	configPath := os.Getenv("MEMEX_CONFIG")
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth: environment variables do not
// override config values. The only expansion performed is ${HOME} and
// similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Vault.Root = expandVars(c.Vault.Root, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Vault.Root == "" {
		errs = append(errs, fmt.Errorf("vault.root is required"))
	}
	if _, err := resource.DigestByName(c.Vault.Digest); err != nil {
		errs = append(errs, fmt.Errorf("vault.digest: %w", err))
	}

	if c.Versioning.Retention < 1 {
		errs = append(errs, fmt.Errorf("versioning.retention must be at least 1"))
	}
	if c.Versioning.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("versioning.max_attempts must be at least 1"))
	}

	switch c.Previews.Compression {
	case "auto", "none", "lz4", "zstd":
	default:
		errs = append(errs, fmt.Errorf("previews.compression must be auto, none, lz4 or zstd"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Digest returns the configured content digest.
func (c *Config) Digest() (resource.Digest, error) {
	return resource.DigestByName(c.Vault.Digest)
}
