package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// OverridesFile is the optional per-project configuration file looked up
// in the base directory. Environment variables always win over it.
const OverridesFile = ".designsync.yml"

// Config holds all configuration for designsync.
type Config struct {
	// ServerURL is the admin endpoint of the target CMS server.
	ServerURL string `env:"CMS_ADMIN_URL"`

	// AppKey is the application key used as a bearer credential on
	// every admin API request.
	AppKey string `env:"CMS_APP_KEY"`

	// Base is the root of the tracked working tree. The hidden tracking
	// directory lives directly underneath it.
	Base string `env:"DESIGNSYNC_BASE" envDefault:"."`

	// Environment controls log format.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// overrides mirrors the subset of Config settable from .designsync.yml.
type overrides struct {
	ServerURL string `yaml:"serverUrl"`
	AppKey    string `yaml:"appKey"`
	Base      string `yaml:"base"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing the app key to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables. It first attempts
// to load a .env file if present, then parses env vars, then fills any
// still-empty fields from .designsync.yml in the base directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.applyOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	// Resolve Base to an absolute path at startup. The classifier and
	// tracking store strip the base prefix with string comparison, which
	// only works reliably with absolute paths.
	absBase, err := filepath.Abs(cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("resolving base to absolute path: %w", err)
	}

	cfg.Base = absBase

	return cfg, nil
}

// applyOverrides fills empty fields from the optional .designsync.yml
// file in the base directory. A missing file is not an error.
func (c *Config) applyOverrides() error {
	base := c.Base
	if base == "" {
		base = "."
	}

	data, err := os.ReadFile(filepath.Join(base, OverridesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("reading %s: %w", OverridesFile, err)
	}

	var o overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parsing %s: %w", OverridesFile, err)
	}

	if c.ServerURL == "" {
		c.ServerURL = o.ServerURL
	}

	if c.AppKey == "" {
		c.AppKey = o.AppKey
	}

	if o.Base != "" && c.Base == "." {
		c.Base = o.Base
	}

	return nil
}

func (c *Config) validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("CMS_ADMIN_URL is required")
	}

	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("CMS_ADMIN_URL must be an http(s) URL")
	}

	if c.AppKey == "" {
		return fmt.Errorf("CMS_APP_KEY is required")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
