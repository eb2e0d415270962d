// Package config loads the operator bot configuration from a YAML file
// with environment-variable overrides (BOT_TOKEN, ADMIN_ID, DATA_DIR),
// so existing .env deployments keep working without a config file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Backend selects the snapshot store implementation.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// BotToken authenticates the operator bot against the chat transport.
	BotToken string `yaml:"bot_token"`

	// AdminID is the single operator identity. Every mutating request
	// from any other identity is denied.
	AdminID int64 `yaml:"admin_id"`

	// DataDir holds the snapshot files (or the sqlite database).
	DataDir string `yaml:"data_dir"`

	// Store is the backend: "file" (default) or "sqlite".
	Store string `yaml:"store"`
}

// Load reads the YAML file at path (optional, may be empty) and applies
// env overrides, then validates.
func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir: "data",
		Store:   BackendFile,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse ADMIN_ID: %w", err)
		}
		cfg.AdminID = id
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("config: bot_token is required (or BOT_TOKEN env)")
	}
	if c.AdminID == 0 {
		return fmt.Errorf("config: admin_id is required (or ADMIN_ID env)")
	}
	if c.Store != BackendFile && c.Store != BackendSQLite {
		return fmt.Errorf("config: unknown store backend %q", c.Store)
	}
	return nil
}
