// Package config loads the application's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds command-line level application settings.
type AppConfig struct {
	ConfigPath string // Path to the YAML config file.
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Listen address, e.g. ":8080".
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // SQLite path or PostgreSQL DSN.
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`        // Empty means stdout only.
	MaxSizeMB  int    `yaml:"max-size"`    // Rotate after this many megabytes.
	MaxBackups int    `yaml:"max-backups"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max-age"`     // Days to keep rotated files.
}

// BootstrapConfig holds the seeded administrator credentials.
type BootstrapConfig struct {
	AdminEmail    string `yaml:"admin-email"`
	AdminPassword string `yaml:"admin-password"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// DefaultConfigPath is used when no config path is supplied.
const DefaultConfigPath = "config.yaml"

// ResolveConfigPath returns the effective config file path, honoring the
// MESSMATE_CONFIG environment variable when the argument is empty.
func ResolveConfigPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed != "" {
		return trimmed
	}
	if env := strings.TrimSpace(os.Getenv("MESSMATE_CONFIG")); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Load reads and validates the config file, applying defaults for optional
// sections. A missing file yields the defaults so the binary runs out of the
// box against a local SQLite database, but the JWT secret has no safe default
// and must come from the file or the MESSMATE_JWT_SECRET environment variable.
func Load(path string) (Config, error) {
	cfg := Config{
		Server:   ServerConfig{Listen: ":8080"},
		Database: DatabaseConfig{DSN: "data/messmate.db"},
		JWT:      JWTConfig{Expiry: 24 * time.Hour},
		Log:      LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}

	raw, errRead := os.ReadFile(path)
	if errRead != nil && !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
	}
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(raw, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
		}
	}

	applyEnvOverrides(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return Config{}, fmt.Errorf("config: empty database dsn")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return Config{}, fmt.Errorf("config: empty jwt secret")
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = 24 * time.Hour
	}
	return cfg, nil
}

// applyEnvOverrides lets deploy environments override file values.
func applyEnvOverrides(cfg *Config) {
	if dsn := strings.TrimSpace(os.Getenv("MESSMATE_DATABASE_DSN")); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if secret := strings.TrimSpace(os.Getenv("MESSMATE_JWT_SECRET")); secret != "" {
		cfg.JWT.Secret = secret
	}
	if listen := strings.TrimSpace(os.Getenv("MESSMATE_LISTEN")); listen != "" {
		cfg.Server.Listen = listen
	}
}

// LoadDatabaseDSN loads only the database DSN from the config file.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := Load(path)
	if err != nil {
		return "", err
	}
	return cfg.Database.DSN, nil
}

// LoadJWTConfig loads only the JWT section from the config file.
func LoadJWTConfig(path string) (JWTConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return JWTConfig{}, err
	}
	return cfg.JWT, nil
}
