package config

import (
	"fmt"
	"os"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	Port               string
	LogLevel           string
	DefaultToken       string
	DefaultTokenSecret string
	StorageBackend     string
	StoragePath        string
	ProxyTimeout       time.Duration
	ProxyUserAgent     string
	ConfigFile         string
	HeaderRules        []dto.HeaderRule
	MinInterval        time.Duration
	// Seeds replaces the built-in first-run dashboard when non-empty.
	Seeds []models.Widget
}

// New builds the configuration from defaults, then the optional TOML file
// named by CONFIGFILE, then environment variables.
func New() (*Config, error) {
	cfg := &Config{
		Port:           "8080",
		LogLevel:       "info",
		StorageBackend: BackendFile,
		ProxyTimeout:   15 * time.Second,
		MinInterval:    5 * time.Second,
		ConfigFile:     os.Getenv("CONFIGFILE"),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	fallback := DefaultStoragePath(cfg.StorageBackend)
	if fallback == "" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.StoragePath == "" {
		cfg.StoragePath = fallback
	}
	return cfg, nil
}

// DefaultStoragePath returns the store location used when none is configured,
// or "" for an unknown backend.
func DefaultStoragePath(backend string) string {
	switch backend {
	case BackendFile:
		return "dashboard.json"
	case BackendSQLite:
		return "dashboard.db"
	}
	return ""
}

func (c *Config) loadEnv() error {
	setIf(&c.Port, os.Getenv("PORT"))
	setIf(&c.LogLevel, os.Getenv("LOGLEVEL"))
	setIf(&c.DefaultToken, os.Getenv("FINANCE_API_KEY"))
	setIf(&c.DefaultTokenSecret, os.Getenv("FINANCEAPIKEYSECRET"))
	setIf(&c.StorageBackend, os.Getenv("STORAGEBACKEND"))
	setIf(&c.StoragePath, os.Getenv("STORAGEPATH"))
	setIf(&c.ProxyUserAgent, os.Getenv("PROXYUSERAGENT"))

	if v := os.Getenv("PROXYTIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PROXYTIMEOUT %q: %w", v, err)
		}
		c.ProxyTimeout = d
	}
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
