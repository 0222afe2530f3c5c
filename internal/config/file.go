package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// Duration decodes TOML strings such as "15s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type fileConfig struct {
	Port     string `toml:"port"`
	LogLevel string `toml:"log_level"`
	Storage  struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
	} `toml:"storage"`
	Proxy struct {
		Timeout   Duration `toml:"timeout"`
		UserAgent string   `toml:"user_agent"`
	} `toml:"proxy"`
	HeaderRules []dto.HeaderRule `toml:"header_rule"`
	Poller      struct {
		MinInterval Duration `toml:"min_interval"`
	} `toml:"poller"`
	Seeds []models.Widget `toml:"seed"`
}

func (c *Config) loadFile(path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config file %s: unknown keys %v", path, undecoded)
	}

	setIf(&c.Port, fc.Port)
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.StorageBackend, fc.Storage.Backend)
	setIf(&c.StoragePath, fc.Storage.Path)
	setIf(&c.ProxyUserAgent, fc.Proxy.UserAgent)
	if fc.Proxy.Timeout.Duration > 0 {
		c.ProxyTimeout = fc.Proxy.Timeout.Duration
	}
	if fc.Poller.MinInterval.Duration > 0 {
		c.MinInterval = fc.Poller.MinInterval.Duration
	}
	c.HeaderRules = fc.HeaderRules
	c.Seeds = fc.Seeds
	return nil
}
