package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors Config for TOML files. Durations are written as Go
// duration strings ("30s", "2h").
type fileConfig struct {
	Server struct {
		Host            string `toml:"host"`
		Port            int    `toml:"port"`
		ReadTimeout     string `toml:"read_timeout"`
		WriteTimeout    string `toml:"write_timeout"`
		IdleTimeout     string `toml:"idle_timeout"`
		ShutdownTimeout string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Logger struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logger"`
	Security struct {
		EnableRateLimit *bool    `toml:"rate_limit_enabled"`
		RateLimitRPS    int      `toml:"rate_limit_rps"`
		RateLimitBurst  int      `toml:"rate_limit_burst"`
		AllowedOrigins  []string `toml:"allowed_origins"`
		TrustedProxies  []string `toml:"trusted_proxies"`
		SecureCookies   *bool    `toml:"secure_cookies"`
	} `toml:"security"`
	Upload struct {
		MaxBytes int64 `toml:"max_bytes"`
	} `toml:"upload"`
	Cache struct {
		MaxDatasets int    `toml:"max_datasets"`
		TTL         string `toml:"ttl"`
	} `toml:"cache"`
	Dashboard struct {
		MaxTableRows int `toml:"max_table_rows"`
	} `toml:"dashboard"`
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.applyTOML(data)
}

// applyTOML overlays the values present in data; absent keys keep their
// current value.
func (c *Config) applyTOML(data []byte) error {
	var f fileConfig
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode toml: %w", err)
	}

	setString(&c.Server.Host, f.Server.Host)
	setInt(&c.Server.Port, f.Server.Port)
	if err := setDuration(&c.Server.ReadTimeout, f.Server.ReadTimeout, "server.read_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.WriteTimeout, f.Server.WriteTimeout, "server.write_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.IdleTimeout, f.Server.IdleTimeout, "server.idle_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.ShutdownTimeout, f.Server.ShutdownTimeout, "server.shutdown_timeout"); err != nil {
		return err
	}

	setString(&c.Logger.Level, f.Logger.Level)
	setString(&c.Logger.Format, f.Logger.Format)

	if f.Security.EnableRateLimit != nil {
		c.Security.EnableRateLimit = *f.Security.EnableRateLimit
	}
	if f.Security.SecureCookies != nil {
		c.Security.SecureCookies = *f.Security.SecureCookies
	}
	setInt(&c.Security.RateLimitRPS, f.Security.RateLimitRPS)
	setInt(&c.Security.RateLimitBurst, f.Security.RateLimitBurst)
	if len(f.Security.AllowedOrigins) > 0 {
		c.Security.AllowedOrigins = f.Security.AllowedOrigins
	}
	if len(f.Security.TrustedProxies) > 0 {
		c.Security.TrustedProxies = f.Security.TrustedProxies
	}

	if f.Upload.MaxBytes > 0 {
		c.Upload.MaxBytes = f.Upload.MaxBytes
	}
	setInt(&c.Cache.MaxDatasets, f.Cache.MaxDatasets)
	if err := setDuration(&c.Cache.TTL, f.Cache.TTL, "cache.ttl"); err != nil {
		return err
	}
	setInt(&c.Dashboard.MaxTableRows, f.Dashboard.MaxTableRows)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, key string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
