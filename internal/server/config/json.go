package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ogpblog/internal/flagx"
	"github.com/dmitrijs2005/ogpblog/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Duration fields accept
// "180s" style strings or integer nanoseconds. Absent fields leave the
// current value untouched.
type JsonConfig struct {
	HTTPAddr           *string         `json:"http_addr"`
	DatabaseDSN        *string         `json:"database_dsn"`
	ImgixDomain        *string         `json:"imgix_domain"`
	RedisURL           *string         `json:"redis_url"`
	CORSAllowedOrigins []string        `json:"cors_allowed_origins"`
	LogLevel           *string         `json:"log_level"`
	PostsCacheTTL      *timex.Duration `json:"posts_cache_ttl"`
	ShutdownTimeout    *timex.Duration `json:"shutdown_timeout"`
	MigrateOnStart     *bool           `json:"migrate_on_start"`
}

// parseJson overlays values from the file named by -c or -config. Without
// either flag it does nothing.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.ImgixDomain, c.ImgixDomain)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogLevel, c.LogLevel)
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}
	if c.PostsCacheTTL != nil {
		config.PostsCacheTTL = c.PostsCacheTTL.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
