package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

// readDotEnv parses a .env file without touching the process environment.
// A missing file yields an empty map.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

// chainLookup prefers the real environment over .env values.
func chainLookup(lookup func(string) (string, bool), dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

// parseEnv overlays values from environment variables.
//
//	DATABASE_URL          PostgreSQL DSN
//	IMGIX_URL             Imgix source domain
//	HTTP_ADDR             bind address; PORT is used as ":PORT" when HTTP_ADDR is unset
//	REDIS_URL             Redis URL for the posts cache
//	CORS_ALLOWED_ORIGINS  comma separated origins
//	LOG_LEVEL             log level
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := get("IMGIX_URL"); ok {
		config.ImgixDomain = v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		config.HTTPAddr = v
	} else if v, ok := get("PORT"); ok {
		config.HTTPAddr = ":" + v
	}
	if v, ok := get("REDIS_URL"); ok {
		config.RedisURL = v
	}
	if v, ok := get("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
