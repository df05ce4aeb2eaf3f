// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Every component of the
// notification core declares its own Config struct with `env` and
// `envDefault` tags; Load parses each type once and caches the result.
//
//	var cfg alerts.Config
//	config.MustLoad(&cfg)
//
// Sentinel errors (ErrParsingConfig, ErrLoadingEnvFile, ErrNilPointer) can be
// matched with errors.Is.
package config
