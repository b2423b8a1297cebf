// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles agent-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (backend client, session store) via constructors.
  - Zero Hidden State: No global variables are used to store config.

The only value the storefront core itself depends on is BackendBaseURL. The rest
configures the local agent process that serves the UI shell.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Session store backends.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Shopie agent.
type Config struct {

	// Remote REST backend
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8081/api"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT"  envDefault:"15s"`

	// Agent server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8090"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Session persistence
	SessionStore string        `env:"SESSION_STORE" envDefault:"redis"`
	RedisURL     string        `env:"REDIS_URL"     envDefault:"redis://localhost:6379/0"`
	SessionTTL   time.Duration `env:"SESSION_TTL"   envDefault:"0s"`
	DeviceID     string        `env:"DEVICE_ID"     envDefault:"default"`

	// Cross-Origin Resource Sharing (comma separated origin suffixes)
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	cfg.BackendBaseURL = strings.TrimRight(cfg.BackendBaseURL, "/")
	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("config: BACKEND_BASE_URL must not be empty")
	}

	switch cfg.SessionStore {
	case SessionStoreRedis, SessionStoreMemory:
	default:
		return nil, fmt.Errorf("config: unknown SESSION_STORE %q", cfg.SessionStore)
	}

	return cfg, nil
}

// IsDevelopment reports whether the agent is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the agent is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// OriginSuffixes returns the trimmed, non-empty entries of AllowedOrigins.
func (c *Config) OriginSuffixes() []string {
	var out []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if clean := strings.TrimSpace(part); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
