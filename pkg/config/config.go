package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"originfunc/pkg/validator"

	"github.com/joho/godotenv"
)

const (
	// EventFormatV1 selects REST API (payload 1.0) proxy events
	EventFormatV1 = "v1"
	// EventFormatV2 selects HTTP API (payload 2.0) events
	EventFormatV2 = "v2"

	defaultSubdomain = "appname"
	defaultPort      = "3000"
)

// Config is read once at cold start and never modified afterwards
type Config struct {
	Subdomain   string
	Debug       bool
	EventFormat string
	LocalPort   string
}

// Load reads a .env file if one is present and then the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{
		Subdomain:   strings.TrimSpace(getEnv("FUNC_SUBDOMAIN", defaultSubdomain)),
		EventFormat: strings.ToLower(getEnv("FUNC_EVENT_FORMAT", EventFormatV1)),
		LocalPort:   getEnv("FUNC_LOCAL_PORT", defaultPort),
	}

	debug, err := getEnvBool("FUNC_DEBUG", false)
	if err != nil {
		return nil, err
	}
	cfg.Debug = debug

	if err := cfg.check(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validator returns the origin validator settings held in c
func (c *Config) Validator() validator.Config {
	return validator.Config{Subdomain: c.Subdomain}
}

func (c *Config) check() error {
	if err := c.Validator().Check(); err != nil {
		return fmt.Errorf("FUNC_SUBDOMAIN: %w", err)
	}

	if c.EventFormat != EventFormatV1 && c.EventFormat != EventFormatV2 {
		return fmt.Errorf("FUNC_EVENT_FORMAT must be %q or %q, got %q", EventFormatV1, EventFormatV2, c.EventFormat)
	}

	if _, err := strconv.ParseUint(c.LocalPort, 10, 16); err != nil {
		return fmt.Errorf("FUNC_LOCAL_PORT invalid: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s invalid: %w", key, err)
	}
	return b, nil
}
