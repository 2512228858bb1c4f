package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

const (
	defaultAPIBaseURL      = "https://api.ripplestream.app/v1"
	defaultWindowThreshold = 200
	defaultWindowRadius    = 25
)

// Config holds runtime settings for the CLI app.
type Config struct {
	Token           string
	APIBaseURL      string
	DBPath          string
	WindowThreshold int
	WindowRadius    int
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Token:      os.Getenv("RIPPLE_TOKEN"),
		APIBaseURL: os.Getenv("RIPPLE_API_BASE_URL"),
		DBPath:     os.Getenv("RIPPLE_DB_PATH"),
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "ripple.db"
	}

	var err error
	cfg.WindowThreshold, err = intFromEnv("RIPPLE_WINDOW_THRESHOLD", defaultWindowThreshold)
	if err != nil {
		return Config{}, err
	}
	cfg.WindowRadius, err = intFromEnv("RIPPLE_WINDOW_RADIUS", defaultWindowRadius)
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Token == "" {
		return errors.New("RIPPLE_TOKEN is required")
	}
	if c.APIBaseURL == "" {
		return errors.New("APIBaseURL is required")
	}
	if c.APIBaseURL[len(c.APIBaseURL)-1] == '/' {
		return fmt.Errorf("APIBaseURL must not end with '/': %s", c.APIBaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.WindowThreshold < 1 {
		return fmt.Errorf("WindowThreshold must be at least 1: %d", c.WindowThreshold)
	}
	if c.WindowRadius < 1 {
		return fmt.Errorf("WindowRadius must be at least 1: %d", c.WindowRadius)
	}
	return nil
}

func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", name, raw)
	}
	return n, nil
}
