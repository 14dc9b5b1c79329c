package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MEASUREBOARD_CONFIG is set
//  3. env (prefix MEASUREBOARD_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MEASUREBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MEASUREBOARD_BASE_URL, MEASUREBOARD_FETCH_LIMIT, ...
	// Underscores are preserved so env keys line up with koanf tags.
	envProvider := env.Provider("MEASUREBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "measureboard_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case c.FetchLimit <= 0:
		return fmt.Errorf("%w: fetch_limit must be positive", ErrInvalidConfig)
	case c.SeriesPageLimit <= 0:
		return fmt.Errorf("%w: series_page_limit must be positive", ErrInvalidConfig)
	case c.RequestTimeoutSeconds <= 0:
		return fmt.Errorf("%w: request_timeout_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
