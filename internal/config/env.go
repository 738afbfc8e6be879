package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "BATTLESIM_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields of s that have a BATTLESIM_* variable set.
// Fields without a variable keep their current value.
func ApplyEnv(s *Settings) error {
	if err := env.ParseWithOptions(s, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
