// Package config loads process settings from the environment
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings holds process configuration. Values come from the environment,
// with an optional .env file loaded first.
type Settings struct {
	DatabasePath   string `env:"MEMORYBOX_DB"`
	SearchLimit    int    `env:"MEMORYBOX_SEARCH_LIMIT" envDefault:"10"`
	FuzzyThreshold int    `env:"MEMORYBOX_FUZZY_THRESHOLD" envDefault:"60"`
}

// Load reads settings from .env (when present) and the environment.
// Explicit environment variables win over .env entries.
func Load() (Settings, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return settings, nil
}
