package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Market data source configuration
	GammaAPIURL string
	Tag         string

	// Session configuration
	MaxQuestions     int
	MaxTimeDeltaDays int
	StartingBudget   float64

	// Environment
	Environment string // "development" or "production"
}

// Load reads configuration from environment variables, after loading a .env
// file if one is present. Missing variables fall back to defaults; only the
// database URL is required.
func Load() (*Config, error) {
	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		GammaAPIURL: "https://gamma-api.polymarket.com",
		Tag:         "Politics",

		MaxQuestions:     10,
		MaxTimeDeltaDays: 30,
		StartingBudget:   1000,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Override defaults if environment variables are set
	if url := os.Getenv("GAMMA_API_URL"); url != "" {
		config.GammaAPIURL = url
	}
	if tag := os.Getenv("TALLY_TAG"); tag != "" {
		config.Tag = tag
	}
	if limit := os.Getenv("MAX_QUESTIONS"); limit != "" {
		if parsed, err := strconv.Atoi(limit); err == nil && parsed > 0 {
			config.MaxQuestions = parsed
		}
	}
	if days := os.Getenv("MAX_TIME_DELTA_DAYS"); days != "" {
		if parsed, err := strconv.Atoi(days); err == nil && parsed > 0 {
			config.MaxTimeDeltaDays = parsed
		}
	}
	if budget := os.Getenv("STARTING_BUDGET"); budget != "" {
		if parsed, err := strconv.ParseFloat(budget, 64); err == nil && parsed >= 0 {
			config.StartingBudget = parsed
		}
	}

	return config, nil
}
