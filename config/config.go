package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Ledger configuration
	StartingBalance int64 // Balance credited to newly provisioned accounts

	// Promotional event configuration (static fallback provider).
	// The event scheduler itself lives outside this service; these values
	// configure the boost returned when no live provider is attached.
	EventMultiplier float64
	EventFlatBonus  int64
	EventID         int64 // 0 means no event is active

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables.
// A .env file is honored when present so local development matches
// the containerized deployment.
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Ledger settings with defaults
		StartingBalance: 1000,
		EventMultiplier: 1.0,
		EventFlatBonus:  0,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsedBalance, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsedBalance
		}
	}
	if multiplier := os.Getenv("EVENT_MULTIPLIER"); multiplier != "" {
		if parsedMultiplier, err := strconv.ParseFloat(multiplier, 64); err == nil && parsedMultiplier >= 1 {
			config.EventMultiplier = parsedMultiplier
		}
	}
	if flat := os.Getenv("EVENT_FLAT_BONUS"); flat != "" {
		if parsedFlat, err := strconv.ParseInt(flat, 10, 64); err == nil && parsedFlat >= 0 {
			config.EventFlatBonus = parsedFlat
		}
	}
	if eventID := os.Getenv("EVENT_ID"); eventID != "" {
		if parsedID, err := strconv.ParseInt(eventID, 10, 64); err == nil {
			config.EventID = parsedID
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}
