package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken      string
	AnnounceChannelID string

	// Database configuration
	DatabaseURL string

	// Leaderboard API configuration
	LeaderboardAPIURL   string
	LeaderboardAPIToken string

	// Economy configuration
	StartingBalance int64
	MinWagerAmount  int64
	MaxWagerAmount  int64
	MinBetAmount    int64
	MaxBetAmount    int64

	// Challenge lifecycle configuration
	AcceptanceDeadlineOffset time.Duration // how long a pending challenge waits for acceptance
	BettingWindowOffset      time.Duration // betting closes this long after activation
	MinChallengeDuration     time.Duration
	MaxChallengeDuration     time.Duration

	// HouseGuaranteePercent is the sole-bettor profit guarantee (50 = half the stake)
	HouseGuaranteePercent int64

	// Scheduler configuration
	SweepInterval      time.Duration
	MaxResolveAttempts int

	// Environment
	Environment string // "development" or "production"
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

// NewTestConfig returns a config with the defaults used by unit tests
func NewTestConfig() *Config {
	return &Config{
		StartingBalance:          1000,
		MinWagerAmount:           10,
		MaxWagerAmount:           10000,
		MinBetAmount:             10,
		MaxBetAmount:             5000,
		AcceptanceDeadlineOffset: 24 * time.Hour,
		BettingWindowOffset:      72 * time.Hour,
		MinChallengeDuration:     1 * time.Hour,
		MaxChallengeDuration:     336 * time.Hour,
		HouseGuaranteePercent:    50,
		SweepInterval:            15 * time.Minute,
		MaxResolveAttempts:       8,
		Environment:              "test",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Discord
		DiscordToken:      os.Getenv("DISCORD_TOKEN"),
		AnnounceChannelID: os.Getenv("ANNOUNCE_CHANNEL_ID"),

		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Leaderboard API
		LeaderboardAPIURL:   os.Getenv("LEADERBOARD_API_URL"),
		LeaderboardAPIToken: os.Getenv("LEADERBOARD_API_TOKEN"),

		// Economy defaults
		StartingBalance: 1000,
		MinWagerAmount:  10,
		MaxWagerAmount:  10000,
		MinBetAmount:    10,
		MaxBetAmount:    5000,

		// Lifecycle defaults
		AcceptanceDeadlineOffset: 24 * time.Hour,
		BettingWindowOffset:      72 * time.Hour,
		MinChallengeDuration:     1 * time.Hour,
		MaxChallengeDuration:     336 * time.Hour,
		HouseGuaranteePercent:    50,

		// Scheduler defaults
		SweepInterval:      15 * time.Minute,
		MaxResolveAttempts: 8,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if v := os.Getenv("MIN_WAGER_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinWagerAmount = parsed
		}
	}
	if v := os.Getenv("MAX_WAGER_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxWagerAmount = parsed
		}
	}
	if v := os.Getenv("MIN_BET_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinBetAmount = parsed
		}
	}
	if v := os.Getenv("MAX_BET_AMOUNT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxBetAmount = parsed
		}
	}
	if v := os.Getenv("HOUSE_GUARANTEE_PERCENT"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.HouseGuaranteePercent = parsed
		}
	}
	if v := os.Getenv("SWEEP_INTERVAL_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.SweepInterval = time.Duration(parsed) * time.Minute
		}
	}
	if v := os.Getenv("MAX_RESOLVE_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.MaxResolveAttempts = parsed
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
		if config.LeaderboardAPIURL == "" {
			return nil, fmt.Errorf("LEADERBOARD_API_URL is required")
		}
	}

	return config, nil
}
