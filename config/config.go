package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"wagerpool/database"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr    string   // Address the REST API listens on
	MetricsAddr string   // Address serving /metrics and /healthz
	JWTSecret   string   // HMAC secret for bearer tokens
	CORSOrigins []string // Allowed browser origins, empty allows any

	// Pool configuration
	AdminAddresses  []string // Addresses that may approve, close and settle bets
	TreasuryAddress string   // Receives settlement dust; empty keeps it in escrow

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables publishing

	// Discord configuration
	DiscordToken     string
	DiscordChannelID string // Channel receiving bet notifications

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// NATSEnabled reports whether events should be forwarded to NATS
func (c *Config) NATSEnabled() bool {
	return strings.TrimSpace(c.NATSServers) != ""
}

// DiscordEnabled reports whether the notifier should connect to Discord
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the environment may already be set
	_ = godotenv.Load()

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr:    getEnvWithDefault("HTTP_ADDR", ":8080"),
		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: parseList(os.Getenv("CORS_ORIGINS")),

		// Pool
		AdminAddresses:  parseList(os.Getenv("ADMIN_ADDRESSES")),
		TreasuryAddress: strings.TrimSpace(os.Getenv("TREASURY_ADDRESS")),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
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
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:    "test",
		HTTPAddr:       ":8080",
		MetricsAddr:    ":9090",
		JWTSecret:      "test-secret",
		AdminAddresses: []string{"0xadmin"},
		LogLevel:       "debug",
	}
}
