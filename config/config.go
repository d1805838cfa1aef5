package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// HTTP server configuration
	HTTPAddr string
	HTTPPort int

	// Auth configuration
	TokenSecret   string
	TokenTTLHours int
	Users         []UserCredential

	// Housekeeping
	SessionTTLHours int // unused draw sessions older than this are swept; 0 disables the sweep

	// Environment
	Environment string // "development", "production" or "test"
}

// UserCredential is a statically configured operator account.
type UserCredential struct {
	Username string
	Password string
	Role     string // "admin" or "staff"
}

var (
	instance *Config
	mu       sync.Mutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		cfg, err := load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		instance = cfg
	}
	return instance
}

// SetTestConfig replaces the global instance for tests.
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global instance so the next Get reloads from the environment.
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

// NewTestConfig returns a config suitable for unit tests.
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:      "127.0.0.1",
		HTTPPort:      0,
		TokenSecret:   "test-secret",
		TokenTTLHours: 12,
		Users: []UserCredential{
			{Username: "admin", Password: "admin", Role: "admin"},
			{Username: "staff1", Password: "staff1", Role: "staff"},
		},
		Environment: "test",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// HTTP defaults
		HTTPAddr: "0.0.0.0",
		HTTPPort: 8080,

		// Auth defaults
		TokenSecret:   os.Getenv("TOKEN_SECRET"),
		TokenTTLHours: 12,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		config.HTTPAddr = addr
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if parsedPort, err := strconv.Atoi(port); err == nil {
			config.HTTPPort = parsedPort
		}
	}
	if ttl := os.Getenv("TOKEN_TTL_HOURS"); ttl != "" {
		if parsedTTL, err := strconv.Atoi(ttl); err == nil && parsedTTL > 0 {
			config.TokenTTLHours = parsedTTL
		}
	}
	if ttl := os.Getenv("SESSION_TTL_HOURS"); ttl != "" {
		if parsedTTL, err := strconv.Atoi(ttl); err == nil && parsedTTL > 0 {
			config.SessionTTLHours = parsedTTL
		}
	}

	config.Users = parseUsers(os.Getenv("OPERATOR_USERS"))
	if len(config.Users) == 0 {
		config.Users = defaultUsers()
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
		if config.TokenSecret == "" {
			return nil, fmt.Errorf("TOKEN_SECRET is required")
		}
	}

	return config, nil
}

// parseUsers reads "username:password:role" triples separated by commas.
func parseUsers(raw string) []UserCredential {
	var users []UserCredential
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(parts[2]))
		if role != "admin" && role != "staff" {
			continue
		}
		users = append(users, UserCredential{
			Username: strings.TrimSpace(parts[0]),
			Password: parts[1],
			Role:     role,
		})
	}
	return users
}

func defaultUsers() []UserCredential {
	return []UserCredential{
		{Username: "admin", Password: "admin123", Role: "admin"},
		{Username: "staff1", Password: "staff123", Role: "staff"},
		{Username: "staff2", Password: "staff123", Role: "staff"},
		{Username: "staff3", Password: "staff123", Role: "staff"},
	}
}
