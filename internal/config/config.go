package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"travel-expenses/internal/auth"
)

type Config struct {
	// Database
	DBPath string

	// Receipts
	UploadDir string

	// Credentials
	AuthSalt   string
	BcryptCost int

	// Logging
	LogLevel string
}

func Load() *Config {
	return &Config{
		DBPath:     getEnv("DB_PATH", "expenses.db"),
		UploadDir:  getEnv("UPLOAD_DIR", "uploads"),
		AuthSalt:   getEnv("APP_AUTH_SALT", auth.DefaultLegacySalt),
		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.DBPath) == "" {
		errors = append(errors, "database path cannot be empty")
	}

	if strings.TrimSpace(c.UploadDir) == "" {
		errors = append(errors, "upload directory cannot be empty")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	isValidLevel := false
	for _, level := range validLevels {
		if strings.ToLower(c.LogLevel) == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Hasher builds the password hasher described by the configuration.
func (c *Config) Hasher() (*auth.Hasher, error) {
	return auth.NewHasher(c.BcryptCost, c.AuthSalt)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
