package cli

import (
	"os"
	"strconv"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	UserID    int64
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("PARTYHUB_SERVER", "http://localhost:8080"),
		UserID:    getEnvInt64("PARTYHUB_USER"),
		Output:    "text",
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt64(key string) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return val
}
