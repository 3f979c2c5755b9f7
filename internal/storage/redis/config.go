package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// PartyTTL bounds how long an abandoned party lingers. The
	// active-party index keys share this TTL so they cannot outlive the
	// party they point at.
	PartyTTL time.Duration

	// CatalogTTL applies to songs and users; zero means no expiry
	CatalogTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		PartyTTL:     24 * time.Hour,
		CatalogTTL:   0,
	}
}
