package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings for different entity types
	GuestProfileTTL time.Duration
	TokenTTL        time.Duration
	RoomTTL         time.Duration
	MatchTTL        time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		GuestProfileTTL: 24 * time.Hour,
		TokenTTL:        24 * time.Hour,
		// the registry expires idle rooms itself at minute scale; this
		// TTL is the storage-level backstop
		RoomTTL:  time.Hour,
		MatchTTL: 30 * 24 * time.Hour,
	}
}
