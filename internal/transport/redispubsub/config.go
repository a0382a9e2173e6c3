package redispubsub

import "time"

// Config holds Redis connection and channel behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// PresenceTTL is how long a peer's presence key survives without a
	// refresh. A crashed peer disappears from rosters after this long.
	PresenceTTL time.Duration

	// PresenceRefresh is how often a live subscription re-arms its own
	// presence key. Must be comfortably below PresenceTTL.
	PresenceRefresh time.Duration

	// PresencePoll is how often the subscription rescans the topic's
	// presence keys to derive join/leave events.
	PresencePoll time.Duration

	// SubscribeTimeout bounds how long Subscribe waits for the broker
	// to confirm the subscription before giving up.
	SubscribeTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the Redis channel
func DefaultConfig() Config {
	return Config{
		URL:              "redis://localhost:6379",
		PoolSize:         10,
		MinIdleConns:     2,
		PresenceTTL:      30 * time.Second,
		PresenceRefresh:  10 * time.Second,
		PresencePoll:     2 * time.Second,
		SubscribeTimeout: 10 * time.Second,
	}
}
