package redispubsub

import (
	"fmt"

	"github.com/playkit/gameroom/internal/model"
)

// Key prefix for all channel-related data
const keyPrefix = "gameroom"

// pubsubChannel returns the Redis pub/sub channel name for a topic
func pubsubChannel(topic string) string {
	return fmt.Sprintf("%s:topic:%s", keyPrefix, topic)
}

// presenceKey returns the Redis key holding one peer's presence record
func presenceKey(topic string, session model.SessionID) string {
	return fmt.Sprintf("%s:presence:%s:%s", keyPrefix, topic, session)
}

// presencePattern returns the SCAN pattern matching a topic's presence keys
func presencePattern(topic string) string {
	return fmt.Sprintf("%s:presence:%s:*", keyPrefix, topic)
}
