package redis

import (
	"fmt"

	"github.com/playkit/gameroom/internal/model"
)

// Key prefix for all registry-related data
const keyPrefix = "gameroom"

// profileKey returns the Redis key for a Profile
func profileKey(id model.UserID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// tokenKey returns the Redis key for a session token
func tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", keyPrefix, token)
}

// roomKey returns the Redis key for a RoomInfo
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomsIndexKey returns the Redis key for the SET of live room codes
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// matchKey returns the Redis key for a MatchRecord
func matchKey(id string) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchesForUserIndexKey returns the Redis key for the SET of match ids
// a user appears in
func matchesForUserIndexKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:matches_for_user:%s", keyPrefix, userID)
}
