package response

import (
	"time"

	"github.com/playkit/gameroom/internal/identity"
	"github.com/playkit/gameroom/internal/model"
)

// Profile represents an identity in API responses
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// ProfileFromModel converts a model.Profile to a response Profile
func ProfileFromModel(p *model.Profile) Profile {
	return Profile{
		ID:          string(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Profile      Profile `json:"profile"`
	SessionToken string  `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *identity.Session) AuthResponse {
	return AuthResponse{
		Profile:      ProfileFromModel(&s.Profile),
		SessionToken: s.Token,
	}
}

// Room represents a live room in API responses
type Room struct {
	Code      string    `json:"code"`
	Kind      string    `json:"kind"`
	HostName  string    `json:"host_name"`
	PeerCount int       `json:"peer_count"`
	CreatedAt time.Time `json:"created_at"`
	LastSeen  time.Time `json:"last_seen"`
}

// RoomFromModel converts a model.RoomInfo
func RoomFromModel(r *model.RoomInfo) Room {
	return Room{
		Code:      string(r.Code),
		Kind:      string(r.Kind),
		HostName:  r.HostName,
		PeerCount: r.PeerCount,
		CreatedAt: r.CreatedAt,
		LastSeen:  r.LastSeen,
	}
}

// RoomList is the response for the room directory
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// MatchPlayer is one side of a recorded match
type MatchPlayer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// Match represents a completed game in API responses
type Match struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	Players    [2]MatchPlayer `json:"players"`
	Winner     *string        `json:"winner"`
	MoveCount  int            `json:"move_count"`
	DurationMS int64          `json:"duration_ms"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// MatchFromModel converts a model.MatchRecord
func MatchFromModel(m *model.MatchRecord) Match {
	var players [2]MatchPlayer
	for i, p := range m.Players {
		players[i] = MatchPlayer{
			UserID:      string(p.UserID),
			DisplayName: p.DisplayName,
		}
	}
	var winner *string
	if m.Winner != "" {
		w := string(m.Winner)
		winner = &w
	}
	return Match{
		ID:         m.ID,
		Kind:       string(m.Kind),
		Players:    players,
		Winner:     winner,
		MoveCount:  m.MoveCount,
		DurationMS: m.Duration.Milliseconds(),
		RecordedAt: m.RecordedAt,
	}
}

// MatchList is the response for history queries
type MatchList struct {
	Matches []Match `json:"matches"`
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
