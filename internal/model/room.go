package model

import (
	"fmt"
	"strings"
	"time"
)

// GameKind identifies which game a room hosts
type GameKind string

const (
	KindCaro       GameKind = "caro"
	KindBattleship GameKind = "battleship"
	KindUno        GameKind = "uno"
	KindMemory     GameKind = "memory"
)

// Valid reports whether the kind is one of the supported games
func (k GameKind) Valid() bool {
	switch k {
	case KindCaro, KindBattleship, KindUno, KindMemory:
		return true
	}
	return false
}

// AuthorityMode fixes, per game and for the lifetime of a room, which
// peers may mutate and broadcast game state.
type AuthorityMode string

const (
	// AuthoritySymmetric: every peer runs the engine; only the peer
	// holding the turn broadcasts, all peers apply received snapshots
	// identically.
	AuthoritySymmetric AuthorityMode = "symmetric"
	// AuthorityHost: only the host runs the engine on submitted actions
	// and is the sole broadcaster of resulting state.
	AuthorityHost AuthorityMode = "host"
)

// GamePhase is the lifecycle of a room's game
type GamePhase string

const (
	PhaseLobby    GamePhase = "lobby"
	PhaseSetup    GamePhase = "setup"
	PhasePlaying  GamePhase = "playing"
	PhaseFinished GamePhase = "finished"
)

// PlayerRef is a roster entry frozen into a game's player list at game
// start, so mid-game roster churn cannot reshuffle active players.
type PlayerRef struct {
	SessionID   SessionID `json:"sessionId"`
	UserID      UserID    `json:"userId"`
	DisplayName string    `json:"displayName"`
}

// Outcome is the terminal result of a game. The zero value means the
// game is still running.
type Outcome struct {
	Winner SessionID `json:"winner,omitempty"`
	Draw   bool      `json:"draw,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// None reports whether the game has no terminal outcome yet
func (o Outcome) None() bool {
	return o.Winner == "" && !o.Draw
}

// RoomCode is a human-readable identifier for joining rooms
type RoomCode string

const (
	// RoomCodeLength is the length of the random portion of room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet avoids visually ambiguous characters (0/O, 1/I/L)
	RoomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
)

// roomCodePrefixes route codes to their game type
var roomCodePrefixes = map[GameKind]string{
	KindCaro:       "CR",
	KindBattleship: "BS",
	KindUno:        "UO",
	KindMemory:     "MM",
}

// FormatRoomCode builds a prefixed room code from its random portion
func FormatRoomCode(kind GameKind, body string) RoomCode {
	return RoomCode(fmt.Sprintf("%s-%s", roomCodePrefixes[kind], body))
}

// KindFromRoomCode recovers the game kind from a code's prefix
func KindFromRoomCode(code RoomCode) (GameKind, bool) {
	prefix, _, ok := strings.Cut(string(code), "-")
	if !ok {
		return "", false
	}
	for kind, p := range roomCodePrefixes {
		if p == prefix {
			return kind, true
		}
	}
	return "", false
}

// RoomTopic returns the channel topic for a room
func RoomTopic(code RoomCode) string {
	return "room:" + string(code)
}

// MatchmakingTopic returns the shared searching topic for a game type
func MatchmakingTopic(kind GameKind) string {
	return "matchmaking:" + string(kind)
}

// RoomInfo is the registry's view of a live room. LastSeen is advanced
// by peer heartbeats; rooms expire after ~3 minutes of silence.
type RoomInfo struct {
	Code      RoomCode  `json:"code"`
	Kind      GameKind  `json:"kind"`
	HostName  string    `json:"hostName"`
	PeerCount int       `json:"peerCount"`
	CreatedAt time.Time `json:"createdAt"`
	LastSeen  time.Time `json:"lastSeen"`
}

// MatchRecord is the persisted summary of a completed game
type MatchRecord struct {
	ID         string        `json:"id"`
	Kind       GameKind      `json:"kind"`
	Players    [2]PlayerRef  `json:"players"`
	Winner     UserID        `json:"winner"` // empty on draw
	MoveCount  int           `json:"moveCount"`
	Duration   time.Duration `json:"duration"`
	RecordedAt time.Time     `json:"recordedAt"`
}
