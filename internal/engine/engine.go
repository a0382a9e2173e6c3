// Package engine defines the contract every game implements. Engines are
// pure: identical inputs produce identical outputs on every peer, which
// is what allows peer-authoritative replication without a server.
package engine

import (
	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/model"
)

// State is one game's full state. Concrete types live in the per-game
// packages and must be JSON-serializable, since full snapshots are the
// unit of replication.
type State interface {
	// Phase returns the current lifecycle phase
	Phase() model.GamePhase

	// Players returns the player list frozen at game start
	Players() []model.PlayerRef

	// TurnHolder returns the session currently authorized to act, or
	// empty when no single peer holds the turn (setup, finished).
	TurnHolder() model.SessionID
}

// Engine computes next-state from current-state plus a move. No I/O, no
// network awareness. ApplyMove must reject rather than partially apply.
type Engine interface {
	// Kind identifies the game
	Kind() model.GameKind

	// Authority returns the room's authority mode for this game
	Authority() model.AuthorityMode

	// InitialState builds a fresh game for the given players. This is
	// the only point an engine consumes randomness; the shuffled result
	// is carried in the state so replicas never re-roll.
	InitialState(players []model.PlayerRef, hostID model.SessionID, rnd random.Random) (State, error)

	// ValidateMove reports whether the move is legal for the actor
	ValidateMove(st State, actorID model.SessionID, mv model.Move) error

	// ApplyMove returns the next state, or an error leaving st untouched
	ApplyMove(st State, actorID model.SessionID, mv model.Move) (State, error)

	// CheckTerminal returns the game's outcome; the zero Outcome means
	// the game is still running.
	CheckTerminal(st State) model.Outcome

	// EncodeState serializes a snapshot for broadcast
	EncodeState(st State) ([]byte, error)

	// DecodeState restores a snapshot received from the wire
	DecodeState(data []byte) (State, error)
}

// PlayerIndex returns the index of the session in the player list, or -1
func PlayerIndex(players []model.PlayerRef, id model.SessionID) int {
	for i, p := range players {
		if p.SessionID == id {
			return i
		}
	}
	return -1
}
