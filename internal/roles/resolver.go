// Package roles derives each peer's role from the roster alone. Every
// peer runs the same pure computation over the same roster snapshot and
// arrives at the same assignment without any negotiation.
package roles

import (
	"github.com/playkit/gameroom/internal/model"
)

// Assignment is the symmetric role derivation for one peer
type Assignment struct {
	// MyIndex is the peer's position in the canonical roster order, or
	// -1 when the peer is not in the roster.
	MyIndex int

	// IsHost is true for the peer at index 0. The host is the
	// authoritative tie-breaker and starts first in games with a
	// defined first mover.
	IsHost bool

	// Opponent is the chosen counterpart for two-player games, nil when
	// no other peer is present.
	Opponent *model.PeerIdentity
}

// Resolve computes the role assignment for the given peer. It is a pure
// function of the roster snapshot.
//
// The opponent is the latest-joined entry among all peers other than
// self, not the first other entry: when more than two peers transiently
// appear during reconnect races, the latest joiner is the one actually
// trying to play, so the pairing stays stable. This is a pragmatic
// heuristic for two-player rooms, not a proven N-player design.
func Resolve(roster model.Roster, myID model.SessionID) Assignment {
	sorted := roster.Sorted()

	a := Assignment{MyIndex: -1}
	for i, p := range sorted {
		if p.SessionID == myID {
			a.MyIndex = i
			break
		}
	}
	a.IsHost = a.MyIndex == 0

	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].SessionID != myID {
			opp := sorted[i]
			a.Opponent = &opp
			break
		}
	}
	return a
}

// CanStart reports whether a game may begin: at least two peers present
// and self among them.
func CanStart(roster model.Roster, myID model.SessionID) bool {
	return roster.Size() >= 2 && roster.Contains(myID)
}
