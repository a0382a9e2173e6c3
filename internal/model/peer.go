package model

import (
	"sort"
	"time"
)

// SessionID uniquely identifies one connection to the channel.
// It is deliberately distinct from UserID: the same account opening two
// tabs yields two sessions, and presence is always keyed by session.
type SessionID string

// UserID is the stable identity from the identity provider, or a
// transient guest token for unregistered peers.
type UserID string

// PeerIdentity describes one connected peer for the lifetime of its
// connection. It is never persisted.
type PeerIdentity struct {
	SessionID   SessionID `json:"sessionId"`
	UserID      UserID    `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
	IsReady     bool      `json:"isReady,omitempty"`
}

// Roster is the set of live peers in a room, keyed by session.
// Ordering is a pure function of contents: ascending JoinedAt, ties
// broken by lexicographic SessionID, so every peer derives the identical
// order from the identical snapshot.
type Roster struct {
	peers map[SessionID]PeerIdentity
}

// NewRoster builds a roster from a presence snapshot, deduplicating by
// SessionID (last write wins, which can happen transiently during
// reconnects).
func NewRoster(peers []PeerIdentity) Roster {
	m := make(map[SessionID]PeerIdentity, len(peers))
	for _, p := range peers {
		m[p.SessionID] = p
	}
	return Roster{peers: m}
}

// Size returns the number of live peers.
func (r Roster) Size() int {
	return len(r.peers)
}

// Get returns the peer for the given session, if present.
func (r Roster) Get(id SessionID) (PeerIdentity, bool) {
	p, ok := r.peers[id]
	return p, ok
}

// Contains reports whether the session is in the roster.
func (r Roster) Contains(id SessionID) bool {
	_, ok := r.peers[id]
	return ok
}

// Sorted returns the peers in canonical order.
func (r Roster) Sorted() []PeerIdentity {
	out := make([]PeerIdentity, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	return out
}

// IndexOf returns the canonical index of the session, or -1.
func (r Roster) IndexOf(id SessionID) int {
	for i, p := range r.Sorted() {
		if p.SessionID == id {
			return i
		}
	}
	return -1
}
