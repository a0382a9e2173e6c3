// Package presence maintains a peer's view of who is in the room.
// Snapshots are the source of truth: each Synced event replaces the
// roster wholesale, while Joined/Left events are treated as hints for
// logging only. That keeps every peer convergent on the broker's view
// even when individual events are lost.
package presence

import (
	"log/slog"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/roles"
	"github.com/playkit/gameroom/internal/transport"
)

// Update describes the tracker's state after applying one event
type Update struct {
	// RosterChanged is true when the event replaced the roster
	RosterChanged bool

	// Assignment is the role derivation for self against the current
	// roster, recomputed on every roster change.
	Assignment roles.Assignment

	// OpponentLeft is the previously assigned opponent who is no longer
	// in the roster, nil otherwise. The room session turns this into an
	// abandonment forfeit when a game is in progress.
	OpponentLeft *model.PeerIdentity
}

// Tracker folds transport events into a roster for one peer
type Tracker struct {
	self       model.SessionID
	roster     model.Roster
	assignment roles.Assignment
	logger     *slog.Logger
}

// New creates a tracker with an empty roster
func New(self model.SessionID, logger *slog.Logger) *Tracker {
	return &Tracker{
		self:   self,
		roster: model.NewRoster(nil),
		logger: logger.With(slog.String("component", "presence")),
	}
}

// Roster returns the current roster snapshot
func (t *Tracker) Roster() model.Roster {
	return t.roster
}

// Assignment returns the role derivation against the current roster
func (t *Tracker) Assignment() roles.Assignment {
	return t.assignment
}

// CanStart reports whether enough peers are present to begin a game
func (t *Tracker) CanStart() bool {
	return roles.CanStart(t.roster, t.self)
}

// Apply folds one transport event into the tracker
func (t *Tracker) Apply(ev transport.Event) Update {
	switch e := ev.(type) {
	case transport.Joined:
		t.logger.Debug("peer joined",
			slog.String("session", string(e.Peer.SessionID)),
			slog.String("name", e.Peer.DisplayName))
		return Update{Assignment: t.assignment}
	case transport.Left:
		t.logger.Debug("peer left",
			slog.String("session", string(e.Peer.SessionID)))
		return Update{Assignment: t.assignment}
	case transport.Synced:
		return t.applySync(e.Peers)
	default:
		return Update{Assignment: t.assignment}
	}
}

func (t *Tracker) applySync(peers []model.PeerIdentity) Update {
	prevOpponent := t.assignment.Opponent

	t.roster = model.NewRoster(peers)
	t.assignment = roles.Resolve(t.roster, t.self)

	up := Update{
		RosterChanged: true,
		Assignment:    t.assignment,
	}
	if prevOpponent != nil && !t.roster.Contains(prevOpponent.SessionID) {
		gone := *prevOpponent
		up.OpponentLeft = &gone
		t.logger.Info("opponent departed",
			slog.String("session", string(gone.SessionID)),
			slog.String("name", gone.DisplayName))
	}

	t.logger.Debug("roster replaced",
		slog.Int("peers", t.roster.Size()),
		slog.Int("my_index", t.assignment.MyIndex),
		slog.Bool("is_host", t.assignment.IsHost))
	return up
}
