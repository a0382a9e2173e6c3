// Package matchmaking pairs anonymous searching peers into fresh rooms.
// It is a degenerate two-party instance of the role tie-break: both
// sides of a pair compare session identifiers and exactly one of them
// creates the room, with no coordinator involved.
package matchmaking

import (
	"context"
	"log/slog"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/transport"
)

// Result is the outcome of a successful search
type Result struct {
	Code model.RoomCode

	// Created is true when this peer won the tie-break and created the
	// room; the other side of the pair received the assignment instead.
	Created bool
}

// Seeker searches the game-type-scoped matchmaking topic for a partner
type Seeker struct {
	kind    model.GameKind
	self    model.PeerIdentity
	channel transport.Channel
	rnd     random.Random
	logger  *slog.Logger
}

// New creates a seeker for one game type
func New(kind model.GameKind, self model.PeerIdentity, channel transport.Channel, rnd random.Random, logger *slog.Logger) *Seeker {
	return &Seeker{
		kind:    kind,
		self:    self,
		channel: channel,
		rnd:     rnd,
		logger: logger.With(
			slog.String("component", "matchmaking"),
			slog.String("kind", string(kind))),
	}
}

// Find blocks until a partner is paired or ctx is done. Both peers of a
// pair run the identical tie-break: the lexicographically greater
// session creates the room and broadcasts the assignment, the other
// waits for it.
func (s *Seeker) Find(ctx context.Context) (Result, error) {
	sub, err := s.channel.Subscribe(ctx, model.MatchmakingTopic(s.kind), s.self)
	if err != nil {
		return Result{}, err
	}
	defer sub.Close()

	s.logger.Info("searching for opponent")
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return Result{}, transport.ErrClosed
			}

			switch e := ev.(type) {
			case transport.Synced:
				res, done, err := s.evaluate(ctx, sub, e.Peers)
				if err != nil {
					return Result{}, err
				}
				if done {
					return res, nil
				}
			case transport.Received:
				res, done := s.acceptAssignment(e.From, e.Envelope)
				if done {
					return res, nil
				}
			}
		}
	}
}

// evaluate runs the tie-break against a presence snapshot. Pairing only
// happens with exactly one other searcher; three or more racing peers
// keep waiting for the roster to settle.
func (s *Seeker) evaluate(ctx context.Context, sub transport.Subscription, peers []model.PeerIdentity) (Result, bool, error) {
	var others []model.PeerIdentity
	for _, p := range peers {
		if p.SessionID != s.self.SessionID {
			others = append(others, p)
		}
	}
	if len(others) != 1 {
		return Result{}, false, nil
	}
	other := others[0]

	if s.self.SessionID <= other.SessionID {
		// the other side creates; wait for its assignment
		return Result{}, false, nil
	}

	body := s.rnd.String(model.RoomCodeLength, model.RoomCodeAlphabet)
	code := model.FormatRoomCode(s.kind, body)
	env, err := model.NewEnvelope(model.MatchFound{
		RoomCode:  code,
		CreatorID: s.self.SessionID,
	})
	if err != nil {
		return Result{}, false, err
	}
	if err := sub.Publish(ctx, env); err != nil {
		return Result{}, false, err
	}

	s.logger.Info("created room for pairing",
		slog.String("room", string(code)),
		slog.String("opponent", string(other.SessionID)))
	return Result{Code: code, Created: true}, true, nil
}

// acceptAssignment takes the room assignment broadcast by the peer that
// won the tie-break
func (s *Seeker) acceptAssignment(from model.SessionID, env model.Envelope) (Result, bool) {
	if from == s.self.SessionID {
		return Result{}, false
	}
	msg, err := env.Decode()
	if err != nil {
		s.logger.Warn("discarding unintelligible broadcast", slog.Any("error", err))
		return Result{}, false
	}
	found, ok := msg.(model.MatchFound)
	if !ok {
		return Result{}, false
	}

	s.logger.Info("received pairing assignment",
		slog.String("room", string(found.RoomCode)),
		slog.String("creator", string(found.CreatorID)))
	return Result{Code: found.RoomCode}, true
}
