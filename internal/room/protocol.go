package room

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/playkit/gameroom/internal/engine/battleship"
	"github.com/playkit/gameroom/internal/model"
)

// handleMove routes a locally submitted move through the room's
// authority mode.
func (s *Session) handleMove(ctx context.Context, mv model.Move) error {
	if s.state == nil {
		return model.ErrNoGameInProgress
	}
	if !s.outcome.None() || s.state.Phase() == model.PhaseFinished {
		return model.ErrGameFinished
	}

	mv.ActorID = s.cfg.Self.SessionID
	mv.ClientTimestamp = s.deps.Clock.Now()

	if s.kind == model.KindBattleship {
		return s.submitBattleship(ctx, mv)
	}

	if s.eng.Authority() == model.AuthorityHost && s.cfg.Self.SessionID != s.hostID {
		// Host-authoritative game: submit the intent and wait for the
		// host's next snapshot to reflect it.
		return s.publish(ctx, model.GameAction{Move: mv})
	}

	if err := s.applyLocal(ctx, s.cfg.Self.SessionID, mv); err != nil {
		return err
	}
	s.broadcastSnapshot(ctx)
	return nil
}

// submitBattleship handles the owner's side of the asymmetric protocol:
// fleet placement announces readiness, shots announce coordinates, and
// everything else is protocol-internal and not submittable directly.
func (s *Session) submitBattleship(ctx context.Context, mv model.Move) error {
	switch mv.Type {
	case battleship.MoveTypePlaceFleet:
		if err := s.applyLocal(ctx, s.cfg.Self.SessionID, mv); err != nil {
			return err
		}
		ready := model.Move{
			Type:            battleship.MoveTypeOpponentReady,
			ActorID:         s.cfg.Self.SessionID,
			ClientTimestamp: mv.ClientTimestamp,
		}
		return s.publish(ctx, model.GameAction{Move: ready})

	case battleship.MoveTypeFire:
		var shot battleship.FirePayload
		if err := json.Unmarshal(mv.Payload, &shot); err != nil {
			return model.ErrInvalidMove
		}
		if err := s.applyLocal(ctx, s.cfg.Self.SessionID, mv); err != nil {
			return err
		}
		return s.publish(ctx, model.Fire{
			X:       shot.X,
			Y:       shot.Y,
			ActorID: s.cfg.Self.SessionID,
		})
	}
	return model.ErrInvalidMove
}

// applyLocal runs one move through the engine and advances the
// session's bookkeeping.
func (s *Session) applyLocal(ctx context.Context, actor model.SessionID, mv model.Move) error {
	next, err := s.eng.ApplyMove(s.state, actor, mv)
	if err != nil {
		return err
	}
	s.state = next
	s.moveCount++
	s.refreshOutcome(ctx)
	return nil
}

func (s *Session) refreshOutcome(ctx context.Context) {
	if !s.outcome.None() {
		return
	}
	out := s.eng.CheckTerminal(s.state)
	if out.None() {
		return
	}
	s.outcome = out
	s.logger.Info("game finished",
		slog.String("winner", string(out.Winner)),
		slog.Bool("draw", out.Draw),
		slog.String("reason", out.Reason))
	s.recordMatch(ctx)
}

// broadcastSnapshot publishes the full current state. Snapshots are
// self-sufficient, so a dropped one is repaired by the next.
func (s *Session) broadcastSnapshot(ctx context.Context) {
	data, err := s.eng.EncodeState(s.state)
	if err != nil {
		s.logger.Error("state encode failed", slog.Any("error", err))
		return
	}
	s.publish(ctx, model.GameUpdate{Kind: s.kind, State: data})
}

// publish wraps a message into an envelope and fires it at the room
// topic. Best-effort: no retry, no acknowledgment.
func (s *Session) publish(ctx context.Context, msg model.Message) error {
	env, err := model.NewEnvelope(msg)
	if err != nil {
		return err
	}
	if err := s.sub.Publish(ctx, env); err != nil {
		s.logger.Warn("broadcast failed",
			slog.String("event", string(env.Event)), slog.Any("error", err))
		return err
	}
	return nil
}

// handleEnvelope dispatches one received broadcast. The message union
// is closed, so this switch is exhaustive over the protocol.
func (s *Session) handleEnvelope(ctx context.Context, from model.SessionID, env model.Envelope) {
	msg, err := env.Decode()
	if err != nil {
		s.logger.Warn("discarding unintelligible broadcast",
			slog.String("from", string(from)), slog.Any("error", err))
		return
	}

	switch m := msg.(type) {
	case model.GameUpdate:
		if from != s.cfg.Self.SessionID {
			s.applySnapshot(ctx, m.Kind, m.State)
		}
	case model.GameAction:
		if from != s.cfg.Self.SessionID {
			s.applyRemoteAction(ctx, m.Move)
		}
	case model.Fire:
		if from != s.cfg.Self.SessionID {
			s.resolveIncomingFire(ctx, m)
		}
	case model.FireResult:
		if from != s.cfg.Self.SessionID {
			s.applyFireResult(ctx, m)
		}
	case model.RequestState:
		if from != s.cfg.Self.SessionID {
			s.answerStateRequest(ctx, m.From)
		}
	case model.SyncState:
		s.adoptSyncReply(ctx, m)
	case model.Chat:
		s.chatLog = appendBounded(s.chatLog, m, s.cfg.ChatLogLimit)
	case model.Emoji:
		s.emojiLog = appendBounded(s.emojiLog, m, s.cfg.ChatLogLimit)
	case model.Restart:
		if from != s.cfg.Self.SessionID {
			s.resetToLobby()
		}
	case model.MatchFound:
		// matchmaking traffic, nothing to do inside a room
	}
}

// applySnapshot overwrites local state with a received full snapshot.
// Last broadcast wins: only one peer is authorized to mutate at a time,
// so overwriting is safe and re-applying the same snapshot is a no-op.
func (s *Session) applySnapshot(ctx context.Context, kind model.GameKind, data []byte) {
	if kind != s.kind || s.kind == model.KindBattleship {
		return
	}

	if s.state != nil {
		current, err := s.eng.EncodeState(s.state)
		if err == nil && bytes.Equal(current, data) {
			return
		}
	}

	st, err := s.eng.DecodeState(data)
	if err != nil {
		s.logger.Warn("discarding undecodable snapshot", slog.Any("error", err))
		return
	}

	adopted := s.state == nil
	s.state = st
	s.moveCount++
	s.awaitingSync = false
	if adopted {
		players := st.Players()
		if len(players) > 0 {
			s.hostID = players[0].SessionID
		}
		s.startedAt = s.deps.Clock.Now()
		s.moveCount = 1
		s.logger.Info("adopted game state from broadcast")
	}
	s.refreshOutcome(ctx)
}

// applyRemoteAction handles a submitted move from another peer. For
// host-authoritative games only the host applies and rebroadcasts; for
// Battleship this carries the opponent's readiness notice.
func (s *Session) applyRemoteAction(ctx context.Context, mv model.Move) {
	if s.state == nil {
		return
	}

	if s.kind == model.KindBattleship {
		if mv.Type != battleship.MoveTypeOpponentReady {
			return
		}
		if err := s.applyLocal(ctx, mv.ActorID, mv); err != nil {
			s.logger.Debug("ignoring opponent readiness", slog.Any("error", err))
		}
		return
	}

	if s.eng.Authority() != model.AuthorityHost || s.cfg.Self.SessionID != s.hostID {
		return
	}

	// Validation rejections stay local: the actor's view is repaired by
	// the next snapshot either way.
	if err := s.applyLocal(ctx, mv.ActorID, mv); err != nil {
		if !errors.Is(err, model.ErrGameFinished) {
			s.logger.Debug("rejected submitted action",
				slog.String("actor", string(mv.ActorID)),
				slog.String("type", mv.Type),
				slog.Any("error", err))
		}
		return
	}
	s.broadcastSnapshot(ctx)
}

// resolveIncomingFire is the defender's half of the Battleship exchange:
// the shot is resolved against the private grid and the verdict is
// broadcast back.
func (s *Session) resolveIncomingFire(ctx context.Context, m model.Fire) {
	if s.kind != model.KindBattleship || s.state == nil {
		return
	}

	payload, err := json.Marshal(battleship.FirePayload{X: m.X, Y: m.Y})
	if err != nil {
		return
	}
	mv := model.Move{
		Type:            battleship.MoveTypeIncomingFire,
		ActorID:         m.ActorID,
		Payload:         payload,
		ClientTimestamp: s.deps.Clock.Now(),
	}
	if err := s.applyLocal(ctx, m.ActorID, mv); err != nil {
		s.logger.Debug("ignoring incoming fire", slog.Any("error", err))
		return
	}

	st, ok := s.state.(*battleship.State)
	if !ok || st.LastVerdict == nil {
		return
	}
	v := *st.LastVerdict
	s.publish(ctx, model.FireResult{
		X:        v.X,
		Y:        v.Y,
		Result:   v.Result,
		GameOver: v.GameOver,
		ActorID:  s.cfg.Self.SessionID,
	})
}

// applyFireResult is the attacker's half: the defender's verdict lands
// on the radar and settles whose turn it is.
func (s *Session) applyFireResult(ctx context.Context, m model.FireResult) {
	if s.kind != model.KindBattleship || s.state == nil {
		return
	}

	payload, err := json.Marshal(battleship.FireResultPayload{
		X:        m.X,
		Y:        m.Y,
		Result:   m.Result,
		GameOver: m.GameOver,
	})
	if err != nil {
		return
	}
	mv := model.Move{
		Type:            battleship.MoveTypeFireResult,
		ActorID:         m.ActorID,
		Payload:         payload,
		ClientTimestamp: s.deps.Clock.Now(),
	}
	if err := s.applyLocal(ctx, m.ActorID, mv); err != nil {
		s.logger.Debug("ignoring stray verdict", slog.Any("error", err))
	}
}

// answerStateRequest replies with a full snapshot when this peer holds
// one. Battleship never answers: its state is private per peer.
func (s *Session) answerStateRequest(ctx context.Context, to model.SessionID) {
	if s.state == nil || s.kind == model.KindBattleship {
		return
	}
	data, err := s.eng.EncodeState(s.state)
	if err != nil {
		return
	}
	s.publish(ctx, model.SyncState{Kind: s.kind, State: data, To: to})
}

// adoptSyncReply applies the first sync_state addressed to this peer
// and ignores the rest, so simultaneous replies cannot cause
// oscillation.
func (s *Session) adoptSyncReply(ctx context.Context, m model.SyncState) {
	if m.To != s.cfg.Self.SessionID || !s.awaitingSync {
		return
	}
	s.awaitingSync = false
	s.applySnapshot(ctx, m.Kind, m.State)
}

func appendBounded[T any](log []T, entry T, limit int) []T {
	log = append(log, entry)
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	return log
}
