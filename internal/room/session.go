// Package room implements the per-room coordination session. A Session
// is an actor: one goroutine owns the game state and the roster view,
// and everything else (local commands, channel traffic, presence)
// arrives as messages into its inbox. Handlers never share mutable
// state, which removes the stale-read bugs that plague callback-style
// designs.
package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/playkit/gameroom/internal/dependencies/clock"
	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/engine/battleship"
	"github.com/playkit/gameroom/internal/engine/factory"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/presence"
	"github.com/playkit/gameroom/internal/transport"
)

// Recorder persists completed matches. Best-effort: a failed write is
// logged, never surfaced as a game error.
type Recorder interface {
	RecordMatch(ctx context.Context, rec model.MatchRecord) error
}

// Heartbeater keeps the room registry aware that this room is alive
type Heartbeater interface {
	Heartbeat(ctx context.Context, code model.RoomCode, peerCount int) error
}

// StartPolicy controls whether a game may begin without an opponent
type StartPolicy int

const (
	// StartRequiresOpponent rejects game start below two peers
	StartRequiresOpponent StartPolicy = iota
	// StartAllowSolo permits single-peer games (testing, practice)
	StartAllowSolo
)

const (
	defaultChatLogLimit = 100
	forfeitReason       = "abandonment"
)

// Config holds the per-room session settings
type Config struct {
	Code        model.RoomCode
	Self        model.PeerIdentity
	StartPolicy StartPolicy

	// ChatLogLimit bounds the local chat and emoji logs; zero means the
	// default of 100 entries.
	ChatLogLimit int

	// HeartbeatInterval is how often the registry heartbeat fires; zero
	// disables heartbeating.
	HeartbeatInterval time.Duration
}

// Deps are the session's injected collaborators. Recorder and
// Heartbeater may be nil.
type Deps struct {
	Channel     transport.Channel
	Random      random.Random
	Clock       clock.Clock
	Recorder    Recorder
	Heartbeater Heartbeater
	Logger      *slog.Logger
}

// View is a read-only snapshot of the session for UIs and tests
type View struct {
	Code       model.RoomCode
	Kind       model.GameKind
	Phase      model.GamePhase
	Roster     []model.PeerIdentity
	MyIndex    int
	IsHost     bool
	TurnHolder model.SessionID
	State      json.RawMessage
	Outcome    model.Outcome
	MoveCount  int
	Chat       []model.Chat
	Emoji      []model.Emoji
}

// Session coordinates one peer's participation in one room
type Session struct {
	cfg    Config
	kind   model.GameKind
	eng    engine.Engine
	deps   Deps
	logger *slog.Logger

	inbox chan command

	// Everything below is owned by the run goroutine.
	sub          transport.Subscription
	tracker      *presence.Tracker
	state        engine.State
	hostID       model.SessionID
	outcome      model.Outcome
	awaitingSync bool
	startedAt    time.Time
	moveCount    int
	recorded     bool
	chatLog      []model.Chat
	emojiLog     []model.Emoji
}

// New creates a session for the room identified by cfg.Code. The game
// kind is recovered from the code's prefix.
func New(cfg Config, deps Deps) (*Session, error) {
	kind, ok := model.KindFromRoomCode(cfg.Code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidRoomCode, cfg.Code)
	}
	eng, err := factory.ForKind(kind)
	if err != nil {
		return nil, err
	}
	if cfg.ChatLogLimit <= 0 {
		cfg.ChatLogLimit = defaultChatLogLimit
	}

	return &Session{
		cfg:  cfg,
		kind: kind,
		eng:  eng,
		deps: deps,
		logger: deps.Logger.With(
			slog.String("component", "room-session"),
			slog.String("room", string(cfg.Code)),
			slog.String("session", string(cfg.Self.SessionID))),
		inbox: make(chan command, 64),
	}, nil
}

// Kind returns the room's game kind
func (s *Session) Kind() model.GameKind {
	return s.kind
}

type command struct {
	start   bool
	move    *model.Move
	chat    string
	emoji   string
	restart bool
	view    chan View

	reply chan error
}

// Run subscribes to the room topic and processes events until ctx is
// cancelled. It owns all session state; public methods communicate with
// it through the inbox.
func (s *Session) Run(ctx context.Context) error {
	sub, err := s.deps.Channel.Subscribe(ctx, model.RoomTopic(s.cfg.Code), s.cfg.Self)
	if err != nil {
		return fmt.Errorf("joining room %s: %w", s.cfg.Code, err)
	}
	s.sub = sub
	defer sub.Close()

	s.tracker = presence.New(s.cfg.Self.SessionID, s.deps.Logger)

	// Late joiners ask for the current state up front. Battleship state
	// is private per peer, so there is nothing to request there.
	if s.kind != model.KindBattleship {
		s.awaitingSync = true
		s.publish(ctx, model.RequestState{From: s.cfg.Self.SessionID})
	}

	var heartbeat <-chan time.Time
	if s.deps.Heartbeater != nil && s.cfg.HeartbeatInterval > 0 {
		t := time.NewTicker(s.cfg.HeartbeatInterval)
		defer t.Stop()
		heartbeat = t.C
	}

	s.logger.Info("session started", slog.String("kind", string(s.kind)))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.inbox:
			s.handleCommand(ctx, cmd)
		case ev, ok := <-sub.Events():
			if !ok {
				return transport.ErrClosed
			}
			s.handleEvent(ctx, ev)
		case <-heartbeat:
			s.sendHeartbeat(ctx)
		}
	}
}

// Start begins a new game with the peers currently in the room
func (s *Session) Start(ctx context.Context) error {
	return s.post(ctx, command{start: true})
}

// Submit plays a local move
func (s *Session) Submit(ctx context.Context, mv model.Move) error {
	return s.post(ctx, command{move: &mv})
}

// SendChat broadcasts a chat line
func (s *Session) SendChat(ctx context.Context, text string) error {
	return s.post(ctx, command{chat: text})
}

// SendEmoji broadcasts an ephemeral emoji
func (s *Session) SendEmoji(ctx context.Context, name string) error {
	return s.post(ctx, command{emoji: name})
}

// Restart resets all peers back to the lobby phase
func (s *Session) Restart(ctx context.Context) error {
	return s.post(ctx, command{restart: true})
}

// Snapshot returns a read-only view of the session
func (s *Session) Snapshot(ctx context.Context) (View, error) {
	cmd := command{view: make(chan View, 1), reply: make(chan error, 1)}
	select {
	case s.inbox <- cmd:
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-cmd.view:
		return v, nil
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) post(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case s.inbox <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) handleCommand(ctx context.Context, cmd command) {
	var err error
	switch {
	case cmd.start:
		err = s.handleStart(ctx)
	case cmd.move != nil:
		err = s.handleMove(ctx, *cmd.move)
	case cmd.chat != "":
		err = s.handleChat(ctx, cmd.chat)
	case cmd.emoji != "":
		err = s.handleEmoji(ctx, cmd.emoji)
	case cmd.restart:
		err = s.handleRestart(ctx)
	case cmd.view != nil:
		cmd.view <- s.buildView()
	}
	if cmd.reply != nil {
		cmd.reply <- err
	}
}

func (s *Session) handleEvent(ctx context.Context, ev transport.Event) {
	if recv, ok := ev.(transport.Received); ok {
		s.handleEnvelope(ctx, recv.From, recv.Envelope)
		return
	}

	up := s.tracker.Apply(ev)
	if up.OpponentLeft != nil && s.gameRunning() {
		// Abandonment forfeits immediately; there is no grace period
		// for transient drops.
		s.outcome = model.Outcome{
			Winner: s.cfg.Self.SessionID,
			Reason: forfeitReason,
		}
		s.logger.Info("opponent abandoned game, claiming forfeit win",
			slog.String("opponent", string(up.OpponentLeft.SessionID)))
		s.recordMatch(ctx)
	}
}

// gameRunning reports whether a game is actively awaiting moves
func (s *Session) gameRunning() bool {
	return s.state != nil && s.outcome.None() &&
		s.state.Phase() != model.PhaseFinished
}

func (s *Session) handleStart(ctx context.Context) error {
	if s.gameRunning() {
		return model.ErrGameInProgress
	}

	roster := s.tracker.Roster()
	if !roster.Contains(s.cfg.Self.SessionID) {
		return model.ErrNotInGame
	}
	assignment := s.tracker.Assignment()
	if assignment.Opponent == nil && s.cfg.StartPolicy != StartAllowSolo {
		return model.ErrInsufficientPeers
	}

	players := frozenPlayers(s.cfg.Self, assignment.Opponent)
	hostID := players[0].SessionID

	// Shared-state games are created by the host; each Battleship peer
	// builds its own private view instead, since the real ship layout
	// only ever exists on the owner's side.
	var (
		st  engine.State
		err error
	)
	if bs, ok := s.eng.(*battleship.Engine); ok {
		st, err = bs.InitialStateFor(players, hostID, s.cfg.Self.SessionID)
	} else {
		if s.cfg.Self.SessionID != hostID {
			return model.ErrNotAuthoritative
		}
		st, err = s.eng.InitialState(players, hostID, s.deps.Random)
	}
	if err != nil {
		return err
	}

	s.state = st
	s.hostID = hostID
	s.outcome = model.Outcome{}
	s.awaitingSync = false
	s.startedAt = s.deps.Clock.Now()
	s.moveCount = 0
	s.recorded = false

	s.logger.Info("game started",
		slog.String("kind", string(s.kind)),
		slog.Int("players", len(players)),
		slog.String("host", string(hostID)))

	if s.kind != model.KindBattleship {
		s.broadcastSnapshot(ctx)
	}
	return nil
}

// frozenPlayers copies the self/opponent pair into the game's player
// list in canonical roster order, so later roster churn cannot
// reshuffle active players.
func frozenPlayers(self model.PeerIdentity, opponent *model.PeerIdentity) []model.PlayerRef {
	peers := []model.PeerIdentity{self}
	if opponent != nil {
		peers = append(peers, *opponent)
	}
	ordered := model.NewRoster(peers).Sorted()

	refs := make([]model.PlayerRef, len(ordered))
	for i, p := range ordered {
		refs[i] = model.PlayerRef{
			SessionID:   p.SessionID,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
		}
	}
	return refs
}

func (s *Session) handleChat(ctx context.Context, text string) error {
	// Appended on receipt via loopback, not here, so the sender and
	// every other peer build their logs from the same event stream.
	return s.publish(ctx, model.Chat{
		ID:         uuid.NewString(),
		SenderID:   s.cfg.Self.SessionID,
		SenderName: s.cfg.Self.DisplayName,
		Content:    text,
		Timestamp:  s.deps.Clock.Now(),
	})
}

func (s *Session) handleEmoji(ctx context.Context, name string) error {
	return s.publish(ctx, model.Emoji{
		ID:        uuid.NewString(),
		SenderID:  s.cfg.Self.SessionID,
		EmojiName: name,
		Timestamp: s.deps.Clock.Now(),
	})
}

func (s *Session) handleRestart(ctx context.Context) error {
	s.resetToLobby()
	return s.publish(ctx, model.Restart{})
}

func (s *Session) resetToLobby() {
	s.state = nil
	s.hostID = ""
	s.outcome = model.Outcome{}
	s.awaitingSync = false
	s.moveCount = 0
	s.recorded = false
	s.logger.Info("reset to lobby")
}

func (s *Session) buildView() View {
	v := View{
		Code:      s.cfg.Code,
		Kind:      s.kind,
		Phase:     model.PhaseLobby,
		Roster:    s.tracker.Roster().Sorted(),
		MyIndex:   s.tracker.Assignment().MyIndex,
		IsHost:    s.tracker.Assignment().IsHost,
		Outcome:   s.outcome,
		MoveCount: s.moveCount,
		Chat:      append([]model.Chat(nil), s.chatLog...),
		Emoji:     append([]model.Emoji(nil), s.emojiLog...),
	}
	if s.state != nil {
		v.Phase = s.state.Phase()
		v.TurnHolder = s.state.TurnHolder()
		if data, err := s.eng.EncodeState(s.state); err == nil {
			v.State = data
		}
	}
	if !s.outcome.None() {
		v.Phase = model.PhaseFinished
	}
	return v
}

func (s *Session) sendHeartbeat(ctx context.Context) {
	hctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.deps.Heartbeater.Heartbeat(hctx, s.cfg.Code, s.tracker.Roster().Size()); err != nil {
		s.logger.Warn("registry heartbeat failed", slog.Any("error", err))
	}
}

func (s *Session) recordMatch(ctx context.Context) {
	if s.deps.Recorder == nil || s.recorded || s.state == nil {
		return
	}
	players := s.state.Players()
	if len(players) != 2 {
		return
	}
	// Exactly one peer writes the record: the winner, or the host on a
	// draw.
	if s.outcome.Winner != s.cfg.Self.SessionID &&
		!(s.outcome.Draw && s.cfg.Self.SessionID == s.hostID) {
		return
	}

	rec := model.MatchRecord{
		ID:         uuid.NewString(),
		Kind:       s.kind,
		Players:    [2]model.PlayerRef{players[0], players[1]},
		MoveCount:  s.moveCount,
		Duration:   s.deps.Clock.Since(s.startedAt),
		RecordedAt: s.deps.Clock.Now(),
	}
	for _, p := range players {
		if p.SessionID == s.outcome.Winner {
			rec.Winner = p.UserID
		}
	}

	s.recorded = true
	if err := s.deps.Recorder.RecordMatch(ctx, rec); err != nil {
		s.logger.Warn("match record write failed", slog.Any("error", err))
	}
}
