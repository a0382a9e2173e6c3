package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/dependencies/mocks"
	"github.com/playkit/gameroom/internal/engine/battleship"
	"github.com/playkit/gameroom/internal/engine/caro"
	"github.com/playkit/gameroom/internal/engine/uno"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/testutil"
	"github.com/playkit/gameroom/internal/transport/inprocess"
)

type fakeRecorder struct {
	mu      sync.Mutex
	records []model.MatchRecord
}

func (r *fakeRecorder) RecordMatch(_ context.Context, rec model.MatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type SessionSuite struct {
	suite.Suite
	broker   *inprocess.Broker
	recorder *fakeRecorder
	base     time.Time
	ctx      context.Context
	cancels  []context.CancelFunc
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.broker = inprocess.NewBroker(testutil.NopLogger())
	s.recorder = &fakeRecorder{}
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.cancels = nil
}

func (s *SessionSuite) TearDownTest() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// startPeer spins up a running session for one simulated peer
func (s *SessionSuite) startPeer(code model.RoomCode, name string, joinOffset time.Duration) *Session {
	sess, err := New(Config{
		Code: code,
		Self: model.PeerIdentity{
			SessionID:   model.SessionID(name),
			UserID:      model.UserID("user-" + name),
			DisplayName: name,
			JoinedAt:    s.base.Add(joinOffset),
		},
	}, Deps{
		Channel:  s.broker,
		Random:   mocks.NewMockRandom(),
		Clock:    mocks.NewMockClock(s.base),
		Recorder: s.recorder,
		Logger:   testutil.NopLogger(),
	})
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancels = append(s.cancels, cancel)
	go func() { _ = sess.Run(ctx) }()
	return sess
}

func (s *SessionSuite) awaitRoster(sess *Session, size int) {
	s.Require().Eventually(func() bool {
		v, err := sess.Snapshot(s.ctx)
		return err == nil && len(v.Roster) == size
	}, 3*time.Second, 10*time.Millisecond, "roster never reached %d peers", size)
}

func (s *SessionSuite) awaitPhase(sess *Session, phase model.GamePhase) View {
	var got View
	s.Require().Eventually(func() bool {
		v, err := sess.Snapshot(s.ctx)
		if err != nil {
			return false
		}
		got = v
		return v.Phase == phase
	}, 3*time.Second, 10*time.Millisecond, "phase never reached %s", phase)
	return got
}

func caroPlace(x, y int) model.Move {
	payload, _ := json.Marshal(caro.PlacePayload{X: x, Y: y})
	return model.Move{Type: caro.MoveTypePlace, Payload: payload}
}

func (s *SessionSuite) TestCaroFullGameReplicates() {
	alice := s.startPeer("CR-GAMEAA", "alice", 0)
	bob := s.startPeer("CR-GAMEAA", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	// alice joined first, so she is the host and starts
	s.Require().NoError(alice.Start(s.ctx))
	s.awaitPhase(bob, model.PhasePlaying)

	// out-of-turn and non-host-start rejections
	s.ErrorIs(bob.Submit(s.ctx, caroPlace(50, 50)), model.ErrNotYourTurn)
	s.ErrorIs(bob.Start(s.ctx), model.ErrGameInProgress)

	// alice builds five in a row while bob plays elsewhere
	for i := 0; i < 4; i++ {
		s.Require().NoError(alice.Submit(s.ctx, caroPlace(i, 0)))
		s.Require().Eventually(func() bool {
			v, err := bob.Snapshot(s.ctx)
			return err == nil && v.TurnHolder == "bob"
		}, 3*time.Second, 10*time.Millisecond)
		s.Require().NoError(bob.Submit(s.ctx, caroPlace(i, 50)))
		s.Require().Eventually(func() bool {
			v, err := alice.Snapshot(s.ctx)
			return err == nil && v.TurnHolder == "alice"
		}, 3*time.Second, 10*time.Millisecond)
	}
	s.Require().NoError(alice.Submit(s.ctx, caroPlace(4, 0)))

	va := s.awaitPhase(alice, model.PhaseFinished)
	vb := s.awaitPhase(bob, model.PhaseFinished)
	s.Equal(model.SessionID("alice"), va.Outcome.Winner)
	s.Equal(model.SessionID("alice"), vb.Outcome.Winner)
	s.JSONEq(string(va.State), string(vb.State))

	// finished games reject further moves and the winner records once
	s.ErrorIs(alice.Submit(s.ctx, caroPlace(90, 90)), model.ErrGameFinished)
	s.Require().Eventually(func() bool {
		return s.recorder.count() == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func (s *SessionSuite) TestStartGuards() {
	alice := s.startPeer("CR-GAMEBB", "alice", 0)
	s.awaitRoster(alice, 1)

	s.ErrorIs(alice.Start(s.ctx), model.ErrInsufficientPeers)

	bob := s.startPeer("CR-GAMEBB", "bob", time.Second)
	s.awaitRoster(bob, 2)
	s.ErrorIs(bob.Start(s.ctx), model.ErrNotAuthoritative)
}

func (s *SessionSuite) TestLateJoinerSyncsState() {
	alice := s.startPeer("CR-GAMECC", "alice", 0)
	bob := s.startPeer("CR-GAMECC", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.Start(s.ctx))
	s.Require().NoError(alice.Submit(s.ctx, caroPlace(10, 10)))
	s.awaitPhase(bob, model.PhasePlaying)

	carol := s.startPeer("CR-GAMECC", "carol", 2*time.Second)
	vc := s.awaitPhase(carol, model.PhasePlaying)
	va, err := alice.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.JSONEq(string(va.State), string(vc.State))
	// the frozen player list does not grow to include the late joiner
	s.Len(vc.Roster, 3)
}

func (s *SessionSuite) TestRestartResetsAllPeers() {
	alice := s.startPeer("CR-GAMEDD", "alice", 0)
	bob := s.startPeer("CR-GAMEDD", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.Start(s.ctx))
	s.awaitPhase(bob, model.PhasePlaying)

	s.Require().NoError(bob.Restart(s.ctx))
	va := s.awaitPhase(alice, model.PhaseLobby)
	vb := s.awaitPhase(bob, model.PhaseLobby)
	s.Nil(va.State)
	s.Nil(vb.State)
}

func (s *SessionSuite) TestChatAndEmojiReachEveryone() {
	alice := s.startPeer("CR-GAMEEE", "alice", 0)
	bob := s.startPeer("CR-GAMEEE", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.SendChat(s.ctx, "good luck"))
	s.Require().NoError(bob.SendEmoji(s.ctx, "wave"))

	for _, sess := range []*Session{alice, bob} {
		s.Require().Eventually(func() bool {
			v, err := sess.Snapshot(s.ctx)
			return err == nil && len(v.Chat) == 1 && len(v.Emoji) == 1
		}, 3*time.Second, 10*time.Millisecond)
		v, err := sess.Snapshot(s.ctx)
		s.Require().NoError(err)
		s.Equal("good luck", v.Chat[0].Content)
		s.Equal(model.SessionID("alice"), v.Chat[0].SenderID)
		s.Equal("wave", v.Emoji[0].EmojiName)
	}
}

func (s *SessionSuite) TestOpponentAbandonmentForfeits() {
	alice := s.startPeer("CR-GAMEFF", "alice", 0)
	bob := s.startPeer("CR-GAMEFF", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.Start(s.ctx))
	s.awaitPhase(bob, model.PhasePlaying)

	// bob's process goes away mid-game
	s.cancels[1]()

	va := s.awaitPhase(alice, model.PhaseFinished)
	s.Equal(model.SessionID("alice"), va.Outcome.Winner)
	s.Equal("abandonment", va.Outcome.Reason)
	s.Require().Eventually(func() bool {
		return s.recorder.count() == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func (s *SessionSuite) TestLobbyDepartureIsNotForfeit() {
	alice := s.startPeer("CR-GAMEGG", "alice", 0)
	bob := s.startPeer("CR-GAMEGG", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.cancels[1]()
	s.awaitRoster(alice, 1)

	v, err := alice.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.PhaseLobby, v.Phase)
	s.True(v.Outcome.None())
}

func (s *SessionSuite) TestUnoHostAuthoritative() {
	alice := s.startPeer("UO-GAMEAA", "alice", 0)
	bob := s.startPeer("UO-GAMEAA", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.Start(s.ctx))
	vb := s.awaitPhase(bob, model.PhasePlaying)
	s.Equal(model.SessionID("alice"), vb.TurnHolder)

	// the host applies its own moves directly
	s.Require().NoError(alice.Submit(s.ctx, model.Move{Type: uno.MoveTypeDraw}))
	s.Require().Eventually(func() bool {
		v, err := bob.Snapshot(s.ctx)
		return err == nil && v.TurnHolder == "bob"
	}, 3*time.Second, 10*time.Millisecond)

	// the non-host submits an intent; only the host's snapshot moves it
	s.Require().NoError(bob.Submit(s.ctx, model.Move{Type: uno.MoveTypeDraw}))
	s.Require().Eventually(func() bool {
		v, err := bob.Snapshot(s.ctx)
		return err == nil && v.TurnHolder == "alice"
	}, 3*time.Second, 10*time.Millisecond)

	var st uno.State
	va, err := alice.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(va.State, &st))
	s.Len(st.Hands["alice"], 8)
	s.Len(st.Hands["bob"], 8)
}

func testFleet() []battleship.Ship {
	return []battleship.Ship{
		{X: 0, Y: 0, Length: 5, Horizontal: true},
		{X: 0, Y: 1, Length: 4, Horizontal: true},
		{X: 0, Y: 2, Length: 3, Horizontal: true},
		{X: 0, Y: 3, Length: 3, Horizontal: true},
		{X: 0, Y: 4, Length: 2, Horizontal: true},
	}
}

func placeFleet(fleet []battleship.Ship) model.Move {
	payload, _ := json.Marshal(battleship.PlaceFleetPayload{Ships: fleet})
	return model.Move{Type: battleship.MoveTypePlaceFleet, Payload: payload}
}

func fireAt(x, y int) model.Move {
	payload, _ := json.Marshal(battleship.FirePayload{X: x, Y: y})
	return model.Move{Type: battleship.MoveTypeFire, Payload: payload}
}

func (s *SessionSuite) TestBattleshipExchange() {
	alice := s.startPeer("BS-GAMEAA", "alice", 0)
	bob := s.startPeer("BS-GAMEAA", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	// every peer builds its own private view
	s.Require().NoError(alice.Start(s.ctx))
	s.Require().NoError(bob.Start(s.ctx))

	s.Require().NoError(alice.Submit(s.ctx, placeFleet(testFleet())))
	s.Require().NoError(bob.Submit(s.ctx, placeFleet(testFleet())))
	va := s.awaitPhase(alice, model.PhasePlaying)
	s.awaitPhase(bob, model.PhasePlaying)
	s.Equal(model.SessionID("alice"), va.TurnHolder)

	// a hit keeps the attacker's turn
	s.Require().NoError(alice.Submit(s.ctx, fireAt(0, 0)))
	s.Require().Eventually(func() bool {
		v, err := alice.Snapshot(s.ctx)
		if err != nil {
			return false
		}
		var st battleship.State
		if json.Unmarshal(v.State, &st) != nil {
			return false
		}
		return st.Radar["0,0"] == battleship.RadarHit && st.MyTurn
	}, 3*time.Second, 10*time.Millisecond)

	// a miss passes it
	s.Require().NoError(alice.Submit(s.ctx, fireAt(9, 9)))
	s.Require().Eventually(func() bool {
		v, err := bob.Snapshot(s.ctx)
		return err == nil && v.TurnHolder == "bob"
	}, 3*time.Second, 10*time.Millisecond)

	// the defender's view recorded the incoming shots
	vb, err := bob.Snapshot(s.ctx)
	s.Require().NoError(err)
	var st battleship.State
	s.Require().NoError(json.Unmarshal(vb.State, &st))
	s.Equal(1, st.HitsTaken)
	s.True(st.OwnHits["0,0"])
	s.True(st.OwnMiss["9,9"])
}

func (s *SessionSuite) TestBattleshipSinkAllWins() {
	alice := s.startPeer("BS-GAMEBB", "alice", 0)
	bob := s.startPeer("BS-GAMEBB", "bob", time.Second)
	s.awaitRoster(alice, 2)
	s.awaitRoster(bob, 2)

	s.Require().NoError(alice.Start(s.ctx))
	s.Require().NoError(bob.Start(s.ctx))
	s.Require().NoError(alice.Submit(s.ctx, placeFleet(testFleet())))
	s.Require().NoError(bob.Submit(s.ctx, placeFleet(testFleet())))
	s.awaitPhase(alice, model.PhasePlaying)
	s.awaitPhase(bob, model.PhasePlaying)

	// hits keep the turn, so alice can walk the whole fleet
	cells := 0
	for _, ship := range testFleet() {
		for _, c := range ship.Cells() {
			s.Require().NoError(alice.Submit(s.ctx, fireAt(c[0], c[1])))
			cells++
			last := cells == battleship.TotalShipCells
			s.Require().Eventually(func() bool {
				v, err := alice.Snapshot(s.ctx)
				if err != nil {
					return false
				}
				var st battleship.State
				if json.Unmarshal(v.State, &st) != nil {
					return false
				}
				if last {
					return v.Phase == model.PhaseFinished
				}
				return st.HitsDealt == cells
			}, 3*time.Second, 10*time.Millisecond)
		}
	}

	va, err := alice.Snapshot(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.SessionID("alice"), va.Outcome.Winner)
	vb := s.awaitPhase(bob, model.PhaseFinished)
	s.Equal(model.SessionID("alice"), vb.Outcome.Winner)
}

func (s *SessionSuite) TestMoveWithoutGame() {
	alice := s.startPeer("CR-GAMEHH", "alice", 0)
	s.awaitRoster(alice, 1)
	s.ErrorIs(alice.Submit(s.ctx, caroPlace(0, 0)), model.ErrNoGameInProgress)
}

func TestSnapshotReapplyIsNoop(t *testing.T) {
	sess, err := New(Config{
		Code: "CR-REAPLY",
		Self: model.PeerIdentity{SessionID: "bob"},
	}, Deps{
		Clock:  mocks.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Logger: testutil.NopLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	eng := caro.New()
	players := []model.PlayerRef{{SessionID: "alice"}, {SessionID: "bob"}}
	st, err := eng.InitialState(players, "alice", mocks.NewMockRandom())
	if err != nil {
		t.Fatal(err)
	}
	st, err = eng.ApplyMove(st, "alice", caroPlace(3, 3))
	if err != nil {
		t.Fatal(err)
	}
	data, err := eng.EncodeState(st)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	sess.applySnapshot(ctx, model.KindCaro, data)
	first, _ := sess.eng.EncodeState(sess.state)
	count := sess.moveCount

	// the same broadcast again must not move anything
	sess.applySnapshot(ctx, model.KindCaro, data)
	second, _ := sess.eng.EncodeState(sess.state)
	if string(first) != string(second) {
		t.Fatalf("state changed on re-apply:\n%s\n%s", first, second)
	}
	if sess.moveCount != count {
		t.Fatalf("move count double-counted: %d != %d", sess.moveCount, count)
	}
}

func TestNewRejectsUnprefixedCode(t *testing.T) {
	_, err := New(Config{Code: "NOTACODE"}, Deps{Logger: testutil.NopLogger()})
	if err == nil {
		t.Fatal("expected invalid room code error")
	}
}
