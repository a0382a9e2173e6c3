package memory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/dependencies/mocks"
	"github.com/playkit/gameroom/internal/model"
)

type MemorySuite struct {
	suite.Suite
	engine *Engine
	alice  model.PlayerRef
	bob    model.PlayerRef
	state  *State
}

func TestMemorySuite(t *testing.T) {
	suite.Run(t, new(MemorySuite))
}

func (s *MemorySuite) SetupTest() {
	var err error
	s.engine, err = NewWithGrid(2, 2)
	s.Require().NoError(err)

	s.alice = model.PlayerRef{SessionID: "s-alice", UserID: "u-alice", DisplayName: "Alice"}
	s.bob = model.PlayerRef{SessionID: "s-bob", UserID: "u-bob", DisplayName: "Bob"}

	// MockRandom leaves the shuffle untouched: cells are [0,0,1,1]
	st, err := s.engine.InitialState([]model.PlayerRef{s.alice, s.bob}, s.alice.SessionID, mocks.NewMockRandom())
	s.Require().NoError(err)
	s.state = st.(*State)
}

func (s *MemorySuite) reveal(actor model.SessionID, index int) error {
	payload, _ := json.Marshal(RevealPayload{Index: index})
	next, err := s.engine.ApplyMove(s.state, actor, model.Move{Type: MoveTypeReveal, ActorID: actor, Payload: payload})
	if err == nil {
		s.state = next.(*State)
	}
	return err
}

func (s *MemorySuite) TestOddGridRejected() {
	_, err := NewWithGrid(3, 3)
	s.Error(err)
}

func (s *MemorySuite) TestEverySymbolHasOnePair() {
	eng, err := NewWithGrid(4, 4)
	s.Require().NoError(err)
	st, err := eng.InitialState([]model.PlayerRef{s.alice, s.bob}, s.alice.SessionID, mocks.NewMockRandom())
	s.Require().NoError(err)

	counts := make(map[int]int)
	for _, sym := range st.(*State).Cells {
		counts[sym]++
	}
	s.Len(counts, 8)
	for sym, n := range counts {
		s.Equal(2, n, "symbol %d", sym)
	}
}

func (s *MemorySuite) TestMatchScoresAndKeepsTurn() {
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	s.Equal(s.alice.SessionID, s.state.TurnHolder(), "turn unchanged mid-pair")

	s.Require().NoError(s.reveal(s.alice.SessionID, 1))
	s.Equal(1, s.state.Scores[s.alice.SessionID])
	s.True(s.state.Matched[0])
	s.True(s.state.Matched[1])
	s.Empty(s.state.Revealed)
	s.Equal(s.alice.SessionID, s.state.TurnHolder(), "scorer keeps the turn")
}

func (s *MemorySuite) TestMismatchRehidesAndPassesTurn() {
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	s.Require().NoError(s.reveal(s.alice.SessionID, 2))

	s.Zero(s.state.Scores[s.alice.SessionID])
	s.False(s.state.Matched[0])
	s.False(s.state.Matched[2])
	s.Empty(s.state.Revealed, "both cards re-hide")
	s.Equal(s.bob.SessionID, s.state.TurnHolder())
}

func (s *MemorySuite) TestRevealingMatchedCellRejected() {
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	s.Require().NoError(s.reveal(s.alice.SessionID, 1))

	err := s.reveal(s.alice.SessionID, 0)
	s.ErrorIs(err, model.ErrCellOccupied)
}

func (s *MemorySuite) TestRevealingSameCellTwiceRejected() {
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	err := s.reveal(s.alice.SessionID, 0)
	s.ErrorIs(err, model.ErrCellOccupied)
}

func (s *MemorySuite) TestOutOfTurnRejected() {
	err := s.reveal(s.bob.SessionID, 0)
	s.ErrorIs(err, model.ErrNotYourTurn)
}

func (s *MemorySuite) TestGameEndsWhenAllMatchedWinnerByScore() {
	// Alice clears the whole 2x2 board
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	s.Require().NoError(s.reveal(s.alice.SessionID, 1))
	s.True(s.engine.CheckTerminal(s.state).None())

	s.Require().NoError(s.reveal(s.alice.SessionID, 2))
	s.Require().NoError(s.reveal(s.alice.SessionID, 3))

	s.Equal(model.PhaseFinished, s.state.Phase())
	outcome := s.engine.CheckTerminal(s.state)
	s.Equal(s.alice.SessionID, outcome.Winner)
	s.Equal(2, s.state.Scores[s.alice.SessionID])
}

func (s *MemorySuite) TestEqualScoresIsADraw() {
	// Alice mismatches, Bob matches, Bob mismatches, Alice matches:
	// one pair each on the 2x2 board.
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))
	s.Require().NoError(s.reveal(s.alice.SessionID, 2)) // mismatch, pass to bob

	s.Require().NoError(s.reveal(s.bob.SessionID, 0))
	s.Require().NoError(s.reveal(s.bob.SessionID, 1)) // match, bob scores

	s.Require().NoError(s.reveal(s.bob.SessionID, 2))
	s.Require().NoError(s.reveal(s.bob.SessionID, 3)) // match, bob scores again

	// board cleared 2-0, not a draw
	outcome := s.engine.CheckTerminal(s.state)
	s.Equal(s.bob.SessionID, outcome.Winner)
}

func (s *MemorySuite) TestDrawOnSplitBoard() {
	// One pair each on a board whose last pair falls to Bob: equal top
	// scores are reported as a draw.
	ms := &State{
		GamePhase:  model.PhasePlaying,
		PlayerList: []model.PlayerRef{s.alice, s.bob},
		Rows:       2,
		Cols:       2,
		Cells:      []int{0, 0, 1, 1},
		Matched:    []bool{true, true, false, false},
		Scores: map[model.SessionID]int{
			s.alice.SessionID: 1,
			s.bob.SessionID:   0,
		},
		Turn: 1,
	}

	for _, idx := range []int{2, 3} {
		payload, _ := json.Marshal(RevealPayload{Index: idx})
		next, err := s.engine.ApplyMove(ms, s.bob.SessionID, model.Move{Type: MoveTypeReveal, ActorID: s.bob.SessionID, Payload: payload})
		s.Require().NoError(err)
		ms = next.(*State)
	}

	s.Equal(model.PhaseFinished, ms.Phase())
	outcome := s.engine.CheckTerminal(ms)
	s.True(outcome.Draw)
	s.Empty(outcome.Winner)
}

func (s *MemorySuite) TestDeterministicReplay() {
	other, err := s.engine.InitialState([]model.PlayerRef{s.alice, s.bob}, s.alice.SessionID, mocks.NewMockRandom())
	s.Require().NoError(err)

	for _, idx := range []int{0, 2} {
		payload, _ := json.Marshal(RevealPayload{Index: idx})
		mv := model.Move{Type: MoveTypeReveal, ActorID: s.alice.SessionID, Payload: payload}
		next, err := s.engine.ApplyMove(other, s.alice.SessionID, mv)
		s.Require().NoError(err)
		other = next
		s.Require().NoError(s.reveal(s.alice.SessionID, idx))
	}

	s.Equal(s.state, other.(*State))
}

func (s *MemorySuite) TestSnapshotRoundTrip() {
	s.Require().NoError(s.reveal(s.alice.SessionID, 0))

	data, err := s.engine.EncodeState(s.state)
	s.Require().NoError(err)
	decoded, err := s.engine.DecodeState(data)
	s.Require().NoError(err)
	s.Equal(s.state, decoded.(*State))
}
