// Package caro implements the Caro (Gomoku) engine: a bounded 100x100
// grid, strict parity alternation, and a win on exactly five in a row.
package caro

import (
	"encoding/json"
	"fmt"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/model"
)

const (
	// GridSize bounds the otherwise infinite-feeling board
	GridSize = 100
	// WinLength is the exact run length that wins; overlines do not count
	WinLength = 5
)

// Mark is a player's symbol on the board
type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"
)

// MoveTypePlace is the only move type Caro accepts
const MoveTypePlace = "place"

// PlacePayload is the payload of a place move
type PlacePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlacedMark is one entry of the move log
type PlacedMark struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Mark Mark `json:"mark"`
}

// State is the full Caro game state
type State struct {
	GamePhase  model.GamePhase   `json:"phase"`
	PlayerList []model.PlayerRef `json:"players"` // [0] plays X, [1] plays O
	Cells      map[string]Mark   `json:"cells"`
	MoveLog    []PlacedMark      `json:"moves"`
	Result     model.Outcome     `json:"result"`
}

func (s *State) Phase() model.GamePhase { return s.GamePhase }

func (s *State) Players() []model.PlayerRef { return s.PlayerList }

// TurnHolder alternates strictly by parity of the move count: even count
// means X moves next, odd count means O.
func (s *State) TurnHolder() model.SessionID {
	if s.GamePhase != model.PhasePlaying {
		return ""
	}
	return s.PlayerList[len(s.MoveLog)%2].SessionID
}

func cellKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

func (s *State) clone() *State {
	next := *s
	next.Cells = make(map[string]Mark, len(s.Cells)+1)
	for k, v := range s.Cells {
		next.Cells[k] = v
	}
	next.MoveLog = make([]PlacedMark, len(s.MoveLog), len(s.MoveLog)+1)
	copy(next.MoveLog, s.MoveLog)
	return &next
}

// Engine implements the Caro rules
type Engine struct{}

// New creates a Caro engine
func New() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Kind() model.GameKind {
	return model.KindCaro
}

func (e *Engine) Authority() model.AuthorityMode {
	return model.AuthoritySymmetric
}

// InitialState starts a game with the host as X
func (e *Engine) InitialState(players []model.PlayerRef, hostID model.SessionID, _ random.Random) (engine.State, error) {
	if len(players) != 2 {
		return nil, model.ErrInsufficientPeers
	}
	ordered := orderHostFirst(players, hostID)
	return &State{
		GamePhase:  model.PhasePlaying,
		PlayerList: ordered,
		Cells:      make(map[string]Mark),
	}, nil
}

// ValidateMove checks bounds, occupancy, phase, and turn parity
func (e *Engine) ValidateMove(st engine.State, actorID model.SessionID, mv model.Move) error {
	s, ok := st.(*State)
	if !ok {
		return fmt.Errorf("%w: not a caro state", model.ErrInvalidMove)
	}
	if s.GamePhase != model.PhasePlaying {
		return model.ErrWrongPhase
	}
	if mv.Type != MoveTypePlace {
		return fmt.Errorf("%w: unknown move type %q", model.ErrInvalidMove, mv.Type)
	}
	if engine.PlayerIndex(s.PlayerList, actorID) < 0 {
		return model.ErrNotInGame
	}
	if s.TurnHolder() != actorID {
		return model.ErrNotYourTurn
	}
	var p PlacePayload
	if err := json.Unmarshal(mv.Payload, &p); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}
	if p.X < 0 || p.X >= GridSize || p.Y < 0 || p.Y >= GridSize {
		return model.ErrOutOfBounds
	}
	if _, occupied := s.Cells[cellKey(p.X, p.Y)]; occupied {
		return model.ErrCellOccupied
	}
	return nil
}

// ApplyMove places the mark and runs the win check through the new cell
func (e *Engine) ApplyMove(st engine.State, actorID model.SessionID, mv model.Move) (engine.State, error) {
	if err := e.ValidateMove(st, actorID, mv); err != nil {
		return nil, err
	}
	s := st.(*State)

	var p PlacePayload
	if err := json.Unmarshal(mv.Payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}

	mark := MarkX
	if len(s.MoveLog)%2 == 1 {
		mark = MarkO
	}

	next := s.clone()
	next.Cells[cellKey(p.X, p.Y)] = mark
	next.MoveLog = append(next.MoveLog, PlacedMark{X: p.X, Y: p.Y, Mark: mark})

	if next.winsAt(p.X, p.Y, mark) {
		next.GamePhase = model.PhaseFinished
		next.Result = model.Outcome{Winner: actorID}
	} else if len(next.MoveLog) == GridSize*GridSize {
		next.GamePhase = model.PhaseFinished
		next.Result = model.Outcome{Draw: true}
	}
	return next, nil
}

func (e *Engine) CheckTerminal(st engine.State) model.Outcome {
	return st.(*State).Result
}

func (e *Engine) EncodeState(st engine.State) ([]byte, error) {
	return json.Marshal(st)
}

func (e *Engine) DecodeState(data []byte) (engine.State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode caro state: %w", err)
	}
	if s.Cells == nil {
		s.Cells = make(map[string]Mark)
	}
	return &s, nil
}

// winsAt scans only the four lines through the just-placed cell. This is
// sufficient: a five-in-a-row can only newly appear through that cell.
// The run must be exactly WinLength; overlines are not a win.
func (s *State) winsAt(x, y int, mark Mark) bool {
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	for _, d := range dirs {
		run := 1
		run += s.countFrom(x, y, d[0], d[1], mark)
		run += s.countFrom(x, y, -d[0], -d[1], mark)
		if run == WinLength {
			return true
		}
	}
	return false
}

func (s *State) countFrom(x, y, dx, dy int, mark Mark) int {
	count := 0
	for {
		x += dx
		y += dy
		if x < 0 || x >= GridSize || y < 0 || y >= GridSize {
			return count
		}
		if s.Cells[cellKey(x, y)] != mark {
			return count
		}
		count++
	}
}

func orderHostFirst(players []model.PlayerRef, hostID model.SessionID) []model.PlayerRef {
	ordered := make([]model.PlayerRef, len(players))
	copy(ordered, players)
	if len(ordered) == 2 && ordered[1].SessionID == hostID {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}
	return ordered
}
