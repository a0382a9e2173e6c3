// Package memory implements the Memory Match engine: a parameterized
// grid of face-down pairs, round-robin turns over the roster, and an
// extra turn for every matched pair.
package memory

import (
	"encoding/json"
	"fmt"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/model"
)

// Default grid dimensions
const (
	DefaultRows = 4
	DefaultCols = 4
)

// MoveTypeReveal is the only move type: turn one hidden cell face up
const MoveTypeReveal = "reveal"

// RevealPayload identifies the cell to reveal
type RevealPayload struct {
	Index int `json:"index"`
}

// State is the full Memory game state
type State struct {
	GamePhase  model.GamePhase         `json:"phase"`
	PlayerList []model.PlayerRef       `json:"players"`
	Rows       int                     `json:"rows"`
	Cols       int                     `json:"cols"`
	Cells      []int                   `json:"cells"`   // symbol id per cell
	Matched    []bool                  `json:"matched"` // permanently face up
	Revealed   []int                   `json:"revealed"` // cells face up this turn, at most two
	Scores     map[model.SessionID]int `json:"scores"`
	Turn       int                     `json:"turn"`
	Result     model.Outcome           `json:"result"`
}

func (s *State) Phase() model.GamePhase { return s.GamePhase }

func (s *State) Players() []model.PlayerRef { return s.PlayerList }

func (s *State) TurnHolder() model.SessionID {
	if s.GamePhase != model.PhasePlaying {
		return ""
	}
	return s.PlayerList[s.Turn].SessionID
}

func (s *State) clone() *State {
	next := *s
	next.Cells = append([]int(nil), s.Cells...)
	next.Matched = append([]bool(nil), s.Matched...)
	next.Revealed = append([]int(nil), s.Revealed...)
	next.Scores = make(map[model.SessionID]int, len(s.Scores))
	for id, score := range s.Scores {
		next.Scores[id] = score
	}
	return &next
}

// Engine implements the Memory rules
type Engine struct {
	rows int
	cols int
}

// New creates a Memory engine with the default 4x4 grid
func New() *Engine {
	return &Engine{rows: DefaultRows, cols: DefaultCols}
}

// NewWithGrid creates a Memory engine with a custom grid. The cell count
// must be even so every symbol has exactly one pair.
func NewWithGrid(rows, cols int) (*Engine, error) {
	if rows <= 0 || cols <= 0 || (rows*cols)%2 != 0 {
		return nil, fmt.Errorf("memory: grid %dx%d must have a positive even cell count", rows, cols)
	}
	return &Engine{rows: rows, cols: cols}, nil
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Kind() model.GameKind {
	return model.KindMemory
}

func (e *Engine) Authority() model.AuthorityMode {
	return model.AuthoritySymmetric
}

// InitialState lays out every symbol twice and shuffles. The host moves
// first; turns then round-robin over the frozen player list.
func (e *Engine) InitialState(players []model.PlayerRef, hostID model.SessionID, rnd random.Random) (engine.State, error) {
	if len(players) < 2 {
		return nil, model.ErrInsufficientPeers
	}

	ordered := make([]model.PlayerRef, len(players))
	copy(ordered, players)
	for i, p := range ordered {
		if p.SessionID == hostID && i != 0 {
			ordered[0], ordered[i] = ordered[i], ordered[0]
			break
		}
	}

	total := e.rows * e.cols
	cells := make([]int, total)
	for i := 0; i < total; i++ {
		cells[i] = i / 2
	}
	rnd.Shuffle(total, func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	scores := make(map[model.SessionID]int, len(ordered))
	for _, p := range ordered {
		scores[p.SessionID] = 0
	}

	return &State{
		GamePhase:  model.PhasePlaying,
		PlayerList: ordered,
		Rows:       e.rows,
		Cols:       e.cols,
		Cells:      cells,
		Matched:    make([]bool, total),
		Scores:     scores,
	}, nil
}

// ValidateMove checks phase, turn, and that the cell can be revealed
func (e *Engine) ValidateMove(st engine.State, actorID model.SessionID, mv model.Move) error {
	s, ok := st.(*State)
	if !ok {
		return fmt.Errorf("%w: not a memory state", model.ErrInvalidMove)
	}
	if s.GamePhase != model.PhasePlaying {
		return model.ErrWrongPhase
	}
	if mv.Type != MoveTypeReveal {
		return fmt.Errorf("%w: unknown move type %q", model.ErrInvalidMove, mv.Type)
	}
	if engine.PlayerIndex(s.PlayerList, actorID) < 0 {
		return model.ErrNotInGame
	}
	if s.TurnHolder() != actorID {
		return model.ErrNotYourTurn
	}

	var p RevealPayload
	if err := json.Unmarshal(mv.Payload, &p); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}
	if p.Index < 0 || p.Index >= len(s.Cells) {
		return model.ErrOutOfBounds
	}
	if s.Matched[p.Index] {
		return model.ErrCellOccupied
	}
	for _, r := range s.Revealed {
		if r == p.Index {
			return model.ErrCellOccupied
		}
	}
	return nil
}

// ApplyMove reveals a cell and resolves the pair once two are face up:
// a match scores and keeps the turn; a mismatch re-hides both and passes
// the turn round-robin.
func (e *Engine) ApplyMove(st engine.State, actorID model.SessionID, mv model.Move) (engine.State, error) {
	if err := e.ValidateMove(st, actorID, mv); err != nil {
		return nil, err
	}
	s := st.(*State)

	var p RevealPayload
	if err := json.Unmarshal(mv.Payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
	}

	next := s.clone()
	next.Revealed = append(next.Revealed, p.Index)

	if len(next.Revealed) == 2 {
		first, second := next.Revealed[0], next.Revealed[1]
		if next.Cells[first] == next.Cells[second] {
			next.Matched[first] = true
			next.Matched[second] = true
			next.Scores[actorID]++
			// scorer's turn continues
		} else {
			next.Turn = (next.Turn + 1) % len(next.PlayerList)
		}
		next.Revealed = nil

		if next.allMatched() {
			next.GamePhase = model.PhaseFinished
			next.Result = next.computeOutcome()
		}
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
		return nil, fmt.Errorf("decode memory state: %w", err)
	}
	return &s, nil
}

func (s *State) allMatched() bool {
	for _, m := range s.Matched {
		if !m {
			return false
		}
	}
	return true
}

// computeOutcome picks the highest score; any tie for the top is a draw
func (s *State) computeOutcome() model.Outcome {
	best := -1
	var winner model.SessionID
	tied := false
	for _, p := range s.PlayerList {
		score := s.Scores[p.SessionID]
		switch {
		case score > best:
			best = score
			winner = p.SessionID
			tied = false
		case score == best:
			tied = true
		}
	}
	if tied {
		return model.Outcome{Draw: true}
	}
	return model.Outcome{Winner: winner}
}
