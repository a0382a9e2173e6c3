// Package battleship implements the Battleship engine. Unlike the other
// games, state is not replicated symmetrically: each peer's state is its
// own private view (fleet grid plus radar), because the real ship
// positions only exist on the defending side. The defender resolves
// incoming shots and broadcasts the verdict; the attacker learns the
// opponent's board only through received verdicts.
package battleship

import (
	"encoding/json"
	"fmt"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/model"
)

const (
	// GridSize is the side length of both grids
	GridSize = 10
	// TotalShipCells is the sum of all ship lengths; hitting them all
	// ends the game.
	TotalShipCells = 17
)

// FleetSizes are the fixed ship lengths every fleet must place
var FleetSizes = []int{5, 4, 3, 3, 2}

// Move types
const (
	MoveTypePlaceFleet    = "place_fleet"
	MoveTypeFire          = "fire"
	MoveTypeIncomingFire  = "incoming_fire"
	MoveTypeFireResult    = "fire_result"
	MoveTypeOpponentReady = "opponent_ready"
)

// Shot result values
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Ship is one placed ship
type Ship struct {
	X          int  `json:"x"`
	Y          int  `json:"y"`
	Length     int  `json:"length"`
	Horizontal bool `json:"horizontal"`
}

// Cells returns the coordinates the ship occupies
func (s Ship) Cells() [][2]int {
	cells := make([][2]int, s.Length)
	for i := 0; i < s.Length; i++ {
		if s.Horizontal {
			cells[i] = [2]int{s.X + i, s.Y}
		} else {
			cells[i] = [2]int{s.X, s.Y + i}
		}
	}
	return cells
}

// PlaceFleetPayload carries the owner's full fleet placement
type PlaceFleetPayload struct {
	Ships []Ship `json:"ships"`
}

// FirePayload is a shot at the opponent's grid
type FirePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FireResultPayload is the defender's verdict for the owner's last shot
type FireResultPayload struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Result   string `json:"result"`
	GameOver bool   `json:"gameOver"`
}

// Verdict is what the owner must broadcast after resolving an incoming
// shot against their own grid.
type Verdict struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Result   string `json:"result"`
	GameOver bool   `json:"gameOver"`
}

// RadarMark is the owner's knowledge of an opponent cell
type RadarMark string

const (
	RadarHit  RadarMark = "hit"
	RadarMiss RadarMark = "miss"
)

// State is one peer's private view of the game
type State struct {
	GamePhase  model.GamePhase   `json:"phase"`
	PlayerList []model.PlayerRef `json:"players"`
	OwnerID    model.SessionID   `json:"ownerId"`

	Ships    []Ship               `json:"ships"`
	OwnHits  map[string]bool      `json:"ownHits"`  // opponent shots that landed on our cells
	OwnMiss  map[string]bool      `json:"ownMiss"`  // opponent shots that missed
	Radar    map[string]RadarMark `json:"radar"`    // our knowledge of the opponent grid
	MyTurn   bool                 `json:"myTurn"`
	FleetSet bool                 `json:"fleetSet"`
	OppReady bool                 `json:"oppReady"`

	HitsTaken int `json:"hitsTaken"`
	HitsDealt int `json:"hitsDealt"`

	// PendingShot is set between broadcasting a fire and receiving its
	// verdict, so duplicate or stray verdicts can be ignored.
	PendingShot *FirePayload `json:"pendingShot,omitempty"`

	// LastVerdict is filled when an incoming shot is resolved; the room
	// session reads it to broadcast the fire_result.
	LastVerdict *Verdict `json:"lastVerdict,omitempty"`

	Result model.Outcome `json:"result"`
}

func (s *State) Phase() model.GamePhase { return s.GamePhase }

func (s *State) Players() []model.PlayerRef { return s.PlayerList }

func (s *State) TurnHolder() model.SessionID {
	if s.GamePhase != model.PhasePlaying {
		return ""
	}
	if s.MyTurn {
		return s.OwnerID
	}
	return s.opponentID()
}

func (s *State) opponentID() model.SessionID {
	for _, p := range s.PlayerList {
		if p.SessionID != s.OwnerID {
			return p.SessionID
		}
	}
	return ""
}

func (s *State) clone() *State {
	next := *s
	next.Ships = append([]Ship(nil), s.Ships...)
	next.OwnHits = cloneSet(s.OwnHits)
	next.OwnMiss = cloneSet(s.OwnMiss)
	next.Radar = make(map[string]RadarMark, len(s.Radar)+1)
	for k, v := range s.Radar {
		next.Radar[k] = v
	}
	if s.PendingShot != nil {
		shot := *s.PendingShot
		next.PendingShot = &shot
	}
	if s.LastVerdict != nil {
		v := *s.LastVerdict
		next.LastVerdict = &v
	}
	return &next
}

func cloneSet(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cellKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// Engine implements the Battleship rules over per-peer views
type Engine struct{}

// New creates a Battleship engine
func New() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Kind() model.GameKind {
	return model.KindBattleship
}

// Authority is symmetric in the sense that no single peer owns the whole
// game: each side is authoritative for its own grid only.
func (e *Engine) Authority() model.AuthorityMode {
	return model.AuthoritySymmetric
}

// InitialState builds the owner's view. The host fires first once both
// fleets are placed.
func (e *Engine) InitialState(players []model.PlayerRef, hostID model.SessionID, _ random.Random) (engine.State, error) {
	return nil, fmt.Errorf("battleship: use InitialStateFor to build a per-peer view")
}

// InitialStateFor builds the private view for one peer
func (e *Engine) InitialStateFor(players []model.PlayerRef, hostID, ownerID model.SessionID) (*State, error) {
	if len(players) != 2 {
		return nil, model.ErrInsufficientPeers
	}
	if engine.PlayerIndex(players, ownerID) < 0 {
		return nil, model.ErrNotInGame
	}
	return &State{
		GamePhase:  model.PhaseSetup,
		PlayerList: players,
		OwnerID:    ownerID,
		OwnHits:    make(map[string]bool),
		OwnMiss:    make(map[string]bool),
		Radar:      make(map[string]RadarMark),
		MyTurn:     ownerID == hostID,
	}, nil
}

// ValidateMove checks legality without applying
func (e *Engine) ValidateMove(st engine.State, actorID model.SessionID, mv model.Move) error {
	s, ok := st.(*State)
	if !ok {
		return fmt.Errorf("%w: not a battleship state", model.ErrInvalidMove)
	}
	if engine.PlayerIndex(s.PlayerList, actorID) < 0 {
		return model.ErrNotInGame
	}

	switch mv.Type {
	case MoveTypePlaceFleet:
		if s.GamePhase != model.PhaseSetup {
			return model.ErrWrongPhase
		}
		if actorID != s.OwnerID {
			return model.ErrNotAuthoritative
		}
		if s.FleetSet {
			return fmt.Errorf("%w: fleet already placed", model.ErrInvalidMove)
		}
		var p PlaceFleetPayload
		if err := json.Unmarshal(mv.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		return validateFleet(p.Ships)

	case MoveTypeOpponentReady:
		if s.GamePhase != model.PhaseSetup {
			return model.ErrWrongPhase
		}
		if actorID == s.OwnerID {
			return model.ErrNotAuthoritative
		}
		return nil

	case MoveTypeFire:
		if s.GamePhase != model.PhasePlaying {
			return model.ErrWrongPhase
		}
		if actorID != s.OwnerID {
			return model.ErrNotAuthoritative
		}
		if !s.MyTurn {
			return model.ErrNotYourTurn
		}
		if s.PendingShot != nil {
			return fmt.Errorf("%w: previous shot awaiting verdict", model.ErrInvalidMove)
		}
		var p FirePayload
		if err := json.Unmarshal(mv.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		if !inBounds(p.X, p.Y) {
			return model.ErrOutOfBounds
		}
		if _, known := s.Radar[cellKey(p.X, p.Y)]; known {
			return model.ErrCellOccupied
		}
		return nil

	case MoveTypeIncomingFire:
		if s.GamePhase != model.PhasePlaying {
			return model.ErrWrongPhase
		}
		if actorID == s.OwnerID {
			return model.ErrNotAuthoritative
		}
		if s.MyTurn {
			return model.ErrNotYourTurn
		}
		var p FirePayload
		if err := json.Unmarshal(mv.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		if !inBounds(p.X, p.Y) {
			return model.ErrOutOfBounds
		}
		return nil

	case MoveTypeFireResult:
		if s.GamePhase != model.PhasePlaying {
			return model.ErrWrongPhase
		}
		if actorID == s.OwnerID {
			return model.ErrNotAuthoritative
		}
		if s.PendingShot == nil {
			return fmt.Errorf("%w: no shot awaiting verdict", model.ErrInvalidMove)
		}
		var p FireResultPayload
		if err := json.Unmarshal(mv.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		if p.X != s.PendingShot.X || p.Y != s.PendingShot.Y {
			return fmt.Errorf("%w: verdict for (%d,%d) does not match shot at (%d,%d)",
				model.ErrInvalidMove, p.X, p.Y, s.PendingShot.X, s.PendingShot.Y)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown move type %q", model.ErrInvalidMove, mv.Type)
}

// ApplyMove advances the owner's view
func (e *Engine) ApplyMove(st engine.State, actorID model.SessionID, mv model.Move) (engine.State, error) {
	if err := e.ValidateMove(st, actorID, mv); err != nil {
		return nil, err
	}
	s := st.(*State)
	next := s.clone()
	next.LastVerdict = nil

	switch mv.Type {
	case MoveTypePlaceFleet:
		var p PlaceFleetPayload
		_ = json.Unmarshal(mv.Payload, &p)
		next.Ships = p.Ships
		next.FleetSet = true

	case MoveTypeOpponentReady:
		next.OppReady = true

	case MoveTypeFire:
		var p FirePayload
		_ = json.Unmarshal(mv.Payload, &p)
		next.PendingShot = &p

	case MoveTypeIncomingFire:
		var p FirePayload
		_ = json.Unmarshal(mv.Payload, &p)
		key := cellKey(p.X, p.Y)
		verdict := Verdict{X: p.X, Y: p.Y, Result: ResultMiss}
		if next.shipAt(p.X, p.Y) {
			if !next.OwnHits[key] {
				next.HitsTaken++
			}
			next.OwnHits[key] = true
			verdict.Result = ResultHit
			// a hit keeps the turn with the firing opponent
		} else {
			next.OwnMiss[key] = true
			next.MyTurn = true
		}
		if next.HitsTaken >= TotalShipCells {
			verdict.GameOver = true
			next.GamePhase = model.PhaseFinished
			next.Result = model.Outcome{Winner: next.opponentID()}
		}
		next.LastVerdict = &verdict

	case MoveTypeFireResult:
		var p FireResultPayload
		_ = json.Unmarshal(mv.Payload, &p)
		key := cellKey(p.X, p.Y)
		if p.Result == ResultHit {
			next.Radar[key] = RadarHit
			next.HitsDealt++
			// extra turn on hit: MyTurn stays true
		} else {
			next.Radar[key] = RadarMiss
			next.MyTurn = false
		}
		next.PendingShot = nil
		if p.GameOver {
			next.GamePhase = model.PhaseFinished
			next.Result = model.Outcome{Winner: next.OwnerID}
		}
	}

	// both fleets ready ends setup
	if next.GamePhase == model.PhaseSetup && next.FleetSet && next.OppReady {
		next.GamePhase = model.PhasePlaying
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
		return nil, fmt.Errorf("decode battleship state: %w", err)
	}
	return &s, nil
}

func (s *State) shipAt(x, y int) bool {
	for _, ship := range s.Ships {
		for _, c := range ship.Cells() {
			if c[0] == x && c[1] == y {
				return true
			}
		}
	}
	return false
}

func inBounds(x, y int) bool {
	return x >= 0 && x < GridSize && y >= 0 && y < GridSize
}

// validateFleet checks sizes, bounds, and overlap
func validateFleet(ships []Ship) error {
	if len(ships) != len(FleetSizes) {
		return fmt.Errorf("%w: expected %d ships", model.ErrFleetInvalid, len(FleetSizes))
	}

	// lengths must match the fixed fleet, order-insensitive
	remaining := make(map[int]int)
	for _, l := range FleetSizes {
		remaining[l]++
	}
	for _, ship := range ships {
		if remaining[ship.Length] == 0 {
			return fmt.Errorf("%w: unexpected ship of length %d", model.ErrFleetInvalid, ship.Length)
		}
		remaining[ship.Length]--
	}

	occupied := make(map[string]bool)
	for _, ship := range ships {
		for _, c := range ship.Cells() {
			if !inBounds(c[0], c[1]) {
				return fmt.Errorf("%w: ship extends past bounds", model.ErrFleetInvalid)
			}
			key := cellKey(c[0], c[1])
			if occupied[key] {
				return fmt.Errorf("%w: ships overlap at %s", model.ErrFleetInvalid, key)
			}
			occupied[key] = true
		}
	}
	return nil
}
