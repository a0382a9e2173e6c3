// Package uno implements the Uno engine. Uno runs host-authoritative:
// effect resolution (draw-pile reshuffling, skip chaining) is easiest to
// keep consistent with a single writer, so non-host peers submit actions
// and only the host applies them and rebroadcasts state.
package uno

import (
	"encoding/json"
	"fmt"

	"github.com/playkit/gameroom/internal/dependencies/random"
	"github.com/playkit/gameroom/internal/engine"
	"github.com/playkit/gameroom/internal/model"
)

// InitialHandSize is dealt to every player
const InitialHandSize = 7

// Color of a card. Wild cards carry ColorWild until played.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

var standardColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// Value of a card
type Value string

const (
	ValueSkip    Value = "skip"
	ValueReverse Value = "reverse"
	ValueDraw2   Value = "draw2"
	ValueWild    Value = "wild"
	ValueWild4   Value = "wild4"
)

// Card is one Uno card
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// IsWild reports whether the card requires a color choice when played
func (c Card) IsWild() bool {
	return c.Value == ValueWild || c.Value == ValueWild4
}

// Move types
const (
	MoveTypePlay = "play"
	MoveTypeDraw = "draw"
)

// PlayPayload plays the card at the given hand index. ChosenColor is
// required for wild cards and must be absent otherwise.
type PlayPayload struct {
	CardIndex   int   `json:"cardIndex"`
	ChosenColor Color `json:"chosenColor,omitempty"`
}

// State is the full Uno game state. Hands are visible in snapshots; the
// host is the only writer, and hiding opponent hands is a UI concern.
type State struct {
	GamePhase   model.GamePhase            `json:"phase"`
	PlayerList  []model.PlayerRef          `json:"players"`
	Hands       map[model.SessionID][]Card `json:"hands"`
	DrawPile    []Card                     `json:"drawPile"`
	DiscardPile []Card                     `json:"discardPile"` // last element is the top
	Turn        int                        `json:"turn"`
	Direction   int                        `json:"direction"` // +1 or -1
	ActiveColor Color                      `json:"activeColor"`
	Result      model.Outcome              `json:"result"`
}

func (s *State) Phase() model.GamePhase { return s.GamePhase }

func (s *State) Players() []model.PlayerRef { return s.PlayerList }

func (s *State) TurnHolder() model.SessionID {
	if s.GamePhase != model.PhasePlaying {
		return ""
	}
	return s.PlayerList[s.Turn].SessionID
}

// Top returns the top discard
func (s *State) Top() Card {
	return s.DiscardPile[len(s.DiscardPile)-1]
}

func (s *State) clone() *State {
	next := *s
	next.Hands = make(map[model.SessionID][]Card, len(s.Hands))
	for id, hand := range s.Hands {
		next.Hands[id] = append([]Card(nil), hand...)
	}
	next.DrawPile = append([]Card(nil), s.DrawPile...)
	next.DiscardPile = append([]Card(nil), s.DiscardPile...)
	return &next
}

// NewDeck builds the 108-card deck: per color one zero, two of each 1-9
// and of each action card, plus four wilds and four wild-draw-fours.
func NewDeck() []Card {
	deck := make([]Card, 0, 108)
	for _, color := range standardColors {
		deck = append(deck, Card{Color: color, Value: "0"})
		for n := 1; n <= 9; n++ {
			v := Value(fmt.Sprintf("%d", n))
			deck = append(deck, Card{Color: color, Value: v}, Card{Color: color, Value: v})
		}
		for _, v := range []Value{ValueSkip, ValueReverse, ValueDraw2} {
			deck = append(deck, Card{Color: color, Value: v}, Card{Color: color, Value: v})
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, Card{Color: ColorWild, Value: ValueWild})
		deck = append(deck, Card{Color: ColorWild, Value: ValueWild4})
	}
	return deck
}

// Engine implements the Uno rules
type Engine struct{}

// New creates an Uno engine
func New() *Engine {
	return &Engine{}
}

var _ engine.Engine = (*Engine)(nil)

func (e *Engine) Kind() model.GameKind {
	return model.KindUno
}

func (e *Engine) Authority() model.AuthorityMode {
	return model.AuthorityHost
}

// InitialState shuffles, deals seven cards each, and flips the first
// non-wild card as the starting discard. Randomness is consumed only
// here; every later transition is deterministic.
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

	deck := NewDeck()
	rnd.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	hands := make(map[model.SessionID][]Card, len(ordered))
	for _, p := range ordered {
		hands[p.SessionID] = append([]Card(nil), deck[:InitialHandSize]...)
		deck = deck[InitialHandSize:]
	}

	// flip until a non-wild surfaces; wilds flipped early go to the
	// bottom of the draw pile
	var top Card
	for {
		top, deck = deck[0], deck[1:]
		if !top.IsWild() {
			break
		}
		deck = append(deck, top)
	}

	return &State{
		GamePhase:   model.PhasePlaying,
		PlayerList:  ordered,
		Hands:       hands,
		DrawPile:    deck,
		DiscardPile: []Card{top},
		Turn:        0,
		Direction:   1,
		ActiveColor: top.Color,
	}, nil
}

// ValidateMove checks turn, phase, and card playability
func (e *Engine) ValidateMove(st engine.State, actorID model.SessionID, mv model.Move) error {
	s, ok := st.(*State)
	if !ok {
		return fmt.Errorf("%w: not an uno state", model.ErrInvalidMove)
	}
	if s.GamePhase != model.PhasePlaying {
		return model.ErrWrongPhase
	}
	if engine.PlayerIndex(s.PlayerList, actorID) < 0 {
		return model.ErrNotInGame
	}
	if s.TurnHolder() != actorID {
		return model.ErrNotYourTurn
	}

	switch mv.Type {
	case MoveTypeDraw:
		return nil

	case MoveTypePlay:
		var p PlayPayload
		if err := json.Unmarshal(mv.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidMove, err)
		}
		hand := s.Hands[actorID]
		if p.CardIndex < 0 || p.CardIndex >= len(hand) {
			return fmt.Errorf("%w: card index out of range", model.ErrInvalidMove)
		}
		card := hand[p.CardIndex]
		if card.IsWild() {
			// a wild without a color choice is rejected, never defaulted
			if !isStandardColor(p.ChosenColor) {
				return model.ErrColorRequired
			}
			return nil
		}
		if p.ChosenColor != "" {
			return fmt.Errorf("%w: color choice only valid for wild cards", model.ErrInvalidMove)
		}
		if card.Color != s.ActiveColor && card.Value != s.Top().Value {
			return model.ErrCardNotPlayable
		}
		return nil
	}

	return fmt.Errorf("%w: unknown move type %q", model.ErrInvalidMove, mv.Type)
}

// ApplyMove resolves a play or a draw
func (e *Engine) ApplyMove(st engine.State, actorID model.SessionID, mv model.Move) (engine.State, error) {
	if err := e.ValidateMove(st, actorID, mv); err != nil {
		return nil, err
	}
	s := st.(*State)
	next := s.clone()

	switch mv.Type {
	case MoveTypeDraw:
		card, ok := next.drawOne()
		if ok {
			next.Hands[actorID] = append(next.Hands[actorID], card)
		}
		next.advance(1)

	case MoveTypePlay:
		var p PlayPayload
		_ = json.Unmarshal(mv.Payload, &p)

		hand := next.Hands[actorID]
		card := hand[p.CardIndex]
		next.Hands[actorID] = append(hand[:p.CardIndex:p.CardIndex], hand[p.CardIndex+1:]...)
		next.DiscardPile = append(next.DiscardPile, card)

		if card.IsWild() {
			next.ActiveColor = p.ChosenColor
		} else {
			next.ActiveColor = card.Color
		}

		if len(next.Hands[actorID]) == 0 {
			next.GamePhase = model.PhaseFinished
			next.Result = model.Outcome{Winner: actorID}
			return next, nil
		}

		switch card.Value {
		case ValueSkip:
			next.advance(2)
		case ValueReverse:
			if len(next.PlayerList) == 2 {
				// with two players a reverse degenerates to a skip
				next.advance(2)
			} else {
				next.Direction = -next.Direction
				next.advance(1)
			}
		case ValueDraw2:
			next.dealToNext(2)
			next.advance(2)
		case ValueWild4:
			next.dealToNext(4)
			next.advance(2)
		default:
			next.advance(1)
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
		return nil, fmt.Errorf("decode uno state: %w", err)
	}
	return &s, nil
}

// advance moves the turn pointer n steps in the current direction
func (s *State) advance(n int) {
	count := len(s.PlayerList)
	s.Turn = ((s.Turn+s.Direction*n)%count + count) % count
}

// dealToNext gives n cards to the next player in the current direction
func (s *State) dealToNext(n int) {
	target := s.PlayerList[((s.Turn+s.Direction)%len(s.PlayerList)+len(s.PlayerList))%len(s.PlayerList)].SessionID
	for i := 0; i < n; i++ {
		card, ok := s.drawOne()
		if !ok {
			return
		}
		s.Hands[target] = append(s.Hands[target], card)
	}
}

// drawOne takes the top of the draw pile, reshuffling the discard pile
// (minus its top card) underneath when exhausted. The reshuffle is a
// deterministic reversal so every replica derives the same pile.
func (s *State) drawOne() (Card, bool) {
	if len(s.DrawPile) == 0 {
		if len(s.DiscardPile) <= 1 {
			return Card{}, false
		}
		recycled := s.DiscardPile[:len(s.DiscardPile)-1]
		top := s.DiscardPile[len(s.DiscardPile)-1]
		for i := len(recycled) - 1; i >= 0; i-- {
			c := recycled[i]
			if c.IsWild() {
				c.Color = ColorWild
			}
			s.DrawPile = append(s.DrawPile, c)
		}
		s.DiscardPile = []Card{top}
	}
	card := s.DrawPile[0]
	s.DrawPile = s.DrawPile[1:]
	return card, true
}

func isStandardColor(c Color) bool {
	for _, sc := range standardColors {
		if c == sc {
			return true
		}
	}
	return false
}
