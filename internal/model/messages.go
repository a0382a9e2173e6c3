package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType identifies the kind of a broadcast message
type EventType string

const (
	EventGameUpdate   EventType = "game_update"
	EventGameAction   EventType = "game_action"
	EventFire         EventType = "fire"
	EventFireResult   EventType = "fire_result"
	EventRequestState EventType = "request_state"
	EventSyncState    EventType = "sync_state"
	EventChat         EventType = "chat"
	EventEmoji        EventType = "emoji"
	EventRestart      EventType = "restart"
	EventMatchFound   EventType = "match_found"
)

// Envelope is the wire shape of every broadcast: an event name plus a
// payload. Payloads are decoded into the closed Message union below so
// handlers get compile-time coverage instead of ad hoc map access.
type Envelope struct {
	Event   EventType       `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Move is an immutable, serializable game action, broadcast once and
// applied deterministically by every receiving peer's engine.
type Move struct {
	Type            string          `json:"type"`
	ActorID         SessionID       `json:"actorId"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	ClientTimestamp time.Time       `json:"clientTimestamp"`
}

// Message is the closed union of broadcast payloads
type Message interface {
	event() EventType
}

// GameUpdate carries a full authoritative state snapshot. Receivers
// overwrite local state unconditionally: snapshots are self-sufficient,
// so a dropped broadcast is repaired by the next one.
type GameUpdate struct {
	Kind  GameKind        `json:"kind"`
	State json.RawMessage `json:"state"`
}

// GameAction is a peer's submitted move in host-authoritative games;
// only the host applies it and rebroadcasts the resulting GameUpdate.
type GameAction struct {
	Move Move `json:"move"`
}

// Fire is a Battleship shot announced by the attacker. The defender
// resolves it against their private grid.
type Fire struct {
	X       int       `json:"x"`
	Y       int       `json:"y"`
	ActorID SessionID `json:"actorId"`
}

// FireResult is the defender's verdict for a shot
type FireResult struct {
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Result   string    `json:"result"` // "hit" | "miss"
	GameOver bool      `json:"gameOver"`
	ActorID  SessionID `json:"actorId"`
}

// RequestState asks any peer holding non-empty state for a snapshot
type RequestState struct {
	From SessionID `json:"from"`
}

// SyncState is the reply to RequestState. Requesters apply only the
// first reply received and ignore the rest.
type SyncState struct {
	Kind  GameKind        `json:"kind"`
	State json.RawMessage `json:"state"`
	To    SessionID       `json:"to"`
}

// Chat is a fire-and-forget chat line, purely additive to a local list
type Chat struct {
	ID         string    `json:"id"`
	SenderID   SessionID `json:"senderId"`
	SenderName string    `json:"senderName"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// Emoji is an ephemeral cosmetic broadcast, expired client-side
type Emoji struct {
	ID        string    `json:"id"`
	SenderID  SessionID `json:"senderId"`
	EmojiName string    `json:"emojiName"`
	Timestamp time.Time `json:"timestamp"`
}

// Restart resets all peers to the lobby phase
type Restart struct{}

// MatchFound is the matchmaking assignment broadcast by the peer that
// won the pairing tie-break.
type MatchFound struct {
	RoomCode  RoomCode  `json:"roomCode"`
	CreatorID SessionID `json:"creatorId"`
}

func (GameUpdate) event() EventType   { return EventGameUpdate }
func (GameAction) event() EventType   { return EventGameAction }
func (Fire) event() EventType         { return EventFire }
func (FireResult) event() EventType   { return EventFireResult }
func (RequestState) event() EventType { return EventRequestState }
func (SyncState) event() EventType    { return EventSyncState }
func (Chat) event() EventType         { return EventChat }
func (Emoji) event() EventType        { return EventEmoji }
func (Restart) event() EventType      { return EventRestart }
func (MatchFound) event() EventType   { return EventMatchFound }

// NewEnvelope wraps a message for the wire
func NewEnvelope(msg Message) (Envelope, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", msg.event(), err)
	}
	return Envelope{Event: msg.event(), Payload: payload}, nil
}

// MustEnvelope wraps a message and panics on encoding failure. All
// payload types marshal cleanly; this exists for call sites where an
// error return would only ever be dead code.
func MustEnvelope(msg Message) Envelope {
	env, err := NewEnvelope(msg)
	if err != nil {
		panic(err)
	}
	return env
}

// Decode turns an envelope back into its typed message
func (e Envelope) Decode() (Message, error) {
	var msg Message
	switch e.Event {
	case EventGameUpdate:
		msg = &GameUpdate{}
	case EventGameAction:
		msg = &GameAction{}
	case EventFire:
		msg = &Fire{}
	case EventFireResult:
		msg = &FireResult{}
	case EventRequestState:
		msg = &RequestState{}
	case EventSyncState:
		msg = &SyncState{}
	case EventChat:
		msg = &Chat{}
	case EventEmoji:
		msg = &Emoji{}
	case EventRestart:
		return Restart{}, nil
	case EventMatchFound:
		msg = &MatchFound{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Event)
	}

	if len(e.Payload) > 0 {
		if err := json.Unmarshal(e.Payload, msg); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Event, err)
		}
	}

	// Return by value so handlers can type-switch on concrete types
	switch m := msg.(type) {
	case *GameUpdate:
		return *m, nil
	case *GameAction:
		return *m, nil
	case *Fire:
		return *m, nil
	case *FireResult:
		return *m, nil
	case *RequestState:
		return *m, nil
	case *SyncState:
		return *m, nil
	case *Chat:
		return *m, nil
	case *Emoji:
		return *m, nil
	case *MatchFound:
		return *m, nil
	}
	return msg, nil
}
