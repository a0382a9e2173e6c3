// Package transport defines the presence-and-broadcast channel the
// protocol runs on. The contract is deliberately weak: at-most-once,
// best-effort delivery with no ordering guarantee across peers. The
// room protocol is designed to stay correct under drops and reordering
// of full-snapshot broadcasts.
package transport

import (
	"context"
	"errors"

	"github.com/playkit/gameroom/internal/model"
)

// Errors surfaced by channel implementations
var (
	// ErrSubscribeTimeout means the subscription was never confirmed
	// within the configured window. Surfaced to the user as a retryable
	// connection failure; there is no automatic reconnection loop.
	ErrSubscribeTimeout = errors.New("channel subscription not confirmed in time")

	// ErrClosed means the subscription has been closed
	ErrClosed = errors.New("channel subscription closed")
)

// Event is the closed union of things a subscriber can observe
type Event interface {
	isEvent()
}

// Joined announces a peer arriving on the topic. Informational only:
// state derives from Synced snapshots, never from Joined/Left deltas.
type Joined struct {
	Peer model.PeerIdentity
}

// Left announces a peer leaving the topic
type Left struct {
	Peer model.PeerIdentity
}

// Synced carries the full presence snapshot for the topic. Consumers
// replace their roster wholesale; merging would accumulate stale
// entries.
type Synced struct {
	Peers []model.PeerIdentity
}

// Received carries a broadcast envelope published by some peer
type Received struct {
	From     model.SessionID
	Envelope model.Envelope
}

func (Joined) isEvent()   {}
func (Left) isEvent()     {}
func (Synced) isEvent()   {}
func (Received) isEvent() {}

// Subscription is one peer's attachment to a topic
type Subscription interface {
	// Events delivers presence and broadcast events in arrival order.
	// The channel is closed when the subscription closes.
	Events() <-chan Event

	// Publish broadcasts an envelope to all subscribers of the topic,
	// including loopback to self. Fire-and-forget: no acknowledgment,
	// no retry, and delivery to any given peer is not guaranteed.
	Publish(ctx context.Context, env model.Envelope) error

	// Close detaches from the topic and announces departure
	Close() error
}

// Channel connects peers to named topics
type Channel interface {
	// Subscribe attaches the peer to the topic and confirms the
	// subscription, or fails with ErrSubscribeTimeout.
	Subscribe(ctx context.Context, topic string, self model.PeerIdentity) (Subscription, error)
}
