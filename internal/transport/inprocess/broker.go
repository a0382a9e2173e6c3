// Package inprocess is an in-memory channel implementation. It exists
// for tests and local play: multiple simulated peers can share one
// broker inside a single process, which is how the protocol suites
// exercise multi-peer scenarios.
package inprocess

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/transport"
)

const subscriberBuffer = 256

// Broker routes presence and broadcasts between in-process subscribers
type Broker struct {
	mu     sync.RWMutex
	topics map[string]map[model.SessionID]*subscription
	logger *slog.Logger

	// DropPublishes, when true, silently discards all broadcasts while
	// leaving presence intact. Tests use it to simulate lost messages.
	DropPublishes bool
}

// NewBroker creates an in-process broker
func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		topics: make(map[string]map[model.SessionID]*subscription),
		logger: logger.With(slog.String("component", "inprocess-channel")),
	}
}

var _ transport.Channel = (*Broker)(nil)

type subscription struct {
	broker *Broker
	topic  string
	self   model.PeerIdentity
	events chan transport.Event

	sendMu sync.Mutex
	closed bool
}

// Subscribe attaches the peer to the topic. Subscription confirmation is
// immediate in-process; the initial presence snapshot is delivered as
// the first event.
func (b *Broker) Subscribe(ctx context.Context, topic string, self model.PeerIdentity) (transport.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Roster ordering keys off join time, so every subscriber must
	// carry one from the moment it announces itself
	if self.JoinedAt.IsZero() {
		self.JoinedAt = time.Now()
	}

	sub := &subscription{
		broker: b,
		topic:  topic,
		self:   self,
		events: make(chan transport.Event, subscriberBuffer),
	}

	b.mu.Lock()
	peers, ok := b.topics[topic]
	if !ok {
		peers = make(map[model.SessionID]*subscription)
		b.topics[topic] = peers
	}
	peers[self.SessionID] = sub
	snapshot := b.snapshotLocked(topic)
	b.mu.Unlock()

	b.logger.Debug("peer subscribed",
		slog.String("topic", topic),
		slog.String("session", string(self.SessionID)))

	b.fanout(topic, transport.Joined{Peer: self})
	b.fanout(topic, transport.Synced{Peers: snapshot})
	return sub, nil
}

// snapshotLocked builds the presence list; callers hold b.mu
func (b *Broker) snapshotLocked(topic string) []model.PeerIdentity {
	peers := b.topics[topic]
	out := make([]model.PeerIdentity, 0, len(peers))
	for _, s := range peers {
		out = append(out, s.self)
	}
	return out
}

// fanout delivers an event to every subscriber of the topic, dropping
// for subscribers whose buffers are full (best-effort by contract).
func (b *Broker) fanout(topic string, ev transport.Event) {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.topics[topic]))
	for _, s := range b.topics[topic] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, s := range subs {
		s.deliver(ev)
	}
}

// deliver hands an event to the subscriber, dropping when the buffer is
// full or the subscription has been closed (best-effort by contract)
func (s *subscription) deliver(ev transport.Event) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.broker.logger.Warn("event dropped - subscriber buffer full",
			slog.String("topic", s.topic),
			slog.String("session", string(s.self.SessionID)))
	}
}

func (s *subscription) Events() <-chan transport.Event {
	return s.events
}

func (s *subscription) Publish(ctx context.Context, env model.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.broker.mu.RLock()
	_, live := s.broker.topics[s.topic][s.self.SessionID]
	drop := s.broker.DropPublishes
	s.broker.mu.RUnlock()
	if !live {
		return transport.ErrClosed
	}
	if drop {
		return nil
	}

	s.broker.fanout(s.topic, transport.Received{From: s.self.SessionID, Envelope: env})
	return nil
}

func (s *subscription) Close() error {
	s.sendMu.Lock()
	if s.closed {
		s.sendMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.sendMu.Unlock()

	b := s.broker
	b.mu.Lock()
	delete(b.topics[s.topic], s.self.SessionID)
	if len(b.topics[s.topic]) == 0 {
		delete(b.topics, s.topic)
	}
	snapshot := b.snapshotLocked(s.topic)
	b.mu.Unlock()

	b.fanout(s.topic, transport.Left{Peer: s.self})
	b.fanout(s.topic, transport.Synced{Peers: snapshot})
	return nil
}
