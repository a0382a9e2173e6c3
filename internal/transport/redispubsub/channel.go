// Package redispubsub implements the transport channel over Redis
// pub/sub. Broadcasts ride an ordinary pub/sub channel per topic;
// presence is derived from per-peer TTL keys that each subscription
// refreshes while it lives and that expire when a peer crashes.
package redispubsub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/transport"
)

const subscriberBuffer = 256

// Channel is a Redis-backed implementation of the transport channel
type Channel struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Redis channel, verifying the connection up front
func New(cfg Config, logger *slog.Logger) (*Channel, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis channel with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Channel {
	return &Channel{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "redis-channel")),
	}
}

// Close closes the Redis connection
func (c *Channel) Close() error {
	return c.client.Close()
}

var _ transport.Channel = (*Channel)(nil)

// wireFrame is the payload carried on the pub/sub channel
type wireFrame struct {
	From     model.SessionID `json:"from"`
	Envelope model.Envelope  `json:"envelope"`
}

type subscription struct {
	channel *Channel
	topic   string
	self    model.PeerIdentity
	pubsub  *redis.PubSub
	events  chan transport.Event

	done      chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

// Subscribe attaches the peer to the topic. It blocks until the broker
// confirms the subscription, failing with ErrSubscribeTimeout when the
// confirmation does not arrive in time.
func (c *Channel) Subscribe(ctx context.Context, topic string, self model.PeerIdentity) (transport.Subscription, error) {
	// Roster ordering keys off join time, so every subscriber must
	// carry one before its presence is published
	if self.JoinedAt.IsZero() {
		self.JoinedAt = time.Now()
	}

	ps := c.client.Subscribe(ctx, pubsubChannel(topic))

	confirmCtx, cancel := context.WithTimeout(ctx, c.cfg.SubscribeTimeout)
	defer cancel()
	if _, err := ps.Receive(confirmCtx); err != nil {
		_ = ps.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, transport.ErrSubscribeTimeout
		}
		return nil, err
	}

	if err := c.writePresence(ctx, topic, self); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &subscription{
		channel: c,
		topic:   topic,
		self:    self,
		pubsub:  ps,
		events:  make(chan transport.Event, subscriberBuffer),
		done:    make(chan struct{}),
		closed:  make(chan struct{}),
	}
	go sub.run()

	c.logger.Debug("peer subscribed",
		slog.String("topic", topic),
		slog.String("session", string(self.SessionID)))
	return sub, nil
}

// writePresence (re-)arms the peer's presence key
func (c *Channel) writePresence(ctx context.Context, topic string, self model.PeerIdentity) error {
	data, err := json.Marshal(self)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, presenceKey(topic, self.SessionID), data, c.cfg.PresenceTTL).Err()
}

// scanPresence collects the current presence records for a topic
func (c *Channel) scanPresence(ctx context.Context, topic string) (map[model.SessionID]model.PeerIdentity, error) {
	peers := make(map[model.SessionID]model.PeerIdentity)

	iter := c.client.Scan(ctx, 0, presencePattern(topic), 100).Iterator()
	for iter.Next(ctx) {
		data, err := c.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired between scan and get
				continue
			}
			return nil, err
		}
		var peer model.PeerIdentity
		if err := json.Unmarshal(data, &peer); err != nil {
			c.logger.Warn("discarding malformed presence record",
				slog.String("key", iter.Val()), slog.Any("error", err))
			continue
		}
		peers[peer.SessionID] = peer
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return peers, nil
}

// run owns the event channel: it relays pub/sub messages and derives
// presence transitions from polls until the subscription closes.
func (s *subscription) run() {
	defer close(s.closed)
	defer close(s.events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-s.done
		cancel()
	}()

	refresh := time.NewTicker(s.channel.cfg.PresenceRefresh)
	defer refresh.Stop()
	poll := time.NewTicker(s.channel.cfg.PresencePoll)
	defer poll.Stop()

	known := make(map[model.SessionID]model.PeerIdentity)
	s.pollPresence(ctx, known)

	msgs := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.relay(msg)
		case <-refresh.C:
			if err := s.channel.writePresence(ctx, s.topic, s.self); err != nil && ctx.Err() == nil {
				s.channel.logger.Warn("presence refresh failed",
					slog.String("topic", s.topic), slog.Any("error", err))
			}
		case <-poll.C:
			s.pollPresence(ctx, known)
		}
	}
}

// relay decodes a pub/sub message into a Received event
func (s *subscription) relay(msg *redis.Message) {
	var frame wireFrame
	if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
		s.channel.logger.Warn("discarding malformed broadcast",
			slog.String("topic", s.topic), slog.Any("error", err))
		return
	}
	s.deliver(transport.Received{From: frame.From, Envelope: frame.Envelope})
}

// pollPresence diffs the live presence set against what this
// subscription last saw, emitting Joined/Left plus a fresh Synced
// snapshot whenever membership changed.
func (s *subscription) pollPresence(ctx context.Context, known map[model.SessionID]model.PeerIdentity) {
	current, err := s.channel.scanPresence(ctx, s.topic)
	if err != nil {
		if ctx.Err() == nil {
			s.channel.logger.Warn("presence scan failed",
				slog.String("topic", s.topic), slog.Any("error", err))
		}
		return
	}

	changed := false
	for id, peer := range current {
		if _, ok := known[id]; !ok {
			changed = true
			s.deliver(transport.Joined{Peer: peer})
		}
	}
	for id, peer := range known {
		if _, ok := current[id]; !ok {
			changed = true
			s.deliver(transport.Left{Peer: peer})
		}
	}
	if !changed {
		return
	}

	for id := range known {
		delete(known, id)
	}
	snapshot := make([]model.PeerIdentity, 0, len(current))
	for id, peer := range current {
		known[id] = peer
		snapshot = append(snapshot, peer)
	}
	s.deliver(transport.Synced{Peers: snapshot})
}

// deliver hands an event to the consumer, dropping when the buffer is
// full (best-effort by contract)
func (s *subscription) deliver(ev transport.Event) {
	select {
	case s.events <- ev:
	default:
		s.channel.logger.Warn("event dropped - subscriber buffer full",
			slog.String("topic", s.topic),
			slog.String("session", string(s.self.SessionID)))
	}
}

func (s *subscription) Events() <-chan transport.Event {
	return s.events
}

func (s *subscription) Publish(ctx context.Context, env model.Envelope) error {
	select {
	case <-s.done:
		return transport.ErrClosed
	default:
	}

	data, err := json.Marshal(wireFrame{From: s.self.SessionID, Envelope: env})
	if err != nil {
		return err
	}
	return s.channel.client.Publish(ctx, pubsubChannel(s.topic), data).Err()
}

// Close tears down the subscription and drops the peer's presence key
// so other subscribers see the departure on their next poll.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.pubsub.Close()
		<-s.closed

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.channel.client.Del(ctx, presenceKey(s.topic, s.self.SessionID)).Err(); err != nil {
			s.channel.logger.Warn("presence key cleanup failed",
				slog.String("topic", s.topic), slog.Any("error", err))
		}
	})
	return nil
}
