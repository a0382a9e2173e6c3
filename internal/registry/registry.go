// Package registry is the room directory and match-history service.
// It is bookkeeping around the protocol, not part of it: peers
// heartbeat their rooms at minute scale and the registry lazily expires
// rooms that go quiet.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/playkit/gameroom/internal/dependencies/clock"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/storage"
)

// Config holds registry behavior settings
type Config struct {
	// RoomTTL is how long a room survives without a heartbeat
	RoomTTL time.Duration
}

// DefaultConfig returns default registry configuration
func DefaultConfig() Config {
	return Config{
		RoomTTL: 3 * time.Minute,
	}
}

// Controller manages the live-room directory and match history
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
}

// NewController creates a new registry controller
func NewController(storage storage.Storage, clock clock.Clock, cfg Config) *Controller {
	if cfg.RoomTTL == 0 {
		cfg.RoomTTL = DefaultConfig().RoomTTL
	}
	return &Controller{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
	}
}

// RegisterRoom announces a newly created room
func (c *Controller) RegisterRoom(ctx context.Context, code model.RoomCode, hostName string) (*model.RoomInfo, error) {
	kind, ok := model.KindFromRoomCode(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidRoomCode, code)
	}

	now := c.clock.Now()
	room := &model.RoomInfo{
		Code:      code,
		Kind:      kind,
		HostName:  hostName,
		PeerCount: 1,
		CreatedAt: now,
		LastSeen:  now,
	}
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("saving room: %w", err)
	}
	return room, nil
}

// Heartbeat marks a room as alive and updates its peer count
func (c *Controller) Heartbeat(ctx context.Context, code model.RoomCode, peerCount int) error {
	room, err := c.lookup(ctx, code)
	if err != nil {
		return err
	}

	room.LastSeen = c.clock.Now()
	if peerCount > 0 {
		room.PeerCount = peerCount
	}
	return c.storage.SaveRoom(ctx, room)
}

// GetRoom returns a live room, expiring it if its heartbeats stopped
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.RoomInfo, error) {
	return c.lookup(ctx, code)
}

// ListRooms returns all live rooms, lazily dropping expired ones
func (c *Controller) ListRooms(ctx context.Context) ([]*model.RoomInfo, error) {
	rooms, err := c.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	live := rooms[:0]
	for _, room := range rooms {
		if c.expired(room) {
			_ = c.storage.DeleteRoom(ctx, room.Code)
			continue
		}
		live = append(live, room)
	}
	return live, nil
}

// CloseRoom removes a room from the directory
func (c *Controller) CloseRoom(ctx context.Context, code model.RoomCode) error {
	return c.storage.DeleteRoom(ctx, code)
}

func (c *Controller) lookup(ctx context.Context, code model.RoomCode) (*model.RoomInfo, error) {
	room, err := c.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if c.expired(room) {
		_ = c.storage.DeleteRoom(ctx, code)
		return nil, model.ErrRoomExpired
	}
	return room, nil
}

func (c *Controller) expired(room *model.RoomInfo) bool {
	return c.clock.Since(room.LastSeen) > c.cfg.RoomTTL
}

// RecordMatch persists a completed game's summary
func (c *Controller) RecordMatch(ctx context.Context, rec model.MatchRecord) (*model.MatchRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = c.clock.Now()
	}
	if err := c.storage.SaveMatch(ctx, &rec); err != nil {
		return nil, fmt.Errorf("saving match record: %w", err)
	}
	return &rec, nil
}

// GetMatch returns one recorded match
func (c *Controller) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	return c.storage.GetMatch(ctx, id)
}

// ListMatchesForUser returns a user's recent matches, newest first
func (c *Controller) ListMatchesForUser(ctx context.Context, userID model.UserID, limit int) ([]*model.MatchRecord, error) {
	recs, err := c.storage.ListMatchesForUser(ctx, userID, limit)
	if err != nil && !errors.Is(err, model.ErrHistoryNotFound) {
		return nil, err
	}
	return recs, nil
}
