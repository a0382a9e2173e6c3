package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	// Guests expire; registered accounts persist
	var ttl time.Duration
	if profile.IsGuest {
		ttl = s.cfg.GuestProfileTTL
	}

	if err := s.client.Set(ctx, profileKey(profile.ID), data, ttl).Err(); err != nil {
		return err
	}
	if profile.Username != "" {
		return s.client.Set(ctx, usernameIndexKey(profile.Username), string(profile.ID), 0).Err()
	}
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	data, err := s.client.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	id, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrProfileNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, model.UserID(id))
}

func (s *Storage) DeleteProfile(ctx context.Context, id model.UserID) error {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return nil
		}
		return err
	}
	if profile.Username != "" {
		if err := s.client.Del(ctx, usernameIndexKey(profile.Username)).Err(); err != nil {
			return err
		}
	}
	return s.client.Del(ctx, profileKey(id)).Err()
}

// Session token operations

func (s *Storage) SaveToken(ctx context.Context, token string, userID model.UserID) error {
	return s.client.Set(ctx, tokenKey(token), string(userID), s.cfg.TokenTTL).Err()
}

func (s *Storage) GetToken(ctx context.Context, token string) (model.UserID, error) {
	id, err := s.client.Get(ctx, tokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrTokenNotFound
		}
		return "", err
	}
	return model.UserID(id), nil
}

func (s *Storage) DeleteToken(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

// Room registry operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.RoomInfo) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, roomKey(room.Code), data, s.cfg.RoomTTL).Err(); err != nil {
		return err
	}
	return s.client.SAdd(ctx, roomsIndexKey(), string(room.Code)).Err()
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.RoomInfo, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.RoomInfo
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.RoomInfo, error) {
	codes, err := s.client.SMembers(ctx, roomsIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	rooms := make([]*model.RoomInfo, 0, len(codes))
	for _, code := range codes {
		room, err := s.GetRoom(ctx, model.RoomCode(code))
		if err != nil {
			if errors.Is(err, model.ErrRoomNotFound) {
				// room key expired; drop the dangling index entry
				_ = s.client.SRem(ctx, roomsIndexKey(), code).Err()
				continue
			}
			return nil, err
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	if err := s.client.SRem(ctx, roomsIndexKey(), string(code)).Err(); err != nil {
		return err
	}
	return s.client.Del(ctx, roomKey(code)).Err()
}

// Match history operations

func (s *Storage) SaveMatch(ctx context.Context, rec *model.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, matchKey(rec.ID), data, s.cfg.MatchTTL).Err(); err != nil {
		return err
	}
	for _, p := range rec.Players {
		if p.UserID == "" {
			continue
		}
		if err := s.client.SAdd(ctx, matchesForUserIndexKey(p.UserID), rec.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	data, err := s.client.Get(ctx, matchKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrHistoryNotFound
		}
		return nil, err
	}

	var rec model.MatchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Storage) ListMatchesForUser(ctx context.Context, userID model.UserID, limit int) ([]*model.MatchRecord, error) {
	ids, err := s.client.SMembers(ctx, matchesForUserIndexKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	recs := make([]*model.MatchRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetMatch(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrHistoryNotFound) {
				_ = s.client.SRem(ctx, matchesForUserIndexKey(userID), id).Err()
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordedAt.After(recs[j].RecordedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
