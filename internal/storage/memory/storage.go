package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	profiles      map[model.UserID]*model.Profile
	usernameIndex map[string]model.UserID
	tokens        map[string]model.UserID
	rooms         map[model.RoomCode]*model.RoomInfo
	matches       map[string]*model.MatchRecord
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles:      make(map[model.UserID]*model.Profile),
		usernameIndex: make(map[string]model.UserID),
		tokens:        make(map[string]model.UserID),
		rooms:         make(map[model.RoomCode]*model.RoomInfo),
		matches:       make(map[string]*model.MatchRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, profile *model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
	if profile.Username != "" {
		s.usernameIndex[profile.Username] = profile.ID
	}
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile, ok := s.profiles[id]; ok && profile.Username != "" {
		delete(s.usernameIndex, profile.Username)
	}
	delete(s.profiles, id)
	return nil
}

// Session token operations

func (s *Storage) SaveToken(ctx context.Context, token string, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *Storage) GetToken(ctx context.Context, token string) (model.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.tokens[token]
	if !ok {
		return "", model.ErrTokenNotFound
	}
	return userID, nil
}

func (s *Storage) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// Room registry operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.RoomInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.RoomInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.RoomInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

// Match history operations

func (s *Storage) SaveMatch(ctx context.Context, rec *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[rec.ID] = rec
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id string) (*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.matches[id]
	if !ok {
		return nil, model.ErrHistoryNotFound
	}
	return rec, nil
}

func (s *Storage) ListMatchesForUser(ctx context.Context, userID model.UserID, limit int) ([]*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []*model.MatchRecord
	for _, rec := range s.matches {
		for _, p := range rec.Players {
			if p.UserID == userID {
				recs = append(recs, rec)
				break
			}
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].RecordedAt.After(recs[j].RecordedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
