package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	base    time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestProfileTTL = time.Hour
	cfg.TokenTTL = time.Hour
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Profile tests

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := &model.Profile{
		ID:           "user-1",
		Username:     "alice",
		DisplayName:  "Alice",
		PasswordHash: []byte("$2a$10$fakehash"),
		CreatedAt:    s.base,
	}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	got, err := s.storage.GetProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)
	s.Equal(profile.PasswordHash, got.PasswordHash)

	byName, err := s.storage.GetProfileByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), byName.ID)
}

func (s *StorageSuite) TestGuestProfileExpires() {
	guest := &model.Profile{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, guest))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetProfile(s.ctx, "guest-1")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestRegisteredProfilePersists() {
	profile := &model.Profile{ID: "user-1", Username: "alice", DisplayName: "Alice"}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	s.mini.FastForward(48 * time.Hour)

	_, err := s.storage.GetProfile(s.ctx, "user-1")
	s.Require().NoError(err)
}

func (s *StorageSuite) TestDeleteProfileClearsUsernameIndex() {
	profile := &model.Profile{ID: "user-1", Username: "alice", DisplayName: "Alice"}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))
	s.Require().NoError(s.storage.DeleteProfile(s.ctx, "user-1"))

	_, err := s.storage.GetProfileByUsername(s.ctx, "alice")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

// Token tests

func (s *StorageSuite) TestTokenRoundTripAndExpiry() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, "tok-1", "user-1"))

	userID, err := s.storage.GetToken(s.ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), userID)

	s.mini.FastForward(2 * time.Hour)
	_, err = s.storage.GetToken(s.ctx, "tok-1")
	s.ErrorIs(err, model.ErrTokenNotFound)
}

// Room tests

func (s *StorageSuite) room(code string, created time.Time) *model.RoomInfo {
	return &model.RoomInfo{
		Code:      model.RoomCode(code),
		Kind:      model.KindCaro,
		HostName:  "Alice",
		PeerCount: 1,
		CreatedAt: created,
		LastSeen:  created,
	}
}

func (s *StorageSuite) TestRoomRoundTrip() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-AAAAAA", s.base)))

	got, err := s.storage.GetRoom(s.ctx, "CR-AAAAAA")
	s.Require().NoError(err)
	s.Equal("Alice", got.HostName)

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "CR-AAAAAA"))
	_, err = s.storage.GetRoom(s.ctx, "CR-AAAAAA")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestListRoomsDropsExpiredEntries() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-AAAAAA", s.base)))
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-BBBBBB", s.base.Add(time.Minute))))

	// expire the room values but not the index set
	s.mini.FastForward(2 * time.Hour)

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

// Match history tests

func (s *StorageSuite) TestMatchRoundTripAndUserIndex() {
	rec := &model.MatchRecord{
		ID:   "m1",
		Kind: model.KindUno,
		Players: [2]model.PlayerRef{
			{SessionID: "s1", UserID: "user-1", DisplayName: "Alice"},
			{SessionID: "s2", UserID: "user-2", DisplayName: "Bob"},
		},
		Winner:     "user-2",
		MoveCount:  40,
		Duration:   10 * time.Minute,
		RecordedAt: s.base,
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, rec))

	got, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-2"), got.Winner)

	for _, user := range []model.UserID{"user-1", "user-2"} {
		recs, err := s.storage.ListMatchesForUser(s.ctx, user, 0)
		s.Require().NoError(err)
		s.Require().Len(recs, 1)
		s.Equal("m1", recs[0].ID)
	}
}
