package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
	base    time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

// Profile tests

func (s *StorageSuite) TestSaveAndGetProfile() {
	profile := &model.Profile{
		ID:          "user-1",
		Username:    "alice",
		DisplayName: "Alice",
		CreatedAt:   s.base,
	}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))

	got, err := s.storage.GetProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("Alice", got.DisplayName)

	byName, err := s.storage.GetProfileByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), byName.ID)
}

func (s *StorageSuite) TestGetProfileNotFound() {
	_, err := s.storage.GetProfile(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProfileNotFound)

	_, err = s.storage.GetProfileByUsername(s.ctx, "missing")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestDeleteProfileClearsUsernameIndex() {
	profile := &model.Profile{ID: "user-1", Username: "alice", DisplayName: "Alice"}
	s.Require().NoError(s.storage.SaveProfile(s.ctx, profile))
	s.Require().NoError(s.storage.DeleteProfile(s.ctx, "user-1"))

	_, err := s.storage.GetProfileByUsername(s.ctx, "alice")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

// Token tests

func (s *StorageSuite) TestTokenRoundTrip() {
	s.Require().NoError(s.storage.SaveToken(s.ctx, "tok-1", "user-1"))

	userID, err := s.storage.GetToken(s.ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), userID)

	s.Require().NoError(s.storage.DeleteToken(s.ctx, "tok-1"))
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

func (s *StorageSuite) TestSaveAndGetRoom() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-AAAAAA", s.base)))

	got, err := s.storage.GetRoom(s.ctx, "CR-AAAAAA")
	s.Require().NoError(err)
	s.Equal("Alice", got.HostName)

	_, err = s.storage.GetRoom(s.ctx, "CR-MISSIN")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestListRoomsOrderedByCreation() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-BBBBBB", s.base.Add(time.Minute))))
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-AAAAAA", s.base)))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomCode("CR-AAAAAA"), rooms[0].Code)
	s.Equal(model.RoomCode("CR-BBBBBB"), rooms[1].Code)
}

func (s *StorageSuite) TestDeleteRoom() {
	s.Require().NoError(s.storage.SaveRoom(s.ctx, s.room("CR-AAAAAA", s.base)))
	s.Require().NoError(s.storage.DeleteRoom(s.ctx, "CR-AAAAAA"))

	_, err := s.storage.GetRoom(s.ctx, "CR-AAAAAA")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Match history tests

func (s *StorageSuite) match(id string, recorded time.Time, winner model.UserID) *model.MatchRecord {
	return &model.MatchRecord{
		ID:   id,
		Kind: model.KindCaro,
		Players: [2]model.PlayerRef{
			{SessionID: "s1", UserID: "user-1", DisplayName: "Alice"},
			{SessionID: "s2", UserID: "user-2", DisplayName: "Bob"},
		},
		Winner:     winner,
		MoveCount:  9,
		Duration:   3 * time.Minute,
		RecordedAt: recorded,
	}
}

func (s *StorageSuite) TestSaveAndGetMatch() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("m1", s.base, "user-1")))

	got, err := s.storage.GetMatch(s.ctx, "m1")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), got.Winner)

	_, err = s.storage.GetMatch(s.ctx, "missing")
	s.ErrorIs(err, model.ErrHistoryNotFound)
}

func (s *StorageSuite) TestListMatchesForUserNewestFirst() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("m1", s.base, "user-1")))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.match("m2", s.base.Add(time.Hour), "user-2")))

	recs, err := s.storage.ListMatchesForUser(s.ctx, "user-1", 0)
	s.Require().NoError(err)
	s.Require().Len(recs, 2)
	s.Equal("m2", recs[0].ID)

	limited, err := s.storage.ListMatchesForUser(s.ctx, "user-2", 1)
	s.Require().NoError(err)
	s.Len(limited, 1)

	none, err := s.storage.ListMatchesForUser(s.ctx, "user-9", 0)
	s.Require().NoError(err)
	s.Empty(none)
}
