package storage

import (
	"context"

	"github.com/playkit/gameroom/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Profile operations
	SaveProfile(ctx context.Context, profile *model.Profile) error
	GetProfile(ctx context.Context, id model.UserID) (*model.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error)
	DeleteProfile(ctx context.Context, id model.UserID) error

	// Session token operations
	SaveToken(ctx context.Context, token string, userID model.UserID) error
	GetToken(ctx context.Context, token string) (model.UserID, error)
	DeleteToken(ctx context.Context, token string) error

	// Room registry operations
	SaveRoom(ctx context.Context, room *model.RoomInfo) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.RoomInfo, error)
	ListRooms(ctx context.Context) ([]*model.RoomInfo, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error

	// Match history operations
	SaveMatch(ctx context.Context, rec *model.MatchRecord) error
	GetMatch(ctx context.Context, id string) (*model.MatchRecord, error)
	ListMatchesForUser(ctx context.Context, userID model.UserID, limit int) ([]*model.MatchRecord, error)
}
