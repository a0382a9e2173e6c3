// Package identity is the external identity provider made concrete:
// it hands out the stable {id, displayName} pairs peers carry into
// rooms, for both throwaway guests and registered accounts.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playkit/gameroom/internal/dependencies/clock"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/storage"
)

// Session is an authenticated identity session
type Session struct {
	Token   string
	Profile model.Profile
}

// Service handles guest creation, registration, login and token lookup
type Service struct {
	storage storage.Storage
	clock   clock.Clock
}

// New creates a new identity service
func New(storage storage.Storage, clock clock.Clock) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
	}
}

// CreateGuest creates a transient guest profile and session
func (s *Service) CreateGuest(ctx context.Context, displayName string) (*Session, error) {
	if displayName == "" {
		displayName = "Guest"
	}

	profile := &model.Profile{
		ID:          model.UserID("g_" + uuid.NewString()),
		DisplayName: displayName,
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving guest profile: %w", err)
	}
	return s.createSession(ctx, profile)
}

// Register creates a registered account and session
func (s *Service) Register(ctx context.Context, username, password, displayName string) (*Session, error) {
	_, err := s.storage.GetProfileByUsername(ctx, username)
	if err == nil {
		return nil, model.ErrUsernameTaken
	}
	if !errors.Is(err, model.ErrProfileNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}

	profile := &model.Profile{
		ID:           model.UserID("u_" + uuid.NewString()),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.storage.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile: %w", err)
	}
	return s.createSession(ctx, profile)
}

// Login verifies credentials and opens a new session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	profile, err := s.storage.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(profile.PasswordHash, []byte(password)) != nil {
		return nil, model.ErrInvalidCredentials
	}
	return s.createSession(ctx, profile)
}

// Logout invalidates a session token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.storage.DeleteToken(ctx, token)
}

// Resolve returns the profile behind a session token
func (s *Service) Resolve(ctx context.Context, token string) (*model.Profile, error) {
	userID, err := s.storage.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.storage.GetProfile(ctx, userID)
}

func (s *Service) createSession(ctx context.Context, profile *model.Profile) (*Session, error) {
	token := uuid.NewString()
	if err := s.storage.SaveToken(ctx, token, profile.ID); err != nil {
		return nil, fmt.Errorf("saving session token: %w", err)
	}
	return &Session{Token: token, Profile: *profile}, nil
}
