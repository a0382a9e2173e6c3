package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/dependencies/mocks"
	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	clk := mocks.NewMockClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	s.service = New(memory.New(), clk)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestCreateGuest() {
	sess, err := s.service.CreateGuest(s.ctx, "Anon")
	s.Require().NoError(err)
	s.True(sess.Profile.IsGuest)
	s.Equal("Anon", sess.Profile.DisplayName)
	s.NotEmpty(sess.Token)

	profile, err := s.service.Resolve(s.ctx, sess.Token)
	s.Require().NoError(err)
	s.Equal(sess.Profile.ID, profile.ID)
}

func (s *ServiceSuite) TestGuestGetsDefaultName() {
	sess, err := s.service.CreateGuest(s.ctx, "")
	s.Require().NoError(err)
	s.Equal("Guest", sess.Profile.DisplayName)
}

func (s *ServiceSuite) TestRegisterAndLogin() {
	reg, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)
	s.False(reg.Profile.IsGuest)

	login, err := s.service.Login(s.ctx, "alice", "hunter22")
	s.Require().NoError(err)
	s.Equal(reg.Profile.ID, login.Profile.ID)
	s.NotEqual(reg.Token, login.Token)
}

func (s *ServiceSuite) TestRegisterDuplicateUsername() {
	_, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Register(s.ctx, "alice", "password", "Imposter")
	s.ErrorIs(err, model.ErrUsernameTaken)
}

func (s *ServiceSuite) TestLoginRejectsBadCredentials() {
	_, err := s.service.Register(s.ctx, "alice", "hunter22", "Alice")
	s.Require().NoError(err)

	_, err = s.service.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, model.ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, "nobody", "hunter22")
	s.ErrorIs(err, model.ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLogoutInvalidatesToken() {
	sess, err := s.service.CreateGuest(s.ctx, "Anon")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Logout(s.ctx, sess.Token))
	_, err = s.service.Resolve(s.ctx, sess.Token)
	s.ErrorIs(err, model.ErrTokenNotFound)
}
