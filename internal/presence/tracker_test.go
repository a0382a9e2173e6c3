package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/playkit/gameroom/internal/model"
	"github.com/playkit/gameroom/internal/testutil"
	"github.com/playkit/gameroom/internal/transport"
)

type TrackerSuite struct {
	suite.Suite
	base time.Time
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func (s *TrackerSuite) peer(id string, offset time.Duration) model.PeerIdentity {
	return model.PeerIdentity{
		SessionID:   model.SessionID(id),
		UserID:      model.UserID("user-" + id),
		DisplayName: id,
		JoinedAt:    s.base.Add(offset),
	}
}

func (s *TrackerSuite) TestSyncReplacesRosterWholesale() {
	tr := New("alice", testutil.NopLogger())

	up := tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("bob", time.Second),
	}})
	s.True(up.RosterChanged)
	s.Equal(2, tr.Roster().Size())

	// a later snapshot fully replaces the previous membership
	up = tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("carol", 2 * time.Second),
	}})
	s.True(up.RosterChanged)
	s.Equal(2, tr.Roster().Size())
	s.False(tr.Roster().Contains("bob"))
	s.True(tr.Roster().Contains("carol"))
}

func (s *TrackerSuite) TestJoinedAndLeftAreHintsOnly() {
	tr := New("alice", testutil.NopLogger())
	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{s.peer("alice", 0)}})

	up := tr.Apply(transport.Joined{Peer: s.peer("bob", time.Second)})
	s.False(up.RosterChanged)
	s.False(tr.Roster().Contains("bob"))

	up = tr.Apply(transport.Left{Peer: s.peer("alice", 0)})
	s.False(up.RosterChanged)
	s.True(tr.Roster().Contains("alice"))
}

func (s *TrackerSuite) TestAssignmentRecomputedOnSync() {
	tr := New("bob", testutil.NopLogger())

	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("bob", time.Second),
	}})
	s.Equal(1, tr.Assignment().MyIndex)
	s.False(tr.Assignment().IsHost)
	s.Require().NotNil(tr.Assignment().Opponent)
	s.Equal(model.SessionID("alice"), tr.Assignment().Opponent.SessionID)

	// alice gone: bob is promoted to host
	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{s.peer("bob", time.Second)}})
	s.Equal(0, tr.Assignment().MyIndex)
	s.True(tr.Assignment().IsHost)
	s.Nil(tr.Assignment().Opponent)
}

func (s *TrackerSuite) TestOpponentDepartureFlagged() {
	tr := New("alice", testutil.NopLogger())

	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("bob", time.Second),
	}})
	s.Require().NotNil(tr.Assignment().Opponent)

	up := tr.Apply(transport.Synced{Peers: []model.PeerIdentity{s.peer("alice", 0)}})
	s.Require().NotNil(up.OpponentLeft)
	s.Equal(model.SessionID("bob"), up.OpponentLeft.SessionID)
}

func (s *TrackerSuite) TestNonOpponentDepartureNotFlagged() {
	tr := New("alice", testutil.NopLogger())

	// carol is the latest joiner so she is the assigned opponent
	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("bob", time.Second),
		s.peer("carol", 2 * time.Second),
	}})
	s.Require().NotNil(tr.Assignment().Opponent)
	s.Equal(model.SessionID("carol"), tr.Assignment().Opponent.SessionID)

	// bob leaving does not disturb the pairing
	up := tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("carol", 2 * time.Second),
	}})
	s.Nil(up.OpponentLeft)
	s.Equal(model.SessionID("carol"), tr.Assignment().Opponent.SessionID)
}

func (s *TrackerSuite) TestCanStart() {
	tr := New("alice", testutil.NopLogger())
	s.False(tr.CanStart())

	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{s.peer("alice", 0)}})
	s.False(tr.CanStart())

	tr.Apply(transport.Synced{Peers: []model.PeerIdentity{
		s.peer("alice", 0),
		s.peer("bob", time.Second),
	}})
	s.True(tr.CanStart())
}
