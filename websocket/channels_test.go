package websocket

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeMembership struct {
	members map[[2]int]bool
	err     error
}

func (f *fakeMembership) IsTeamMember(userID, teamID int) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.members[[2]int{userID, teamID}], nil
}

func TestParseChannel(t *testing.T) {
	cases := []struct {
		name string
		want Channel
	}{
		{"private-notifications.user.7", Channel{Class: ChannelUser, UserID: 7}},
		{"private-notifications.team.3", Channel{Class: ChannelTeam, TeamID: 3}},
		{"private-notifications.global", Channel{Class: ChannelGlobal}},
		{"public-notifications.session.abc-123", Channel{Class: ChannelSession, SessionID: "abc-123"}},
		{"private-notifications.user.0", Channel{}},
		{"private-notifications.user.x", Channel{}},
		{"private-notifications.team.-1", Channel{}},
		{"public-notifications.session.", Channel{}},
		{"something-else", Channel{}},
		{"", Channel{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseChannel(tc.name), tc.name)
	}
}

func TestChannelBuildersRoundTrip(t *testing.T) {
	assert.Equal(t, Channel{Class: ChannelUser, UserID: 42}, ParseChannel(UserChannel(42)))
	assert.Equal(t, Channel{Class: ChannelTeam, TeamID: 8}, ParseChannel(TeamChannel(8)))
	assert.Equal(t, Channel{Class: ChannelGlobal}, ParseChannel(GlobalChannel()))
	assert.Equal(t, Channel{Class: ChannelSession, SessionID: "s1"}, ParseChannel(SessionChannel("s1")))
}

func TestCanJoinUserChannel(t *testing.T) {
	ch := ParseChannel(UserChannel(7))
	assert.True(t, CanJoin(7, ch, nil))
	assert.False(t, CanJoin(8, ch, nil))
	assert.False(t, CanJoin(0, ch, nil))
}

func TestCanJoinTeamChannelRequiresMembership(t *testing.T) {
	membership := &fakeMembership{members: map[[2]int]bool{{7, 3}: true}}
	ch := ParseChannel(TeamChannel(3))

	assert.True(t, CanJoin(7, ch, membership))
	assert.False(t, CanJoin(8, ch, membership))
	assert.False(t, CanJoin(7, ch, nil))

	membership.err = errors.New("db down")
	assert.False(t, CanJoin(7, ch, membership))
}

func TestCanJoinGlobalChannel(t *testing.T) {
	ch := ParseChannel(GlobalChannel())
	assert.True(t, CanJoin(1, ch, nil))
	assert.False(t, CanJoin(0, ch, nil))
}

func TestCanJoinSessionChannelIsUnchecked(t *testing.T) {
	ch := ParseChannel(SessionChannel("abc"))
	assert.True(t, CanJoin(0, ch, nil))
	assert.True(t, CanJoin(99, ch, nil))
}

func TestCanJoinUnknownChannelNever(t *testing.T) {
	assert.False(t, CanJoin(1, Channel{}, nil))
}
