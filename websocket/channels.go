package websocket

import (
	"strconv"
	"strings"
)

// ChannelClass is the access class of a realtime channel.
type ChannelClass int

const (
	ChannelUnknown ChannelClass = iota
	ChannelUser                 // private, identity must match
	ChannelTeam                 // private, membership required
	ChannelGlobal               // private, any authenticated user
	ChannelSession              // public, the session id is the secret
)

// Channel is a parsed channel name.
type Channel struct {
	Class     ChannelClass
	UserID    int
	TeamID    int
	SessionID string
}

const (
	privatePrefix = "private-notifications."
	publicPrefix  = "public-notifications."
)

func UserChannel(userID int) string {
	return privatePrefix + "user." + strconv.Itoa(userID)
}

func TeamChannel(teamID int) string {
	return privatePrefix + "team." + strconv.Itoa(teamID)
}

func GlobalChannel() string {
	return privatePrefix + "global"
}

func SessionChannel(sessionID string) string {
	return publicPrefix + "session." + sessionID
}

// ParseChannel classifies a channel name. Unknown shapes come back as
// ChannelUnknown and are never joinable.
func ParseChannel(name string) Channel {
	if name == GlobalChannel() {
		return Channel{Class: ChannelGlobal}
	}
	if rest, ok := strings.CutPrefix(name, privatePrefix+"user."); ok {
		id, err := strconv.Atoi(rest)
		if err != nil || id <= 0 {
			return Channel{}
		}
		return Channel{Class: ChannelUser, UserID: id}
	}
	if rest, ok := strings.CutPrefix(name, privatePrefix+"team."); ok {
		id, err := strconv.Atoi(rest)
		if err != nil || id <= 0 {
			return Channel{}
		}
		return Channel{Class: ChannelTeam, TeamID: id}
	}
	if rest, ok := strings.CutPrefix(name, publicPrefix+"session."); ok {
		if rest == "" {
			return Channel{}
		}
		return Channel{Class: ChannelSession, SessionID: rest}
	}
	return Channel{}
}

// Membership answers team membership questions for channel authorization.
type Membership interface {
	IsTeamMember(userID, teamID int) (bool, error)
}

// CanJoin applies the per-class authorization contract. Session channels
// carry no subscriber-identity check at all.
func CanJoin(userID int, ch Channel, membership Membership) bool {
	switch ch.Class {
	case ChannelUser:
		return userID != 0 && userID == ch.UserID
	case ChannelTeam:
		if userID == 0 || membership == nil {
			return false
		}
		ok, err := membership.IsTeamMember(userID, ch.TeamID)
		return err == nil && ok
	case ChannelGlobal:
		return userID != 0
	case ChannelSession:
		return true
	default:
		return false
	}
}
