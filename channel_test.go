package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewChannelOwnerIsMemberAndOperator(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)

	require.True(t, c.IsMember(owner))
	require.True(t, c.IsOperator(owner))
	require.True(t, owner.OnChannel(c))
}

func TestJoinIsIdempotentAndBidirectional(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	other := NewNickname("other")

	require.True(t, c.Join(other, ""))
	require.True(t, c.IsMember(other))
	require.True(t, other.OnChannel(c))

	// Joining again doesn't duplicate membership.
	require.True(t, c.Join(other, ""))
	count := 0
	for _, m := range c.Members {
		if m == other {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestJoinRequiresKey(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	c.Key = "sekret"

	other := NewNickname("other")
	require.False(t, c.Join(other, "wrong"))
	require.False(t, c.IsMember(other))

	require.True(t, c.Join(other, "sekret"))
	require.True(t, c.IsMember(other))
}

func TestPartRemovesMembershipBothWays(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	other := NewNickname("other")
	c.Join(other, "")

	c.Part(other)
	require.False(t, c.IsMember(other))
	require.False(t, other.OnChannel(c))
}

func TestInviteOnlyRequiresInvite(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	_, err := c.Mode.SetFlags("i", "")
	require.NoError(t, err)

	other := NewNickname("other")
	require.False(t, c.CanJoin(other))

	c.Invite(other)
	require.True(t, c.IsInvited(other))
	require.True(t, c.CanJoin(other))
}

func TestKickRemovesFromMembersAndInvited(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	other := NewNickname("other")
	c.Invite(other)
	c.Join(other, "")

	c.Kick(other)
	require.False(t, c.IsMember(other))
	require.False(t, c.IsInvited(other))
}

func TestIsEmptyAfterLastPart(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	require.False(t, c.IsEmpty())

	c.Part(owner)
	require.True(t, c.IsEmpty())
}

func TestIsValidChannelName(t *testing.T) {
	require.True(t, IsValidChannelName("#chan"))
	require.True(t, IsValidChannelName("&local"))
	require.False(t, IsValidChannelName("chan"))
	require.False(t, IsValidChannelName(""))
}

func TestCanonicalChannelName(t *testing.T) {
	require.Equal(t, "#chan", CanonicalChannelName("#Chan"))
}
