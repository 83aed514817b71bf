package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalNicknameLowercases(t *testing.T) {
	require.Equal(t, "horgh", CanonicalNickname("Horgh"))
}

func TestNicknameAwayRoundTrip(t *testing.T) {
	n := NewNickname("alice")
	require.False(t, n.IsAway())

	n.SetAway("gone fishing")
	require.True(t, n.IsAway())
	require.Equal(t, "gone fishing", n.AwayMessage)

	n.ClearAway()
	require.False(t, n.IsAway())
	require.Equal(t, "", n.AwayMessage)
}

func TestNicknameChannelMembershipTracking(t *testing.T) {
	n := NewNickname("alice")
	c := NewChannel("#chan", n)

	require.True(t, n.OnChannel(c))

	n.PartedChannel(c)
	require.False(t, n.OnChannel(c))

	n.JoinedChannel(c)
	require.True(t, n.OnChannel(c))
}

func TestNicknameRename(t *testing.T) {
	n := NewNickname("alice")
	n.Rename("alice2")
	require.Equal(t, "alice2", n.Name)
}
