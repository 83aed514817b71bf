package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserModeSetClear(t *testing.T) {
	m := newUserMode()
	require.False(t, m.HasFlag(ModeInvisible))

	changed, err := m.SetFlags("iw", "")
	require.NoError(t, err)
	require.Equal(t, "iw", changed)
	require.True(t, m.HasFlag(ModeInvisible))
	require.True(t, m.HasFlag(ModeWallops))

	changed, err = m.ClearFlags("i", "")
	require.NoError(t, err)
	require.Equal(t, "i", changed)
	require.False(t, m.HasFlag(ModeInvisible))
}

func TestUserModeIdempotent(t *testing.T) {
	m := newUserMode()
	changed, err := m.SetFlags("i", "")
	require.NoError(t, err)
	require.Equal(t, "i", changed)

	// Setting it again still reports it as "changed" (it's a no-op flip to
	// true), but the mode set itself remains singular.
	_, err = m.SetFlags("i", "")
	require.NoError(t, err)
	require.Equal(t, "+i", m.String())
}

func TestUnknownFlagIgnored(t *testing.T) {
	m := newUserMode()
	changed, err := m.SetFlags("z", "")
	require.NoError(t, err)
	require.Equal(t, "", changed)
}

func TestChannelKeyFlag(t *testing.T) {
	c := NewChannel("#chan", nil)
	m := c.Mode

	_, err := m.SetFlags("k", "")
	require.True(t, errors.Is(err, ModeParamMissing{}))

	changed, err := m.SetFlags("k", "sekret")
	require.NoError(t, err)
	require.Equal(t, "k", changed)
	require.Equal(t, "sekret", c.Key)

	_, err = m.ClearFlags("k", "")
	require.NoError(t, err)
	require.Equal(t, "", c.Key)
}

func TestChannelBanExceptionFlags(t *testing.T) {
	c := NewChannel("#chan", nil)
	m := c.Mode

	_, err := m.SetFlags("b", "*!*@localhost")
	require.NoError(t, err)
	require.True(t, c.IsBanned("bar!bar@localhost"))

	_, err = m.SetFlags("e", "*!*@localhost")
	require.NoError(t, err)
	require.False(t, c.IsBanned("bar!bar@localhost"))

	_, err = m.ClearFlags("e", "*!*@localhost")
	require.NoError(t, err)
	require.True(t, c.IsBanned("bar!bar@localhost"))

	_, err = m.ClearFlags("b", "*!*@localhost")
	require.NoError(t, err)
	require.False(t, c.IsBanned("bar!bar@localhost"))
}

func TestChannelOperatorFlagRequiresMember(t *testing.T) {
	owner := NewNickname("owner")
	c := NewChannel("#chan", owner)
	other := NewNickname("other")
	c.Join(other, "")

	m := c.Mode
	_, err := m.SetFlags("o", "other")
	require.NoError(t, err)
	require.True(t, c.IsOperator(other))

	stranger := NewNickname("stranger")
	_, err = m.SetFlags("o", "stranger")
	require.NoError(t, err)
	require.False(t, c.IsOperator(stranger))
}
