package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapabilitiesRequestAcksSupportedAndNacksUnknown(t *testing.T) {
	c := NewCapabilities()

	result := c.Request([]string{"message-tags", "frobnicate", "server-time"})

	require.Equal(t, []string{"message-tags", "server-time"}, result.Acked)
	require.Equal(t, []string{"frobnicate"}, result.Nacked)
	require.True(t, c.Has("message-tags"))
	require.True(t, c.Has("server-time"))
	require.False(t, c.Has("frobnicate"))
}

func TestCapabilitiesDisable(t *testing.T) {
	c := NewCapabilities()
	c.Enable(CapMessageTags)
	require.True(t, c.Has(CapMessageTags))

	c.Disable(CapMessageTags)
	require.False(t, c.Has(CapMessageTags))
}

func TestIsSupported(t *testing.T) {
	require.True(t, IsSupported(CapSASL))
	require.False(t, IsSupported("unknown-cap"))
}
