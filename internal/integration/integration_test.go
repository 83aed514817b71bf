package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestRegistrationBurst checks that a client gets the 001 welcome and the
// end-of-MOTD (376) for the harness's configured MOTD after NICK/USER.
//
// Grounded on horgh-catbox/internal's TestPRIVMSG registration check,
// extended to the fuller burst original_source/ircd/irc.py sends on
// register_user.
func TestRegistrationBurst(t *testing.T) {
	server, err := Harness("irc.integration.test")
	require.NoError(t, err)
	defer server.Stop()

	client := NewClient("alice", "127.0.0.1", server.Port)
	recv, _, _, err := client.Start()
	require.NoError(t, err)
	defer client.Stop()

	require.NotNil(t, WaitForMessage(recv, "001", 10*time.Second), "expected welcome")
	require.NotNil(t, WaitForMessage(recv, "376", 10*time.Second), "expected end of MOTD")
}

// TestJoinPartEcho checks that a JOIN is echoed back to the joining client
// and a second client on the same channel sees both the JOIN and the PART.
func TestJoinPartEcho(t *testing.T) {
	server, err := Harness("irc.integration.test")
	require.NoError(t, err)
	defer server.Stop()

	alice := NewClient("alice", "127.0.0.1", server.Port)
	aliceRecv, aliceSend, _, err := alice.Start()
	require.NoError(t, err)
	defer alice.Stop()
	require.NotNil(t, WaitForMessage(aliceRecv, "001", 10*time.Second))

	bob := NewClient("bob", "127.0.0.1", server.Port)
	bobRecv, bobSend, _, err := bob.Start()
	require.NoError(t, err)
	defer bob.Stop()
	require.NotNil(t, WaitForMessage(bobRecv, "001", 10*time.Second))

	aliceSend <- joinMessage("#test")
	require.NotNil(t, WaitForMessage(aliceRecv, "JOIN", 10*time.Second))

	bobSend <- joinMessage("#test")
	require.NotNil(t, WaitForMessage(bobRecv, "JOIN", 10*time.Second))
	require.NotNil(t, WaitForMessage(aliceRecv, "JOIN", 10*time.Second), "alice sees bob join")

	bobSend <- partMessage("#test")
	require.NotNil(t, WaitForMessage(aliceRecv, "PART", 10*time.Second), "alice sees bob part")
}

// TestChannelKeyProtection checks that JOIN with the wrong key is rejected
// and with the right key succeeds.
func TestChannelKeyProtection(t *testing.T) {
	server, err := Harness("irc.integration.test")
	require.NoError(t, err)
	defer server.Stop()

	owner := NewClient("owner", "127.0.0.1", server.Port)
	ownerRecv, ownerSend, _, err := owner.Start()
	require.NoError(t, err)
	defer owner.Stop()
	require.NotNil(t, WaitForMessage(ownerRecv, "001", 10*time.Second))

	ownerSend <- joinMessage("#locked")
	require.NotNil(t, WaitForMessage(ownerRecv, "JOIN", 10*time.Second))
	ownerSend <- modeMessage("#locked", "+k", "secret")
	require.NotNil(t, WaitForMessage(ownerRecv, "MODE", 10*time.Second))

	intruder := NewClient("intruder", "127.0.0.1", server.Port)
	intruderRecv, intruderSend, _, err := intruder.Start()
	require.NoError(t, err)
	defer intruder.Stop()
	require.NotNil(t, WaitForMessage(intruderRecv, "001", 10*time.Second))

	intruderSend <- joinMessage("#locked")
	require.NotNil(t, WaitForMessage(intruderRecv, "475", 10*time.Second), "rejected without key")

	intruderSend <- joinWithKeyMessage("#locked", "secret")
	require.NotNil(t, WaitForMessage(intruderRecv, "JOIN", 10*time.Second), "accepted with key")
}

// TestTaggedPrivmsgCarriesServerTime checks that a client who negotiated
// message-tags and server-time receives a server-time tag on a PRIVMSG
// relayed to it.
func TestTaggedPrivmsgCarriesServerTime(t *testing.T) {
	server, err := Harness("irc.integration.test")
	require.NoError(t, err)
	defer server.Stop()

	alice := NewClient("alice", "127.0.0.1", server.Port, "message-tags", "server-time")
	aliceRecv, aliceSend, _, err := alice.Start()
	require.NoError(t, err)
	defer alice.Stop()
	require.NotNil(t, WaitForMessage(aliceRecv, "001", 10*time.Second))

	bob := NewClient("bob", "127.0.0.1", server.Port, "message-tags", "server-time")
	bobRecv, _, _, err := bob.Start()
	require.NoError(t, err)
	defer bob.Stop()
	require.NotNil(t, WaitForMessage(bobRecv, "001", 10*time.Second))

	aliceSend <- privmsgMessage("bob", "hi there")

	got := WaitForMessage(bobRecv, "PRIVMSG", 10*time.Second)
	require.NotNil(t, got)
	_, ok := got.Tag("time")
	require.True(t, ok, "expected a server-time tag")
}
