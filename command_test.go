package main

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/horgh/ircd/internal/ircmsg"
)

// fakeConn is an in-memory connection double satisfying the connection
// interface, discarding every outbound message instead of touching a real
// socket; tests read what the core queued from Client.WriteChan.
type fakeConn struct {
	closed bool
}

func (f *fakeConn) Read() (string, error)               { return "", nil }
func (f *fakeConn) WriteMessage(m ircmsg.Message) error { return nil }
func (f *fakeConn) Close() error                        { f.closed = true; return nil }
func (f *fakeConn) RemoteAddr() net.Addr                { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }
func (f *fakeConn) RemoteIP() net.IP                    { return net.IPv4(127, 0, 0, 1) }

func testCore(t *testing.T) *Core {
	config := &Config{ServerName: "irc.test"}
	require.NoError(t, config.setDefaults())
	return NewCore(config)
}

func testClient(core *Core, id uint64) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return newClientFromConn(core, id, conn), conn
}

func registerClient(t *testing.T, core *Core, id uint64, nick string) *Client {
	client, _ := testClient(core, id)
	require.NoError(t, core.setNick(client, nick))
	core.setIdent(client, nick, nick)
	return client
}

func TestCmdUserRejectsWrongConnectPassword(t *testing.T) {
	config := &Config{ServerName: "irc.test", ConnectPassword: "letmein"}
	require.NoError(t, config.setDefaults())
	core := NewCore(config)

	client, _ := testClient(core, 1)
	require.NoError(t, core.setNick(client, "alice"))
	client.PreRegPass = "wrong"

	err := cmdUser(core, client, ircmsg.Message{Command: "USER", Params: []string{"alice", "0", "*", "Alice"}})
	require.NoError(t, err)
	require.False(t, client.Registered)

	drainUntilClosed(t, client.WriteChan)
}

// drainUntilClosed reads every pending message off ch and asserts the
// channel itself was closed, the signal client.quit uses to tell writeLoop
// to stop.
func drainUntilClosed(t *testing.T, ch chan ircmsg.Message) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-time.After(time.Second):
			t.Fatal("write channel was never closed")
		}
	}
}

func TestCmdUserAcceptsCorrectConnectPassword(t *testing.T) {
	config := &Config{ServerName: "irc.test", ConnectPassword: "letmein"}
	require.NoError(t, config.setDefaults())
	core := NewCore(config)

	client, _ := testClient(core, 1)
	require.NoError(t, core.setNick(client, "alice"))
	client.PreRegPass = "letmein"

	err := cmdUser(core, client, ircmsg.Message{Command: "USER", Params: []string{"alice", "0", "*", "Alice"}})
	require.NoError(t, err)
	require.True(t, client.Registered)
}

func TestSetNickRejectsDuplicates(t *testing.T) {
	core := testCore(t)

	alice := registerClient(t, core, 1, "alice")
	require.Equal(t, "alice", alice.Nickname.Name)

	bob, _ := testClient(core, 2)
	err := core.setNick(bob, "alice")
	require.Error(t, err)

	ircErr, ok := err.(*IRCError)
	require.True(t, ok)
	require.Equal(t, "433", ircErr.Reply.Command)
}

func TestSetNickRenameUpdatesRegistry(t *testing.T) {
	core := testCore(t)
	alice := registerClient(t, core, 1, "alice")

	require.NoError(t, core.setNick(alice, "alice2"))
	require.Equal(t, "alice2", alice.Nickname.Name)
	require.Same(t, alice, core.lookupClient("alice2"))
	require.Nil(t, core.lookupClient("alice"))
}

func TestJoinChannelCreatesAndEchoesJoin(t *testing.T) {
	core := testCore(t)
	alice := registerClient(t, core, 1, "alice")
	drainChan(alice.WriteChan)

	require.NoError(t, core.joinChannel(alice, "#chat", ""))

	ch := core.getChannel("#chat")
	require.NotNil(t, ch)
	require.True(t, ch.IsMember(alice.Nickname))
	require.True(t, ch.IsOperator(alice.Nickname))

	select {
	case m := <-alice.WriteChan:
		require.Equal(t, "JOIN", m.Command)
	case <-time.After(time.Second):
		t.Fatal("alice did not receive her JOIN echo")
	}
}

func TestJoinChannelWrongKeyRejected(t *testing.T) {
	core := testCore(t)
	owner := registerClient(t, core, 1, "owner")
	require.NoError(t, core.joinChannel(owner, "#locked", ""))

	ch := core.getChannel("#locked")
	_, err := ch.Mode.SetFlags("k", "sekret")
	require.NoError(t, err)

	intruder := registerClient(t, core, 2, "intruder")
	require.NoError(t, core.joinChannel(intruder, "#locked", "wrong"))
	require.False(t, ch.IsMember(intruder.Nickname))
}

func TestPrivmsgDeliversToTargetClient(t *testing.T) {
	core := testCore(t)
	alice := registerClient(t, core, 1, "alice")
	bob := registerClient(t, core, 2, "bob")

	// Drain bob's registration burst before sending the message under test.
	drainChan(bob.WriteChan)

	msg := ircmsg.Message{Command: "PRIVMSG", Params: []string{"bob", "hi"}}
	err := cmdPrivmsg(core, alice, msg)
	require.NoError(t, err)

	select {
	case m := <-bob.WriteChan:
		require.Equal(t, "PRIVMSG", m.Command)
		require.Equal(t, []string{"bob", "hi"}, m.Params)
	case <-time.After(time.Second):
		t.Fatal("bob did not receive PRIVMSG")
	}
}

func drainChan(ch chan ircmsg.Message) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

func TestPrivmsgToUnknownTargetReturnsError(t *testing.T) {
	core := testCore(t)
	alice := registerClient(t, core, 1, "alice")

	msg := ircmsg.Message{Command: "PRIVMSG", Params: []string{"ghost", "hi"}}
	err := cmdPrivmsg(core, alice, msg)
	require.Error(t, err)
}
