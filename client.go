package main

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/horgh/ircd/internal/ircmsg"
)

// Client holds state for a single connection, from the moment it is
// accepted until it disconnects. It starts unregistered and is promoted
// either to a registered user (backed by a Nickname) or to a peer server
// link, mirroring horgh-catbox's LocalClient-to-LocalUser/LocalServer
// promotion.
//
// Grounded on horgh-catbox/local_client.go, adapted from the historical
// TS6-era UID/SID bookkeeping to the single in-memory server this spec
// describes.
type Client struct {
	Conn connection

	ID uint64

	Core *Core

	WriteChan chan ircmsg.Message

	SendQueueExceeded bool

	ConnectionStartTime time.Time
	LastActivityTime    time.Time
	LastPingTime        time.Time
	PingsSent           int

	Caps *Capabilities
	SASL *saslSession

	// Registration inputs seen so far.
	PreRegNick     string
	PreRegUser     string
	PreRegRealName string
	PreRegPass     string

	// Set once USER and NICK have both been seen and registration completes.
	Registered bool
	Nickname   *Nickname

	// Set if this connection negotiated as a peer server link instead of a
	// user (SERVER).
	Link *Link
}

// NewClient creates an unregistered Client for a freshly accepted TCP/TLS
// connection.
func NewClient(core *Core, id uint64, conn net.Conn) *Client {
	return newClientFromConn(core, id, NewConn(conn, core.Config.DeadTime))
}

// newClientFromConn creates an unregistered Client around any transport
// implementing connection, used directly by the WebSocket bridge.
func newClientFromConn(core *Core, id uint64, conn connection) *Client {
	now := time.Now()
	return &Client{
		Conn: conn,
		ID:   id,
		Core: core,

		// Buffered so the core goroutine sending to a slow client doesn't
		// block. Grounded on local_client.go's WriteChan sizing rationale.
		WriteChan: make(chan ircmsg.Message, 4096),

		ConnectionStartTime: now,
		LastActivityTime:    now,
		LastPingTime:        now,

		Caps: NewCapabilities(),
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("%d %s", c.ID, c.Conn.RemoteAddr())
}

// Identity renders this client's nick!user@host, using * placeholders
// before registration completes.
func (c *Client) Identity() string {
	nick := "*"
	user := "*"
	if c.Nickname != nil {
		nick = c.Nickname.Name
	}
	if c.PreRegUser != "" {
		user = c.PreRegUser
	}
	return fmt.Sprintf("%s!%s@%s", nick, user, c.hostname())
}

func (c *Client) hostname() string {
	return c.Conn.RemoteIP().String()
}

// maybeQueueMessage sends to the client's write channel without blocking.
// If the channel is full we flag the client as overflowed; the core drops
// it on the next pass rather than let one slow client stall the server.
// Tags are copied before they are stripped for this recipient, so a message
// shared by several recipients keeps its tags for the others.
//
// Grounded on horgh-catbox/local_client.go's maybeQueueMessage.
func (c *Client) maybeQueueMessage(m ircmsg.Message) {
	if c.SendQueueExceeded {
		return
	}

	if len(m.Tags) > 0 {
		tags := make(map[string]string, len(m.Tags))
		for k, v := range m.Tags {
			tags[k] = v
		}
		m.Tags = tags
		m.TagOrder = append([]string(nil), m.TagOrder...)
	}

	if !c.Caps.Has(CapMessageTags) {
		m = stripClientTags(m)
	}
	if !c.Caps.Has(CapServerTime) {
		m.SetTag("time", "")
		delete(m.Tags, "time")
		m.TagOrder = removeTagName(m.TagOrder, "time")
	}
	if !c.Caps.Has(CapMessageIDs) {
		delete(m.Tags, "msgid")
		m.TagOrder = removeTagName(m.TagOrder, "msgid")
	}

	select {
	case c.WriteChan <- m:
	default:
		c.SendQueueExceeded = true
	}
}

func stripClientTags(m ircmsg.Message) ircmsg.Message {
	for name := range m.ClientTags() {
		delete(m.Tags, name)
		m.TagOrder = removeTagName(m.TagOrder, name)
	}
	return m
}

func removeTagName(order []string, name string) []string {
	out := order[:0]
	for _, o := range order {
		if o != name {
			out = append(out, o)
		}
	}
	return out
}

// readLoop reads lines from the connection, parses them, and hands each
// parsed message to the core over its event channel.
func (c *Client) readLoop() {
	defer c.Core.WG.Done()

	for {
		if c.Core.isShuttingDown() {
			break
		}

		line, err := c.Conn.Read()
		if err != nil {
			log.Printf("client %s: %s", c, err)
			c.Core.newEvent(Event{Type: EventDeadClient, Client: c})
			break
		}

		message, err := ircmsg.ParseMessage(line)
		if err != nil {
			log.Printf("client %s: invalid message: %q: %s", c, line, err)
			continue
		}

		c.Core.newEvent(Event{
			Type:    EventMessageFromClient,
			Client:  c,
			Message: message,
		})
	}

	log.Printf("client %s: reader shutting down", c)
}

// writeLoop drains the client's write channel to its connection until the
// channel is closed or the server shuts down.
func (c *Client) writeLoop() {
	defer c.Core.WG.Done()

Loop:
	for {
		select {
		case message, ok := <-c.WriteChan:
			if !ok {
				break Loop
			}
			if err := c.Conn.WriteMessage(message); err != nil {
				log.Printf("client %s: %s", c, err)
				c.Core.newEvent(Event{Type: EventDeadClient, Client: c})
				break Loop
			}
		case <-c.Core.ShutdownChan:
			break Loop
		}
	}

	if err := c.Conn.Close(); err != nil {
		log.Printf("client %s: problem closing connection: %s", c, err)
	}

	log.Printf("client %s: writer shutting down", c)
}

// quit tells the client why it is being disconnected and closes its write
// channel so writeLoop exits.
func (c *Client) quit(msg string) {
	c.sendNumeric("ERROR", msg)
	close(c.WriteChan)
}

// sendNumeric sends a server-origin message, prefixing numeric replies
// with the client's current nick (its PreRegNick, or "*", while it has no
// Nickname), matching
// RFC 2812's reply format.
func (c *Client) sendNumeric(command string, params ...string) {
	if isNumericCommand(command) {
		nick := "*"
		if c.Nickname != nil {
			nick = c.Nickname.Name
		} else if c.PreRegNick != "" {
			nick = c.PreRegNick
		}
		params = append([]string{nick}, params...)
	}

	c.maybeQueueMessage(ircmsg.Message{
		Prefix:  c.Core.Config.ServerName,
		Command: command,
		Params:  params,
	})
}

func isNumericCommand(command string) bool {
	if len(command) != 3 {
		return false
	}
	for _, ch := range command {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
