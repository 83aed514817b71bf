package main

import (
	"strconv"
	"sync"
	"time"

	"github.com/horgh/ircd/internal/ircmsg"
)

// EventType distinguishes the kinds of work the core's single processing
// goroutine consumes from its event channel.
type EventType int

// Event kinds.
const (
	EventMessageFromClient EventType = iota
	EventNewClient
	EventDeadClient
	EventNewLink
	EventPingSweep
)

// Event is one unit of work delivered to the core's processing loop by a
// client's reader goroutine, the accept loop, the link dialer, or the ping
// ticker. Every registry mutation happens while handling one of these
// inside run, never in the goroutine that produced the event.
//
// Grounded on the event shape implied by horgh-catbox/local_client.go and
// local_server.go's Catbox.newEvent call sites (that type's own definition
// is not present in the retrieved snapshot, so its shape is reconstructed
// from its callers).
type Event struct {
	Type     EventType
	Client   *Client
	Message  ircmsg.Message
	LinkName string
}

// knownIdentity is a single registered SASL/NickServ-style account:
// password plus the identity string it was first claimed under.
//
// Grounded on original_source/ircd/irc.py's authenticate, which registers
// the first identity/password pair it sees for a nickname and requires an
// exact match on every subsequent attempt.
type knownIdentity struct {
	identity string
	password string
}

// Core owns every piece of shared server state: connected clients, the
// nickname and channel registries, peer links, and known SASL identities.
// Exactly one goroutine (run) mutates this state, fed by the Event channel;
// every other goroutine only ever sends to IncomingChan.
//
// Grounded on original_source/ircd/irc.py's IRC class, whose single-queue
// architecture is preserved; its map-of-maps registries are translated to
// the Go map idiom horgh-catbox/local_client.go and friends use for
// Catbox.Nicks/Catbox.Users/Catbox.Channels.
type Core struct {
	Config *Config

	Created time.Time

	// All accepted connections not yet registered, by connection ID.
	UnregisteredClients map[uint64]*Client

	// Registered user connections, by canonical nickname.
	NickClients map[string]*Client

	// Nickname entities, by canonical nickname. Outlives a client's
	// connection only as long as a rename is in-flight; today it is 1:1
	// with NickClients once registration completes.
	Nicknames map[string]*Nickname

	// Channels, by canonical name.
	Channels map[string]*Channel

	// Linked peer servers.
	Links []*Link

	// SASL accounts, by account name.
	KnownIdentities map[string]knownIdentity

	Operators []string

	IncomingChan chan Event
	ShutdownChan chan struct{}
	WG           sync.WaitGroup

	nextClientID uint64

	mu           sync.Mutex
	shuttingDown bool
}

// NewCore creates a Core ready to accept connections. Call run in its own
// goroutine to start processing events.
func NewCore(config *Config) *Core {
	return &Core{
		Config:  config,
		Created: time.Now(),

		UnregisteredClients: map[uint64]*Client{},
		NickClients:         map[string]*Client{},
		Nicknames:           map[string]*Nickname{},
		Channels:            map[string]*Channel{},
		KnownIdentities:     map[string]knownIdentity{},

		IncomingChan: make(chan Event, 1024),
		ShutdownChan: make(chan struct{}),
	}
}

func (c *Core) isShuttingDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuttingDown
}

func (c *Core) shutdown() {
	c.mu.Lock()
	c.shuttingDown = true
	c.mu.Unlock()
	close(c.ShutdownChan)
}

// newEvent hands an event to the core's processing loop. Safe to call from
// any goroutine.
func (c *Core) newEvent(e Event) {
	c.IncomingChan <- e
}

func (c *Core) newClientID() uint64 {
	c.nextClientID++
	return c.nextClientID
}

// run is the core's single-consumer processing loop: it owns every
// registry and is the only goroutine that mutates them, removing the need
// for locking around client/channel/nickname state.
func (c *Core) run() {
	for {
		var e Event
		select {
		case e = <-c.IncomingChan:
		case <-c.ShutdownChan:
			return
		}

		switch e.Type {
		case EventNewClient:
			c.UnregisteredClients[e.Client.ID] = e.Client
		case EventMessageFromClient:
			e.Client.LastActivityTime = time.Now()
			c.dispatch(e.Client, e.Message)
			c.mirrorToLinks(e.Client, e.Message)
		case EventDeadClient:
			c.dropClient(e.Client, "Connection reset")
		case EventNewLink:
			c.addLink(e.Client, e.LinkName)
		case EventPingSweep:
			c.pingSweep()
		}

		if c.isShuttingDown() {
			return
		}
	}
}

// mirrorToLinks forwards msg verbatim to every peer link other than the one
// it arrived from, a best-effort echo rather than authoritative state
// replication.
//
// Grounded on original_source/ircd/irc.py's process(): "for link in
// self.links: if link == client: continue; link.send(msg)", run after the
// handler regardless of whether it succeeded.
func (c *Core) mirrorToLinks(origin *Client, msg ircmsg.Message) {
	for _, link := range c.Links {
		if link.Client == origin {
			continue
		}
		link.Client.maybeQueueMessage(msg)
	}
}

// addLink registers client as a peer server connection under name, removing
// it from the pool of not-yet-registered connections.
//
// Grounded on original_source/ircd/irc.py's add_link.
func (c *Core) addLink(client *Client, name string) {
	link := &Link{Name: name, Client: client}
	client.Link = link
	c.Links = append(c.Links, link)
	delete(c.UnregisteredClients, client.ID)
}

// removeLink drops a peer link from the registry, e.g. on disconnect.
func (c *Core) removeLink(link *Link) {
	for i, l := range c.Links {
		if l == link {
			c.Links = append(c.Links[:i], c.Links[i+1:]...)
			return
		}
	}
}

// pingGrace is PING_GRACE from spec §4.9: a client is dropped once it has
// racked up more than this many outstanding PINGs without a PONG.
const pingGrace = 5

// identTimeout is IDENT_TIMEOUT from spec §4.9: a connection that has not
// registered this long after accept is dropped.
const identTimeout = 10 * time.Second

// pingSweep is run's own replacement for the ping ticker goroutine touching
// client/registry state directly: it drops connections still unregistered
// identTimeout after accept, drops registered clients whose send queue
// overflowed or that left more than pingGrace PINGs unanswered, and pings
// registered clients idle for at least PingTime, all on the core's single
// consumer goroutine.
//
// Grounded on horgh-catbox/ircd.go's checkAndPingClients, moved here so it
// no longer races core.run over NickClients/UnregisteredClients/Links, and
// adapted to count PingsSent against pingGrace rather than idle time, per
// spec §4.9.
func (c *Core) pingSweep() {
	now := time.Now()

	for _, client := range c.UnregisteredClients {
		if now.Sub(client.ConnectionStartTime) > identTimeout {
			c.dropClient(client, "ident timeout")
		}
	}

	for _, client := range c.NickClients {
		if client.SendQueueExceeded {
			c.dropClient(client, "SendQ exceeded")
			continue
		}

		if client.PingsSent > pingGrace {
			c.dropClient(client, "ping timeout")
			continue
		}

		idle := now.Sub(client.LastActivityTime)
		if idle < c.Config.PingTime {
			continue
		}

		client.PingsSent++
		c.ping(client)
	}
}

// getNickname looks up a registered Nickname by canonical name.
func (c *Core) getNickname(name string) *Nickname {
	return c.Nicknames[CanonicalNickname(name)]
}

// lookupClient finds the connection currently registered under nickname.
func (c *Core) lookupClient(nickname string) *Client {
	return c.NickClients[CanonicalNickname(nickname)]
}

func (c *Core) getChannel(name string) *Channel {
	return c.Channels[CanonicalChannelName(name)]
}

func (c *Core) setChannel(ch *Channel) {
	c.Channels[CanonicalChannelName(ch.Name)] = ch
}

func (c *Core) removeChannelIfEmpty(ch *Channel) {
	if ch.IsEmpty() {
		delete(c.Channels, CanonicalChannelName(ch.Name))
	}
}

// setNick renames or newly assigns client's nickname, raising error replies
// as an *IRCError rather than mutating anything on failure.
//
// Grounded on irc.py's set_nick: reserves the new name, moves the
// Nickname entity across the registry on rename, and echoes NICK to every
// channel the client shares membership in.
func (c *Core) setNick(client *Client, newNick string) error {
	canon := CanonicalNickname(newNick)
	if _, exists := c.Nicknames[canon]; exists {
		return newIRCError(errorNickInUse(c.Config.ServerName, "*", newNick))
	}

	oldName := ""
	if client.Nickname != nil {
		oldName = client.Nickname.Name
	}

	msg := msgNick(client.Identity(), newNick)

	if client.Nickname == nil {
		client.Nickname = NewNickname(newNick)
	} else {
		delete(c.Nicknames, CanonicalNickname(oldName))
		delete(c.NickClients, CanonicalNickname(oldName))
		client.Nickname.Rename(newNick)
	}

	c.Nicknames[canon] = client.Nickname
	c.NickClients[canon] = client

	if client.Registered {
		client.maybeQueueMessage(msg)

		for _, ch := range client.Nickname.Channels {
			c.sendToChannel(client, ch, msg, true, nil)
		}
	}

	return nil
}

// setIdent completes registration once both NICK and USER have been seen:
// moves the client out of UnregisteredClients and sends the RFC 2812
// registration burst.
//
// Grounded on irc.py's set_ident.
func (c *Core) setIdent(client *Client, user, realName string) {
	client.PreRegUser = user
	client.PreRegRealName = realName
	client.Registered = true
	delete(c.UnregisteredClients, client.ID)

	server := c.Config.ServerName

	client.maybeQueueMessage(msgNick(client.Identity(), client.Nickname.Name))
	client.maybeQueueMessage(replyWelcome(server, client.Nickname.Name, client.Nickname.Name, client.PreRegUser, client.hostname()))
	client.maybeQueueMessage(replyYourHost(server, client.Nickname.Name, server, c.Config.Version))
	client.maybeQueueMessage(replyCreated(server, client.Nickname.Name, c.Config.CreatedDate))
	client.maybeQueueMessage(replyMyInfo(server, client.Nickname.Name, server, c.Config.Version, "aiorwsO", "psitnmlbekov"))
	client.maybeQueueMessage(replyISupport(server, client.Nickname.Name, [][2]string{
		{"CASEMAPPING", "ascii"},
		{"CHANTYPES", ChannelStartChars},
		{"NICKLEN", strconv.Itoa(c.Config.MaxNickLength)},
	}))

	client.maybeQueueMessage(replyLUserClient(server, len(c.Nicknames), len(c.Links)+1))
	client.maybeQueueMessage(replyLUserOp(server, len(c.Operators)))
	client.maybeQueueMessage(replyLUserChannels(server, len(c.Channels)))
	client.maybeQueueMessage(replyLUserMe(server, len(c.UnregisteredClients)+len(c.NickClients), len(c.Links)+1))

	client.maybeQueueMessage(replyUserModeIs(server, client.Nickname.Name, client.Nickname.Mode))

	c.sendMOTD(client)
}

func (c *Core) sendMOTD(client *Client) {
	server := c.Config.ServerName
	target := client.Nickname.Name
	if c.Config.MOTD == "" {
		client.maybeQueueMessage(replyNoMOTD(server, target))
		return
	}
	client.maybeQueueMessage(replyStartMOTD(server, target, server))
	client.maybeQueueMessage(replyMOTD(server, target, c.Config.MOTD))
	client.maybeQueueMessage(replyEndMOTD(server, target))
}

// dropClient disconnects client, sending a QUIT to the fellow members of
// every channel it was in and then parting it from them, and frees its
// registry entries. A client that is no longer held by any registry (for
// example one already dropped by QUIT) is left alone, so repeated drops are
// no-ops.
//
// Grounded on irc.py's drop_client.
func (c *Core) dropClient(client *Client, message string) {
	known := c.UnregisteredClients[client.ID] == client
	if client.Nickname != nil && c.lookupClient(client.Nickname.Name) == client {
		known = true
	}
	for _, l := range c.Links {
		if l.Client == client {
			known = true
		}
	}
	if !known {
		return
	}

	delete(c.UnregisteredClients, client.ID)

	if client.Link != nil {
		c.removeLink(client.Link)
		client.quit(message)
		return
	}

	if client.Nickname == nil {
		client.quit(message)
		return
	}

	quitMsg := msgQuit(client.Identity(), message)
	for _, ch := range channelValues(client.Nickname.Channels) {
		c.sendToChannel(client, ch, quitMsg, true, nil)
		c.partChannelInternal(ch, client.Nickname)
		c.removeChannelIfEmpty(ch)
	}

	canon := CanonicalNickname(client.Nickname.Name)
	delete(c.NickClients, canon)
	delete(c.Nicknames, canon)

	client.quit(message)
}

func channelValues(m map[string]*Channel) []*Channel {
	out := make([]*Channel, 0, len(m))
	for _, ch := range m {
		out = append(out, ch)
	}
	return out
}

// joinChannel creates the channel on first join, then applies key/ban/
// invite-only checks before adding client as a member.
//
// Grounded on irc.py's join_channel.
func (c *Core) joinChannel(client *Client, name, key string) error {
	server := c.Config.ServerName
	ch := c.getChannel(name)
	if ch == nil {
		if !IsValidChannelName(name) {
			return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, name))
		}
		ch = NewChannel(name, client.Nickname)
		c.setChannel(ch)
		c.sendToChannel(client, ch, msgJoin(client.Identity(), ch.Name), false, nil)
		c.sendTopic(client, ch)
		c.sendNames(client, ch)
		return nil
	}

	if !ch.CanJoin(client.Nickname) {
		return newIRCError(errorInviteOnlyChannel(server, client.Nickname.Name, name))
	}
	if ch.IsBanned(client.Identity()) {
		return newIRCError(errorBannedFromChannel(server, client.Nickname.Name, name))
	}

	if !ch.Join(client.Nickname, key) {
		client.maybeQueueMessage(errorBadChannelKey(server, client.Nickname.Name, ch.Name))
		return nil
	}

	c.sendToChannel(client, ch, msgJoin(client.Identity(), ch.Name), false, nil)
	c.sendTopic(client, ch)
	c.sendNames(client, ch)
	return nil
}

func (c *Core) partChannelInternal(ch *Channel, nickname *Nickname) {
	ch.Part(nickname)
}

// partChannel removes client from a channel it names, after announcing the
// PART to the channel's remaining members.
//
// Grounded on irc.py's part_channel.
func (c *Core) partChannel(client *Client, name, message string) {
	ch := c.getChannel(name)
	if ch == nil {
		return
	}

	c.sendToChannel(client, ch, msgPart(client.Identity(), ch.Name, message), false, nil)
	ch.Part(client.Nickname)
	c.removeChannelIfEmpty(ch)
}

// sendToChannel is the single broadcast primitive every channel-directed
// command funnels through: it requires the sender be a member, optionally
// skips echoing to the sender, and optionally requires each recipient to
// have negotiated every capability in requiredCaps.
//
// Grounded on irc.py's send_to_channel.
func (c *Core) sendToChannel(client *Client, ch *Channel, msg ircmsg.Message, skipSelf bool, requiredCaps []string) error {
	if !ch.IsMember(client.Nickname) {
		return newIRCError(errorNotInChannel(c.Config.ServerName, client.Nickname.Name))
	}

	for _, member := range ch.Members {
		if skipSelf && member == client.Nickname {
			continue
		}

		memberClient := c.lookupClient(member.Name)
		if memberClient == nil {
			continue
		}

		if !hasAllCaps(memberClient, requiredCaps) {
			continue
		}

		memberClient.maybeQueueMessage(msg)
	}

	return nil
}

func hasAllCaps(client *Client, caps []string) bool {
	for _, name := range caps {
		if !client.Caps.Has(name) {
			return false
		}
	}
	return true
}

func (c *Core) sendTopic(client *Client, ch *Channel) {
	server := c.Config.ServerName
	if ch.Topic != "" {
		client.maybeQueueMessage(replyTopic(server, client.Nickname.Name, ch.Name, ch.Topic))
		return
	}
	client.maybeQueueMessage(replyNoTopic(server, client.Nickname.Name, ch.Name))
}

// setTopic updates a channel's topic, provided the client is an operator or
// the channel permits open topic changes, then echoes the new topic (or
// the unchanged one) to every member.
//
// Grounded on irc.py's set_topic.
func (c *Core) setTopic(client *Client, ch *Channel, topic string) {
	if ch.IsOperator(client.Nickname) || ch.IsTopicOpen() {
		ch.SetTopic(topic)
	}

	server := c.Config.ServerName
	for _, member := range ch.Members {
		memberClient := c.lookupClient(member.Name)
		if memberClient == nil {
			continue
		}
		memberClient.maybeQueueMessage(replyTopic(server, member.Name, ch.Name, ch.Topic))
		memberClient.maybeQueueMessage(replyTopicWhoTime(server, member.Name, ch.Name, client.Nickname.Name, time.Now().Unix()))
	}
}

func (c *Core) sendNames(client *Client, ch *Channel) {
	if (!ch.IsPrivate() && !ch.IsSecret()) || ch.IsMember(client.Nickname) {
		server := c.Config.ServerName
		client.maybeQueueMessage(replyNames(server, client.Nickname.Name, ch.Name, ch.Members))
		client.maybeQueueMessage(replyEndNames(server, client.Nickname.Name, ch.Name))
	}
}

func (c *Core) sendList(client *Client, channels []*Channel) {
	server := c.Config.ServerName
	target := client.Nickname.Name
	client.maybeQueueMessage(replyListStart(server, target))
	for _, ch := range channels {
		topicOrPrivate := ch.Topic
		if ch.IsPrivate() {
			topicOrPrivate = "(private)"
		}
		client.maybeQueueMessage(replyList(server, target, ch.Name, len(ch.Members), topicOrPrivate))
	}
	client.maybeQueueMessage(replyListEnd(server, target))
}

// listChannels filters the registry down to channels visible to client:
// public, or secret-but-a-member, optionally further restricted to names.
//
// Grounded on irc.py's list_channels.
func (c *Core) listChannels(client *Client, names map[string]bool) []*Channel {
	var out []*Channel
	for _, ch := range c.Channels {
		if ch.IsSecret() && !ch.IsMember(client.Nickname) {
			continue
		}
		if names != nil && !names[CanonicalChannelName(ch.Name)] {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func (c *Core) ping(client *Client) {
	client.maybeQueueMessage(msgPing(c.Config.ServerName))
}

// setChannelMode applies a single +/- flag-and-param mode change, requiring
// the client be a channel operator.
//
// Grounded on irc.py's set_channel_mode.
func (c *Core) setChannelMode(client *Client, ch *Channel, op byte, flag byte, param string) error {
	server := c.Config.ServerName
	if !ch.IsOperator(client.Nickname) {
		return newIRCError(errorChannelOperatorNeeded(server, client.Nickname.Name, ch.Name))
	}

	var changed bool
	var err error
	if op == '+' {
		changed, err = ch.Mode.SetFlag(flag, param)
	} else {
		changed, err = ch.Mode.ClearFlag(flag, param)
	}

	if _, ok := err.(ModeParamMissing); ok {
		return newIRCError(errorNeedsMoreParams(server, client.Nickname.Name, "MODE"))
	}
	if err != nil {
		return err
	}

	if changed {
		c.sendToChannel(client, ch, msgMode(client.Identity(), ch.Name, string(op)+string(flag), param), false, nil)
	}
	return nil
}

func (c *Core) sendChannelModeIs(client *Client, ch *Channel) {
	client.maybeQueueMessage(replyChannelModeIs(c.Config.ServerName, client.Nickname.Name, ch.Name, ch.Mode, ""))
}

// setUserMode applies a user mode change to client's own nickname only;
// the AWAY and OPERATOR flags are ignored here (AWAY is set through the AWAY
// command; no command grants OPERATOR).
//
// Grounded on irc.py's set_user_mode.
func (c *Core) setUserMode(client *Client, op byte, flag byte) error {
	if flag == ModeAway || flag == ModeOperator {
		return nil
	}

	var changed bool
	var err error
	if op == '+' {
		changed, err = client.Nickname.Mode.SetFlag(flag, "")
	} else {
		changed, err = client.Nickname.Mode.ClearFlag(flag, "")
	}
	if err != nil {
		return err
	}

	if changed {
		client.maybeQueueMessage(msgMode(client.Identity(), client.Nickname.Name, string(op)+string(flag), ""))
	}
	return nil
}

// invite adds nickname to a channel's invite list and notifies both the
// inviter and the invitee.
//
// Grounded on irc.py's invite.
func (c *Core) invite(client *Client, ch *Channel, nickname *Nickname) {
	ch.Invite(nickname)
	server := c.Config.ServerName
	client.maybeQueueMessage(replyInviting(server, client.Nickname.Name, ch.Name, nickname.Name))

	if other := c.lookupClient(nickname.Name); other != nil {
		other.maybeQueueMessage(msgInvite(client.Identity(), nickname.Name, ch.Name))
	}
}

// kick removes nickname from a channel after sending the KICK to every
// member, the kicked nickname included.
//
// Grounded on irc.py's kick.
func (c *Core) kick(client *Client, ch *Channel, nickname *Nickname, comment string) {
	c.sendToChannel(client, ch, msgKick(client.Identity(), ch.Name, nickname.Name, comment), false, nil)
	ch.Kick(nickname)
	c.removeChannelIfEmpty(ch)
}

// authenticate validates a SASL PLAIN identity/password pair, registering
// the first identity/password seen for an account and requiring an exact
// match thereafter.
//
// Grounded on irc.py's authenticate.
func (c *Core) authenticate(account, identity, password string) bool {
	owner, exists := c.KnownIdentities[account]
	if !exists {
		c.KnownIdentities[account] = knownIdentity{identity: identity, password: password}
		return true
	}
	return owner.identity == identity && owner.password == password
}
