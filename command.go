package main

import (
	"log"
	"strings"
	"time"

	"github.com/horgh/ircd/internal/ircmsg"
)

// commandSpec describes one command's registration and parameter
// requirements plus its handler. A static table keyed by command name
// replaces reflection-based method dispatch (msg.command.lower() /
// getattr in original_source/ircd/commands.py's Handler.__call__), so
// registration/arity checks live in data instead of being re-derived per
// handler.
type commandSpec struct {
	// requireNick means the client must have a nickname (pre- or
	// post-registration; NICK itself requires none).
	requireNick bool

	// requireRegistered means the client must have completed full
	// registration (NICK and USER both seen).
	requireRegistered bool

	minParams int

	handler func(core *Core, client *Client, msg ircmsg.Message) error
}

var commands = map[string]commandSpec{
	"NICK":         {handler: cmdNick},
	"USER":         {requireNick: true, minParams: 4, handler: cmdUser},
	"PASS":         {handler: cmdPass},
	"SERVER":       {minParams: 4, handler: cmdServer},
	"PING":         {requireRegistered: true, minParams: 1, handler: cmdPing},
	"PONG":         {handler: cmdPong},
	"QUIT":         {handler: cmdQuit},
	"CAP":          {minParams: 1, handler: cmdCap},
	"AUTHENTICATE": {minParams: 1, handler: cmdAuthenticate},
	"JOIN":         {requireRegistered: true, minParams: 1, handler: cmdJoin},
	"PART":         {requireRegistered: true, minParams: 1, handler: cmdPart},
	"PRIVMSG":      {requireRegistered: true, minParams: 2, handler: cmdPrivmsg},
	"NOTICE":       {requireRegistered: true, minParams: 2, handler: cmdNotice},
	"TAGMSG":       {requireRegistered: true, minParams: 1, handler: cmdTagmsg},
	"MODE":         {requireRegistered: true, minParams: 1, handler: cmdMode},
	"TOPIC":        {requireRegistered: true, minParams: 1, handler: cmdTopic},
	"INVITE":       {requireRegistered: true, minParams: 2, handler: cmdInvite},
	"KICK":         {requireRegistered: true, minParams: 2, handler: cmdKick},
	"NAMES":        {requireRegistered: true, minParams: 1, handler: cmdNames},
	"LIST":         {requireRegistered: true, handler: cmdList},
	"MOTD":         {requireRegistered: true, handler: cmdMotd},
	"AWAY":         {requireRegistered: true, handler: cmdAway},
}

// dispatch validates and runs the handler for one parsed message, matching
// original_source/ircd/commands.py's Handler.__call__: registration/arity
// failures and *IRCError are both translated into a reply sent back to the
// client, never a closed connection (except the drop_client call for
// messages arriving too early, mirrored in requireNick and
// requireRegistered below). Handler errors other than *IRCError are logged.
func (c *Core) dispatch(client *Client, msg ircmsg.Message) {
	spec, ok := commands[strings.ToUpper(msg.Command)]
	if !ok {
		if client.Nickname != nil {
			client.maybeQueueMessage(errorUnknownCommand(c.Config.ServerName, client.Nickname.Name, msg.Command))
		}
		return
	}

	if spec.requireNick && client.Nickname == nil {
		c.dropClient(client, "invalid")
		return
	}

	if spec.requireRegistered && !client.Registered {
		if client.Nickname != nil {
			client.maybeQueueMessage(errorNotRegistered(c.Config.ServerName, client.Nickname.Name))
		}
		c.dropClient(client, "invalid")
		return
	}

	if spec.minParams > 0 && len(msg.Params) < spec.minParams {
		if client.Nickname != nil {
			client.maybeQueueMessage(errorNeedsMoreParams(c.Config.ServerName, client.Nickname.Name, msg.Command))
		}
		return
	}

	if err := spec.handler(c, client, msg); err != nil {
		if ircErr, ok := err.(*IRCError); ok {
			client.maybeQueueMessage(ircErr.Reply)
		} else {
			log.Printf("client %s: %s: %s", client, msg.Command, err)
		}
	}

	if client.Nickname != nil {
		client.Nickname.Seen()
	}
}

func cmdNick(core *Core, client *Client, msg ircmsg.Message) error {
	if len(msg.Params) == 0 {
		client.maybeQueueMessage(errorNoNicknameGiven(core.Config.ServerName, "*"))
		return nil
	}
	nick := msg.Params[0]
	if len(nick) > core.Config.MaxNickLength {
		nick = nick[:core.Config.MaxNickLength]
	}
	if !IsValidNick(core.Config.MaxNickLength, nick) {
		client.maybeQueueMessage(errorErroneousNickname(core.Config.ServerName, "*", nick))
		return nil
	}

	client.PreRegNick = nick
	return core.setNick(client, nick)
}

func cmdUser(core *Core, client *Client, msg ircmsg.Message) error {
	if client.Registered {
		client.maybeQueueMessage(errorAlreadyRegistered(core.Config.ServerName, client.Nickname.Name))
		return nil
	}
	if client.Nickname == nil {
		return nil
	}

	if core.Config.ConnectPassword != "" && client.PreRegPass != core.Config.ConnectPassword {
		client.maybeQueueMessage(errorPasswdMismatch(core.Config.ServerName, client.Nickname.Name))
		core.dropClient(client, "bad password")
		return nil
	}

	user := msg.Params[0]
	realName := msg.Params[3]
	if !IsValidUser(core.Config.MaxUserLength, user) {
		user = "user"
	}

	core.setIdent(client, user, realName)
	return nil
}

func cmdPass(core *Core, client *Client, msg ircmsg.Message) error {
	if len(msg.Params) > 0 {
		client.PreRegPass = msg.Params[0]
	}
	return nil
}

// cmdServer registers the connection as a peer server link rather than a
// user, taking it out of the pool of not-yet-registered connections.
//
// Grounded on original_source/ircd/commands.py's Handler.server
// (SERVER <name> <hopcount> <token> <info>, only name is retained).
func cmdServer(core *Core, client *Client, msg ircmsg.Message) error {
	if client.Link != nil || client.Nickname != nil {
		client.maybeQueueMessage(errorAlreadyRegistered(core.Config.ServerName, "*"))
		return nil
	}
	core.addLink(client, msg.Params[0])
	return nil
}

func cmdPing(core *Core, client *Client, msg ircmsg.Message) error {
	client.maybeQueueMessage(replyPong(core.Config.ServerName, msg.Params[0]))
	return nil
}

func cmdPong(core *Core, client *Client, msg ircmsg.Message) error {
	client.PingsSent = 0
	return nil
}

func cmdQuit(core *Core, client *Client, msg ircmsg.Message) error {
	message := "client quit"
	if len(msg.Params) > 0 {
		message = msg.Params[0]
	}
	core.dropClient(client, message)
	return nil
}

func cmdCap(core *Core, client *Client, msg ircmsg.Message) error {
	server := core.Config.ServerName
	nick := client.PreRegNick
	if client.Nickname != nil {
		nick = client.Nickname.Name
	}

	sub := strings.ToUpper(msg.Params[0])
	switch sub {
	case "LS", "LIST":
		client.Caps.Negotiating = true
		client.maybeQueueMessage(capLS(server, nick, SupportedCapabilities))
	case "REQ":
		if len(msg.Params) < 2 {
			return nil
		}
		result := client.Caps.Request(strings.Fields(msg.Params[1]))
		if len(result.Acked) > 0 {
			client.maybeQueueMessage(capACK(server, nick, result.Acked))
		}
		if len(result.Nacked) > 0 {
			client.maybeQueueMessage(capNAK(server, nick, result.Nacked))
		}
	case "END":
		client.Caps.Negotiating = false
	default:
		client.maybeQueueMessage(errorInvalidCapCommand(server, nick, sub))
	}
	return nil
}

// cmdAuthenticate implements the two-message SASL PLAIN exchange:
// AUTHENTICATE PLAIN to start, then AUTHENTICATE <base64> with the
// authzid\0authcid\0password triplet.
//
// Grounded on original_source/ircd/commands.py's authenticate, adapted to
// use github.com/emersion/go-sasl instead of hand-decoding the PLAIN
// message (sasl.go wraps it so this handler just feeds bytes through).
func cmdAuthenticate(core *Core, client *Client, msg ircmsg.Message) error {
	server := core.Config.ServerName
	nick := client.PreRegNick

	if client.SASL == nil {
		if msg.Params[0] != "PLAIN" {
			client.maybeQueueMessage(saslMechanisms(server, nick))
			return nil
		}
		client.SASL = newPlainSASLSession(func(identity, username, password string) (string, error) {
			if !core.authenticate(username, identity, password) {
				return "", errSASLAborted
			}
			return username, nil
		})
		client.maybeQueueMessage(saslContinue())
		return nil
	}

	_, done, err := client.SASL.step(msg.Params[0])
	if err != nil {
		client.maybeQueueMessage(errorSASLFail(server, nick))
		client.SASL = nil
		return nil
	}
	if done {
		if client.SASL.Account == "" {
			client.maybeQueueMessage(errorSASLFail(server, nick))
		} else {
			client.maybeQueueMessage(saslLoggedIn(server, nick, client.Identity(), client.SASL.Account))
			client.maybeQueueMessage(saslSuccess(server, nick))
		}
		client.SASL = nil
	}
	return nil
}

func cmdJoin(core *Core, client *Client, msg ircmsg.Message) error {
	key := ""
	if len(msg.Params) > 1 {
		key = msg.Params[1]
	}
	for _, name := range strings.Split(msg.Params[0], ",") {
		if err := core.joinChannel(client, name, key); err != nil {
			return err
		}
	}
	return nil
}

func cmdPart(core *Core, client *Client, msg ircmsg.Message) error {
	message := ""
	if len(msg.Params) > 1 {
		message = msg.Params[1]
	}
	for _, name := range strings.Split(msg.Params[0], ",") {
		core.partChannel(client, name, message)
	}
	return nil
}

func cmdPrivmsg(core *Core, client *Client, msg ircmsg.Message) error {
	target := msg.Params[0]
	text := msg.Params[1]
	server := core.Config.ServerName

	if ch := core.getChannel(target); ch != nil {
		return core.sendToChannel(client, ch, taggedMessage(msgPrivmsg(client.Identity(), target, text), msg), true, nil)
	}
	if nickname := core.getNickname(target); nickname != nil {
		return core.sendPrivateMessage(client, nickname, text, msg)
	}
	return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, target))
}

func cmdNotice(core *Core, client *Client, msg ircmsg.Message) error {
	target := msg.Params[0]
	text := msg.Params[1]
	server := core.Config.ServerName

	if ch := core.getChannel(target); ch != nil {
		return core.sendToChannel(client, ch, taggedMessage(msgNotice(client.Identity(), target, text), msg), true, nil)
	}
	if nickname := core.getNickname(target); nickname != nil {
		if other := core.lookupClient(nickname.Name); other != nil {
			other.maybeQueueMessage(taggedMessage(msgNotice(client.Identity(), target, text), msg))
		}
		return nil
	}
	return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, target))
}

func cmdTagmsg(core *Core, client *Client, msg ircmsg.Message) error {
	target := msg.Params[0]
	server := core.Config.ServerName

	if ch := core.getChannel(target); ch != nil {
		return core.sendToChannel(client, ch, taggedMessage(msgTagmsg(client.Identity(), target), msg), true, []string{CapMessageTags})
	}
	if nickname := core.getNickname(target); nickname != nil {
		if other := core.lookupClient(nickname.Name); other != nil && other.Caps.Has(CapMessageTags) {
			other.maybeQueueMessage(taggedMessage(msgTagmsg(client.Identity(), target), msg))
		}
		return nil
	}
	return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, target))
}

// taggedMessage copies the client tags of the inbound message onto the
// outbound reply, matching irc.py's msg.client_tags plumbing into
// private_message/notice/tag_message, and stamps server-time/msgid tags
// that maybeQueueMessage strips back out per recipient for clients that
// didn't negotiate the matching capability.
func taggedMessage(out ircmsg.Message, in ircmsg.Message) ircmsg.Message {
	for name, value := range in.ClientTags() {
		out.SetTag(name, value)
	}
	out.SetTag("time", time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	out.SetTag("msgid", GenerateMessageID())
	return out
}

// sendPrivateMessage delivers to a client directly, or bounces an away
// reply back to the sender if the target is marked away.
//
// Grounded on irc.py's send_private_message_to_client.
func (c *Core) sendPrivateMessage(client *Client, nickname *Nickname, text string, msg ircmsg.Message) error {
	other := c.lookupClient(nickname.Name)
	if other == nil {
		return newIRCError(errorNoSuchNickname(c.Config.ServerName, client.Nickname.Name, nickname.Name))
	}

	if nickname.IsAway() {
		client.maybeQueueMessage(replyAway(other.Identity(), client.Nickname.Name, nickname.Name, nickname.AwayMessage))
		return nil
	}

	other.maybeQueueMessage(taggedMessage(msgPrivmsg(client.Identity(), nickname.Name, text), msg))
	return nil
}

func cmdMode(core *Core, client *Client, msg ircmsg.Message) error {
	target := msg.Params[0]
	var flags, param string
	if len(msg.Params) > 1 {
		flags = msg.Params[1]
	}
	if len(msg.Params) > 2 {
		param = msg.Params[2]
	}

	if nickname := core.getNickname(target); nickname != nil {
		if target != client.Nickname.Name {
			return newIRCError(errorUsersDontMatch(core.Config.ServerName, client.Nickname.Name))
		}
		if flags == "" {
			client.maybeQueueMessage(replyUserModeIs(core.Config.ServerName, client.Nickname.Name, client.Nickname.Mode))
			return nil
		}
		return applyModeString(flags, func(op byte, flag byte) error {
			return core.setUserMode(client, op, flag)
		})
	}

	if ch := core.getChannel(target); ch != nil {
		if flags == "" {
			core.sendChannelModeIs(client, ch)
			return nil
		}
		return applyModeString(flags, func(op byte, flag byte) error {
			return core.setChannelMode(client, ch, op, flag, param)
		})
	}

	return nil
}

// applyModeString walks a "+abc"/"-abc" style mode string, invoking apply
// once per flag character with the sign currently in effect.
//
// Grounded on irc.py's set_channel_mode/set_user_mode, which split flags
// into the leading sign and the rest before applying each one.
func applyModeString(flags string, apply func(op byte, flag byte) error) error {
	op := byte('+')
	for i := 0; i < len(flags); i++ {
		ch := flags[i]
		if ch == '+' || ch == '-' {
			op = ch
			continue
		}
		if err := apply(op, ch); err != nil {
			return err
		}
	}
	return nil
}

func cmdTopic(core *Core, client *Client, msg ircmsg.Message) error {
	ch := core.getChannel(msg.Params[0])
	if ch == nil {
		return newIRCError(errorNoSuchChannel(core.Config.ServerName, client.Nickname.Name, msg.Params[0]))
	}

	if len(msg.Params) > 1 {
		core.setTopic(client, ch, msg.Params[1])
		return nil
	}
	core.sendTopic(client, ch)
	return nil
}

func cmdInvite(core *Core, client *Client, msg ircmsg.Message) error {
	server := core.Config.ServerName
	nickname := core.getNickname(msg.Params[0])
	if nickname == nil {
		return newIRCError(errorNoSuchNickname(server, client.Nickname.Name, msg.Params[0]))
	}
	ch := core.getChannel(msg.Params[1])
	if ch == nil {
		return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, msg.Params[1]))
	}
	if !ch.IsOperator(client.Nickname) {
		return newIRCError(errorChannelOperatorNeeded(server, client.Nickname.Name, msg.Params[1]))
	}
	if ch.IsMember(nickname) {
		return newIRCError(errorUserOnChannel(server, client.Nickname.Name, nickname.Name, msg.Params[1]))
	}

	core.invite(client, ch, nickname)
	return nil
}

func cmdKick(core *Core, client *Client, msg ircmsg.Message) error {
	server := core.Config.ServerName
	ch := core.getChannel(msg.Params[0])
	if ch == nil {
		return newIRCError(errorNoSuchChannel(server, client.Nickname.Name, msg.Params[0]))
	}
	if !ch.IsOperator(client.Nickname) {
		return newIRCError(errorChannelOperatorNeeded(server, client.Nickname.Name, msg.Params[0]))
	}
	nickname := core.getNickname(msg.Params[1])
	if nickname == nil {
		return newIRCError(errorNoSuchNickname(server, client.Nickname.Name, msg.Params[1]))
	}

	comment := ""
	if len(msg.Params) > 2 {
		comment = msg.Params[2]
	}
	core.kick(client, ch, nickname, comment)
	return nil
}

func cmdNames(core *Core, client *Client, msg ircmsg.Message) error {
	for _, name := range strings.Split(msg.Params[0], ",") {
		if ch := core.getChannel(name); ch != nil {
			core.sendNames(client, ch)
		}
	}
	return nil
}

func cmdList(core *Core, client *Client, msg ircmsg.Message) error {
	var names map[string]bool
	if len(msg.Params) > 0 && msg.Params[0] != "" {
		names = map[string]bool{}
		for _, name := range strings.Split(msg.Params[0], ",") {
			names[CanonicalChannelName(name)] = true
		}
	}
	core.sendList(client, core.listChannels(client, names))
	return nil
}

func cmdMotd(core *Core, client *Client, msg ircmsg.Message) error {
	core.sendMOTD(client)
	return nil
}

func cmdAway(core *Core, client *Client, msg ircmsg.Message) error {
	server := core.Config.ServerName
	if len(msg.Params) > 0 && msg.Params[0] != "" {
		client.Nickname.SetAway(msg.Params[0])
		client.maybeQueueMessage(replyNowAway(server, client.Nickname.Name))
		return nil
	}
	client.Nickname.ClearAway()
	client.maybeQueueMessage(replyUnaway(server, client.Nickname.Name))
	return nil
}
