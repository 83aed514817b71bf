package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/horgh/ircd/internal/ircmsg"
)

// newReply builds a server-origin message: prefix is the server name,
// command and params are taken verbatim.
//
// Grounded on original_source/ircd/message.py's IRCMessage classmethods,
// translated one-for-one into functions returning ircmsg.Message instead of
// a class hierarchy.
func newReply(prefix, command string, params ...string) ircmsg.Message {
	return ircmsg.Message{Prefix: prefix, Command: command, Params: params}
}

func replyWelcome(server, target, nickname, user, hostname string) ircmsg.Message {
	return newReply(server, "001", target,
		fmt.Sprintf("Welcome to the Internet Relay Network %s!%s@%s", nickname, user, hostname))
}

func replyYourHost(server, target, name, version string) ircmsg.Message {
	return newReply(server, "002", target,
		fmt.Sprintf("Your host is %s, running version %s", name, version))
}

func replyCreated(server, target, createdDate string) ircmsg.Message {
	return newReply(server, "003", target, fmt.Sprintf("This server was created %s", createdDate))
}

func replyMyInfo(server, target, name, version, userModes, channelModes string) ircmsg.Message {
	return newReply(server, "004", target, name, version, userModes, channelModes)
}

func replyISupport(server, target string, tokens [][2]string) ircmsg.Message {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, fmt.Sprintf("%s=%s", t[0], t[1]))
	}
	return newReply(server, "005", target, strings.Join(parts, " "), "are supported by this server")
}

func replyPong(server, origin string) ircmsg.Message {
	return newReply(server, "PONG", origin)
}

func replyUserModeIs(server, target string, mode *Mode) ircmsg.Message {
	return newReply(server, "221", target, mode.String())
}

func replyChannelModeIs(server, target, channel string, mode *Mode, params string) ircmsg.Message {
	return newReply(server, "324", target, channel, mode.String(), params)
}

func replyAway(server, target, nickname, message string) ircmsg.Message {
	return newReply(server, "301", target, nickname, message)
}

func replyUnaway(server, target string) ircmsg.Message {
	return newReply(server, "305", target, "You are no longer marked as being away")
}

func replyNowAway(server, target string) ircmsg.Message {
	return newReply(server, "306", target, "You have been marked as being away")
}

func replyNoTopic(server, target, channel string) ircmsg.Message {
	return newReply(server, "331", target, channel, "No topic is set")
}

func replyTopic(server, target, channel, topic string) ircmsg.Message {
	return newReply(server, "332", target, channel, topic)
}

func replyTopicWhoTime(server, target, channel, nick string, setAt int64) ircmsg.Message {
	return newReply(server, "333", target, channel, nick, fmt.Sprintf("%d", setAt))
}

func replyInviting(server, target, channel, nick string) ircmsg.Message {
	return newReply(server, "341", target, channel, nick)
}

func replyNames(server, target, channel string, members []*Nickname) ircmsg.Message {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return newReply(server, "353", target, "=", channel, strings.Join(names, " "))
}

func replyEndNames(server, target, channel string) ircmsg.Message {
	return newReply(server, "366", target, channel, "End of /NAMES list.")
}

func replyListStart(server, target string) ircmsg.Message {
	return newReply(server, "321", target, "Channel", "Users", "Name")
}

func replyList(server, target, channel string, numMembers int, topicOrPrivate string) ircmsg.Message {
	return newReply(server, "322", target, channel, fmt.Sprintf("%d", numMembers), topicOrPrivate)
}

func replyListEnd(server, target string) ircmsg.Message {
	return newReply(server, "323", target, "End of /LIST")
}

func errorNickInUse(server, target, nickname string) ircmsg.Message {
	return newReply(server, "433", target, nickname, "Nickname is already in use")
}

func errorNotInChannel(server, target string) ircmsg.Message {
	return newReply(server, "441", target, "They aren't on that channel")
}

func errorNoSuchChannel(server, target, name string) ircmsg.Message {
	return newReply(server, "403", target, name, "No such nick/channel")
}

func errorNoSuchNickname(server, target, name string) ircmsg.Message {
	return newReply(server, "401", target, name, "No such nick/channel")
}

func errorNeedsMoreParams(server, target, command string) ircmsg.Message {
	return newReply(server, "461", target, command, "Not enough parameters")
}

func errorInviteOnlyChannel(server, target, channel string) ircmsg.Message {
	return newReply(server, "473", target, channel, "Cannot join channel (+i)")
}

func errorBannedFromChannel(server, target, channel string) ircmsg.Message {
	return newReply(server, "474", target, channel, "Cannot join channel (+b)")
}

func errorBadChannelKey(server, target, channel string) ircmsg.Message {
	return newReply(server, "475", target, channel, "Cannot join channel (+k)")
}

func errorChannelOperatorNeeded(server, target, channel string) ircmsg.Message {
	return newReply(server, "482", target, channel, "You're not channel operator")
}

func errorUsersDontMatch(server, target string) ircmsg.Message {
	return newReply(server, "502", target, "Cant change mode for other users")
}

func errorUnknownCommand(server, target, command string) ircmsg.Message {
	return newReply(server, "421", target, command, "Unknown command")
}

func errorAlreadyRegistered(server, target string) ircmsg.Message {
	return newReply(server, "462", target, "You may not reregister")
}

func errorPasswdMismatch(server, target string) ircmsg.Message {
	return newReply(server, "464", target, "Password incorrect")
}

func errorNotRegistered(server, target string) ircmsg.Message {
	return newReply(server, "451", target, "You have not registered")
}

func errorNoNicknameGiven(server, target string) ircmsg.Message {
	return newReply(server, "431", target, "No nickname given")
}

func errorErroneousNickname(server, target, nickname string) ircmsg.Message {
	return newReply(server, "432", target, nickname, "Erroneous nickname")
}

func errorUserOnChannel(server, target, nickname, channel string) ircmsg.Message {
	return newReply(server, "443", target, nickname, channel, "is already on channel")
}

// CAP subcommand replies. Grounded on message.py's reply_list_capabilities/
// reply_ack_capabilities/reply_nak_capabilities and on IRCv3's CAP spec for
// the LS/ACK/NAK wire shape.

func capLS(server, nickname string, capabilities []string) ircmsg.Message {
	list := strings.Join(capabilities, " ")
	if list == "" {
		list = " "
	}
	return newReply(server, "CAP", nickOrStar(nickname), "LS", list)
}

func capACK(server, nickname string, capabilities []string) ircmsg.Message {
	return newReply(server, "CAP", nickOrStar(nickname), "ACK", strings.Join(capabilities, " "))
}

func capNAK(server, nickname string, capabilities []string) ircmsg.Message {
	return newReply(server, "CAP", nickOrStar(nickname), "NAK", strings.Join(capabilities, " "))
}

func errorInvalidCapCommand(server, nickname, command string) ircmsg.Message {
	return newReply(server, "410", nickOrStar(nickname), command, "Invalid capability command")
}

func nickOrStar(nickname string) string {
	if nickname == "" {
		return "*"
	}
	return nickname
}

// SASL replies. Grounded on message.py's error_sasl_mechanism/sasl_logged_in/
// sasl_success/error_sasl_fail/sasl_continue.

func saslMechanisms(server, nickname string) ircmsg.Message {
	return newReply(server, "908", nickOrStar(nickname), "PLAIN", "are available SASL mechanisms")
}

func saslLoggedIn(server, nickname, identity, account string) ircmsg.Message {
	return newReply(server, "900", nickOrStar(nickname), identity, account, "You are now logged in as "+account)
}

func saslSuccess(server, nickname string) ircmsg.Message {
	return newReply(server, "903", nickOrStar(nickname), "SASL authentication successful")
}

func errorSASLFail(server, nickname string) ircmsg.Message {
	return newReply(server, "904", nickOrStar(nickname), "SASL authentication failed")
}

func saslContinue() ircmsg.Message {
	return ircmsg.Message{Command: "AUTHENTICATE", Params: []string{"+"}}
}

// User/channel commands echoed back to clients. Grounded on message.py's
// nick/join/part/private_message/notice/tag_message/ping/mode/quit/invite/
// kick classmethods.

func msgNick(prefix, nickname string) ircmsg.Message {
	return newReply(prefix, "NICK", nickname)
}

func msgJoin(prefix, channel string) ircmsg.Message {
	return newReply(prefix, "JOIN", channel)
}

func msgPart(prefix, channel, message string) ircmsg.Message {
	if message == "" {
		return newReply(prefix, "PART", channel)
	}
	return newReply(prefix, "PART", channel, message)
}

func msgPrivmsg(prefix, target, text string) ircmsg.Message {
	return newReply(prefix, "PRIVMSG", target, text)
}

func msgNotice(prefix, target, text string) ircmsg.Message {
	return newReply(prefix, "NOTICE", target, text)
}

func msgTagmsg(prefix, target string) ircmsg.Message {
	return newReply(prefix, "TAGMSG", target)
}

func msgPing(server string) ircmsg.Message {
	return newReply(server, "PING", server)
}

func msgMode(prefix, target, flags, params string) ircmsg.Message {
	if params == "" {
		return newReply(prefix, "MODE", target, flags)
	}
	return newReply(prefix, "MODE", target, flags, params)
}

func msgQuit(prefix, message string) ircmsg.Message {
	return newReply(prefix, "QUIT", message)
}

func msgInvite(prefix, nickname, channel string) ircmsg.Message {
	return newReply(prefix, "INVITE", nickname, channel)
}

func msgKick(prefix, channel, nickname, comment string) ircmsg.Message {
	if comment == "" {
		return newReply(prefix, "KICK", channel, nickname)
	}
	return newReply(prefix, "KICK", channel, nickname, comment)
}

// MOTD and LUSER replies. Grounded on message.py's reply_no_motd/
// reply_start_motd/reply_end_motd/reply_motd/reply_luser_*.

func replyNoMOTD(server, target string) ircmsg.Message {
	return newReply(server, "422", target, "No message of the day")
}

func replyStartMOTD(server, target, serverName string) ircmsg.Message {
	return newReply(server, "375", target, fmt.Sprintf("- %s Message of the day -", serverName))
}

func replyEndMOTD(server, target string) ircmsg.Message {
	return newReply(server, "376", target, "End of /MOTD command.")
}

func replyMOTD(server, target, line string) ircmsg.Message {
	return newReply(server, "372", target, "- "+line)
}

func replyLUserClient(server string, numUsers, numServers int) ircmsg.Message {
	return newReply(server, "251", "*",
		fmt.Sprintf("There are %d user(s) on %d server(s)", numUsers, numServers))
}

func replyLUserOp(server string, numOps int) ircmsg.Message {
	return newReply(server, "252", fmt.Sprintf("%d", numOps), "There are operator(s) online")
}

func replyLUserChannels(server string, numChans int) ircmsg.Message {
	return newReply(server, "254", fmt.Sprintf("%d", numChans), "There are channel(s) formed")
}

func replyLUserMe(server string, numClients, numServers int) ircmsg.Message {
	return newReply(server, "255", "*",
		fmt.Sprintf("I have %d client(s) and %d server(s)", numClients, numServers))
}
