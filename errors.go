package main

import (
	"github.com/horgh/ircd/internal/ircmsg"
)

// IRCError is a protocol or authorization error raised by the core. It
// carries a fully formed reply that the handler boundary enqueues to the
// offending client without further interpretation.
//
// This is the typed-error translation of the source's raised
// IRCError(reply) / caught at the Handler.__call__ boundary.
type IRCError struct {
	Reply ircmsg.Message
}

func (e *IRCError) Error() string {
	return "irc error: " + e.Reply.Command
}

func newIRCError(reply ircmsg.Message) *IRCError {
	return &IRCError{Reply: reply}
}
