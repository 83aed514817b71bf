package main

import "strings"

// ChannelStartChars are the characters a valid channel name may begin with.
//
// Grounded on original_source/ircd/irc.py's CHAN_START_CHARS.
const ChannelStartChars = "&#!+"

// MaxChannelLength bounds a channel name, per RFC guidance and
// horgh-catbox/util.go's maxChannelLength.
const MaxChannelLength = 50

// MaxTopicLength bounds a channel topic. Arbitrary, kept low enough to fit
// a single protocol line; grounded on horgh-catbox/util.go's
// maxTopicLength.
const MaxTopicLength = 300

// Channel holds everything to do with a channel: its members, operators,
// invite list, topic, key, mode, and ban/exception masks.
//
// Grounded on original_source/ircd/chan.py, adapted to Go's explicit
// pointer-slice idiom (horgh-catbox/channel.go's Members map style, scaled
// up from a membership set to the ordered-list shape the source and the
// NAMES/WHO output need).
type Channel struct {
	Name string

	Owner *Nickname

	Key   string
	Topic string

	Members   []*Nickname
	Operators []*Nickname
	Invited   []*Nickname

	Mode *Mode

	Bans       []Mask
	Exceptions []Mask
}

// CanonicalChannelName lowercases a channel name for use as a registry key.
func CanonicalChannelName(c string) string {
	return strings.ToLower(c)
}

// IsValidChannelName reports whether name is well formed: starts with one
// of ChannelStartChars and is within MaxChannelLength.
func IsValidChannelName(name string) bool {
	if len(name) == 0 || len(name) > MaxChannelLength {
		return false
	}
	return strings.ContainsRune(ChannelStartChars, rune(name[0]))
}

// NewChannel creates a channel owned by owner (which also becomes its sole
// initial member and operator). owner may be nil only for tests that
// exercise mode flags directly.
func NewChannel(name string, owner *Nickname) *Channel {
	c := &Channel{
		Name: name,
	}
	c.Mode = newChannelMode(c)
	if owner != nil {
		c.Owner = owner
		c.Members = []*Nickname{owner}
		c.Operators = []*Nickname{owner}
		owner.JoinedChannel(c)
	}
	return c
}

func containsNickname(list []*Nickname, n *Nickname) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}

func removeNickname(list []*Nickname, n *Nickname) []*Nickname {
	out := list[:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

// IsTopicOpen reports whether the topic can be set by a non-operator
// (mode 't' clear).
func (c *Channel) IsTopicOpen() bool { return !c.Mode.HasFlag(ModeChannelTopicClosed) }

// IsOperator reports whether n is a channel operator.
func (c *Channel) IsOperator(n *Nickname) bool { return containsNickname(c.Operators, n) }

// IsMember reports whether n is currently a member.
func (c *Channel) IsMember(n *Nickname) bool { return containsNickname(c.Members, n) }

// IsInvited reports whether n is on the invite list.
func (c *Channel) IsInvited(n *Nickname) bool { return containsNickname(c.Invited, n) }

// IsInviteOnly reports the 'i' channel mode flag.
func (c *Channel) IsInviteOnly() bool { return c.Mode.HasFlag(ModeChannelInviteOnly) }

// IsPrivate reports the 'p' channel mode flag.
func (c *Channel) IsPrivate() bool { return c.Mode.HasFlag(ModeChannelPrivate) }

// IsSecret reports the 's' channel mode flag.
func (c *Channel) IsSecret() bool { return c.Mode.HasFlag(ModeChannelSecret) }

// CanJoin reports whether n may join given the invite-only flag and invite
// list; bans and keys are checked separately by the core.
func (c *Channel) CanJoin(n *Nickname) bool {
	if c.IsInviteOnly() {
		return c.IsInvited(n)
	}
	return true
}

// SetTopic sets the topic text unconditionally; callers enforce the
// operator-required check.
func (c *Channel) SetTopic(topic string) { c.Topic = topic }

// GetMember looks up a member by nickname name (not canonicalized by this
// method; callers pass the name as given on the wire, matching the
// source's exact-string comparison in chan.py's get_member).
func (c *Channel) GetMember(nickname string) *Nickname {
	for _, m := range c.Members {
		if m.Name == nickname {
			return m
		}
	}
	return nil
}

// Join adds nickname to members if the key matches (or none is set),
// records the channel on the nickname, and returns whether the key check
// passed. It is idempotent for an existing member.
func (c *Channel) Join(nickname *Nickname, key string) bool {
	if c.Key != "" && key != c.Key {
		return false
	}

	if !containsNickname(c.Members, nickname) {
		c.Members = append(c.Members, nickname)
	}
	nickname.JoinedChannel(c)
	return true
}

// Part removes nickname from members and from its own channel set.
func (c *Channel) Part(nickname *Nickname) {
	c.Members = removeNickname(c.Members, nickname)
	nickname.PartedChannel(c)
}

// Invite adds nickname to the invite list, idempotently.
func (c *Channel) Invite(nickname *Nickname) {
	if !containsNickname(c.Invited, nickname) {
		c.Invited = append(c.Invited, nickname)
	}
}

// Kick removes nickname from both the invite list and members, and removes
// the channel from the nickname's joined channels.
func (c *Channel) Kick(nickname *Nickname) {
	c.Invited = removeNickname(c.Invited, nickname)
	c.Members = removeNickname(c.Members, nickname)
	nickname.PartedChannel(c)
}

func containsMask(list []Mask, m Mask) bool {
	for _, x := range list {
		if x.Equal(m) {
			return true
		}
	}
	return false
}

func removeMask(list []Mask, m Mask) []Mask {
	out := list[:0]
	for _, x := range list {
		if !x.Equal(m) {
			out = append(out, x)
		}
	}
	return out
}

// AddBan adds a ban mask, idempotently.
func (c *Channel) AddBan(m Mask) {
	if !containsMask(c.Bans, m) {
		c.Bans = append(c.Bans, m)
	}
}

// RemoveBan removes a ban mask if present.
func (c *Channel) RemoveBan(m Mask) { c.Bans = removeMask(c.Bans, m) }

// AddException adds a ban-exception mask, idempotently.
func (c *Channel) AddException(m Mask) {
	if !containsMask(c.Exceptions, m) {
		c.Exceptions = append(c.Exceptions, m)
	}
}

// RemoveException removes a ban-exception mask if present.
func (c *Channel) RemoveException(m Mask) { c.Exceptions = removeMask(c.Exceptions, m) }

// IsBanned reports whether identity matches some ban mask and no exception
// mask.
func (c *Channel) IsBanned(identity string) bool {
	matches := func(list []Mask) bool {
		for _, m := range list {
			if m.Match(identity) {
				return true
			}
		}
		return false
	}
	return matches(c.Bans) && !matches(c.Exceptions)
}

// IsEmpty reports whether the channel has no members and should be
// destroyed.
func (c *Channel) IsEmpty() bool { return len(c.Members) == 0 }
