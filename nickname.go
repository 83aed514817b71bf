package main

import (
	"strings"
	"time"
)

// Nickname is the persistent identity record for a connected user: the
// entity that outlives a rename, holds mode state, and tracks channel
// membership. It is distinct from Client (the connection) so that renaming
// a nick does not require re-indexing every channel's member list.
//
// Grounded on original_source/ircd/nick.py, translated to the Go struct +
// method idiom horgh-catbox/user.go uses (pointer-identity equality,
// explicit getter methods instead of properties).
type Nickname struct {
	Name string

	Mode *Mode

	LastSeen time.Time

	// Channels this nickname has joined, keyed by channel name.
	Channels map[string]*Channel

	AwayMessage string
}

// NewNickname creates a fresh Nickname record.
func NewNickname(name string) *Nickname {
	return &Nickname{
		Name:     name,
		Mode:     newUserMode(),
		LastSeen: time.Now(),
		Channels: map[string]*Channel{},
	}
}

// CanonicalNickname lowercases a nickname for use as a registry key.
//
// Grounded on horgh-catbox/util.go's canonicalizeNick.
func CanonicalNickname(n string) string {
	return strings.ToLower(n)
}

// Rename changes the in-memory nickname value. The caller is responsible
// for moving the registry key the Nickname is indexed under.
func (n *Nickname) Rename(newName string) {
	n.Name = newName
}

// Seen refreshes the last-activity timestamp.
func (n *Nickname) Seen() {
	n.LastSeen = time.Now()
}

// JoinedChannel records that this nickname is now a member of channel. It
// is idempotent.
func (n *Nickname) JoinedChannel(c *Channel) {
	n.Channels[c.Name] = c
}

// PartedChannel removes channel from this nickname's membership set.
func (n *Nickname) PartedChannel(c *Channel) {
	delete(n.Channels, c.Name)
}

// OnChannel reports whether this nickname is currently a member of c.
func (n *Nickname) OnChannel(c *Channel) bool {
	_, ok := n.Channels[c.Name]
	return ok
}

// SetAway sets the away message and the 'a' user mode flag.
func (n *Nickname) SetAway(message string) {
	_, _ = n.Mode.SetFlags(string(ModeAway), "")
	n.AwayMessage = message
}

// ClearAway clears the away message and the 'a' user mode flag.
func (n *Nickname) ClearAway() {
	_, _ = n.Mode.ClearFlags(string(ModeAway), "")
	n.AwayMessage = ""
}

// IsAway reports whether the away mode flag is set.
func (n *Nickname) IsAway() bool { return n.Mode.HasFlag(ModeAway) }

// IsOperator reports whether the global operator mode flag is set.
func (n *Nickname) IsOperator() bool { return n.Mode.HasFlag(ModeOperator) }

// ModeString renders the current user mode as "+flags".
func (n *Nickname) ModeString() string { return n.Mode.String() }
