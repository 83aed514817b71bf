package main

import (
	"fmt"
	"regexp"
	"strings"
)

// Mask is a glob-style nick!user@host pattern used for channel bans and
// ban exceptions. A missing component defaults to "*".
//
// Grounded on original_source/ircd/mask.py: '*' becomes a lazy glob, '.' is
// escaped to a literal, and the whole pattern is anchored and matched
// case-insensitively.
type Mask struct {
	Nickname string
	User     string
	Host     string

	pattern *regexp.Regexp
}

var maskPattern = regexp.MustCompile(`^([\w*]+?)!([\w*]+?)@([\w*.-]+?)$`)

// ParseMask parses "nick!user@host" into a Mask. It returns false if s does
// not match the expected triplet shape.
func ParseMask(s string) (Mask, bool) {
	m := maskPattern.FindStringSubmatch(s)
	if m == nil {
		return Mask{}, false
	}
	return NewMask(m[1], m[2], m[3]), true
}

// NewMask builds a Mask from its three components, defaulting any blank
// component to "*".
func NewMask(nickname, user, host string) Mask {
	if nickname == "" {
		nickname = "*"
	}
	if user == "" {
		user = "*"
	}
	if host == "" {
		host = "*"
	}

	mask := Mask{Nickname: nickname, User: user, Host: host}
	mask.pattern = regexp.MustCompile("(?i)^" + mask.buildPattern() + "$")
	return mask
}

func (m Mask) buildPattern() string {
	glob := func(s string) string {
		s = strings.ReplaceAll(s, ".", `\.`)
		s = strings.ReplaceAll(s, "*", ".+?")
		return "(" + s + ")"
	}
	return fmt.Sprintf("%s!%s@%s", glob(m.Nickname), glob(m.User), glob(m.Host))
}

// String renders the mask back to "nick!user@host" form.
func (m Mask) String() string {
	return fmt.Sprintf("%s!%s@%s", m.Nickname, m.User, m.Host)
}

// Match reports whether identity (a "nick!user@host" string) matches this
// mask.
func (m Mask) Match(identity string) bool {
	if m.pattern == nil {
		return NewMask(m.Nickname, m.User, m.Host).Match(identity)
	}
	return m.pattern.MatchString(identity)
}

// Equal reports structural equality of the three mask components.
func (m Mask) Equal(other Mask) bool {
	return m.Nickname == other.Nickname && m.User == other.User && m.Host == other.Host
}
