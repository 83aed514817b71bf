// Package ircmsg provides encoding and decoding of IRC protocol messages,
// including IRCv3 message tags. It is useful for implementing clients and
// servers.
package ircmsg

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MaxLineLength is the maximum protocol message line length. It includes
	// CRLF but excludes any IRCv3 tag section, which IRCv3 allows up to 8191
	// additional bytes for.
	MaxLineLength = 512

	// MaxTagLength is the maximum length of the optional "@tags " section,
	// including the leading '@' and trailing space.
	MaxTagLength = 8191
)

// ErrTruncated is the error returned by Encode if the message gets truncated
// due to encoding to more than MaxLineLength bytes.
var ErrTruncated = errors.New("message truncated")

// It is not always valid for there to be a parameter with zero characters. If
// there is one, it should have a ':' prefix.
var errEmptyParam = errors.New("parameter with zero characters")

// Message holds a protocol message. See section 2.3.1 in RFC 1459/2812, and
// the IRCv3 message-tags specification for Tags.
type Message struct {
	// Tags holds any IRCv3 message tags present on the line. A tag with no
	// '=value' part is present with an empty string value. May be nil.
	Tags map[string]string

	// TagOrder preserves the order tags appeared on the wire so Encode can
	// round trip a parsed message byte for byte (modulo re-ordering we choose
	// to do ourselves, e.g. appending server-time/msgid).
	TagOrder []string

	// Prefix may be blank. It's optional.
	Prefix string

	// Command is the IRC command. For example, PRIVMSG. It may be a numeric.
	Command string

	// There are at most 15 parameters.
	Params []string
}

func (m Message) String() string {
	return fmt.Sprintf("Tags%v Prefix [%s] Command [%s] Params%q", m.Tags,
		m.Prefix, m.Command, m.Params)
}

// SourceNick retrieves the nickname portion of the prefix. It is valid for
// this to be blank as not all messages have prefixes.
func (m Message) SourceNick() string {
	idx := strings.Index(m.Prefix, "!")
	if idx == -1 {
		return ""
	}
	return m.Prefix[:idx]
}

// Tag retrieves a tag's value and whether it was present at all.
func (m Message) Tag(name string) (string, bool) {
	if m.Tags == nil {
		return "", false
	}
	v, ok := m.Tags[name]
	return v, ok
}

// SetTag sets a tag, preserving insertion order for tags not already present.
func (m *Message) SetTag(name, value string) {
	if m.Tags == nil {
		m.Tags = map[string]string{}
	}
	if _, exists := m.Tags[name]; !exists {
		m.TagOrder = append(m.TagOrder, name)
	}
	m.Tags[name] = value
}

// ClientTags returns the subset of tags whose name begins with '+': IRCv3
// client tags, which a server must forward verbatim rather than strip.
func (m Message) ClientTags() map[string]string {
	var out map[string]string
	for _, name := range m.TagOrder {
		if strings.HasPrefix(name, "+") {
			if out == nil {
				out = map[string]string{}
			}
			out[name] = m.Tags[name]
		}
	}
	return out
}
