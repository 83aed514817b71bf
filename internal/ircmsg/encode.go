package ircmsg

import (
	"fmt"
	"strings"
)

var tagEscapes = strings.NewReplacer(
	`\`, `\\`,
	";", `\:`,
	" ", `\s`,
	"\r", `\r`,
	"\n", `\n`,
)

func escapeTagValue(s string) string {
	return tagEscapes.Replace(s)
}

// Encode encodes the Message into a raw protocol message string.
//
// The resulting string will have a trailing CRLF. If the message has tags,
// they are emitted first as "@name1=value1;name2 ".
//
// If encoding the message would exceed the allowed maximum length (more than
// MaxLineLength bytes, not counting any tag section), we truncate and return
// as much as we can and return ErrTruncated. This truncated message may
// still be usable.
//
// It does not enforce command specific semantics.
func (m Message) Encode() (string, error) {
	tagPrefix := ""
	if len(m.TagOrder) > 0 {
		parts := make([]string, 0, len(m.TagOrder))
		for _, name := range m.TagOrder {
			v, ok := m.Tags[name]
			if !ok {
				continue
			}
			if v == "" {
				parts = append(parts, name)
				continue
			}
			parts = append(parts, name+"="+escapeTagValue(v))
		}
		if len(parts) > 0 {
			tagPrefix = "@" + strings.Join(parts, ";") + " "
		}
	}

	s := ""

	if len(m.Prefix) > 0 {
		s += ":" + m.Prefix + " "
	}

	s += m.Command

	if len(s)+2 > MaxLineLength {
		return "", fmt.Errorf("message with only prefix/command is too long")
	}

	truncated := false

	if len(m.Params) > 15 {
		return "", fmt.Errorf("too many parameters")
	}

	for i, param := range m.Params {
		last := i+1 == len(m.Params)

		// A space or a leading colon in a parameter is only legal in the
		// last position, where it's the trailing parameter. Anywhere else
		// it's ambiguous on the wire.
		hasSpace := strings.IndexAny(param, " ") != -1
		hasLeadingColon := param != "" && param[0] == ':'
		if !last && (hasSpace || hasLeadingColon || param == "") {
			return "", fmt.Errorf(
				"parameter problem: ':' or ' ' outside last parameter")
		}

		// The last parameter always carries a leading colon, whether or not
		// it needs one to stay unambiguous; an empty last parameter is
		// written as a bare ':' so it survives a round trip.
		if last {
			param = ":" + param
		}

		if len(s)+1+len(param)+2 > MaxLineLength {
			lengthUsed := len(s) + 1 + 2
			lengthAvailable := MaxLineLength - lengthUsed

			if lengthAvailable > 0 {
				s += " " + param[0:lengthAvailable]
			}

			truncated = true
			break
		}

		s += " " + param
	}

	s = tagPrefix + s + "\r\n"

	if truncated {
		return s, ErrTruncated
	}

	return s, nil
}
