package ircmsg

import (
	"fmt"
	"strings"
)

// ParseMessage parses a protocol message from the client/server. The message
// should include the trailing CRLF.
//
// See RFC 1459/2812 section 2.3.1 and the IRCv3 message-tags specification.
func ParseMessage(line string) (Message, error) {
	line, err := fixLineEnding(line)
	if err != nil {
		return Message{}, fmt.Errorf("line does not have a valid ending: %s", line)
	}

	truncated := false

	if len(line) > MaxLineLength+MaxTagLength {
		truncated = true
		line = line[0:MaxLineLength+MaxTagLength-2] + "\r\n"
	}

	message := Message{}
	index := 0

	if len(line) > 0 && line[0] == '@' {
		tags, tagIndex, err := parseTags(line)
		if err != nil {
			return Message{}, fmt.Errorf("problem parsing tags: %s", err)
		}
		index = tagIndex
		message.Tags = tags.m
		message.TagOrder = tags.order

		if index >= len(line) {
			return Message{}, fmt.Errorf("malformed message. Tags only")
		}
	}

	// It is optional to have a prefix.
	if line[index] == ':' {
		prefix, prefixIndex, err := parsePrefix(line, index)
		if err != nil {
			return Message{}, fmt.Errorf("problem parsing prefix: %s", err)
		}
		index = prefixIndex

		message.Prefix = prefix

		if index >= len(line) {
			return Message{}, fmt.Errorf("malformed message. Prefix only")
		}
	}

	command, index, err := parseCommand(line, index)
	if err != nil {
		return Message{}, fmt.Errorf("problem parsing command: %s", err)
	}

	message.Command = command

	params, index, err := parseParams(line, index)
	if err != nil {
		return Message{}, fmt.Errorf("problem parsing params: %s", err)
	}

	if len(params) > 15 {
		return Message{}, fmt.Errorf("too many parameters")
	}

	message.Params = params

	// index should be pointing at the CR after parsing params.
	if index != len(line)-2 || line[index] != '\r' || line[index+1] != '\n' {
		return Message{}, fmt.Errorf("malformed message. No CRLF found. Looking for end at position %d", index)
	}

	if truncated {
		return message, ErrTruncated
	}

	return message, nil
}

type parsedTags struct {
	m     map[string]string
	order []string
}

// parseTags parses the "@tag1;tag2=value " prefix. line[0] == '@'.
//
// Returns the tags and the index of the first character after the
// terminating space, i.e. where the prefix or command begins.
func parseTags(line string) (parsedTags, int, error) {
	end := strings.IndexByte(line, ' ')
	if end == -1 {
		return parsedTags{}, -1, fmt.Errorf("no space found after tags")
	}

	raw := line[1:end]
	if raw == "" {
		return parsedTags{}, -1, fmt.Errorf("empty tag section")
	}

	out := parsedTags{m: map[string]string{}}
	for _, tag := range strings.Split(raw, ";") {
		if tag == "" {
			continue
		}
		name := tag
		value := ""
		if idx := strings.IndexByte(tag, '='); idx != -1 {
			name = tag[:idx]
			value = unescapeTagValue(tag[idx+1:])
		}
		if name == "" {
			return parsedTags{}, -1, fmt.Errorf("tag with empty name")
		}
		if _, exists := out.m[name]; !exists {
			out.order = append(out.order, name)
		}
		out.m[name] = value
	}

	return out, end + 1, nil
}

var tagUnescapes = strings.NewReplacer(
	`\:`, ";",
	`\s`, " ",
	`\\`, `\`,
	`\r`, "\r",
	`\n`, "\n",
)

func unescapeTagValue(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	return tagUnescapes.Replace(s)
}

// fixLineEnding tries to ensure the line ends with CRLF.
//
// If it ends with only LF, add a CR.
func fixLineEnding(line string) (string, error) {
	if len(line) == 0 {
		return "", fmt.Errorf("line is blank")
	}

	if len(line) == 1 {
		if line[0] == '\n' {
			return "\r\n", nil
		}

		return "", fmt.Errorf("line does not end with LF")
	}

	lastIndex := len(line) - 1
	secondLastIndex := lastIndex - 1

	if line[secondLastIndex] == '\r' && line[lastIndex] == '\n' {
		return line, nil
	}

	if line[lastIndex] == '\n' {
		return line[:lastIndex] + "\r\n", nil
	}

	return "", fmt.Errorf("line has no ending CRLF or LF")
}

// parsePrefix parses out the prefix portion of a string, starting at index.
//
// line[index] == ':' and line ends with \n.
//
// If there is no error we return the prefix and the position after the
// SPACE, i.e. pointing to the first character of the command.
func parsePrefix(line string, index int) (string, int, error) {
	pos := index

	if line[pos] != ':' {
		return "", -1, fmt.Errorf("prefix does not start with ':'")
	}

	start := pos
	for pos < len(line) {
		if line[pos] == ' ' {
			break
		}

		if line[pos] == '\x00' || line[pos] == '\n' || line[pos] == '\r' {
			return "", -1, fmt.Errorf("invalid character found: %q", line[pos])
		}

		pos++
	}

	if pos == len(line) {
		return "", -1, fmt.Errorf("no space found")
	}

	if pos == start+1 {
		return "", -1, fmt.Errorf("prefix is zero length")
	}

	return line[start+1 : pos], pos + 1, nil
}

// parseCommand parses the command portion of a message, starting at index.
//
// ABNF:
// message    =  [ ":" prefix SPACE ] command [ params ] crlf
// command    =  1*letter / 3digit
func parseCommand(line string, index int) (string, int, error) {
	newIndex := index

	for newIndex < len(line) {
		if line[newIndex] >= 48 && line[newIndex] <= 57 {
			newIndex++
			continue
		}

		if line[newIndex] >= 65 && line[newIndex] <= 122 {
			newIndex++
			continue
		}

		if line[newIndex] != ' ' && line[newIndex] != '\r' {
			return "", -1, fmt.Errorf("unexpected character after command: %q",
				line[newIndex])
		}
		break
	}

	if newIndex == index {
		return "", -1, fmt.Errorf("0 length command found")
	}

	return strings.ToUpper(line[index:newIndex]), newIndex, nil
}

// parseParams parses the params part of a message. index points to the first
// character after the command.
func parseParams(line string, index int) ([]string, int, error) {
	newIndex := index
	var params []string

	for newIndex < len(line) {
		if line[newIndex] != ' ' {
			return params, newIndex, nil
		}

		param, paramIndex, err := parseParam(line, newIndex)
		if err != nil {
			// It's common in the wild for there to be trailing space characters
			// before the CRLF. Permit this despite it arguably being invalid.
			if err == errEmptyParam {
				crIndex := isTrailingSpace(line, newIndex)
				if crIndex != -1 {
					return params, crIndex, nil
				}
			}

			return nil, -1, fmt.Errorf("problem parsing parameter: %s", err)
		}

		newIndex = paramIndex
		params = append(params, param)
	}

	return nil, -1, fmt.Errorf("malformed params. Not terminated properly")
}

// parseParam parses out a single parameter term. index points to a space.
func parseParam(line string, index int) (string, int, error) {
	newIndex := index

	if line[newIndex] != ' ' {
		return "", -1, fmt.Errorf("malformed param. No leading space")
	}

	newIndex++

	if len(line) == newIndex {
		return "", -1, fmt.Errorf("malformed parameter. End of string after space")
	}

	// SPACE ":" trailing
	if line[newIndex] == ':' {
		newIndex++

		if len(line) == newIndex {
			return "", -1, fmt.Errorf("malformed parameter. End of string after ':'")
		}

		paramIndexStart := newIndex

		for newIndex < len(line) {
			if line[newIndex] == '\x00' || line[newIndex] == '\r' ||
				line[newIndex] == '\n' {
				break
			}
			newIndex++
		}

		return line[paramIndexStart:newIndex], newIndex, nil
	}

	paramIndexStart := newIndex

	for newIndex < len(line) {
		if line[newIndex] == '\x00' || line[newIndex] == '\r' ||
			line[newIndex] == '\n' || line[newIndex] == ' ' {
			break
		}
		newIndex++
	}

	if paramIndexStart == newIndex {
		return "", -1, errEmptyParam
	}

	return line[paramIndexStart:newIndex], newIndex, nil
}

// If the string from the given position to the end contains nothing but
// spaces until we reach CRLF, return the position of CR.
func isTrailingSpace(line string, index int) int {
	for i := index; i < len(line); i++ {
		if line[i] == ' ' {
			continue
		}

		if line[i] == '\r' {
			return i
		}

		return -1
	}

	return -1
}
