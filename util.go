package main

import (
	"crypto/rand"
	"encoding/hex"
)

// IsValidNick checks if a nickname is valid: within maxLen and restricted
// to a-z, 0-9, _, with no leading digit.
//
// Grounded on horgh-catbox/util.go's isValidNick.
func IsValidNick(maxLen int, n string) bool {
	if len(n) == 0 || len(n) > maxLen {
		return false
	}

	for i, char := range n {
		if char >= 'a' && char <= 'z' {
			continue
		}
		if char >= '0' && char <= '9' {
			if i == 0 {
				return false
			}
			continue
		}
		if char == '_' {
			continue
		}
		return false
	}

	return true
}

// IsValidUser checks if a USER command's username is valid.
//
// Grounded on horgh-catbox/util.go's isValidUser.
func IsValidUser(maxLen int, u string) bool {
	if len(u) == 0 || len(u) > maxLen {
		return false
	}

	for _, char := range u {
		if char >= 'a' && char <= 'z' {
			continue
		}
		if char >= '0' && char <= '9' {
			continue
		}
		return false
	}

	return true
}

// GenerateMessageID returns a random hex identifier suitable for the
// message-ids capability's msgid tag.
//
// The source generates this with uuid.uuid4().hex; we have no UUID library
// in the dependency set the pack grounds us in, so we generate the same
// shape of value (32 hex characters) directly from crypto/rand.
func GenerateMessageID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}
