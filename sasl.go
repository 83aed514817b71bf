package main

import (
	"encoding/base64"

	"github.com/emersion/go-sasl"
)

// saslSession tracks one client's in-progress AUTHENTICATE exchange.
//
// Grounded on other_examples' soju downstream.go, which wraps
// github.com/emersion/go-sasl's sasl.Server the same way: one Server per
// connection, fed base64-decoded AUTHENTICATE payloads, torn down on
// success, failure, or abort ("AUTHENTICATE *").
type saslSession struct {
	server sasl.Server

	// Account the client authenticated as, once saslSession.step reports
	// done with a nil error.
	Account string
}

// AuthenticateFunc validates a SASL PLAIN identity/username/password
// triplet against the server's account store.
type AuthenticateFunc func(identity, username, password string) (account string, err error)

// newPlainSASLSession starts a PLAIN mechanism session.
func newPlainSASLSession(authenticate AuthenticateFunc) *saslSession {
	s := &saslSession{}
	s.server = sasl.NewPlainServer(func(identity, username, password string) error {
		account, err := authenticate(identity, username, password)
		if err != nil {
			return err
		}
		s.Account = account
		return nil
	})
	return s
}

// step feeds one base64-encoded AUTHENTICATE payload chunk through the
// underlying SASL mechanism.
//
// payload may be "+" (RFC's encoding of an empty response) or "*" (client
// abort, reported to the caller as errSASLAborted).
func (s *saslSession) step(payload string) (challenge string, done bool, err error) {
	if payload == "*" {
		return "", true, errSASLAborted
	}

	var decoded []byte
	if payload != "+" {
		decoded, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", true, err
		}
	}

	resp, done, err := s.server.Next(decoded)
	if err != nil {
		return "", true, err
	}
	if done {
		return "", true, nil
	}

	return base64.StdEncoding.EncodeToString(resp), false, nil
}

type saslAbortedError struct{}

func (saslAbortedError) Error() string { return "SASL authentication aborted" }

var errSASLAborted = saslAbortedError{}
