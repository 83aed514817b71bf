package main

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainSASLSessionSuccess(t *testing.T) {
	var gotIdentity, gotUsername, gotPassword string
	session := newPlainSASLSession(func(identity, username, password string) (string, error) {
		gotIdentity = identity
		gotUsername = username
		gotPassword = password
		return username, nil
	})

	_, done, err := session.step("+")
	require.NoError(t, err)
	require.False(t, done)

	payload := base64.StdEncoding.EncodeToString([]byte("\x00alice\x00hunter2"))
	_, done, err = session.step(payload)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, "alice", session.Account)
	require.Equal(t, "", gotIdentity)
	require.Equal(t, "alice", gotUsername)
	require.Equal(t, "hunter2", gotPassword)
}

func TestPlainSASLSessionRejected(t *testing.T) {
	session := newPlainSASLSession(func(identity, username, password string) (string, error) {
		return "", errSASLAborted
	})

	_, _, err := session.step("+")
	require.NoError(t, err)

	payload := base64.StdEncoding.EncodeToString([]byte("\x00bob\x00wrong"))
	_, done, err := session.step(payload)
	require.Error(t, err)
	require.True(t, done)
	require.Equal(t, "", session.Account)
}

func TestSASLAbort(t *testing.T) {
	session := newPlainSASLSession(func(identity, username, password string) (string, error) {
		t.Fatal("authenticate should not be called on abort")
		return "", nil
	})

	_, done, err := session.step("*")
	require.True(t, errors.Is(err, errSASLAborted))
	require.True(t, done)
}
