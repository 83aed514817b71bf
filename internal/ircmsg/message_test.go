package ircmsg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMessageBasic(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Message
		wantErr bool
	}{
		{
			name:  "simple command no prefix",
			input: "PING\r\n",
			want:  Message{Command: "PING"},
		},
		{
			name:  "prefix and params",
			input: ":foo!foo@localhost PRIVMSG bar :hello there\r\n",
			want: Message{
				Prefix:  "foo!foo@localhost",
				Command: "PRIVMSG",
				Params:  []string{"bar", "hello there"},
			},
		},
		{
			name:  "numeric command",
			input: ":localhost 001 foo :Welcome\r\n",
			want: Message{
				Prefix:  "localhost",
				Command: "001",
				Params:  []string{"foo", "Welcome"},
			},
		},
		{
			name:  "LF only is fixed up",
			input: "NICK foo\n",
			want: Message{
				Command: "NICK",
				Params:  []string{"foo"},
			},
		},
		{
			name:    "empty line",
			input:   "",
			wantErr: true,
		},
		{
			name:    "prefix only",
			input:   ": \r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMessage(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want.Prefix, got.Prefix)
			require.Equal(t, tt.want.Command, got.Command)
			require.Equal(t, tt.want.Params, got.Params)
		})
	}
}

func TestParseMessageTags(t *testing.T) {
	m, err := ParseMessage("@aaa=bbb;+example.com/ddd=eee :nick!u@h PRIVMSG foo :Hello\r\n")
	require.NoError(t, err)
	require.Equal(t, "PRIVMSG", m.Command)

	v, ok := m.Tag("aaa")
	require.True(t, ok)
	require.Equal(t, "bbb", v)

	v, ok = m.Tag("+example.com/ddd")
	require.True(t, ok)
	require.Equal(t, "eee", v)

	clientTags := m.ClientTags()
	require.Len(t, clientTags, 1)
	require.Equal(t, "eee", clientTags["+example.com/ddd"])
}

func TestParseMessageTooManyParams(t *testing.T) {
	line := "CMD a b c d e f g h i j k l m n o p\r\n"
	_, err := ParseMessage(line)
	require.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	tests := []string{
		"PING\r\n",
		":foo!foo@localhost PRIVMSG bar :hello there\r\n",
		":localhost 001 foo :Welcome\r\n",
		"MODE #chan +k :\r\n",
	}

	for _, line := range tests {
		m, err := ParseMessage(line)
		require.NoError(t, err)

		encoded, err := m.Encode()
		require.NoError(t, err)
		require.Equal(t, line, encoded)
	}
}

func TestEncodeTags(t *testing.T) {
	m := Message{Command: "PRIVMSG", Params: []string{"foo", "Hello"}, Prefix: "sender"}
	m.SetTag("+example.com/ddd", "eee")
	m.SetTag("time", "2020-01-01T00:00:00.000Z")

	encoded, err := m.Encode()
	require.NoError(t, err)
	require.Equal(t, "@+example.com/ddd=eee;time=2020-01-01T00:00:00.000Z :sender PRIVMSG foo :Hello\r\n", encoded)
}

func TestEncodeEmptyTrailingParam(t *testing.T) {
	m := Message{Command: "TOPIC", Params: []string{"#chan", ""}}
	encoded, err := m.Encode()
	require.NoError(t, err)
	require.Equal(t, "TOPIC #chan :\r\n", encoded)
}

func TestEncodeTruncates(t *testing.T) {
	long := make([]byte, MaxLineLength)
	for i := range long {
		long[i] = 'a'
	}
	m := Message{Command: "PRIVMSG", Params: []string{"foo", string(long)}}
	encoded, err := m.Encode()
	require.True(t, errors.Is(err, ErrTruncated))
	require.LessOrEqual(t, len(encoded), MaxLineLength)
}
