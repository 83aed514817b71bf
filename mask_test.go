package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMask(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Mask
		wantOK bool
	}{
		{
			name:   "full mask",
			input:  "foo!bar@localhost",
			want:   NewMask("foo", "bar", "localhost"),
			wantOK: true,
		},
		{
			name:   "wildcard host",
			input:  "*!*@localhost",
			want:   NewMask("*", "*", "localhost"),
			wantOK: true,
		},
		{
			name:  "not a mask",
			input: "nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMask(tt.input)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			require.True(t, got.Equal(tt.want))
		})
	}
}

func TestMaskMatch(t *testing.T) {
	mask, ok := ParseMask("*!*@localhost")
	require.True(t, ok)

	require.True(t, mask.Match("bar!bar@localhost"))
	require.False(t, mask.Match("bar!bar@example.com"))
}

func TestMaskMatchCaseInsensitive(t *testing.T) {
	mask, ok := ParseMask("Foo!*@*")
	require.True(t, ok)
	require.True(t, mask.Match("foo!bar@localhost"))
}

func TestMaskString(t *testing.T) {
	mask := NewMask("", "", "")
	require.Equal(t, "*!*@*", mask.String())
}
