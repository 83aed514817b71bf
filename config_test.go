package main

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetDefaultsRequiresServerName(t *testing.T) {
	c := &Config{}
	err := c.setDefaults()
	require.Error(t, err)
}

func TestSetDefaultsFillsInOptionalFields(t *testing.T) {
	c := &Config{ServerName: "irc.example.org"}
	require.NoError(t, c.setDefaults())

	require.Equal(t, "0.0.0.0:9999", c.Listeners[0].Address)
	require.NotEmpty(t, c.Version)
	require.NotEmpty(t, c.CreatedDate)
	require.Equal(t, 30, c.MaxNickLength)
	require.Equal(t, 30, c.MaxUserLength)
	require.NotNil(t, c.Opers)
}

func TestSetDefaultsRequiresLinkAddress(t *testing.T) {
	c := &Config{ServerName: "irc.example.org", Link: &LinkConfig{Name: "peer"}}
	err := c.setDefaults()
	require.Error(t, err)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir, err := ioutil.TempDir("", "ircd-config-test-")
	require.NoError(t, err)
	defer func() { _ = os.RemoveAll(dir) }()

	path := dir + "/ircd.yaml"
	content := `
server-name: irc.example.org
listeners:
  - address: "0.0.0.0:6667"
max-nick-length: 20
opers:
  admin: secret
`
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "irc.example.org", c.ServerName)
	require.Equal(t, "0.0.0.0:6667", c.Listeners[0].Address)
	require.Equal(t, 20, c.MaxNickLength)
	require.Equal(t, "secret", c.Opers["admin"])
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := loadConfig("/nonexistent/ircd.yaml")
	require.Error(t, err)
}
