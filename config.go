package main

import (
	"io/ioutil"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// ListenerConfig is one bound address the server accepts connections on.
type ListenerConfig struct {
	Address string
	TLSCert string `yaml:"tls-cert"`
	TLSKey  string `yaml:"tls-key"`
}

// LinkConfig describes the single outbound peer this server dials on
// startup, replacing the source's operator-issued CONNECT command with a
// statically configured link (see the design note on this in the design
// ledger).
type LinkConfig struct {
	Name     string
	Address  string
	Password string
}

// WebSocketConfig configures the optional IRC-over-WebSocket bridge.
type WebSocketConfig struct {
	Enabled bool
	Address string
}

// Config holds a server's full configuration, loaded from YAML.
//
// Grounded on horgh-catbox/config.go's field set (listeners, server
// identity, MOTD, timing, opers), restructured from its flat key=value
// format into nested YAML the way other_examples' oragono irc-config.go
// structures its Config type.
type Config struct {
	Listeners []ListenerConfig
	WebSocket WebSocketConfig
	Link      *LinkConfig

	ServerName      string `yaml:"server-name"`
	ServerInfo      string `yaml:"server-info"`
	Version         string
	CreatedDate     string `yaml:"created-date"`
	MOTD            string
	ConnectPassword string `yaml:"connect-password"`

	MaxNickLength int           `yaml:"max-nick-length"`
	MaxUserLength int           `yaml:"max-user-length"`
	WakeupTime    time.Duration `yaml:"wakeup-time"`
	PingTime      time.Duration `yaml:"ping-time"`
	DeadTime      time.Duration `yaml:"dead-time"`

	Opers map[string]string
}

// loadConfig reads and validates a YAML configuration file, filling in the
// same defaults horgh-catbox's checkAndParseConfig enforced as required
// keys.
func loadConfig(path string) (*Config, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read configuration file %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrap(err, "unable to parse configuration file")
	}

	if err := c.setDefaults(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) setDefaults() error {
	if c.ServerName == "" {
		return errors.New("server-name is required")
	}
	if len(c.Listeners) == 0 {
		c.Listeners = []ListenerConfig{{Address: "0.0.0.0:9999"}}
	}
	if c.Version == "" {
		c.Version = "ircd-0.1"
	}
	if c.CreatedDate == "" {
		c.CreatedDate = time.Now().Format(time.RFC1123)
	}
	if c.MaxNickLength == 0 {
		c.MaxNickLength = 30
	}
	if c.MaxUserLength == 0 {
		c.MaxUserLength = 30
	}
	if c.WakeupTime == 0 {
		c.WakeupTime = 10 * time.Second
	}
	if c.PingTime == 0 {
		c.PingTime = time.Minute
	}
	if c.DeadTime == 0 {
		c.DeadTime = 4 * time.Minute
	}
	if c.Opers == nil {
		c.Opers = map[string]string{}
	}

	if c.Link != nil {
		if c.Link.Address == "" {
			return errors.New("link.address is required when link is configured")
		}
	}

	return nil
}
