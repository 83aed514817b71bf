package integration

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/horgh/ircd/internal/ircmsg"
)

// Client is a minimal IRC client used to drive a harnessed Server from
// outside the process.
//
// Grounded on horgh-catbox/internal's test Client, adapted to ircmsg and to
// carry CAP parameters for exercising capability negotiation.
type Client struct {
	nick       string
	serverHost string
	serverPort uint16
	caps       []string

	writeTimeout time.Duration
	readTimeout  time.Duration

	conn net.Conn
	rw   *bufio.ReadWriter

	recvChan chan ircmsg.Message
	sendChan chan ircmsg.Message
	errChan  chan error
	doneChan chan struct{}
	wg       sync.WaitGroup
}

// NewClient creates a Client that will request the given capabilities (may
// be empty) during registration.
func NewClient(nick, host string, port uint16, caps ...string) *Client {
	return &Client{
		nick:         nick,
		serverHost:   host,
		serverPort:   port,
		caps:         caps,
		writeTimeout: 10 * time.Second,
		readTimeout:  100 * time.Millisecond,
	}
}

// Start connects, sends CAP/NICK/USER, and begins the reader/writer
// goroutines. The caller must call Stop() once done.
func (c *Client) Start() (<-chan ircmsg.Message, chan<- ircmsg.Message, <-chan error, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.Dial("tcp", fmt.Sprintf("%s:%d", c.serverHost, c.serverPort))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error dialing: %s", err)
	}
	c.conn = conn
	c.rw = bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if len(c.caps) > 0 {
		if err := c.writeMessage(ircmsg.Message{Command: "CAP", Params: []string{"LS"}}); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
		if err := c.writeMessage(ircmsg.Message{
			Command: "CAP",
			Params:  []string{"REQ", strings.Join(c.caps, " ")},
		}); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
	}

	if err := c.writeMessage(ircmsg.Message{Command: "NICK", Params: []string{c.nick}}); err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}
	if err := c.writeMessage(ircmsg.Message{
		Command: "USER",
		Params:  []string{c.nick, "0", "*", c.nick},
	}); err != nil {
		_ = conn.Close()
		return nil, nil, nil, err
	}

	if len(c.caps) > 0 {
		if err := c.writeMessage(ircmsg.Message{Command: "CAP", Params: []string{"END"}}); err != nil {
			_ = conn.Close()
			return nil, nil, nil, err
		}
	}

	c.recvChan = make(chan ircmsg.Message, 512)
	c.sendChan = make(chan ircmsg.Message, 512)
	c.errChan = make(chan error, 512)
	c.doneChan = make(chan struct{})

	c.wg.Add(2)
	go c.reader()
	go c.writer()

	return c.recvChan, c.sendChan, c.errChan, nil
}

func (c *Client) reader() {
	defer c.wg.Done()
	defer close(c.recvChan)

	for {
		select {
		case <-c.doneChan:
			return
		default:
		}

		m, err := c.readMessage()
		if err != nil {
			if strings.Contains(err.Error(), "i/o timeout") {
				continue
			}
			c.errChan <- fmt.Errorf("error reading message: %s", err)
			return
		}

		if m.Command == "PING" {
			if err := c.writeMessage(ircmsg.Message{Command: "PONG", Params: m.Params}); err != nil {
				c.errChan <- fmt.Errorf("error sending PONG: %s", err)
				return
			}
		}

		c.recvChan <- m
	}
}

func (c *Client) writer() {
	defer c.wg.Done()

	for {
		select {
		case <-c.doneChan:
			return
		case m, ok := <-c.sendChan:
			if !ok {
				return
			}
			if err := c.writeMessage(m); err != nil {
				c.errChan <- fmt.Errorf("error writing message: %s", err)
				return
			}
		}
	}
}

func (c *Client) writeMessage(m ircmsg.Message) error {
	buf, err := m.Encode()
	if err != nil {
		return fmt.Errorf("unable to encode message: %s", err)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("unable to set deadline: %s", err)
	}

	if _, err := c.rw.WriteString(buf); err != nil {
		return err
	}
	if err := c.rw.Flush(); err != nil {
		return fmt.Errorf("flush error: %s", err)
	}

	log.Printf("client %s: sent: %s", c.nick, strings.TrimRight(buf, "\r\n"))
	return nil
}

func (c *Client) readMessage() (ircmsg.Message, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return ircmsg.Message{}, fmt.Errorf("unable to set deadline: %s", err)
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		return ircmsg.Message{}, err
	}

	log.Printf("client %s: read: %s", c.nick, strings.TrimRight(line, "\r\n"))

	m, err := ircmsg.ParseMessage(line)
	if err != nil {
		return ircmsg.Message{}, fmt.Errorf("unable to parse message: %q: %s", line, err)
	}

	return m, nil
}

// Stop shuts the client down and releases its connection. Do not send on
// the send channel after calling this.
func (c *Client) Stop() {
	close(c.doneChan)
	close(c.sendChan)
	_ = c.conn.Close()
	c.wg.Wait()
	close(c.errChan)

	for range c.recvChan {
	}
	for range c.errChan {
	}
}

// Nick returns the client's nickname.
func (c *Client) Nick() string { return c.nick }

func joinMessage(channel string) ircmsg.Message {
	return ircmsg.Message{Command: "JOIN", Params: []string{channel}}
}

func joinWithKeyMessage(channel, key string) ircmsg.Message {
	return ircmsg.Message{Command: "JOIN", Params: []string{channel, key}}
}

func partMessage(channel string) ircmsg.Message {
	return ircmsg.Message{Command: "PART", Params: []string{channel}}
}

func modeMessage(target string, args ...string) ircmsg.Message {
	return ircmsg.Message{Command: "MODE", Params: append([]string{target}, args...)}
}

func privmsgMessage(target, text string) ircmsg.Message {
	return ircmsg.Message{Command: "PRIVMSG", Params: []string{target, text}}
}

// WaitForMessage blocks until a message with the given command arrives on
// ch, or the timeout elapses, in which case it returns nil.
func WaitForMessage(ch <-chan ircmsg.Message, command string, timeout time.Duration) *ircmsg.Message {
	deadline := time.After(timeout)
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if m.Command == command {
				return &m
			}
		case <-deadline:
			return nil
		}
	}
}
