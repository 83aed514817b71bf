package main

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/horgh/ircd/internal/ircmsg"
)

// connection is what Client needs from a transport: line-oriented reads
// with an idle deadline, message-oriented writes, and enough address info
// to report a hostname. Both Conn (raw TCP/TLS) and the WebSocket bridge's
// wsConn implement it, so Client itself never needs to know which
// transport carried a given connection.
type connection interface {
	Read() (string, error)
	WriteMessage(m ircmsg.Message) error
	Close() error
	RemoteAddr() net.Addr
	RemoteIP() net.IP
}

// Conn is a connection to a client or linked peer, wrapping the raw TCP (or
// TLS) socket with line-buffered reads/writes and an idle deadline.
//
// Grounded on horgh-catbox/net.go, unchanged apart from swapping the wire
// codec for internal/ircmsg.
type Conn struct {
	conn net.Conn

	rw *bufio.ReadWriter

	ioWait time.Duration

	IP net.IP
}

// NewConn initializes a Conn.
func NewConn(conn net.Conn, ioWait time.Duration) Conn {
	tcpAddr, err := net.ResolveTCPAddr("tcp", conn.RemoteAddr().String())
	if err != nil {
		log.Fatalf("unable to resolve TCP address: %s", err)
	}

	return Conn{
		conn:   conn,
		rw:     bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		ioWait: ioWait,
		IP:     tcpAddr.IP,
	}
}

// Close closes the underlying connection.
func (c Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// RemoteIP returns the remote host's IP address.
func (c Conn) RemoteIP() net.IP {
	return c.IP
}

// Read reads a line from the connection, resetting the idle deadline first.
func (c Conn) Read() (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.ioWait)); err != nil {
		return "", fmt.Errorf("unable to set deadline: %s", err)
	}

	line, err := c.rw.ReadString('\n')
	if err != nil {
		return "", err
	}

	log.Printf("read: %s", strings.TrimRight(line, "\r\n"))

	return line, nil
}

// Write writes a raw line to the connection.
func (c Conn) Write(s string) error {
	if err := c.conn.SetDeadline(time.Now().Add(c.ioWait)); err != nil {
		return fmt.Errorf("unable to set deadline: %s", err)
	}

	sz, err := c.rw.WriteString(s)
	if err != nil {
		return err
	}
	if sz != len(s) {
		return fmt.Errorf("short write")
	}

	if err := c.rw.Flush(); err != nil {
		return fmt.Errorf("flush error: %s", err)
	}

	log.Printf("sent: %s", strings.TrimRight(s, "\r\n"))

	return nil
}

// WriteMessage encodes and writes a single IRC message.
func (c Conn) WriteMessage(m ircmsg.Message) error {
	buf, err := m.Encode()
	if err != nil {
		return fmt.Errorf("unable to encode message: %s", err)
	}

	return c.Write(buf)
}
