package main

import (
	"crypto/tls"
	"log"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Link is a connection to a peer server: every locally processed message
// is mirrored to it verbatim once handled, matching
// original_source/ircd/irc.py's process() loop over self.links.
type Link struct {
	Name   string
	Client *Client
}

// Server owns the listeners and background goroutines around a Core; Core
// itself holds the protocol state, so Server is concerned only with
// accepting connections and scheduling PINGs.
//
// Grounded on horgh-catbox/ircd.go's start/acceptConnections/alarm/
// checkAndPingClients, adapted from the single big select-loop to the
// Core.run goroutine plus one ticker goroutine here.
type Server struct {
	Core *Core

	listeners []net.Listener
}

// NewServer creates a Server around a freshly built Core.
func NewServer(core *Core) *Server {
	return &Server{Core: core}
}

// Start opens every configured listener, dials the configured peer link
// (if any), and starts the core's processing loop and ping scheduler. It
// returns once listeners are up; it does not block.
func (s *Server) Start() error {
	for _, lc := range s.Core.Config.Listeners {
		ln, err := s.listen(lc)
		if err != nil {
			return errors.Wrapf(err, "unable to listen on %s", lc.Address)
		}
		s.listeners = append(s.listeners, ln)

		s.Core.WG.Add(1)
		go s.acceptLoop(ln)
	}

	if s.Core.Config.WebSocket.Enabled {
		if err := s.startWebSocket(); err != nil {
			return errors.Wrap(err, "unable to start websocket listener")
		}
	}

	s.Core.WG.Add(1)
	go func() {
		defer s.Core.WG.Done()
		s.Core.run()
	}()

	s.Core.WG.Add(1)
	go s.pingLoop()

	if s.Core.Config.Link != nil {
		go s.dialLink(*s.Core.Config.Link)
	}

	return nil
}

func (s *Server) listen(lc ListenerConfig) (net.Listener, error) {
	if lc.TLSCert == "" {
		return net.Listen("tcp", lc.Address)
	}

	cert, err := tls.LoadX509KeyPair(lc.TLSCert, lc.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load TLS keypair")
	}
	return tls.Listen("tcp", lc.Address, &tls.Config{Certificates: []tls.Certificate{cert}})
}

// acceptLoop accepts connections on one listener, spinning up a Client and
// its reader/writer goroutines for each.
//
// Grounded on horgh-catbox/ircd.go's acceptConnections.
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.Core.WG.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.Core.isShuttingDown() {
				return
			}
			log.Printf("failed to accept connection: %s", err)
			continue
		}

		id := s.Core.newClientID()
		client := NewClient(s.Core, id, conn)

		s.Core.WG.Add(2)
		go client.readLoop()
		go client.writeLoop()

		s.Core.newEvent(Event{Type: EventNewClient, Client: client})
	}
}

// dialLink connects out to a configured peer and registers it as a Link.
// Only a single outbound link is supported; see the design note on this
// simplification relative to a full CONNECT operator command.
//
// The link is registered by handing an event to core.run rather than
// touching s.Core.Links here, keeping every registry mutation on the
// core's single consumer goroutine.
func (s *Server) dialLink(lc LinkConfig) {
	conn, err := net.Dial("tcp", lc.Address)
	if err != nil {
		log.Printf("link %s: unable to connect: %s", lc.Name, err)
		return
	}

	id := s.Core.newClientID()
	client := NewClient(s.Core, id, conn)

	s.Core.WG.Add(2)
	go client.readLoop()
	go client.writeLoop()

	s.Core.newEvent(Event{Type: EventNewLink, Client: client, LinkName: lc.Name})

	log.Printf("link %s: connected", lc.Name)
}

// pingLoop wakes periodically and asks the core to ping idle registered
// clients and drop unresponsive ones. It only ever enqueues an event; the
// actual registry walk (Core.pingSweep) runs on core.run's goroutine so it
// never races dispatch over client/nickname/link state.
//
// Grounded on horgh-catbox/ircd.go's alarm + checkAndPingClients, merged
// into a single ticker goroutine since we don't need the handshake the
// source used to support clean shutdown acknowledgement (we use
// ShutdownChan for that instead).
func (s *Server) pingLoop() {
	defer s.Core.WG.Done()

	ticker := time.NewTicker(s.Core.Config.WakeupTime)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Core.newEvent(Event{Type: EventPingSweep})
		case <-s.Core.ShutdownChan:
			return
		}
	}
}

// Shutdown tells every goroutine to stop and waits for them to finish.
func (s *Server) Shutdown() {
	s.Core.shutdown()
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
	s.Core.WG.Wait()
}
