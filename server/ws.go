// WebSocket connection handling
//
// Copyright (c) 2021, 2022  Philip Kaludercic
// Copyright (c) 2021  Tom Wiesing
//
// This file is part of go-kgp.
//
// go-kgp is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-kgp is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-kgp. If not, see
// <http://www.gnu.org/licenses/>

package server

import (
	"net/http"
	"sync"

	"bughouse"
	"bughouse/match"
	"bughouse/protocol"

	"github.com/gorilla/websocket"
)

// wsUpgrader accepts connections from any origin; the teacher's own
// upgrader (web/ws.go) does the same, since a Kalah/bughouse lobby is
// meant to be embedded from arbitrary front-ends.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// lockedTransport serialises writes onto one *websocket.Conn: a
// Session's own Send and the server's broadcast loop may both write
// to the same socket from different goroutines, and gorilla's Conn
// only tolerates one writer at a time.
type lockedTransport struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (t *lockedTransport) WriteJSON(v interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.WriteJSON(v)
}

func (t *lockedTransport) Close() error { return t.conn.Close() }

// conn is the protocol.Handler for one socket's lifetime: it starts
// unbound (pid == "") and becomes bound to a Participant/actor/Session
// triple via Join, NewMatch, or the ?pid= reconnect query parameter.
// Grounded on web/ws.go's upgrader, generalised from a single
// proto.Client handed a io.ReadWriteCloser to a typed protocol.Handler
// driven by Dispatch.
type conn struct {
	srv *server

	ws        *websocket.Conn
	transport *lockedTransport

	pid     bughouse.ParticipantID
	matchID bughouse.MatchID
	actor   match.Actor
	sess    *protocol.Session
}

// upgrade accepts the WebSocket handshake and hands the connection to
// a fresh conn. A ?pid=<id> query parameter reattaches an existing
// Session instead of requiring a fresh Join (§4.6 hot reconnection);
// it plays the same role the teacher's upgrader gives *cmd.State, but
// as a URL parameter instead of a shared in-process pointer, since a
// reconnect here must name one identity among many live sessions
// rather than the single shared Kalah board.
func (s *server) upgrade(w http.ResponseWriter, r *http.Request) {
	wsConn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.conf.Debug.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &conn{srv: s, ws: wsConn, transport: &lockedTransport{conn: wsConn}}
	if pid := bughouse.ParticipantID(r.URL.Query().Get("pid")); pid != "" {
		s.reattach(c, pid)
	}
	c.run()
}

// reattach binds an existing Session to c, closing whichever Transport
// it was previously attached to (§4.6 "the older socket belonging to
// the same identity is closed"). A pid naming a Session the server no
// longer knows about (expired, or never existed) is silently ignored;
// the client falls back to sending Join.
func (s *server) reattach(c *conn, pid bughouse.ParticipantID) {
	s.mu.Lock()
	matchID, ok := s.matchOf[pid]
	s.mu.Unlock()
	if !ok {
		return
	}
	a, ok := s.coord.Actor(matchID)
	if !ok {
		return
	}
	sess, old := s.bind(pid, matchID, c.transport)
	if old != nil {
		old.Close()
	}
	c.pid, c.matchID, c.actor, c.sess = pid, matchID, a, sess
}

// run is the connection's read loop: it decodes one ClientEvent per
// frame, enforces the Session's ordering/dedup rule when bound, and
// dispatches to c's own Handler methods.
func (c *conn) run() {
	defer c.teardown()
	for {
		var ev protocol.ClientEvent
		if err := c.ws.ReadJSON(&ev); err != nil {
			return
		}
		if c.sess != nil && !c.sess.Accept(ev.ClientSeq) {
			continue
		}
		if err := protocol.Dispatch(c.pid, ev, c); err != nil {
			c.sendErr(err)
		}
	}
}

func (c *conn) teardown() {
	c.transport.Close()
	if c.pid != "" {
		c.srv.unbind(c.pid, c.matchID)
	}
}

// sendErr reports a protocol-level *bughouse.Error to the client. A
// connection not yet bound to a Session has no replay buffer to join,
// so the frame is written directly instead.
func (c *conn) sendErr(err error) {
	be, ok := err.(*bughouse.Error)
	if !ok {
		be = bughouse.InvalidCommandf("%v", err)
	}
	fill := func(ev *protocol.ServerEvent) {
		ev.Error = &protocol.ErrorPayload{Kind: be.Kind, Text: be.Error()}
	}
	if c.sess != nil {
		c.sess.Send(protocol.EvError, fill)
		return
	}
	ev := protocol.ServerEvent{Kind: protocol.EvError}
	fill(&ev)
	c.transport.WriteJSON(ev)
}

// sendMatchErr reports a match-package *match.Error, which carries no
// bughouse.ErrorKind of its own; every match.Reason is a
// RuleViolation from the wire's point of view (§7: "never propagates
// past the MatchCoordinator").
func (c *conn) sendMatchErr(err error) {
	c.sendErr(&bughouse.Error{Kind: bughouse.RuleViolation, Msg: err.Error()})
}
