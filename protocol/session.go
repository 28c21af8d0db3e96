// Per-socket sequencing, acknowledgement and hot-reconnect replay
//
// Copyright (c) 2021, 2022  Philip Kaludercic
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

package protocol

import (
	"sync"
	"time"

	"bughouse"
)

// Transport is the subset of *gorilla/websocket.Conn a Session needs;
// naming it after gorilla's own WriteJSON/Close methods lets the
// server package hand a live *websocket.Conn straight in without an
// adapter.
type Transport interface {
	WriteJSON(v interface{}) error
	Close() error
}

// bufferedEvent is one ServerEvent retained for hot-reconnect replay,
// timestamped so Session can evict entries past the configured
// window (§4.6 "retains up to a configured window, e.g. 5 minutes").
type bufferedEvent struct {
	event ServerEvent
	at    time.Time
}

// Session is the server-side state of one socket (§4.6). It outlives
// any one Transport: on HotReconnect a new Transport is swapped in
// and replay resumes from the client's last acknowledged server_seq.
// Grounded on the teacher's client struct (client.go): iolock becomes
// mu, the rid/last sequence counters become serverSeq/lastClientSeq,
// and the fixed req/resp channel pair becomes the replay buffer,
// since a Session has no long-lived in-flight request to correlate a
// response with, only an append-only log of what it has sent.
type Session struct {
	mu sync.Mutex

	id bughouse.ParticipantID

	transport Transport

	window time.Duration

	serverSeq           uint32
	lastClientSeqProcessed uint32
	clientSeqSeen       bool // whether any ClientEvent has been accepted yet
	outgoing            []bufferedEvent

	lastPong time.Time
}

// NewSession creates a Session bound to a ParticipantID; transport may
// be nil until the first socket attaches (e.g. the Session was
// resurrected from a prior hot reconnect that has not yet replayed).
func NewSession(id bughouse.ParticipantID, window time.Duration) *Session {
	return &Session{id: id, window: window, lastPong: time.Now()}
}

func (s *Session) ID() bughouse.ParticipantID { return s.id }

// Attach binds a live Transport, returning (and not closing) any
// previous one; the caller is responsible for closing a superseded
// Transport (§4.6 "the older socket ... is closed").
func (s *Session) Attach(t Transport) Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.transport
	s.transport = t
	return old
}

func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = nil
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// Touch records a Pong from the client.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPong = now
}

// Irresponsive reports whether more than `timeout` has passed since
// the last Pong (§5 "a session without a Pong reply in 20s is marked
// irresponsive"); the server does not act on this itself.
func (s *Session) Irresponsive(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastPong) > timeout
}

// Accept processes one incoming ClientEvent's sequence number,
// reporting whether it should be handled (true) or is a stale
// duplicate / out-of-order frame to drop (§4.6 "the server processes
// in strictly-increasing order and drops duplicates").
func (s *Session) Accept(seq uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientSeqSeen && seq <= s.lastClientSeqProcessed {
		return false
	}
	s.clientSeqSeen = true
	s.lastClientSeqProcessed = seq
	return true
}

// Send assigns the next server_seq, appends to the replay buffer, and
// writes the frame to the current Transport if one is attached. A nil
// Transport (the client is between sockets) only buffers; delivery
// happens on the next HotReconnect replay.
func (s *Session) Send(kind ServerEventKind, fill func(*ServerEvent)) error {
	s.mu.Lock()
	s.serverSeq++
	ev := ServerEvent{ServerSeq: s.serverSeq, AckSeq: s.lastClientSeqProcessed, Kind: kind}
	if fill != nil {
		fill(&ev)
	}
	now := time.Now()
	s.outgoing = append(s.outgoing, bufferedEvent{event: ev, at: now})
	s.evictOlderThan(now)
	t := s.transport
	s.mu.Unlock()

	if t == nil {
		return nil
	}
	return t.WriteJSON(ev)
}

// evictOlderThan drops buffered events past the reconnect window;
// must be called with mu held.
func (s *Session) evictOlderThan(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for ; i < len(s.outgoing); i++ {
		if s.outgoing[i].at.After(cutoff) {
			break
		}
	}
	if i > 0 {
		s.outgoing = s.outgoing[i:]
	}
}

// ErrReplayWindowExhausted is returned by Replay when lastServerSeq
// names an event older than anything still buffered; the caller must
// fall back to a StateSnapshot (§4.6 "If the window is exhausted, the
// server sends StateSnapshot instead").
var ErrReplayWindowExhausted = bughouse.InvalidCommandf("hot reconnect: replay window exhausted")

// Replay returns every buffered ServerEvent with ServerSeq greater
// than lastServerSeq, in order, for HotReconnect handling. It reports
// ErrReplayWindowExhausted if the oldest retained event is itself
// already past lastServerSeq, meaning some events in between were
// already evicted.
func (s *Session) Replay(lastServerSeq uint32) ([]ServerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.outgoing) > 0 && s.outgoing[0].event.ServerSeq > lastServerSeq+1 {
		return nil, ErrReplayWindowExhausted
	}

	var out []ServerEvent
	for _, be := range s.outgoing {
		if be.event.ServerSeq > lastServerSeq {
			out = append(out, be.event)
		}
	}
	return out, nil
}
