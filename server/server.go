// Top-level server: one TCP listener for WebSocket game traffic and
// HTTP auth/archive/export (spec.md §4.7, §6 "server listens on one
// TCP port... for both WebSocket (/ws) and HTTP (/dyn, /auth)").
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

// Package server implements the conf.Manager that binds the match
// package's Actors to live sockets: it is grounded on web/manage.go's
// web struct (the teacher's own HTTP Manager), generalised from a
// template-rendered Kalah lobby page to a JSON/WebSocket API, and on
// web/ws.go's upgrader, translated from nhooyr.io/websocket to
// gorilla/websocket so protocol.Transport needs no adapter.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"bughouse"
	"bughouse/conf"
	"bughouse/match"
	"bughouse/protocol"
)

// serverVersion is reported in every Welcome frame so a client can
// refuse to proceed against an incompatible build (§7 ProtocolMismatch).
const serverVersion = "bughouse-1"

// server is the conf.Manager driving the listener. Unlike the
// teacher's web struct, it also owns the session registry: the
// MatchCoordinator only ever sees ParticipantIDs, never sockets.
type server struct {
	conf  *conf.Conf
	coord *match.Coordinator
	db    conf.DatabaseManager // nil if no DatabaseManager was registered

	mux *http.ServeMux
	hs  *http.Server

	mu       sync.Mutex
	sessions map[bughouse.ParticipantID]*protocol.Session
	matchOf  map[bughouse.ParticipantID]bughouse.MatchID
	byMatch  map[bughouse.MatchID]map[bughouse.ParticipantID]struct{}

	pollMu   sync.Mutex
	lastSeen map[bughouse.MatchID]*watchState
	done     chan struct{}
}

// New builds the server Manager and registers it with c; db may be
// nil, in which case auth and archive endpoints report unavailable.
func New(c *conf.Conf, coord *match.Coordinator, db conf.DatabaseManager) {
	s := &server{
		conf:     c,
		coord:    coord,
		db:       db,
		sessions: make(map[bughouse.ParticipantID]*protocol.Session),
		matchOf:  make(map[bughouse.ParticipantID]bughouse.MatchID),
		byMatch:  make(map[bughouse.MatchID]map[bughouse.ParticipantID]struct{}),
		lastSeen: make(map[bughouse.MatchID]*watchState),
		done:     make(chan struct{}),
	}
	c.Register(s)
}

func (s *server) String() string { return "Match Server" }

func (s *server) Start() {
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/ws", s.upgrade)
	s.mux.HandleFunc("/auth/register", s.handleRegister)
	s.mux.HandleFunc("/auth/login", s.handleLogin)
	s.mux.HandleFunc("/dyn/games", s.handleListGames)
	s.mux.HandleFunc("/dyn/game/", s.handleLoadGame)

	go s.pollLoop()

	addr := fmt.Sprintf(":%d", s.conf.Port)
	s.conf.Debug.Printf("listening for WebSocket and HTTP traffic on %s", addr)
	s.hs = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  s.conf.ConnTimeout,
		WriteTimeout: s.conf.ConnTimeout,
	}
	if err := s.hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.conf.Log.Print(err)
	}
}

func (s *server) Shutdown() {
	close(s.done)
	if s.hs != nil {
		s.hs.Close()
	}
}

// bind records a freshly (re)attached socket's identity in every
// registry the server keeps, returning the Transport it displaced (if
// any) so the caller can close out a superseded socket belonging to
// the same identity (§4.6 "the older socket ... is closed").
func (s *server) bind(pid bughouse.ParticipantID, matchID bughouse.MatchID, t protocol.Transport) (*protocol.Session, protocol.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[pid]
	if !ok {
		sess = protocol.NewSession(pid, s.conf.ReconnectBuffer)
		s.sessions[pid] = sess
	}
	old := sess.Attach(t)

	s.matchOf[pid] = matchID
	if s.byMatch[matchID] == nil {
		s.byMatch[matchID] = make(map[bughouse.ParticipantID]struct{})
	}
	s.byMatch[matchID][pid] = struct{}{}
	return sess, old
}

// unbind removes pid from the match's live-session index; the
// underlying Session (and its replay buffer) is kept around so a
// HotReconnect still has something to replay against.
func (s *server) unbind(pid bughouse.ParticipantID, matchID bughouse.MatchID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.byMatch[matchID]; ok {
		delete(set, pid)
		if len(set) == 0 {
			delete(s.byMatch, matchID)
		}
	}
}

func (s *server) session(pid bughouse.ParticipantID) (*protocol.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[pid]
	return sess, ok
}

// broadcast sends one ServerEvent to every session currently attached
// to matchID; a session with no live Transport just buffers it for a
// future HotReconnect (§4.6).
func (s *server) broadcast(matchID bughouse.MatchID, kind protocol.ServerEventKind, fill func(*protocol.ServerEvent)) {
	s.mu.Lock()
	pids := make([]bughouse.ParticipantID, 0, len(s.byMatch[matchID]))
	for pid := range s.byMatch[matchID] {
		pids = append(pids, pid)
	}
	s.mu.Unlock()

	for _, pid := range pids {
		if sess, ok := s.session(pid); ok {
			sess.Send(kind, fill)
		}
	}
}

// watchState is the last poll's view of one match, used by pollLoop
// to notice state that changed off the back of a timer rather than a
// direct Handler call: a countdown completing into PhaseInGame, a
// clock flag-fall ending the game, a preturn reconciling the instant
// it becomes playable (§4.3 tickClock, §4.4, §4.5 countdown).
type watchState struct {
	viewJSON  []byte
	phase     bughouse.LobbyPhase
	historyN  int
	turnLogN  int
}

// pollLoop is the server-side analogue of the actor's own clock-tick
// timer: it notices state a Handler call did not directly cause
// (countdown expiry, clock flag-falls, preturn auto-reconciliation)
// and turns it into broadcasts, since the Actor interface has no
// separate change-notification channel of its own.
func (s *server) pollLoop() {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.pollOnce()
		}
	}
}

func (s *server) pollOnce() {
	s.mu.Lock()
	matchIDs := make([]bughouse.MatchID, 0, len(s.byMatch))
	for id := range s.byMatch {
		matchIDs = append(matchIDs, id)
	}
	s.mu.Unlock()

	now := time.Now()
	for _, id := range matchIDs {
		m, ok := s.coord.Lookup(id)
		if !ok {
			continue
		}
		s.pollMatch(id, m, now)
	}
}

func (s *server) pollMatch(id bughouse.MatchID, m *bughouse.Match, now time.Time) {
	view := protocol.NewMatchView(m, now)
	data, err := json.Marshal(view)
	if err != nil {
		return
	}

	s.pollMu.Lock()
	prev, seen := s.lastSeen[id]
	if !seen {
		prev = &watchState{}
		s.lastSeen[id] = prev
	}
	changed := !bytes.Equal(data, prev.viewJSON)
	phaseChanged := seen && prev.phase != m.Phase
	newGame := seen && len(m.History) > prev.historyN
	turnLogN := 0
	if m.Current != nil {
		turnLogN = m.Current.Log.Len()
	}
	oldTurnLogN := prev.turnLogN
	newTurns := seen && turnLogN > oldTurnLogN
	prev.viewJSON, prev.phase, prev.historyN, prev.turnLogN = data, m.Phase, len(m.History), turnLogN
	s.pollMu.Unlock()

	if !changed {
		return
	}

	switch {
	case newGame:
		outcome := m.History[len(m.History)-1]
		s.broadcast(id, protocol.EvGameOver, func(ev *protocol.ServerEvent) {
			ev.GameOver = &protocol.GameOverPayload{Outcome: outcome}
		})
	case phaseChanged && m.Phase == bughouse.PhaseInGame:
		s.broadcast(id, protocol.EvGameStarted, func(ev *protocol.ServerEvent) {
			ev.GameStarted = &protocol.MatchSnapshotPayload{Match: view}
		})
	case newTurns && m.Current != nil:
		for _, entry := range m.Current.Log.Entries()[oldTurnLogN:] {
			e := entry
			s.broadcast(id, protocol.EvTurnMade, func(ev *protocol.ServerEvent) {
				ev.TurnMade = &protocol.TurnMadePayload{
					Board:     e.Board,
					Turn:      e.Turn,
					TurnIndex: e.Index(),
					Clocks:    m.Current.Clock.SerializeSnapshot(now),
				}
			})
		}
	default:
		s.broadcast(id, protocol.EvMatchUpdated, func(ev *protocol.ServerEvent) {
			ev.MatchUpdated = &protocol.MatchSnapshotPayload{Match: view}
		})
	}

	if m.Phase == bughouse.PhaseCountdown && m.CountdownEndsAt != nil {
		secs := int((*m.CountdownEndsAt - now.UnixMilli()) / 1000)
		s.broadcast(id, protocol.EvLobbyCountdown, func(ev *protocol.ServerEvent) {
			ev.LobbyCountdown = &protocol.LobbyCountdownPayload{SecondsLeft: &secs}
		})
	}
}
