// protocol.Handler implementation: one ClientEvent method per kind
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

package server

import (
	"time"

	"bughouse"
	"bughouse/protocol"
)

// defaultDisplayName backs a NewMatch call, since NewMatchPayload
// carries only the rule set it wants, not a display name; the caller
// is expected to follow up with whatever name-setting event a richer
// client UI layers on top (none is named in §6, so none is built
// here).
const defaultDisplayName = "Player"

var _ protocol.Handler = (*conn)(nil)

// requireActor reports whether c is already bound to a live match,
// sending InvalidCommand and returning false otherwise.
func (c *conn) requireActor() bool {
	if c.actor != nil {
		return true
	}
	c.sendErr(bughouse.InvalidCommandf("not joined to a match"))
	return false
}

func (c *conn) bindNew(pid bughouse.ParticipantID, matchID bughouse.MatchID) {
	a, _ := c.srv.coord.Actor(matchID)
	sess, old := c.srv.bind(pid, matchID, c.transport)
	if old != nil {
		old.Close()
	}
	c.pid, c.matchID, c.actor, c.sess = pid, matchID, a, sess
}

// sendJoinSnapshot sends Welcome followed by a MatchJoined snapshot of
// c's current match; used by Join, NewMatch, and a HotReconnect whose
// replay window has been exhausted (§4.6 "falls back to a state
// snapshot").
func (c *conn) sendJoinSnapshot() {
	m := c.actor.Snapshot()
	view := protocol.NewMatchView(&m, time.Now())
	c.sess.Send(protocol.EvWelcome, func(ev *protocol.ServerEvent) {
		ev.Welcome = &protocol.WelcomePayload{ServerVersion: serverVersion, Identity: c.pid}
	})
	c.sess.Send(protocol.EvMatchJoined, func(ev *protocol.ServerEvent) {
		ev.MatchJoined = &protocol.MatchSnapshotPayload{Match: view}
	})
}

func (c *conn) broadcastUpdate() {
	if c.matchID == "" {
		return
	}
	m, ok := c.srv.coord.Lookup(c.matchID)
	if !ok {
		return
	}
	view := protocol.NewMatchView(m, time.Now())
	c.srv.broadcast(c.matchID, protocol.EvMatchUpdated, func(ev *protocol.ServerEvent) {
		ev.MatchUpdated = &protocol.MatchSnapshotPayload{Match: view}
	})
}

// Join binds this socket to an existing match by its six-letter code.
func (c *conn) Join(_ bughouse.ParticipantID, p protocol.JoinPayload) {
	if c.actor != nil {
		c.sendErr(bughouse.InvalidCommandf("already joined match %s", c.matchID))
		return
	}
	a, ok := c.srv.coord.Actor(p.MatchID)
	if !ok {
		c.sendErr(bughouse.InvalidCommandf("no such match %q", p.MatchID))
		return
	}
	pid := a.Join(p.Name, "")
	c.bindNew(pid, p.MatchID)
	c.sendJoinSnapshot()
}

// NewMatch allocates a fresh match under the requested Rules and
// joins the caller to it in the same step, mirroring how the
// coordinator's CreateMatch+Join are always used together in practice
// (§4.5, §6 NewMatch).
func (c *conn) NewMatch(_ bughouse.ParticipantID, p protocol.NewMatchPayload) {
	if c.actor != nil {
		c.sendErr(bughouse.InvalidCommandf("already joined match %s", c.matchID))
		return
	}
	matchID := c.srv.coord.CreateMatch(p.Rules)
	a, ok := c.srv.coord.Actor(matchID)
	if !ok {
		c.sendErr(bughouse.Fatalf("newly created match %q vanished", matchID))
		return
	}
	pid := a.Join(defaultDisplayName, "")
	c.bindNew(pid, matchID)
	c.sendJoinSnapshot()
}

func (c *conn) Leave(bughouse.ParticipantID) {
	if !c.requireActor() {
		return
	}
	c.actor.Leave(c.pid)
	c.srv.unbind(c.pid, c.matchID)
	c.broadcastUpdate()
	c.pid, c.matchID, c.actor, c.sess = "", "", nil, nil
}

func (c *conn) SetFaction(_ bughouse.ParticipantID, p protocol.SetFactionPayload) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.SetFaction(c.pid, bughouse.Faction{Kind: p.Kind, Team: p.Team}); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

// ToggleReady flips the caller's own readiness; the wire event itself
// carries no bool (§6 ToggleReady), so the current state is read back
// off the live Match first.
func (c *conn) ToggleReady(bughouse.ParticipantID) {
	if !c.requireActor() {
		return
	}
	m := c.actor.Snapshot()
	p, ok := m.Participants[c.pid]
	if !ok {
		return
	}
	if err := c.actor.SetReady(c.pid, !p.Ready); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

func (c *conn) MakeTurn(_ bughouse.ParticipantID, p protocol.MakeTurnPayload) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.ApplyTurn(c.pid, p.Board, p.Turn); err != nil {
		c.sendMatchErr(err)
		return
	}
	// pollLoop picks up the resulting TurnMade/GameOver broadcast; no
	// direct broadcast here avoids sending MatchUpdated twice for the
	// same half move (§5's "single authoritative broadcast").
}

func (c *conn) CancelPreturn(_ bughouse.ParticipantID, p protocol.CancelPreturnPayload) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.CancelPreturn(c.pid, p.Board); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

func (c *conn) Resign(_ bughouse.ParticipantID, p protocol.ResignPayload) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.Resign(c.pid, p.Board); err != nil {
		c.sendMatchErr(err)
		return
	}
}

func (c *conn) ChangeFactionInGame(_ bughouse.ParticipantID, p protocol.SetFactionPayload) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.ChangeFactionInGame(c.pid, bughouse.Faction{Kind: p.Kind, Team: p.Team}); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

func (c *conn) ToggleSharedWayback(bughouse.ParticipantID) {
	if !c.requireActor() {
		return
	}
	if err := c.actor.ToggleSharedWayback(c.pid); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

func (c *conn) WaybackTo(_ bughouse.ParticipantID, p protocol.WaybackToPayload) {
	if !c.requireActor() {
		return
	}
	idx := p.TurnIndex
	if err := c.actor.WaybackTo(c.pid, &idx); err != nil {
		c.sendMatchErr(err)
		return
	}
	c.broadcastUpdate()
}

// SendChat fans a chat line out to every session in the caller's
// match; chat carries no match-state of its own, so it bypasses Actor
// entirely (§6 SendChat).
func (c *conn) SendChat(_ bughouse.ParticipantID, p protocol.SendChatPayload) {
	if c.matchID == "" {
		return
	}
	c.srv.broadcast(c.matchID, protocol.EvChatMessage, func(ev *protocol.ServerEvent) {
		ev.ChatMessage = &protocol.ChatMessagePayload{From: c.pid, Text: p.Text}
	})
}

// Ping replies with Pong carrying the same sequence number, the
// liveness check a Session's Irresponsive later reads (§5).
func (c *conn) Ping(_ bughouse.ParticipantID, p protocol.PingPayload) {
	now := time.Now()
	if c.sess != nil {
		c.sess.Touch(now)
		c.sess.Send(protocol.EvPong, func(ev *protocol.ServerEvent) {
			ev.Pong = &protocol.PongPayload{Seq: p.Seq}
		})
		return
	}
	c.transport.WriteJSON(protocol.ServerEvent{Kind: protocol.EvPong, Pong: &protocol.PongPayload{Seq: p.Seq}})
}

// HotReconnect replays every buffered ServerEvent newer than
// p.LastServerSeq. The identity binding itself already happened in
// reattach (via the socket's ?pid= query parameter) by the time this
// frame arrives; this call only resumes delivery (§4.6).
func (c *conn) HotReconnect(_ bughouse.ParticipantID, p protocol.HotReconnectPayload) {
	if !c.requireActor() {
		return
	}
	events, err := c.sess.Replay(p.LastServerSeq)
	if err != nil {
		c.sendJoinSnapshot()
		return
	}
	for _, ev := range events {
		c.transport.WriteJSON(ev)
	}
}

// RequestExport sends back the BPGN of the most recently concluded
// game in the caller's match (§6 "game export (BPGN)").
func (c *conn) RequestExport(bughouse.ParticipantID) {
	if !c.requireActor() {
		return
	}
	m := c.actor.Snapshot()
	if len(m.History) == 0 {
		c.sendErr(bughouse.Ignorablef("no concluded game to export yet"))
		return
	}
	bpgn := m.History[len(m.History)-1].BPGN
	c.sess.Send(protocol.EvExportReady, func(ev *protocol.ServerEvent) {
		ev.ExportReady = &protocol.ExportReadyPayload{Content: bpgn}
	})
}

// ReportError logs a client-observed error for diagnostics; the
// server does nothing with it beyond recording it (§6 ReportError).
func (c *conn) ReportError(_ bughouse.ParticipantID, p protocol.ReportErrorPayload) {
	bughouse.Debug.Printf("client %s reported %s: %s", c.pid, p.Kind, p.Text)
}
