// Applying ServerEvents to the mirror (spec.md §4.8, §8 idempotence)
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

package clientcore

import (
	"fmt"
	"time"

	"bughouse"
	"bughouse/protocol"
)

// Apply processes one ServerEvent, updating the mirror and enqueueing
// any resulting NotableEvent. It is idempotent for events whose
// ServerSeq has already been observed (spec.md §8 "apply(ServerEvent)
// on a ClientCore is idempotent"), since HotReconnect replay and the
// at-least-once socket may hand the same frame back twice.
func (c *Core) Apply(ev protocol.ServerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ev.ServerSeq != 0 {
		if ev.ServerSeq <= c.lastApplied {
			return
		}
		c.lastApplied = ev.ServerSeq
	}

	switch ev.Kind {
	case protocol.EvWelcome:
		if ev.Welcome != nil {
			c.identity = ev.Welcome.Identity
		}
	case protocol.EvMatchJoined, protocol.EvMatchUpdated, protocol.EvGameStarted, protocol.EvArchiveGameLoaded:
		c.applySnapshot(ev)
	case protocol.EvTurnMade:
		if ev.TurnMade != nil {
			c.applyTurnMade(ev.TurnMade)
		}
	case protocol.EvGameOver:
		if ev.GameOver != nil {
			c.applyGameOver(ev.GameOver)
		}
	case protocol.EvChatMessage:
		if ev.ChatMessage != nil {
			c.enqueueNotable(NotableSound, fmt.Sprintf("%s: %s", ev.ChatMessage.From, ev.ChatMessage.Text))
		}
	case protocol.EvKickedFromMatch:
		c.match = nil
		c.optimistic = nil
		if ev.KickedFromMatch != nil {
			c.enqueueNotable(NotableKicked, ev.KickedFromMatch.Reason)
		}
	case protocol.EvError:
		if ev.Error != nil {
			c.enqueueNotable(NotableDialog, ev.Error.Text)
		}
	case protocol.EvExportReady:
		if ev.ExportReady != nil {
			c.enqueueNotable(NotableArchive, ev.ExportReady.Content)
		}
	case protocol.EvLobbyCountdown:
		if c.match != nil && ev.LobbyCountdown != nil {
			c.applyCountdown(ev.LobbyCountdown)
		}
	case protocol.EvPong:
		c.lastPongAt = time.Now()
	}
}

func (c *Core) applyCountdown(p *protocol.LobbyCountdownPayload) {
	if p.SecondsLeft == nil {
		c.match.CountdownEndsAt = nil
		return
	}
	endsAt := time.Now().Add(time.Duration(*p.SecondsLeft) * time.Second).UnixMilli()
	c.match.CountdownEndsAt = &endsAt
}

// snapshotPayload extracts the *protocol.MatchSnapshotPayload riding
// whichever field Kind selects.
func snapshotPayload(ev protocol.ServerEvent) *protocol.MatchSnapshotPayload {
	switch ev.Kind {
	case protocol.EvMatchJoined:
		return ev.MatchJoined
	case protocol.EvMatchUpdated:
		return ev.MatchUpdated
	case protocol.EvGameStarted:
		return ev.GameStarted
	case protocol.EvArchiveGameLoaded:
		return ev.ArchiveGameLoaded
	default:
		return nil
	}
}

// applySnapshot replaces the mirror wholesale with a freshly received
// MatchView, the same "resend the whole state" policy the teacher's
// own state command uses rather than a computed diff. Any optimistic
// turn not yet confirmed is dropped: a full snapshot is authoritative
// by construction and supersedes local speculation outright.
func (c *Core) applySnapshot(ev protocol.ServerEvent) {
	p := snapshotPayload(ev)
	if p == nil {
		return
	}
	view := p.Match
	c.match = &view
	c.optimistic = nil
	c.resyncClocks(time.Now())
	if ev.Kind == protocol.EvArchiveGameLoaded {
		c.enqueueNotable(NotableArchive, string(view.ID))
	}
}

// applyTurnMade reconciles the optimistic buffer's head against an
// incoming authoritative turn, then applies it to the mirror board
// (spec.md §4.8, §8 scenario 2).
func (c *Core) applyTurnMade(p *protocol.TurnMadePayload) {
	if c.match == nil || c.match.Game == nil {
		return
	}
	g := c.match.Game

	alreadyApplied := false
	if len(c.optimistic) > 0 {
		head := c.optimistic[0]
		switch {
		case head.board == p.Board && head.turn == p.Turn:
			c.optimistic = c.optimistic[1:]
			alreadyApplied = head.applied
		case head.board == p.Board:
			if head.preBoard != nil {
				g.Boards[p.Board] = head.preBoard
			}
			c.dropOptimisticFor(p.Board)
			c.enqueueNotable(NotableReconciled, fmt.Sprintf("preturn on %s reconciled", p.Board))
		}
	}

	if !alreadyApplied {
		if b, ok := g.Boards[p.Board]; ok {
			if nb, err := b.TryApply(p.Turn, g.Rules); err == nil {
				g.Boards[p.Board] = nb
			}
		}
	}
	g.TurnLog = append(g.TurnLog, bughouse.TurnLogEntry{
		Seq:   len(g.TurnLog),
		Board: p.Board,
		Turn:  p.Turn,
		At:    time.Now(),
	})

	c.applyClockSnapshots(p.Clocks, time.Now())
}

// applyGameOver records the outcome in history, stops every clock
// mirror, and discards whatever optimism the now-concluded game left
// outstanding.
func (c *Core) applyGameOver(p *protocol.GameOverPayload) {
	if c.match != nil {
		c.match.History = append(c.match.History, p.Outcome)
		if c.match.Game != nil {
			c.match.Game.Status = p.Outcome.Status
			c.match.Game.EndedAt = time.Now()
		}
	}
	c.optimistic = nil
	for b, s := range c.drag {
		if s == DragActive {
			c.drag[b] = DragDefunct
		}
	}
	for _, cm := range c.clocks {
		cm.running = false
	}
	c.enqueueNotable(NotableGameOver, p.Outcome.Status.String())
}
