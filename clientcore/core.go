// ClientCore: UI-shell mirror state (spec.md §4.8)
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

// Package clientcore implements the ClientCore mirror state a UI shell
// drives (spec.md §4.8): local copies of BughouseGame/Clock/Match
// lobby info, an optimistic-turn buffer reconciled against TurnMade
// events, a per-board drag-state enum, and a notable-event queue.
//
// It is grounded on protocol/session.go's sequencing discipline
// (strictly-increasing counters, idempotent re-application) and
// reuses the rules engine's own Board.TryApply directly rather than
// re-deriving turn legality client-side, matching spec.md §1's "shared
// turn-validation ... model that both client and server execute."
package clientcore

import (
	"sync"
	"time"

	"bughouse"
	"bughouse/protocol"
)

// DragState is the lifecycle of one in-progress piece drag (spec.md
// §4.8, §8 scenario 3 "Defunct").
type DragState int

const (
	DragNone DragState = iota
	DragActive
	DragDefunct
)

func (d DragState) String() string {
	switch d {
	case DragActive:
		return "Active"
	case DragDefunct:
		return "Defunct"
	default:
		return "None"
	}
}

// NotableEventKind tags one entry of the notable-event queue the UI
// shell drains (sounds, dialogs, archive-loaded, etc.).
type NotableEventKind string

const (
	NotableSound      NotableEventKind = "Sound"
	NotableDialog     NotableEventKind = "Dialog"
	NotableArchive    NotableEventKind = "ArchiveLoaded"
	NotableKicked     NotableEventKind = "Kicked"
	NotableGameOver   NotableEventKind = "GameOver"
	NotableReconciled NotableEventKind = "PreturnReconciled"
)

type NotableEvent struct {
	Kind NotableEventKind
	Text string
}

// optimisticTurn is one MakeTurn/preturn submitted locally and not yet
// confirmed by a matching TurnMade. preBoard is a clone of the board
// immediately before an optimistic apply, kept only long enough to
// revert on divergence (spec.md §4.8 "on divergence, the optimistic
// turn is reverted").
type optimisticTurn struct {
	clientSeq uint32
	board     bughouse.BoardID
	turn      bughouse.Turn
	applied   bool
	preBoard  *bughouse.Board
}

// Core is one client's mirror of a single match. It is not safe to
// share a Core between matches; a UI shell owning several subscriptions
// (e.g. spectating while playing) runs one Core per match.
type Core struct {
	mu sync.Mutex

	identity bughouse.ParticipantID

	nextClientSeq uint32
	lastApplied   uint32 // highest ServerSeq already applied; Apply is a no-op at or below it
	lastPongAt    time.Time

	match *protocol.MatchView

	optimistic []optimisticTurn
	drag       map[bughouse.BoardID]DragState

	notable []NotableEvent

	clocks map[bughouse.PlayerSlot]*clockMirror
}

// NewCore creates an empty Core for the given identity; it has no
// match mirror until the first MatchJoined/MatchUpdated/GameStarted
// event arrives.
func NewCore(identity bughouse.ParticipantID) *Core {
	return &Core{
		identity: identity,
		drag:     make(map[bughouse.BoardID]DragState),
		clocks:   make(map[bughouse.PlayerSlot]*clockMirror),
	}
}

func (c *Core) Identity() bughouse.ParticipantID { return c.identity }

// Snapshot returns a copy of the current match mirror, or the zero
// value with ok=false if none has arrived yet.
func (c *Core) Snapshot() (protocol.MatchView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.match == nil {
		return protocol.MatchView{}, false
	}
	return *c.match, true
}

// DrainNotable removes and returns every queued NotableEvent, in order
// of arrival, for the UI shell to act on (play a sound, open a dialog).
func (c *Core) DrainNotable() []NotableEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notable
	c.notable = nil
	return out
}

func (c *Core) enqueueNotable(kind NotableEventKind, text string) {
	c.notable = append(c.notable, NotableEvent{Kind: kind, Text: text})
}

// Drag reports the current drag state for a board (DragNone if never
// set).
func (c *Core) Drag(board bughouse.BoardID) DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drag[board]
}

// StartDrag marks a board's drag as in progress.
func (c *Core) StartDrag(board bughouse.BoardID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drag[board] = DragActive
}

// EndDrag clears a board's drag state, used once the drag resolves
// into a submitted turn or is cancelled by the UI.
func (c *Core) EndDrag(board bughouse.BoardID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drag[board] = DragNone
}

// Defunct marks an in-progress drag as defunct without forcing a
// server-side drop (spec.md §8 scenario 3: a flag fall mid-drag).
func (c *Core) Defunct(board bughouse.BoardID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drag[board] == DragActive {
		c.drag[board] = DragDefunct
	}
}

// SubmitTurn assigns the next client_seq, optimistically applies the
// turn to the local mirror board when it is currently legal there (an
// own-turn move rendered ahead of server confirmation), and always
// buffers it for reconciliation against the matching TurnMade —
// covering both the own-turn case and a true preturn, which the local
// board cannot yet legally accept and so is buffered unapplied until
// confirmed (spec.md §4.4, §4.8, §8 scenario 2).
func (c *Core) SubmitTurn(board bughouse.BoardID, t bughouse.Turn) protocol.ClientEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextClientSeq++
	seq := c.nextClientSeq

	ot := optimisticTurn{clientSeq: seq, board: board, turn: t}
	if c.match != nil && c.match.Game != nil {
		if b, ok := c.match.Game.Boards[board]; ok {
			if nb, err := b.TryApply(t, c.match.Game.Rules); err == nil {
				ot.preBoard = b.Clone()
				ot.applied = true
				c.match.Game.Boards[board] = nb
			}
		}
	}
	c.optimistic = append(c.optimistic, ot)
	c.drag[board] = DragNone

	return protocol.ClientEvent{
		ClientSeq: seq,
		Kind:      protocol.EvMakeTurn,
		MakeTurn:  &protocol.MakeTurnPayload{Board: board, Turn: t},
	}
}

// CancelPreturn drops a buffered, not-yet-applied optimistic turn for
// a board (the UI's own cancel action; the matching ClientEvent is
// still sent to the server so it forgets the queued preturn too).
func (c *Core) CancelPreturn(board bughouse.BoardID) protocol.ClientEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.optimistic[:0]
	for _, ot := range c.optimistic {
		if ot.board == board && !ot.applied {
			continue
		}
		kept = append(kept, ot)
	}
	c.optimistic = kept

	c.nextClientSeq++
	return protocol.ClientEvent{
		ClientSeq:     c.nextClientSeq,
		Kind:          protocol.EvCancelPreturn,
		CancelPreturn: &protocol.CancelPreturnPayload{Board: board},
	}
}

func (c *Core) dropOptimisticFor(board bughouse.BoardID) {
	kept := c.optimistic[:0]
	for _, ot := range c.optimistic {
		if ot.board == board {
			continue
		}
		kept = append(kept, ot)
	}
	c.optimistic = kept
}
