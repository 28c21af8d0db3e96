// Per-board, per-side clocks
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

package bughouse

import "time"

// ClockSlot is the remaining time for one (BoardID, Side) pair. The
// server is the sole authority over Remaining; clients only
// interpolate between snapshots for display (§4.3, §9 Design Notes).
type ClockSlot struct {
	Remaining time.Duration
	running   bool
	lastTick  time.Time
}

// Clock tracks all four slots of one BughouseGame and flags the
// matching board the instant a flag falls.
type Clock struct {
	slots map[PlayerSlot]*ClockSlot
	rules Rules
}

// NewClock starts all four slots at Rules.InitialTime, with the side
// to move on each board running and its opponent's paused, matching a
// fresh game where both boards begin with White to move.
func NewClock(rules Rules, startedAt time.Time) *Clock {
	c := &Clock{slots: make(map[PlayerSlot]*ClockSlot), rules: rules}
	for _, board := range []BoardID{BoardA, BoardB} {
		for _, side := range []Side{White, Black} {
			c.slots[PlayerSlot{Board: board, Side: side}] = &ClockSlot{
				Remaining: rules.InitialTime,
				running:   side == White,
				lastTick:  startedAt,
			}
		}
	}
	return c
}

// Tick advances every running slot to `now` and reports every slot
// whose remaining time has fallen to zero or below, in the
// deterministic order (BoardA before BoardB, White before Black)
// BughouseGame.Flag uses to tie-break a simultaneous flag fall on
// both boards (§4.2, §4.3).
func (c *Clock) Tick(now time.Time) []PlayerSlot {
	var flagged []PlayerSlot
	for _, board := range []BoardID{BoardA, BoardB} {
		for _, side := range []Side{White, Black} {
			slot := PlayerSlot{Board: board, Side: side}
			s := c.slots[slot]
			if !s.running {
				continue
			}
			elapsed := now.Sub(s.lastTick)
			s.lastTick = now
			s.Remaining -= elapsed
			if s.Remaining <= 0 {
				flagged = append(flagged, slot)
			}
		}
	}
	return flagged
}

// OnTurnMade stops the mover's slot (crediting any increment and the
// bonus-on-opponent-move rule), and starts the opponent's. Under Duck
// chess, the caller must only invoke this once the duck has landed,
// since the clock does not change hands mid half-move (§4.1 Duck
// chess, §4.3).
func (c *Clock) OnTurnMade(board BoardID, mover Side, now time.Time) {
	moverSlot := c.slots[PlayerSlot{Board: board, Side: mover}]
	oppSlot := c.slots[PlayerSlot{Board: board, Side: mover.Other()}]

	if moverSlot.running {
		moverSlot.Remaining -= now.Sub(moverSlot.lastTick)
	}
	moverSlot.lastTick = now
	moverSlot.running = false
	moverSlot.Remaining += c.rules.Increment

	if !oppSlot.running {
		oppSlot.Remaining += c.rules.BonusOnOpponentMove
	}
	oppSlot.lastTick = now
	oppSlot.running = true
}

// Stop halts both slots on a board, used once a board's game has
// ended so its clocks no longer run down.
func (c *Clock) Stop(board BoardID, now time.Time) {
	for _, side := range []Side{White, Black} {
		s := c.slots[PlayerSlot{Board: board, Side: side}]
		if s.running {
			s.Remaining -= now.Sub(s.lastTick)
			s.running = false
		}
		s.lastTick = now
	}
}

func (c *Clock) Remaining(slot PlayerSlot, now time.Time) time.Duration {
	s := c.slots[slot]
	r := s.Remaining
	if s.running {
		r -= now.Sub(s.lastTick)
	}
	return r
}

// ClockSnapshot is the wire-serialisable form of a Clock at an
// instant, one entry per (BoardID, Side) slot (§6 ServerEvent.Clock).
type ClockSnapshot struct {
	Board        BoardID `json:"board"`
	Side         Side    `json:"side"`
	RemainingMs  int64   `json:"remainingMs"`
	Running      bool    `json:"running"`
}

// SerializeSnapshot renders every slot as of `now`, ordered
// deterministically (BoardA before BoardB, White before Black) so
// wire output is stable for tests and for diffing reconnect replays.
func (c *Clock) SerializeSnapshot(now time.Time) []ClockSnapshot {
	var out []ClockSnapshot
	for _, board := range []BoardID{BoardA, BoardB} {
		for _, side := range []Side{White, Black} {
			slot := PlayerSlot{Board: board, Side: side}
			s := c.slots[slot]
			out = append(out, ClockSnapshot{
				Board:       board,
				Side:        side,
				RemainingMs: c.Remaining(slot, now).Milliseconds(),
				Running:     s.running,
			})
		}
	}
	return out
}
