// Clock interpolation (spec.md §4.8, §9 Design Notes "Clock truth")
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
	"time"

	"bughouse"
)

// clockMirror is the client-side equivalent of one bughouse.ClockSlot:
// the last value the server reported for one (board, side) pair, plus
// the local instant it was received, so Remaining can be extrapolated
// between snapshots the way bughouse.Clock.Remaining extrapolates
// between ticks server-side — the same decay model, just fed by
// received snapshots instead of a live Clock.
type clockMirror struct {
	remainingAtSnapshot time.Duration
	receivedAt          time.Time
	running             bool

	// lastReported guards against a stale or out-of-order snapshot
	// momentarily increasing the displayed value (spec.md §4.8 "only
	// monotonic decrease of remaining is permitted between server
	// snapshots to avoid flicker").
	lastReported time.Duration
}

// resyncClocks rebuilds every clock mirror from a full MatchView's
// Game.Clocks, used after a wholesale snapshot (MatchJoined,
// MatchUpdated, GameStarted, ArchiveGameLoaded) where every slot is
// authoritative at once.
func (c *Core) resyncClocks(now time.Time) {
	if c.match == nil || c.match.Game == nil {
		return
	}
	c.applyClockSnapshots(c.match.Game.Clocks, now)
}

// applyClockSnapshots updates the mirror from a partial or full set of
// ClockSnapshot values (TurnMade carries all four; a snapshot carries
// whatever Game.Clocks held at marshal time, also all four in
// practice, but the loop makes no assumption either way).
func (c *Core) applyClockSnapshots(snaps []bughouse.ClockSnapshot, now time.Time) {
	for _, snap := range snaps {
		remaining := time.Duration(snap.RemainingMs) * time.Millisecond
		slot := bughouse.PlayerSlot{Board: snap.Board, Side: snap.Side}
		cm, ok := c.clocks[slot]
		if !ok {
			cm = &clockMirror{lastReported: remaining}
			c.clocks[slot] = cm
		}
		cm.remainingAtSnapshot = remaining
		cm.receivedAt = now
		cm.running = snap.Running
		if remaining < cm.lastReported || !ok {
			cm.lastReported = remaining
		}
	}
}

// Remaining extrapolates one slot's remaining time to `now`, clamped
// so it never reports an increase over the last value it handed back
// for this slot — repeated calls with advancing `now` values form a
// monotonically non-increasing sequence even across jittery snapshot
// arrival (spec.md §4.8).
func (c *Core) Remaining(board bughouse.BoardID, side bughouse.Side, now time.Time) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cm, ok := c.clocks[bughouse.PlayerSlot{Board: board, Side: side}]
	if !ok {
		return 0, false
	}
	r := cm.remainingAtSnapshot
	if cm.running {
		r -= now.Sub(cm.receivedAt)
	}
	if r > cm.lastReported {
		r = cm.lastReported
	}
	cm.lastReported = r
	return r, true
}
