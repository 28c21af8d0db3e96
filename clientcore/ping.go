// Liveness: Ping/Pong round trip and the idempotent tick (spec.md §4.8)
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

	"bughouse/protocol"
)

// SubmitPing assigns the next client_seq and returns the Ping
// ClientEvent to send; Apply records the matching Pong's arrival so
// Irresponsive can report the server connection as stale the way
// protocol.Session.Irresponsive does on the server side (spec.md §5
// "a session without a Pong reply in 20s is marked irresponsive... the
// client owns reconnection policy").
func (c *Core) SubmitPing() protocol.ClientEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextClientSeq++
	return protocol.ClientEvent{
		ClientSeq: c.nextClientSeq,
		Kind:      protocol.EvPing,
		Ping:      &protocol.PingPayload{Seq: c.nextClientSeq},
	}
}

// Irresponsive reports whether more than `timeout` has passed since
// the last Pong was observed via Apply.
func (c *Core) Irresponsive(now time.Time, timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastPongAt.IsZero() {
		return false
	}
	return now.Sub(c.lastPongAt) > timeout
}

// Tick recomputes every clock mirror's displayed remaining time as of
// now, for a UI shell's render loop; calling it repeatedly with the
// same now leaves every mirror unchanged (spec.md §8 "tick(now) called
// repeatedly with the same now produces identical state").
func (c *Core) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cm := range c.clocks {
		r := cm.remainingAtSnapshot
		if cm.running {
			r -= now.Sub(cm.receivedAt)
		}
		if r > cm.lastReported {
			r = cm.lastReported
		}
		cm.lastReported = r
	}
}
