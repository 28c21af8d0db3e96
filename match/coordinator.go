// Top-level match pool
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

// Package match implements the MatchCoordinator (spec.md §4.5): lobby
// roster, seating, the ready-gate/countdown state machine, and rating
// updates, one single-threaded actor goroutine per live match (§5).
package match

import (
	"sync"
	"time"

	"bughouse"
	"bughouse/conf"
)

// Coordinator is the conf.MatchManager: it owns the map of live
// matches and reaps ones that have sat empty too long (§4.7 "A match
// with zero connected participants for > 2 minutes is reaped if its
// game is archived").
type Coordinator struct {
	conf *conf.Conf
	db   conf.DatabaseManager // nil is fine: persistence is best-effort

	mu      sync.Mutex
	actors  map[bughouse.MatchID]*actor
	emptyAt map[bughouse.MatchID]time.Time

	done chan struct{}
}

// NewCoordinator builds the MatchManager; db may be nil if no
// DatabaseManager was registered, in which case finished games are
// simply never persisted.
func NewCoordinator(c *conf.Conf, db conf.DatabaseManager) *Coordinator {
	return &Coordinator{
		conf:    c,
		db:      db,
		actors:  make(map[bughouse.MatchID]*actor),
		emptyAt: make(map[bughouse.MatchID]time.Time),
		done:    make(chan struct{}),
	}
}

func (c *Coordinator) String() string { return "Match Coordinator" }

// CreateMatch allocates a fresh Match under the given rules, starts
// its actor goroutine, and returns its six-letter code.
func (c *Coordinator) CreateMatch(rules bughouse.Rules) bughouse.MatchID {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, err := newUniqueCode(func(id bughouse.MatchID) bool {
		_, taken := c.actors[id]
		return taken
	})
	if err != nil {
		// Practically unreachable: 22^6 codes, retried 64 times
		// against a live-match set that is always far smaller.
		c.conf.Log.Fatal(err)
	}

	a := newActor(id, rules, c.conf.CountdownPeriod, c.db)
	c.actors[id] = a
	go a.run()
	return id
}

// Lookup finds a live match by code.
func (c *Coordinator) Lookup(id bughouse.MatchID) (*bughouse.Match, bool) {
	c.mu.Lock()
	a, ok := c.actors[id]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	m := a.Snapshot()
	return &m, true
}

// Actor exposes the live actor backing a match code, letting the
// server package submit Join/SetReady/ApplyTurn commands; Lookup alone
// only returns a point-in-time, read-only copy.
func (c *Coordinator) Actor(id bughouse.MatchID) (Actor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.actors[id]
	return a, ok
}

// Start runs the reap loop that removes empty, archived matches after
// conf.ReapAfter (§4.7).
func (c *Coordinator) Start() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.reapEmpty()
		}
	}
}

func (c *Coordinator) Shutdown() {
	close(c.done)
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, a := range c.actors {
		close(a.shut)
		delete(c.actors, id)
	}
}

func (c *Coordinator) reapEmpty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for id, a := range c.actors {
		m := a.Snapshot()
		if len(m.Participants) > 0 {
			delete(c.emptyAt, id)
			continue
		}
		if m.Phase == bughouse.PhaseInGame {
			continue
		}
		since, tracked := c.emptyAt[id]
		if !tracked {
			c.emptyAt[id] = now
			continue
		}
		if now.Sub(since) > c.conf.ReapAfter {
			close(a.shut)
			delete(c.actors, id)
			delete(c.emptyAt, id)
		}
	}
}
