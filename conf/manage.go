// Service lifecycle management
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

package conf

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"bughouse"
)

// Manager is anything with a start/stop lifecycle the top-level
// server drives: the match coordinator pool, the database, the
// WebSocket/HTTP listener.
type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

// MatchManager runs the pool of live matches.
type MatchManager interface {
	Manager

	// CreateMatch allocates a fresh Match under the given rules and
	// returns its six-letter code.
	CreateMatch(rules bughouse.Rules) bughouse.MatchID
	// Lookup finds a match by code, reporting false if it does not
	// exist or has been reaped.
	Lookup(id bughouse.MatchID) (*bughouse.Match, bool)
}

// DatabaseManager is the persistence surface (§6 "Persistence
// surface"): game archive storage and account operations.
type DatabaseManager interface {
	Manager

	SaveGame(ctx context.Context, matchID bughouse.MatchID, gameIndex int, bpgn string, outcome bughouse.GameStatus, ratingsBefore, ratingsAfter map[bughouse.ParticipantID]bughouse.Elo, endedAtUnixMs int64) error
	LoadGame(ctx context.Context, gameID int64) (bpgn string, err error)
	ListGamesForUser(ctx context.Context, userID string, page int) ([]int64, error)

	CreateAccount(ctx context.Context, userID, displayName string) error
	Authenticate(ctx context.Context, userID, secret string) (bool, error)
}

// Register records a Manager before Start is called; registering
// after Start panics, mirroring the teacher's late-register guard.
func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("conf: late register: %#v", m))
	}
	c.man = append(c.man, m)
}

// Start launches every registered Manager and blocks until either an
// OS interrupt or c.Kill is invoked, then shuts every Manager down in
// registration order.
func (c *Conf) Start() {
	for _, m := range c.man {
		c.Debug.Printf("starting %s", m)
		go m.Start()
	}
	c.run = true

	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	select {
	case <-intr:
		c.Debug.Println("caught interrupt")
	case <-c.Ctx.Done():
		c.Debug.Println("requested shutdown")
	}

	c.Debug.Println("waiting for managers to shut down")
	for _, m := range c.man {
		c.Debug.Printf("shutting %s down", m)
		m.Shutdown()
	}
	c.Debug.Println("shutting down")
}
