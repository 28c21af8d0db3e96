// Wire views of Match/BughouseGame
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
	"time"

	"bughouse"
)

// GameView is the wire projection of a *bughouse.BughouseGame: Clock
// and TurnLog keep their internals unexported (the rules engine is
// the only thing that mutates them), so a snapshot pulls what the
// client needs through their exported accessors rather than
// marshalling the struct directly, which would serialise to "{}".
type GameView struct {
	Rules    bughouse.Rules                        `json:"rules"`
	Boards   map[bughouse.BoardID]*bughouse.Board  `json:"boards"`
	Status   bughouse.GameStatus                   `json:"status"`
	Archived bool                                  `json:"archived"`
	EndedAt  time.Time                             `json:"endedAt"`
	Clocks   []bughouse.ClockSnapshot              `json:"clocks"`
	TurnLog  []bughouse.TurnLogEntry               `json:"turnLog"`
}

func newGameView(g *bughouse.BughouseGame, now time.Time) *GameView {
	return &GameView{
		Rules: g.Rules,
		Boards: map[bughouse.BoardID]*bughouse.Board{
			bughouse.BoardA: g.Board(bughouse.BoardA),
			bughouse.BoardB: g.Board(bughouse.BoardB),
		},
		Status:   g.Status,
		Archived: g.Archived,
		EndedAt:  g.EndedAt,
		Clocks:   g.Clock.SerializeSnapshot(now),
		TurnLog:  g.Log.Entries(),
	}
}

// MatchView is the wire projection of a *bughouse.Match: every field
// here is already exported on Match/Participant directly (they round-
// trip through encoding/json unchanged once BoardID/Side/Coord/
// PieceKind carry MarshalText, see common.go/piece.go), except
// Current, which needs GameView's accessor-based projection.
type MatchView struct {
	ID              bughouse.MatchID                                 `json:"id"`
	Rules           bughouse.Rules                                    `json:"rules"`
	Phase           bughouse.LobbyPhase                                `json:"phase"`
	CountdownEndsAt *int64                                            `json:"countdownEndsAt"`
	Participants    map[bughouse.ParticipantID]*bughouse.Participant `json:"participants"`
	History         []bughouse.GameOutcome                           `json:"history"`
	Game            *GameView                                        `json:"game"`
	SharedWaybackOn bool                                              `json:"sharedWaybackOn"`
	SharedWayback   *bughouse.TurnIndex                               `json:"sharedWayback"`
}

// NewMatchView projects a point-in-time Match snapshot (as returned
// by a MatchCoordinator's Lookup/Actor.Snapshot) into its wire form,
// interpolating clocks as of `now`.
func NewMatchView(m *bughouse.Match, now time.Time) MatchView {
	v := MatchView{
		ID:              m.ID,
		Rules:           m.Rules,
		Phase:           m.Phase,
		CountdownEndsAt: m.CountdownEndsAt,
		Participants:    m.Participants,
		History:         m.History,
		SharedWaybackOn: m.SharedWaybackOn,
		SharedWayback:   m.SharedWayback,
	}
	if m.Current != nil {
		v.Game = newGameView(m.Current, now)
	}
	return v
}
