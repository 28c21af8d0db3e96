// Common types shared across every package
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

// Package bughouse holds the rules engine and authoritative game model
// shared by the match coordinator, the wire protocol and the client
// mirror state: boards, turns, clocks, and the bughouse game that ties
// two boards together.
package bughouse

import "fmt"

// Side is a chess colour. Every board has its own active Side; a
// bughouse team is two Sides on two different boards (see BoardID).
type Side bool

const (
	White Side = false
	Black Side = true
)

func (s Side) String() string {
	if s == White {
		return "White"
	}
	return "Black"
}

func (s Side) Other() Side { return !s }

// MarshalText renders a Side as "White"/"Black" so it can be used
// both as an ordinary JSON string value and as a JSON object key
// (encoding/json falls back to encoding.TextMarshaler for map keys
// that are not themselves strings or integers — see Board.Reserve).
func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "White":
		*s = White
	case "Black":
		*s = Black
	default:
		return fmt.Errorf("bughouse: malformed side %q", b)
	}
	return nil
}

// BoardID identifies one of the two linked boards of a bughouse game.
type BoardID bool

const (
	BoardA BoardID = false
	BoardB BoardID = true
)

func (b BoardID) String() string {
	if b == BoardA {
		return "A"
	}
	return "B"
}

func (b BoardID) Other() BoardID { return !b }

// MarshalText renders a BoardID as "A"/"B"; see Side.MarshalText for
// why this also covers BoardID's use as a map key (GameOutcome.Results).
func (b BoardID) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BoardID) UnmarshalText(t []byte) error {
	switch string(t) {
	case "A":
		*b = BoardA
	case "B":
		*b = BoardB
	default:
		return fmt.Errorf("bughouse: malformed board id %q", t)
	}
	return nil
}

// PlayerSlot names one of the four seats of a bughouse game.
type PlayerSlot struct {
	Board BoardID
	Side  Side
}

func (s PlayerSlot) String() string {
	return fmt.Sprintf("%s@%s", s.Side, s.Board)
}

// Partner returns the slot of the teammate: the opposite side on the
// other board, i.e. (BoardA,White)'s reserves are fed by
// (BoardB,Black)'s captures.
func (s PlayerSlot) Partner() PlayerSlot {
	return PlayerSlot{Board: s.Board.Other(), Side: s.Side.Other()}
}

// ParticipantID names one seat holder for the lifetime of a Match; it
// outlives any one ClientSession (see the session package).
type ParticipantID string

// MatchID is the six-letter human-facing code used to join a match.
type MatchID string

// TurnIndex addresses one applied half move on one board, used by
// "wayback" navigation (see BughouseGame.WaybackView). It is not by
// itself a total order across both boards: the TurnLog entry sequence
// is the authoritative global order (see TurnLogEntry.Seq).
type TurnIndex struct {
	Board    BoardID
	HalfMove int // 1-based ply count on that board
}

func (t TurnIndex) String() string {
	return fmt.Sprintf("%s:%d", t.Board, t.HalfMove)
}
