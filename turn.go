// Turn representation and the shared turn log
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

// TurnKind discriminates the variants of Turn (§3). A Turn read off
// the wire is always canonical; partial turns (awaiting a promotion
// choice, a duck placement, or a steal target) are a ClientCore-only
// concept built on top of Turn and never serialised directly.
type TurnKind uint8

const (
	MoveTurn TurnKind = iota
	DropTurn
	CastleTurn
	PlaceDuckTurn
)

func (k TurnKind) String() string {
	switch k {
	case MoveTurn:
		return "Move"
	case DropTurn:
		return "Drop"
	case CastleTurn:
		return "Castle"
	case PlaceDuckTurn:
		return "PlaceDuck"
	default:
		return "Unknown"
	}
}

type CastleSide uint8

const (
	Kingside CastleSide = iota
	Queenside
)

func (c CastleSide) String() string {
	if c == Kingside {
		return "O-O"
	}
	return "O-O-O"
}

// Turn is a canonical, fully-resolved action on one board. Only one
// of the per-kind fields is meaningful at a time, selected by Kind;
// this mirrors the teacher's flat kgp.Move struct rather than an
// interface hierarchy, since every variant is still small scalar
// data and a type switch per kind is cheaper to read than a dozen
// one-field types.
type Turn struct {
	Kind TurnKind

	// MoveTurn
	From, To  Coord
	Promotion PieceKind // NoPiece when the move is not a promotion
	// Steal marks a promotion-by-steal turn: this pawn becomes
	// Promotion as in an ordinary promotion (which takes nothing
	// from any reserve), and in addition a same-kind friendly piece
	// on StealBoard is converted to a Pawn (§3 "promotion origin" / §4.1 "promotion
	// by steal", resolved per DESIGN.md).
	Steal      bool
	StealBoard BoardID

	// DropTurn
	DropKind PieceKind

	// CastleTurn
	Castle CastleSide

	// PlaceDuckTurn
	Duck Coord
}

func (t Turn) String() string {
	switch t.Kind {
	case MoveTurn:
		s := t.From.String() + t.To.String()
		if t.Promotion != NoPiece {
			s += "=" + t.Promotion.String()
			if t.Steal {
				s += "/" + t.StealBoard.String()
			}
		}
		return s
	case DropTurn:
		return t.DropKind.String() + "@" + t.To.String()
	case CastleTurn:
		return t.Castle.String()
	case PlaceDuckTurn:
		return "@" + t.Duck.String()
	default:
		return "?"
	}
}

// TurnLogEntry is one applied half move, globally ordered by Seq
// across both boards (§3 BughouseGame TurnLog, §4.2).
type TurnLogEntry struct {
	Seq   int
	Board BoardID
	Turn  Turn
	At    time.Time

	perBoardHalfMove int
}

func (e TurnLogEntry) Index() TurnIndex {
	return TurnIndex{Board: e.Board, HalfMove: e.perBoardHalfMove}
}

// TurnLog is the shared, append-only ordering of turns across both
// boards of one BughouseGame.
type TurnLog struct {
	entries  []TurnLogEntry
	halfMove map[BoardID]int
}

func NewTurnLog() *TurnLog {
	return &TurnLog{halfMove: map[BoardID]int{BoardA: 0, BoardB: 0}}
}

// Append records a new turn as the next globally-ordered entry.
func (l *TurnLog) Append(board BoardID, t Turn, at time.Time) TurnLogEntry {
	l.halfMove[board]++
	e := TurnLogEntry{
		Seq:              len(l.entries),
		Board:            board,
		Turn:             t,
		At:               at,
		perBoardHalfMove: l.halfMove[board],
	}
	l.entries = append(l.entries, e)
	return e
}

func (l *TurnLog) Entries() []TurnLogEntry { return l.entries }

func (l *TurnLog) Len() int { return len(l.entries) }

// SeqForIndex finds the global sequence number of the entry matching
// a per-board TurnIndex, used to translate a wayback cursor (which
// clients and the wire protocol address by board/half-move) into the
// global Prefix a replay needs (§4.2, §6 WaybackTo).
func (l *TurnLog) SeqForIndex(idx TurnIndex) (int, bool) {
	for _, e := range l.entries {
		if e.Board == idx.Board && e.perBoardHalfMove == idx.HalfMove {
			return e.Seq, true
		}
	}
	return 0, false
}

// Prefix returns the entries up to and including the given global
// sequence number, used by wayback reconstruction.
func (l *TurnLog) Prefix(uptoSeq int) []TurnLogEntry {
	if uptoSeq < 0 {
		return nil
	}
	if uptoSeq >= len(l.entries) {
		uptoSeq = len(l.entries) - 1
	}
	return l.entries[:uptoSeq+1]
}
