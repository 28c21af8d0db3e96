// BughouseGame cross-board reserve-crediting tests
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

import (
	"testing"
	"time"
)

// TestApplyTurnCreditsPartnerBoardNotOwnBoard plays a capture on board
// A and checks the piece lands in board B's reserve for the partner
// slot (PlayerSlot.Partner()), never in board A's own reserve (§4.2,
// §9 "reserves are fed by the partner board's captures").
func TestApplyTurnCreditsPartnerBoardNotOwnBoard(t *testing.T) {
	now := time.Now()
	g := NewBughouseGame(DefaultRules(), now)

	for _, m := range []Turn{
		{Kind: MoveTurn, From: sq("e2"), To: sq("e4")},
		{Kind: MoveTurn, From: sq("d7"), To: sq("d5")},
		{Kind: MoveTurn, From: sq("e4"), To: sq("d5")}, // White exd5, captures a black pawn
	} {
		if err := g.ApplyTurn(BoardA, m, now); err != nil {
			t.Fatalf("applying %v on board A: %v", m, err)
		}
	}

	if n := g.Board(BoardB).Reserve[Black].Count(Pawn); n != 1 {
		t.Errorf("board B black reserve pawns = %d, want 1 (fed by board A White's capture)", n)
	}
	if n := g.Board(BoardA).Reserve[White].Count(Pawn); n != 0 {
		t.Errorf("board A white reserve pawns = %d, want 0: a capture must not credit the capturer's own board", n)
	}
	if n := g.Board(BoardA).Reserve[Black].Count(Pawn); n != 0 {
		t.Errorf("board A black reserve pawns = %d, want 0", n)
	}
	if n := g.Board(BoardB).Reserve[White].Count(Pawn); n != 0 {
		t.Errorf("board B white reserve pawns = %d, want 0", n)
	}
}

// TestCrossBoardCaptureFeedsDropMate reproduces spec §8 scenario 1: a
// capture on one board hands its partner the material for a
// drop-checkmate on the other board.
func TestCrossBoardCaptureFeedsDropMate(t *testing.T) {
	now := time.Now()
	g := NewBughouseGame(DefaultRules(), now)

	// Board A: White captures a black knight, crediting board B's
	// Black reserve with a knight via the partner slot.
	boardA := buildBoard(g.Rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
		"d4": {Kind: Rook, Side: White},
		"d5": {Kind: Knight, Side: Black},
	})
	g.boards[BoardA] = boardA

	if err := g.ApplyTurn(BoardA, Turn{Kind: MoveTurn, From: sq("d4"), To: sq("d5")}, now); err != nil {
		t.Fatalf("Rxd5 on board A: %v", err)
	}
	if n := g.Board(BoardB).Reserve[Black].Count(Knight); n != 1 {
		t.Fatalf("board B black reserve knights = %d, want 1", n)
	}

	// Board B: the credit landed in Black's reserve, so it is Black who
	// drops it. White's king is smothered by its own pieces on g1/g2/h2;
	// a knight on f2 checks h1 with no flight square and nothing able
	// to capture it.
	boardB := buildBoard(g.Rules, map[string]Piece{
		"h1": {Kind: King, Side: White},
		"g1": {Kind: Rook, Side: White},
		"g2": {Kind: Pawn, Side: White},
		"h2": {Kind: Pawn, Side: White},
		"a8": {Kind: King, Side: Black},
	})
	boardB.Active = Black
	boardB.Reserve[Black] = g.Board(BoardB).Reserve[Black].Clone()
	g.boards[BoardB] = boardB

	if err := g.ApplyTurn(BoardB, Turn{Kind: DropTurn, DropKind: Knight, To: sq("f2")}, now); err != nil {
		t.Fatalf("dropping the credited knight on f2: %v", err)
	}
	if res := g.BoardResult(BoardB); res.Status != BoardCheckmate || res.Winner != Black {
		t.Fatalf("BoardResult(B) = %+v, want Checkmate, Black", res)
	}
	if g.Status != GameTeamOneWins {
		t.Errorf("Status = %v, want GameTeamOneWins (team of BoardA,White / BoardB,Black)", g.Status)
	}
}
