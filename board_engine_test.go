// Board legality and move-generation tests
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

import "testing"

func sq(s string) Coord {
	c, err := ParseCoord(s)
	if err != nil {
		panic(err)
	}
	return c
}

func TestMakeStartingBoardStandardPosition(t *testing.T) {
	b := MakeStartingBoard(DefaultRules())

	for _, test := range []struct {
		square string
		kind   PieceKind
		side   Side
	}{
		{"e1", King, White},
		{"e8", King, Black},
		{"a1", Rook, White},
		{"h1", Rook, White},
		{"a8", Rook, Black},
		{"h8", Rook, Black},
		{"d1", Queen, White},
	} {
		p, ok := b.PieceAt(sq(test.square))
		if !ok {
			t.Fatalf("%s: expected a piece, found none", test.square)
		}
		if p.Kind != test.kind || p.Side != test.side {
			t.Errorf("%s: got %v/%v, want %v/%v", test.square, p.Kind, p.Side, test.kind, test.side)
		}
	}

	for file := int8(0); file < 8; file++ {
		if p, ok := b.PieceAt(MakeCoord(file, 1)); !ok || p.Kind != Pawn || p.Side != White {
			t.Errorf("rank 2 file %d: expected a white pawn", file)
		}
		if p, ok := b.PieceAt(MakeCoord(file, 6)); !ok || p.Kind != Pawn || p.Side != Black {
			t.Errorf("rank 7 file %d: expected a black pawn", file)
		}
	}

	if b.Active != White {
		t.Errorf("Active = %v, want White", b.Active)
	}
}

func TestChess960PositionIsDeterministic(t *testing.T) {
	a := chess960Position(42)
	b := chess960Position(42)
	if a != b {
		t.Errorf("chess960Position(42) is not deterministic: %v != %v", a, b)
	}
	// exactly one king and two rooks flanking it, one queen, two
	// bishops on opposite-colour squares.
	kings, rooks, queens, darkBishop, lightBishop := 0, 0, 0, 0, 0
	for file, k := range a {
		switch k {
		case King:
			kings++
		case Rook:
			rooks++
		case Queen:
			queens++
		case Bishop:
			if file%2 == 0 {
				darkBishop++
			} else {
				lightBishop++
			}
		}
	}
	if kings != 1 || rooks != 2 || queens != 1 || darkBishop != 1 || lightBishop != 1 {
		t.Errorf("chess960Position(42) = %v is not a valid back rank", a)
	}
}

func TestLegalTurnsStartingPositionHasTwentyMoves(t *testing.T) {
	b := MakeStartingBoard(DefaultRules())
	legal := b.LegalTurns(DefaultRules())
	if len(legal) != 20 {
		t.Errorf("legal first moves = %d, want 20", len(legal))
	}
}

func TestTryApplyRejectsIllegalTurn(t *testing.T) {
	b := MakeStartingBoard(DefaultRules())
	_, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("e2"), To: sq("e5")}, DefaultRules())
	if err == nil {
		t.Fatal("expected an error moving a pawn three squares")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Reject != Illegal {
		t.Fatalf("expected a RuleViolation/Illegal rejection, got %v", err)
	}
}

func TestTryApplyAcceptsLegalPawnDoubleMoveAndSetsEnPassant(t *testing.T) {
	b := MakeStartingBoard(DefaultRules())
	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("e2"), To: sq("e4")}, DefaultRules())
	if err != nil {
		t.Fatalf("TryApply: %v", err)
	}
	if nb.EnPassant == nil || *nb.EnPassant != sq("e3") {
		t.Errorf("EnPassant = %v, want e3", nb.EnPassant)
	}
	if nb.Active != Black {
		t.Errorf("Active = %v, want Black", nb.Active)
	}
}

func TestEnPassantCapture(t *testing.T) {
	rules := DefaultRules()
	b := MakeStartingBoard(rules)
	moves := []struct{ from, to string }{
		{"e2", "e4"}, {"a7", "a6"},
		{"e4", "e5"}, {"d7", "d5"},
	}
	var err error
	for _, m := range moves {
		b, err = b.TryApply(Turn{Kind: MoveTurn, From: sq(m.from), To: sq(m.to)}, rules)
		if err != nil {
			t.Fatalf("applying %s-%s: %v", m.from, m.to, err)
		}
	}

	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("e5"), To: sq("d6")}, rules)
	if err != nil {
		t.Fatalf("en passant capture e5xd6: %v", err)
	}
	if _, occ := nb.PieceAt(sq("d5")); occ {
		t.Error("captured pawn still present on d5")
	}
	if p, ok := nb.PieceAt(sq("d6")); !ok || p.Kind != Pawn || p.Side != White {
		t.Errorf("expected a white pawn on d6 after en passant, got %v, %v", p, ok)
	}
}

func TestMoveCaptureRecordsLastCapturedButNotOwnReserve(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
		"d4": {Kind: Rook, Side: White},
		"d8": {Kind: Rook, Side: Black},
	})
	b.Grid[sq("d7")] = Piece{Kind: Pawn, Side: Black}

	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("d4"), To: sq("d7")}, rules)
	if err != nil {
		t.Fatalf("Rxd7: %v", err)
	}
	if nb.LastCaptured == nil || nb.LastCaptured.Kind != Pawn || nb.LastCaptured.Side != Black {
		t.Fatalf("LastCaptured = %v, want a captured black pawn", nb.LastCaptured)
	}
	// Board.apply has no partner board to feed; crediting the capturer's
	// own reserve here would be the bughouse-inverting bug this guards.
	if nb.Reserve[White].Count(Pawn) != 0 {
		t.Errorf("White reserve pawns = %d, want 0: Board.apply must not self-credit", nb.Reserve[White].Count(Pawn))
	}
}

func TestAccoladeFormsCompoundOnAdjacentCapture(t *testing.T) {
	rules := DefaultRules()
	rules.Accolade = true
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
		"c3": {Kind: Knight, Side: White},
		"a4": {Kind: Bishop, Side: White},
		"b5": {Kind: Pawn, Side: Black},
	})

	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("c3"), To: sq("b5")}, rules)
	if err != nil {
		t.Fatalf("Nxb5: %v", err)
	}
	p, ok := nb.PieceAt(sq("b5"))
	if !ok || p.Kind != Cardinal || p.Side != White {
		t.Fatalf("b5 = %v, %v, want a white Cardinal after an Accolade capture", p, ok)
	}
	if _, stillThere := nb.PieceAt(sq("a4")); stillThere {
		t.Error("the fused bishop on a4 should have been consumed")
	}
}

func TestAccoladeDisabledLeavesKnightAloneAfterCapture(t *testing.T) {
	rules := DefaultRules() // Accolade off by default
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
		"c3": {Kind: Knight, Side: White},
		"a4": {Kind: Bishop, Side: White},
		"b5": {Kind: Pawn, Side: Black},
	})

	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("c3"), To: sq("b5")}, rules)
	if err != nil {
		t.Fatalf("Nxb5: %v", err)
	}
	p, ok := nb.PieceAt(sq("b5"))
	if !ok || p.Kind != Knight {
		t.Fatalf("b5 = %v, %v, want an unfused white Knight with Accolade disabled", p, ok)
	}
}

// buildBoard returns a minimal board carrying only the given pieces,
// reusing the starting board's home squares and castling rights so
// castling-path tests stay realistic without needing the full army.
func buildBoard(rules Rules, pieces map[string]Piece) *Board {
	b := MakeStartingBoard(rules)
	b.Grid = make(map[Coord]Piece, len(pieces))
	for s, p := range pieces {
		b.Grid[sq(s)] = p
	}
	return b
}

func TestPawnPromotionOffersAllFourPieces(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e7": {Kind: Pawn, Side: White},
		"e1": {Kind: King, Side: White},
		"a8": {Kind: King, Side: Black},
	})
	legal := b.LegalTurns(rules)

	choices := map[PieceKind]bool{}
	for _, t := range legal {
		if t.Kind == MoveTurn && t.From == sq("e7") && t.To == sq("e8") {
			choices[t.Promotion] = true
		}
	}
	for _, want := range []PieceKind{Queen, Rook, Bishop, Knight} {
		if !choices[want] {
			t.Errorf("missing promotion choice %v among %v", want, choices)
		}
	}

	nb, err := b.TryApply(Turn{Kind: MoveTurn, From: sq("e7"), To: sq("e8"), Promotion: Queen}, rules)
	if err != nil {
		t.Fatalf("promoting to queen: %v", err)
	}
	p, ok := nb.PieceAt(sq("e8"))
	if !ok || p.Kind != Queen || !p.FromPromotion {
		t.Errorf("e8 = %v, %v, want a FromPromotion queen", p, ok)
	}
}

func TestCastlingKingsideRequiresClearPath(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"h1": {Kind: Rook, Side: White},
		"e8": {Kind: King, Side: Black},
	})

	found := false
	for _, t := range b.LegalTurns(rules) {
		if t.Kind == CastleTurn && t.Castle == Kingside {
			found = true
		}
	}
	if !found {
		t.Fatal("expected kingside castling to be legal with a clear path")
	}

	nb, err := b.TryApply(Turn{Kind: CastleTurn, Castle: Kingside}, rules)
	if err != nil {
		t.Fatalf("castling kingside: %v", err)
	}
	if p, ok := nb.PieceAt(sq("g1")); !ok || p.Kind != King {
		t.Errorf("g1 = %v, %v, want the white king", p, ok)
	}
	if p, ok := nb.PieceAt(sq("f1")); !ok || p.Kind != Rook {
		t.Errorf("f1 = %v, %v, want the white rook", p, ok)
	}
	if nb.Castling.Kingside[White] || nb.Castling.Queenside[White] {
		t.Error("castling rights should be lost for White after castling")
	}
}

func TestCastlingBlockedByInterveningPiece(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"h1": {Kind: Rook, Side: White},
		"f1": {Kind: Bishop, Side: White},
		"e8": {Kind: King, Side: Black},
	})

	for _, mv := range b.LegalTurns(rules) {
		if mv.Kind == CastleTurn && mv.Castle == Kingside {
			t.Fatal("kingside castling should not be legal with a piece on f1")
		}
	}

	_, err := b.TryApply(Turn{Kind: CastleTurn, Castle: Kingside}, rules)
	if err == nil {
		t.Fatal("expected castling kingside to be rejected with a piece on f1")
	}
}

func TestDropRejectsOccupiedSquareAndEmptyReserve(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
		"d4": {Kind: Pawn, Side: Black},
	})

	_, err := b.TryApply(Turn{Kind: DropTurn, DropKind: Pawn, To: sq("d5")}, rules)
	if err == nil {
		t.Fatal("expected an error dropping with an empty reserve")
	}

	b.Reserve[White].Add(Pawn, 1)
	_, err = b.TryApply(Turn{Kind: DropTurn, DropKind: Pawn, To: sq("d4")}, rules)
	if err == nil {
		t.Fatal("expected an error dropping onto an occupied square")
	}

	nb, err := b.TryApply(Turn{Kind: DropTurn, DropKind: Pawn, To: sq("d5")}, rules)
	if err != nil {
		t.Fatalf("dropping onto an empty square: %v", err)
	}
	if p, ok := nb.PieceAt(sq("d5")); !ok || p.Kind != Pawn || p.Side != White {
		t.Errorf("d5 = %v, %v, want a white pawn", p, ok)
	}
	if nb.Reserve[White].Count(Pawn) != 0 {
		t.Errorf("reserve pawn count = %d, want 0 after the drop", nb.Reserve[White].Count(Pawn))
	}
}

func TestDropRejectsPawnOnBackRanks(t *testing.T) {
	rules := DefaultRules()
	b := buildBoard(rules, map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
	})
	b.Reserve[White].Add(Pawn, 1)

	for _, dest := range []string{"c1", "c8"} {
		if _, err := b.TryApply(Turn{Kind: DropTurn, DropKind: Pawn, To: sq(dest)}, rules); err == nil {
			t.Errorf("expected dropping a pawn on %s to be rejected", dest)
		}
	}
}

func TestDropAggressionNoCheckForbidsCheckingDrop(t *testing.T) {
	rules := DefaultRules()
	rules.DropAggression = NoCheck
	b := buildBoard(rules, map[string]Piece{
		"a1": {Kind: King, Side: White},
		"h8": {Kind: King, Side: Black},
	})
	b.Reserve[White].Add(Rook, 1)

	for _, mv := range b.LegalTurns(rules) {
		if mv.Kind == DropTurn && mv.To == sq("h1") {
			t.Fatal("dropping a rook giving check should be illegal under NoCheck")
		}
	}
	_, err := b.TryApply(Turn{Kind: DropTurn, DropKind: Rook, To: sq("h1")}, rules)
	if err == nil {
		t.Fatal("expected the checking rook drop to be rejected under NoCheck")
	}
}

func TestMaterialInsufficientBareKings(t *testing.T) {
	b := buildBoard(DefaultRules(), map[string]Piece{
		"e1": {Kind: King, Side: White},
		"e8": {Kind: King, Side: Black},
	})
	if !b.MaterialInsufficient() {
		t.Error("bare kings with empty reserves should be insufficient material")
	}
	b.Reserve[White].Add(Pawn, 1)
	if b.MaterialInsufficient() {
		t.Error("a non-empty reserve should never count as insufficient material")
	}
}

func TestKingCapturedOnlyWithoutAKing(t *testing.T) {
	b := buildBoard(DefaultRules(), map[string]Piece{
		"e1": {Kind: King, Side: White},
	})
	side, captured := b.KingCaptured()
	if !captured || side != Black {
		t.Errorf("KingCaptured = %v, %v, want Black, true", side, captured)
	}
}
