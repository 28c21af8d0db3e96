// Board model and legal-move generation
//
// Copyright (c) 2021  Philip Kaludercic
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
// License, version 3, along with go-kgp . If not, see
// <http://www.gnu.org/licenses/>

package bughouse

// CastlingRights tracks, per side, whether the king and each rook
// are still eligible to castle (necessary but not sufficient: the
// squares between them must also be clear and unattacked).
type CastlingRights struct {
	Kingside, Queenside map[Side]bool
}

func newCastlingRights() CastlingRights {
	return CastlingRights{
		Kingside:  map[Side]bool{White: true, Black: true},
		Queenside: map[Side]bool{White: true, Black: true},
	}
}

func (c CastlingRights) clone() CastlingRights {
	return CastlingRights{
		Kingside:  map[Side]bool{White: c.Kingside[White], Black: c.Kingside[Black]},
		Queenside: map[Side]bool{White: c.Queenside[White], Black: c.Queenside[Black]},
	}
}

// homeSquares records where a king and its two rooks started, which
// Fischer-random needs in order to know the castling destination
// files (g/c for the king, f/d for the rook) regardless of the
// randomised starting file (§4.1 Fischer-random).
type homeSquares struct {
	King map[Side]int8
	Rook map[Side]map[CastleSide]int8
}

// Board is one chess position with a droppable reserve (§3). It is
// pure: every method either reads or returns a Board, never depending
// on wall-clock time or randomness except MakeStartingBoard's
// Fischer-random derivation, which takes its seed from the caller.
type Board struct {
	Grid    map[Coord]Piece
	Reserve map[Side]Reserve

	Active Side

	Castling      CastlingRights
	EnPassant     *Coord
	HalfMoveClock int
	FullMove      int
	LastTurn      *Turn

	// LastCaptured is the piece taken by LastTurn, if any (including en
	// passant). Board.apply only ever has one board in scope, so it
	// cannot credit the capture to the right reserve itself (§4.2,
	// §9 "reserves are fed by the partner board's captures"); it
	// records the piece here instead and leaves crediting to whichever
	// caller holds both boards (BughouseGame.ApplyTurn).
	LastCaptured *Piece

	// AwaitingDuck is true between the piece-move half of a Duck
	// chess half-move and its duck placement; the clock does not
	// advance and Active does not flip until the duck lands
	// (§4.1 Duck chess).
	AwaitingDuck bool
	Duck         *Coord

	home homeSquares
}

// MakeStartingBoard returns the initial position for the given rules.
// Both boards of a match are built from the same seed so Fischer-random
// positions mirror exactly (§4.1, §8 scenario 5).
func MakeStartingBoard(rules Rules) *Board {
	b := &Board{
		Grid:     make(map[Coord]Piece),
		Reserve:  map[Side]Reserve{White: {}, Black: {}},
		Active:   White,
		Castling: newCastlingRights(),
		FullMove: 1,
		home: homeSquares{
			King: map[Side]int8{},
			Rook: map[Side]map[CastleSide]int8{White: {}, Black: {}},
		},
	}

	backRank := chess960Rank(rules.StartPos)
	var rookFiles []int8
	for file, kind := range backRank {
		b.Grid[MakeCoord(int8(file), 0)] = Piece{Kind: kind, Side: White}
		b.Grid[MakeCoord(int8(file), 7)] = Piece{Kind: kind, Side: Black}
		if kind == King {
			b.home.King[White] = int8(file)
			b.home.King[Black] = int8(file)
		}
		if kind == Rook {
			rookFiles = append(rookFiles, int8(file))
		}
	}
	if len(rookFiles) == 2 {
		for _, s := range []Side{White, Black} {
			b.home.Rook[s][Queenside] = rookFiles[0]
			b.home.Rook[s][Kingside] = rookFiles[1]
		}
	}
	for file := int8(0); file < 8; file++ {
		b.Grid[MakeCoord(file, 1)] = Piece{Kind: Pawn, Side: White}
		b.Grid[MakeCoord(file, 6)] = Piece{Kind: Pawn, Side: Black}
	}
	return b
}

// chess960Rank returns the 8 piece kinds for the back rank, files a
// through h. Standard chess is Chess960 position 518; any other seed
// under StartPos.Fischer draws one of the 960 valid arrangements
// deterministically, so (matchId, seed) reproduces the same position
// on both boards and across server restarts.
func chess960Rank(pos StartingPosition) [8]PieceKind {
	if !pos.Fischer {
		return [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	}
	return chess960Position(pos.Seed)
}

func chess960Position(seed int64) [8]PieceKind {
	n := int(((seed % 960) + 960) % 960)
	var rank [8]PieceKind
	occupied := [8]bool{}

	place := func(file int, k PieceKind) {
		rank[file] = k
		occupied[file] = true
	}
	nthFree := func(n int) int {
		for file := 0; file < 8; file++ {
			if !occupied[file] {
				if n == 0 {
					return file
				}
				n--
			}
		}
		panic("bughouse: chess960 derivation ran out of free files")
	}

	lightBishop := n % 4
	n /= 4
	darkBishop := n % 4
	n /= 4
	place(2*lightBishop+1, Bishop)
	place(2*darkBishop, Bishop)

	queenSlot := n % 6
	n /= 6
	place(nthFree(queenSlot), Queen)

	knightTable := [10][2]int{
		{0, 1}, {0, 2}, {0, 3}, {0, 4},
		{1, 2}, {1, 3}, {1, 4},
		{2, 3}, {2, 4},
		{3, 4},
	}
	pair := knightTable[n%10]
	place(nthFree(pair[1]), Knight)
	place(nthFree(pair[0]), Knight)

	place(nthFree(0), Rook)
	place(nthFree(0), King)
	place(nthFree(0), Rook)

	return rank
}

func (b *Board) Clone() *Board {
	c := &Board{
		Grid:          make(map[Coord]Piece, len(b.Grid)),
		Reserve:       map[Side]Reserve{White: b.Reserve[White].Clone(), Black: b.Reserve[Black].Clone()},
		Active:        b.Active,
		Castling:      b.Castling.clone(),
		HalfMoveClock: b.HalfMoveClock,
		FullMove:      b.FullMove,
		AwaitingDuck:  b.AwaitingDuck,
		home:          b.home,
	}
	for sq, p := range b.Grid {
		c.Grid[sq] = p
	}
	if b.EnPassant != nil {
		sq := *b.EnPassant
		c.EnPassant = &sq
	}
	if b.Duck != nil {
		sq := *b.Duck
		c.Duck = &sq
	}
	if b.LastTurn != nil {
		t := *b.LastTurn
		c.LastTurn = &t
	}
	return c
}

func (b *Board) PieceAt(c Coord) (Piece, bool) {
	p, ok := b.Grid[c]
	return p, ok
}

func (b *Board) King(side Side) (Coord, bool) {
	for sq, p := range b.Grid {
		if p.Kind == King && p.Side == side {
			return sq, true
		}
	}
	return Coord{}, false
}

// InCheck reports whether side's king is attacked. Callers must not
// rely on this under Fog-of-war or Duck chess, where check is not a
// legality concept (§4.1); GameStatus still consults it for ordinary
// single-board mate/stalemate detection.
func (b *Board) InCheck(side Side) bool {
	king, ok := b.King(side)
	if !ok {
		return false
	}
	return b.attacks(side.Other(), king)
}

func (b *Board) attacks(by Side, sq Coord) bool {
	dir := int8(1)
	if by == Black {
		dir = -1
	}
	for _, df := range []int8{-1, 1} {
		from := sq.Add(df, -dir)
		if p, ok := b.Grid[from]; ok && p.Side == by && p.Kind == Pawn {
			return true
		}
	}
	for _, d := range knightDeltas {
		from := sq.Add(d[0], d[1])
		if p, ok := b.Grid[from]; ok && p.Side == by && (p.Kind == Knight || p.Kind == Cardinal || p.Kind == Empress || p.Kind == Amazon) {
			return true
		}
	}
	for _, d := range kingDeltas {
		from := sq.Add(d[0], d[1])
		if p, ok := b.Grid[from]; ok && p.Side == by && p.Kind == King {
			return true
		}
	}
	for _, d := range bishopDeltas {
		if b.slidingAttacks(sq, d, by, Bishop, Queen, Cardinal, Amazon) {
			return true
		}
	}
	for _, d := range rookDeltas {
		if b.slidingAttacks(sq, d, by, Rook, Queen, Empress, Amazon) {
			return true
		}
	}
	return false
}

func (b *Board) slidingAttacks(sq Coord, d [2]int8, by Side, kinds ...PieceKind) bool {
	cur := sq.Add(d[0], d[1])
	for cur.Valid() {
		if b.Duck != nil && cur == *b.Duck {
			return false
		}
		if p, ok := b.Grid[cur]; ok {
			if p.Side == by {
				for _, k := range kinds {
					if p.Kind == k {
						return true
					}
				}
			}
			return false
		}
		cur = cur.Add(d[0], d[1])
	}
	return false
}

var knightDeltas = [8][2]int8{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}
var kingDeltas = [8][2]int8{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}
var bishopDeltas = [4][2]int8{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDeltas = [4][2]int8{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// MaterialInsufficient reports whether neither side has enough
// material to deliver mate on this board in isolation. A reserve with
// anything in it is always sufficient (a single pawn drop can force
// mate with help), so this only fires for a bare-king-vs-bare-king
// position with empty reserves.
func (b *Board) MaterialInsufficient() bool {
	if len(b.Reserve[White]) > 0 || len(b.Reserve[Black]) > 0 {
		return false
	}
	for _, p := range b.Grid {
		if p.Kind != King {
			return false
		}
	}
	return true
}

// KingCaptured reports which side (if any) has no king left on this
// board; only reachable under Koedem, where kings may be captured.
func (b *Board) KingCaptured() (Side, bool) {
	for _, side := range []Side{White, Black} {
		if _, ok := b.King(side); !ok {
			return side, true
		}
	}
	return White, false
}

// LegalTurns enumerates every legal Turn the active side may play.
// Under Fog-of-war and Duck chess, king safety is not filtered: Fog
// relaxes legality to the mover's own information and Duck chess has
// no check concept at all, kings are captured like any other piece
// (§4.1).
func (b *Board) LegalTurns(rules Rules) []Turn {
	if b.AwaitingDuck {
		return b.legalDuckPlacements()
	}

	pseudo := b.pseudoLegalTurns(rules)
	filterCheck := !rules.Duck && !rules.Fog
	if !filterCheck {
		return pseudo
	}

	legal := make([]Turn, 0, len(pseudo))
	for _, t := range pseudo {
		after, err := b.apply(t, rules)
		if err != nil {
			continue
		}
		if after.InCheck(b.Active) {
			continue
		}
		if t.Kind == DropTurn && rules.DropAggression != NoRestrictions && b.dropViolatesAggression(t, after, rules) {
			continue
		}
		legal = append(legal, t)
	}
	return legal
}

// dropViolatesAggression checks a drop against the configured
// DropAggression level (§2 Rules.DropAggression): NoCheck forbids any
// drop that gives check, NoChessMate additionally forbids one that
// mates outright, NoBughouseMate further forbids a mate that is only
// escapable by a partner's own counter-drop (approximated here as any
// drop-delivered mate, since evaluating the partner board's rescue
// options requires information this Board does not have).
func (b *Board) dropViolatesAggression(t Turn, after *Board, rules Rules) bool {
	opponent := b.Active.Other()
	if !after.InCheck(opponent) {
		return false
	}
	if rules.DropAggression == NoCheck {
		return true
	}
	return len(after.LegalTurns(rules)) == 0
}

func (b *Board) legalDuckPlacements() []Turn {
	var turns []Turn
	for file := int8(0); file < 8; file++ {
		for rank := int8(0); rank < 8; rank++ {
			sq := MakeCoord(file, rank)
			if _, occupied := b.Grid[sq]; occupied {
				continue
			}
			turns = append(turns, Turn{Kind: PlaceDuckTurn, Duck: sq})
		}
	}
	return turns
}

func (b *Board) pseudoLegalTurns(rules Rules) []Turn {
	var turns []Turn
	for sq, p := range b.Grid {
		if p.Side != b.Active {
			continue
		}
		turns = append(turns, b.pieceMoves(sq, p, rules)...)
	}
	turns = append(turns, b.castlingTurns(rules)...)
	turns = append(turns, b.dropTurns(rules)...)
	return turns
}

func (b *Board) pieceMoves(from Coord, p Piece, rules Rules) []Turn {
	switch p.Kind {
	case Pawn:
		return b.pawnMoves(from, p)
	case Knight:
		return b.stepMoves(from, p, knightDeltas[:])
	case King:
		return b.stepMoves(from, p, kingDeltas[:])
	case Bishop:
		return b.slideMoves(from, p, bishopDeltas[:])
	case Rook:
		return b.slideMoves(from, p, rookDeltas[:])
	case Queen, Amazon:
		t := b.slideMoves(from, p, bishopDeltas[:])
		t = append(t, b.slideMoves(from, p, rookDeltas[:])...)
		if p.Kind == Amazon {
			t = append(t, b.stepMoves(from, p, knightDeltas[:])...)
		}
		return t
	case Cardinal:
		t := b.slideMoves(from, p, bishopDeltas[:])
		return append(t, b.stepMoves(from, p, knightDeltas[:])...)
	case Empress:
		t := b.slideMoves(from, p, rookDeltas[:])
		return append(t, b.stepMoves(from, p, knightDeltas[:])...)
	default:
		return nil
	}
}

func (b *Board) canLandOn(sq Coord, side Side) bool {
	if !sq.Valid() {
		return false
	}
	if b.Duck != nil && sq == *b.Duck {
		return false
	}
	if p, ok := b.Grid[sq]; ok && p.Side == side {
		return false
	}
	return true
}

func (b *Board) stepMoves(from Coord, p Piece, deltas [][2]int8) []Turn {
	var turns []Turn
	for _, d := range deltas {
		to := from.Add(d[0], d[1])
		if b.canLandOn(to, p.Side) {
			turns = append(turns, Turn{Kind: MoveTurn, From: from, To: to})
		}
	}
	return turns
}

func (b *Board) slideMoves(from Coord, p Piece, deltas [][2]int8) []Turn {
	var turns []Turn
	for _, d := range deltas {
		cur := from.Add(d[0], d[1])
		for cur.Valid() {
			if b.Duck != nil && cur == *b.Duck {
				break
			}
			if occ, ok := b.Grid[cur]; ok {
				if occ.Side != p.Side {
					turns = append(turns, Turn{Kind: MoveTurn, From: from, To: cur})
				}
				break
			}
			turns = append(turns, Turn{Kind: MoveTurn, From: from, To: cur})
			cur = cur.Add(d[0], d[1])
		}
	}
	return turns
}

func (b *Board) pawnMoves(from Coord, p Piece) []Turn {
	var turns []Turn
	dir := int8(1)
	startRank := int8(1)
	lastRank := int8(7)
	if p.Side == Black {
		dir = -1
		startRank = 6
		lastRank = 0
	}

	promote := func(to Coord, base Turn) []Turn {
		if to.Rank != lastRank {
			return []Turn{base}
		}
		var out []Turn
		for _, k := range []PieceKind{Queen, Rook, Bishop, Knight} {
			t := base
			t.Promotion = k
			out = append(out, t)
		}
		return out
	}

	one := from.Add(0, dir)
	if one.Valid() {
		if _, occ := b.Grid[one]; !occ && (b.Duck == nil || one != *b.Duck) {
			turns = append(turns, promote(one, Turn{Kind: MoveTurn, From: from, To: one})...)
			two := from.Add(0, 2*dir)
			if from.Rank == startRank {
				if _, occ2 := b.Grid[two]; !occ2 && (b.Duck == nil || two != *b.Duck) {
					turns = append(turns, Turn{Kind: MoveTurn, From: from, To: two})
				}
			}
		}
	}
	for _, df := range []int8{-1, 1} {
		to := from.Add(df, dir)
		if !to.Valid() || (b.Duck != nil && to == *b.Duck) {
			continue
		}
		if occ, ok := b.Grid[to]; ok && occ.Side != p.Side {
			turns = append(turns, promote(to, Turn{Kind: MoveTurn, From: from, To: to})...)
		} else if b.EnPassant != nil && to == *b.EnPassant {
			turns = append(turns, Turn{Kind: MoveTurn, From: from, To: to})
		}
	}
	return turns
}

func (b *Board) castlingTurns(rules Rules) []Turn {
	var turns []Turn
	side := b.Active
	kingFrom := MakeCoord(b.home.King[side], homeRank(side))
	if p, ok := b.Grid[kingFrom]; !ok || p.Kind != King || p.Side != side {
		return nil
	}
	if b.attacks(side.Other(), kingFrom) {
		return nil
	}
	for _, cs := range []CastleSide{Kingside, Queenside} {
		allowed := b.Castling.Kingside[side]
		if cs == Queenside {
			allowed = b.Castling.Queenside[side]
		}
		if !allowed {
			continue
		}
		rookFrom := MakeCoord(b.home.Rook[side][cs], homeRank(side))
		if p, ok := b.Grid[rookFrom]; !ok || p.Kind != Rook || p.Side != side {
			continue
		}
		kingTo := MakeCoord(castleKingFile(cs), homeRank(side))
		rookTo := MakeCoord(castleRookFile(cs), homeRank(side))
		if b.castlingPathClear(kingFrom, kingTo, rookFrom, rookTo, side) {
			turns = append(turns, Turn{Kind: CastleTurn, Castle: cs})
		}
	}
	return turns
}

func homeRank(side Side) int8 {
	if side == White {
		return 0
	}
	return 7
}

func castleKingFile(cs CastleSide) int8 {
	if cs == Kingside {
		return 6
	}
	return 2
}

func castleRookFile(cs CastleSide) int8 {
	if cs == Kingside {
		return 5
	}
	return 3
}

// castlingPathClear checks that every square the king crosses
// (inclusive of its destination) is empty-or-occupied-only-by-the-
// castling-rook and not attacked, and that every square between the
// rook's start and end is clear of other pieces; this handles
// Chess960 configurations where king and rook paths can overlap.
func (b *Board) castlingPathClear(kingFrom, kingTo, rookFrom, rookTo Coord, side Side) bool {
	occupiedOK := func(sq Coord) bool {
		if sq == kingFrom || sq == rookFrom {
			return true
		}
		_, occ := b.Grid[sq]
		return !occ
	}

	lo, hi := minFile(kingFrom.File, kingTo.File), maxFile(kingFrom.File, kingTo.File)
	for f := lo; f <= hi; f++ {
		sq := MakeCoord(f, kingFrom.Rank)
		if !occupiedOK(sq) {
			return false
		}
		if b.attacks(side.Other(), sq) {
			return false
		}
	}
	lo, hi = minFile(rookFrom.File, rookTo.File), maxFile(rookFrom.File, rookTo.File)
	for f := lo; f <= hi; f++ {
		sq := MakeCoord(f, rookFrom.Rank)
		if !occupiedOK(sq) {
			return false
		}
	}
	return true
}

func minFile(a, b int8) int8 {
	if a < b {
		return a
	}
	return b
}
func maxFile(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

func (b *Board) dropTurns(rules Rules) []Turn {
	var turns []Turn
	res := b.Reserve[b.Active]
	if len(res) == 0 {
		return nil
	}
	for kind, count := range res {
		if count <= 0 {
			continue
		}
		for file := int8(0); file < 8; file++ {
			for rank := int8(0); rank < 8; rank++ {
				sq := MakeCoord(file, rank)
				if _, occ := b.Grid[sq]; occ {
					continue
				}
				if b.Duck != nil && sq == *b.Duck {
					continue
				}
				if kind == Pawn && (rank < rules.DropRankMin || rank > rules.DropRankMax) {
					continue
				}
				turns = append(turns, Turn{Kind: DropTurn, DropKind: kind, To: sq})
			}
		}
	}
	return turns
}

// TryApply validates and applies a Turn, returning the resulting
// Board on success. On failure it returns a *Error with Kind
// RuleViolation and a Reject detailing why (§4.1, §7); RuleViolation
// never escapes the MatchCoordinator boundary.
func (b *Board) TryApply(t Turn, rules Rules) (*Board, error) {
	legal := b.LegalTurns(rules)
	found := false
	for _, c := range legal {
		if turnShapeEqual(c, t) {
			found = true
			break
		}
	}
	if !found {
		return nil, RejectError(Illegal, "turn %s is not legal for %s", t, b.Active)
	}
	return b.apply(t, rules)
}

// turnShapeEqual compares two turns ignoring Steal/StealBoard: those
// fields select where a promotion draws its piece from and are
// resolved by BughouseGame.resolveSteal against the partner board,
// not by the generator that produces candidate turns for this board
// alone.
func turnShapeEqual(a, b Turn) bool {
	a.Steal, a.StealBoard = false, false
	b.Steal, b.StealBoard = false, false
	return a == b
}

// ShapeValid reports whether t is plausible for side to eventually
// submit, checking only piece ownership and movement shape against
// the current board — not whose turn it actually is, not check
// safety, and not DropAggression. This is deliberately weaker than
// TryApply: it is how a queued preturn is accepted before its side's
// move arrives, since the board will have changed by the time it is
// actually playable and full legality can only be judged then (§4.4,
// §9 "Preturns require a snapshot-free representation").
func (b *Board) ShapeValid(t Turn, side Side, rules Rules) bool {
	switch t.Kind {
	case MoveTurn:
		p, ok := b.Grid[t.From]
		if !ok || p.Side != side {
			return false
		}
		for _, mv := range b.pieceMoves(t.From, p, rules) {
			if turnShapeEqual(mv, t) {
				return true
			}
		}
		return false
	case DropTurn:
		if b.Reserve[side].Count(t.DropKind) <= 0 {
			return false
		}
		if _, occupied := b.Grid[t.To]; occupied {
			return false
		}
		return t.To.Valid()
	case CastleTurn:
		_, ok := b.King(side)
		return ok
	case PlaceDuckTurn:
		if _, occupied := b.Grid[t.Duck]; occupied {
			return false
		}
		return t.Duck.Valid()
	default:
		return false
	}
}

// apply performs the mechanical update for an already-legal turn,
// without re-checking legality; LegalTurns uses it internally to
// probe king safety.
func (b *Board) apply(t Turn, rules Rules) (*Board, error) {
	nb := b.Clone()
	nb.LastTurn = &t
	nb.EnPassant = nil

	switch t.Kind {
	case PlaceDuckTurn:
		if !b.AwaitingDuck {
			return nil, RejectError(NeedsDuckPlacement, "no piece move is pending a duck placement")
		}
		if _, occ := nb.Grid[t.Duck]; occ {
			return nil, RejectError(Illegal, "duck square %s is occupied", t.Duck)
		}
		if nb.Duck != nil {
			delete(nb.Grid, *nb.Duck)
		}
		sq := t.Duck
		nb.Duck = &sq
		nb.Grid[sq] = Piece{Kind: Duck}
		nb.AwaitingDuck = false
		nb.completeHalfMove()
		return nb, nil

	case MoveTurn:
		if b.AwaitingDuck {
			return nil, RejectError(NeedsDuckPlacement, "a duck must be placed before any other turn")
		}
		mover, ok := nb.Grid[t.From]
		if !ok || mover.Side != b.Active {
			return nil, RejectError(Illegal, "no piece of %s at %s", b.Active, t.From)
		}
		captured, hadCapture := nb.Grid[t.To]
		isEnPassant := mover.Kind == Pawn && b.EnPassant != nil && t.To == *b.EnPassant && !hadCapture
		delete(nb.Grid, t.From)
		if isEnPassant {
			capSq := MakeCoord(t.To.File, t.From.Rank)
			captured, hadCapture = nb.Grid[capSq], true
			delete(nb.Grid, capSq)
		}
		if hadCapture {
			if captured.Kind == King && !rules.Koedem {
				return nil, RejectError(Illegal, "king may not be captured")
			}
			cap := captured
			nb.LastCaptured = &cap
		}
		placed := mover
		if t.Promotion != NoPiece {
			placed = Piece{Kind: t.Promotion, Side: mover.Side, FromPromotion: true}
			if t.Steal {
				// handled by BughouseGame.ApplyTurn, which has
				// visibility across both boards; Board.apply only
				// places the promoted piece here.
			}
		}
		nb.Grid[t.To] = placed
		if hadCapture && rules.Accolade && placed.Kind == Knight {
			nb.formAccolade(t.To, placed.Side)
		}
		if mover.Kind == Pawn {
			nb.HalfMoveClock = 0
			if t.To.Rank-t.From.Rank == 2 || t.From.Rank-t.To.Rank == 2 {
				mid := MakeCoord(t.From.File, (t.From.Rank+t.To.Rank)/2)
				nb.EnPassant = &mid
			}
		} else if hadCapture {
			nb.HalfMoveClock = 0
		} else {
			nb.HalfMoveClock++
		}
		nb.updateCastlingRights(t.From, mover)
		nb.updateCastlingRights(t.To, placed)
		if rules.Duck {
			nb.AwaitingDuck = true
			return nb, nil
		}
		nb.completeHalfMove()
		return nb, nil

	case DropTurn:
		if b.AwaitingDuck {
			return nil, RejectError(NeedsDuckPlacement, "a duck must be placed before any other turn")
		}
		if nb.Reserve[b.Active].Count(t.DropKind) <= 0 {
			return nil, RejectError(Illegal, "%s has no %s in reserve", b.Active, t.DropKind)
		}
		if _, occ := nb.Grid[t.To]; occ {
			return nil, RejectError(Illegal, "square %s is occupied", t.To)
		}
		nb.Reserve[b.Active].Add(t.DropKind, -1)
		nb.Grid[t.To] = Piece{Kind: t.DropKind, Side: b.Active}
		nb.HalfMoveClock++
		if rules.Duck {
			nb.AwaitingDuck = true
			return nb, nil
		}
		nb.completeHalfMove()
		return nb, nil

	case CastleTurn:
		if b.AwaitingDuck {
			return nil, RejectError(NeedsDuckPlacement, "a duck must be placed before any other turn")
		}
		side := b.Active
		kingFrom := MakeCoord(b.home.King[side], homeRank(side))
		rookFrom := MakeCoord(b.home.Rook[side][t.Castle], homeRank(side))
		kingTo := MakeCoord(castleKingFile(t.Castle), homeRank(side))
		rookTo := MakeCoord(castleRookFile(t.Castle), homeRank(side))
		king := nb.Grid[kingFrom]
		rook := nb.Grid[rookFrom]
		delete(nb.Grid, kingFrom)
		delete(nb.Grid, rookFrom)
		nb.Grid[kingTo] = king
		nb.Grid[rookTo] = rook
		nb.Castling.Kingside[side] = false
		nb.Castling.Queenside[side] = false
		nb.HalfMoveClock++
		if rules.Duck {
			nb.AwaitingDuck = true
			return nb, nil
		}
		nb.completeHalfMove()
		return nb, nil
	}
	return nil, Fatalf("unknown turn kind %v", t.Kind)
}

// formAccolade implements the Accolade variant's compound-piece rule
// (§4.1: a knight that captures while standing adjacent to a friendly
// bishop, rook or queen fuses with it into a Cardinal, Empress or
// Amazon). It is the inverse of addCaptured's Components() split, and
// only ever fires once per capture: the first eligible neighbour found
// (in a fixed kingDeltas order) is consumed.
func (b *Board) formAccolade(knightSq Coord, side Side) {
	combine := map[PieceKind]PieceKind{Bishop: Cardinal, Rook: Empress, Queen: Amazon}
	for _, d := range kingDeltas {
		sq := knightSq.Add(d[0], d[1])
		p, ok := b.Grid[sq]
		if !ok || p.Side != side {
			continue
		}
		compound, ok := combine[p.Kind]
		if !ok {
			continue
		}
		delete(b.Grid, sq)
		b.Grid[knightSq] = Piece{Kind: compound, Side: side}
		return
	}
}

func (b *Board) completeHalfMove() {
	if b.Active == Black {
		b.FullMove++
	}
	b.Active = b.Active.Other()
}

// updateCastlingRights drops a side's castling rights once its king
// or either rook leaves its starting square. It is keyed by square,
// not by mover, so it also fires when an opposing piece captures on
// a rook's home square.
func (b *Board) updateCastlingRights(sq Coord, _ Piece) {
	for _, side := range []Side{White, Black} {
		if sq == MakeCoord(b.home.King[side], homeRank(side)) {
			b.Castling.Kingside[side] = false
			b.Castling.Queenside[side] = false
		}
		if sq == MakeCoord(b.home.Rook[side][Kingside], homeRank(side)) {
			b.Castling.Kingside[side] = false
		}
		if sq == MakeCoord(b.home.Rook[side][Queenside], homeRank(side)) {
			b.Castling.Queenside[side] = false
		}
	}
}
