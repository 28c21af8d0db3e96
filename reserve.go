// Per-side captured-piece reserve
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

// Reserve is a multiset of droppable pieces held by one side. Kings
// and Ducks never appear here outside Koedem (for Kings) — Ducks are
// never held in reserve at all, they are placed directly each turn.
type Reserve map[PieceKind]int

func (r Reserve) Add(k PieceKind, n int) {
	if n == 0 {
		return
	}
	r[k] += n
	if r[k] <= 0 {
		delete(r, k)
	}
}

func (r Reserve) Count(k PieceKind) int { return r[k] }

func (r Reserve) Clone() Reserve {
	c := make(Reserve, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// addCaptured credits a captured piece to a reserve, decomposing
// Accolade compounds into their components and, outside Koedem,
// mapping promoted pawns back to Pawn, per the standard bughouse
// reserve rule.
func addCaptured(r Reserve, p Piece, koedem bool) {
	if p.Kind == King && !koedem {
		panic("bughouse: king captured without Koedem active")
	}
	if p.Kind == Duck {
		return // the duck is never reserved
	}
	if c1, c2 := p.Kind.Components(); c1 != NoPiece {
		r.Add(c1, 1)
		r.Add(c2, 1)
		return
	}
	kind := p.Kind
	if p.FromPromotion && p.Kind != King && !koedem {
		kind = Pawn
	}
	r.Add(kind, 1)
}
