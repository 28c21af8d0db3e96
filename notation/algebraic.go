// Algebraic turn notation: canonicalising text input and formatting
// turns back out for display and for BPGN export.
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

// Package notation implements TurnProtocol's text canonicalisation
// (spec.md §4.4): algebraic notation in both directions, and the
// two-section BPGN export/import format (§6).
package notation

import (
	"fmt"
	"strings"

	"bughouse"
)

// AmbiguousSource is returned by ParseAlgebraic when the input
// under-specifies which of several legal turns it names, mirroring
// spec.md §4.4's standard-SAN-disambiguation-then-AmbiguousSource
// fallback.
var AmbiguousSource = fmt.Errorf("notation: ambiguous source")

// FormatAlgebraic renders a legal Turn against the board it applies
// to, including the minimal SAN disambiguation needed to make the
// text unambiguous among that board's other legal turns, and the
// bughouse promotion-by-steal suffix (§4.4 "optional bughouse-steal
// suffix").
func FormatAlgebraic(before *bughouse.Board, rules bughouse.Rules, t bughouse.Turn) (string, error) {
	switch t.Kind {
	case bughouse.CastleTurn:
		return t.Castle.String(), nil
	case bughouse.DropTurn:
		return t.DropKind.String() + "@" + t.To.String(), nil
	case bughouse.PlaceDuckTurn:
		return "@" + t.Duck.String(), nil
	case bughouse.MoveTurn:
		return formatMove(before, rules, t)
	default:
		return "", fmt.Errorf("notation: unknown turn kind %v", t.Kind)
	}
}

func formatMove(before *bughouse.Board, rules bughouse.Rules, t bughouse.Turn) (string, error) {
	piece, ok := before.PieceAt(t.From)
	if !ok {
		return "", fmt.Errorf("notation: no piece at %s", t.From)
	}

	_, destOccupied := before.PieceAt(t.To)
	capture := destOccupied
	if piece.Kind == bughouse.Pawn && before.EnPassant != nil && t.To == *before.EnPassant {
		capture = true
	}

	var b strings.Builder
	if piece.Kind != bughouse.Pawn {
		b.WriteString(piece.Kind.String())
		b.WriteString(disambiguate(before, rules, piece, t))
	} else if capture {
		b.WriteByte(file(t.From.File))
	}
	if capture {
		b.WriteByte('x')
	}
	b.WriteString(t.To.String())
	if t.Promotion != bughouse.NoPiece {
		b.WriteString("=" + t.Promotion.String())
		if t.Steal {
			b.WriteString("/" + t.StealBoard.String())
		}
	}
	return b.String(), nil
}

// disambiguate returns the empty string, a file letter, a rank digit,
// or the full source square, whichever is the minimal addition
// needed to distinguish t.From from every other legal turn that moves
// a like piece to the same destination (standard SAN rules referenced
// in §4.4).
func disambiguate(before *bughouse.Board, rules bughouse.Rules, piece bughouse.Piece, t bughouse.Turn) string {
	var sameFile, sameRank, other bool
	for _, c := range before.LegalTurns(rules) {
		if c.Kind != bughouse.MoveTurn || c.To != t.To || c.From == t.From {
			continue
		}
		mover, ok := before.PieceAt(c.From)
		if !ok || mover.Kind != piece.Kind || mover.Side != piece.Side {
			continue
		}
		other = true
		if c.From.File == t.From.File {
			sameFile = true
		}
		if c.From.Rank == t.From.Rank {
			sameRank = true
		}
	}
	switch {
	case !other:
		return ""
	case !sameFile:
		return string(file(t.From.File))
	case !sameRank:
		return string(rank(t.From.Rank))
	default:
		return t.From.String()
	}
}

func file(f int8) byte { return 'a' + byte(f) }
func rank(r int8) byte { return '1' + byte(r) }

// ParseAlgebraic canonicalises text input to a Turn by generating
// every legal turn on `before` and matching its canonical formatting
// against `s`; this always satisfies the round-trip property
// `ParseAlgebraic(FormatAlgebraic(t)) == t` by construction, since
// formatting is what parsing compares against.
func ParseAlgebraic(before *bughouse.Board, rules bughouse.Rules, s string) (bughouse.Turn, error) {
	s = strings.TrimSpace(s)
	legal := before.LegalTurns(rules)

	var match *bughouse.Turn
	for i, t := range legal {
		formatted, err := FormatAlgebraic(before, rules, t)
		if err != nil {
			continue
		}
		if formatted == s {
			if match != nil {
				return bughouse.Turn{}, AmbiguousSource
			}
			match = &legal[i]
		}
	}
	if match == nil {
		return bughouse.Turn{}, fmt.Errorf("notation: %q does not name a legal turn", s)
	}
	return *match, nil
}
