// Piece, square and reserve types
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

import "fmt"

// PieceKind is a piece type. Cardinal, Empress and Amazon only appear
// under the Accolade variant; Duck only appears under Duck chess.
type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	Cardinal // knight + bishop compound (Accolade)
	Empress  // knight + rook compound (Accolade)
	Amazon   // knight + queen compound (Accolade)
	Duck
)

func (k PieceKind) String() string {
	switch k {
	case NoPiece:
		return ""
	case Pawn:
		return "P"
	case Knight:
		return "N"
	case Bishop:
		return "B"
	case Rook:
		return "R"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Cardinal:
		return "C"
	case Empress:
		return "E"
	case Amazon:
		return "A"
	case Duck:
		return "@"
	default:
		panic(fmt.Sprintf("illegal piece kind %d", uint8(k)))
	}
}

// MarshalText renders a PieceKind by its single-letter code so it can
// be used as a JSON object key (Reserve is keyed by PieceKind; see
// Side.MarshalText for why encoding/json needs this).
func (k PieceKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PieceKind) UnmarshalText(t []byte) error {
	switch string(t) {
	case "P":
		*k = Pawn
	case "N":
		*k = Knight
	case "B":
		*k = Bishop
	case "R":
		*k = Rook
	case "Q":
		*k = Queen
	case "K":
		*k = King
	case "C":
		*k = Cardinal
	case "E":
		*k = Empress
	case "A":
		*k = Amazon
	case "@":
		*k = Duck
	case "":
		*k = NoPiece
	default:
		return fmt.Errorf("bughouse: malformed piece kind %q", t)
	}
	return nil
}

// Components returns the two classical pieces an Accolade compound
// piece separates into when captured. Non-compound kinds return
// (NoPiece, NoPiece).
func (k PieceKind) Components() (PieceKind, PieceKind) {
	switch k {
	case Cardinal:
		return Knight, Bishop
	case Empress:
		return Knight, Rook
	case Amazon:
		return Knight, Queen
	default:
		return NoPiece, NoPiece
	}
}

// Piece is one occupant of a board square. FromPromotion marks a piece
// that reached its current kind via pawn promotion: when captured, it
// is returned to the capturing team's reserve as a Pawn rather than as
// its promoted kind, unless Koedem is active (§4.1, Piece promotion
// origin flag).
type Piece struct {
	Kind          PieceKind
	Side          Side
	FromPromotion bool
}

func (p Piece) String() string {
	if p.Side == Black {
		return fmt.Sprintf("%c", p.Kind.String()[0]+32)
	}
	return p.Kind.String()
}

// Coord is an algebraic board square: File 0..7 is a..h, Rank 0..7 is
// rank 1..8.
type Coord struct {
	File int8
	Rank int8
}

func MakeCoord(file, rank int8) Coord { return Coord{File: file, Rank: rank} }

// ParseCoord parses a two-character algebraic square such as "e4".
func ParseCoord(s string) (Coord, error) {
	if len(s) != 2 {
		return Coord{}, fmt.Errorf("bughouse: malformed square %q", s)
	}
	file := int8(s[0])
	rank := int8(s[1])
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Coord{}, fmt.Errorf("bughouse: malformed square %q", s)
	}
	return Coord{File: file - 'a', Rank: rank - '1'}, nil
}

func (c Coord) Valid() bool {
	return c.File >= 0 && c.File < 8 && c.Rank >= 0 && c.Rank < 8
}

func (c Coord) String() string {
	if !c.Valid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+byte(c.File), '1'+byte(c.Rank))
}

func (c Coord) Add(df, dr int8) Coord {
	return Coord{File: c.File + df, Rank: c.Rank + dr}
}

// MarshalText renders a Coord in algebraic notation so it can be used
// as a JSON object key (Board.Grid is keyed by Coord; see
// Side.MarshalText for why encoding/json needs this for a non-string,
// non-integer key type).
func (c Coord) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Coord) UnmarshalText(t []byte) error {
	parsed, err := ParseCoord(string(t))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
