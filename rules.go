// Variant rule configuration
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

// DropAggression controls which checks/mates a pawn or piece drop may
// legally deliver.
type DropAggression uint8

const (
	NoRestrictions DropAggression = iota
	NoCheck                       // a drop may never give check
	NoChessMate                   // a drop may never deliver a single-board mate
	NoBughouseMate                // checked exactly like NoChessMate; whether a partner's drop could answer the mate is not considered
)

func (d DropAggression) String() string {
	switch d {
	case NoRestrictions:
		return "no-restrictions"
	case NoCheck:
		return "no-check"
	case NoChessMate:
		return "no-chess-mate"
	case NoBughouseMate:
		return "no-bughouse-mate"
	default:
		return "unknown"
	}
}

// StartingPosition selects the initial arrangement shared by both
// boards.
type StartingPosition struct {
	Fischer bool  // Chess960 randomisation is active
	Seed    int64 // (matchId, seed) reproduces the same position on both boards
}

// Rules bundles every orthogonal variant flag a match may combine
// freely (§2, §4.1). The legal-move generator and game-over detector
// branch on these flags directly rather than on a variant class
// hierarchy (§9 Design Notes).
type Rules struct {
	StartPos StartingPosition

	Accolade bool
	Duck     bool
	Fog      bool
	Koedem   bool

	DropRankMin    int8 // minimum rank (0-based) a pawn may be dropped on
	DropRankMax    int8 // maximum rank a pawn may be dropped on
	DropAggression DropAggression

	// Clock parameters, shared by every slot created for a game
	// under these rules.
	InitialTime         time.Duration
	Increment           time.Duration
	BonusOnOpponentMove time.Duration

	Rated bool
}

// DefaultRules is standard bughouse: no variants, pawns may not drop
// on the first or last rank, no drop-aggression restriction.
func DefaultRules() Rules {
	return Rules{
		DropRankMin:         1,
		DropRankMax:         6,
		DropAggression:      NoRestrictions,
		InitialTime:         5 * time.Minute,
		Increment:           0,
		BonusOnOpponentMove: 2 * time.Second,
		Rated:               true,
	}
}
