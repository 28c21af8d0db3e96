// Rating updates
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

package match

import (
	"math"

	"bughouse"
)

// kFactor controls how far one game result can move a team's rating.
const kFactor = 24.0

// expectedScore is the standard logistic Elo expectation of `a`
// scoring against `b` (§4.5 "skillratings-style formula").
func expectedScore(a, b bughouse.Elo) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// teamRating returns the average Elo of a team's two players, falling
// back to 1500 for an unrated participant so an unrated partner does
// not zero out a rated teammate's expectation.
func teamRating(players [2]*bughouse.Elo) bughouse.Elo {
	sum := 0
	for _, p := range players {
		if p != nil {
			sum += int(*p)
		} else {
			sum += 1500
		}
	}
	return bughouse.Elo(sum / 2)
}

// ratingDelta computes a per-team Elo-like update (§4.5 "Rating
// updates"): the delta to add to every participant of forTeam after a
// game against otherTeam; score is 1 for a win, 0.5 for a draw, 0 for
// a loss, from forTeam's perspective.
func ratingDelta(forTeam, otherTeam bughouse.Elo, score float64) int {
	return int(math.Round(kFactor * (score - expectedScore(forTeam, otherTeam))))
}
