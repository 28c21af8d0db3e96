// Elo-like rating update tests
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
	"testing"

	"bughouse"
)

func TestExpectedScoreSymmetric(t *testing.T) {
	a, b := bughouse.Elo(1600), bughouse.Elo(1400)
	ea, eb := expectedScore(a, b), expectedScore(b, a)
	if diff := (ea + eb) - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expectedScore(a,b) + expectedScore(b,a) = %v, want 1", ea+eb)
	}
	if ea <= eb {
		t.Errorf("higher-rated side should have the higher expected score: ea=%v eb=%v", ea, eb)
	}
}

func TestExpectedScoreEqualRatings(t *testing.T) {
	if got := expectedScore(1500, 1500); got != 0.5 {
		t.Errorf("expectedScore of equal ratings = %v, want 0.5", got)
	}
}

func TestTeamRatingFallsBackToDefaultForUnrated(t *testing.T) {
	rated := bughouse.Elo(1700)
	got := teamRating([2]*bughouse.Elo{&rated, nil})
	want := bughouse.Elo((1700 + 1500) / 2)
	if got != want {
		t.Errorf("teamRating = %v, want %v", got, want)
	}
}

func TestRatingDeltaFavoursUpset(t *testing.T) {
	for i, test := range []struct {
		forTeam, otherTeam bughouse.Elo
		score              float64
	}{
		{1500, 1500, 1}, // expected win, equal ratings
		{1200, 1800, 1}, // huge upset win
	} {
		delta := ratingDelta(test.forTeam, test.otherTeam, test.score)
		if delta <= 0 {
			t.Errorf("test %d: a win should never produce a non-positive delta, got %d", i, delta)
		}
	}

	upset := ratingDelta(1200, 1800, 1)
	expected := ratingDelta(1500, 1500, 1)
	if upset <= expected {
		t.Errorf("an upset win should gain more rating than an expected win: upset=%d expected=%d", upset, expected)
	}
}

func TestRatingDeltaLossIsNegative(t *testing.T) {
	if delta := ratingDelta(1500, 1500, 0); delta >= 0 {
		t.Errorf("a loss between equally-rated teams should produce a negative delta, got %d", delta)
	}
}
