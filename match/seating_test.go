// Seating algorithm tests
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

func participant(id bughouse.ParticipantID, kind bughouse.FactionKind, team int) *bughouse.Participant {
	return &bughouse.Participant{ID: id, Faction: bughouse.Faction{Kind: kind, Team: team}}
}

func TestSeatFillsFourRandomParticipants(t *testing.T) {
	ps := map[bughouse.ParticipantID]*bughouse.Participant{
		"a": participant("a", bughouse.FactionRandom, 0),
		"b": participant("b", bughouse.FactionRandom, 0),
		"c": participant("c", bughouse.FactionRandom, 0),
		"d": participant("d", bughouse.FactionRandom, 0),
	}

	assignment, err := seat(ps)
	if err != nil {
		t.Fatalf("seat: %v", err)
	}
	if len(assignment) != 4 {
		t.Fatalf("expected 4 seated participants, got %d", len(assignment))
	}
	seen := map[bughouse.PlayerSlot]bool{}
	for _, slot := range assignment {
		seen[slot] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct seats filled, got %d: %+v", len(seen), seen)
	}
}

func TestSeatHonoursFixedTeamPreference(t *testing.T) {
	ps := map[bughouse.ParticipantID]*bughouse.Participant{
		"a": participant("a", bughouse.FactionFixed, 1),
		"b": participant("b", bughouse.FactionFixed, 1),
		"c": participant("c", bughouse.FactionRandom, 0),
		"d": participant("d", bughouse.FactionRandom, 0),
	}

	assignment, err := seat(ps)
	if err != nil {
		t.Fatalf("seat: %v", err)
	}
	if assignment["a"] != seats[0] && assignment["a"] != seats[1] {
		t.Errorf("fixed team-1 participant a got slot %+v, want one of team 1's seats", assignment["a"])
	}
	if assignment["b"] != seats[0] && assignment["b"] != seats[1] {
		t.Errorf("fixed team-1 participant b got slot %+v, want one of team 1's seats", assignment["b"])
	}
}

func TestSeatRejectsOvercommittedFixedTeam(t *testing.T) {
	ps := map[bughouse.ParticipantID]*bughouse.Participant{
		"a": participant("a", bughouse.FactionFixed, 1),
		"b": participant("b", bughouse.FactionFixed, 1),
		"c": participant("c", bughouse.FactionFixed, 1),
		"d": participant("d", bughouse.FactionRandom, 0),
	}

	_, err := seat(ps)
	if err == nil {
		t.Fatal("expected an error when three participants insist on the same fixed team")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Reason != IncompatibleTeams {
		t.Fatalf("expected IncompatibleTeams, got %v", err)
	}
}

func TestSeatBenchesAndAgesLeftoverParticipants(t *testing.T) {
	ps := map[bughouse.ParticipantID]*bughouse.Participant{
		"a": participant("a", bughouse.FactionRandom, 0),
		"b": participant("b", bughouse.FactionRandom, 0),
		"c": participant("c", bughouse.FactionRandom, 0),
		"d": participant("d", bughouse.FactionRandom, 0),
		"e": participant("e", bughouse.FactionRandom, 0),
	}
	ps["e"].BenchAge = 3

	assignment, err := seat(ps)
	if err != nil {
		t.Fatalf("seat: %v", err)
	}
	if _, seated := assignment["e"]; !seated {
		t.Error("expected the highest-BenchAge participant to be seated first")
	}
	if ps["e"].BenchAge != 0 {
		t.Errorf("seated participant's BenchAge should reset to 0, got %d", ps["e"].BenchAge)
	}

	benchedCount := 0
	for id, p := range ps {
		if _, seated := assignment[id]; !seated {
			benchedCount++
			if p.BenchAge != 1 {
				t.Errorf("benched participant %s BenchAge = %d, want 1", id, p.BenchAge)
			}
		}
	}
	if benchedCount != 1 {
		t.Fatalf("expected exactly 1 participant left benched, got %d", benchedCount)
	}
}

func TestSeatNotEnoughParticipants(t *testing.T) {
	ps := map[bughouse.ParticipantID]*bughouse.Participant{
		"a": participant("a", bughouse.FactionRandom, 0),
		"b": participant("b", bughouse.FactionRandom, 0),
	}

	_, err := seat(ps)
	if err == nil {
		t.Fatal("expected an error with only 2 willing participants")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Reason != NotSeated {
		t.Fatalf("expected NotSeated, got %v", err)
	}
}
