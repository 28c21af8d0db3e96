// Seating algorithm
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
	"sort"

	"bughouse"
)

// seats lists the four (board, side) slots in the fixed team order
// teamOf assigns: the first two belong to team 1, the last two to
// team 2 (mirrors game.go's unexported teamOf, duplicated here as the
// plain arithmetic it is since that helper is not exported).
var seats = [4]bughouse.PlayerSlot{
	{Board: bughouse.BoardA, Side: bughouse.White}, // team 1
	{Board: bughouse.BoardB, Side: bughouse.Black}, // team 1
	{Board: bughouse.BoardA, Side: bughouse.Black}, // team 2
	{Board: bughouse.BoardB, Side: bughouse.White}, // team 2
}

// seat decides who plays the next game among non-observer
// participants (§4.5 "Seating"). It returns the four chosen
// participants' seat assignments; every other non-observer has its
// BenchAge incremented in place. Seated participants have their
// BenchAge reset to 0. A participant roster with more than two
// FactionFixed participants preferring the same team is rejected with
// IncompatibleTeams, since that team only has two seats.
func seat(participants map[bughouse.ParticipantID]*bughouse.Participant) (map[bughouse.ParticipantID]bughouse.PlayerSlot, error) {
	var fixed1, fixed2, random []*bughouse.Participant
	for _, p := range participants {
		if p.Faction.Kind == bughouse.FactionObserver {
			continue
		}
		switch {
		case p.Faction.Kind == bughouse.FactionFixed && p.Faction.Team == 1:
			fixed1 = append(fixed1, p)
		case p.Faction.Kind == bughouse.FactionFixed && p.Faction.Team == 2:
			fixed2 = append(fixed2, p)
		default:
			random = append(random, p)
		}
	}
	if len(fixed1) > 2 || len(fixed2) > 2 {
		return nil, reject(IncompatibleTeams, "team has %d/%d fixed participants, only 2 seats available", len(fixed1), len(fixed2))
	}

	byBenchAge := func(ps []*bughouse.Participant) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].BenchAge > ps[j].BenchAge })
	}
	byBenchAge(random)

	need1, need2 := 2-len(fixed1), 2-len(fixed2)
	if need1 < 0 || need2 < 0 {
		return nil, reject(IncompatibleTeams, "team overcommitted")
	}

	var fillFor1, fillFor2 []*bughouse.Participant
	i := 0
	for ; i < len(random) && len(fillFor1) < need1; i++ {
		fillFor1 = append(fillFor1, random[i])
	}
	for ; i < len(random) && len(fillFor2) < need2; i++ {
		fillFor2 = append(fillFor2, random[i])
	}
	team1 := append(append([]*bughouse.Participant{}, fixed1...), fillFor1...)
	team2 := append(append([]*bughouse.Participant{}, fixed2...), fillFor2...)
	if len(team1) < 2 || len(team2) < 2 {
		// Not enough willing participants to fill both teams this
		// round; everyone stays benched and the lobby waits.
		for _, p := range participants {
			if p.Faction.Kind != bughouse.FactionObserver {
				p.BenchAge++
			}
		}
		return nil, reject(NotSeated, "only %d+%d of 4 seats fillable", len(team1), len(team2))
	}

	sortByID := func(ps []*bughouse.Participant) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
	}
	sortByID(team1)
	sortByID(team2)

	assignment := map[bughouse.ParticipantID]bughouse.PlayerSlot{
		team1[0].ID: seats[0],
		team1[1].ID: seats[1],
		team2[0].ID: seats[2],
		team2[1].ID: seats[3],
	}

	seatedIDs := make(map[bughouse.ParticipantID]bool, 4)
	for id := range assignment {
		seatedIDs[id] = true
	}
	for _, p := range participants {
		if p.Faction.Kind == bughouse.FactionObserver {
			continue
		}
		if seatedIDs[p.ID] {
			p.BenchAge = 0
		} else {
			p.BenchAge++
		}
	}

	return assignment, nil
}
