// MatchView wire projection tests
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

package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"bughouse"
)

func TestMatchViewRoundTripsParticipantsAndHistory(t *testing.T) {
	rating := bughouse.Elo(1500)
	m := &bughouse.Match{
		ID:    "ABCD",
		Rules: bughouse.Rules{},
		Participants: map[bughouse.ParticipantID]*bughouse.Participant{
			"p1": {ID: "p1", DisplayName: "Alice", Faction: bughouse.Faction{Kind: bughouse.FactionFixed, Team: 1}, Rating: &rating},
		},
		History: []bughouse.GameOutcome{
			{
				GameIndex: 0,
				Status:    bughouse.GameTeamOneWins,
				Results: map[bughouse.BoardID]bughouse.BoardResult{
					bughouse.BoardA: {Status: bughouse.BoardCheckmate, Winner: bughouse.White},
				},
			},
		},
		Phase: bughouse.PhaseLobby,
	}

	view := NewMatchView(m, time.Now())
	if view.Game != nil {
		t.Fatalf("expected no Game view for a match with no running game, got %+v", view.Game)
	}

	buf, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got MatchView
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p, ok := got.Participants["p1"]
	if !ok {
		t.Fatalf("participant p1 missing after round-trip: %+v", got.Participants)
	}
	if p.DisplayName != "Alice" || p.Faction.Team != 1 {
		t.Errorf("participant round-tripped wrong: %+v", p)
	}
	if len(got.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(got.History))
	}
	result, ok := got.History[0].Results[bughouse.BoardA]
	if !ok {
		t.Fatalf("BoardA result missing after round-trip (BoardID map key marshalling): %+v", got.History[0].Results)
	}
	if result.Winner != bughouse.White {
		t.Errorf("winner = %v, want White", result.Winner)
	}
}
