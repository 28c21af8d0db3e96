// Per-match actor lifecycle tests
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
	"time"

	"bughouse"
)

// newTestActor starts an actor's goroutine and arranges for it to be
// shut down when the test completes.
func newTestActor(t *testing.T, countdown time.Duration) *actor {
	t.Helper()
	a := newActor("TEST01", bughouse.DefaultRules(), countdown, nil)
	go a.run()
	t.Cleanup(func() { close(a.shut) })
	return a
}

func TestActorJoinAndLeave(t *testing.T) {
	a := newTestActor(t, time.Hour)

	pid := a.Join("Alice", "")
	if pid == "" {
		t.Fatal("Join returned an empty ParticipantID")
	}

	snap := a.Snapshot()
	p, ok := snap.Participants[pid]
	if !ok {
		t.Fatalf("joined participant not present in snapshot: %+v", snap.Participants)
	}
	if p.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", p.DisplayName)
	}
	if p.Faction.Kind != bughouse.FactionRandom {
		t.Errorf("default Faction.Kind = %v, want FactionRandom", p.Faction.Kind)
	}

	a.Leave(pid)
	snap = a.Snapshot()
	if _, ok := snap.Participants[pid]; ok {
		t.Fatal("participant still present after Leave")
	}
}

func TestActorSetFactionUnknownParticipant(t *testing.T) {
	a := newTestActor(t, time.Hour)

	err := a.SetFaction("does-not-exist", bughouse.Faction{Kind: bughouse.FactionFixed, Team: 1})
	if err == nil {
		t.Fatal("expected an error for an unknown participant")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Reason != UnknownParticipant {
		t.Fatalf("expected UnknownParticipant, got %v", err)
	}
}

func TestActorReadyGateSeatsAndCountsDown(t *testing.T) {
	a := newTestActor(t, time.Hour)

	var pids []bughouse.ParticipantID
	for i := 0; i < 4; i++ {
		pids = append(pids, a.Join("p", ""))
	}

	for _, pid := range pids[:3] {
		if err := a.SetReady(pid, true); err != nil {
			t.Fatalf("SetReady: %v", err)
		}
	}
	if snap := a.Snapshot(); snap.Phase != bughouse.PhaseLobby {
		t.Fatalf("phase = %v before the last participant readies up, want PhaseLobby", snap.Phase)
	}

	if err := a.SetReady(pids[3], true); err != nil {
		t.Fatalf("SetReady: %v", err)
	}

	snap := a.Snapshot()
	if snap.Phase != bughouse.PhaseCountdown {
		t.Fatalf("phase = %v once everyone is ready, want PhaseCountdown", snap.Phase)
	}
	if snap.CountdownEndsAt == nil {
		t.Fatal("expected CountdownEndsAt to be set")
	}
	for _, pid := range pids {
		if snap.Participants[pid].Seat == nil {
			t.Errorf("participant %s was not seated", pid)
		}
	}
}

func TestActorUnreadyDuringCountdownCancelsIt(t *testing.T) {
	a := newTestActor(t, time.Hour)

	var pids []bughouse.ParticipantID
	for i := 0; i < 4; i++ {
		pids = append(pids, a.Join("p", ""))
	}
	for _, pid := range pids {
		if err := a.SetReady(pid, true); err != nil {
			t.Fatalf("SetReady: %v", err)
		}
	}
	if snap := a.Snapshot(); snap.Phase != bughouse.PhaseCountdown {
		t.Fatalf("phase = %v, want PhaseCountdown", snap.Phase)
	}

	if err := a.SetReady(pids[0], false); err != nil {
		t.Fatalf("SetReady: %v", err)
	}
	snap := a.Snapshot()
	if snap.Phase != bughouse.PhaseLobby {
		t.Errorf("phase = %v after un-readying mid-countdown, want PhaseLobby", snap.Phase)
	}
	if snap.CountdownEndsAt != nil {
		t.Error("CountdownEndsAt should be cleared once the countdown is cancelled")
	}
}

func TestActorCountdownStartsGameWithoutDeadlock(t *testing.T) {
	a := newTestActor(t, 10*time.Millisecond)

	var pids []bughouse.ParticipantID
	for i := 0; i < 4; i++ {
		pids = append(pids, a.Join("p", ""))
	}
	for _, pid := range pids {
		if err := a.SetReady(pid, true); err != nil {
			t.Fatalf("SetReady: %v", err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("match never left PhaseCountdown; startGame may be stuck")
		default:
		}
		if snap := a.Snapshot(); snap.Phase == bughouse.PhaseInGame {
			if snap.Current == nil {
				t.Fatal("PhaseInGame but Current is nil")
			}
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func TestActorApplyTurnRejectsWrongPhase(t *testing.T) {
	a := newTestActor(t, time.Hour)
	pid := a.Join("Alice", "")

	err := a.ApplyTurn(pid, bughouse.BoardA, bughouse.Turn{})
	if err == nil {
		t.Fatal("expected an error applying a turn before the game starts")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Reason != MatchNotInGame {
		t.Fatalf("expected MatchNotInGame, got %v", err)
	}
}
