// Per-match event loop
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
	"context"
	"time"

	"bughouse"
	"bughouse/conf"
	"bughouse/notation"

	"github.com/google/uuid"
)

// Actor is the command surface a ClientSession drives a live match
// through; every method is synchronous and serialised onto the
// match's own goroutine (§5).
type Actor interface {
	Join(displayName, userID string) bughouse.ParticipantID
	Leave(pid bughouse.ParticipantID)
	SetFaction(pid bughouse.ParticipantID, f bughouse.Faction) error
	ChangeFactionInGame(pid bughouse.ParticipantID, f bughouse.Faction) error
	SetReady(pid bughouse.ParticipantID, ready bool) error
	ApplyTurn(pid bughouse.ParticipantID, board bughouse.BoardID, t bughouse.Turn) error
	CancelPreturn(pid bughouse.ParticipantID, board bughouse.BoardID) error
	Resign(pid bughouse.ParticipantID, board bughouse.BoardID) error
	ToggleSharedWayback(pid bughouse.ParticipantID) error
	WaybackTo(pid bughouse.ParticipantID, idx *bughouse.TurnIndex) error
	Snapshot() bughouse.Match
}

// clockTickInterval is how often an actor re-checks both boards'
// clocks for a flag fall while a game is running (§4.3, §5
// "clock-tick timer" suspension point).
const clockTickInterval = 100 * time.Millisecond

// actor runs one Match's single-threaded cooperative event loop
// (§5 "the server runs a single-threaded cooperative event loop per
// match"), grounded on the teacher's sched/fifo.go select loop: a
// goroutine owns all mutable state and every external operation is a
// closure submitted over a channel instead of the fifo's fixed
// add/remove channel pair, since a MatchCoordinator has many more
// distinct operations than a bot queue does.
type actor struct {
	match *bughouse.Match

	cmds chan func()
	shut chan struct{}

	countdown *time.Timer
	countdownC <-chan time.Time

	countdownPeriod time.Duration
	db              conf.DatabaseManager
}

func newActor(id bughouse.MatchID, rules bughouse.Rules, countdownPeriod time.Duration, db conf.DatabaseManager) *actor {
	return &actor{
		match: &bughouse.Match{
			ID:           id,
			Rules:        rules,
			Participants: make(map[bughouse.ParticipantID]*bughouse.Participant),
			Phase:        bughouse.PhaseLobby,
		},
		cmds:            make(chan func(), 16),
		shut:            make(chan struct{}),
		countdownPeriod: countdownPeriod,
		db:              db,
	}
}

func (a *actor) String() string { return "match " + string(a.match.ID) }

// run is the actor's goroutine body; every read or write of a.match
// happens here, never from a caller goroutine directly.
func (a *actor) run() {
	ticker := time.NewTicker(clockTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.shut:
			return
		case cmd := <-a.cmds:
			cmd()
		case <-a.countdownTick():
			a.startGame()
		case <-ticker.C:
			a.tickClock()
		}
	}
}

// countdownTick returns the active countdown timer's channel, or nil
// (which blocks forever in a select) when no countdown is running.
func (a *actor) countdownTick() <-chan time.Time {
	if a.countdown == nil {
		return nil
	}
	return a.countdownC
}

func (a *actor) tickClock() {
	if a.match.Phase != bughouse.PhaseInGame || a.match.Current == nil {
		return
	}
	a.match.Current.Flag(time.Now())
	if a.match.Current.Status != bughouse.GameInProgress {
		a.concludeGame()
	}
}

// do submits a closure to the actor's goroutine and blocks until it
// has run, giving callers synchronous request/response semantics over
// the single-threaded loop.
func (a *actor) do(f func()) {
	done := make(chan struct{})
	a.cmds <- func() {
		f()
		close(done)
	}
	<-done
}

func (a *actor) Snapshot() bughouse.Match {
	var m bughouse.Match
	a.do(func() { m = *a.match })
	return m
}

// Join registers a new or reconnecting participant. A userID already
// seated under a different live ParticipantID is not resolved here;
// that identity binding is the server package's job (§4.6
// "JoinedInAnotherClient").
func (a *actor) Join(displayName, userID string) bughouse.ParticipantID {
	var id bughouse.ParticipantID
	a.do(func() {
		id = bughouse.ParticipantID(uuid.NewString())
		a.match.Participants[id] = &bughouse.Participant{
			ID:          id,
			DisplayName: displayName,
			UserID:      userID,
			Faction:     bughouse.Faction{Kind: bughouse.FactionRandom},
		}
	})
	return id
}

// Leave removes a participant; per §4.5's PostGame transition, a
// PostGame match with no one left drops back to Lobby rather than
// waiting for a countdown no one can complete.
func (a *actor) Leave(pid bughouse.ParticipantID) {
	a.do(func() {
		delete(a.match.Participants, pid)
		if a.match.Phase == bughouse.PhasePostGame && len(a.match.Participants) == 0 {
			a.match.Phase = bughouse.PhaseLobby
		}
	})
}

func (a *actor) SetFaction(pid bughouse.ParticipantID, f bughouse.Faction) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		p.Faction = f
	})
	return err
}

// ChangeFactionInGame lets a participant change their seating
// preference while a game is already running, rather than only in
// the Lobby. It takes effect the same way SetFaction does: the
// current game's seats are untouched, and the new preference is
// picked up the next time the coordinator seats a game (§4.5
// seating). The wire protocol carries this as a distinct event from
// SetFaction only because a client would otherwise have to infer
// whether a faction change during PhaseInGame is legal.
func (a *actor) ChangeFactionInGame(pid bughouse.ParticipantID, f bughouse.Faction) error {
	return a.SetFaction(pid, f)
}

// SetReady flags a participant ready or un-ready and drives the
// Lobby/Countdown/InGame/PostGame state machine (§4.5).
func (a *actor) SetReady(pid bughouse.ParticipantID, ready bool) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		p.Ready = ready

		switch a.match.Phase {
		case bughouse.PhaseCountdown:
			if !ready {
				a.cancelCountdown()
				a.match.Phase = bughouse.PhaseLobby
			}
		case bughouse.PhaseLobby, bughouse.PhasePostGame:
			if ready {
				err = a.maybeOpenGate()
			}
		}
	})
	return err
}

// maybeOpenGate seats the next game and starts the countdown once
// every non-observer participant is ready and at least four are
// available to seat (§4.5 "Ready gate").
func (a *actor) maybeOpenGate() error {
	var nonObservers int
	for _, p := range a.match.Participants {
		if p.Faction.Kind == bughouse.FactionObserver {
			continue
		}
		nonObservers++
		if !p.Ready {
			return nil
		}
	}
	if nonObservers < 4 {
		return nil
	}

	assignment, err := seat(a.match.Participants)
	if err != nil {
		return err
	}
	for id, p := range a.match.Participants {
		if slot, ok := assignment[id]; ok {
			s := slot
			p.Seat = &s
		} else {
			p.Seat = nil
		}
	}

	a.match.Phase = bughouse.PhaseCountdown
	deadline := time.Now().Add(a.countdownPeriod).UnixMilli()
	a.match.CountdownEndsAt = &deadline
	a.countdown = time.NewTimer(a.countdownPeriod)
	a.countdownC = a.countdown.C
	return nil
}

func (a *actor) cancelCountdown() {
	if a.countdown != nil {
		a.countdown.Stop()
		a.countdown = nil
		a.countdownC = nil
	}
	a.match.CountdownEndsAt = nil
}

// startGame must be called from inside the actor goroutine: it runs
// directly off run()'s countdown-timer case, not through do, since do
// would submit to a.cmds and block waiting for this same goroutine to
// drain it.
func (a *actor) startGame() {
	a.countdown = nil
	a.countdownC = nil
	a.match.CountdownEndsAt = nil
	a.match.Phase = bughouse.PhaseInGame
	a.match.Current = bughouse.NewBughouseGame(a.match.Rules, time.Now())
	a.match.SharedWaybackOn = false
	a.match.SharedWayback = nil
	for _, p := range a.match.Participants {
		p.Preturn = nil
		p.Wayback = nil
	}
}

// ApplyTurn validates that pid owns the seat whose turn it is on
// board before handing the turn to the authoritative BughouseGame. If
// it is not yet pid's move, the turn is instead queued as a preturn
// when it passes a shape check, and silently held until the move
// becomes playable (§4.4).
func (a *actor) ApplyTurn(pid bughouse.ParticipantID, board bughouse.BoardID, t bughouse.Turn) error {
	var err error
	a.do(func() {
		if a.match.Phase != bughouse.PhaseInGame || a.match.Current == nil {
			err = reject(MatchNotInGame, "match %s is not in game", a.match.ID)
			return
		}
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		if p.Seat == nil || p.Seat.Board != board {
			err = reject(NotSeated, "%s is not seated on board %s", pid, board)
			return
		}
		if p.Seat.Side != a.match.Current.Board(board).Active {
			if !a.match.Current.Board(board).ShapeValid(t, p.Seat.Side, a.match.Rules) {
				err = reject(NotYourTurn, "%s to move on board %s", a.match.Current.Board(board).Active, board)
				return
			}
			p.Preturn = &bughouse.Preturn{Board: board, Turn: t}
			return
		}
		if err = a.applyTurnNow(board, t); err != nil {
			return
		}
		a.reconcilePreturns(board)
	})
	return err
}

// applyTurnNow hands an already-current turn to the BughouseGame and
// concludes the game if that was its last move. Shared by the direct
// ApplyTurn path and preturn reconciliation below.
func (a *actor) applyTurnNow(board bughouse.BoardID, t bughouse.Turn) error {
	if err := a.match.Current.ApplyTurn(board, t, time.Now()); err != nil {
		return err
	}
	if a.match.Current.Status != bughouse.GameInProgress {
		a.concludeGame()
	}
	return nil
}

// reconcilePreturns attempts the queued preturn, if any, belonging to
// whoever's move it now is on board, the instant that move becomes
// playable (§4.4, §8 scenario 2). A preturn that no longer applies —
// wrong shape against the real board, referenced piece gone, rejected
// for any reason — is silently dropped rather than retried.
func (a *actor) reconcilePreturns(board bughouse.BoardID) {
	if a.match.Current == nil || a.match.Current.Status != bughouse.GameInProgress {
		return
	}
	active := a.match.Current.Board(board).Active
	for _, p := range a.match.Participants {
		if p.Preturn == nil || p.Preturn.Board != board {
			continue
		}
		if p.Seat == nil || p.Seat.Side != active {
			continue
		}
		pt := p.Preturn
		p.Preturn = nil
		if a.applyTurnNow(board, pt.Turn) == nil {
			a.reconcilePreturns(board)
		}
		return
	}
}

// CancelPreturn drops pid's queued preturn for board, if any. A
// participant leaving cancels theirs implicitly, since Leave removes
// the whole Participant (§5 Cancellation).
func (a *actor) CancelPreturn(pid bughouse.ParticipantID, board bughouse.BoardID) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		if p.Preturn != nil && p.Preturn.Board == board {
			p.Preturn = nil
		}
	})
	return err
}

// ToggleSharedWayback flips the match's shared-history-scrubbing mode
// (§9 Design Notes). Turning it on seeds the shared cursor from pid's
// own current cursor (nil, i.e. "live", if pid was not scrubbing);
// turning it off releases everyone back to their own cursors.
func (a *actor) ToggleSharedWayback(pid bughouse.ParticipantID) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		a.match.SharedWaybackOn = !a.match.SharedWaybackOn
		if a.match.SharedWaybackOn {
			a.match.SharedWayback = p.Wayback
		} else {
			a.match.SharedWayback = nil
		}
	})
	return err
}

// WaybackTo moves pid's history cursor to idx (nil returns to the
// live position). While shared mode is on this moves the one shared
// cursor for every participant instead of pid's own.
func (a *actor) WaybackTo(pid bughouse.ParticipantID, idx *bughouse.TurnIndex) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		if a.match.SharedWaybackOn {
			a.match.SharedWayback = idx
		} else {
			p.Wayback = idx
		}
	})
	return err
}

func (a *actor) Resign(pid bughouse.ParticipantID, board bughouse.BoardID) error {
	var err error
	a.do(func() {
		p, ok := a.match.Participants[pid]
		if !ok {
			err = reject(UnknownParticipant, "%s", pid)
			return
		}
		if a.match.Phase != bughouse.PhaseInGame || a.match.Current == nil || p.Seat == nil {
			return
		}
		a.match.Current.Resign(board, p.Seat.Side, time.Now())
		if a.match.Current.Status != bughouse.GameInProgress {
			a.concludeGame()
		}
	})
	return err
}

// concludeGame must be called from inside the actor goroutine. It
// records the finished game's outcome, applies rating updates, and
// hands persistence off to a background goroutine since §5 keeps
// storage off the critical path.
func (a *actor) concludeGame() {
	g := a.match.Current
	a.match.Phase = bughouse.PhasePostGame
	for _, p := range a.match.Participants {
		p.Ready = false
	}

	bpgn, err := notation.FormatBPGN(g, a.match.Rules)
	if err != nil {
		bughouse.Debug.Printf("bpgn export failed for match %s: %v", a.match.ID, err)
	}

	results := map[bughouse.BoardID]bughouse.BoardResult{
		bughouse.BoardA: g.BoardResult(bughouse.BoardA),
		bughouse.BoardB: g.BoardResult(bughouse.BoardB),
	}
	outcome := bughouse.GameOutcome{
		GameIndex: len(a.match.History),
		Status:    g.Status,
		Results:   results,
		BPGN:      bpgn,
	}
	a.match.History = append(a.match.History, outcome)

	ratingsBefore, ratingsAfter := a.applyRatings(g.Status)
	g.Archive()

	if a.db != nil {
		matchID, index, endedAt := a.match.ID, outcome.GameIndex, g.EndedAt.UnixMilli()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.db.SaveGame(ctx, matchID, index, bpgn, g.Status, ratingsBefore, ratingsAfter, endedAt); err != nil {
				bughouse.Debug.Printf("save game failed for match %s: %v", matchID, err)
			}
		}()
	}
}

// applyRatings updates every rated seated participant's Elo in place
// and returns the before/after snapshots SaveGame persists (§4.5
// "Rating updates", only when Rules.Rated).
func (a *actor) applyRatings(status bughouse.GameStatus) (before, after map[bughouse.ParticipantID]bughouse.Elo) {
	before = map[bughouse.ParticipantID]bughouse.Elo{}
	after = map[bughouse.ParticipantID]bughouse.Elo{}
	if !a.match.Rules.Rated || status == bughouse.GameInProgress {
		return before, after
	}

	var team1, team2 [2]*bughouse.Elo
	var team1IDs, team2IDs []bughouse.ParticipantID
	for id, p := range a.match.Participants {
		if p.Seat == nil {
			continue
		}
		before[id] = ratingOf(p)
		slotTeam := 1
		if (p.Seat.Board == bughouse.BoardA) != (p.Seat.Side == bughouse.White) {
			slotTeam = 2
		}
		if slotTeam == 1 {
			team1IDs = append(team1IDs, id)
		} else {
			team2IDs = append(team2IDs, id)
		}
	}
	for i, id := range team1IDs {
		if i < 2 {
			team1[i] = a.match.Participants[id].Rating
		}
	}
	for i, id := range team2IDs {
		if i < 2 {
			team2[i] = a.match.Participants[id].Rating
		}
	}

	r1, r2 := teamRating(team1), teamRating(team2)
	var score1 float64
	switch status {
	case bughouse.GameTeamOneWins:
		score1 = 1
	case bughouse.GameTeamTwoWins:
		score1 = 0
	case bughouse.GameDrawn:
		score1 = 0.5
	}
	delta1 := ratingDelta(r1, r2, score1)
	delta2 := ratingDelta(r2, r1, 1-score1)

	for _, id := range team1IDs {
		applyDelta(a.match.Participants[id], delta1)
		after[id] = ratingOf(a.match.Participants[id])
	}
	for _, id := range team2IDs {
		applyDelta(a.match.Participants[id], delta2)
		after[id] = ratingOf(a.match.Participants[id])
	}
	return before, after
}

func ratingOf(p *bughouse.Participant) bughouse.Elo {
	if p.Rating == nil {
		return 1500
	}
	return *p.Rating
}

func applyDelta(p *bughouse.Participant, delta int) {
	r := ratingOf(p) + bughouse.Elo(delta)
	p.Rating = &r
}
