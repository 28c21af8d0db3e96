// BughouseGame: two boards tied together by a shared turn log and clock
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

import (
	"fmt"
	"time"
)

// BoardStatus is the terminal (or non-terminal) state of one board in
// isolation; a bughouse game ends the instant any one board reaches a
// decisive status (§4.2).
type BoardStatus uint8

const (
	BoardOngoing BoardStatus = iota
	BoardCheckmate
	BoardStalemate
	BoardFlagged
	BoardResigned
	BoardKingCaptured // Koedem only
	BoardInsufficientMaterial
)

func (s BoardStatus) String() string {
	switch s {
	case BoardOngoing:
		return "Ongoing"
	case BoardCheckmate:
		return "Checkmate"
	case BoardStalemate:
		return "Stalemate"
	case BoardFlagged:
		return "Flagged"
	case BoardResigned:
		return "Resigned"
	case BoardKingCaptured:
		return "KingCaptured"
	case BoardInsufficientMaterial:
		return "InsufficientMaterial"
	default:
		return "Unknown"
	}
}

// decisive reports whether a BoardStatus ends the whole bughouse game:
// checkmate, flag fall, resignation and king capture do. Stalemate and
// insufficient material are recorded as the board's result without
// ending the game; that board then accepts no further turns, and the
// game goes on until the other board reaches a decisive result.
func (s BoardStatus) decisive() bool {
	switch s {
	case BoardCheckmate, BoardFlagged, BoardResigned, BoardKingCaptured:
		return true
	default:
		return false
	}
}

// BoardResult records how one board concluded, and who (if anyone) it
// favours.
type BoardResult struct {
	Status BoardStatus
	Winner Side // meaningful only when Status.decisive()
}

// GameStatus is the bughouse-level outcome: the first board to reach
// a decisive BoardResult decides the whole game for both teams
// (§4.2, §9 Design Notes).
type GameStatus uint8

const (
	GameInProgress GameStatus = iota
	GameTeamOneWins
	GameTeamTwoWins
	GameDrawn
)

func (s GameStatus) String() string {
	switch s {
	case GameInProgress:
		return "InProgress"
	case GameTeamOneWins:
		return "TeamOneWins"
	case GameTeamTwoWins:
		return "TeamTwoWins"
	case GameDrawn:
		return "Drawn"
	default:
		return "Unknown"
	}
}

// Archived is set by the match coordinator once a concluded game's
// result has been persisted (spec.md §3 BughouseGame.Status
// "Archive"); BughouseGame itself never sets this, and Archived never
// overwrites which team won.
func (g *BughouseGame) Archive() { g.Archived = true }

// teamOf reports which of the two bughouse teams a (board, side) seat
// belongs to. Team one holds White on BoardA and Black on BoardB;
// team two holds the mirrored pair. These are exactly the two
// partner-linked pairs PlayerSlot.Partner() produces.
func teamOf(board BoardID, side Side) int {
	if (board == BoardA) == (side == White) {
		return 1
	}
	return 2
}

// BughouseGame ties two Boards together with one shared TurnLog and
// Clock: the central authority the MatchCoordinator drives (§3, §4.2).
type BughouseGame struct {
	Rules Rules

	boards map[BoardID]*Board
	initial map[BoardID]*Board // kept for wayback replay
	Log   *TurnLog
	Clock *Clock

	results  map[BoardID]BoardResult
	Status   GameStatus
	Archived bool
	EndedAt  time.Time
}

// NewBughouseGame starts both boards from the same rules (and, under
// Fischer-random, the same seed) so the two boards mirror (§4.1, §8
// scenario 5).
func NewBughouseGame(rules Rules, now time.Time) *BughouseGame {
	a := MakeStartingBoard(rules)
	b := MakeStartingBoard(rules)
	g := &BughouseGame{
		Rules:   rules,
		boards:  map[BoardID]*Board{BoardA: a, BoardB: b},
		initial: map[BoardID]*Board{BoardA: a.Clone(), BoardB: b.Clone()},
		Log:     NewTurnLog(),
		Clock:   NewClock(rules, now),
		results: map[BoardID]BoardResult{},
		Status:  GameInProgress,
	}
	return g
}

func (g *BughouseGame) Board(id BoardID) *Board { return g.boards[id] }

// ApplyTurn validates and applies a turn submitted for one board. It
// folds in the cross-board reserve transfer for promotion-by-steal and
// for any capture (the captured piece always credits the partner's
// reserve on the other board, never the capturer's own), advances the
// clock once a half move actually completes (Duck chess defers this
// until the duck half lands), appends to the shared TurnLog, and
// re-evaluates both the board's and the game's status (§4.1, §4.2,
// §4.3).
func (g *BughouseGame) ApplyTurn(board BoardID, t Turn, now time.Time) error {
	if g.Status != GameInProgress {
		return RejectError(Illegal, "game has already ended")
	}
	b := g.boards[board]
	if r, ok := g.results[board]; ok && r.Status != BoardOngoing {
		return RejectError(Illegal, "board %s has already concluded", board)
	}

	mover := b.Active
	wasAwaitingDuck := b.AwaitingDuck

	if t.Kind == MoveTurn && t.Steal && t.Promotion != NoPiece {
		if err := g.resolveSteal(board, t); err != nil {
			return err
		}
	}

	nb, err := b.TryApply(t, g.Rules)
	if err != nil {
		return err
	}
	g.boards[board] = nb
	if nb.LastCaptured != nil {
		g.creditPartner(board, mover, *nb.LastCaptured)
	}
	g.Log.Append(board, t, now)

	halfMoveCompleted := !nb.AwaitingDuck
	if halfMoveCompleted && (t.Kind != PlaceDuckTurn || wasAwaitingDuck) {
		g.Clock.OnTurnMade(board, mover, now)
	}

	g.evaluateBoard(board, now)
	return nil
}

// creditPartner deposits a piece captured by (board, capturer) into
// the reserve of the teammate who actually gets to drop it: the
// opposite side on the other board (PlayerSlot.Partner(), §4.2, §9 "reserves
// are fed by the partner board's captures").
func (g *BughouseGame) creditPartner(board BoardID, capturer Side, captured Piece) {
	partner := PlayerSlot{Board: board, Side: capturer}.Partner()
	addCaptured(g.boards[partner.Board].Reserve[partner.Side], captured, g.Rules.Koedem)
}

// resolveSteal converts a same-kind friendly piece on the partner
// board to a Pawn, the piece whose kind the promotion takes; no
// reserve is involved (§3 Piece promotion origin,
// resolved in DESIGN.md "promotion by steal").
func (g *BughouseGame) resolveSteal(board BoardID, t Turn) error {
	partnerBoard := t.StealBoard
	pb := g.boards[partnerBoard]
	side := g.boards[board].Active
	found := false
	for sq, p := range pb.Grid {
		if p.Side == side && p.Kind == t.Promotion {
			pb.Grid[sq] = Piece{Kind: Pawn, Side: side, FromPromotion: true}
			found = true
			break
		}
	}
	if !found {
		return RejectError(NeedsStealTarget, "no %s of %s available to steal on board %s", t.Promotion, side, partnerBoard)
	}
	return nil
}

// evaluateBoard recomputes one board's BoardResult after a turn and,
// if it is decisive, ends the whole game.
func (g *BughouseGame) evaluateBoard(board BoardID, now time.Time) {
	b := g.boards[board]
	res := BoardResult{Status: BoardOngoing}

	if side, captured := b.KingCaptured(); captured && g.Rules.Koedem {
		res = BoardResult{Status: BoardKingCaptured, Winner: side.Other()}
	} else {
		legal := b.LegalTurns(g.Rules)
		inCheck := !g.Rules.Duck && !g.Rules.Fog && b.InCheck(b.Active)
		switch {
		case len(legal) == 0 && inCheck:
			res = BoardResult{Status: BoardCheckmate, Winner: b.Active.Other()}
		case len(legal) == 0 && !g.Rules.Duck:
			res = BoardResult{Status: BoardStalemate}
		case b.MaterialInsufficient():
			res = BoardResult{Status: BoardInsufficientMaterial}
		}
	}

	g.results[board] = res
	if res.Status.decisive() {
		g.conclude(board, res, now)
	}
}

// Flag advances the clock to `now` and ends any board whose time has
// expired. Tick already reports flagged slots in (BoardA before
// BoardB) order, so a simultaneous flag fall on both boards ties to
// board A per §4.2's tie-break rule, since conclude only acts on the
// first decisive result and ignores the rest.
func (g *BughouseGame) Flag(now time.Time) {
	if g.Status != GameInProgress {
		return
	}
	for _, slot := range g.Clock.Tick(now) {
		if r := g.results[slot.Board]; r.Status != BoardOngoing {
			continue
		}
		res := BoardResult{Status: BoardFlagged, Winner: slot.Side.Other()}
		g.results[slot.Board] = res
		g.conclude(slot.Board, res, now)
		if g.Status != GameInProgress {
			return
		}
	}
}

// Resign ends a board immediately in favour of the resigning side's
// opponent. It is called for an explicit Resign action; a disconnect
// does not call it.
func (g *BughouseGame) Resign(board BoardID, side Side, now time.Time) {
	if g.Status != GameInProgress {
		return
	}
	if r := g.results[board]; r.Status != BoardOngoing {
		return
	}
	res := BoardResult{Status: BoardResigned, Winner: side.Other()}
	g.results[board] = res
	g.conclude(board, res, now)
}

func (g *BughouseGame) conclude(board BoardID, res BoardResult, now time.Time) {
	g.Clock.Stop(BoardA, now)
	g.Clock.Stop(BoardB, now)
	g.EndedAt = now
	switch teamOf(board, res.Winner) {
	case 1:
		g.Status = GameTeamOneWins
	case 2:
		g.Status = GameTeamTwoWins
	default:
		g.Status = GameDrawn
	}
}

// BoardResult reports how a board concluded, or BoardOngoing if it
// has not.
func (g *BughouseGame) BoardResult(board BoardID) BoardResult {
	return g.results[board]
}

// WaybackView replays both boards up to and including a given global
// turn-log sequence number, for spectators or reconnecting clients
// scrubbing history (§4.2 "wayback").
func (g *BughouseGame) WaybackView(uptoSeq int) (map[BoardID]*Board, error) {
	boards := map[BoardID]*Board{
		BoardA: g.initial[BoardA].Clone(),
		BoardB: g.initial[BoardB].Clone(),
	}
	for _, entry := range g.Log.Prefix(uptoSeq) {
		mover := boards[entry.Board].Active
		nb, err := boards[entry.Board].TryApply(entry.Turn, g.Rules)
		if err != nil {
			return nil, Fatalf("wayback replay diverged at seq %d: %v", entry.Seq, err)
		}
		boards[entry.Board] = nb
		if nb.LastCaptured != nil {
			partner := PlayerSlot{Board: entry.Board, Side: mover}.Partner()
			addCaptured(boards[partner.Board].Reserve[partner.Side], *nb.LastCaptured, g.Rules.Koedem)
		}
	}
	return boards, nil
}

// WaybackViewAt is WaybackView addressed by the per-board TurnIndex
// the wire protocol and a participant's wayback cursor use, rather
// than the internal global sequence number (§6 WaybackTo).
func (g *BughouseGame) WaybackViewAt(idx TurnIndex) (map[BoardID]*Board, error) {
	seq, ok := g.Log.SeqForIndex(idx)
	if !ok {
		return nil, Ignorablef("no turn at %s", idx)
	}
	return g.WaybackView(seq)
}

func (g *BughouseGame) String() string {
	return fmt.Sprintf("BughouseGame{status=%s, turns=%d}", g.Status, g.Log.Len())
}
