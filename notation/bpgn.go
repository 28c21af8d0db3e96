// BPGN (bughouse Portable Game Notation) export and import.
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

package notation

import (
	"fmt"
	"strconv"
	"strings"

	"bughouse"
)

// FormatBPGN renders a finished or in-progress BughouseGame as two
// linked PGN sections, one per board, with `{[%bug ...]}` annotations
// marking reserve transfers so a reader (or ParseBPGN) can reconstruct
// which capture fed which partner's reserve (§6 "BPGN export").
func FormatBPGN(g *bughouse.BughouseGame, rules bughouse.Rules) (string, error) {
	var out strings.Builder

	for _, board := range []bughouse.BoardID{bughouse.BoardA, bughouse.BoardB} {
		fmt.Fprintf(&out, "[Board %q]\n", board.String())
		fmt.Fprintf(&out, "[Result %q]\n\n", resultTag(g, board))

		cur := bughouse.MakeStartingBoard(rules)
		moveNo := 1
		firstOfPair := true
		for _, entry := range g.Log.Entries() {
			if entry.Board != board {
				continue
			}
			text, err := FormatAlgebraic(cur, rules, entry.Turn)
			if err != nil {
				return "", err
			}
			if firstOfPair {
				fmt.Fprintf(&out, "%d. %s", moveNo, text)
			} else {
				fmt.Fprintf(&out, " %s", text)
				moveNo++
			}
			if annotation := bugAnnotation(cur, entry.Turn); annotation != "" {
				fmt.Fprintf(&out, " {[%%bug %s]}", annotation)
			}
			nb, err := cur.TryApply(entry.Turn, rules)
			if err != nil {
				return "", bughouse.Fatalf("bpgn export replay diverged at seq %d: %v", entry.Seq, err)
			}
			cur = nb
			if firstOfPair {
				out.WriteByte(' ')
			} else {
				out.WriteByte(' ')
			}
			firstOfPair = !firstOfPair
		}
		out.WriteString("\n\n")
	}

	return out.String(), nil
}

func resultTag(g *bughouse.BughouseGame, board bughouse.BoardID) string {
	res := g.BoardResult(board)
	switch res.Status {
	case bughouse.BoardOngoing:
		return "*"
	default:
		if res.Winner == bughouse.White {
			return "1-0"
		}
		return "0-1"
	}
}

// bugAnnotation names the kind of the piece a move captures on its
// destination square, as it stood on the board (before any reserve
// conversion), or the empty string when that square is empty or the
// turn is not a move; en passant captures are therefore not annotated.
func bugAnnotation(before *bughouse.Board, t bughouse.Turn) string {
	if t.Kind != bughouse.MoveTurn {
		return ""
	}
	captured, ok := before.PieceAt(t.To)
	if !ok {
		return ""
	}
	return "+" + captured.Kind.String()
}

// ParsedBPGNBoard is one board's section of a parsed BPGN document.
type ParsedBPGNBoard struct {
	Board  bughouse.BoardID
	Result string
	Turns  []bughouse.Turn
}

// ParseBPGN parses the two-section format FormatBPGN produces back
// into the turns that would reproduce the game (§8 "parse_bpgn ∘
// format_bpgn round-trip"). It replays each section's move text
// against a fresh starting board, discarding the `{[%bug ...]}`
// annotations (they are derivable from the turns and the board state,
// not additional information).
func ParseBPGN(s string, rules bughouse.Rules) ([]ParsedBPGNBoard, error) {
	var boards []ParsedBPGNBoard

	sections := splitSections(s)
	for _, section := range sections {
		board, result, body, err := parseHeader(section)
		if err != nil {
			return nil, err
		}
		cur := bughouse.MakeStartingBoard(rules)
		var turns []bughouse.Turn
		for _, tok := range tokenizeMoves(body) {
			t, err := ParseAlgebraic(cur, rules, tok)
			if err != nil {
				return nil, fmt.Errorf("notation: board %s move %q: %w", board, tok, err)
			}
			nb, err := cur.TryApply(t, rules)
			if err != nil {
				return nil, err
			}
			cur = nb
			turns = append(turns, t)
		}
		boards = append(boards, ParsedBPGNBoard{Board: board, Result: result, Turns: turns})
	}
	return boards, nil
}

func splitSections(s string) []string {
	var sections []string
	for _, part := range strings.Split(s, "[Board ") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sections = append(sections, "[Board "+part)
	}
	return sections
}

func parseHeader(section string) (bughouse.BoardID, string, string, error) {
	lines := strings.SplitN(section, "\n", 3)
	if len(lines) < 3 {
		return bughouse.BoardA, "", "", fmt.Errorf("notation: malformed BPGN section")
	}
	boardLine, resultLine, body := lines[0], lines[1], lines[2]

	boardTag := strings.Trim(strings.TrimPrefix(strings.TrimSpace(boardLine), "[Board"), " []\"")
	var board bughouse.BoardID
	switch boardTag {
	case "A":
		board = bughouse.BoardA
	case "B":
		board = bughouse.BoardB
	default:
		return board, "", "", fmt.Errorf("notation: unknown board tag %q", boardTag)
	}

	result := strings.Trim(strings.TrimPrefix(strings.TrimSpace(resultLine), "[Result"), " []\"")
	return board, result, body, nil
}

// tokenizeMoves strips move numbers and `{[%bug ...]}` annotations,
// leaving one algebraic token per turn.
func tokenizeMoves(body string) []string {
	for {
		start := strings.Index(body, "{")
		if start < 0 {
			break
		}
		end := strings.Index(body[start:], "}")
		if end < 0 {
			break
		}
		body = body[:start] + body[start+end+1:]
	}

	var tokens []string
	for _, field := range strings.Fields(body) {
		if isMoveNumber(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

func isMoveNumber(field string) bool {
	if !strings.HasSuffix(field, ".") {
		return false
	}
	_, err := strconv.Atoi(strings.TrimSuffix(field, "."))
	return err == nil
}
