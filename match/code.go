// Match code generation
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
	"crypto/rand"
	"fmt"

	"bughouse"
)

// codeAlphabet excludes the uppercase letters most easily mistaken for
// one another or for a digit when read aloud or hand-copied: I, O, Q
// (look like 1/0) and Z, matching the exclusion list spec.md §4.5 calls
// for ("26^6 space excluding homoglyphs").
const codeAlphabet = "ABCDEFGHJKLMNPRSTUVWXY"

const codeLength = 6

// newCode draws one random six-letter code from codeAlphabet. It does
// not check for collisions; the caller retries on a collision against
// its own live-match set.
func newCode() (bughouse.MatchID, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return bughouse.MatchID(out), nil
}

// newUniqueCode retries newCode until taken reports the draw is free,
// matching spec.md §4.5's "uniqueness enforced by retry on collision".
func newUniqueCode(taken func(bughouse.MatchID) bool) (bughouse.MatchID, error) {
	const maxAttempts = 64
	for i := 0; i < maxAttempts; i++ {
		id, err := newCode()
		if err != nil {
			return "", err
		}
		if !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("match: could not find a free code after %d attempts", maxAttempts)
}
