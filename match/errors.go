// Match-level error taxonomy
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

import "fmt"

// Reason is the detailed cause of a MatchCoordinator-level rejection,
// the lobby/seating analogue of bughouse.RejectKind (§4.5, §7: these
// never propagate past the MatchCoordinator).
type Reason uint8

const (
	IncompatibleTeams Reason = iota
	UnknownParticipant
	NotSeated
	NotYourTurn
	MatchNotInGame
	JoinedInAnotherClient
)

func (r Reason) String() string {
	switch r {
	case IncompatibleTeams:
		return "IncompatibleTeams"
	case UnknownParticipant:
		return "UnknownParticipant"
	case NotSeated:
		return "NotSeated"
	case NotYourTurn:
		return "NotYourTurn"
	case MatchNotInGame:
		return "MatchNotInGame"
	case JoinedInAnotherClient:
		return "JoinedInAnotherClient"
	default:
		return "Unknown"
	}
}

// Error wraps a Reason with the message a ServerEvent::Error would
// carry back to the offending session.
type Error struct {
	Reason Reason
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

func reject(reason Reason, format string, args ...interface{}) *Error {
	return &Error{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}
