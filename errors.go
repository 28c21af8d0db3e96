// Error taxonomy
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

import "fmt"

// ErrorKind classifies an error by how far it is allowed to propagate
// and what the client is expected to do about it (spec §7).
type ErrorKind uint8

const (
	// InvalidCommand is a client-side syntactic error; the session
	// continues.
	InvalidCommand ErrorKind = iota
	// RuleViolation never propagates past the MatchCoordinator.
	RuleViolation
	// Ignorable is a recoverable server-side condition; the session
	// continues.
	Ignorable
	// KickedFromMatch severs the match binding; the socket is closed
	// by the server.
	KickedFromMatch
	// Fatal means an unrecoverable core invariant was violated.
	Fatal
	// ProtocolMismatch is a mismatched server/client build version;
	// fatal.
	ProtocolMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCommand:
		return "InvalidCommand"
	case RuleViolation:
		return "RuleViolation"
	case Ignorable:
		return "Ignorable"
	case KickedFromMatch:
		return "KickedFromMatch"
	case Fatal:
		return "Fatal"
	case ProtocolMismatch:
		return "ProtocolMismatch"
	default:
		return "Unknown"
	}
}

// RejectKind is the detailed reason a Board rejected a Turn via
// TryApply (§4.1).
type RejectKind uint8

const (
	Illegal RejectKind = iota
	WrongTurnOrder
	NeedsPromotionChoice
	NeedsDuckPlacement
	NeedsStealTarget
	DropForbiddenRank
	DropAggressionViolation
	CastlingRightsLost
	PathBlocked
)

func (k RejectKind) String() string {
	switch k {
	case Illegal:
		return "Illegal"
	case WrongTurnOrder:
		return "WrongTurnOrder"
	case NeedsPromotionChoice:
		return "NeedsPromotionChoice"
	case NeedsDuckPlacement:
		return "NeedsDuckPlacement"
	case NeedsStealTarget:
		return "NeedsStealTarget"
	case DropForbiddenRank:
		return "DropForbiddenRank"
	case DropAggressionViolation:
		return "DropAggressionViolation"
	case CastlingRightsLost:
		return "CastlingRightsLost"
	case PathBlocked:
		return "PathBlocked"
	default:
		return "Unknown"
	}
}

// Error is the error type returned across package boundaries; Kind
// decides propagation per §7, Reject carries detail for RuleViolation.
type Error struct {
	Kind   ErrorKind
	Reject RejectKind
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reject)
}

func RejectError(kind RejectKind, format string, args ...interface{}) *Error {
	return &Error{Kind: RuleViolation, Reject: kind, Msg: fmt.Sprintf(format, args...)}
}

func Fatalf(format string, args ...interface{}) *Error {
	return &Error{Kind: Fatal, Msg: fmt.Sprintf(format, args...)}
}

func Ignorablef(format string, args ...interface{}) *Error {
	return &Error{Kind: Ignorable, Msg: fmt.Sprintf(format, args...)}
}

func InvalidCommandf(format string, args ...interface{}) *Error {
	return &Error{Kind: InvalidCommand, Msg: fmt.Sprintf(format, args...)}
}
