// ClientEvent dispatch
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

import "bughouse"

// Handler receives one decoded ClientEvent per call, already
// validated against its own Kind; this replaces the teacher's
// proto.go switch over a bare command string (cli.freeplay's "move"/
// "yield" cases) with a typed callback per ClientEventKind so the
// server package never touches the envelope itself.
type Handler interface {
	Join(pid bughouse.ParticipantID, p JoinPayload)
	NewMatch(pid bughouse.ParticipantID, p NewMatchPayload)
	Leave(pid bughouse.ParticipantID)
	SetFaction(pid bughouse.ParticipantID, p SetFactionPayload)
	ToggleReady(pid bughouse.ParticipantID)
	MakeTurn(pid bughouse.ParticipantID, p MakeTurnPayload)
	CancelPreturn(pid bughouse.ParticipantID, p CancelPreturnPayload)
	Resign(pid bughouse.ParticipantID, p ResignPayload)
	ChangeFactionInGame(pid bughouse.ParticipantID, p SetFactionPayload)
	ToggleSharedWayback(pid bughouse.ParticipantID)
	WaybackTo(pid bughouse.ParticipantID, p WaybackToPayload)
	SendChat(pid bughouse.ParticipantID, p SendChatPayload)
	Ping(pid bughouse.ParticipantID, p PingPayload)
	HotReconnect(pid bughouse.ParticipantID, p HotReconnectPayload)
	RequestExport(pid bughouse.ParticipantID)
	ReportError(pid bughouse.ParticipantID, p ReportErrorPayload)
}

// Dispatch routes one decoded ClientEvent to the matching Handler
// method, rejecting a frame whose payload does not match its own Kind
// with InvalidCommand (§7 "client-side syntactic error; the session
// continues").
func Dispatch(pid bughouse.ParticipantID, ev ClientEvent, h Handler) error {
	missing := func() error {
		return bughouse.InvalidCommandf("event %q carries no matching payload", ev.Kind)
	}

	switch ev.Kind {
	case EvJoin:
		if ev.Join == nil {
			return missing()
		}
		h.Join(pid, *ev.Join)
	case EvNewMatch:
		if ev.NewMatch == nil {
			return missing()
		}
		h.NewMatch(pid, *ev.NewMatch)
	case EvLeave:
		h.Leave(pid)
	case EvSetFaction:
		if ev.SetFaction == nil {
			return missing()
		}
		h.SetFaction(pid, *ev.SetFaction)
	case EvToggleReady:
		h.ToggleReady(pid)
	case EvMakeTurn:
		if ev.MakeTurn == nil {
			return missing()
		}
		h.MakeTurn(pid, *ev.MakeTurn)
	case EvCancelPreturn:
		if ev.CancelPreturn == nil {
			return missing()
		}
		h.CancelPreturn(pid, *ev.CancelPreturn)
	case EvResign:
		if ev.Resign == nil {
			return missing()
		}
		h.Resign(pid, *ev.Resign)
	case EvChangeFactionInGame:
		if ev.ChangeFactionInGame == nil {
			return missing()
		}
		h.ChangeFactionInGame(pid, *ev.ChangeFactionInGame)
	case EvToggleSharedWayback:
		h.ToggleSharedWayback(pid)
	case EvWaybackTo:
		if ev.WaybackTo == nil {
			return missing()
		}
		h.WaybackTo(pid, *ev.WaybackTo)
	case EvSendChat:
		if ev.SendChat == nil {
			return missing()
		}
		h.SendChat(pid, *ev.SendChat)
	case EvPing:
		if ev.Ping == nil {
			return missing()
		}
		h.Ping(pid, *ev.Ping)
	case EvHotReconnect:
		if ev.HotReconnect == nil {
			return missing()
		}
		h.HotReconnect(pid, *ev.HotReconnect)
	case EvRequestExport:
		h.RequestExport(pid)
	case EvReportError:
		if ev.ReportError == nil {
			return missing()
		}
		h.ReportError(pid, *ev.ReportError)
	default:
		return bughouse.InvalidCommandf("unknown client event kind %q", ev.Kind)
	}
	return nil
}
