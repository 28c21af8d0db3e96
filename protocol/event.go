// Wire protocol: ClientEvent and ServerEvent JSON frames
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

// Package protocol implements the JSON-over-WebSocket wire format
// (spec.md §6): the ClientEvent/ServerEvent envelopes, and the
// per-socket sequencing and hot-reconnect replay buffer a Session
// needs to honour the ordering guarantees of §5. It is grounded on
// the teacher's proto package, generalised from a text tokenizer
// dispatching on a bare command name (proto.go's "mode"/"set"/"move"
// switch) to a tagged JSON envelope dispatching on Kind, and from
// client.go's per-connection sequence counter and iolock to a
// buffered, replayable Session.
package protocol

import (
	"bughouse"
)

// ClientEventKind names the variant carried by a ClientEvent envelope
// (§6 "ClientEvent").
type ClientEventKind string

const (
	EvJoin                ClientEventKind = "Join"
	EvNewMatch             ClientEventKind = "NewMatch"
	EvLeave                ClientEventKind = "Leave"
	EvSetFaction           ClientEventKind = "SetFaction"
	EvToggleReady          ClientEventKind = "ToggleReady"
	EvMakeTurn             ClientEventKind = "MakeTurn"
	EvCancelPreturn        ClientEventKind = "CancelPreturn"
	EvResign               ClientEventKind = "Resign"
	EvChangeFactionInGame  ClientEventKind = "ChangeFactionInGame"
	EvToggleSharedWayback  ClientEventKind = "ToggleSharedWayback"
	EvWaybackTo            ClientEventKind = "WaybackTo"
	EvSendChat             ClientEventKind = "SendChat"
	EvPing                 ClientEventKind = "Ping"
	EvHotReconnect         ClientEventKind = "HotReconnect"
	EvRequestExport        ClientEventKind = "RequestExport"
	EvReportError          ClientEventKind = "ReportError"
)

// ClientEvent is one frame sent from a client socket to the server.
// Only the field matching Kind is populated; the rest are zero. A
// flat envelope with one payload field per kind keeps decoding a
// plain json.Unmarshal instead of a two-pass interface{} dispatch,
// mirroring the teacher's one-struct-per-command shape (proto.go's
// tokenizer always resolves to a single command plus its typed
// arguments).
type ClientEvent struct {
	ClientSeq uint32          `json:"clientSeq"`
	Kind      ClientEventKind `json:"kind"`

	Join               *JoinPayload               `json:"join,omitempty"`
	NewMatch           *NewMatchPayload           `json:"newMatch,omitempty"`
	SetFaction         *SetFactionPayload         `json:"setFaction,omitempty"`
	MakeTurn           *MakeTurnPayload           `json:"makeTurn,omitempty"`
	CancelPreturn      *CancelPreturnPayload      `json:"cancelPreturn,omitempty"`
	Resign             *ResignPayload             `json:"resign,omitempty"`
	ChangeFactionInGame *SetFactionPayload        `json:"changeFactionInGame,omitempty"`
	WaybackTo          *WaybackToPayload          `json:"waybackTo,omitempty"`
	SendChat           *SendChatPayload           `json:"sendChat,omitempty"`
	Ping               *PingPayload               `json:"ping,omitempty"`
	HotReconnect       *HotReconnectPayload       `json:"hotReconnect,omitempty"`
	ReportError        *ReportErrorPayload        `json:"reportError,omitempty"`
}

type JoinPayload struct {
	MatchID bughouse.MatchID `json:"matchId"`
	Name    string           `json:"name"`
}

// NewMatchPayload carries a rule set in wire-friendly form; Rules
// itself is plain scalar data so it round-trips through json
// unchanged (see rules.go).
type NewMatchPayload struct {
	Rules bughouse.Rules `json:"rules"`
}

type SetFactionPayload struct {
	Kind bughouse.FactionKind `json:"kind"`
	Team int                  `json:"team,omitempty"`
}

type MakeTurnPayload struct {
	Board bughouse.BoardID `json:"board"`
	Turn  bughouse.Turn    `json:"turn"`
}

type CancelPreturnPayload struct {
	Board bughouse.BoardID `json:"board"`
}

type ResignPayload struct {
	Board bughouse.BoardID `json:"board"`
}

type WaybackToPayload struct {
	TurnIndex bughouse.TurnIndex `json:"turnIndex"`
}

type SendChatPayload struct {
	Text string `json:"text"`
}

type PingPayload struct {
	Seq uint32 `json:"seq"`
}

type HotReconnectPayload struct {
	LastServerSeq uint32 `json:"lastServerSeq"`
}

type ReportErrorPayload struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// ServerEventKind names the variant carried by a ServerEvent envelope
// (§6 "ServerEvent").
type ServerEventKind string

const (
	EvWelcome           ServerEventKind = "Welcome"
	EvMatchJoined       ServerEventKind = "MatchJoined"
	EvMatchUpdated      ServerEventKind = "MatchUpdated"
	EvGameStarted       ServerEventKind = "GameStarted"
	EvTurnMade          ServerEventKind = "TurnMade"
	EvGameOver          ServerEventKind = "GameOver"
	EvChatMessage       ServerEventKind = "ChatMessage"
	EvPong              ServerEventKind = "Pong"
	EvSessionUpdated    ServerEventKind = "SessionUpdated"
	EvKickedFromMatch   ServerEventKind = "KickedFromMatch"
	EvError             ServerEventKind = "Error"
	EvExportReady       ServerEventKind = "ExportReady"
	EvArchiveGameLoaded ServerEventKind = "ArchiveGameLoaded"
	EvLobbyCountdown    ServerEventKind = "LobbyCountdown"
)

// ServerEvent is one frame sent from the server to a client socket.
// ServerSeq is assigned by the owning Session in strictly increasing
// order as the frame is appended to its outgoing buffer (§5 "Across
// sockets within one match").
type ServerEvent struct {
	ServerSeq uint32          `json:"serverSeq"`
	AckSeq    uint32          `json:"ackClientSeq"`
	Kind      ServerEventKind `json:"kind"`

	Welcome           *WelcomePayload           `json:"welcome,omitempty"`
	MatchJoined       *MatchSnapshotPayload     `json:"matchJoined,omitempty"`
	MatchUpdated      *MatchSnapshotPayload     `json:"matchUpdated,omitempty"`
	GameStarted       *MatchSnapshotPayload     `json:"gameStarted,omitempty"`
	TurnMade          *TurnMadePayload          `json:"turnMade,omitempty"`
	GameOver          *GameOverPayload          `json:"gameOver,omitempty"`
	ChatMessage       *ChatMessagePayload       `json:"chatMessage,omitempty"`
	Pong              *PongPayload              `json:"pong,omitempty"`
	KickedFromMatch   *KickedFromMatchPayload   `json:"kickedFromMatch,omitempty"`
	Error             *ErrorPayload             `json:"error,omitempty"`
	ExportReady       *ExportReadyPayload       `json:"exportReady,omitempty"`
	ArchiveGameLoaded *MatchSnapshotPayload     `json:"archiveGameLoaded,omitempty"`
	LobbyCountdown    *LobbyCountdownPayload    `json:"lobbyCountdown,omitempty"`
}

type WelcomePayload struct {
	ServerVersion string                  `json:"serverVersion"`
	Identity      bughouse.ParticipantID  `json:"identity"`
}

// MatchSnapshotPayload carries a full view of a Match; the server
// always sends the whole MatchView (never a computed diff), matching
// the teacher's "state" command which resends the whole board rather
// than a move delta (proto/client.go Request).
type MatchSnapshotPayload struct {
	Match MatchView `json:"match"`
}

type TurnMadePayload struct {
	Board     bughouse.BoardID        `json:"board"`
	Turn      bughouse.Turn           `json:"turn"`
	TurnIndex bughouse.TurnIndex      `json:"turnIndex"`
	Clocks    []bughouse.ClockSnapshot `json:"clocks"`
}

type GameOverPayload struct {
	Outcome bughouse.GameOutcome `json:"outcome"`
}

type ChatMessagePayload struct {
	From bughouse.ParticipantID `json:"from"`
	Text string                 `json:"text"`
}

type PongPayload struct {
	Seq uint32 `json:"seq"`
}

type KickedFromMatchPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Kind bughouse.ErrorKind `json:"kind"`
	Text string             `json:"text"`
}

type ExportReadyPayload struct {
	Content string `json:"content"`
}

type LobbyCountdownPayload struct {
	SecondsLeft *int `json:"secondsLeft"`
}
