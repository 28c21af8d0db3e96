// Wire envelope round-trip tests
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

	"bughouse"
)

func TestClientEventRoundTrip(t *testing.T) {
	ev := ClientEvent{
		ClientSeq: 7,
		Kind:      EvMakeTurn,
		MakeTurn: &MakeTurnPayload{
			Board: bughouse.BoardB,
			Turn:  bughouse.Turn{Kind: bughouse.DropTurn, DropKind: bughouse.Knight, To: bughouse.MakeCoord(4, 3)},
		},
	}

	buf, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got ClientEvent
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != EvMakeTurn || got.MakeTurn == nil {
		t.Fatalf("round-trip lost kind/payload: %+v", got)
	}
	if got.MakeTurn.Board != bughouse.BoardB {
		t.Errorf("board = %v, want BoardB", got.MakeTurn.Board)
	}
	if got.MakeTurn.Turn.DropKind != bughouse.Knight {
		t.Errorf("drop kind = %v, want Knight", got.MakeTurn.Turn.DropKind)
	}
}

func TestClientEventUnrelatedPayloadsStayNil(t *testing.T) {
	buf, err := json.Marshal(ClientEvent{Kind: EvToggleReady, ClientSeq: 1})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got ClientEvent
	if err := json.Unmarshal(buf, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.MakeTurn != nil || got.Join != nil {
		t.Fatalf("expected every non-ToggleReady payload to stay nil, got %+v", got)
	}
}

func TestDispatchRejectsMismatchedPayload(t *testing.T) {
	err := Dispatch("p1", ClientEvent{Kind: EvMakeTurn}, &recordingHandler{})
	if err == nil {
		t.Fatal("expected an error for a MakeTurn event with no payload")
	}
	berr, ok := err.(*bughouse.Error)
	if !ok || berr.Kind != bughouse.InvalidCommand {
		t.Fatalf("expected InvalidCommand, got %v", err)
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	h := &recordingHandler{}
	err := Dispatch("p1", ClientEvent{Kind: EvToggleReady}, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.toggledReady {
		t.Fatal("ToggleReady was not called")
	}
}

// recordingHandler implements Handler, recording only what the tests
// above need; every other method is a no-op.
type recordingHandler struct {
	toggledReady bool
}

func (*recordingHandler) Join(bughouse.ParticipantID, JoinPayload)                      {}
func (*recordingHandler) NewMatch(bughouse.ParticipantID, NewMatchPayload)              {}
func (*recordingHandler) Leave(bughouse.ParticipantID)                                  {}
func (*recordingHandler) SetFaction(bughouse.ParticipantID, SetFactionPayload)          {}
func (h *recordingHandler) ToggleReady(bughouse.ParticipantID)                          { h.toggledReady = true }
func (*recordingHandler) MakeTurn(bughouse.ParticipantID, MakeTurnPayload)              {}
func (*recordingHandler) CancelPreturn(bughouse.ParticipantID, CancelPreturnPayload)    {}
func (*recordingHandler) Resign(bughouse.ParticipantID, ResignPayload)                  {}
func (*recordingHandler) ChangeFactionInGame(bughouse.ParticipantID, SetFactionPayload) {}
func (*recordingHandler) ToggleSharedWayback(bughouse.ParticipantID)                    {}
func (*recordingHandler) WaybackTo(bughouse.ParticipantID, WaybackToPayload)            {}
func (*recordingHandler) SendChat(bughouse.ParticipantID, SendChatPayload)              {}
func (*recordingHandler) Ping(bughouse.ParticipantID, PingPayload)                      {}
func (*recordingHandler) HotReconnect(bughouse.ParticipantID, HotReconnectPayload)      {}
func (*recordingHandler) RequestExport(bughouse.ParticipantID)                          {}
func (*recordingHandler) ReportError(bughouse.ParticipantID, ReportErrorPayload)        {}
