// Session sequencing, replay buffer and reconnect tests
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
	"testing"
	"time"
)

type recordingTransport struct {
	sent   []interface{}
	closed bool
}

func (r *recordingTransport) WriteJSON(v interface{}) error {
	r.sent = append(r.sent, v)
	return nil
}

func (r *recordingTransport) Close() error {
	r.closed = true
	return nil
}

func TestSessionAcceptDropsDuplicatesAndOutOfOrder(t *testing.T) {
	s := NewSession("p1", time.Minute)

	for i, test := range []struct {
		seq  uint32
		want bool
	}{
		{0, true},  // the very first event, seq 0, must not be rejected
		{0, false}, // duplicate of the above
		{1, true},
		{3, true},
		{2, false}, // stale, out of order
		{3, false}, // duplicate
		{4, true},
	} {
		if got := s.Accept(test.seq); got != test.want {
			t.Errorf("test %d: Accept(%d) = %v, want %v", i, test.seq, got, test.want)
		}
	}
}

func TestSessionSendBuffersAndDeliversWhenAttached(t *testing.T) {
	s := NewSession("p1", time.Minute)
	tr := &recordingTransport{}
	s.Attach(tr)

	if err := s.Send(EvPong, func(ev *ServerEvent) { ev.Pong = &PongPayload{Seq: 9} }); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(tr.sent) != 1 {
		t.Fatalf("expected the event to be written to the transport, got %d writes", len(tr.sent))
	}
	if len(s.outgoing) != 1 || s.outgoing[0].event.ServerSeq != 1 {
		t.Fatalf("expected one buffered event with ServerSeq 1, got %+v", s.outgoing)
	}
}

func TestSessionSendBuffersOnlyWhenDetached(t *testing.T) {
	s := NewSession("p1", time.Minute)

	if err := s.Send(EvPong, nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(s.outgoing) != 1 {
		t.Fatalf("expected the event to still be buffered while detached, got %d", len(s.outgoing))
	}
}

func TestSessionReplayReturnsEventsNewerThanLastSeen(t *testing.T) {
	s := NewSession("p1", time.Minute)
	for i := 0; i < 3; i++ {
		if err := s.Send(EvPong, nil); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	replay, err := s.Replay(1)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replay) != 2 || replay[0].ServerSeq != 2 || replay[1].ServerSeq != 3 {
		t.Fatalf("expected ServerSeq 2 and 3, got %+v", replay)
	}
}

func TestSessionReplayExhaustedAfterEviction(t *testing.T) {
	s := NewSession("p1", time.Minute)
	for i := 0; i < 3; i++ {
		if err := s.Send(EvPong, nil); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	// Simulate the window having elapsed: the two oldest buffered
	// events fall outside the retention window and are evicted,
	// leaving a gap before the client's last-seen sequence number.
	s.outgoing = s.outgoing[2:]

	if _, err := s.Replay(0); err != ErrReplayWindowExhausted {
		t.Fatalf("Replay(0) = %v, want ErrReplayWindowExhausted", err)
	}
}

func TestSessionIrresponsive(t *testing.T) {
	s := NewSession("p1", time.Minute)
	now := time.Now()
	s.Touch(now)

	if s.Irresponsive(now.Add(10*time.Second), 20*time.Second) {
		t.Error("expected session to still be responsive at +10s with a 20s timeout")
	}
	if !s.Irresponsive(now.Add(25*time.Second), 20*time.Second) {
		t.Error("expected session to be irresponsive at +25s with a 20s timeout")
	}
}
