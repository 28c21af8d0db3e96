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

package conf

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

// fakeManager records Start/Shutdown ordering for TestStartLaunchesEveryManagerAndShutsDownOnKill.
type fakeManager struct {
	name     string
	mu       *sync.Mutex
	order    *[]string
	started  chan struct{}
}

func (f *fakeManager) String() string { return f.name }
func (f *fakeManager) Start() {
	f.mu.Lock()
	*f.order = append(*f.order, f.name+":start")
	f.mu.Unlock()
	close(f.started)
}
func (f *fakeManager) Shutdown() {
	f.mu.Lock()
	*f.order = append(*f.order, f.name+":stop")
	f.mu.Unlock()
}

func TestRegisterPanicsAfterStart(t *testing.T) {
	c := &Conf{Log: discardLogger(), Debug: discardLogger()}
	c.run = true

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Register to panic once Start has run")
		}
	}()
	c.Register(&fakeManager{name: "late", mu: new(sync.Mutex), order: new([]string), started: make(chan struct{})})
}

func TestStartLaunchesEveryManagerAndShutsDownOnKill(t *testing.T) {
	var mu sync.Mutex
	var order []string

	c := &Conf{Log: discardLogger(), Debug: discardLogger()}
	c.Ctx, c.Kill = context.WithCancel(context.Background())

	a := &fakeManager{name: "a", mu: &mu, order: &order, started: make(chan struct{})}
	b := &fakeManager{name: "b", mu: &mu, order: &order, started: make(chan struct{})}
	c.Register(a)
	c.Register(b)

	done := make(chan struct{})
	go func() {
		c.Start()
		close(done)
	}()

	<-a.started
	<-b.started
	c.Kill()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Start did not return after Kill")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 4 {
		t.Fatalf("expected 4 lifecycle events, got %v", order)
	}
	// Shutdown runs in registration order, after both managers started.
	if order[2] != "a:stop" || order[3] != "b:stop" {
		t.Fatalf("expected shutdown in registration order a, b, got %v", order[2:])
	}
}
