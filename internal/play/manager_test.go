package play

import (
	"errors"
	"testing"

	"github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/tileset"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	set, err := tileset.Load("english", "")
	if err != nil {
		t.Fatalf("load tileset: %v", err)
	}
	return NewManager(set)
}

func TestCreateDealsAndServesSnapshots(t *testing.T) {
	m := newTestManager(t)
	if err := m.Create("ROOM01", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	snap, err := m.SnapshotFor("ROOM01", "a")
	if err != nil {
		t.Fatalf("SnapshotFor: %v", err)
	}
	if len(snap.Rack) != game.RackCapacity {
		t.Fatalf("rack = %d tiles, want %d", len(snap.Rack), game.RackCapacity)
	}
	if snap.TurnPlayerID != "a" {
		t.Fatalf("opening turn = %s, want a", snap.TurnPlayerID)
	}

	err = m.WithRoom("ROOM01", func(s *game.Session) error {
		_, err := s.PassTurn("a")
		return err
	})
	if err != nil {
		t.Fatalf("pass via WithRoom: %v", err)
	}
	if snap, _ = m.SnapshotFor("ROOM01", "b"); snap.TurnPlayerID != "b" {
		t.Fatalf("turn after pass = %s, want b", snap.TurnPlayerID)
	}
}

func TestCreateGuards(t *testing.T) {
	m := newTestManager(t)
	if err := m.Create("ROOM01", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Create("ROOM01", []string{"c", "d"}, nil); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("second Create: %v, want ErrSessionExists", err)
	}
	if err := m.Create("ROOM02", []string{"solo"}, nil); err == nil {
		t.Fatal("single-player Create succeeded")
	}
	if err := m.WithRoom("NOROOM", func(*game.Session) error { return nil }); !errors.Is(err, ErrNoSession) {
		t.Fatalf("WithRoom on unknown room: %v, want ErrNoSession", err)
	}
}

func TestEvictIfIdle(t *testing.T) {
	m := newTestManager(t)

	// No slot: the registry's verdict passes straight through.
	called := false
	if !m.EvictIfIdle("NEVER1", func() bool { called = true; return true }) {
		t.Fatal("slotless eviction refused")
	}
	if !called {
		t.Fatal("confirm not consulted")
	}
	if m.EvictIfIdle("NEVER2", func() bool { return false }) {
		t.Fatal("eviction succeeded against a refusing confirm")
	}

	if err := m.Create("ROOM01", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.EvictIfIdle("ROOM01", func() bool { return false }) {
		t.Fatal("confirm=false still evicted")
	}
	if m.SessionCount() != 1 {
		t.Fatal("session lost without eviction")
	}
	if !m.EvictIfIdle("ROOM01", func() bool { return true }) {
		t.Fatal("idle room not evicted")
	}
	if err := m.WithRoom("ROOM01", func(*game.Session) error { return nil }); !errors.Is(err, ErrNoSession) {
		t.Fatalf("WithRoom after eviction: %v, want ErrNoSession", err)
	}
}

func TestEvictRefusedWhileRoomBusy(t *testing.T) {
	m := newTestManager(t)
	if err := m.Create("ROOM01", []string{"a", "b"}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.WithRoom("ROOM01", func(*game.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered
	if m.EvictIfIdle("ROOM01", func() bool {
		t.Error("confirm called while a play was in flight")
		return true
	}) {
		t.Fatal("busy room evicted")
	}

	close(release)
	<-done
	if !m.EvictIfIdle("ROOM01", func() bool { return true }) {
		t.Fatal("room not evicted once idle")
	}
}
