package room

import (
	"testing"
	"time"
)

func TestJanitorSweep(t *testing.T) {
	reg, cur := newTestRegistry()

	// Started room with a member whose reconnection window will lapse.
	started, h1 := mustCreate(t, reg, "alice", "c1")
	bob := mustMember(t, reg, started.Code, h1.ID, "bob", "c2")
	if _, err := reg.StartGame(started.Code, h1.ID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	reg.MarkDisconnected(started.Code, bob.ID)

	// Waiting room abandoned by its only member.
	waiting, h2 := mustCreate(t, reg, "carol", "c3")
	reg.MarkDisconnected(waiting.Code, h2.ID)

	var departed []Departure
	j := &Janitor{
		Registry:   reg,
		EmptyTTL:   10 * time.Minute,
		StartedTTL: 24 * time.Hour,
		OnDeparture: func(d Departure) {
			departed = append(departed, d)
		},
	}

	*cur = cur.Add(11 * time.Minute)
	j.Sweep()

	byID := make(map[string]Departure, len(departed))
	for _, d := range departed {
		byID[d.PlayerID] = d
	}
	if len(byID) != 2 {
		t.Fatalf("departures = %d, want bob and carol", len(departed))
	}
	if d := byID[bob.ID]; d.Code != started.Code || !d.Started {
		t.Fatalf("bob departure = %+v", d)
	}

	// The abandoned waiting room is evicted, the live game is kept.
	if reg.RoomCount() != 1 {
		t.Fatalf("RoomCount = %d, want 1", reg.RoomCount())
	}
	if _, err := reg.View(waiting.Code); err == nil {
		t.Fatal("abandoned waiting room survived the sweep")
	}
	if _, err := reg.View(started.Code); err != nil {
		t.Fatalf("started room evicted: %v", err)
	}
}

func TestJanitorDefersToBusyRooms(t *testing.T) {
	reg, cur := newTestRegistry()
	room, host := mustCreate(t, reg, "alice", "c1")
	reg.MarkDisconnected(room.Code, host.ID)

	var asked []string
	j := &Janitor{
		Registry: reg,
		EmptyTTL: 10 * time.Minute,
		Evict: func(code string) bool {
			asked = append(asked, code)
			return false
		},
	}

	*cur = cur.Add(11 * time.Minute)
	j.Sweep()

	if len(asked) != 1 || asked[0] != room.Code {
		t.Fatalf("evict asked for %v, want [%s]", asked, room.Code)
	}
	if reg.RoomCount() != 1 {
		t.Fatal("room removed despite the eviction hook refusing")
	}

	// Next sweep retries the same room.
	j.Sweep()
	if len(asked) != 2 {
		t.Fatalf("evict asked %d times, want a retry", len(asked))
	}
}

func TestJanitorStartStop(t *testing.T) {
	reg, _ := newTestRegistry()
	j := &Janitor{Registry: reg, Interval: time.Hour}
	j.Start()
	j.Stop()
	// Stop is idempotent.
	j.Stop()
}
