package room

import "testing"

func TestBinderLifecycle(t *testing.T) {
	b := NewBinder()

	b.Bind("c1", "ABC123", "p1")
	b.Bind("c2", "ABC123", "p2")
	if got := b.ConnCount(); got != 2 {
		t.Fatalf("ConnCount = %d, want 2", got)
	}

	bind, ok := b.Resolve("c1")
	if !ok || bind.RoomCode != "ABC123" || bind.PlayerID != "p1" {
		t.Fatalf("Resolve c1 = %+v ok=%v", bind, ok)
	}

	// Rebinding a connection replaces the previous target.
	b.Bind("c1", "XYZ789", "p9")
	if bind, _ = b.Resolve("c1"); bind.RoomCode != "XYZ789" {
		t.Fatalf("rebound conn still points at %s", bind.RoomCode)
	}

	bind, ok = b.Unbind("c1")
	if !ok || bind.PlayerID != "p9" {
		t.Fatalf("Unbind c1 = %+v ok=%v", bind, ok)
	}
	if _, ok = b.Resolve("c1"); ok {
		t.Fatal("c1 still resolvable after unbind")
	}
	if _, ok = b.Unbind("c1"); ok {
		t.Fatal("second unbind reported a binding")
	}

	// Empty conn IDs are ignored rather than stored.
	b.Bind("", "ABC123", "p3")
	if got := b.ConnCount(); got != 1 {
		t.Fatalf("ConnCount = %d, want 1", got)
	}
}
