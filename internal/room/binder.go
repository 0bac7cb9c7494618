package room

import "sync"

// Binding ties one live transport to a room-scoped identity.
type Binding struct {
	RoomCode string
	PlayerID string
}

// Binder maps transport connection IDs to identities. Identities
// outlive transports: a reconnect rebinds a fresh connID to the same
// player, a disconnect only frees the mapping.
type Binder struct {
	mu    sync.RWMutex
	conns map[string]Binding
}

func NewBinder() *Binder {
	return &Binder{conns: make(map[string]Binding)}
}

func (b *Binder) Bind(connID, roomCode, playerID string) {
	if connID == "" {
		return
	}
	b.mu.Lock()
	b.conns[connID] = Binding{RoomCode: roomCode, PlayerID: playerID}
	b.mu.Unlock()
}

func (b *Binder) Resolve(connID string) (Binding, bool) {
	b.mu.RLock()
	bd, ok := b.conns[connID]
	b.mu.RUnlock()
	return bd, ok
}

// Unbind frees the mapping and returns what it pointed at.
func (b *Binder) Unbind(connID string) (Binding, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd, ok := b.conns[connID]
	if ok {
		delete(b.conns, connID)
	}
	return bd, ok
}

func (b *Binder) ConnCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}
