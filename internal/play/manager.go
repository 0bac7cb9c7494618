// Package play serializes access to per-room game sessions. Every
// mutation and read of a session happens under that room's lock, so a
// move that waits on a dictionary lookup blocks only its own room.
package play

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/obslog"
	"github.com/okvist/wordrack/internal/tileset"
)

var (
	ErrNoSession     = errors.New("no active game in this room")
	ErrSessionExists = errors.New("room already has an active game")
)

type Manager struct {
	mu    sync.Mutex
	rooms map[string]*roomSlot
	set   *tileset.Set
}

type roomSlot struct {
	mu      sync.Mutex
	session *game.Session
}

func NewManager(set *tileset.Set) *Manager {
	return &Manager{
		rooms: make(map[string]*roomSlot),
		set:   set,
	}
}

func (m *Manager) slot(code string, create bool) *roomSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rooms[code]
	if !ok && create {
		s = &roomSlot{}
		m.rooms[code] = s
	}
	return s
}

// Create seats the players in join order and deals the opening racks.
// The session pointer never leaves the room lock; use WithRoom for all
// later access.
func (m *Manager) Create(code string, playerIDs []string, connected func(string) bool) error {
	slot := m.slot(code, true)
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.session != nil && slot.session.Phase() != game.PhaseEnded {
		return ErrSessionExists
	}
	sess := game.NewSession(code, m.set, playerIDs, nil)
	sess.ConnectedFn = connected
	if err := sess.Start(); err != nil {
		return err
	}
	slot.session = sess
	obslog.L().Info("game_start",
		zap.String("code", code),
		zap.String("session_id", sess.ID),
		zap.Int("players", len(playerIDs)))
	return nil
}

// WithRoom runs fn against the room's session while holding the room
// lock. The lock covers the entire call, including any dictionary
// wait inside fn, which is what keeps submits atomic per room.
func (m *Manager) WithRoom(code string, fn func(*game.Session) error) error {
	slot := m.slot(code, false)
	if slot == nil {
		return ErrNoSession
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.session == nil {
		return ErrNoSession
	}
	return fn(slot.session)
}

// SnapshotFor returns the session state redacted for one viewer.
func (m *Manager) SnapshotFor(code, playerID string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := m.WithRoom(code, func(s *game.Session) error {
		snap = s.SnapshotFor(playerID)
		return nil
	})
	return snap, err
}

// EvictIfIdle drops the room's slot when no operation is in flight and
// confirm, called with both locks held, still wants the room gone. A
// busy room is refused rather than waited on; the janitor retries.
// Rooms that never started a game have no slot, so confirm decides
// alone.
func (m *Manager) EvictIfIdle(code string, confirm func() bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	slot, ok := m.rooms[code]
	if !ok {
		return confirm()
	}
	if !slot.mu.TryLock() {
		return false
	}
	defer slot.mu.Unlock()
	if !confirm() {
		return false
	}
	delete(m.rooms, code)
	obslog.L().Info("game_evict", zap.String("code", code))
	return true
}

// Remove drops the slot unconditionally. Shutdown path only.
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
}

func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, slot := range m.rooms {
		if slot.session != nil {
			n++
		}
	}
	return n
}
