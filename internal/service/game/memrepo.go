package game

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/okvist/wordrack/internal/domain"
)

// memrepo is the in-memory repository used when no database is
// configured. Archive and profiles then last only as long as the
// process.
type memrepo struct {
	mu sync.RWMutex

	nextID int64

	gamesByID      map[int64]*domain.GameRecord
	gamesBySession map[string]*domain.GameRecord
	profiles       map[string]*domain.PlayerProfile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		gamesByID:      make(map[int64]*domain.GameRecord),
		gamesBySession: make(map[string]*domain.GameRecord),
		profiles:       make(map[string]*domain.PlayerProfile),
	}
}

func (m *memrepo) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
	if rec == nil {
		return 0, ErrDuplicateGame
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gamesBySession[rec.SessionUUID]; exists {
		return 0, ErrDuplicateGame
	}

	m.nextID++
	stored := *rec
	stored.ID = m.nextID
	m.gamesByID[stored.ID] = &stored
	m.gamesBySession[stored.SessionUUID] = &stored
	return stored.ID, nil
}

func (m *memrepo) GetRecentGames(ctx context.Context, username string, limit int) ([]*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*domain.GameRecord, 0, limit)
	for _, g := range m.gamesByID {
		if !containsPlayer(g.Players, username) {
			continue
		}
		copy := *g
		items = append(items, &copy)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.gamesBySession[sessionUUID]; ok && g != nil {
		copy := *g
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) GetProfile(ctx context.Context, username string) (*domain.PlayerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[profileKey(username)]; ok && p != nil {
		copy := *p
		return &copy, nil
	}
	return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return nil
	}
	stored := *profile
	m.mu.Lock()
	m.profiles[profileKey(profile.Username)] = &stored
	m.mu.Unlock()
	return nil
}

func profileKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func containsPlayer(players []string, username string) bool {
	for _, p := range players {
		if strings.EqualFold(p, username) {
			return true
		}
	}
	return false
}
