package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okvist/wordrack/internal/adapter/statepresenter"
	core "github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/play"
	"github.com/okvist/wordrack/internal/room"
	"github.com/okvist/wordrack/internal/util"
	"github.com/okvist/wordrack/pkg/gamedto"
)

// Profile returns the archived profile for a username.
func (s *Service) Profile(ctx context.Context, username string) (*gamedto.ProfileView, error) {
	username = util.NormalizeUsername(username)
	if username == "" {
		return nil, ErrProfileNotFound
	}
	profile, err := s.repo.GetProfile(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return statepresenter.ToProfile(profile), nil
}

// RecentGames lists the newest archived games a player took part in.
func (s *Service) RecentGames(ctx context.Context, username string) ([]*gamedto.GameSummary, error) {
	username = util.NormalizeUsername(username)
	list, err := s.repo.GetRecentGames(ctx, username, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent games: %w", err)
	}
	return statepresenter.ToSummaries(list), nil
}

// BoardPNG renders the room's current board for the HTTP surface. A
// room without a session renders an empty board.
func (s *Service) BoardPNG(ctx context.Context, code string) ([]byte, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	view, err := s.registry.View(code)
	if err != nil {
		return nil, err
	}
	names := view.Usernames()

	opts := RenderOptions{Title: s.line("board.title", map[string]any{"Code": code})}
	var cells []core.BoardCell

	werr := s.plays.WithRoom(code, func(sess *core.Session) error {
		snap := sess.SnapshotFor("")
		cells = snap.Board
		opts.LastMove = sess.LastPlaced()
		switch {
		case snap.Phase == core.PhaseEnded:
			opts.TurnLine = s.winnerLine(snap, names)
		case sess.Turns() == 0:
			opts.TurnLine = s.line("game.started", map[string]any{
				"First": displayName(names, snap.TurnPlayerID),
			})
		default:
			opts.TurnLine = s.line("board.turn", map[string]any{
				"Username": displayName(names, snap.TurnPlayerID),
			})
		}
		return nil
	})
	if errors.Is(werr, play.ErrNoSession) {
		opts.TurnLine = s.line("board.waiting", nil)
	} else if werr != nil {
		return nil, werr
	}
	return s.renderer.RenderPNG(ctx, s.set.Layout, cells, opts)
}

// winnerLine condenses an ended game into one board header line.
func (s *Service) winnerLine(snap core.Snapshot, names map[string]string) string {
	if len(snap.Winners) == 0 {
		return s.line("board.over", nil)
	}
	score := 0
	for _, f := range snap.Finals {
		if f.PlayerID == snap.Winners[0] {
			score = f.Score
		}
	}
	if len(snap.Winners) == 1 {
		return s.line("game.winner_single", map[string]any{
			"Username": displayName(names, snap.Winners[0]),
			"Score":    score,
		})
	}
	winnerNames := make([]string, 0, len(snap.Winners))
	for _, id := range snap.Winners {
		winnerNames = append(winnerNames, displayName(names, id))
	}
	return s.line("game.winner_tie", map[string]any{
		"Usernames": strings.Join(winnerNames, " and "),
		"Score":     score,
	})
}

// Stats reports live entity counts for the status endpoint.
type Stats struct {
	Rooms    int `json:"rooms"`
	Sessions int `json:"sessions"`
}

func (s *Service) Stats() Stats {
	return Stats{
		Rooms:    s.registry.RoomCount(),
		Sessions: s.plays.SessionCount(),
	}
}

// RoomList reports per-room membership for the status endpoint.
func (s *Service) RoomList() []room.StatusRoom {
	return s.registry.Status()
}
