// Package statepresenter maps engine and registry state onto the wire
// DTOs without coupling the service layer to either representation.
package statepresenter

import (
	"github.com/okvist/wordrack/internal/domain"
	"github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/room"
	"github.com/okvist/wordrack/pkg/gamedto"
)

func ToTileView(t game.Tile) gamedto.TileView {
	return gamedto.TileView{
		ID:     t.ID,
		Letter: string(t.Letter),
		Value:  t.Value,
		Blank:  t.Blank,
	}
}

func ToRack(r game.Rack) []gamedto.TileView {
	out := make([]gamedto.TileView, 0, len(r))
	for _, t := range r {
		out = append(out, ToTileView(t))
	}
	return out
}

func ToBoard(cells []game.BoardCell) []gamedto.BoardCellView {
	out := make([]gamedto.BoardCellView, 0, len(cells))
	for _, c := range cells {
		out = append(out, gamedto.BoardCellView{
			Row:    c.Row,
			Col:    c.Col,
			Letter: string(c.Tile.Letter),
			Value:  c.Tile.Value,
			Blank:  c.Tile.Blank,
		})
	}
	return out
}

func ToPlayerView(p room.PlayerInfo) gamedto.PlayerView {
	return gamedto.PlayerView{
		ID:        p.ID,
		Username:  p.Username,
		Host:      p.Host,
		Connected: p.Connected && !p.Departed,
	}
}

func ToRoomView(ri room.RoomInfo) gamedto.RoomView {
	players := make([]gamedto.PlayerView, 0, len(ri.Players))
	for _, p := range ri.Players {
		players = append(players, ToPlayerView(p))
	}
	return gamedto.RoomView{
		Code:    ri.Code,
		HostID:  ri.HostID,
		Started: ri.Started,
		Players: players,
	}
}

func ToWordPlays(plays []game.WordPlay, names map[string]string) []gamedto.WordPlayView {
	out := make([]gamedto.WordPlayView, 0, len(plays))
	for _, w := range plays {
		out = append(out, gamedto.WordPlayView{
			Word:     w.Word,
			PlayerID: w.PlayerID,
			Username: names[w.PlayerID],
			Points:   w.Points,
			Turn:     w.Turn,
		})
	}
	return out
}

func ToScores(players []game.PlayerSummary, names map[string]string) []gamedto.ScoreView {
	out := make([]gamedto.ScoreView, 0, len(players))
	for _, p := range players {
		out = append(out, gamedto.ScoreView{
			PlayerID: p.ID,
			Username: names[p.ID],
			Score:    p.Score,
		})
	}
	return out
}

func ToFinalScores(finals []game.FinalScore, names map[string]string) []gamedto.FinalScoreView {
	out := make([]gamedto.FinalScoreView, 0, len(finals))
	for _, f := range finals {
		out = append(out, gamedto.FinalScoreView{
			PlayerID:    f.PlayerID,
			Username:    names[f.PlayerID],
			Score:       f.Score,
			RackPenalty: f.RackPenalty,
			Bonus:       f.Bonus,
		})
	}
	return out
}

// ToStateView merges the redacted engine snapshot with room identity.
// Seat order comes from the game; usernames, host and connectivity
// come from the registry.
func ToStateView(snap game.Snapshot, ri room.RoomInfo) gamedto.GameStateView {
	players := make([]gamedto.PlayerView, 0, len(snap.Players))
	for _, ps := range snap.Players {
		pv := gamedto.PlayerView{
			ID:        ps.ID,
			Score:     ps.Score,
			RackCount: ps.RackCount,
		}
		if info, ok := ri.Player(ps.ID); ok {
			pv.Username = info.Username
			pv.Host = info.Host
			pv.Connected = info.Connected && !info.Departed
		}
		if ps.Departed {
			pv.Connected = false
		}
		players = append(players, pv)
	}

	names := ri.Usernames()
	return gamedto.GameStateView{
		RoomCode:     snap.RoomCode,
		Started:      snap.Phase != game.PhaseWaiting,
		Ended:        snap.Phase == game.PhaseEnded,
		Board:        ToBoard(snap.Board),
		Players:      players,
		TurnPlayerID: snap.TurnPlayerID,
		TurnIndex:    snap.TurnIndex,
		BagCount:     snap.BagCount,
		PassCount:    snap.PassCount,
		Rack:         ToRack(snap.Rack),
		History:      ToWordPlays(snap.History, names),
		Winners:      append([]string(nil), snap.Winners...),
	}
}

func ToSummary(g *domain.GameRecord) *gamedto.GameSummary {
	if g == nil {
		return nil
	}
	scores := make(map[string]int, len(g.FinalScores))
	for k, v := range g.FinalScores {
		scores[k] = v
	}
	return &gamedto.GameSummary{
		ID:          g.ID,
		GameUUID:    g.SessionUUID,
		RoomCode:    g.RoomCode,
		Players:     append([]string(nil), g.Players...),
		Winners:     append([]string(nil), g.Winners...),
		FinalScores: scores,
		Turns:       g.Turns,
		StartedAt:   g.StartedAt,
		EndedAt:     g.EndedAt,
	}
}

func ToSummaries(list []*domain.GameRecord) []*gamedto.GameSummary {
	out := make([]*gamedto.GameSummary, 0, len(list))
	for _, g := range list {
		if g == nil {
			continue
		}
		out = append(out, ToSummary(g))
	}
	return out
}

func ToProfile(p *domain.PlayerProfile) *gamedto.ProfileView {
	if p == nil {
		return nil
	}
	return &gamedto.ProfileView{
		Username:      p.Username,
		GamesPlayed:   p.GamesPlayed,
		Wins:          p.Wins,
		TotalScore:    p.TotalScore,
		BestMoveScore: p.BestMoveScore,
		BestWord:      p.BestWord,
		BestWordScore: p.BestWordScore,
		LastPlayedAt:  p.LastPlayedAt,
	}
}
