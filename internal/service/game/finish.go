package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/adapter/statepresenter"
	"github.com/okvist/wordrack/internal/domain"
	core "github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/room"
	"github.com/okvist/wordrack/pkg/gamedto"
)

// finishGame broadcasts the result and archives the finished session.
// The broadcast goes out first so players are never kept waiting on
// the database.
func (s *Service) finishGame(code string, view room.RoomInfo, reason core.EndReason, finals []core.FinalScore, winners []string) {
	names := view.Usernames()

	summary := ""
	if snap, serr := s.plays.SnapshotFor(code, ""); serr == nil {
		summary = strings.TrimSpace(s.endedLine(snap, names) + " " + s.winnerLine(snap, names))
	}
	s.emitAll(view.ConnectedConnIDs(), gamedto.EvtGameEnded, gamedto.GameEndedPayload{
		Reason:      string(reason),
		Summary:     summary,
		FinalScores: statepresenter.ToFinalScores(finals, names),
		Winners:     winners,
	})

	winnerNames := make([]string, 0, len(winners))
	for _, id := range winners {
		winnerNames = append(winnerNames, displayName(names, id))
	}
	s.logger.Info("game_end",
		zap.String("code", code),
		zap.String("reason", string(reason)),
		zap.Strings("winners", winnerNames))

	rec, bests := s.buildRecord(code, view, reason)
	if rec == nil {
		return
	}
	s.archiveGame(rec, bests)
}

// endedLine names what ended the game for the summary broadcast. Only
// the finisher can hold an empty rack: play stops the moment a rack
// empties with the bag dry.
func (s *Service) endedLine(snap core.Snapshot, names map[string]string) string {
	switch snap.EndReason {
	case core.EndReasonPassOut:
		return s.line("game.ended_pass_out", map[string]any{"Passes": snap.PassCount})
	case core.EndReasonRackEmpty:
		for _, p := range snap.Players {
			if p.RackCount == 0 {
				return s.line("game.ended_rack_empty", map[string]any{"Username": displayName(names, p.ID)})
			}
		}
	}
	return ""
}

func displayName(names map[string]string, playerID string) string {
	if n := names[playerID]; n != "" {
		return n
	}
	return playerID
}

// playerBest is one player's strongest single word and single move
// within a session. Keyed by username in bestsFromHistory.
type playerBest struct {
	word      string
	wordScore int
	moveScore int
}

// bestsFromHistory folds the word history into per-player bests. A
// move that forms several words counts their combined points as one
// move score.
func bestsFromHistory(history []core.WordPlay, names map[string]string) map[string]playerBest {
	moveTotals := make(map[string]map[int]int)
	bests := make(map[string]playerBest)
	for _, wp := range history {
		name := displayName(names, wp.PlayerID)
		if moveTotals[name] == nil {
			moveTotals[name] = make(map[int]int)
		}
		moveTotals[name][wp.Turn] += wp.Points
		b := bests[name]
		if wp.Points > b.wordScore {
			b.word, b.wordScore = wp.Word, wp.Points
		}
		bests[name] = b
	}
	for name, turns := range moveTotals {
		b := bests[name]
		for _, total := range turns {
			if total > b.moveScore {
				b.moveScore = total
			}
		}
		bests[name] = b
	}
	return bests
}

// buildRecord snapshots the ended session into an archive record.
// Records carry usernames, not player IDs: identities in the archive
// must outlive the room.
func (s *Service) buildRecord(code string, view room.RoomInfo, reason core.EndReason) (*domain.GameRecord, map[string]playerBest) {
	names := view.Usernames()
	var (
		rec   *domain.GameRecord
		bests map[string]playerBest
	)
	err := s.plays.WithRoom(code, func(sess *core.Session) error {
		if sess.Phase() != core.PhaseEnded {
			return nil
		}
		finals := sess.Finals()
		scores := make(map[string]int, len(finals))
		for _, f := range finals {
			scores[displayName(names, f.PlayerID)] = f.Score
		}
		players := make([]string, 0, len(sess.Players()))
		for _, id := range sess.Players() {
			players = append(players, displayName(names, id))
		}
		winners := make([]string, 0, len(sess.Winners()))
		for _, id := range sess.Winners() {
			winners = append(winners, displayName(names, id))
		}
		history := sess.History()
		bests = bestsFromHistory(history, names)

		var bestWord, bestBy string
		bestPoints := 0
		for _, wp := range history {
			if wp.Points > bestPoints {
				bestPoints = wp.Points
				bestWord = wp.Word
				bestBy = displayName(names, wp.PlayerID)
			}
		}

		started, ended := sess.StartedAt(), sess.EndedAt()
		rec = &domain.GameRecord{
			SessionUUID: sess.ID,
			RoomCode:    code,
			Players:     players,
			Winners:     winners,
			FinalScores: scores,
			Turns:       sess.Turns(),
			BestWord:    bestWord,
			BestWordBy:  bestBy,
			BestPoints:  bestPoints,
			EndReason:   string(reason),
			StartedAt:   started,
			EndedAt:     ended,
			Duration:    ended.Sub(started),
		}
		return nil
	})
	if err != nil {
		s.logger.Error("archive_snapshot_failed", zap.String("code", code), zap.Error(err))
		return nil, nil
	}
	return rec, bests
}

// archiveGame persists the record and folds it into every player's
// profile. Failures are logged, never surfaced to players. The archive
// runs on its own deadline: the triggering connection may already be
// gone.
func (s *Service) archiveGame(rec *domain.GameRecord, bests map[string]playerBest) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	id, err := s.repo.InsertGame(ctx, rec)
	if errors.Is(err, ErrDuplicateGame) {
		s.logger.Info("game_archive_duplicate", zap.String("session", rec.SessionUUID))
		return
	}
	if err != nil {
		s.logger.Error("game_archive_failed",
			zap.String("session", rec.SessionUUID),
			zap.Error(err))
		return
	}
	rec.ID = id

	for _, username := range rec.Players {
		if perr := s.updateProfile(ctx, rec, username, bests[username]); perr != nil {
			s.logger.Error("profile_update_failed",
				zap.String("username", username),
				zap.Error(perr))
		}
	}
	s.logger.Info("game_archived",
		zap.Int64("game_id", id),
		zap.String("code", rec.RoomCode),
		zap.Int("turns", rec.Turns))
}

func (s *Service) updateProfile(ctx context.Context, rec *domain.GameRecord, username string, best playerBest) error {
	profile, err := s.repo.GetProfile(ctx, username)
	if err != nil {
		return err
	}
	now := time.Now()
	if profile == nil {
		profile = &domain.PlayerProfile{Username: username, CreatedAt: now}
	}
	profile.GamesPlayed++
	if containsPlayer(rec.Winners, username) {
		profile.Wins++
	}
	profile.TotalScore += rec.FinalScores[username]
	if best.moveScore > profile.BestMoveScore {
		profile.BestMoveScore = best.moveScore
	}
	if best.wordScore > profile.BestWordScore {
		profile.BestWord = best.word
		profile.BestWordScore = best.wordScore
	}
	profile.LastPlayedAt = rec.EndedAt
	profile.UpdatedAt = now
	return s.repo.UpsertProfile(ctx, profile)
}
