package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okvist/wordrack/internal/domain"
)

var ErrDuplicateGame = errors.New("game already archived")

// Repository archives finished games and aggregates per-player stats.
// Live room and game state never touches it.
type Repository interface {
	InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error)
	GetRecentGames(ctx context.Context, username string, limit int) ([]*domain.GameRecord, error)
	GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error)
	GetProfile(ctx context.Context, username string) (*domain.PlayerProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) InsertGame(ctx context.Context, rec *domain.GameRecord) (int64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil game record payload")
	}

	players, err := json.Marshal(rec.Players)
	if err != nil {
		return 0, fmt.Errorf("marshal players: %w", err)
	}
	winners, err := json.Marshal(rec.Winners)
	if err != nil {
		return 0, fmt.Errorf("marshal winners: %w", err)
	}
	scores, err := json.Marshal(rec.FinalScores)
	if err != nil {
		return 0, fmt.Errorf("marshal final_scores: %w", err)
	}

	const query = `
		INSERT INTO word_games (
			session_uuid,
			room_code,
			players,
			winners,
			final_scores,
			turns,
			best_word,
			best_word_by,
			best_points,
			end_reason,
			started_at,
			ended_at,
			duration_ms
		)
		VALUES ($1, $2, $3::jsonb, $4::jsonb, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.SessionUUID,
		rec.RoomCode,
		players,
		winners,
		scores,
		rec.Turns,
		rec.BestWord,
		rec.BestWordBy,
		rec.BestPoints,
		rec.EndReason,
		rec.StartedAt,
		rec.EndedAt,
		rec.Duration.Milliseconds(),
	).Scan(&id)
	if err == sql.ErrNoRows || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert word game: %w", err)
	}
	return id.Int64, nil
}

const gameColumns = `
		id,
		session_uuid,
		room_code,
		players,
		winners,
		final_scores,
		turns,
		best_word,
		best_word_by,
		best_points,
		end_reason,
		started_at,
		ended_at,
		duration_ms`

func scanGame(scan func(dest ...any) error) (*domain.GameRecord, error) {
	var (
		rec         domain.GameRecord
		playersJSON []byte
		winnersJSON []byte
		scoresJSON  []byte
		durationMS  sql.NullInt64
	)
	if err := scan(
		&rec.ID,
		&rec.SessionUUID,
		&rec.RoomCode,
		&playersJSON,
		&winnersJSON,
		&scoresJSON,
		&rec.Turns,
		&rec.BestWord,
		&rec.BestWordBy,
		&rec.BestPoints,
		&rec.EndReason,
		&rec.StartedAt,
		&rec.EndedAt,
		&durationMS,
	); err != nil {
		return nil, err
	}
	if durationMS.Valid {
		rec.Duration = time.Duration(durationMS.Int64) * time.Millisecond
	}
	if err := json.Unmarshal(playersJSON, &rec.Players); err != nil {
		return nil, fmt.Errorf("unmarshal players: %w", err)
	}
	if err := json.Unmarshal(winnersJSON, &rec.Winners); err != nil {
		return nil, fmt.Errorf("unmarshal winners: %w", err)
	}
	if err := json.Unmarshal(scoresJSON, &rec.FinalScores); err != nil {
		return nil, fmt.Errorf("unmarshal final_scores: %w", err)
	}
	return &rec, nil
}

func (r *repository) GetRecentGames(ctx context.Context, username string, limit int) ([]*domain.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT` + gameColumns + `
		FROM word_games
		WHERE players @> to_jsonb(ARRAY[$1::text])
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("select word games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.GameRecord, 0, limit)
	for rows.Next() {
		rec, err := scanGame(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan word game: %w", err)
		}
		games = append(games, rec)
	}
	return games, rows.Err()
}

func (r *repository) GetGameBySession(ctx context.Context, sessionUUID string) (*domain.GameRecord, error) {
	const query = `
		SELECT` + gameColumns + `
		FROM word_games
		WHERE session_uuid = $1
		LIMIT 1`

	rec, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select word game by session: %w", err)
	}
	return rec, nil
}

func (r *repository) GetProfile(ctx context.Context, username string) (*domain.PlayerProfile, error) {
	const query = `
		SELECT
			username,
			games_played,
			wins,
			total_score,
			best_move_score,
			best_word,
			best_word_score,
			last_played_at,
			updated_at,
			created_at
		FROM word_profiles
		WHERE username = $1
		LIMIT 1`

	var profile domain.PlayerProfile
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&profile.Username,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.TotalScore,
		&profile.BestMoveScore,
		&profile.BestWord,
		&profile.BestWordScore,
		&profile.LastPlayedAt,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select word profile: %w", err)
	}
	return &profile, nil
}

func (r *repository) UpsertProfile(ctx context.Context, profile *domain.PlayerProfile) error {
	if profile == nil {
		return fmt.Errorf("nil word profile payload")
	}
	const query = `
		INSERT INTO word_profiles (
			username,
			games_played,
			wins,
			total_score,
			best_move_score,
			best_word,
			best_word_score,
			last_played_at,
			updated_at,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (username)
		DO UPDATE SET
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			total_score = EXCLUDED.total_score,
			best_move_score = EXCLUDED.best_move_score,
			best_word = EXCLUDED.best_word,
			best_word_score = EXCLUDED.best_word_score,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = NOW()`

	_, err := r.db.ExecContext(
		ctx,
		query,
		profile.Username,
		profile.GamesPlayed,
		profile.Wins,
		profile.TotalScore,
		profile.BestMoveScore,
		profile.BestWord,
		profile.BestWordScore,
		profile.LastPlayedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert word profile: %w", err)
	}
	return nil
}
