package domain

import "time"

// GameRecord is the archived outcome of one finished game.
type GameRecord struct {
	ID          int64
	SessionUUID string
	RoomCode    string
	Players     []string
	Winners     []string
	FinalScores map[string]int
	Turns       int
	BestWord    string
	BestWordBy  string
	BestPoints  int
	EndReason   string
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
}

type PlayerProfile struct {
	Username      string
	GamesPlayed   int
	Wins          int
	TotalScore    int
	BestMoveScore int
	BestWord      string
	BestWordScore int
	LastPlayedAt  time.Time
	UpdatedAt     time.Time
	CreatedAt     time.Time
}
