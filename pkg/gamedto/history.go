package gamedto

import "time"

type GameSummary struct {
	ID          int64          `json:"id"`
	GameUUID    string         `json:"gameUuid"`
	RoomCode    string         `json:"roomCode"`
	Players     []string       `json:"players"`
	Winners     []string       `json:"winners"`
	FinalScores map[string]int `json:"finalScores"`
	Turns       int            `json:"turns"`
	StartedAt   time.Time      `json:"startedAt"`
	EndedAt     time.Time      `json:"endedAt"`
}

type ProfileView struct {
	Username      string    `json:"username"`
	GamesPlayed   int       `json:"gamesPlayed"`
	Wins          int       `json:"wins"`
	TotalScore    int       `json:"totalScore"`
	BestMoveScore int       `json:"bestMoveScore"`
	BestWord      string    `json:"bestWord"`
	BestWordScore int       `json:"bestWordScore"`
	LastPlayedAt  time.Time `json:"lastPlayedAt"`
}
