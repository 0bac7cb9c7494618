package gamedto

type TileView struct {
	ID     string `json:"id"`
	Letter string `json:"letter"`
	Value  int    `json:"value"`
	Blank  bool   `json:"blank,omitempty"`
}

type BoardCellView struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Letter string `json:"letter"`
	Value  int    `json:"value"`
	Blank  bool   `json:"blank,omitempty"`
}

type PlayerView struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	Host      bool   `json:"host"`
	Connected bool   `json:"connected"`
	RackCount int    `json:"rackCount"`
}

type RoomView struct {
	Code    string       `json:"code"`
	HostID  string       `json:"hostId"`
	Started bool         `json:"started"`
	Players []PlayerView `json:"players"`
}

type WordPlayView struct {
	Word     string `json:"word"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Turn     int    `json:"turn"`
}

type ScoreView struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// GameStateView is the authoritative snapshot delivered to one player.
// Rack holds only the recipient's own tiles.
type GameStateView struct {
	RoomCode     string          `json:"roomCode"`
	Started      bool            `json:"started"`
	Ended        bool            `json:"ended"`
	Board        []BoardCellView `json:"board"`
	Players      []PlayerView    `json:"players"`
	TurnPlayerID string          `json:"turnPlayerId"`
	TurnIndex    int             `json:"turnIndex"`
	BagCount     int             `json:"bagCount"`
	PassCount    int             `json:"passCount"`
	Rack         []TileView      `json:"rack"`
	History      []WordPlayView  `json:"history"`
	Winners      []string        `json:"winners,omitempty"`
}
