package gamedto

type RoomCreatedPayload struct {
	Room RoomView   `json:"room"`
	You  PlayerView `json:"you"`
}

// JoinedRoomPayload acknowledges a joinRoom request. Pending means the
// request is parked awaiting host approval; a reconnection carries the
// room and, for a started game, the full snapshot.
type JoinedRoomPayload struct {
	RoomCode string         `json:"roomCode"`
	Pending  bool           `json:"pending"`
	Message  string         `json:"message,omitempty"`
	Room     *RoomView      `json:"room,omitempty"`
	State    *GameStateView `json:"state,omitempty"`
}

type JoinApprovedPayload struct {
	Room RoomView   `json:"room"`
	You  PlayerView `json:"you"`
}

type JoinDeclinedPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message,omitempty"`
}

type PlayerApprovedPayload struct {
	Player PlayerView `json:"player"`
}

type PlayerJoinRequestPayload struct {
	Player PlayerView `json:"player"`
}

// RoomUpdatedPayload refreshes the waiting-room roster after a member
// is forgotten or the host changes off-turn.
type RoomUpdatedPayload struct {
	Room RoomView `json:"room"`
}

type GameStartedPayload struct {
	State GameStateView `json:"state"`
}

type GameStatePayload struct {
	State GameStateView `json:"state"`
}

type MoveSubmittedPayload struct {
	PlayerID  string          `json:"playerId"`
	Username  string          `json:"username"`
	MoveScore int             `json:"moveScore"`
	Bingo     bool            `json:"bingo,omitempty"`
	Words     []WordPlayView  `json:"words"`
	Board     []BoardCellView `json:"board"`
	Scores    []ScoreView     `json:"scores"`
	BagCount  int             `json:"bagCount"`
}

type TurnChangedPayload struct {
	TurnPlayerID string `json:"turnPlayerId"`
	Username     string `json:"username"`
	TurnIndex    int    `json:"turnIndex"`
	PassCount    int    `json:"passCount"`
}

type TilesDrawnPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Count    int    `json:"count"`
	BagCount int    `json:"bagCount"`
}

type RackUpdatedPayload struct {
	Rack []TileView `json:"rack"`
}

type FinalScoreView struct {
	PlayerID    string `json:"playerId"`
	Username    string `json:"username"`
	Score       int    `json:"score"`
	RackPenalty int    `json:"rackPenalty"`
	Bonus       int    `json:"bonus"`
}

type GameEndedPayload struct {
	Reason      string           `json:"reason"`
	Summary     string           `json:"summary,omitempty"`
	FinalScores []FinalScoreView `json:"finalScores"`
	Winners     []string         `json:"winners"`
}

type PlayerDisconnectedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type PlayerReconnectedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type HostChangedPayload struct {
	HostID   string `json:"hostId"`
	Username string `json:"username"`
	Message  string `json:"message,omitempty"`
}
