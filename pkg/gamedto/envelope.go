package gamedto

import "encoding/json"

// Envelope is the frame every client request arrives in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the frame every server push goes out in.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Client → server event types.
const (
	EvtCreateRoom    = "createRoom"
	EvtJoinRoom      = "joinRoom"
	EvtApprovePlayer = "approvePlayer"
	EvtDeclinePlayer = "declinePlayer"
	EvtStartGame     = "startGame"
	EvtSubmitMove    = "submitMove"
	EvtPassTurn      = "passTurn"
	EvtExchangeTiles = "exchangeTiles"
	EvtGetGameState  = "getGameState"
)

// Server → client event types.
const (
	EvtRoomCreated        = "roomCreated"
	EvtJoinedRoom         = "joinedRoom"
	EvtJoinApproved       = "joinApproved"
	EvtJoinDeclined       = "joinDeclined"
	EvtPlayerApproved     = "playerApproved"
	EvtPlayerJoinRequest  = "playerJoinRequest"
	EvtRoomUpdated        = "roomUpdated"
	EvtGameStarted        = "gameStarted"
	EvtGameState          = "gameState"
	EvtMoveSubmitted      = "moveSubmitted"
	EvtTurnChanged        = "turnChanged"
	EvtTilesDrawn         = "tilesDrawn"
	EvtRackUpdated        = "rackUpdated"
	EvtGameEnded          = "gameEnded"
	EvtPlayerDisconnected = "playerDisconnected"
	EvtPlayerReconnected  = "playerReconnected"
	EvtHostChanged        = "hostChanged"
	EvtError              = "error"
)
