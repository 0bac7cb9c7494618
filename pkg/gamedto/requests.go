package gamedto

type CreateRoomRequest struct {
	Username string `json:"username"`
}

type JoinRoomRequest struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

type ApprovePlayerRequest struct {
	PlayerID string `json:"playerId"`
}

type DeclinePlayerRequest struct {
	PlayerID string `json:"playerId"`
}

// PlacedTile names one rack tile and the cell it should land on.
// Letter is required for a blank tile (the letter it stands in for)
// and must match the tile's face otherwise.
type PlacedTile struct {
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	TileID string `json:"tileId"`
	Letter string `json:"letter,omitempty"`
}

type SubmitMoveRequest struct {
	PlacedTiles []PlacedTile `json:"placedTiles"`
}

type ExchangeTilesRequest struct {
	Indices []int `json:"indices"`
}
