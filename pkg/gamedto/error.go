package gamedto

// ErrorCode identifies a rejected request category on the wire.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "ValidationError"
	ErrCodeNotYourTurn        ErrorCode = "NotYourTurn"
	ErrCodeRoomNotFound       ErrorCode = "RoomNotFound"
	ErrCodeRoomFull           ErrorCode = "RoomFull"
	ErrCodeUsernameTaken      ErrorCode = "UsernameTaken"
	ErrCodeGameAlreadyStarted ErrorCode = "GameAlreadyStarted"
	ErrCodeGameNotStarted     ErrorCode = "GameNotStarted"
	ErrCodeGameEnded          ErrorCode = "GameEnded"
	ErrCodeNotEnoughPlayers   ErrorCode = "NotEnoughPlayers"
	ErrCodeNotHost            ErrorCode = "NotHost"
	ErrCodeInvalidPlacement   ErrorCode = "InvalidPlacement"
	ErrCodeNoWordFormed       ErrorCode = "NoWordFormed"
	ErrCodeInvalidWord        ErrorCode = "InvalidWord"
	ErrCodeInsufficientBag    ErrorCode = "InsufficientBagTiles"
	ErrCodePlayerNotFound     ErrorCode = "PlayerNotFound"
	ErrCodeServer             ErrorCode = "ServerError"
)

type DomainError struct {
	Code      ErrorCode `json:"type"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return string(e.Code)
	}
	return "game service error"
}
