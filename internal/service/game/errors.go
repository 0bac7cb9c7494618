package game

import (
	"errors"

	"go.uber.org/zap"

	core "github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/play"
	"github.com/okvist/wordrack/internal/room"
	"github.com/okvist/wordrack/pkg/gamedto"
)

// templateData returns a map covering every field the error templates
// reference. The catalog refuses to render with a key missing, so
// unused fields carry blanks rather than breaking the message.
func templateData(extra map[string]any) map[string]any {
	data := map[string]any{
		"Code":     "",
		"Username": "",
		"Word":     "",
		"Detail":   "",
		"Reason":   "",
		"BagCount": 0,
		"Row":      0,
		"Col":      0,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// SendError pushes one error event to a connection, mapping internal
// errors to the wire vocabulary on the way out.
func (s *Service) SendError(connID string, err error) {
	if err == nil {
		return
	}
	s.emit(connID, gamedto.EvtError, s.toDomain(err, nil))
}

// wrap converts an operation error into its wire form, folding the
// call site's template data into the rendered message.
func (s *Service) wrap(err error, data map[string]any) error {
	if err == nil {
		return nil
	}
	return s.toDomain(err, data)
}

func (s *Service) validationError(detail string) error {
	return gamedto.DomainError{
		Code:    gamedto.ErrCodeValidation,
		Message: s.line("error.validation", templateData(map[string]any{"Detail": detail})),
	}
}

func (s *Service) toDomain(err error, extra map[string]any) gamedto.DomainError {
	var de gamedto.DomainError
	if errors.As(err, &de) {
		return de
	}
	data := templateData(extra)

	var pe *core.PlacementError
	if errors.As(err, &pe) {
		data["Row"], data["Col"] = pe.Row, pe.Col
		data["Reason"] = s.line("placement."+string(pe.Reason), data)
		return gamedto.DomainError{
			Code:    gamedto.ErrCodeInvalidPlacement,
			Message: s.line("error.invalid_placement", data),
		}
	}
	var we *core.InvalidWordError
	if errors.As(err, &we) {
		data["Word"] = we.Word
		return gamedto.DomainError{
			Code:    gamedto.ErrCodeInvalidWord,
			Message: s.line("error.invalid_word", data),
		}
	}

	code, key := classify(err)
	if code == gamedto.ErrCodeServer {
		s.logger.Error("op_failed", zap.Error(err))
		return gamedto.DomainError{
			Code:      code,
			Message:   s.line(key, data),
			Retryable: true,
		}
	}
	if key == "error.validation" && data["Detail"] == "" {
		data["Detail"] = err.Error()
	}
	return gamedto.DomainError{Code: code, Message: s.line(key, data)}
}

// classify maps sentinel errors to wire codes and catalog keys.
// Anything unrecognized is a server fault.
func classify(err error) (gamedto.ErrorCode, string) {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return gamedto.ErrCodeRoomNotFound, "error.room_not_found"
	case errors.Is(err, room.ErrRoomFull):
		return gamedto.ErrCodeRoomFull, "error.room_full"
	case errors.Is(err, room.ErrUsernameTaken):
		return gamedto.ErrCodeUsernameTaken, "error.username_taken"
	case errors.Is(err, room.ErrGameAlreadyStarted),
		errors.Is(err, play.ErrSessionExists),
		errors.Is(err, core.ErrAlreadyStarted):
		return gamedto.ErrCodeGameAlreadyStarted, "error.game_already_started"
	case errors.Is(err, room.ErrNotEnoughPlayers):
		return gamedto.ErrCodeNotEnoughPlayers, "error.not_enough_players"
	case errors.Is(err, room.ErrNotHost):
		return gamedto.ErrCodeNotHost, "error.not_host"
	case errors.Is(err, room.ErrPlayerNotFound), errors.Is(err, core.ErrUnknownPlayer):
		return gamedto.ErrCodePlayerNotFound, "error.player_not_found"
	case errors.Is(err, ErrNotInRoom):
		return gamedto.ErrCodeValidation, "error.not_in_room"
	case errors.Is(err, room.ErrInvalidUsername),
		errors.Is(err, core.ErrLetterMismatch),
		errors.Is(err, core.ErrBlankNeedsLetter),
		errors.Is(err, core.ErrBadExchange):
		return gamedto.ErrCodeValidation, "error.validation"
	case errors.Is(err, play.ErrNoSession), errors.Is(err, core.ErrNotStarted):
		return gamedto.ErrCodeGameNotStarted, "error.game_not_started"
	case errors.Is(err, core.ErrGameEnded):
		return gamedto.ErrCodeGameEnded, "error.game_ended"
	case errors.Is(err, core.ErrNotYourTurn):
		return gamedto.ErrCodeNotYourTurn, "error.not_your_turn"
	case errors.Is(err, core.ErrEmptyMove), errors.Is(err, core.ErrNoWordFormed):
		return gamedto.ErrCodeNoWordFormed, "error.no_word_formed"
	case errors.Is(err, core.ErrInsufficientBag):
		return gamedto.ErrCodeInsufficientBag, "error.insufficient_bag"
	case errors.Is(err, core.ErrTileNotInRack):
		return gamedto.ErrCodeInvalidPlacement, "placement.tile_not_in_rack"
	}
	return gamedto.ErrCodeServer, "error.server"
}
