package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/okvist/wordrack/pkg/gamedto"
)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  []string{"*"},
	})
	if err != nil {
		s.logger.Debug("ws_accept_failed", zap.Error(err))
		return
	}

	cn := newConn(uuid.NewString(), sock, s.cfg.QueueSize, s.cfg.WriteTimeout, s.logger)
	s.addConn(cn)
	s.logger.Info("ws_open",
		zap.String("conn_id", cn.id),
		zap.String("remote", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	go func() {
		cn.writeLoop(ctx)
		// A dead writer must also release the reader.
		cancel()
	}()

	s.readLoop(ctx, cn)
	cancel()

	s.dropConn(cn)
	cn.stop()
	s.svc.Disconnect(cn.id)
	_ = sock.Close(websocket.StatusNormalClosure, "bye")
	s.logger.Info("ws_closed", zap.String("conn_id", cn.id))
}

// readLoop decodes client frames one at a time. Per-connection
// processing stays serial so a client's requests apply in the order
// they were sent.
func (s *Server) readLoop(ctx context.Context, cn *conn) {
	for {
		var env gamedto.Envelope
		if err := wsjson.Read(ctx, cn.sock, &env); err != nil {
			return
		}
		s.dispatch(ctx, cn, env)
	}
}

func (s *Server) dispatch(ctx context.Context, cn *conn, env gamedto.Envelope) {
	var err error
	switch env.Type {
	case gamedto.EvtCreateRoom:
		var req gamedto.CreateRoomRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.CreateRoom(ctx, cn.id, req)
		}
	case gamedto.EvtJoinRoom:
		var req gamedto.JoinRoomRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.JoinRoom(ctx, cn.id, req)
		}
	case gamedto.EvtApprovePlayer:
		var req gamedto.ApprovePlayerRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.ApprovePlayer(ctx, cn.id, req)
		}
	case gamedto.EvtDeclinePlayer:
		var req gamedto.DeclinePlayerRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.DeclinePlayer(ctx, cn.id, req)
		}
	case gamedto.EvtStartGame:
		err = s.svc.StartGame(ctx, cn.id)
	case gamedto.EvtSubmitMove:
		var req gamedto.SubmitMoveRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.SubmitMove(ctx, cn.id, req)
		}
	case gamedto.EvtPassTurn:
		err = s.svc.PassTurn(ctx, cn.id)
	case gamedto.EvtExchangeTiles:
		var req gamedto.ExchangeTilesRequest
		if err = decode(env.Payload, &req); err == nil {
			err = s.svc.ExchangeTiles(ctx, cn.id, req)
		}
	case gamedto.EvtGetGameState:
		err = s.svc.GameState(ctx, cn.id)
	default:
		err = gamedto.DomainError{
			Code:    gamedto.ErrCodeValidation,
			Message: fmt.Sprintf("unknown message type %q", env.Type),
		}
	}
	if err != nil {
		s.svc.SendError(cn.id, err)
	}
}

func decode(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return gamedto.DomainError{
			Code:    gamedto.ErrCodeValidation,
			Message: "missing payload",
		}
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return gamedto.DomainError{
			Code:    gamedto.ErrCodeValidation,
			Message: "malformed payload: " + err.Error(),
		}
	}
	return nil
}
