// Package game orchestrates rooms, live sessions, the dictionary and
// the archive behind the websocket surface. Every state change flows
// through here so that clients only ever see server-computed results.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/adapter/statepresenter"
	core "github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/msgcat"
	"github.com/okvist/wordrack/internal/play"
	"github.com/okvist/wordrack/internal/room"
	"github.com/okvist/wordrack/internal/tileset"
	"github.com/okvist/wordrack/internal/util"
	"github.com/okvist/wordrack/pkg/gamedto"
)

var (
	ErrNotInRoom       = errors.New("connection not bound to a room")
	ErrProfileNotFound = errors.New("player profile not found")
)

const archiveTimeout = 10 * time.Second

// SendFunc delivers one event to one connection. Implementations must
// be safe for concurrent use and must not block on slow clients.
type SendFunc func(connID string, evt gamedto.Event)

type Config struct {
	HistoryLimit int
}

type Service struct {
	registry *room.Registry
	binder   *room.Binder
	plays    *play.Manager
	check    core.WordChecker
	repo     Repository
	renderer BoardRenderer
	set      *tileset.Set
	msgs     *msgcat.Catalog
	cfg      Config
	logger   *zap.Logger

	send SendFunc
}

func NewService(
	registry *room.Registry,
	binder *room.Binder,
	plays *play.Manager,
	check core.WordChecker,
	repo Repository,
	renderer BoardRenderer,
	set *tileset.Set,
	msgs *msgcat.Catalog,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if registry == nil || binder == nil || plays == nil {
		return nil, fmt.Errorf("registry, binder and play manager are required")
	}
	if set == nil {
		return nil, fmt.Errorf("tile set is required")
	}
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if renderer == nil {
		renderer = NewSVGBoardRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	return &Service{
		registry: registry,
		binder:   binder,
		plays:    plays,
		check:    check,
		repo:     repo,
		renderer: renderer,
		set:      set,
		msgs:     msgs,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// SetTransport installs the outbound event hook. Must be called before
// the first connection is served.
func (s *Service) SetTransport(send SendFunc) {
	s.send = send
}

func (s *Service) emit(connID, evtType string, payload any) {
	if s.send == nil || connID == "" {
		return
	}
	s.send(connID, gamedto.Event{Type: evtType, Payload: payload})
}

func (s *Service) emitAll(connIDs []string, evtType string, payload any) {
	for _, id := range connIDs {
		s.emit(id, evtType, payload)
	}
}

func excluding(connIDs []string, drop string) []string {
	out := make([]string, 0, len(connIDs))
	for _, id := range connIDs {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) resolve(connID string) (room.Binding, error) {
	bind, ok := s.binder.Resolve(connID)
	if !ok {
		return room.Binding{}, ErrNotInRoom
	}
	return bind, nil
}

// line renders a catalog message, tolerating a nil catalog.
func (s *Service) line(key string, data map[string]any) string {
	if s.msgs == nil {
		return key
	}
	return s.msgs.Line(key, data)
}

// CreateRoom opens a fresh room with the caller as connected host.
func (s *Service) CreateRoom(ctx context.Context, connID string, req gamedto.CreateRoomRequest) error {
	username := util.NormalizeUsername(req.Username)
	if !util.ValidUsername(username) {
		return s.validationError("username must be 1 to 24 characters")
	}

	roomInfo, you, err := s.registry.CreateRoom(username, connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	s.binder.Bind(connID, roomInfo.Code, you.ID)
	s.emit(connID, gamedto.EvtRoomCreated, gamedto.RoomCreatedPayload{
		Room: statepresenter.ToRoomView(roomInfo),
		You:  statepresenter.ToPlayerView(you),
	})
	return nil
}

// JoinRoom either reattaches a recently disconnected member or parks
// the request for host approval.
func (s *Service) JoinRoom(ctx context.Context, connID string, req gamedto.JoinRoomRequest) error {
	username := util.NormalizeUsername(req.Username)
	code := strings.ToUpper(strings.TrimSpace(req.RoomCode))
	if !util.ValidUsername(username) {
		return s.validationError("username must be 1 to 24 characters")
	}
	data := map[string]any{"Code": code, "Username": username}

	res, err := s.registry.RequestJoin(username, code, connID)
	if err != nil {
		return s.wrap(err, data)
	}
	s.binder.Bind(connID, code, res.You.ID)
	view := res.Room

	if res.Reconnected {
		payload := gamedto.JoinedRoomPayload{RoomCode: code, Pending: false}
		rv := statepresenter.ToRoomView(view)
		payload.Room = &rv
		if view.Started {
			if snap, serr := s.plays.SnapshotFor(code, res.You.ID); serr == nil {
				st := statepresenter.ToStateView(snap, view)
				payload.State = &st
			}
		}
		s.emit(connID, gamedto.EvtJoinedRoom, payload)

		others := excluding(view.ConnectedConnIDs(), connID)
		s.emitAll(others, gamedto.EvtPlayerReconnected, gamedto.PlayerReconnectedPayload{
			PlayerID: res.You.ID,
			Username: res.You.Username,
		})
		if view.HostID == res.You.ID {
			s.emitAll(view.ConnectedConnIDs(), gamedto.EvtHostChanged, gamedto.HostChangedPayload{
				HostID:   res.You.ID,
				Username: res.You.Username,
				Message:  s.line("room.host_changed", map[string]any{"Username": res.You.Username}),
			})
		}
		return nil
	}

	if res.ForgottenPlayerID != "" {
		s.emitAll(view.ConnectedConnIDs(), gamedto.EvtRoomUpdated, gamedto.RoomUpdatedPayload{
			Room: statepresenter.ToRoomView(view),
		})
	}
	s.emit(connID, gamedto.EvtJoinedRoom, gamedto.JoinedRoomPayload{
		RoomCode: code,
		Pending:  true,
		Message:  s.line("room.join_pending", map[string]any{"Code": code}),
	})
	if res.HostConnID != "" {
		s.emit(res.HostConnID, gamedto.EvtPlayerJoinRequest, gamedto.PlayerJoinRequestPayload{
			Player: statepresenter.ToPlayerView(res.You),
		})
	}
	return nil
}

// ApprovePlayer promotes a pending requester to member. Host only.
func (s *Service) ApprovePlayer(ctx context.Context, connID string, req gamedto.ApprovePlayerRequest) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	ar, err := s.registry.Approve(bind.RoomCode, bind.PlayerID, req.PlayerID)
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	s.emit(ar.ConnID, gamedto.EvtJoinApproved, gamedto.JoinApprovedPayload{
		Room: statepresenter.ToRoomView(ar.Room),
		You:  statepresenter.ToPlayerView(ar.Player),
	})
	others := excluding(ar.Room.ConnectedConnIDs(), ar.ConnID)
	s.emitAll(others, gamedto.EvtPlayerApproved, gamedto.PlayerApprovedPayload{
		Player: statepresenter.ToPlayerView(ar.Player),
	})
	return nil
}

// DeclinePlayer rejects a pending requester. Host only.
func (s *Service) DeclinePlayer(ctx context.Context, connID string, req gamedto.DeclinePlayerRequest) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	declinedConn, err := s.registry.Decline(bind.RoomCode, bind.PlayerID, req.PlayerID)
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}
	if declinedConn != "" {
		s.emit(declinedConn, gamedto.EvtJoinDeclined, gamedto.JoinDeclinedPayload{
			RoomCode: bind.RoomCode,
			Message:  s.line("room.join_declined", map[string]any{"Code": bind.RoomCode}),
		})
		s.binder.Unbind(declinedConn)
	}
	return nil
}

// StartGame seats every member, deals racks and pushes each player
// their personal opening snapshot. Host only.
func (s *Service) StartGame(ctx context.Context, connID string) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	sr, err := s.registry.StartGame(bind.RoomCode, bind.PlayerID)
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	code := bind.RoomCode
	connected := func(playerID string) bool {
		v, verr := s.registry.View(code)
		if verr != nil {
			return false
		}
		p, ok := v.Player(playerID)
		return ok && p.Connected
	}
	if err := s.plays.Create(code, sr.PlayerIDs, connected); err != nil {
		s.logger.Error("session_create_failed", zap.String("code", code), zap.Error(err))
		return s.wrap(err, map[string]any{"Code": code})
	}

	for _, p := range sr.Room.Players {
		if !p.Connected || p.ConnID == "" {
			continue
		}
		snap, serr := s.plays.SnapshotFor(code, p.ID)
		if serr != nil {
			continue
		}
		s.emit(p.ConnID, gamedto.EvtGameStarted, gamedto.GameStartedPayload{
			State: statepresenter.ToStateView(snap, sr.Room),
		})
	}
	return nil
}

func (s *Service) placedSpecs(tiles []gamedto.PlacedTile) ([]core.PlacedSpec, error) {
	if len(tiles) == 0 {
		return nil, core.ErrEmptyMove
	}
	out := make([]core.PlacedSpec, 0, len(tiles))
	for _, t := range tiles {
		spec := core.PlacedSpec{Row: t.Row, Col: t.Col, TileID: strings.TrimSpace(t.TileID)}
		if spec.TileID == "" {
			return nil, s.validationError("every placed tile needs a tileId")
		}
		if t.Letter != "" {
			runes := []rune(t.Letter)
			if len(runes) != 1 {
				return nil, s.validationError("letter must be a single character")
			}
			spec.Letter = runes[0]
		}
		out = append(out, spec)
	}
	return out, nil
}

// SubmitMove validates and commits a move, then fans out the results.
// The dictionary check runs inside the room lock so the move is atomic
// against every other operation on the same room.
func (s *Service) SubmitMove(ctx context.Context, connID string, req gamedto.SubmitMoveRequest) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	specs, err := s.placedSpecs(req.PlacedTiles)
	if err != nil {
		return s.wrap(err, nil)
	}

	var result *core.MoveResult
	err = s.plays.WithRoom(bind.RoomCode, func(sess *core.Session) error {
		r, merr := sess.SubmitMove(ctx, bind.PlayerID, specs, s.check)
		if merr != nil {
			return merr
		}
		result = r
		return nil
	})
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	view, verr := s.registry.View(bind.RoomCode)
	if verr != nil {
		view = room.RoomInfo{}
	}
	names := view.Usernames()
	conns := view.ConnectedConnIDs()

	public, _ := s.plays.SnapshotFor(bind.RoomCode, "")
	s.emitAll(conns, gamedto.EvtMoveSubmitted, gamedto.MoveSubmittedPayload{
		PlayerID:  result.PlayerID,
		Username:  names[result.PlayerID],
		MoveScore: result.Score,
		Bingo:     result.Bingo,
		Words:     statepresenter.ToWordPlays(result.Words, names),
		Board:     statepresenter.ToBoard(public.Board),
		Scores:    statepresenter.ToScores(public.Players, names),
		BagCount:  result.BagCount,
	})
	s.emit(connID, gamedto.EvtRackUpdated, gamedto.RackUpdatedPayload{
		Rack: statepresenter.ToRack(result.Rack),
	})
	if len(result.Drawn) > 0 {
		s.emitAll(conns, gamedto.EvtTilesDrawn, gamedto.TilesDrawnPayload{
			PlayerID: result.PlayerID,
			Username: names[result.PlayerID],
			Count:    len(result.Drawn),
			BagCount: result.BagCount,
		})
	}

	s.logger.Info("game_move",
		zap.String("code", bind.RoomCode),
		zap.String("player", names[result.PlayerID]),
		zap.Int("score", result.Score),
		zap.Bool("bingo", result.Bingo),
		zap.Int("words", len(result.Words)))

	if result.Ended {
		s.finishGame(bind.RoomCode, view, result.EndReason, result.Finals, result.Winners)
		return nil
	}
	s.emitAll(conns, gamedto.EvtTurnChanged, gamedto.TurnChangedPayload{
		TurnPlayerID: result.TurnPlayerID,
		Username:     names[result.TurnPlayerID],
		TurnIndex:    result.TurnIndex,
		PassCount:    result.PassCount,
	})
	return nil
}

// PassTurn forfeits the turn. Enough consecutive passes end the game.
func (s *Service) PassTurn(ctx context.Context, connID string) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}

	var res *core.PassResult
	err = s.plays.WithRoom(bind.RoomCode, func(sess *core.Session) error {
		r, perr := sess.PassTurn(bind.PlayerID)
		if perr != nil {
			return perr
		}
		res = r
		return nil
	})
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	view, verr := s.registry.View(bind.RoomCode)
	if verr != nil {
		view = room.RoomInfo{}
	}
	names := view.Usernames()

	if res.Ended {
		s.finishGame(bind.RoomCode, view, res.EndReason, res.Finals, res.Winners)
		return nil
	}
	s.emitAll(view.ConnectedConnIDs(), gamedto.EvtTurnChanged, gamedto.TurnChangedPayload{
		TurnPlayerID: res.TurnPlayerID,
		Username:     names[res.TurnPlayerID],
		TurnIndex:    res.TurnIndex,
		PassCount:    res.PassCount,
	})
	return nil
}

// ExchangeTiles swaps rack tiles against the bag and consumes the turn
// without touching the pass counter.
func (s *Service) ExchangeTiles(ctx context.Context, connID string, req gamedto.ExchangeTilesRequest) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}

	var res *core.ExchangeResult
	err = s.plays.WithRoom(bind.RoomCode, func(sess *core.Session) error {
		r, xerr := sess.ExchangeTiles(bind.PlayerID, req.Indices)
		if xerr != nil {
			return xerr
		}
		res = r
		return nil
	})
	if errors.Is(err, core.ErrInsufficientBag) {
		snap, _ := s.plays.SnapshotFor(bind.RoomCode, bind.PlayerID)
		return gamedto.DomainError{
			Code:    gamedto.ErrCodeInsufficientBag,
			Message: s.line("error.insufficient_bag", templateData(map[string]any{"BagCount": snap.BagCount})),
		}
	}
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	view, verr := s.registry.View(bind.RoomCode)
	if verr != nil {
		view = room.RoomInfo{}
	}
	names := view.Usernames()
	conns := view.ConnectedConnIDs()

	s.emit(connID, gamedto.EvtRackUpdated, gamedto.RackUpdatedPayload{
		Rack: statepresenter.ToRack(res.Rack),
	})
	s.emitAll(conns, gamedto.EvtTilesDrawn, gamedto.TilesDrawnPayload{
		PlayerID: res.PlayerID,
		Username: names[res.PlayerID],
		Count:    res.Returned,
		BagCount: res.BagCount,
	})
	s.emitAll(conns, gamedto.EvtTurnChanged, gamedto.TurnChangedPayload{
		TurnPlayerID: res.TurnPlayerID,
		Username:     names[res.TurnPlayerID],
		TurnIndex:    res.TurnIndex,
		PassCount:    res.PassCount,
	})
	return nil
}

// GameState answers an explicit resync request with the caller's
// personal view.
func (s *Service) GameState(ctx context.Context, connID string) error {
	bind, err := s.resolve(connID)
	if err != nil {
		return s.wrap(err, nil)
	}
	view, err := s.registry.View(bind.RoomCode)
	if err != nil {
		return s.wrap(err, map[string]any{"Code": bind.RoomCode})
	}

	if view.Started {
		if snap, serr := s.plays.SnapshotFor(bind.RoomCode, bind.PlayerID); serr == nil {
			s.emit(connID, gamedto.EvtGameState, gamedto.GameStatePayload{
				State: statepresenter.ToStateView(snap, view),
			})
			return nil
		}
	}
	s.emit(connID, gamedto.EvtGameState, gamedto.GameStatePayload{State: waitingState(view)})
	return nil
}

// waitingState is the pre-game view: roster only, no board.
func waitingState(view room.RoomInfo) gamedto.GameStateView {
	players := make([]gamedto.PlayerView, 0, len(view.Players))
	for _, p := range view.Players {
		players = append(players, statepresenter.ToPlayerView(p))
	}
	return gamedto.GameStateView{
		RoomCode: view.Code,
		Started:  false,
		Players:  players,
	}
}

// Disconnect routes a dropped transport into the room lifecycle: the
// member keeps their seat for the reconnection window, pending
// requests are withdrawn.
func (s *Service) Disconnect(connID string) {
	bind, ok := s.binder.Unbind(connID)
	if !ok {
		return
	}
	dr, err := s.registry.MarkDisconnected(bind.RoomCode, bind.PlayerID)
	if err != nil {
		return
	}
	if dr.WasPending {
		return
	}

	conns := dr.Room.ConnectedConnIDs()
	s.emitAll(conns, gamedto.EvtPlayerDisconnected, gamedto.PlayerDisconnectedPayload{
		PlayerID: dr.Player.ID,
		Username: dr.Player.Username,
	})
	if dr.NewHostID != "" {
		names := dr.Room.Usernames()
		s.emitAll(conns, gamedto.EvtHostChanged, gamedto.HostChangedPayload{
			HostID:   dr.NewHostID,
			Username: names[dr.NewHostID],
			Message:  s.line("room.host_changed", map[string]any{"Username": names[dr.NewHostID]}),
		})
	}
}

// HandleDeparture reacts to a lapsed reconnection window: departed
// seats leave the rotation in started games, waiting rooms just shrink.
func (s *Service) HandleDeparture(d room.Departure) {
	view, verr := s.registry.View(d.Code)
	if verr != nil {
		return
	}
	conns := view.ConnectedConnIDs()
	names := view.Usernames()

	if !d.Started {
		s.emitAll(conns, gamedto.EvtRoomUpdated, gamedto.RoomUpdatedPayload{
			Room: statepresenter.ToRoomView(view),
		})
		if d.NewHostID != "" {
			s.emitAll(conns, gamedto.EvtHostChanged, gamedto.HostChangedPayload{
				HostID:   d.NewHostID,
				Username: names[d.NewHostID],
				Message:  s.line("room.host_changed", map[string]any{"Username": names[d.NewHostID]}),
			})
		}
		return
	}

	turnMoved := false
	err := s.plays.WithRoom(d.Code, func(sess *core.Session) error {
		before := sess.CurrentPlayerID()
		sess.MarkDeparted(d.PlayerID)
		turnMoved = sess.CurrentPlayerID() != before
		return nil
	})
	if err != nil {
		return
	}
	if turnMoved {
		if snap, serr := s.plays.SnapshotFor(d.Code, ""); serr == nil {
			s.emitAll(conns, gamedto.EvtTurnChanged, gamedto.TurnChangedPayload{
				TurnPlayerID: snap.TurnPlayerID,
				Username:     names[snap.TurnPlayerID],
				TurnIndex:    snap.TurnIndex,
				PassCount:    snap.PassCount,
			})
		}
	}
	if d.NewHostID != "" {
		s.emitAll(conns, gamedto.EvtHostChanged, gamedto.HostChangedPayload{
			HostID:   d.NewHostID,
			Username: names[d.NewHostID],
			Message:  s.line("room.host_changed", map[string]any{"Username": names[d.NewHostID]}),
		})
	}
}

// EvictRoom is the janitor's eviction hook: the room is deleted only
// while no play is in flight and the registry still agrees it is
// stale.
func (s *Service) EvictRoom(code string, emptyTTL, startedTTL time.Duration) bool {
	return s.plays.EvictIfIdle(code, func() bool {
		return s.registry.RemoveIfStale(code, emptyTTL, startedTTL)
	})
}
