package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/okvist/wordrack/internal/obslog"
	"github.com/okvist/wordrack/internal/util"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrUsernameTaken      = errors.New("username already taken in this room")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrNotEnoughPlayers   = errors.New("need at least two connected players")
	ErrNotHost            = errors.New("only the connected host may do this")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidUsername    = errors.New("invalid username")
)

const DefaultCapacity = 4

func usernameKeyOf(name string) string { return util.UsernameKey(name) }

// Registry owns every room and its membership. Methods are safe for
// concurrent use; callers get value copies, never live pointers into
// the locked state.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	capacity int
	window   time.Duration

	now func() time.Time
	gen func() (string, error)
}

func NewRegistry(capacity int, reconnectWindow time.Duration) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if reconnectWindow <= 0 {
		reconnectWindow = 5 * time.Minute
	}
	return &Registry{
		rooms:    make(map[string]*Room),
		capacity: capacity,
		window:   reconnectWindow,
		now:      time.Now,
		gen:      genCode,
	}
}

// CreateRoom opens a fresh room with the creator as its connected host.
func (r *Registry) CreateRoom(username, connID string) (RoomInfo, PlayerInfo, error) {
	name := util.NormalizeUsername(username)
	if !util.ValidUsername(name) {
		return RoomInfo{}, PlayerInfo{}, ErrInvalidUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.uniqueCodeLocked()
	if err != nil {
		return RoomInfo{}, PlayerInfo{}, err
	}
	now := r.now()
	host := &Player{
		ID:        uuid.NewString(),
		Username:  name,
		ConnID:    connID,
		Connected: true,
		JoinedAt:  now,
		LastSeen:  now,
	}
	rm := &Room{
		Code:      code,
		HostID:    host.ID,
		Players:   []*Player{host},
		CreatedAt: now,
	}
	r.rooms[code] = rm
	obslog.L().Info("room_create", zap.String("code", code), zap.String("host", host.Username))
	return rm.infoLocked(), playerInfoLocked(rm, host), nil
}

func (r *Registry) uniqueCodeLocked() (string, error) {
	for {
		code, err := r.gen()
		if err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		if _, exists := r.rooms[code]; !exists {
			return code, nil
		}
	}
}

// JoinResult reports how a join request resolved: parked pending or
// short-circuited into a reconnection.
type JoinResult struct {
	Reconnected bool
	Room        RoomInfo
	You         PlayerInfo
	// HostConnID is the transport to notify about a new pending
	// request. Empty when no host is reachable.
	HostConnID string
	// ForgottenPlayerID names an expired identity this fresh join
	// displaced, if any.
	ForgottenPlayerID string
}

// RequestJoin either parks the request for host approval or, when the
// username matches a member disconnected within the window, reattaches
// that identity to the new transport.
func (r *Registry) RequestJoin(username, code, connID string) (*JoinResult, error) {
	name := util.NormalizeUsername(username)
	if !util.ValidUsername(name) {
		return nil, ErrInvalidUsername
	}
	key := usernameKeyOf(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	now := r.now()

	res := &JoinResult{}
	if p := rm.findByName(key); p != nil {
		switch {
		case p.Connected:
			return nil, ErrUsernameTaken
		case !p.Departed && now.Sub(p.LastSeen) <= r.window:
			p.ConnID = connID
			p.Connected = true
			p.LastSeen = now
			rm.EmptyAt = time.Time{}
			if h := rm.findPlayer(rm.HostID); h == nil || !h.Connected {
				rm.HostID = p.ID
			}
			res.Reconnected = true
			res.Room = rm.infoLocked()
			res.You = playerInfoLocked(rm, p)
			obslog.L().Info("room_reconnect", zap.String("code", rm.Code), zap.String("user", name))
			return res, nil
		default:
			// Window lapsed: the old identity is forgotten and this
			// counts as a brand-new join. Started rooms keep the seat
			// for finalization and reject the join below.
			if !rm.Started {
				rm.removePlayer(p.ID)
				res.ForgottenPlayerID = p.ID
			}
		}
	}

	if rm.Started {
		return nil, ErrGameAlreadyStarted
	}
	if rm.connectedCount() >= r.capacity {
		return nil, ErrRoomFull
	}
	if rm.pendingByName(key) != nil {
		return nil, ErrUsernameTaken
	}

	p := &Player{
		ID:        uuid.NewString(),
		Username:  name,
		ConnID:    connID,
		Connected: true,
		JoinedAt:  now,
		LastSeen:  now,
	}
	rm.Pending = append(rm.Pending, &PendingJoin{Player: p, RequestedAt: now})
	if h := rm.findPlayer(rm.HostID); h != nil && h.Connected {
		res.HostConnID = h.ConnID
	}
	res.Room = rm.infoLocked()
	res.You = playerInfoLocked(rm, p)
	obslog.L().Info("room_join_request", zap.String("code", rm.Code), zap.String("user", name))
	return res, nil
}

// ApproveResult carries the promoted member and their transport.
type ApproveResult struct {
	Room   RoomInfo
	Player PlayerInfo
	ConnID string
}

// Approve promotes a pending requester to member. Host only.
func (r *Registry) Approve(code, actorID, targetID string) (*ApproveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := requireHostLocked(rm, actorID); err != nil {
		return nil, err
	}
	if rm.Started {
		return nil, ErrGameAlreadyStarted
	}
	idx := rm.findPending(targetID)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	if rm.connectedCount() >= r.capacity {
		return nil, ErrRoomFull
	}

	p := rm.Pending[idx].Player
	rm.Pending = append(rm.Pending[:idx], rm.Pending[idx+1:]...)
	now := r.now()
	p.JoinedAt = now
	p.LastSeen = now
	p.Connected = true
	rm.Players = append(rm.Players, p)
	obslog.L().Info("room_join_approve", zap.String("code", rm.Code), zap.String("user", p.Username))
	return &ApproveResult{Room: rm.infoLocked(), Player: playerInfoLocked(rm, p), ConnID: p.ConnID}, nil
}

// Decline drops a pending request and returns the requester's
// transport for the rejection notice. Host only.
func (r *Registry) Decline(code, actorID, targetID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return "", ErrRoomNotFound
	}
	if err := requireHostLocked(rm, actorID); err != nil {
		return "", err
	}
	idx := rm.findPending(targetID)
	if idx < 0 {
		return "", ErrPlayerNotFound
	}
	connID := rm.Pending[idx].Player.ConnID
	username := rm.Pending[idx].Player.Username
	rm.Pending = append(rm.Pending[:idx], rm.Pending[idx+1:]...)
	obslog.L().Info("room_join_decline", zap.String("code", rm.Code), zap.String("user", username))
	return connID, nil
}

// StartResult lists the seats for the new session in join order.
type StartResult struct {
	Room      RoomInfo
	PlayerIDs []string
}

// StartGame marks the room started. The caller creates the session
// under the room's play lock; membership here only gates the
// transition.
func (r *Registry) StartGame(code, actorID string) (*StartResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if err := requireHostLocked(rm, actorID); err != nil {
		return nil, err
	}
	if rm.Started {
		return nil, ErrGameAlreadyStarted
	}
	if rm.connectedCount() < 2 {
		return nil, ErrNotEnoughPlayers
	}

	rm.Started = true
	rm.StartedAt = r.now()
	ids := make([]string, 0, len(rm.Players))
	for _, p := range rm.Players {
		ids = append(ids, p.ID)
	}
	obslog.L().Info("room_start", zap.String("code", rm.Code), zap.Int("players", len(ids)))
	return &StartResult{Room: rm.infoLocked(), PlayerIDs: ids}, nil
}

func requireHostLocked(rm *Room, actorID string) error {
	h := rm.findPlayer(rm.HostID)
	if h == nil || h.ID != actorID || !h.Connected {
		return ErrNotHost
	}
	return nil
}

// DisconnectResult reports the membership fallout of a dropped
// transport.
type DisconnectResult struct {
	WasPending  bool
	Player      PlayerInfo
	NewHostID   string
	RoomEmptied bool
	Room        RoomInfo
}

// MarkDisconnected flips a member to disconnected, migrates the host
// role if needed and stamps the room empty when nobody is left.
// Pending requesters are simply dropped.
func (r *Registry) MarkDisconnected(code, playerID string) (*DisconnectResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	now := r.now()

	if idx := rm.findPending(playerID); idx >= 0 {
		p := rm.Pending[idx].Player
		rm.Pending = append(rm.Pending[:idx], rm.Pending[idx+1:]...)
		return &DisconnectResult{WasPending: true, Player: playerInfoLocked(rm, p), Room: rm.infoLocked()}, nil
	}

	p := rm.findPlayer(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	p.Connected = false
	p.ConnID = ""
	p.LastSeen = now

	res := &DisconnectResult{}
	if rm.HostID == playerID {
		if next := rm.firstConnected(); next != nil {
			rm.HostID = next.ID
			res.NewHostID = next.ID
		}
	}
	if rm.connectedCount() == 0 {
		rm.EmptyAt = now
		res.RoomEmptied = true
	}
	res.Player = playerInfoLocked(rm, p)
	res.Room = rm.infoLocked()
	obslog.L().Info("room_disconnect",
		zap.String("code", rm.Code),
		zap.String("user", p.Username),
		zap.Bool("emptied", res.RoomEmptied))
	return res, nil
}

// View returns a copy of the room's membership.
func (r *Registry) View(code string) (RoomInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[normalizeCode(code)]
	if !ok {
		return RoomInfo{}, ErrRoomNotFound
	}
	return rm.infoLocked(), nil
}

// Departure is one expired disconnection: the identity is forgotten in
// a waiting room, or retired from the turn rotation in a started one.
type Departure struct {
	Code      string
	PlayerID  string
	Username  string
	Started   bool
	NewHostID string
}

// ExpireDeparted sweeps members whose reconnection window has lapsed.
func (r *Registry) ExpireDeparted() []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var out []Departure
	for _, rm := range r.rooms {
		members := append([]*Player(nil), rm.Players...)
		for _, p := range members {
			if p.Connected || p.Departed {
				continue
			}
			if now.Sub(p.LastSeen) <= r.window {
				continue
			}
			d := Departure{Code: rm.Code, PlayerID: p.ID, Username: p.Username, Started: rm.Started}
			if rm.Started {
				p.Departed = true
			} else {
				rm.removePlayer(p.ID)
			}
			if rm.HostID == p.ID {
				if next := rm.firstConnected(); next != nil {
					rm.HostID = next.ID
					d.NewHostID = next.ID
				}
			}
			out = append(out, d)
			obslog.L().Info("room_expire_member",
				zap.String("code", rm.Code),
				zap.String("user", p.Username),
				zap.Bool("started", rm.Started))
		}
	}
	return out
}

// StaleRooms lists eviction candidates: empty past emptyTTL, or started
// past startedTTL. Deletion itself is gated on the play lock.
func (r *Registry) StaleRooms(emptyTTL, startedTTL time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	var out []string
	for code, rm := range r.rooms {
		switch {
		case !rm.EmptyAt.IsZero() && now.Sub(rm.EmptyAt) > emptyTTL:
			out = append(out, code)
		case rm.Started && startedTTL > 0 && now.Sub(rm.StartedAt) > startedTTL:
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

// RemoveIfStale deletes the room only if it is still due for eviction,
// closing the race with a reconnect between sweep phases.
func (r *Registry) RemoveIfStale(code string, emptyTTL, startedTTL time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = normalizeCode(code)
	rm, ok := r.rooms[code]
	if !ok {
		return false
	}
	now := r.now()
	stale := (!rm.EmptyAt.IsZero() && now.Sub(rm.EmptyAt) > emptyTTL) ||
		(rm.Started && startedTTL > 0 && now.Sub(rm.StartedAt) > startedTTL)
	if !stale {
		return false
	}
	delete(r.rooms, code)
	obslog.L().Info("room_evict", zap.String("code", code))
	return true
}

// Remove deletes a room outright.
func (r *Registry) Remove(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = normalizeCode(code)
	if _, ok := r.rooms[code]; !ok {
		return false
	}
	delete(r.rooms, code)
	obslog.L().Info("room_evict", zap.String("code", code))
	return true
}

// StatusRoom is one row of the aggregate status endpoint.
type StatusRoom struct {
	Code      string    `json:"code"`
	Started   bool      `json:"started"`
	Players   int       `json:"players"`
	Connected int       `json:"connected"`
	Pending   int       `json:"pending"`
	CreatedAt time.Time `json:"createdAt"`
}

// Status reports every room for the read-only status endpoint.
func (r *Registry) Status() []StatusRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StatusRoom, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, StatusRoom{
			Code:      rm.Code,
			Started:   rm.Started,
			Players:   len(rm.Players),
			Connected: rm.connectedCount(),
			Pending:   len(rm.Pending),
			CreatedAt: rm.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
