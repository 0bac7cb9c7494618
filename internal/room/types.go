package room

import "time"

// Player is one durable identity inside a room. ID outlives the
// transport; ConnID is rebound on every reconnect.
type Player struct {
	ID        string
	Username  string
	ConnID    string
	Connected bool
	Departed  bool
	JoinedAt  time.Time
	LastSeen  time.Time
}

// PendingJoin parks a join request until the host rules on it. The
// requester keeps a live transport but is not a member yet.
type PendingJoin struct {
	Player      *Player
	RequestedAt time.Time
}

// Room holds membership and lifecycle state. Game state lives in the
// play layer; the registry only knows whether a game has started.
type Room struct {
	Code      string
	HostID    string
	Players   []*Player
	Pending   []*PendingJoin
	Started   bool
	CreatedAt time.Time
	StartedAt time.Time
	EmptyAt   time.Time
}

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) findByName(key string) *Player {
	for _, p := range r.Players {
		if usernameKeyOf(p.Username) == key {
			return p
		}
	}
	return nil
}

func (r *Room) removePlayer(id string) {
	for i, p := range r.Players {
		if p.ID == id {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return
		}
	}
}

func (r *Room) findPending(id string) int {
	for i, pj := range r.Pending {
		if pj.Player.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) pendingByName(key string) *Player {
	for _, pj := range r.Pending {
		if usernameKeyOf(pj.Player.Username) == key {
			return pj.Player
		}
	}
	return nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// firstConnected returns the earliest joiner still connected, the
// host-migration order.
func (r *Room) firstConnected() *Player {
	for _, p := range r.Players {
		if p.Connected {
			return p
		}
	}
	return nil
}

// PlayerInfo is a copy of one member, safe to use outside the registry
// lock.
type PlayerInfo struct {
	ID        string
	Username  string
	ConnID    string
	Host      bool
	Connected bool
	Departed  bool
	JoinedAt  time.Time
}

// RoomInfo is a copy of one room's membership, safe to use outside the
// registry lock.
type RoomInfo struct {
	Code      string
	HostID    string
	Started   bool
	CreatedAt time.Time
	Players   []PlayerInfo
	Pending   []PlayerInfo
}

// ConnectedConnIDs lists the live transports of every connected member,
// the broadcast set for room events.
func (ri RoomInfo) ConnectedConnIDs() []string {
	var out []string
	for _, p := range ri.Players {
		if p.Connected && p.ConnID != "" {
			out = append(out, p.ConnID)
		}
	}
	return out
}

func (ri RoomInfo) Player(id string) (PlayerInfo, bool) {
	for _, p := range ri.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// Usernames maps player IDs to display names, departed members
// included.
func (ri RoomInfo) Usernames() map[string]string {
	out := make(map[string]string, len(ri.Players))
	for _, p := range ri.Players {
		out[p.ID] = p.Username
	}
	return out
}

func (r *Room) infoLocked() RoomInfo {
	info := RoomInfo{
		Code:      r.Code,
		HostID:    r.HostID,
		Started:   r.Started,
		CreatedAt: r.CreatedAt,
	}
	for _, p := range r.Players {
		info.Players = append(info.Players, playerInfoLocked(r, p))
	}
	for _, pj := range r.Pending {
		info.Pending = append(info.Pending, playerInfoLocked(r, pj.Player))
	}
	return info
}

func playerInfoLocked(r *Room, p *Player) PlayerInfo {
	return PlayerInfo{
		ID:        p.ID,
		Username:  p.Username,
		ConnID:    p.ConnID,
		Host:      r.HostID == p.ID,
		Connected: p.Connected,
		Departed:  p.Departed,
		JoinedAt:  p.JoinedAt,
	}
}
