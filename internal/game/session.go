package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okvist/wordrack/internal/tileset"
)

// Phase tracks the session lifecycle. Ended is terminal.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseEnded      Phase = "ended"
)

// EndReason says why a session finished.
type EndReason string

const (
	EndReasonRackEmpty EndReason = "rack_empty"
	EndReasonPassOut   EndReason = "pass_out"
)

var (
	ErrNotStarted       = errors.New("game has not started")
	ErrAlreadyStarted   = errors.New("game has already started")
	ErrGameEnded        = errors.New("game has ended")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrEmptyMove        = errors.New("no tiles placed")
	ErrTileNotInRack    = errors.New("tile not in rack")
	ErrBlankNeedsLetter = errors.New("blank tile needs a letter")
	ErrLetterMismatch   = errors.New("tile letter does not match rack")
	ErrNoWordFormed     = errors.New("no word of two or more letters formed")
	ErrInsufficientBag  = errors.New("not enough tiles left in the bag")
	ErrBadExchange      = errors.New("invalid exchange indices")
	ErrUnknownPlayer    = errors.New("player not in session")
)

// InvalidWordError names the first word the dictionary rejected.
type InvalidWordError struct {
	Word string
}

func (e *InvalidWordError) Error() string {
	return fmt.Sprintf("not a valid word: %s", e.Word)
}

// WordChecker reports whether a word is playable. It may block on I/O;
// the caller keeps the room serialized for the duration of the call.
type WordChecker func(ctx context.Context, word string) (bool, error)

// PlacedSpec is the client's intent for one tile: which rack tile goes
// where. Letter is required for a blank (the letter it stands in for).
type PlacedSpec struct {
	Row    int
	Col    int
	TileID string
	Letter rune
}

// WordPlay is one scored word in the session history.
type WordPlay struct {
	Word     string
	PlayerID string
	Points   int
	Turn     int
}

// FinalScore is one player's settled result after finalization.
type FinalScore struct {
	PlayerID    string
	Score       int
	RackPenalty int
	Bonus       int
}

// Session owns the authoritative state of one started game: board,
// bag, racks, scores, turn pointer and history. It is not safe for
// concurrent use; the play manager serializes access per room.
type Session struct {
	ID       string
	RoomCode string

	set        *tileset.Set
	board      *Board
	bag        *Bag
	racks      map[string]Rack
	scores     map[string]int
	order      []string
	turn       int
	passes     int
	phase      Phase
	firstDone  bool
	departed   map[string]bool
	history    []WordPlay
	lastPlaced []Placement
	turnCount  int
	startedAt  time.Time
	endedAt    time.Time
	endReason  EndReason
	finals     []FinalScore
	rng        *rand.Rand

	// ConnectedFn reports live connectivity for the pass-out
	// threshold. Nil treats every seat as connected.
	ConnectedFn func(playerID string) bool
}

// NewSession prepares a session in the waiting phase. Player order is
// the room's join order and becomes the fixed turn order.
func NewSession(roomCode string, set *tileset.Set, players []string, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		ID:       uuid.NewString(),
		RoomCode: roomCode,
		set:      set,
		board:    NewBoard(set.Layout),
		racks:    make(map[string]Rack, len(players)),
		scores:   make(map[string]int, len(players)),
		order:    append([]string(nil), players...),
		phase:    PhaseWaiting,
		departed: make(map[string]bool),
		rng:      rng,
	}
}

// Start shuffles a fresh bag, deals seven tiles to every seat in join
// order and opens play at seat zero.
func (s *Session) Start() error {
	if s.phase != PhaseWaiting {
		return ErrAlreadyStarted
	}
	if len(s.order) < 2 {
		return fmt.Errorf("session needs at least 2 players, have %d", len(s.order))
	}
	s.bag = NewBag(s.set, s.rng)
	for _, id := range s.order {
		s.racks[id] = Rack(s.bag.Draw(RackCapacity))
		s.scores[id] = 0
	}
	s.turn = 0
	s.phase = PhaseInProgress
	s.startedAt = time.Now()
	return nil
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) CurrentPlayerID() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[s.turn]
}

func (s *Session) TurnIndex() int { return s.turn }

// Players returns the fixed turn order.
func (s *Session) Players() []string {
	return append([]string(nil), s.order...)
}

func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) EndedAt() time.Time   { return s.endedAt }
func (s *Session) Turns() int           { return s.turnCount }

func (s *Session) History() []WordPlay {
	return append([]WordPlay(nil), s.history...)
}

// LastPlaced returns the placements of the most recent scored move.
func (s *Session) LastPlaced() []Placement {
	return append([]Placement(nil), s.lastPlaced...)
}

func (s *Session) Finals() []FinalScore {
	return append([]FinalScore(nil), s.finals...)
}

// Winners lists every maximal scorer once the session has ended.
func (s *Session) Winners() []string {
	if s.phase != PhaseEnded || len(s.finals) == 0 {
		return nil
	}
	best := s.finals[0].Score
	for _, f := range s.finals[1:] {
		if f.Score > best {
			best = f.Score
		}
	}
	var out []string
	for _, f := range s.finals {
		if f.Score == best {
			out = append(out, f.PlayerID)
		}
	}
	return out
}

// MarkDeparted removes a seat from the turn rotation after its
// reconnection window lapses. Rack and score stay for finalization,
// so the tile census is unchanged.
func (s *Session) MarkDeparted(playerID string) {
	if _, ok := s.scores[playerID]; !ok {
		return
	}
	if s.departed[playerID] {
		return
	}
	s.departed[playerID] = true
	if s.phase == PhaseInProgress && s.order[s.turn] == playerID {
		s.advanceTurn()
	}
}

// MoveResult reports a committed move. Rack and Drawn are private to
// the mover; everything else may be broadcast.
type MoveResult struct {
	PlayerID     string
	Score        int
	Bingo        bool
	Words        []WordPlay
	Placed       []Placement
	Drawn        []Tile
	Rack         Rack
	BagCount     int
	PassCount    int
	TurnIndex    int
	TurnPlayerID string
	Ended        bool
	EndReason    EndReason
	Finals       []FinalScore
	Winners      []string
}

// SubmitMove validates, dictionary-checks and commits one move as a
// unit: any rejection leaves board, racks, bag, scores and turn
// pointer untouched. The check callback is the only suspension point.
func (s *Session) SubmitMove(ctx context.Context, playerID string, specs []PlacedSpec, check WordChecker) (*MoveResult, error) {
	if err := s.ensureTurn(playerID); err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, ErrEmptyMove
	}

	placements, err := s.resolveSpecs(playerID, specs)
	if err != nil {
		return nil, err
	}
	if err := CheckPlacement(s.board, placements, !s.firstDone); err != nil {
		return nil, err
	}
	words := ExtractWords(s.board, placements)
	if len(words) == 0 {
		return nil, ErrNoWordFormed
	}

	if check != nil {
		for _, w := range words {
			valid, cerr := check(ctx, w.String())
			if cerr != nil {
				return nil, fmt.Errorf("word check: %w", cerr)
			}
			if !valid {
				return nil, &InvalidWordError{Word: w.String()}
			}
		}
	}

	// Commit. Nothing below may fail.
	moveScore, bingo := ScoreMove(words, s.set.Layout, len(placements))

	usedIDs := make(map[string]bool, len(placements))
	for _, p := range placements {
		s.board.place(p.Row, p.Col, p.Tile)
		usedIDs[p.Tile.ID] = true
	}

	rack := s.racks[playerID]
	remaining := make(Rack, 0, len(rack))
	for _, t := range rack {
		if !usedIDs[t.ID] {
			remaining = append(remaining, t)
		}
	}
	drawn := s.bag.Draw(RackCapacity - len(remaining))
	remaining = append(remaining, drawn...)
	s.racks[playerID] = remaining

	s.scores[playerID] += moveScore
	s.turnCount++
	plays := make([]WordPlay, 0, len(words))
	for _, w := range words {
		plays = append(plays, WordPlay{
			Word:     w.String(),
			PlayerID: playerID,
			Points:   ScoreWord(w, s.set.Layout),
			Turn:     s.turnCount,
		})
	}
	s.history = append(s.history, plays...)
	s.lastPlaced = placements
	s.passes = 0
	s.firstDone = true

	s.advanceTurn()
	s.evaluateEnd()

	return &MoveResult{
		PlayerID:     playerID,
		Score:        moveScore,
		Bingo:        bingo,
		Words:        plays,
		Placed:       placements,
		Drawn:        drawn,
		Rack:         remaining.clone(),
		BagCount:     s.bag.Count(),
		PassCount:    s.passes,
		TurnIndex:    s.turn,
		TurnPlayerID: s.CurrentPlayerID(),
		Ended:        s.phase == PhaseEnded,
		EndReason:    s.endReason,
		Finals:       s.Finals(),
		Winners:      s.Winners(),
	}, nil
}

// PassResult reports a completed pass.
type PassResult struct {
	PlayerID     string
	PassCount    int
	TurnIndex    int
	TurnPlayerID string
	Ended        bool
	EndReason    EndReason
	Finals       []FinalScore
	Winners      []string
}

// PassTurn advances the turn without touching board, racks or scores.
func (s *Session) PassTurn(playerID string) (*PassResult, error) {
	if err := s.ensureTurn(playerID); err != nil {
		return nil, err
	}
	s.passes++
	s.turnCount++
	s.advanceTurn()
	s.evaluateEnd()

	return &PassResult{
		PlayerID:     playerID,
		PassCount:    s.passes,
		TurnIndex:    s.turn,
		TurnPlayerID: s.CurrentPlayerID(),
		Ended:        s.phase == PhaseEnded,
		EndReason:    s.endReason,
		Finals:       s.Finals(),
		Winners:      s.Winners(),
	}, nil
}

// ExchangeResult reports a completed exchange. Rack is private to the
// exchanging player.
type ExchangeResult struct {
	PlayerID     string
	Returned     int
	Rack         Rack
	BagCount     int
	PassCount    int
	TurnIndex    int
	TurnPlayerID string
}

// ExchangeTiles swaps the indexed rack tiles against the bag and
// consumes the turn. It neither resets nor increments the pass
// counter, and it cannot end the session.
func (s *Session) ExchangeTiles(playerID string, indices []int) (*ExchangeResult, error) {
	if err := s.ensureTurn(playerID); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, ErrBadExchange
	}
	rack := s.racks[playerID]
	picked := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(rack) || picked[i] {
			return nil, ErrBadExchange
		}
		picked[i] = true
	}
	if s.bag.Count() < len(indices) {
		return nil, ErrInsufficientBag
	}

	outgoing := make([]Tile, 0, len(indices))
	remaining := make(Rack, 0, len(rack))
	for i, t := range rack {
		if picked[i] {
			outgoing = append(outgoing, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	s.bag.Return(outgoing)
	s.bag.Shuffle()
	remaining = append(remaining, s.bag.Draw(len(outgoing))...)
	s.racks[playerID] = remaining

	s.turnCount++
	s.advanceTurn()

	return &ExchangeResult{
		PlayerID:     playerID,
		Returned:     len(outgoing),
		Rack:         remaining.clone(),
		BagCount:     s.bag.Count(),
		PassCount:    s.passes,
		TurnIndex:    s.turn,
		TurnPlayerID: s.CurrentPlayerID(),
	}, nil
}

// BoardCell is one occupied square in a snapshot.
type BoardCell struct {
	Row, Col int
	Tile     Tile
}

// PlayerSummary is the public view of one seat.
type PlayerSummary struct {
	ID        string
	Score     int
	RackCount int
	Departed  bool
}

// Snapshot is the read-only state view for a single player. Rack only
// ever holds the requesting player's own tiles.
type Snapshot struct {
	SessionID    string
	RoomCode     string
	Phase        Phase
	Board        []BoardCell
	Players      []PlayerSummary
	TurnIndex    int
	TurnPlayerID string
	BagCount     int
	PassCount    int
	Rack         Rack
	History      []WordPlay
	EndReason    EndReason
	Finals       []FinalScore
	Winners      []string
}

func (s *Session) SnapshotFor(playerID string) Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		RoomCode:     s.RoomCode,
		Phase:        s.phase,
		TurnIndex:    s.turn,
		TurnPlayerID: s.CurrentPlayerID(),
		PassCount:    s.passes,
		History:      s.History(),
		EndReason:    s.endReason,
		Finals:       s.Finals(),
		Winners:      s.Winners(),
	}
	if s.bag != nil {
		snap.BagCount = s.bag.Count()
	}
	s.board.Each(func(r, c int, t Tile) {
		snap.Board = append(snap.Board, BoardCell{Row: r, Col: c, Tile: t})
	})
	for _, id := range s.order {
		snap.Players = append(snap.Players, PlayerSummary{
			ID:        id,
			Score:     s.scores[id],
			RackCount: len(s.racks[id]),
			Departed:  s.departed[id],
		})
	}
	if r, ok := s.racks[playerID]; ok {
		snap.Rack = r.clone()
	}
	return snap
}

func (s *Session) ensureTurn(playerID string) error {
	switch s.phase {
	case PhaseWaiting:
		return ErrNotStarted
	case PhaseEnded:
		return ErrGameEnded
	}
	if _, ok := s.scores[playerID]; !ok {
		return ErrUnknownPlayer
	}
	if s.order[s.turn] != playerID {
		return ErrNotYourTurn
	}
	return nil
}

func (s *Session) resolveSpecs(playerID string, specs []PlacedSpec) ([]Placement, error) {
	rack := s.racks[playerID]
	used := make(map[string]bool, len(specs))
	out := make([]Placement, 0, len(specs))
	for _, spec := range specs {
		if used[spec.TileID] {
			return nil, ErrTileNotInRack
		}
		idx := rack.FindID(spec.TileID)
		if idx < 0 {
			return nil, ErrTileNotInRack
		}
		t := rack[idx]
		if t.Blank {
			letter := normalizeLetter(spec.Letter)
			if letter == 0 {
				return nil, ErrBlankNeedsLetter
			}
			t = t.withLetter(letter)
		} else if spec.Letter != 0 && normalizeLetter(spec.Letter) != t.Letter {
			return nil, ErrLetterMismatch
		}
		used[spec.TileID] = true
		out = append(out, Placement{Row: spec.Row, Col: spec.Col, Tile: t})
	}
	return out, nil
}

func normalizeLetter(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - 'a' + 'A'
	case r >= 'A' && r <= 'Z':
		return r
	default:
		return 0
	}
}

// advanceTurn moves the pointer to the next seat still in rotation.
func (s *Session) advanceTurn() {
	if s.phase == PhaseEnded {
		return
	}
	n := len(s.order)
	for i := 1; i <= n; i++ {
		next := (s.turn + i) % n
		if !s.departed[s.order[next]] {
			s.turn = next
			return
		}
	}
}

func (s *Session) connectedCount() int {
	n := 0
	for _, id := range s.order {
		if s.departed[id] {
			continue
		}
		if s.ConnectedFn == nil || s.ConnectedFn(id) {
			n++
		}
	}
	return n
}

func (s *Session) evaluateEnd() {
	if s.phase == PhaseEnded {
		return
	}
	if s.bag.Count() == 0 {
		for _, id := range s.order {
			if len(s.racks[id]) == 0 {
				s.finish(EndReasonRackEmpty)
				return
			}
		}
	}
	if cc := s.connectedCount(); cc > 0 && s.passes >= 2*cc {
		s.finish(EndReasonPassOut)
	}
}

func (s *Session) finish(reason EndReason) {
	s.phase = PhaseEnded
	s.endReason = reason
	s.endedAt = time.Now()
	s.finals = s.finalize()
}

// finalize settles scores: every player loses the value of their
// leftover rack; a sole finisher additionally collects everyone
// else's leftover values.
func (s *Session) finalize() []FinalScore {
	var emptied []string
	for _, id := range s.order {
		if len(s.racks[id]) == 0 {
			emptied = append(emptied, id)
		}
	}

	leftover := 0
	finals := make([]FinalScore, 0, len(s.order))
	for _, id := range s.order {
		penalty := s.racks[id].Values()
		s.scores[id] -= penalty
		leftover += penalty
		finals = append(finals, FinalScore{PlayerID: id, Score: s.scores[id], RackPenalty: penalty})
	}

	if len(emptied) == 1 {
		winner := emptied[0]
		s.scores[winner] += leftover
		for i := range finals {
			if finals[i].PlayerID == winner {
				finals[i].Bonus = leftover
				finals[i].Score = s.scores[winner]
			}
		}
	}
	return finals
}
