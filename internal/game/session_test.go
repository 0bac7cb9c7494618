package game

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newRiggedSession builds an in-progress session with handpicked racks
// and bag so assertions stay deterministic.
func newRiggedSession(t *testing.T, order []string, racks map[string]Rack, bag []Tile) *Session {
	t.Helper()
	set := testSet(t)
	s := NewSession("RIGGED", set, order, testRNG())
	s.phase = PhaseInProgress
	s.startedAt = time.Now()
	s.bag = &Bag{tiles: bag, rng: s.rng}
	for _, id := range order {
		s.racks[id] = racks[id]
		s.scores[id] = 0
	}
	return s
}

func census(s *Session) int {
	n := s.bag.Count() + s.board.OccupiedCount()
	for _, r := range s.racks {
		n += len(r)
	}
	return n
}

func specsFor(rack Rack, word string, row, col int, horizontal bool) []PlacedSpec {
	remaining := rack.clone()
	var out []PlacedSpec
	for i, r := range word {
		idx := -1
		for j, tile := range remaining {
			if tile.Letter == r {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil
		}
		spec := PlacedSpec{Row: row, Col: col, TileID: remaining[idx].ID}
		if horizontal {
			spec.Col += i
		} else {
			spec.Row += i
		}
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		out = append(out, spec)
	}
	return out
}

func TestStartDealsSevenEach(t *testing.T) {
	set := testSet(t)
	s := NewSession("ROOM01", set, []string{"a", "b", "c"}, testRNG())
	if s.Phase() != PhaseWaiting {
		t.Fatalf("phase = %v, want waiting", s.Phase())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Phase() != PhaseInProgress {
		t.Fatalf("phase = %v, want in_progress", s.Phase())
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := len(s.racks[id]); got != 7 {
			t.Fatalf("rack %s = %d tiles, want 7", id, got)
		}
	}
	if s.bag.Count() != 79 {
		t.Fatalf("bag = %d, want 79", s.bag.Count())
	}
	if got := census(s); got != 100 {
		t.Fatalf("census = %d, want 100", got)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start = %v, want ErrAlreadyStarted", err)
	}
}

func TestSubmitMoveCATExample(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEEEE"))
	before := census(s)

	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Score != 5 {
		t.Fatalf("score = %d, want 5", res.Score)
	}
	if res.Bingo {
		t.Fatal("unexpected bingo")
	}
	if len(res.Words) != 1 || res.Words[0].Word != "CAT" {
		t.Fatalf("words = %+v, want CAT", res.Words)
	}
	if res.TurnPlayerID != "b" {
		t.Fatalf("turn moved to %s, want b", res.TurnPlayerID)
	}
	if got := len(s.racks["a"]); got != 7 {
		t.Fatalf("rack after refill = %d, want 7", got)
	}
	if got := census(s); got != before {
		t.Fatalf("census changed %d → %d", before, got)
	}
	if s.scores["a"] != 5 {
		t.Fatalf("score table = %d, want 5", s.scores["a"])
	}
}

func TestSubmitMoveRejectionsLeaveStateUntouched(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEEEE"))
	before := census(s)

	// Not this player's turn.
	if _, err := s.PassTurn("b"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("pass out of turn = %v, want ErrNotYourTurn", err)
	}

	// Empty placement.
	if _, err := s.SubmitMove(context.Background(), "a", nil, nil); !errors.Is(err, ErrEmptyMove) {
		t.Fatalf("empty move = %v, want ErrEmptyMove", err)
	}

	// Dictionary rejection must roll everything back.
	reject := func(ctx context.Context, word string) (bool, error) { return false, nil }
	_, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), reject)
	var iwe *InvalidWordError
	if !errors.As(err, &iwe) || iwe.Word != "CAT" {
		t.Fatalf("err = %v, want InvalidWordError for CAT", err)
	}

	if s.board.OccupiedCount() != 0 {
		t.Fatal("rejected move reached the board")
	}
	if got := len(s.racks["a"]); got != 7 {
		t.Fatalf("rack = %d tiles after rejection, want 7", got)
	}
	if s.scores["a"] != 0 {
		t.Fatalf("score = %d after rejection, want 0", s.scores["a"])
	}
	if s.CurrentPlayerID() != "a" {
		t.Fatalf("turn advanced to %s after rejection", s.CurrentPlayerID())
	}
	if got := census(s); got != before {
		t.Fatalf("census changed %d → %d", before, got)
	}
}

func TestTurnOrderCyclesAcrossActionMix(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
		"c": Rack(tilesFromWord(set, "RETAINS")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, tilesFromWord(set, "EEEEEEEEEE"))
	before := census(s)

	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.TurnIndex != 1 {
		t.Fatalf("turn = %d after move, want 1", res.TurnIndex)
	}

	pass, err := s.PassTurn("b")
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if pass.TurnIndex != 2 {
		t.Fatalf("turn = %d after pass, want 2", pass.TurnIndex)
	}

	ex, err := s.ExchangeTiles("c", []int{0, 1})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if ex.TurnIndex != 0 || ex.TurnPlayerID != "a" {
		t.Fatalf("turn = %d/%s after exchange, want 0/a", ex.TurnIndex, ex.TurnPlayerID)
	}
	if got := census(s); got != before {
		t.Fatalf("census changed %d → %d", before, got)
	}
}

func TestPassOutEndsSession(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "A")),
		"b": Rack(tilesFromWord(set, "A")),
		"c": Rack(tilesFromWord(set, "B")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, tilesFromWord(set, "EEEEE"))

	order := []string{"a", "b", "c", "a", "b", "c"}
	for i, id := range order[:5] {
		res, err := s.PassTurn(id)
		if err != nil {
			t.Fatalf("pass %d: %v", i+1, err)
		}
		if res.Ended {
			t.Fatalf("ended after %d passes", i+1)
		}
	}

	res, err := s.PassTurn("c")
	if err != nil {
		t.Fatalf("final pass: %v", err)
	}
	if !res.Ended || res.EndReason != EndReasonPassOut {
		t.Fatalf("result = ended %v reason %q, want pass_out end", res.Ended, res.EndReason)
	}

	// Finalization subtracts leftover rack values; a and b tie on -1.
	winners := res.Winners
	if len(winners) != 2 {
		t.Fatalf("winners = %v, want a and b", winners)
	}
	for _, f := range res.Finals {
		switch f.PlayerID {
		case "a", "b":
			if f.Score != -1 || f.RackPenalty != 1 {
				t.Fatalf("final for %s = %+v", f.PlayerID, f)
			}
		case "c":
			if f.Score != -3 || f.RackPenalty != 3 {
				t.Fatalf("final for c = %+v", f)
			}
		}
	}

	if _, err := s.PassTurn("a"); !errors.Is(err, ErrGameEnded) {
		t.Fatalf("pass after end = %v, want ErrGameEnded", err)
	}
}

func TestMoveResetsPassCounter(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
		"c": Rack(tilesFromWord(set, "RETAINS")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, tilesFromWord(set, "EEEEEEEEEE"))

	if _, err := s.PassTurn("a"); err != nil {
		t.Fatalf("pass: %v", err)
	}
	if _, err := s.PassTurn("b"); err != nil {
		t.Fatalf("pass: %v", err)
	}
	res, err := s.SubmitMove(context.Background(), "c", specsFor(racks["c"], "RET", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.PassCount != 0 {
		t.Fatalf("pass counter = %d after move, want 0", res.PassCount)
	}
}

func TestExchangeKeepsPassCounter(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEEEEEEEEE"))

	if _, err := s.PassTurn("a"); err != nil {
		t.Fatalf("pass: %v", err)
	}
	ex, err := s.ExchangeTiles("b", []int{0, 2})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if ex.PassCount != 1 {
		t.Fatalf("pass counter = %d after exchange, want 1", ex.PassCount)
	}
	if len(ex.Rack) != 7 {
		t.Fatalf("rack = %d tiles after exchange, want 7", len(ex.Rack))
	}
}

func TestExchangeInsufficientBag(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXY")),
		"b": Rack(tilesFromWord(set, "DOGWO")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEE"))
	before := census(s)
	original := s.racks["a"].clone()

	_, err := s.ExchangeTiles("a", []int{0, 1, 2, 3, 4})
	if !errors.Is(err, ErrInsufficientBag) {
		t.Fatalf("err = %v, want ErrInsufficientBag", err)
	}
	if s.bag.Count() != 3 {
		t.Fatalf("bag = %d after rejection, want 3", s.bag.Count())
	}
	for i, tile := range s.racks["a"] {
		if tile.ID != original[i].ID {
			t.Fatal("rack changed after rejected exchange")
		}
	}
	if s.CurrentPlayerID() != "a" {
		t.Fatal("turn advanced after rejected exchange")
	}
	if got := census(s); got != before {
		t.Fatalf("census changed %d → %d", before, got)
	}
}

func TestEndOnEmptyRackWithSoleFinisherBonus(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CAT")),
		"b": Rack(tilesFromWord(set, "DOG")),
		"c": Rack(tilesFromWord(set, "EE")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, nil)
	before := census(s)

	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.Ended || res.EndReason != EndReasonRackEmpty {
		t.Fatalf("ended=%v reason=%q, want rack_empty end", res.Ended, res.EndReason)
	}

	// a scores 5, pays no penalty and collects DOG (5) + EE (2).
	want := map[string]int{"a": 12, "b": -5, "c": -2}
	for _, f := range res.Finals {
		if f.Score != want[f.PlayerID] {
			t.Fatalf("final %s = %d, want %d", f.PlayerID, f.Score, want[f.PlayerID])
		}
	}
	if len(res.Winners) != 1 || res.Winners[0] != "a" {
		t.Fatalf("winners = %v, want [a]", res.Winners)
	}
	if got := census(s); got != before {
		t.Fatalf("census changed %d → %d", before, got)
	}
}

func TestBingoThroughSession(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "RETAINS")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEEEEEEEEE"))

	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "RETAINS", 7, 4, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !res.Bingo {
		t.Fatal("expected bingo")
	}
	if res.Score != 7+BingoBonus {
		t.Fatalf("score = %d, want %d", res.Score, 7+BingoBonus)
	}
	if len(res.Drawn) != 7 {
		t.Fatalf("drew %d tiles, want 7", len(res.Drawn))
	}
}

func TestPartialDrawNearDepletion(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
	}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EE"))

	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(res.Drawn) != 2 {
		t.Fatalf("drew %d, want 2", len(res.Drawn))
	}
	if len(res.Rack) != 6 {
		t.Fatalf("rack = %d, want 6", len(res.Rack))
	}
	if res.BagCount != 0 {
		t.Fatalf("bag = %d, want 0", res.BagCount)
	}
}

func TestBlankAssumesLetter(t *testing.T) {
	set := testSet(t)
	blank := mkTile('?', 0)
	rack := Rack{blank, mkTile('A', 1), mkTile('T', 1), mkTile('X', 8)}
	racks := map[string]Rack{"a": rack, "b": Rack(tilesFromWord(set, "DOGWOLF"))}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEEEE"))

	specs := []PlacedSpec{
		{Row: 7, Col: 7, TileID: blank.ID, Letter: 'c'},
		{Row: 7, Col: 8, TileID: rack[1].ID},
		{Row: 7, Col: 9, TileID: rack[2].ID},
	}
	res, err := s.SubmitMove(context.Background(), "a", specs, nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Words[0].Word != "CAT" {
		t.Fatalf("word = %q, want CAT", res.Words[0].Word)
	}
	// The blank contributes zero points.
	if res.Score != 2 {
		t.Fatalf("score = %d, want 2", res.Score)
	}
	if placed, ok := s.board.At(7, 7); !ok || placed.Letter != 'C' || !placed.Blank {
		t.Fatalf("board cell = %+v, want assigned blank C", placed)
	}
}

func TestBlankWithoutLetterRejected(t *testing.T) {
	set := testSet(t)
	blank := mkTile('?', 0)
	rack := Rack{blank, mkTile('A', 1)}
	racks := map[string]Rack{"a": rack, "b": Rack(tilesFromWord(set, "DOG"))}
	s := newRiggedSession(t, []string{"a", "b"}, racks, tilesFromWord(set, "EEE"))

	specs := []PlacedSpec{
		{Row: 7, Col: 7, TileID: blank.ID},
		{Row: 7, Col: 8, TileID: rack[1].ID},
	}
	if _, err := s.SubmitMove(context.Background(), "a", specs, nil); !errors.Is(err, ErrBlankNeedsLetter) {
		t.Fatalf("err = %v, want ErrBlankNeedsLetter", err)
	}
}

func TestMarkDepartedSkipsSeat(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "CATXYZQ")),
		"b": Rack(tilesFromWord(set, "DOGWOLF")),
		"c": Rack(tilesFromWord(set, "RETAINS")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, tilesFromWord(set, "EEEEE"))

	s.MarkDeparted("b")
	res, err := s.SubmitMove(context.Background(), "a", specsFor(racks["a"], "CAT", 7, 7, true), nil)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.TurnPlayerID != "c" {
		t.Fatalf("turn = %s, want c (b departed)", res.TurnPlayerID)
	}

	// Departed seats still settle at finalization.
	found := false
	for _, p := range s.SnapshotFor("a").Players {
		if p.ID == "b" && p.Departed {
			found = true
		}
	}
	if !found {
		t.Fatal("departed seat missing from snapshot")
	}
}

func TestSnapshotRedactsOtherRacks(t *testing.T) {
	set := testSet(t)
	s := NewSession("ROOM01", set, []string{"a", "b"}, testRNG())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := s.SnapshotFor("b")
	if len(snap.Rack) != 7 {
		t.Fatalf("own rack = %d tiles, want 7", len(snap.Rack))
	}
	own := make(map[string]bool, len(s.racks["b"]))
	for _, tile := range s.racks["b"] {
		own[tile.ID] = true
	}
	for _, tile := range snap.Rack {
		if !own[tile.ID] {
			t.Fatal("snapshot leaked a foreign tile")
		}
	}
	for _, p := range snap.Players {
		if p.RackCount != 7 {
			t.Fatalf("rack count for %s = %d, want 7", p.ID, p.RackCount)
		}
	}

	// Unknown requesters get no rack at all.
	if got := s.SnapshotFor("nobody"); len(got.Rack) != 0 {
		t.Fatal("unknown player received a rack")
	}
}

func TestConnectedCountShrinksPassOutThreshold(t *testing.T) {
	set := testSet(t)
	racks := map[string]Rack{
		"a": Rack(tilesFromWord(set, "A")),
		"b": Rack(tilesFromWord(set, "A")),
		"c": Rack(tilesFromWord(set, "B")),
	}
	s := newRiggedSession(t, []string{"a", "b", "c"}, racks, tilesFromWord(set, "EEEEE"))
	connected := map[string]bool{"a": true, "b": true, "c": false}
	s.ConnectedFn = func(id string) bool { return connected[id] }

	// Threshold is 2×2 connected players: four passes end it.
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.PassTurn(id); err != nil {
			t.Fatalf("pass %s: %v", id, err)
		}
	}
	res, err := s.PassTurn("a")
	if err != nil {
		t.Fatalf("pass: %v", err)
	}
	if !res.Ended || res.EndReason != EndReasonPassOut {
		t.Fatalf("ended=%v reason=%q, want pass_out", res.Ended, res.EndReason)
	}
}
