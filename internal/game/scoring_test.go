package game

import "testing"

func TestScoreCATExample(t *testing.T) {
	set := testSet(t)
	board := NewBoard(set.Layout)

	// C=3, A=1, T=1 at row 7 cols 7-9: no premium under any tile.
	placed := placedWord(set, "CAT", 7, 7, true)
	words := ExtractWords(board, placed)
	if len(words) != 1 {
		t.Fatalf("extracted %d words, want 1", len(words))
	}
	score, bingo := ScoreMove(words, set.Layout, len(placed))
	if score != 5 {
		t.Fatalf("score = %d, want 5", score)
	}
	if bingo {
		t.Fatal("three tiles must not trigger the bingo bonus")
	}
}

func TestBingoBonus(t *testing.T) {
	set := testSet(t)
	board := NewBoard(set.Layout)

	// Seven one-point tiles across row 7 cols 4-10: all plain squares.
	placed := placedWord(set, "RETAINS", 7, 4, true)
	words := ExtractWords(board, placed)
	score, bingo := ScoreMove(words, set.Layout, len(placed))
	if !bingo {
		t.Fatal("seven tiles must trigger the bingo bonus")
	}
	if score != 7+BingoBonus {
		t.Fatalf("score = %d, want %d", score, 7+BingoBonus)
	}
}

func TestPremiumsOnlyOnNewTiles(t *testing.T) {
	set := testSet(t)

	// (0,3) is a double-letter square.
	existing := Word{Cells: []WordCell{
		{Row: 0, Col: 3, Tile: mkTile('H', 4), New: false},
		{Row: 0, Col: 4, Tile: mkTile('A', 1), New: true},
	}}
	if got := ScoreWord(existing, set.Layout); got != 5 {
		t.Fatalf("score with old tile on DL = %d, want 5", got)
	}

	fresh := Word{Cells: []WordCell{
		{Row: 0, Col: 3, Tile: mkTile('H', 4), New: true},
		{Row: 0, Col: 4, Tile: mkTile('A', 1), New: true},
	}}
	if got := ScoreWord(fresh, set.Layout); got != 9 {
		t.Fatalf("score with new tile on DL = %d, want 9", got)
	}
}

func TestWordMultiplier(t *testing.T) {
	set := testSet(t)

	// (0,0) is a triple-word square.
	w := Word{Cells: []WordCell{
		{Row: 0, Col: 0, Tile: mkTile('B', 3), New: true},
		{Row: 0, Col: 1, Tile: mkTile('E', 1), New: true},
	}}
	if got := ScoreWord(w, set.Layout); got != 12 {
		t.Fatalf("TW score = %d, want 12", got)
	}
}

func TestSharedPremiumCountsPerWord(t *testing.T) {
	set := testSet(t)

	// Both words run through the new tile on the (1,1) double-word
	// square; each applies the multiplier independently.
	main := Word{Cells: []WordCell{
		{Row: 1, Col: 1, Tile: mkTile('D', 2), New: true},
		{Row: 1, Col: 2, Tile: mkTile('A', 1), New: true},
	}}
	cross := Word{Cells: []WordCell{
		{Row: 0, Col: 1, Tile: mkTile('A', 1), New: false},
		{Row: 1, Col: 1, Tile: mkTile('D', 2), New: true},
	}}
	total, bingo := ScoreMove([]Word{main, cross}, set.Layout, 3)
	if total != 12 {
		t.Fatalf("total = %d, want 12 (6 + 6)", total)
	}
	if bingo {
		t.Fatal("unexpected bingo")
	}
}
