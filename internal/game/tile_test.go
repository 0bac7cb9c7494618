package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/okvist/wordrack/internal/tileset"
)

func testSet(t *testing.T) *tileset.Set {
	t.Helper()
	set, err := tileset.Load("english", "")
	if err != nil {
		t.Fatalf("load tileset: %v", err)
	}
	return set
}

func testRNG() *rand.Rand { return rand.New(rand.NewSource(42)) }

func mkTile(letter rune, value int) Tile {
	return Tile{ID: uuid.NewString(), Letter: letter, Value: value, Blank: letter == tileset.Blank}
}

func tilesFromWord(set *tileset.Set, word string) []Tile {
	var out []Tile
	for _, r := range word {
		out = append(out, mkTile(r, set.Value(r)))
	}
	return out
}

func TestBagBuildAndDraw(t *testing.T) {
	set := testSet(t)
	bag := NewBag(set, testRNG())
	if bag.Count() != 100 {
		t.Fatalf("fresh bag = %d tiles, want 100", bag.Count())
	}

	hand := bag.Draw(7)
	if len(hand) != 7 {
		t.Fatalf("drew %d tiles, want 7", len(hand))
	}
	if bag.Count() != 93 {
		t.Fatalf("bag after draw = %d, want 93", bag.Count())
	}

	rest := bag.Draw(200)
	if len(rest) != 93 {
		t.Fatalf("oversized draw yielded %d, want 93", len(rest))
	}
	if got := bag.Draw(1); got != nil {
		t.Fatalf("empty bag draw yielded %d tiles", len(got))
	}
}

func TestBagReturnRestoresBlankFace(t *testing.T) {
	set := testSet(t)
	bag := &Bag{rng: testRNG()}

	blank := mkTile(tileset.Blank, 0).withLetter('Q')
	bag.Return([]Tile{blank, mkTile('A', 1)})
	if bag.Count() != 2 {
		t.Fatalf("bag = %d, want 2", bag.Count())
	}
	for _, tile := range bag.tiles {
		if tile.Blank && tile.Letter != tileset.Blank {
			t.Fatalf("returned blank kept face %q", string(tile.Letter))
		}
	}
	_ = set
}

func TestRackFindAndValues(t *testing.T) {
	set := testSet(t)
	rack := Rack(tilesFromWord(set, "CAT"))
	if got := rack.Values(); got != 5 {
		t.Fatalf("rack values = %d, want 5", got)
	}
	if idx := rack.FindID(rack[1].ID); idx != 1 {
		t.Fatalf("FindID = %d, want 1", idx)
	}
	if idx := rack.FindID("missing"); idx != -1 {
		t.Fatalf("FindID for missing = %d, want -1", idx)
	}
}

func TestShuffleKeepsCensus(t *testing.T) {
	set := testSet(t)
	bag := NewBag(set, testRNG())
	seen := make(map[string]bool, bag.Count())
	for _, tile := range bag.tiles {
		seen[tile.ID] = true
	}
	bag.Shuffle()
	if bag.Count() != 100 {
		t.Fatalf("shuffle changed count to %d", bag.Count())
	}
	for _, tile := range bag.tiles {
		if !seen[tile.ID] {
			t.Fatalf("shuffle invented tile %s", tile.ID)
		}
	}
}
