package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/okvist/wordrack/internal/tileset"
)

// Tile is immutable once created. A blank carries Letter '?' while on a
// rack or in the bag; placing it stamps the chosen letter onto a copy
// (Blank stays true, Value stays 0).
type Tile struct {
	ID     string
	Letter rune
	Value  int
	Blank  bool
}

func (t Tile) withLetter(letter rune) Tile {
	t.Letter = letter
	return t
}

// Rack is one player's private hand.
type Rack []Tile

// RackCapacity is the refill target after every move.
const RackCapacity = 7

func (r Rack) FindID(id string) int {
	for i, t := range r {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Values sums the point values of the held tiles.
func (r Rack) Values() int {
	total := 0
	for _, t := range r {
		total += t.Value
	}
	return total
}

func (r Rack) clone() Rack {
	out := make(Rack, len(r))
	copy(out, r)
	return out
}

// Bag is the shared pool of undrawn tiles.
type Bag struct {
	tiles []Tile
	rng   *rand.Rand
}

// NewBag builds a full, shuffled bag from the distribution.
func NewBag(set *tileset.Set, rng *rand.Rand) *Bag {
	var tiles []Tile
	for _, face := range set.SortedLetters() {
		spec := set.Letters[face]
		for i := 0; i < spec.Count; i++ {
			tiles = append(tiles, Tile{
				ID:     uuid.NewString(),
				Letter: face,
				Value:  spec.Value,
				Blank:  face == tileset.Blank,
			})
		}
	}
	b := &Bag{tiles: tiles, rng: rng}
	b.Shuffle()
	return b
}

// Shuffle runs a Fisher–Yates pass over the remaining tiles.
func (b *Bag) Shuffle() {
	for i := len(b.tiles) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		b.tiles[i], b.tiles[j] = b.tiles[j], b.tiles[i]
	}
}

// Draw removes up to n tiles from the front. Near depletion it yields
// fewer than requested; callers handle partial draws without error.
func (b *Bag) Draw(n int) []Tile {
	if n <= 0 || len(b.tiles) == 0 {
		return nil
	}
	if n > len(b.tiles) {
		n = len(b.tiles)
	}
	out := make([]Tile, n)
	copy(out, b.tiles[:n])
	b.tiles = b.tiles[n:]
	return out
}

// Return puts exchanged tiles back into the pool. Assigned blanks are
// restored to their unassigned face.
func (b *Bag) Return(tiles []Tile) {
	for _, t := range tiles {
		if t.Blank {
			t.Letter = tileset.Blank
		}
		b.tiles = append(b.tiles, t)
	}
}

func (b *Bag) Count() int { return len(b.tiles) }
