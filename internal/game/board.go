package game

import "github.com/okvist/wordrack/internal/tileset"

// Board is the fixed 15×15 grid. Cells are never cleared once occupied;
// only the session writes to it while committing a validated move.
type Board struct {
	cells  [tileset.Size][tileset.Size]*Tile
	layout *tileset.Layout
}

func NewBoard(layout *tileset.Layout) *Board {
	return &Board{layout: layout}
}

func InBounds(row, col int) bool {
	return row >= 0 && row < tileset.Size && col >= 0 && col < tileset.Size
}

func (b *Board) At(row, col int) (Tile, bool) {
	if !InBounds(row, col) {
		return Tile{}, false
	}
	if t := b.cells[row][col]; t != nil {
		return *t, true
	}
	return Tile{}, false
}

func (b *Board) Occupied(row, col int) bool {
	_, ok := b.At(row, col)
	return ok
}

func (b *Board) PremiumAt(row, col int) tileset.Premium {
	return b.layout.PremiumAt(row, col)
}

func (b *Board) place(row, col int, t Tile) {
	tile := t
	b.cells[row][col] = &tile
}

func (b *Board) OccupiedCount() int {
	n := 0
	for r := 0; r < tileset.Size; r++ {
		for c := 0; c < tileset.Size; c++ {
			if b.cells[r][c] != nil {
				n++
			}
		}
	}
	return n
}

// Each visits occupied cells in row-major order.
func (b *Board) Each(fn func(row, col int, t Tile)) {
	for r := 0; r < tileset.Size; r++ {
		for c := 0; c < tileset.Size; c++ {
			if t := b.cells[r][c]; t != nil {
				fn(r, c, *t)
			}
		}
	}
}
