package game

import (
	"fmt"
	"strings"

	"github.com/okvist/wordrack/internal/tileset"
)

// Placement is one proposed tile drop. Blanks arrive already stamped
// with their chosen letter.
type Placement struct {
	Row, Col int
	Tile     Tile
}

// PlacementReason is the closed set of geometry rejections.
type PlacementReason string

const (
	ReasonOutOfBounds     PlacementReason = "out_of_bounds"
	ReasonCellOccupied    PlacementReason = "cell_occupied"
	ReasonDuplicateCell   PlacementReason = "duplicate_cell"
	ReasonNotAligned      PlacementReason = "not_aligned"
	ReasonNotConsecutive  PlacementReason = "not_consecutive"
	ReasonMustCoverCenter PlacementReason = "must_cover_center"
	ReasonMustConnect     PlacementReason = "must_connect"
)

// PlacementError rejects a move on geometry. Row/Col identify the
// offending cell when one exists.
type PlacementError struct {
	Reason PlacementReason
	Row    int
	Col    int
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("invalid placement: %s", e.Reason)
}

// CheckPlacement verifies a proposed placement against the board
// without touching it. The first word of a session must cover the
// center square; every later word must touch an existing tile.
func CheckPlacement(board *Board, placed []Placement, firstWord bool) error {
	if len(placed) == 0 {
		return &PlacementError{Reason: ReasonNotAligned}
	}

	seen := make(map[[2]int]bool, len(placed))
	for _, p := range placed {
		if !InBounds(p.Row, p.Col) {
			return &PlacementError{Reason: ReasonOutOfBounds, Row: p.Row, Col: p.Col}
		}
		if board.Occupied(p.Row, p.Col) {
			return &PlacementError{Reason: ReasonCellOccupied, Row: p.Row, Col: p.Col}
		}
		key := [2]int{p.Row, p.Col}
		if seen[key] {
			return &PlacementError{Reason: ReasonDuplicateCell, Row: p.Row, Col: p.Col}
		}
		seen[key] = true
	}

	sameRow, sameCol := true, true
	for _, p := range placed[1:] {
		if p.Row != placed[0].Row {
			sameRow = false
		}
		if p.Col != placed[0].Col {
			sameCol = false
		}
	}
	if !sameRow && !sameCol {
		return &PlacementError{Reason: ReasonNotAligned}
	}

	occ := func(r, c int) bool {
		return seen[[2]int{r, c}] || board.Occupied(r, c)
	}

	// The run from the lowest to the highest placed cell may pass
	// through existing tiles but never through a gap.
	if sameRow {
		row := placed[0].Row
		minCol, maxCol := placed[0].Col, placed[0].Col
		for _, p := range placed[1:] {
			if p.Col < minCol {
				minCol = p.Col
			}
			if p.Col > maxCol {
				maxCol = p.Col
			}
		}
		for c := minCol; c <= maxCol; c++ {
			if !occ(row, c) {
				return &PlacementError{Reason: ReasonNotConsecutive, Row: row, Col: c}
			}
		}
	} else {
		col := placed[0].Col
		minRow, maxRow := placed[0].Row, placed[0].Row
		for _, p := range placed[1:] {
			if p.Row < minRow {
				minRow = p.Row
			}
			if p.Row > maxRow {
				maxRow = p.Row
			}
		}
		for r := minRow; r <= maxRow; r++ {
			if !occ(r, col) {
				return &PlacementError{Reason: ReasonNotConsecutive, Row: r, Col: col}
			}
		}
	}

	if firstWord {
		if !seen[[2]int{tileset.CenterRow, tileset.CenterCol}] {
			return &PlacementError{Reason: ReasonMustCoverCenter}
		}
		return nil
	}

	for _, p := range placed {
		for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if board.Occupied(p.Row+d[0], p.Col+d[1]) {
				return nil
			}
		}
	}
	return &PlacementError{Reason: ReasonMustConnect}
}

// WordCell is one position of a formed word. New marks tiles placed in
// the current move, which is what premium squares key off.
type WordCell struct {
	Row, Col int
	Tile     Tile
	New      bool
}

// Word is a maximal contiguous run read left→right or top→bottom.
type Word struct {
	Cells []WordCell
}

func (w Word) String() string {
	var b strings.Builder
	for _, c := range w.Cells {
		b.WriteRune(c.Tile.Letter)
	}
	return b.String()
}

// ExtractWords finds the main word along the placement axis plus every
// perpendicular cross word of length ≥2 through a placed tile. The
// board does not yet contain the placed tiles; they are overlaid.
func ExtractWords(board *Board, placed []Placement) []Word {
	if len(placed) == 0 {
		return nil
	}

	overlay := make(map[[2]int]Tile, len(placed))
	for _, p := range placed {
		overlay[[2]int{p.Row, p.Col}] = p.Tile
	}
	at := func(r, c int) (Tile, bool) {
		if t, ok := overlay[[2]int{r, c}]; ok {
			return t, true
		}
		return board.At(r, c)
	}
	isNew := func(r, c int) bool {
		_, ok := overlay[[2]int{r, c}]
		return ok
	}

	// A single tile reads as a horizontal main word.
	horizontal := true
	for _, p := range placed[1:] {
		if p.Row != placed[0].Row {
			horizontal = false
			break
		}
	}
	dr, dc := 1, 0
	if horizontal {
		dr, dc = 0, 1
	}

	var words []Word
	if w, ok := wordThrough(at, isNew, placed[0].Row, placed[0].Col, dr, dc); ok {
		words = append(words, w)
	}
	for _, p := range placed {
		if w, ok := wordThrough(at, isNew, p.Row, p.Col, dc, dr); ok {
			words = append(words, w)
		}
	}
	return words
}

func wordThrough(at func(int, int) (Tile, bool), isNew func(int, int) bool, row, col, dr, dc int) (Word, bool) {
	r, c := row, col
	for {
		pr, pc := r-dr, c-dc
		if _, ok := at(pr, pc); !ok {
			break
		}
		r, c = pr, pc
	}
	var w Word
	for {
		t, ok := at(r, c)
		if !ok {
			break
		}
		w.Cells = append(w.Cells, WordCell{Row: r, Col: c, Tile: t, New: isNew(r, c)})
		r += dr
		c += dc
	}
	if len(w.Cells) < 2 {
		return Word{}, false
	}
	return w, true
}
