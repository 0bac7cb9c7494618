package game

import "github.com/okvist/wordrack/internal/tileset"

// BingoBonus rewards a move that empties a full rack.
const BingoBonus = 50

// ScoreWord scores one formed word. Letter and word multipliers count
// only under newly placed tiles; each word applies its own multipliers
// independently, even where it shares a premium square with another
// word of the same move.
func ScoreWord(w Word, layout *tileset.Layout) int {
	points, wordMult := 0, 1
	for _, cell := range w.Cells {
		v := cell.Tile.Value
		if cell.New {
			p := layout.PremiumAt(cell.Row, cell.Col)
			v *= p.LetterMultiplier()
			wordMult *= p.WordMultiplier()
		}
		points += v
	}
	return points * wordMult
}

// ScoreMove totals every formed word and adds the bingo bonus when all
// seven rack tiles were used.
func ScoreMove(words []Word, layout *tileset.Layout, placedCount int) (int, bool) {
	total := 0
	for _, w := range words {
		total += ScoreWord(w, layout)
	}
	bingo := placedCount == RackCapacity
	if bingo {
		total += BingoBonus
	}
	return total, bingo
}
