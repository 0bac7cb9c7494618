package tileset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnglishDistribution(t *testing.T) {
	set, err := Load("english", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.TotalTiles() != 100 {
		t.Fatalf("expected 100 tiles, got %d", set.TotalTiles())
	}
	if got := set.Value('Q'); got != 10 {
		t.Fatalf("Q value = %d, want 10", got)
	}
	if got := set.Value(Blank); got != 0 {
		t.Fatalf("blank value = %d, want 0", got)
	}
	if spec := set.Letters['E']; spec.Count != 12 {
		t.Fatalf("E count = %d, want 12", spec.Count)
	}
}

func TestStandardLayoutPremiums(t *testing.T) {
	set, err := Load("english", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	l := set.Layout

	checks := []struct {
		row, col int
		want     Premium
	}{
		{0, 0, PremiumTripleWord},
		{0, 7, PremiumTripleWord},
		{14, 14, PremiumTripleWord},
		{7, 7, PremiumNone},
		{1, 1, PremiumDoubleWord},
		{13, 13, PremiumDoubleWord},
		{5, 5, PremiumTripleLetter},
		{9, 13, PremiumTripleLetter},
		{0, 3, PremiumDoubleLetter},
		{8, 8, PremiumDoubleLetter},
		{7, 8, PremiumNone},
		{4, 7, PremiumNone},
	}
	for _, c := range checks {
		if got := l.PremiumAt(c.row, c.col); got != c.want {
			t.Fatalf("PremiumAt(%d,%d) = %v, want %v", c.row, c.col, got, c.want)
		}
	}

	if got := l.PremiumAt(-1, 0); got != PremiumNone {
		t.Fatalf("out of range row should be plain, got %v", got)
	}
	if got := l.PremiumAt(0, 15); got != PremiumNone {
		t.Fatalf("out of range col should be plain, got %v", got)
	}
}

func TestLayoutSymmetry(t *testing.T) {
	set, err := Load("english", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	l := set.Layout
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if got, want := l.PremiumAt(r, c), l.PremiumAt(Size-1-r, Size-1-c); got != want {
				t.Fatalf("layout not point-symmetric at %d,%d: %v vs %v", r, c, got, want)
			}
		}
	}
}

func TestLoadUnknownSet(t *testing.T) {
	if _, err := Load("klingon", ""); err == nil {
		t.Fatal("expected error for unknown tileset")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := `
tilesets:
  micro:
    layout: standard
    letters:
      A: { count: 5, value: 1 }
      B: { count: 2, value: 3 }
`
	if err := os.WriteFile(filepath.Join(dir, "micro.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	set, err := Load("micro", dir)
	if err != nil {
		t.Fatalf("Load with override: %v", err)
	}
	if set.TotalTiles() != 7 {
		t.Fatalf("micro total = %d, want 7", set.TotalTiles())
	}

	// The embedded sets must remain reachable alongside overrides.
	eng, err := Load("english", dir)
	if err != nil {
		t.Fatalf("Load english with override dir: %v", err)
	}
	if eng.TotalTiles() != 100 {
		t.Fatalf("english total = %d, want 100", eng.TotalTiles())
	}
}

func TestBadLayoutRejected(t *testing.T) {
	dir := t.TempDir()
	override := `
layouts:
  crooked:
    - "T.."
tilesets:
  broken:
    layout: crooked
    letters:
      A: { count: 1, value: 1 }
`
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := Load("broken", dir); err == nil {
		t.Fatal("expected layout validation error")
	}
}
