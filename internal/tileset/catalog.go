package tileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"embed"
	"io/fs"

	yaml "gopkg.in/yaml.v3"
)

//go:embed tilesets.yaml
var defaultFiles embed.FS

// Board geometry shared by every layout.
const (
	Size      = 15
	CenterRow = 7
	CenterCol = 7
)

// Blank is the face of an unassigned blank tile.
const Blank = '?'

// Premium is the bonus class of a board square.
type Premium uint8

const (
	PremiumNone Premium = iota
	PremiumDoubleLetter
	PremiumTripleLetter
	PremiumDoubleWord
	PremiumTripleWord
)

// LetterMultiplier applies to a single newly placed tile.
func (p Premium) LetterMultiplier() int {
	switch p {
	case PremiumDoubleLetter:
		return 2
	case PremiumTripleLetter:
		return 3
	default:
		return 1
	}
}

// WordMultiplier applies to a whole formed word.
func (p Premium) WordMultiplier() int {
	switch p {
	case PremiumDoubleWord:
		return 2
	case PremiumTripleWord:
		return 3
	default:
		return 1
	}
}

func (p Premium) String() string {
	switch p {
	case PremiumDoubleLetter:
		return "DL"
	case PremiumTripleLetter:
		return "TL"
	case PremiumDoubleWord:
		return "DW"
	case PremiumTripleWord:
		return "TW"
	default:
		return ""
	}
}

type LetterSpec struct {
	Count int `yaml:"count"`
	Value int `yaml:"value"`
}

// Layout is an immutable premium-square grid.
type Layout struct {
	name string
	grid [Size][Size]Premium
}

func (l *Layout) Name() string { return l.name }

// PremiumAt returns PremiumNone for out-of-range coordinates.
func (l *Layout) PremiumAt(row, col int) Premium {
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return PremiumNone
	}
	return l.grid[row][col]
}

// Set is one named tile distribution bound to a premium layout.
type Set struct {
	Name    string
	Layout  *Layout
	Letters map[rune]LetterSpec
}

// TotalTiles is the number of tiles a full bag holds.
func (s *Set) TotalTiles() int {
	total := 0
	for _, spec := range s.Letters {
		total += spec.Count
	}
	return total
}

// Value returns the point value of a letter face, 0 for unknown faces.
func (s *Set) Value(letter rune) int {
	if spec, ok := s.Letters[letter]; ok {
		return spec.Value
	}
	return 0
}

// SortedLetters returns the faces in deterministic order, blank last.
func (s *Set) SortedLetters() []rune {
	out := make([]rune, 0, len(s.Letters))
	for r := range s.Letters {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == Blank {
			return false
		}
		if out[j] == Blank {
			return true
		}
		return out[i] < out[j]
	})
	return out
}

type rawTileset struct {
	Layout  string                `yaml:"layout"`
	Letters map[string]LetterSpec `yaml:"letters"`
}

type rawFile struct {
	Layouts  map[string][]string   `yaml:"layouts"`
	Tilesets map[string]rawTileset `yaml:"tilesets"`
}

// Load resolves a named tile distribution from the embedded catalog,
// after merging any YAML files found in overrideDir (sorted by name,
// later definitions win whole entries).
func Load(name, overrideDir string) (*Set, error) {
	merged := rawFile{
		Layouts:  make(map[string][]string),
		Tilesets: make(map[string]rawTileset),
	}

	raw, err := fs.ReadFile(defaultFiles, "tilesets.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded tilesets: %w", err)
	}
	if err := mergeYAML(&merged, raw); err != nil {
		return nil, fmt.Errorf("parse embedded tilesets: %w", err)
	}

	if strings.TrimSpace(overrideDir) != "" {
		if err := mergeDir(&merged, overrideDir); err != nil {
			return nil, err
		}
	}

	key := strings.ToLower(strings.TrimSpace(name))
	spec, ok := merged.Tilesets[key]
	if !ok {
		return nil, fmt.Errorf("unknown tileset %q", name)
	}

	rows, ok := merged.Layouts[spec.Layout]
	if !ok {
		return nil, fmt.Errorf("tileset %q references unknown layout %q", key, spec.Layout)
	}
	layout, err := parseLayout(spec.Layout, rows)
	if err != nil {
		return nil, fmt.Errorf("layout %q: %w", spec.Layout, err)
	}

	letters, err := parseLetters(spec.Letters)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", key, err)
	}

	return &Set{Name: key, Layout: layout, Letters: letters}, nil
}

func mergeDir(dst *rawFile, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read tileset dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, fname := range files {
		b, err := os.ReadFile(filepath.Join(dir, fname))
		if err != nil {
			return fmt.Errorf("read %s: %w", fname, err)
		}
		if err := mergeYAML(dst, b); err != nil {
			return fmt.Errorf("parse %s: %w", fname, err)
		}
	}
	return nil
}

func mergeYAML(dst *rawFile, b []byte) error {
	var f rawFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}
	for k, v := range f.Layouts {
		dst.Layouts[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for k, v := range f.Tilesets {
		v.Layout = strings.ToLower(strings.TrimSpace(v.Layout))
		dst.Tilesets[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return nil
}

func parseLayout(name string, rows []string) (*Layout, error) {
	if len(rows) != Size {
		return nil, fmt.Errorf("expected %d rows, got %d", Size, len(rows))
	}
	l := &Layout{name: name}
	for r, row := range rows {
		cells := []rune(row)
		if len(cells) != Size {
			return nil, fmt.Errorf("row %d: expected %d cells, got %d", r, Size, len(cells))
		}
		for c, cell := range cells {
			var p Premium
			switch cell {
			case '.':
				p = PremiumNone
			case 'd':
				p = PremiumDoubleLetter
			case 't':
				p = PremiumTripleLetter
			case 'D':
				p = PremiumDoubleWord
			case 'T':
				p = PremiumTripleWord
			case '*':
				if r != CenterRow || c != CenterCol {
					return nil, fmt.Errorf("center marker at %d,%d (must be %d,%d)", r, c, CenterRow, CenterCol)
				}
				p = PremiumNone
			default:
				return nil, fmt.Errorf("row %d col %d: unknown cell %q", r, c, string(cell))
			}
			l.grid[r][c] = p
		}
	}
	return l, nil
}

func parseLetters(src map[string]LetterSpec) (map[rune]LetterSpec, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("no letters defined")
	}
	out := make(map[rune]LetterSpec, len(src))
	for face, spec := range src {
		runes := []rune(strings.TrimSpace(face))
		if len(runes) != 1 {
			return nil, fmt.Errorf("letter key %q must be a single character", face)
		}
		r := runes[0]
		if r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		if !(r >= 'A' && r <= 'Z') && r != Blank {
			return nil, fmt.Errorf("letter key %q must be A-Z or %q", face, string(Blank))
		}
		if spec.Count <= 0 {
			return nil, fmt.Errorf("letter %q: count must be positive", string(r))
		}
		if spec.Value < 0 {
			return nil, fmt.Errorf("letter %q: value must not be negative", string(r))
		}
		if _, dup := out[r]; dup {
			return nil, fmt.Errorf("letter %q defined twice", string(r))
		}
		out[r] = spec
	}
	return out, nil
}
