package game

import "bytes"

// tintSVG swaps the tile face's base fill for a variant colour.
func tintSVG(svg []byte, fill string) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:#f6e7c3"), []byte("fill:"+fill))
	fixed = bytes.ReplaceAll(fixed, []byte("fill:#fdf6e0"), []byte("fill:"+fill))
	return fixed
}
