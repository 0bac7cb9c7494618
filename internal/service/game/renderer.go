package game

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	core "github.com/okvist/wordrack/internal/game"
	"github.com/okvist/wordrack/internal/tileset"
)

//go:embed assets/tiles/*.svg
var tileFiles embed.FS

// RenderOptions carries the HUD strings and the cells to highlight as
// the most recent play.
type RenderOptions struct {
	Title    string
	TurnLine string
	LastMove []core.Placement
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, layout *tileset.Layout, cells []core.BoardCell, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct {
}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

var (
	boardBackground = color.RGBA{24, 26, 38, 255}
	plainCellColor  = color.RGBA{222, 216, 196, 255}
	gridLineColor   = color.RGBA{178, 170, 146, 255}
	dlCellColor     = color.RGBA{164, 198, 226, 255}
	tlCellColor     = color.RGBA{74, 127, 181, 255}
	dwCellColor     = color.RGBA{232, 167, 167, 255}
	twCellColor     = color.RGBA{205, 92, 84, 255}
	centerStarColor = color.NRGBA{R: 150, G: 98, B: 160, A: 255}
	premiumDarkText = color.NRGBA{R: 60, G: 56, B: 44, A: 255}
	premiumPaleText = color.NRGBA{R: 245, G: 245, B: 250, A: 255}
	tileLetterColor = color.NRGBA{R: 54, G: 40, B: 16, A: 255}
	blankLetterInk  = color.NRGBA{R: 96, G: 54, B: 132, A: 255}
	hudPanelColor   = color.NRGBA{R: 34, G: 37, B: 54, A: 250}
	hudTextColor    = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTurnColor    = color.NRGBA{R: 196, G: 204, B: 234, A: 255}
	lastMoveOutline = color.NRGBA{R: 255, G: 214, B: 90, A: 200}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, layout *tileset.Layout, cells []core.BoardCell, opts RenderOptions) ([]byte, error) {
	if layout == nil {
		return nil, fmt.Errorf("layout is nil")
	}

	const (
		cellSize     = 44
		sideMargin   = 26
		topMargin    = 92
		bottomMargin = 26
		panelHeight  = 34
		turnHeight   = 24
	)
	boardSize := cellSize * tileset.Size
	totalWidth := boardSize + sideMargin*2
	totalHeight := boardSize + topMargin + bottomMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(boardBackground), image.Point{}, imagedraw.Src)

	drawHUD(img, opts, totalWidth, panelHeight, turnHeight)
	drawGrid(img, layout, cellSize, origin)

	occupied := make(map[[2]int]bool, len(cells))
	for _, c := range cells {
		occupied[[2]int{c.Row, c.Col}] = true
	}
	if !occupied[[2]int{tileset.Size / 2, tileset.Size / 2}] {
		drawCenterStar(img, cellSize, origin)
	}

	for _, c := range cells {
		if err := drawTile(img, c, cellSize, origin); err != nil {
			return nil, err
		}
	}
	drawLastMove(img, opts.LastMove, cellSize, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func drawHUD(img *image.RGBA, opts RenderOptions, totalWidth, panelHeight, turnHeight int) {
	if opts.Title != "" {
		rect := image.Rect(totalWidth/2-170, 14, totalWidth/2+170, 14+panelHeight)
		imagedraw.Draw(img, rect, image.NewUniform(hudPanelColor), image.Point{}, imagedraw.Over)
		drawScaledText(img, opts.Title, totalWidth/2, 14+panelHeight/2, 2, hudTextColor)
	}
	if opts.TurnLine != "" {
		y := 14 + panelHeight + 8
		rect := image.Rect(totalWidth/2-150, y, totalWidth/2+150, y+turnHeight)
		imagedraw.Draw(img, rect, image.NewUniform(hudPanelColor), image.Point{}, imagedraw.Over)
		drawScaledText(img, opts.TurnLine, totalWidth/2, y+turnHeight/2, 1, hudTurnColor)
	}
}

func drawGrid(img *image.RGBA, layout *tileset.Layout, cellSize int, origin image.Point) {
	for row := 0; row < tileset.Size; row++ {
		for col := 0; col < tileset.Size; col++ {
			x := origin.X + col*cellSize
			y := origin.Y + row*cellSize
			outer := image.Rect(x, y, x+cellSize, y+cellSize)
			inner := image.Rect(x+1, y+1, x+cellSize-1, y+cellSize-1)

			premium := layout.PremiumAt(row, col)
			imagedraw.Draw(img, outer, image.NewUniform(gridLineColor), image.Point{}, imagedraw.Src)
			imagedraw.Draw(img, inner, image.NewUniform(premiumColor(premium)), image.Point{}, imagedraw.Src)

			if label := premium.String(); label != "" {
				clr := premiumDarkText
				if premium == tileset.PremiumTripleWord || premium == tileset.PremiumTripleLetter {
					clr = premiumPaleText
				}
				drawScaledText(img, label, x+cellSize/2, y+cellSize/2, 1, clr)
			}
		}
	}
}

func premiumColor(p tileset.Premium) color.Color {
	switch p {
	case tileset.PremiumDoubleLetter:
		return dlCellColor
	case tileset.PremiumTripleLetter:
		return tlCellColor
	case tileset.PremiumDoubleWord:
		return dwCellColor
	case tileset.PremiumTripleWord:
		return twCellColor
	default:
		return plainCellColor
	}
}

// drawCenterStar marks the opening square while it is still free.
func drawCenterStar(img *image.RGBA, cellSize int, origin image.Point) {
	mid := tileset.Size / 2
	cx := origin.X + mid*cellSize + cellSize/2
	cy := origin.Y + mid*cellSize + cellSize/2
	drawDisc(img, image.Point{X: cx, Y: cy}, cellSize/4, centerStarColor)
	drawDisc(img, image.Point{X: cx, Y: cy}, cellSize/8, plainCellColor)
}

func drawTile(img *image.RGBA, c core.BoardCell, cellSize int, origin image.Point) error {
	x := origin.X + c.Col*cellSize
	y := origin.Y + c.Row*cellSize

	face, err := renderTileFace(cellSize-2, c.Tile.Blank)
	if err != nil {
		return err
	}
	imagedraw.Draw(img, image.Rect(x+1, y+1, x+cellSize-1, y+cellSize-1), face, image.Point{}, imagedraw.Over)

	ink := tileLetterColor
	if c.Tile.Blank {
		ink = blankLetterInk
	}
	drawScaledText(img, string(c.Tile.Letter), x+cellSize/2-3, y+cellSize/2, 2, ink)
	if c.Tile.Value > 0 {
		drawScaledText(img, strconv.Itoa(c.Tile.Value), x+cellSize-9, y+cellSize-9, 1, tileLetterColor)
	}
	return nil
}

func drawLastMove(img *image.RGBA, placements []core.Placement, cellSize int, origin image.Point) {
	for _, p := range placements {
		x := origin.X + p.Col*cellSize
		y := origin.Y + p.Row*cellSize
		edge := image.NewUniform(lastMoveOutline)
		imagedraw.Draw(img, image.Rect(x, y, x+cellSize, y+3), edge, image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, image.Rect(x, y+cellSize-3, x+cellSize, y+cellSize), edge, image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, image.Rect(x, y, x+3, y+cellSize), edge, image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, image.Rect(x+cellSize-3, y, x+cellSize, y+cellSize), edge, image.Point{}, imagedraw.Over)
	}
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		return
	}
	rSquared := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > rSquared {
				continue
			}
			pt := image.Point{X: center.X + dx, Y: center.Y + dy}
			if pt.In(img.Bounds()) {
				img.Set(pt.X, pt.Y, clr)
			}
		}
	}
}

// drawScaledText rasterizes text with the fixed 7x13 face and scales it
// up with nearest-neighbour, centred on (centerX, centerY).
func drawScaledText(dst *image.RGBA, text string, centerX, centerY, scale int, clr color.Color) {
	if text == "" || scale <= 0 {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	if width <= 0 || height <= 0 {
		return
	}

	src := image.NewRGBA(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{
		Dst:  src,
		Src:  image.NewUniform(clr),
		Face: face,
	}
	drawer.Dot = fixed.P(0, ascent)
	drawer.DrawString(text)

	dstRect := image.Rect(
		centerX-width*scale/2,
		centerY-height*scale/2,
		centerX-width*scale/2+width*scale,
		centerY-height*scale/2+height*scale,
	)
	xdraw.NearestNeighbor.Scale(dst, dstRect, src, src.Bounds(), xdraw.Over, nil)
}

type faceCacheKey struct {
	size  int
	blank bool
}

var (
	faceCache   = map[faceCacheKey]image.Image{}
	faceCacheMu sync.RWMutex
)

func renderTileFace(size int, blank bool) (image.Image, error) {
	key := faceCacheKey{size: size, blank: blank}

	faceCacheMu.RLock()
	if img, ok := faceCache[key]; ok {
		faceCacheMu.RUnlock()
		return img, nil
	}
	faceCacheMu.RUnlock()

	data, err := tileFiles.ReadFile("assets/tiles/face.svg")
	if err != nil {
		return nil, fmt.Errorf("read tile asset: %w", err)
	}
	if blank {
		data = tintSVG(data, "#e6dcf4")
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse tile svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	faceCacheMu.Lock()
	faceCache[key] = img
	faceCacheMu.Unlock()

	return img, nil
}
