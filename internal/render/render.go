// Package render draws an ARC task's training pairs to a PNG, the Go
// equivalent of original_source/src/image_generation.py's matplotlib
// cartoon grid renderer. No charting or plotting library appears
// anywhere in the example pack (storbeck-augustus's own mindmap and
// steganography probes draw directly against image/draw), so this
// follows that precedent rather than reaching for a new dependency.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/praetorian-inc/arc-orchestrator/pkg/types"
)

const (
	cellPixels  = 16
	gapPixels   = 24
	padPixels   = 12
	borderWidth = 1
)

// palette mirrors image_generation.py's CMAP: ARC's ten canonical
// symbol colors, indexed by grid cell value 0-9.
var palette = [10]color.RGBA{
	{0, 0, 0, 255},
	{0x00, 0x74, 0xD9, 255},
	{0xFF, 0x41, 0x36, 255},
	{0x2E, 0xCC, 0x40, 255},
	{0xFF, 0xDC, 0x00, 255},
	{0xAA, 0xAA, 0xAA, 255},
	{0xF0, 0x12, 0xBE, 255},
	{0xFF, 0x85, 0x1B, 255},
	{0x7F, 0xDB, 0xFF, 255},
	{0x87, 0x0C, 0x25, 255},
}

func colorFor(v int) color.RGBA {
	if v < 0 || v >= len(palette) {
		return color.RGBA{255, 255, 255, 255}
	}
	return palette[v]
}

// Renderer implements solver.ImageRenderer.
type Renderer struct{}

// Render draws every training pair of task, input grid stacked beside
// its output grid, one row per pair, and saves the result as a PNG at
// path.
func (Renderer) Render(task types.Task, path string) error {
	if len(task.Train) == 0 {
		return fmt.Errorf("render: task has no training pairs")
	}

	rowHeights := make([]int, len(task.Train))
	maxPairWidth := 0
	for i, ex := range task.Train {
		rowHeights[i] = maxRows(ex) * cellPixels
		w := (colsOf(ex.Input) + colsOf(ex.Output)) * cellPixels
		if w > maxPairWidth {
			maxPairWidth = w
		}
	}

	totalHeight := padPixels
	for _, h := range rowHeights {
		totalHeight += h + gapPixels
	}
	totalWidth := maxPairWidth + gapPixels + 2*padPixels

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{0xF8, 0xF8, 0xF4, 255}}, image.Point{}, draw.Src)

	y := padPixels
	for i, ex := range task.Train {
		drawGrid(img, ex.Input, padPixels, y)
		outX := padPixels + colsOf(ex.Input)*cellPixels + gapPixels
		drawGrid(img, ex.Output, outX, y)
		y += rowHeights[i] + gapPixels
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

func colsOf(g [][]int) int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func maxRows(ex types.Example) int {
	r := len(ex.Input)
	if len(ex.Output) > r {
		r = len(ex.Output)
	}
	return r
}

func drawGrid(img *image.RGBA, g [][]int, x0, y0 int) {
	for r, row := range g {
		for c, v := range row {
			rect := image.Rect(x0+c*cellPixels, y0+r*cellPixels, x0+(c+1)*cellPixels, y0+(r+1)*cellPixels)
			draw.Draw(img, rect, &image.Uniform{colorFor(v)}, image.Point{}, draw.Src)
			drawCellBorder(img, rect)
		}
	}
}

func drawCellBorder(img *image.RGBA, rect image.Rectangle) {
	black := color.RGBA{0, 0, 0, 255}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.Set(x, rect.Min.Y, black)
		img.Set(x, rect.Max.Y-borderWidth, black)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.Set(rect.Min.X, y, black)
		img.Set(rect.Max.X-borderWidth, y, black)
	}
}
