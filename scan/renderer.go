package scan

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/mat"
)

// TipRenderer draws the fitted grid as a grayscale raster with the threshold
// candidates and the tip estimate overlaid. Row 0 of the grid is drawn at
// the top of the image.
type TipRenderer struct {
	Grid   *mat.Dense
	Result *AlignmentResult
	Bounds Bounds
	Scale  int // output pixels per grid cell
	Margin int // pixels reserved around the grid for the border and caption
}

// NewTipRenderer creates a tip-location renderer with default settings.
func NewTipRenderer(grid *mat.Dense, result *AlignmentResult, bounds Bounds) *TipRenderer {
	return &TipRenderer{
		Grid:   grid,
		Result: result,
		Bounds: bounds,
		Scale:  2,
		Margin: 20,
	}
}

// Render produces the overlay image.
func (r *TipRenderer) Render() *image.RGBA {
	rows, cols := r.Grid.Dims()
	scale := r.Scale
	if scale < 1 {
		scale = 1
	}

	width := cols*scale + 2*r.Margin
	height := rows*scale + 2*r.Margin
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// White background.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	// Grayscale grid: higher modeled power drawn darker, so the dip shows
	// as a pale region against the dark baseline.
	minV, maxV := gridRange(r.Grid)
	span := maxV - minV
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			t := 0.0
			if span > 0 {
				t = (r.Grid.At(row, col) - minV) / span
			}
			g := uint8(255 - math.Round(t*255))
			c := color.RGBA{g, g, g, 255}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(r.Margin+col*scale+dx, r.Margin+row*scale+dy, c)
				}
			}
		}
	}

	// Candidate cells in red.
	red := color.RGBA{220, 30, 30, 255}
	for _, cand := range r.Result.Candidates {
		for dy := 0; dy < scale; dy++ {
			for dx := 0; dx < scale; dx++ {
				img.Set(r.Margin+cand.Col*scale+dx, r.Margin+cand.Row*scale+dy, red)
			}
		}
	}

	// Tip estimate as a filled green circle.
	green := color.RGBA{50, 205, 50, 255}
	tipX := r.Margin + int(math.Round(r.Result.TipXIndex*float64(scale)))
	tipY := r.Margin + int(math.Round(r.Result.TipYIndex*float64(scale)))
	drawDisc(img, tipX, tipY, 2*scale, green)

	caption := fmt.Sprintf("Tip at (%.2f, %.2f) V", r.Result.TipXVolts, r.Result.TipYVolts)
	drawText(img, r.Margin, height-6, caption, color.RGBA{0, 0, 0, 255})

	return img
}

// RenderTipLocation renders the tip-location overlay and writes it as a PNG.
func RenderTipLocation(grid *mat.Dense, result *AlignmentResult, bounds Bounds, outputPath string) error {
	if result == nil {
		return fmt.Errorf("nil alignment result")
	}

	img := NewTipRenderer(grid, result, bounds).Render()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

func gridRange(g *mat.Dense) (minV, maxV float64) {
	rows, cols := g.Dims()
	minV, maxV = g.At(0, 0), g.At(0, 0)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := g.At(r, c)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	return minV, maxV
}

func drawDisc(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				img.Set(cx+dx, cy+dy, c)
			}
		}
	}
}

func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
