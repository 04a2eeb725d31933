package scan

import (
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"
	"gonum.org/v1/gonum/mat"
)

// VectorTipRenderer renders the alignment overlay as vector graphics in
// voltage space: the scanned window outline, dashed voltage grid lines, the
// threshold candidates, and the tip estimate.
type VectorTipRenderer struct {
	Grid        *mat.Dense
	Result      *AlignmentResult
	Bounds      Bounds
	Padding     float64           // padding around the voltage window, in volts
	GridSpacing float64           // grid line spacing in volts; 0 disables
	Resolution  canvas.Resolution // resolution for PNG output
}

// NewVectorTipRenderer creates a vector renderer with default settings.
func NewVectorTipRenderer(grid *mat.Dense, result *AlignmentResult, bounds Bounds) *VectorTipRenderer {
	return &VectorTipRenderer{
		Grid:        grid,
		Result:      result,
		Bounds:      bounds,
		Padding:     2.0,
		GridSpacing: 5.0,
		Resolution:  canvas.DPI(300),
	}
}

// canvasRenderer is the subset both the svg and rasterizer backends implement.
type canvasRenderer interface {
	RenderPath(path *canvas.Path, style canvas.Style, m canvas.Matrix)
}

// RenderToSVG writes the overlay as an SVG to the provided writer.
func (r *VectorTipRenderer) RenderToSVG(w io.Writer) error {
	width, height := r.canvasSize()
	svgRenderer := svg.New(w, width, height, nil)
	r.renderToCanvas(svgRenderer, width, height)
	return svgRenderer.Close()
}

// RenderToPNG writes the overlay as a rasterized PNG to the provided writer.
func (r *VectorTipRenderer) RenderToPNG(w io.Writer) error {
	width, height := r.canvasSize()
	rast := rasterizer.New(width, height, r.Resolution, canvas.DefaultColorSpace)
	r.renderToCanvas(rast, width, height)
	return png.Encode(w, rast)
}

func (r *VectorTipRenderer) canvasSize() (width, height float64) {
	width = (r.Bounds.VxMax + 1 - r.Bounds.VxMin) + 2*r.Padding
	height = (r.Bounds.VyMax + 1 - r.Bounds.VyMin) + 2*r.Padding
	return width, height
}

// toCanvas maps a voltage pair to canvas coordinates.
func (r *VectorTipRenderer) toCanvas(vx, vy float64) (float64, float64) {
	return (vx - r.Bounds.VxMin) + r.Padding, (vy - r.Bounds.VyMin) + r.Padding
}

// cellToVolts maps fractional grid indices to voltages the same way the
// locator does, so vector markers land exactly where the result reports.
func (r *VectorTipRenderer) cellToVolts(row, col float64) (vx, vy float64) {
	rows, cols := r.Grid.Dims()
	vx = r.Bounds.VxMin + col*(r.Bounds.VxMax-r.Bounds.VxMin)/float64(cols)
	vy = r.Bounds.VyMin + row*(r.Bounds.VyMax-r.Bounds.VyMin)/float64(rows)
	return vx, vy
}

func (r *VectorTipRenderer) renderToCanvas(renderer canvasRenderer, width, height float64) {
	// White background.
	bgStyle := canvas.DefaultStyle
	bgStyle.Fill = canvas.Paint{Color: canvas.White}
	renderer.RenderPath(canvas.Rectangle(width, height), bgStyle, canvas.Identity)

	// Scanned voltage window outline.
	outlineStyle := canvas.DefaultStyle
	outlineStyle.Fill = canvas.Paint{Color: canvas.Transparent}
	outlineStyle.Stroke = canvas.Paint{Color: canvas.Black}
	outlineStyle.StrokeWidth = 0.15

	outline := &canvas.Path{}
	x0, y0 := r.toCanvas(r.Bounds.VxMin, r.Bounds.VyMin)
	x1, y1 := r.toCanvas(r.Bounds.VxMax+1, r.Bounds.VyMax+1)
	outline.MoveTo(x0, y0)
	outline.LineTo(x1, y0)
	outline.LineTo(x1, y1)
	outline.LineTo(x0, y1)
	outline.Close()
	renderer.RenderPath(outline, outlineStyle, canvas.Identity)

	// Dashed voltage grid lines.
	if r.GridSpacing > 0 {
		gridStyle := canvas.DefaultStyle
		gridStyle.Fill = canvas.Paint{Color: canvas.Transparent}
		gridStyle.Stroke = canvas.Paint{Color: canvas.Gray}
		gridStyle.StrokeWidth = 0.05
		gridStyle.Dashes = []float64{0.5, 0.5}

		for vx := math.Ceil(r.Bounds.VxMin/r.GridSpacing) * r.GridSpacing; vx <= r.Bounds.VxMax+1; vx += r.GridSpacing {
			gridPath := &canvas.Path{}
			gx0, gy0 := r.toCanvas(vx, r.Bounds.VyMin)
			gx1, gy1 := r.toCanvas(vx, r.Bounds.VyMax+1)
			gridPath.MoveTo(gx0, gy0)
			gridPath.LineTo(gx1, gy1)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
		for vy := math.Ceil(r.Bounds.VyMin/r.GridSpacing) * r.GridSpacing; vy <= r.Bounds.VyMax+1; vy += r.GridSpacing {
			gridPath := &canvas.Path{}
			gx0, gy0 := r.toCanvas(r.Bounds.VxMin, vy)
			gx1, gy1 := r.toCanvas(r.Bounds.VxMax+1, vy)
			gridPath.MoveTo(gx0, gy0)
			gridPath.LineTo(gx1, gy1)
			renderer.RenderPath(gridPath, gridStyle, canvas.Identity)
		}
	}

	// Threshold candidates as small red dots.
	candStyle := canvas.DefaultStyle
	candStyle.Fill = canvas.Paint{Color: color.RGBA{220, 30, 30, 255}}
	candStyle.Stroke = canvas.Paint{Color: canvas.Transparent}
	for _, cand := range r.Result.Candidates {
		vx, vy := r.cellToVolts(float64(cand.Row), float64(cand.Col))
		cx, cy := r.toCanvas(vx, vy)
		dot := canvas.Circle(0.15).Translate(cx, cy)
		renderer.RenderPath(dot, candStyle, canvas.Identity)
	}

	// Tip estimate as a larger green circle with a black outline.
	tipStyle := canvas.DefaultStyle
	tipStyle.Fill = canvas.Paint{Color: color.RGBA{50, 205, 50, 255}}
	tipStyle.Stroke = canvas.Paint{Color: canvas.Black}
	tipStyle.StrokeWidth = 0.1

	tvx, tvy := r.cellToVolts(r.Result.TipYIndex, r.Result.TipXIndex)
	tx, ty := r.toCanvas(tvx, tvy)
	tip := canvas.Circle(0.6).Translate(tx, ty)
	renderer.RenderPath(tip, tipStyle, canvas.Identity)
}
