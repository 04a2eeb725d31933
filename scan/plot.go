package scan

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// gridXYZ adapts the fitted grid and its coordinate meshes to the
// plotter.GridXYZ interface. Columns track Vx, rows track Vy.
type gridXYZ struct {
	grid  *mat.Dense
	xmesh *mat.Dense
	ymesh *mat.Dense
}

func (g gridXYZ) Dims() (c, r int) {
	r, c = g.grid.Dims()
	return c, r
}

func (g gridXYZ) Z(c, r int) float64 { return g.grid.At(r, c) }
func (g gridXYZ) X(c int) float64    { return g.xmesh.At(0, c) }
func (g gridXYZ) Y(r int) float64    { return g.ymesh.At(r, 0) }

// PlotFittedSurface writes a heatmap of the modeled power over the voltage
// mesh, the analyzer's stand-in for the interactive surface plot.
func PlotFittedSurface(grid, xmesh, ymesh *mat.Dense, path string) error {
	if err := checkMeshShape(grid, xmesh, ymesh); err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Fitted Scan Model"
	p.X.Label.Text = "Applied X Voltage (V)"
	p.Y.Label.Text = "Applied Y Voltage (V)"

	hm := plotter.NewHeatMap(gridXYZ{grid: grid, xmesh: xmesh, ymesh: ymesh}, palette.Heat(255, 1))
	p.Add(hm)

	if err := p.Save(20*vg.Centimeter, 15*vg.Centimeter, path); err != nil {
		return fmt.Errorf("saving surface plot: %w", err)
	}
	return nil
}

// PlotRawScan writes a scatter plot of the raw samples over (Vx, Vy), with
// the measured power encoded as glyph color.
func PlotRawScan(rec *ScanRecord, path string) error {
	n := rec.Len()
	if n == 0 {
		return fmt.Errorf("empty scan record")
	}

	pts := make(plotter.XYs, n)
	minP, maxP := rec.PowerMW[0], rec.PowerMW[0]
	for i := 0; i < n; i++ {
		pts[i].X = rec.Vx[i]
		pts[i].Y = rec.Vy[i]
		if rec.PowerMW[i] < minP {
			minP = rec.PowerMW[i]
		}
		if rec.PowerMW[i] > maxP {
			maxP = rec.PowerMW[i]
		}
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}

	pal := palette.Heat(255, 1).Colors()
	span := maxP - minP
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		idx := 0
		if span > 0 {
			idx = int((rec.PowerMW[i] - minP) / span * float64(len(pal)-1))
		}
		return draw.GlyphStyle{
			Color:  pal[idx],
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
	}

	p := plot.New()
	p.Title.Text = "Raw Scan Data"
	p.X.Label.Text = "Applied X Voltage (V)"
	p.Y.Label.Text = "Applied Y Voltage (V)"
	p.Add(s)

	if err := p.Save(20*vg.Centimeter, 15*vg.Centimeter, path); err != nil {
		return fmt.Errorf("saving raw scan plot: %w", err)
	}
	return nil
}
