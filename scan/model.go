package scan

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NumParams is the size of the dip-model parameter tuple.
const NumParams = 7

// DipModel evaluates the intensity model at a single voltage pair: a Gaussian
// occlusion dip subtracted from the baseline Const. Amplitude and width both
// vary linearly with Vx; the amplitude is clamped non-negative, which makes
// the model piecewise in the parameters.
//
// The center drift term D(Vx) = Delta*Vx + D exists in the parameter tuple
// but the Gaussian is centered on the fixed offset D alone. The locator
// threshold was calibrated against exactly this behavior, so it stays.
func DipModel(vx, vy float64, p ModelParams) float64 {
	amp := p.Alpha*vx + p.A
	if amp < 0 {
		amp = 0
	}
	sigma := p.Beta*vx + p.B
	dy := vy - p.D
	return p.Const - math.Abs(amp*math.Exp(-dy*dy/(2*sigma*sigma)))
}

// GridSize returns the per-axis resolution of the dense evaluation grid for a
// scan of sampleCount points: 10 cells per sqrt(sample) rounded up.
func GridSize(sampleCount int) int {
	return 10 * int(math.Ceil(math.Sqrt(float64(sampleCount))))
}

// Validate checks that the bounds describe a non-empty voltage window.
func (b Bounds) Validate() error {
	if b.VxMax <= b.VxMin {
		return fmt.Errorf("invalid bounds: VxMax (%g) must exceed VxMin (%g)", b.VxMax, b.VxMin)
	}
	if b.VyMax <= b.VyMin {
		return fmt.Errorf("invalid bounds: VyMax (%g) must exceed VyMin (%g)", b.VyMax, b.VyMin)
	}
	return nil
}

// EvaluateGrid evaluates the model over an n×n mesh spanning
// [VxMin, VxMax+1] × [VyMin, VyMax+1], both ends inclusive, evenly spaced.
// Rows track Vy and columns track Vx. The returned xmesh and ymesh hold the
// voltage coordinate of every cell, matching the grid cell for cell.
func EvaluateGrid(p ModelParams, b Bounds, n int) (grid, xmesh, ymesh *mat.Dense, err error) {
	if err := b.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if n < 2 {
		return nil, nil, nil, fmt.Errorf("grid size must be at least 2, got %d", n)
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	floats.Span(xs, b.VxMin, b.VxMax+1)
	floats.Span(ys, b.VyMin, b.VyMax+1)

	grid = mat.NewDense(n, n, nil)
	xmesh = mat.NewDense(n, n, nil)
	ymesh = mat.NewDense(n, n, nil)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			xmesh.Set(row, col, xs[col])
			ymesh.Set(row, col, ys[row])
			grid.Set(row, col, DipModel(xs[col], ys[row], p))
		}
	}
	return grid, xmesh, ymesh, nil
}

// checkMeshShape verifies that coordinate meshes match the grid dimensions.
// A mismatch means the caller is mixing grids from different fits, so fail
// fast instead of propagating corrupted indices.
func checkMeshShape(grid, xmesh, ymesh *mat.Dense) error {
	gr, gc := grid.Dims()
	xr, xc := xmesh.Dims()
	yr, yc := ymesh.Dims()
	if gr != xr || gc != xc || gr != yr || gc != yc {
		return fmt.Errorf("mesh shape mismatch: grid %dx%d, xmesh %dx%d, ymesh %dx%d",
			gr, gc, xr, xc, yr, yc)
	}
	return nil
}
