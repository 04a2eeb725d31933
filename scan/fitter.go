package scan

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// FitConfig holds the optimizer settings for the surface fit.
type FitConfig struct {
	// Seed is the initial parameter guess. The default is calibrated for the
	// expected physical scale of the steering-mirror scans, not derived from
	// the data.
	Seed ModelParams `yaml:"seed,omitempty" json:"seed,omitempty"`

	// MaxEvaluations caps the optimizer iteration budget. The amplitude
	// clamp can create flat gradient regions, so the budget is generous.
	MaxEvaluations int `yaml:"maxEvaluations,omitempty" json:"maxEvaluations,omitempty"`

	// TolRMS is the residual RMS (mW) the fit must reach to count as
	// converged.
	TolRMS float64 `yaml:"tolRMS,omitempty" json:"tolRMS,omitempty"`
}

// DefaultFitConfig returns the calibrated defaults for the surface fit.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		Seed:           ModelParams{Alpha: 0.1, A: 2.0, Beta: 0.1, B: 2.25, Delta: 0.0, D: 8, Const: 5.8},
		MaxEvaluations: 100000,
		TolRMS:         0.5,
	}
}

// FitResult bundles the fitted parameters with the dense model evaluation.
// Grid rows track Vy, columns track Vx; XMesh and YMesh carry the voltage
// coordinate of every cell. None of it is mutated after the fit.
type FitResult struct {
	Params      ModelParams
	Grid        *mat.Dense
	XMesh       *mat.Dense
	YMesh       *mat.Dense
	ResidualRMS float64
	GridSize    int
}

// FitScan fits the dip model to the scan record by nonlinear least squares
// and evaluates the fitted model over the dense grid spanning the scan
// bounds. The model is non-differentiable at the amplitude clamp boundary,
// so the Jacobian is taken numerically.
func FitScan(rec *ScanRecord, bounds Bounds, cfg FitConfig) (*FitResult, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxEvaluations <= 0 {
		cfg.MaxEvaluations = DefaultFitConfig().MaxEvaluations
	}
	if cfg.TolRMS <= 0 {
		cfg.TolRMS = DefaultFitConfig().TolRMS
	}

	size := rec.Len()
	if len(rec.Vy) != size || len(rec.PowerMW) != size {
		return nil, fmt.Errorf("scan record columns disagree: %d Vx, %d Vy, %d power",
			len(rec.Vx), len(rec.Vy), len(rec.PowerMW))
	}
	if distinctSamples(rec) < NumParams {
		return nil, fmt.Errorf("%w: need at least %d distinct samples, got %d",
			ErrInsufficientData, NumParams, distinctSamples(rec))
	}

	residuals := func(dst, guess []float64) {
		p := paramsFromSlice(guess)
		for i := 0; i < size; i++ {
			dst[i] = DipModel(rec.Vx[i], rec.Vy[i], p) - rec.PowerMW[i]
		}
	}

	jac := lm.NumJac{Func: residuals}
	problem := lm.LMProblem{
		Dim:        NumParams,
		Size:       size,
		Func:       residuals,
		Jac:        jac.Jac,
		InitParams: cfg.Seed.slice(),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	solved, err := lm.LM(problem, &lm.Settings{Iterations: cfg.MaxEvaluations, ObjectiveTol: 1e-16})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFitDivergence, err)
	}

	params := paramsFromSlice(solved.X)
	rms := residualRMS(rec, params)
	if rms > cfg.TolRMS {
		return nil, fmt.Errorf("%w: residual RMS %.4g mW above tolerance %.4g mW after %d evaluations",
			ErrFitDivergence, rms, cfg.TolRMS, cfg.MaxEvaluations)
	}

	n := GridSize(size)
	grid, xmesh, ymesh, err := EvaluateGrid(params, bounds, n)
	if err != nil {
		return nil, err
	}

	return &FitResult{
		Params:      params,
		Grid:        grid,
		XMesh:       xmesh,
		YMesh:       ymesh,
		ResidualRMS: rms,
		GridSize:    n,
	}, nil
}

// distinctSamples counts distinct (Vx, Vy) pairs in the record.
func distinctSamples(rec *ScanRecord) int {
	seen := make(map[[2]float64]struct{}, rec.Len())
	for i := range rec.Vx {
		seen[[2]float64{rec.Vx[i], rec.Vy[i]}] = struct{}{}
	}
	return len(seen)
}

// residualRMS computes the root-mean-square residual of the model against
// the measured powers.
func residualRMS(rec *ScanRecord, p ModelParams) float64 {
	n := rec.Len()
	if n == 0 {
		return 0
	}
	var ss float64
	for i := 0; i < n; i++ {
		r := DipModel(rec.Vx[i], rec.Vy[i], p) - rec.PowerMW[i]
		ss += r * r
	}
	return math.Sqrt(ss / float64(n))
}
