package scan

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// LocatorConfig holds the threshold-detection settings for the alignment
// locator.
type LocatorConfig struct {
	// Threshold is the relative offset H below the baseline: the band starts
	// at Const*(1-H).
	Threshold float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// BandWidth is the relative width of the band: it ends at
	// Const*(1-(H-BandWidth)). The band captures cells on the shoulder of
	// the dip, neither at full baseline nor at the deepest point.
	BandWidth float64 `yaml:"bandWidth,omitempty" json:"bandWidth,omitempty"`

	// LeftmostCount is how many of the lowest-Vx candidates are averaged
	// into the tip estimate.
	LeftmostCount int `yaml:"leftmostCount,omitempty" json:"leftmostCount,omitempty"`
}

// DefaultLocatorConfig returns the calibrated locator defaults: a 5% band
// 1% wide, averaged over the 5 leftmost candidates.
func DefaultLocatorConfig() LocatorConfig {
	return LocatorConfig{
		Threshold:     0.05,
		BandWidth:     0.01,
		LeftmostCount: 5,
	}
}

// LocateAlignment scans the fitted grid for cells whose value sits in the
// threshold band around the fitted baseline, thins them to local maxima with
// a minimum separation of one cell, and averages the leftmost candidates
// into a single tip estimate. The tip is assumed to lie at the lowest-Vx
// edge of the thresholded shoulder region; averaging a few leftmost
// candidates suppresses detection noise.
func LocateAlignment(grid *mat.Dense, params ModelParams, bounds Bounds, cfg LocatorConfig) (*AlignmentResult, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultLocatorConfig().Threshold
	}
	if cfg.BandWidth <= 0 {
		cfg.BandWidth = DefaultLocatorConfig().BandWidth
	}
	if cfg.LeftmostCount <= 0 {
		cfg.LeftmostCount = DefaultLocatorConfig().LeftmostCount
	}

	rows, cols := grid.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("empty fitted grid (%dx%d)", rows, cols)
	}

	bottom := params.Const - cfg.Threshold*params.Const
	top := params.Const - (cfg.Threshold-cfg.BandWidth)*params.Const

	mask := make([][]bool, rows)
	matched := false
	for r := 0; r < rows; r++ {
		mask[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			v := grid.At(r, c)
			if v >= bottom && v <= top {
				mask[r][c] = true
				matched = true
			}
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no grid cells in band [%.4g, %.4g]", ErrNoAlignmentSignal, bottom, top)
	}

	candidates := localMaxima(mask, 1)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: peak detection returned no candidates", ErrNoAlignmentSignal)
	}

	// Average the leftmost candidates (lowest Vx, i.e. lowest column index).
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Col < candidates[j].Col
	})
	take := cfg.LeftmostCount
	if take > len(candidates) {
		take = len(candidates)
	}
	var sumRow, sumCol float64
	for _, c := range candidates[:take] {
		sumRow += float64(c.Row)
		sumCol += float64(c.Col)
	}
	tipCol := sumCol / float64(take)
	tipRow := sumRow / float64(take)

	return &AlignmentResult{
		TipXIndex:  tipCol,
		TipYIndex:  tipRow,
		TipXVolts:  round2(bounds.VxMin + tipCol*(bounds.VxMax-bounds.VxMin)/float64(cols)),
		TipYVolts:  round2(bounds.VyMin + tipRow*(bounds.VyMax-bounds.VyMin)/float64(rows)),
		Candidates: candidates,
	}, nil
}

// localMaxima thins a binary mask to peak cells with the given minimum
// Chebyshev separation. Cells are visited in row-major order; accepting a
// cell suppresses every masked cell within the separation window around it,
// leaving roughly one candidate per connected blob of that size.
func localMaxima(mask [][]bool, minSeparation int) []GridIndex {
	rows := len(mask)
	if rows == 0 {
		return nil
	}
	cols := len(mask[0])

	suppressed := make([][]bool, rows)
	for r := range suppressed {
		suppressed[r] = make([]bool, cols)
	}

	var peaks []GridIndex
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !mask[r][c] || suppressed[r][c] {
				continue
			}
			peaks = append(peaks, GridIndex{Row: r, Col: c})
			for dr := -minSeparation; dr <= minSeparation; dr++ {
				for dc := -minSeparation; dc <= minSeparation; dc++ {
					rr, cc := r+dr, c+dc
					if rr >= 0 && rr < rows && cc >= 0 && cc < cols {
						suppressed[rr][cc] = true
					}
				}
			}
		}
	}
	return peaks
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
