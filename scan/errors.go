package scan

import "errors"

// Failure taxonomy for the fitting and localization pipeline. Callers can
// branch on these with errors.Is; retrying with different seeds or thresholds
// is caller policy, the pipeline never retries on its own.
var (
	// ErrInsufficientData is returned when fewer than NumParams distinct
	// samples are supplied, leaving the fit under-determined.
	ErrInsufficientData = errors.New("insufficient data for surface fit")

	// ErrFitDivergence is returned when the optimizer exhausts its evaluation
	// budget without bringing the residual under the configured tolerance.
	// The unconverged parameters are never returned in its place.
	ErrFitDivergence = errors.New("surface fit did not converge")

	// ErrNoAlignmentSignal is returned when the threshold band matches no
	// grid cells or peak detection yields no candidates.
	ErrNoAlignmentSignal = errors.New("no alignment signal in fitted grid")
)
