package scan

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// syntheticRecord draws sampleCount random voltage pairs inside the bounds
// and evaluates the model there, adding Gaussian noise of the given sigma.
func syntheticRecord(p ModelParams, b Bounds, sampleCount int, noiseSigma float64, rng *rand.Rand) *ScanRecord {
	rec := &ScanRecord{
		Vx:      make([]float64, sampleCount),
		Vy:      make([]float64, sampleCount),
		PowerMW: make([]float64, sampleCount),
	}
	for i := 0; i < sampleCount; i++ {
		rec.Vx[i] = b.VxMin + rng.Float64()*(b.VxMax-b.VxMin)
		rec.Vy[i] = b.VyMin + rng.Float64()*(b.VyMax-b.VyMin)
		rec.PowerMW[i] = DipModel(rec.Vx[i], rec.Vy[i], p)
		if noiseSigma > 0 {
			rec.PowerMW[i] += rng.NormFloat64() * noiseSigma
		}
	}
	return rec
}

// relErr is the relative error of got against want, suitable only for
// non-zero want.
func relErr(got, want float64) float64 {
	return math.Abs(got-want) / math.Abs(want)
}

func TestFitScan_InsufficientData(t *testing.T) {
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}

	rec := &ScanRecord{
		Vx:      []float64{-5, -4, -3, -2, -1},
		Vy:      []float64{1, 2, 3, 4, 5},
		PowerMW: []float64{5.8, 5.8, 5.8, 5.8, 5.8},
	}
	_, err := FitScan(rec, b, DefaultFitConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("5 samples: got %v, want ErrInsufficientData", err)
	}

	// Many samples but too few distinct voltage pairs is just as
	// under-determined.
	repeated := &ScanRecord{}
	for i := 0; i < 20; i++ {
		repeated.Vx = append(repeated.Vx, float64(i%3))
		repeated.Vy = append(repeated.Vy, float64(i%2))
		repeated.PowerMW = append(repeated.PowerMW, 5.8)
	}
	_, err = FitScan(repeated, b, DefaultFitConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("repeated samples: got %v, want ErrInsufficientData", err)
	}
}

func TestFitScan_RecoversKnownParameters(t *testing.T) {
	truth := ModelParams{Alpha: 0.12, A: 2.3, Beta: 0.09, B: 2.1, Delta: 0, D: 7.5, Const: 6.0}
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}
	rng := rand.New(rand.NewSource(1234))

	rec := syntheticRecord(truth, b, 1000, 0, rng)

	fit, err := FitScan(rec, b, DefaultFitConfig())
	if err != nil {
		t.Fatalf("FitScan: %v", err)
	}

	// Delta is excluded: the model never applies it, so the optimizer has
	// no information about it and leaves it at the seed.
	checks := []struct {
		name      string
		got, want float64
	}{
		{"alpha", fit.Params.Alpha, truth.Alpha},
		{"a", fit.Params.A, truth.A},
		{"beta", fit.Params.Beta, truth.Beta},
		{"b", fit.Params.B, truth.B},
		{"d", fit.Params.D, truth.D},
		{"const", fit.Params.Const, truth.Const},
	}
	for _, c := range checks {
		if relErr(c.got, c.want) > 0.01 {
			t.Errorf("%s = %v, want %v within 1%%", c.name, c.got, c.want)
		}
	}

	if fit.ResidualRMS > 1e-3 {
		t.Errorf("noise-free fit left residual RMS %v", fit.ResidualRMS)
	}

	wantN := GridSize(rec.Len())
	rows, cols := fit.Grid.Dims()
	if rows != wantN || cols != wantN {
		t.Errorf("grid is %dx%d, want %dx%d", rows, cols, wantN, wantN)
	}
}

func TestFitScan_NoisyScan(t *testing.T) {
	truth := DefaultFitConfig().Seed
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}
	rng := rand.New(rand.NewSource(99))

	rec := syntheticRecord(truth, b, 1000, 0.02, rng)

	fit, err := FitScan(rec, b, DefaultFitConfig())
	if err != nil {
		t.Fatalf("FitScan: %v", err)
	}

	checks := []struct {
		name      string
		got, want float64
	}{
		{"alpha", fit.Params.Alpha, truth.Alpha},
		{"a", fit.Params.A, truth.A},
		{"beta", fit.Params.Beta, truth.Beta},
		{"b", fit.Params.B, truth.B},
		{"d", fit.Params.D, truth.D},
		{"const", fit.Params.Const, truth.Const},
	}
	for _, c := range checks {
		if relErr(c.got, c.want) > 0.05 {
			t.Errorf("%s = %v, want %v within 5%%", c.name, c.got, c.want)
		}
	}
}

func TestFitScan_Divergence(t *testing.T) {
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}
	rng := rand.New(rand.NewSource(7))

	// Pure noise with a tolerance no fit can reach. The seed values must
	// not come back as a silent result.
	rec := &ScanRecord{}
	for i := 0; i < 200; i++ {
		rec.Vx = append(rec.Vx, b.VxMin+rng.Float64()*(b.VxMax-b.VxMin))
		rec.Vy = append(rec.Vy, b.VyMin+rng.Float64()*(b.VyMax-b.VyMin))
		rec.PowerMW = append(rec.PowerMW, rng.Float64()*10)
	}

	cfg := DefaultFitConfig()
	cfg.TolRMS = 1e-9

	_, err := FitScan(rec, b, cfg)
	if !errors.Is(err, ErrFitDivergence) {
		t.Errorf("got %v, want ErrFitDivergence", err)
	}
}

func TestFitScan_ColumnMismatch(t *testing.T) {
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}
	rec := &ScanRecord{
		Vx:      make([]float64, 10),
		Vy:      make([]float64, 9),
		PowerMW: make([]float64, 10),
	}
	if _, err := FitScan(rec, b, DefaultFitConfig()); err == nil {
		t.Error("expected error for mismatched column lengths")
	}
}
