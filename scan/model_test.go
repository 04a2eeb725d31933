package scan

import (
	"math"
	"testing"
)

func TestDipModel_Deterministic(t *testing.T) {
	p := ModelParams{Alpha: 0.1, A: 2.0, Beta: 0.1, B: 2.25, Delta: 0.0, D: 8, Const: 5.8}

	for _, vx := range []float64{-25, -10, 0, 5, 10} {
		for _, vy := range []float64{0, 4, 8, 16, 30} {
			first := DipModel(vx, vy, p)
			for i := 0; i < 5; i++ {
				if got := DipModel(vx, vy, p); got != first {
					t.Fatalf("DipModel(%g, %g) not deterministic: %v != %v", vx, vy, got, first)
				}
			}
		}
	}
}

func TestDipModel_AmplitudeClamp(t *testing.T) {
	p := ModelParams{Alpha: 0.1, A: 2.0, Beta: 0.1, B: 2.25, Delta: 0.0, D: 8, Const: 5.8}

	// Amp(Vx) = 0.1*Vx + 2 goes negative below Vx = -20; the clamp zeroes
	// the dip there, so the model must sit exactly on the baseline.
	for _, vx := range []float64{-20.01, -25, -100} {
		for _, vy := range []float64{0, 8, 15, 30} {
			if got := DipModel(vx, vy, p); got != p.Const {
				t.Errorf("DipModel(%g, %g) = %v, want baseline %v", vx, vy, got, p.Const)
			}
		}
	}

	// Just above the clamp boundary the dip must reappear at the center.
	if got := DipModel(-19, 8, p); got >= p.Const {
		t.Errorf("DipModel(-19, 8) = %v, expected below baseline %v", got, p.Const)
	}
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		samples int
		want    int
	}{
		{samples: 1000, want: 320}, // ceil(sqrt(1000)) = 32
		{samples: 100, want: 100},
		{samples: 101, want: 110},
		{samples: 1, want: 10},
	}

	for _, tt := range tests {
		if got := GridSize(tt.samples); got != tt.want {
			t.Errorf("GridSize(%d) = %d, want %d", tt.samples, got, tt.want)
		}
	}
}

func TestBounds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bounds  Bounds
		wantErr bool
	}{
		{name: "valid", bounds: Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}},
		{name: "x collapsed", bounds: Bounds{VxMin: 5, VxMax: 5, VyMin: 0, VyMax: 30}, wantErr: true},
		{name: "y inverted", bounds: Bounds{VxMin: -25, VxMax: 10, VyMin: 30, VyMax: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bounds.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluateGrid_MeshCoverage(t *testing.T) {
	p := ModelParams{Alpha: 0.1, A: 2.0, Beta: 0.1, B: 2.25, D: 8, Const: 5.8}
	b := Bounds{VxMin: -25, VxMax: 10, VyMin: 0, VyMax: 30}
	n := 50

	grid, xmesh, ymesh, err := EvaluateGrid(p, b, n)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}

	rows, cols := grid.Dims()
	if rows != n || cols != n {
		t.Fatalf("grid is %dx%d, want %dx%d", rows, cols, n, n)
	}

	const eps = 1e-9
	if got := xmesh.At(0, 0); math.Abs(got-b.VxMin) > eps {
		t.Errorf("x mesh starts at %v, want %v", got, b.VxMin)
	}
	if got := xmesh.At(0, n-1); math.Abs(got-(b.VxMax+1)) > eps {
		t.Errorf("x mesh ends at %v, want %v", got, b.VxMax+1)
	}
	if got := ymesh.At(0, 0); math.Abs(got-b.VyMin) > eps {
		t.Errorf("y mesh starts at %v, want %v", got, b.VyMin)
	}
	if got := ymesh.At(n-1, 0); math.Abs(got-(b.VyMax+1)) > eps {
		t.Errorf("y mesh ends at %v, want %v", got, b.VyMax+1)
	}

	// Uniform spacing along both axes.
	wantDx := (b.VxMax + 1 - b.VxMin) / float64(n-1)
	wantDy := (b.VyMax + 1 - b.VyMin) / float64(n-1)
	for i := 1; i < n; i++ {
		dx := xmesh.At(0, i) - xmesh.At(0, i-1)
		if math.Abs(dx-wantDx) > eps {
			t.Fatalf("x spacing at column %d is %v, want %v", i, dx, wantDx)
		}
		dy := ymesh.At(i, 0) - ymesh.At(i-1, 0)
		if math.Abs(dy-wantDy) > eps {
			t.Fatalf("y spacing at row %d is %v, want %v", i, dy, wantDy)
		}
	}

	// Grid values must equal the model evaluated at the mesh coordinates.
	for _, idx := range [][2]int{{0, 0}, {10, 20}, {n - 1, n - 1}} {
		r, c := idx[0], idx[1]
		want := DipModel(xmesh.At(r, c), ymesh.At(r, c), p)
		if got := grid.At(r, c); got != want {
			t.Errorf("grid(%d,%d) = %v, want %v", r, c, got, want)
		}
	}
}

func TestEvaluateGrid_InvalidInputs(t *testing.T) {
	p := ModelParams{Const: 5.8, B: 2.25, D: 8}

	if _, _, _, err := EvaluateGrid(p, Bounds{VxMin: 1, VxMax: 0, VyMin: 0, VyMax: 1}, 10); err == nil {
		t.Error("expected error for inverted bounds")
	}
	if _, _, _, err := EvaluateGrid(p, Bounds{VxMin: 0, VxMax: 1, VyMin: 0, VyMax: 1}, 1); err == nil {
		t.Error("expected error for grid size below 2")
	}
}

func TestCheckMeshShape(t *testing.T) {
	p := ModelParams{Alpha: 0.1, A: 2.0, Beta: 0.1, B: 2.25, D: 8, Const: 5.8}
	b := Bounds{VxMin: 0, VxMax: 5, VyMin: 0, VyMax: 5}

	grid, xmesh, ymesh, err := EvaluateGrid(p, b, 10)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	if err := checkMeshShape(grid, xmesh, ymesh); err != nil {
		t.Errorf("matching shapes rejected: %v", err)
	}

	_, smallX, smallY, err := EvaluateGrid(p, b, 5)
	if err != nil {
		t.Fatalf("EvaluateGrid: %v", err)
	}
	if err := checkMeshShape(grid, smallX, smallY); err == nil {
		t.Error("expected error for mismatched mesh shapes")
	}
}
