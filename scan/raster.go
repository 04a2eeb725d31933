package scan

import (
	"fmt"
	"math"
)

// GenerateRaster returns the boustrophedon voltage sequence that drives a
// raster scan over the given bounds: Vx steps up one column at a time while
// Vy sweeps up on even columns and back down on odd ones, so the mirror
// never jumps across the full Vy range between columns.
func GenerateRaster(b Bounds, vxStep, vyStep float64) ([]VoltagePair, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if vxStep <= 0 || vyStep <= 0 {
		return nil, fmt.Errorf("voltage steps must be positive, got Vx step %g, Vy step %g", vxStep, vyStep)
	}

	nx := int(math.Floor((b.VxMax - b.VxMin) / vxStep))
	ny := int(math.Floor((b.VyMax - b.VyMin) / vyStep))

	// Vy index pattern for two consecutive columns: 0..ny then ny..0.
	template := make([]int, 0, 2*(ny+1))
	for i := 0; i <= ny; i++ {
		template = append(template, i)
	}
	for i := 0; i <= ny; i++ {
		template = append(template, ny-i)
	}

	seq := make([]VoltagePair, 0, (nx+1)*(ny+1))
	for i := 0; i < (nx+1)*(ny+1); i++ {
		seq = append(seq, VoltagePair{
			Vx: b.VxMin + vxStep*float64(i/(ny+1)),
			Vy: b.VyMin + vyStep*float64(template[i%len(template)]),
		})
	}
	return seq, nil
}
