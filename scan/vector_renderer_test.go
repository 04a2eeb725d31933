package scan

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestVectorTipRenderer_SVG(t *testing.T) {
	grid, result, b := overlayFixture()
	r := NewVectorTipRenderer(grid, result, b)

	var buf bytes.Buffer
	if err := r.RenderToSVG(&buf); err != nil {
		t.Fatalf("RenderToSVG: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<svg") {
		t.Error("output does not look like SVG")
	}
	if !strings.Contains(out, "path") {
		t.Error("output has no path elements")
	}
}

func TestVectorTipRenderer_PNG(t *testing.T) {
	grid, result, b := overlayFixture()
	r := NewVectorTipRenderer(grid, result, b)

	var buf bytes.Buffer
	if err := r.RenderToPNG(&buf); err != nil {
		t.Fatalf("RenderToPNG: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Error("decoded image is empty")
	}
}

func TestVectorTipRenderer_CellToVolts(t *testing.T) {
	grid, result, b := overlayFixture()
	r := NewVectorTipRenderer(grid, result, b)

	// Grid is 20x20 over the 0..10 window, so each cell is half a volt and
	// the conversion must match what the locator reports.
	vx, vy := r.cellToVolts(10, 4)
	if vx != 2 || vy != 5 {
		t.Errorf("cellToVolts(10, 4) = (%v, %v), want (2, 5)", vx, vy)
	}

	vx, vy = r.cellToVolts(0, 0)
	if vx != b.VxMin || vy != b.VyMin {
		t.Errorf("cellToVolts(0, 0) = (%v, %v), want bounds origin", vx, vy)
	}
}
