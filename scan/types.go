package scan

// ScanRecord is the parsed, unit-normalized measurement table for one raster
// scan. Columns are stored as parallel slices sharing a common index: Vx and
// Vy are the independent mirror voltages, PowerMW the measured optical power.
// A record is built once by the loader and never mutated afterwards.
type ScanRecord struct {
	Index   []int     // unifying sample index from the scan file
	Vx      []float64 // applied X mirror voltage (V)
	Vy      []float64 // applied Y mirror voltage (V)
	Time    []float64 // elapsed time, zeroed at the first sample
	PowerMW []float64 // measured power (mW)
	XPos    []float64 // sensor X position (arbitrary units)
	YPos    []float64 // sensor Y position (arbitrary units)
}

// Len returns the number of samples in the record.
func (r *ScanRecord) Len() int {
	return len(r.Vx)
}

// Bounds describes the voltage extrema set for a scan.
type Bounds struct {
	VxMin float64 `yaml:"vxMin" json:"vxMin"`
	VxMax float64 `yaml:"vxMax" json:"vxMax"`
	VyMin float64 `yaml:"vyMin" json:"vyMin"`
	VyMax float64 `yaml:"vyMax" json:"vyMax"`
}

// ModelParams is the 7-parameter tuple of the dip model: an amplitude term
// Amp(Vx) = Alpha*Vx + A, a width term sigma(Vx) = Beta*Vx + B, a center
// drift term D(Vx) = Delta*Vx + D, and the baseline Const.
type ModelParams struct {
	Alpha float64 `yaml:"alpha" json:"alpha"`
	A     float64 `yaml:"a" json:"a"`
	Beta  float64 `yaml:"beta" json:"beta"`
	B     float64 `yaml:"b" json:"b"`
	Delta float64 `yaml:"delta" json:"delta"`
	D     float64 `yaml:"d" json:"d"`
	Const float64 `yaml:"const" json:"const"`
}

// slice returns the parameters in optimizer order.
func (p ModelParams) slice() []float64 {
	return []float64{p.Alpha, p.A, p.Beta, p.B, p.Delta, p.D, p.Const}
}

// paramsFromSlice rebuilds a ModelParams from optimizer order.
func paramsFromSlice(v []float64) ModelParams {
	return ModelParams{
		Alpha: v[0], A: v[1],
		Beta: v[2], B: v[3],
		Delta: v[4], D: v[5],
		Const: v[6],
	}
}

// GridIndex addresses one cell of the fitted grid. Row tracks Vy, Col
// tracks Vx.
type GridIndex struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// AlignmentResult is the terminal output of the pipeline: the tip estimate in
// fractional grid indices and in physical voltages, plus every threshold-band
// candidate that survived peak thinning (kept for the overlay renders).
type AlignmentResult struct {
	TipXIndex  float64     `json:"tipXIndex"`
	TipYIndex  float64     `json:"tipYIndex"`
	TipXVolts  float64     `json:"tipXVolts"`
	TipYVolts  float64     `json:"tipYVolts"`
	Candidates []GridIndex `json:"candidates"`
}

// VoltagePair is one step of a raster voltage sequence.
type VoltagePair struct {
	Vx float64 `json:"vx"`
	Vy float64 `json:"vy"`
}

// ScanConfig names the scan file and the voltage extrema it was taken over.
type ScanConfig struct {
	Path   string `yaml:"path" json:"path"`
	Bounds Bounds `yaml:"bounds" json:"bounds"`
}

// RenderConfig controls figure output.
type RenderConfig struct {
	OutputDir    string `yaml:"outputDir,omitempty" json:"outputDir,omitempty"`       // default "."
	Format       string `yaml:"format,omitempty" json:"format,omitempty"`             // "raster", "vector", or "both" (default "raster")
	VectorFormat string `yaml:"vectorFormat,omitempty" json:"vectorFormat,omitempty"` // "svg" or "png" (default "svg")
}

// MQTTConfig holds broker connection settings for result publishing.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config is the full analyzer configuration file.
type Config struct {
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	Fit     FitConfig     `yaml:"fit,omitempty" json:"fit,omitempty"`
	Locator LocatorConfig `yaml:"locator,omitempty" json:"locator,omitempty"`
	Render  RenderConfig  `yaml:"render,omitempty" json:"render,omitempty"`
	MQTT    MQTTConfig    `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
}
