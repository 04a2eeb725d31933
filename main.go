package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jvietorisz/BeamAlignment/scan"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile   = flag.String("config", "config.yaml", "Path to configuration file")
	scanFile     = flag.String("scan", "", "Path to the raster-scan .lvm file to analyze")
	vxMin        = flag.Float64("vx-min", 0, "Minimum X mirror voltage of the scan (V)")
	vxMax        = flag.Float64("vx-max", 0, "Maximum X mirror voltage of the scan (V)")
	vyMin        = flag.Float64("vy-min", 0, "Minimum Y mirror voltage of the scan (V)")
	vyMax        = flag.Float64("vy-max", 0, "Maximum Y mirror voltage of the scan (V)")
	threshold    = flag.Float64("threshold", 0, "Relative threshold fraction for tip detection (default 0.05)")
	outputDir    = flag.String("output-dir", "", "Directory for rendered figures (default current directory)")
	renderFormat = flag.String("format", "", "Figure output: raster, vector, or both (empty disables rendering)")
	vectorFormat = flag.String("vector-format", "", "Vector output format: svg or png (default svg)")
	publish      = flag.Bool("publish", false, "Publish the alignment result to the configured MQTT broker")
	generate     = flag.Bool("generate", false, "Print the raster voltage sequence for the given bounds and exit")
	vxStep       = flag.Float64("vx-step", 2, "X voltage step for -generate (V)")
	vyStep       = flag.Float64("vy-step", 2, "Y voltage step for -generate (V)")
)

func main() {
	flag.Parse()
	fmt.Printf("beamalign version: %s\n", Version)

	opts := AppOptions{
		ConfigFile: *configFile,
		ScanFile:   *scanFile,
		Bounds: scan.Bounds{
			VxMin: *vxMin,
			VxMax: *vxMax,
			VyMin: *vyMin,
			VyMax: *vyMax,
		},
		Threshold:    *threshold,
		OutputDir:    *outputDir,
		RenderFormat: *renderFormat,
		VectorFormat: *vectorFormat,
		Publish:      *publish,
		Generate:     *generate,
		VxStep:       *vxStep,
		VyStep:       *vyStep,
	}

	app := NewApp()
	app.ApplyOptions(opts)

	if err := app.LoadConfigFile(); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if opts.Generate {
		if err := app.RunGenerate(); err != nil {
			log.Fatalf("Error generating raster sequence: %v", err)
		}
		return
	}

	if err := app.RunAnalyze(); err != nil {
		log.Fatalf("Error analyzing scan: %v", err)
	}
}
