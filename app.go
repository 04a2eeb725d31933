package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jvietorisz/BeamAlignment/scan"
)

// AppOptions carries the parsed CLI flags.
type AppOptions struct {
	ConfigFile   string
	ScanFile     string
	Bounds       scan.Bounds
	Threshold    float64
	OutputDir    string
	RenderFormat string
	VectorFormat string
	Publish      bool
	Generate     bool
	VxStep       float64
	VyStep       float64
}

// App encapsulates the analyzer state and dependencies.
type App struct {
	Config *scan.Config

	ConfigFile   string
	ScanFile     string
	Bounds       scan.Bounds
	Threshold    float64
	OutputDir    string
	RenderFormat string
	VectorFormat string
	Publish      bool
	VxStep       float64
	VyStep       float64
}

// NewApp creates a new App instance.
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance.
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.ScanFile = opts.ScanFile
	a.Bounds = opts.Bounds
	a.Threshold = opts.Threshold
	a.OutputDir = opts.OutputDir
	a.RenderFormat = opts.RenderFormat
	a.VectorFormat = opts.VectorFormat
	a.Publish = opts.Publish
	a.VxStep = opts.VxStep
	a.VyStep = opts.VyStep
}

// LoadConfigFile loads the YAML config if one exists and folds CLI overrides
// on top. CLI flags win over the file.
func (a *App) LoadConfigFile() error {
	if a.ConfigFile == "" {
		return nil
	}
	if _, err := os.Stat(a.ConfigFile); os.IsNotExist(err) {
		return nil
	}

	config, err := scan.LoadConfig(a.ConfigFile)
	if err != nil {
		return err
	}
	a.Config = config

	if a.ScanFile == "" {
		a.ScanFile = config.Scan.Path
	}
	if a.Bounds == (scan.Bounds{}) {
		a.Bounds = config.Scan.Bounds
	}
	if a.Threshold == 0 {
		a.Threshold = config.Locator.Threshold
	}
	if a.OutputDir == "" {
		a.OutputDir = config.Render.OutputDir
	}
	if a.RenderFormat == "" {
		a.RenderFormat = config.Render.Format
	}
	if a.VectorFormat == "" {
		a.VectorFormat = config.Render.VectorFormat
	}
	return nil
}

// fitConfig assembles the fit settings from config-file values and defaults.
func (a *App) fitConfig() scan.FitConfig {
	cfg := scan.DefaultFitConfig()
	if a.Config != nil {
		if a.Config.Fit.MaxEvaluations > 0 {
			cfg.MaxEvaluations = a.Config.Fit.MaxEvaluations
		}
		if a.Config.Fit.TolRMS > 0 {
			cfg.TolRMS = a.Config.Fit.TolRMS
		}
		if a.Config.Fit.Seed != (scan.ModelParams{}) {
			cfg.Seed = a.Config.Fit.Seed
		}
	}
	return cfg
}

// locatorConfig assembles the locator settings from flags, config file and
// defaults.
func (a *App) locatorConfig() scan.LocatorConfig {
	cfg := scan.DefaultLocatorConfig()
	if a.Config != nil {
		if a.Config.Locator.Threshold > 0 {
			cfg.Threshold = a.Config.Locator.Threshold
		}
		if a.Config.Locator.BandWidth > 0 {
			cfg.BandWidth = a.Config.Locator.BandWidth
		}
		if a.Config.Locator.LeftmostCount > 0 {
			cfg.LeftmostCount = a.Config.Locator.LeftmostCount
		}
	}
	if a.Threshold > 0 {
		cfg.Threshold = a.Threshold
	}
	return cfg
}

// RunAnalyze executes the full pipeline: load the scan, fit the surface,
// locate the tip, and report the alignment voltages. Rendering and
// publishing happen only when requested.
func (a *App) RunAnalyze() error {
	if a.ScanFile == "" {
		return fmt.Errorf("no scan file given: use -scan or scan.path in the config")
	}
	if err := a.Bounds.Validate(); err != nil {
		return err
	}

	rec, err := scan.LoadScanFile(a.ScanFile)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d samples from %s", rec.Len(), a.ScanFile)

	fit, err := scan.FitScan(rec, a.Bounds, a.fitConfig())
	if err != nil {
		return err
	}
	log.Printf("Fit converged: residual RMS %.4g mW over %dx%d grid", fit.ResidualRMS, fit.GridSize, fit.GridSize)
	p := fit.Params
	log.Printf("Parameters: alpha=%.4g a=%.4g beta=%.4g b=%.4g delta=%.4g d=%.4g const=%.4g",
		p.Alpha, p.A, p.Beta, p.B, p.Delta, p.D, p.Const)

	result, err := scan.LocateAlignment(fit.Grid, fit.Params, a.Bounds, a.locatorConfig())
	if err != nil {
		return err
	}

	fmt.Printf("Tip alignment voltages: X = %.2f V, Y = %.2f V\n", result.TipXVolts, result.TipYVolts)
	fmt.Printf("Candidates: %d (grid index %.1f, %.1f)\n", len(result.Candidates), result.TipXIndex, result.TipYIndex)

	if a.RenderFormat != "" {
		if err := a.renderFigures(rec, fit, result); err != nil {
			return err
		}
	}

	if a.Publish {
		if err := a.publishResult(result, fit.ResidualRMS); err != nil {
			return err
		}
	}
	return nil
}

// renderFigures writes the requested figures to the output directory.
func (a *App) renderFigures(rec *scan.ScanRecord, fit *scan.FitResult, result *scan.AlignmentResult) error {
	outDir := a.OutputDir
	if outDir == "" {
		outDir = "."
	}

	format := a.RenderFormat
	if format == "" {
		format = "raster"
	}

	if format == "raster" || format == "both" {
		rawPath := filepath.Join(outDir, "raw-scan.png")
		if err := scan.PlotRawScan(rec, rawPath); err != nil {
			return err
		}
		log.Printf("Wrote %s", rawPath)

		surfacePath := filepath.Join(outDir, "fitted-surface.png")
		if err := scan.PlotFittedSurface(fit.Grid, fit.XMesh, fit.YMesh, surfacePath); err != nil {
			return err
		}
		log.Printf("Wrote %s", surfacePath)

		tipPath := filepath.Join(outDir, "tip-location.png")
		if err := scan.RenderTipLocation(fit.Grid, result, a.Bounds, tipPath); err != nil {
			return err
		}
		log.Printf("Wrote %s", tipPath)
	}

	if format == "vector" || format == "both" {
		vectorFormat := a.VectorFormat
		if vectorFormat == "" {
			vectorFormat = "svg"
		}

		vr := scan.NewVectorTipRenderer(fit.Grid, result, a.Bounds)
		path := filepath.Join(outDir, "tip-location."+vectorFormat)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		defer f.Close()

		if vectorFormat == "png" {
			err = vr.RenderToPNG(f)
		} else {
			err = vr.RenderToSVG(f)
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}
		log.Printf("Wrote %s", path)
	}

	return nil
}

// publishResult pushes the alignment result to the configured MQTT broker.
func (a *App) publishResult(result *scan.AlignmentResult, residualRMS float64) error {
	var mqttCfg scan.MQTTConfig
	if a.Config != nil {
		mqttCfg = a.Config.MQTT
	}

	client, err := scan.ConnectMQTT(mqttCfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	pub := scan.NewPublisher(client, mqttCfg.PublishPrefix)
	if err := pub.PublishAlignment(result, residualRMS, a.ScanFile); err != nil {
		return err
	}
	log.Printf("Published tip (%.2f, %.2f) V", result.TipXVolts, result.TipYVolts)
	return nil
}

// RunGenerate prints the boustrophedon raster voltage sequence for the
// configured bounds and steps, one CSV pair per line.
func (a *App) RunGenerate() error {
	if err := a.Bounds.Validate(); err != nil {
		return err
	}

	seq, err := scan.GenerateRaster(a.Bounds, a.VxStep, a.VyStep)
	if err != nil {
		return err
	}

	for _, pair := range seq {
		fmt.Printf("%g,%g\n", pair.Vx, pair.Vy)
	}
	return nil
}
