package scan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the analyzer configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Validate checks the required fields and parameter ranges.
func (c *Config) Validate() error {
	if c.Scan.Path == "" {
		return fmt.Errorf("scan.path is required")
	}
	if err := c.Scan.Bounds.Validate(); err != nil {
		return err
	}
	if c.Locator.Threshold < 0 || c.Locator.Threshold >= 1 {
		return fmt.Errorf("locator.threshold must be in [0, 1), got %g", c.Locator.Threshold)
	}
	if c.Locator.BandWidth < 0 {
		return fmt.Errorf("locator.bandWidth must not be negative, got %g", c.Locator.BandWidth)
	}
	if c.Locator.Threshold > 0 && c.Locator.BandWidth > c.Locator.Threshold {
		return fmt.Errorf("locator.bandWidth (%g) must not exceed locator.threshold (%g)",
			c.Locator.BandWidth, c.Locator.Threshold)
	}
	if c.Fit.MaxEvaluations < 0 {
		return fmt.Errorf("fit.maxEvaluations must not be negative, got %d", c.Fit.MaxEvaluations)
	}
	if c.Fit.TolRMS < 0 {
		return fmt.Errorf("fit.tolRMS must not be negative, got %g", c.Fit.TolRMS)
	}
	switch c.Render.Format {
	case "", "raster", "vector", "both":
	default:
		return fmt.Errorf("render.format must be raster, vector, or both, got %q", c.Render.Format)
	}
	switch c.Render.VectorFormat {
	case "", "svg", "png":
	default:
		return fmt.Errorf("render.vectorFormat must be svg or png, got %q", c.Render.VectorFormat)
	}
	return nil
}
