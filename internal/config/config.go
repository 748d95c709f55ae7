// Package config loads project-level settings from sopflow.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/orchestrator"
)

// ProjectConfig holds project-level settings loaded from sopflow.yml. Zero
// values leave the corresponding pipeline default in place.
type ProjectConfig struct {
	Sector             string  `yaml:"sector,omitempty"`
	MaxSteps           int     `yaml:"maxSteps,omitempty"`
	MaxPatternTexts    int     `yaml:"maxPatternTexts,omitempty"`
	Clusters           int     `yaml:"clusters,omitempty"`
	MaxClusters        int     `yaml:"maxClusters,omitempty"`
	Contamination      float64 `yaml:"contamination,omitempty"`
	Seed               uint64  `yaml:"seed,omitempty"`
	MaxBenchmarkSteps  int     `yaml:"maxBenchmarkSteps,omitempty"`
	BenchmarkTimeout   string  `yaml:"benchmarkTimeout,omitempty"`
	BenchmarkURL       string  `yaml:"benchmarkURL,omitempty"`
	HourlyCost         float64 `yaml:"hourlyCost,omitempty"`
	FrequencyPerMonth  float64 `yaml:"frequencyPerMonth,omitempty"`
	ImplementationCost float64 `yaml:"implementationCost,omitempty"`
	MaxROIItems        int     `yaml:"maxRoiItems,omitempty"`
	MaintenanceRate    float64 `yaml:"maintenanceRate,omitempty"`
	QuickWinMonths     float64 `yaml:"quickWinMonths,omitempty"`
	GraphBackend       string  `yaml:"graphBackend,omitempty"`
	Diagram            bool    `yaml:"diagram,omitempty"`
	Verbose            bool    `yaml:"verbose,omitempty"`
}

// Load attempts to read sopflow.yml or sopflow.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"sopflow.yml", "sopflow.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ApplyTo overlays the set fields onto cfg. A benchmark URL installs an
// HTTP source that falls back to the embedded sector texts.
func (p *ProjectConfig) ApplyTo(cfg *orchestrator.Config) error {
	if p.Contamination < 0 || p.Contamination > 0.5 {
		return fmt.Errorf("config: contamination %v outside (0, 0.5]", p.Contamination)
	}
	if p.BenchmarkTimeout != "" {
		d, err := time.ParseDuration(p.BenchmarkTimeout)
		if err != nil {
			return fmt.Errorf("config: benchmarkTimeout: %w", err)
		}
		cfg.BenchmarkTimeout = d
	}

	setString(&cfg.Sector, p.Sector)
	setString(&cfg.GraphBackend, p.GraphBackend)
	setInt(&cfg.MaxSteps, p.MaxSteps)
	setInt(&cfg.MaxPatternTexts, p.MaxPatternTexts)
	setInt(&cfg.Clusters, p.Clusters)
	setInt(&cfg.MaxClusters, p.MaxClusters)
	setInt(&cfg.MaxBenchmarkSteps, p.MaxBenchmarkSteps)
	setInt(&cfg.MaxROIItems, p.MaxROIItems)
	setFloat(&cfg.Contamination, p.Contamination)
	setFloat(&cfg.HourlyCost, p.HourlyCost)
	setFloat(&cfg.FrequencyPerMonth, p.FrequencyPerMonth)
	setFloat(&cfg.ImplementationCost, p.ImplementationCost)
	setFloat(&cfg.MaintenanceRate, p.MaintenanceRate)
	setFloat(&cfg.QuickWinMonths, p.QuickWinMonths)
	if p.Seed != 0 {
		cfg.Seed = p.Seed
	}
	if p.Diagram {
		cfg.Diagram = true
	}
	if p.BenchmarkURL != "" {
		cfg.Source = benchmark.FallbackSource{
			Primary:   benchmark.NewHTTPSource(p.BenchmarkURL),
			Secondary: benchmark.EmbeddedSource{},
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
