package orchestrator

import (
	"io"
	"log/slog"
	"time"

	"github.com/dusk-indust/sopflow/internal/benchmark"
	"github.com/dusk-indust/sopflow/internal/graph"
)

// Config holds runtime configuration for an analysis run.
type Config struct {
	// Sector is used when Run is called with an empty sector.
	Sector string

	// MaxSteps caps the flattened workflow; adjacent sub-steps are merged
	// until it holds.
	MaxSteps int

	// MaxPatternTexts caps how many steps the pattern engine analyzes.
	MaxPatternTexts int

	// Clusters is the requested k for k-means.
	Clusters int

	// MaxClusters caps the clustering output.
	MaxClusters int

	// Contamination is the expected anomaly fraction, in (0, 0.5].
	Contamination float64

	// Seed makes clustering and anomaly detection reproducible.
	Seed uint64

	// MaxBenchmarkSteps caps how many steps are benchmarked.
	MaxBenchmarkSteps int

	// BenchmarkTimeout bounds the benchmark collaborator fetch.
	BenchmarkTimeout time.Duration

	// Source supplies benchmark text. Nil uses the embedded sector texts.
	Source benchmark.Source

	// HourlyCost, FrequencyPerMonth and ImplementationCost fill the ROI
	// inputs that a document does not carry.
	HourlyCost         float64
	FrequencyPerMonth  float64
	ImplementationCost float64

	// MaxROIItems caps the ROI candidates, keeping the highest savings.
	MaxROIItems int

	// MaintenanceRate is the yearly upkeep as a fraction of implementation
	// cost, used by the multi-year projection.
	MaintenanceRate float64

	// QuickWinMonths is the payback threshold for the quick_win category.
	QuickWinMonths float64

	// GraphBackend selects the process graph store: "memory" or "kuzu".
	GraphBackend string

	// Diagram adds a Mermaid flowchart of the process graph to the report.
	Diagram bool

	// Logger receives stage lifecycle logs. Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the recognized options with their defaults.
func DefaultConfig() Config {
	return Config{
		MaxSteps:           50,
		MaxPatternTexts:    20,
		Clusters:           3,
		MaxClusters:        5,
		Contamination:      0.1,
		Seed:               42,
		MaxBenchmarkSteps:  15,
		BenchmarkTimeout:   30 * time.Second,
		HourlyCost:         18,
		FrequencyPerMonth:  20,
		ImplementationCost: 5000,
		MaxROIItems:        15,
		MaintenanceRate:    0.1,
		QuickWinMonths:     6,
		GraphBackend:       graph.BackendMemory,
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Config) source() benchmark.Source {
	if c.Source != nil {
		return c.Source
	}
	return benchmark.EmbeddedSource{}
}
