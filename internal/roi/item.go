// Package roi converts automation candidates into savings, payback and
// return-on-investment figures.
package roi

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoCandidates is returned when there is nothing to evaluate.
var ErrNoCandidates = errors.New("roi: no automation candidates")

// Percent is a percentage in 0..100. It unmarshals from a number or from a
// string such as "90%".
type Percent float64

// Fraction returns p as a fraction of 1.
func (p Percent) Fraction() float64 { return float64(p) / 100 }

func parsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("roi: invalid percentage %q", s)
	}
	return Percent(v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = Percent(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("roi: percentage must be a number or string: %w", err)
	}
	v, err := parsePercent(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Percent) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("roi: line %d: percentage must be a scalar", value.Line)
	}
	v, err := parsePercent(value.Value)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Item is one ROI candidate.
type Item struct {
	Step                string  `json:"step" yaml:"step"`
	StepID              string  `json:"step_id,omitempty" yaml:"step_id,omitempty"`
	TimePerTaskMinutes  float64 `json:"time_per_task_minutes" yaml:"time_per_task_minutes"`
	FrequencyPerMonth   float64 `json:"frequency_per_month" yaml:"frequency_per_month"`
	HourlyCost          float64 `json:"hourly_cost" yaml:"hourly_cost"`
	ImplementationCost  float64 `json:"implementation_cost" yaml:"implementation_cost"`
	ComplexityFactor    float64 `json:"complexity_factor,omitempty" yaml:"complexity_factor,omitempty"`
	AutomationPotential string  `json:"automation_potential" yaml:"automation_potential"`
	// AutomationOverride replaces the ordinal multiplier when set.
	AutomationOverride *float64           `json:"automation_override,omitempty" yaml:"automation_override,omitempty"`
	ExpectedBenefits   map[string]Percent `json:"expected_benefits,omitempty" yaml:"expected_benefits,omitempty"`
}

// LoadItems reads a list of items from a JSON or YAML file, chosen by
// extension. A top-level object with an "items" key is also accepted.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roi: read %s: %w", path, err)
	}

	var wrapped struct {
		Items []Item `json:"items" yaml:"items"`
	}
	var items []Item
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &items); err != nil {
			if werr := yaml.Unmarshal(data, &wrapped); werr != nil {
				return nil, fmt.Errorf("roi: parse %s: %w", path, err)
			}
			items = wrapped.Items
		}
	default:
		if err := json.Unmarshal(data, &items); err != nil {
			if werr := json.Unmarshal(data, &wrapped); werr != nil {
				return nil, fmt.Errorf("roi: parse %s: %w", path, err)
			}
			items = wrapped.Items
		}
	}
	return items, nil
}
