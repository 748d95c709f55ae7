package process

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the structured procedure produced by the ingestion
// collaborator.
type Document struct {
	Title        string       `json:"title" yaml:"title"`
	DocumentInfo DocumentInfo `json:"document_info" yaml:"document_info"`
	Sections     Sections     `json:"sections" yaml:"sections"`
}

// DocumentInfo carries the document control fields.
type DocumentInfo struct {
	DocNo   string `json:"doc_no" yaml:"doc_no"`
	Version string `json:"version" yaml:"version"`
	Date    string `json:"date" yaml:"date"`
}

// Sections holds the body of the procedure.
type Sections struct {
	Purpose        string         `json:"purpose" yaml:"purpose"`
	Scope          string         `json:"scope" yaml:"scope"`
	RiskAssessment RiskAssessment `json:"risk_assessment" yaml:"risk_assessment"`
	Procedure      []MainStep     `json:"procedure" yaml:"procedure"`
}

// RiskAssessment pairs risks with mitigations by position.
type RiskAssessment struct {
	Risks       []string `json:"risks" yaml:"risks"`
	Mitigations []string `json:"mitigations" yaml:"mitigations"`
}

// MainStep is a top-level procedure step.
type MainStep struct {
	StepNumber      int       `json:"step_number" yaml:"step_number"`
	Title           string    `json:"title" yaml:"title"`
	Role            string    `json:"role" yaml:"role"`
	SubSteps        []SubStep `json:"sub_steps" yaml:"sub_steps"`
	DurationMinutes *float64  `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Complexity      string    `json:"complexity,omitempty" yaml:"complexity,omitempty"`
}

// SubStep is one entry of a main step's sub_steps list. The collaborator
// sends either a bare string or an object; both decode into SubStep.
type SubStep struct {
	Text            string   `json:"text" yaml:"text"`
	Role            string   `json:"role,omitempty" yaml:"role,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty" yaml:"duration_minutes,omitempty"`
	Complexity      string   `json:"complexity,omitempty" yaml:"complexity,omitempty"`
}

// subStepFields avoids recursing into the custom unmarshalers.
type subStepFields SubStep

// UnmarshalJSON accepts a JSON string or object.
func (s *SubStep) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = SubStep{Text: text}
		return nil
	}
	var f subStepFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("process: sub-step: %w", err)
	}
	*s = SubStep(f)
	return nil
}

// UnmarshalYAML accepts a YAML scalar or mapping.
func (s *SubStep) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = SubStep{Text: value.Value}
		return nil
	}
	var f subStepFields
	if err := value.Decode(&f); err != nil {
		return fmt.Errorf("process: sub-step: %w", err)
	}
	*s = SubStep(f)
	return nil
}

// Format selects the decoder used by ParseDocument.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseDocument decodes a collaborator document and checks its shape.
func ParseDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrStructure, err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrStructure, err)
		}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadDocument reads a document from disk, choosing the decoder by file
// extension (.yml and .yaml decode as YAML, anything else as JSON).
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("process: read document %s: %w", path, err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		format = FormatYAML
	}
	return ParseDocument(data, format)
}

// Validate checks the structural requirements every later stage relies on.
// Blank titles and sub-steps are not structural: Flatten repairs or drops
// them and says so in Result.Warnings.
func (d *Document) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil document", ErrStructure)
	}
	if len(d.Sections.Procedure) == 0 {
		return fmt.Errorf("%w: procedure has no main steps", ErrStructure)
	}
	return nil
}

// Summarize builds the document summary for a flattened result.
func (d *Document) Summarize(res *Result) Summary {
	s := Summary{
		Title:     d.Title,
		DocNo:     d.DocumentInfo.DocNo,
		Version:   d.DocumentInfo.Version,
		Date:      d.DocumentInfo.Date,
		Purpose:   d.Sections.Purpose,
		MainSteps: len(d.Sections.Procedure),
	}
	if res != nil {
		s.TotalSteps = len(res.Steps)
		s.Roles = len(res.Roles)
	}
	return s
}
