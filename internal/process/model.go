// Package process turns a hierarchical procedure document into an ordered,
// flat workflow of StepRecords and derives the per-role and per-step views
// the rest of the analytics pipeline consumes.
package process

import (
	"strconv"
	"strings"
)

// Kind distinguishes main steps from their sub-steps.
type Kind string

const (
	KindMain Kind = "main"
	KindSub  Kind = "sub"
)

// Level is the shared low/medium/high ordinal used for complexity,
// automation potential, digital gap and priority.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Rank maps a level onto 0 (low), 1 (medium) and 2 (high).
// Unknown values rank as medium.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 0
	case LevelHigh:
		return 2
	default:
		return 1
	}
}

// AtLeast reports whether l ranks at or above other.
func (l Level) AtLeast(other Level) bool {
	return l.Rank() >= other.Rank()
}

// Valid reports whether l is one of the three recognized levels.
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}

// ParseLevel normalizes s into a Level. The second result is false when s
// is empty or unrecognized.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", false
	}
	return l, true
}

// MaxLevel returns whichever of a and b ranks higher.
func MaxLevel(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// LevelFromRank is the inverse of Level.Rank, clamping out-of-range input.
func LevelFromRank(r int) Level {
	switch {
	case r <= 0:
		return LevelLow
	case r >= 2:
		return LevelHigh
	default:
		return LevelMedium
	}
}

// UnassignedRole is used when neither a step nor any preceding main step
// names a role.
const UnassignedRole = "Unassigned"

// StepRecord is one flattened workflow step.
type StepRecord struct {
	Order           int     `json:"order"`
	StepID          string  `json:"step_id"`
	Text            string  `json:"text"`
	Role            string  `json:"role"`
	Kind            Kind    `json:"kind"`
	DurationMinutes float64 `json:"duration_minutes"`
	Complexity      Level   `json:"complexity"`
	// MergedCount is the number of source sub-steps folded into this record
	// by cap consolidation. Zero for records that were never merged.
	MergedCount int `json:"merged_count,omitempty"`
}

// Major returns the main-step number encoded in StepID.
func (r StepRecord) Major() int {
	major, _ := splitStepID(r.StepID)
	return major
}

// Minor returns the sub-step number encoded in StepID (0 for main steps).
func (r StepRecord) Minor() int {
	_, minor := splitStepID(r.StepID)
	return minor
}

func splitStepID(id string) (int, int) {
	head, tail, ok := strings.Cut(id, ".")
	if !ok {
		return 0, 0
	}
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, 0
	}
	minor, err := strconv.Atoi(tail)
	if err != nil {
		return major, 0
	}
	return major, minor
}

func stepID(major, minor int) string {
	return strconv.Itoa(major) + "." + strconv.Itoa(minor)
}

// RoleProfile summarizes the work assigned to a single role.
type RoleProfile struct {
	StepCount        int      `json:"step_count"`
	WorkloadFraction float64  `json:"workload_fraction"`
	TotalMinutes     float64  `json:"total_minutes"`
	Responsibilities []string `json:"responsibilities"`
}

// Summary is the headline information about the analyzed document.
type Summary struct {
	Title      string `json:"title"`
	DocNo      string `json:"doc_no,omitempty"`
	Version    string `json:"version,omitempty"`
	Date       string `json:"date,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
	MainSteps  int    `json:"main_steps"`
	TotalSteps int    `json:"total_steps"`
	Roles      int    `json:"roles"`
}
