package pattern

import (
	"fmt"
	"math"

	"github.com/dusk-indust/sopflow/internal/process"
)

// Cluster is a group of similar steps.
type Cluster struct {
	ClusterID           int           `json:"cluster_id"`
	PatternType         string        `json:"pattern_type"`
	Members             []string      `json:"members"`
	StepIDs             []string      `json:"step_ids"`
	ManualShare         float64       `json:"manual_share"`
	InefficiencyScore   float64       `json:"inefficiency_score"`
	Inefficiency        process.Level `json:"inefficiency_level"`
	AutomationPotential process.Level `json:"automation_potential"`
}

// ClusterOptions tunes ClusterSteps.
type ClusterOptions struct {
	// K is the requested number of clusters.
	K int
	// MaxClusters caps the output; smaller clusters are merged away.
	MaxClusters int
	Seed        uint64
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.K <= 0 {
		o.K = 3
	}
	if o.MaxClusters <= 0 {
		o.MaxClusters = 5
	}
	return o
}

// ClusterSteps groups step texts with TF-IDF and seeded k-means. Fewer than
// two steps yield a single cluster together with ErrInsufficientData.
// Numeric failures are returned as errors, never panics.
func ClusterSteps(steps []process.StepRecord, opts ClusterOptions) (clusters []Cluster, err error) {
	defer func() {
		if r := recover(); r != nil {
			clusters, err = nil, fmt.Errorf("pattern: clustering failed: %v", r)
		}
	}()
	opts = opts.withDefaults()

	if len(steps) < 2 {
		labels := make([]int, len(steps))
		return buildClusters(steps, labels, 1), ErrInsufficientData
	}

	texts := make([]string, len(steps))
	distinct := make(map[string]bool)
	for i, s := range steps {
		texts[i] = s.Text
		distinct[s.Text] = true
	}

	points, err := vectorize(texts)
	if err != nil {
		return nil, err
	}

	k := min(opts.K, len(distinct))
	labels, centroids := kmeans(points, k, opts.Seed)
	labels, centroids = relabel(labels, centroids)

	for len(centroids) > opts.MaxClusters {
		labels, centroids = mergeSmallest(points, labels, centroids)
	}
	return buildClusters(steps, labels, len(centroids)), nil
}

// relabel renumbers labels densely in order of first appearance and drops
// centroids that no point uses.
func relabel(labels []int, centroids [][]float64) ([]int, [][]float64) {
	mapping := make(map[int]int)
	var next [][]float64
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
			next = append(next, centroids[l])
		}
		out[i] = id
	}
	return out, next
}

// mergeSmallest folds the smallest cluster (lowest id on ties) into the
// cluster whose centroid is nearest, then renumbers.
func mergeSmallest(points [][]float64, labels []int, centroids [][]float64) ([]int, [][]float64) {
	sizes := make([]int, len(centroids))
	for _, l := range labels {
		sizes[l]++
	}
	small := 0
	for c := 1; c < len(sizes); c++ {
		if sizes[c] < sizes[small] {
			small = c
		}
	}
	target, bestD := -1, math.Inf(1)
	for c := range centroids {
		if c == small {
			continue
		}
		if d := sqDist(centroids[small], centroids[c]); d < bestD {
			target, bestD = c, d
		}
	}
	for i, l := range labels {
		if l == small {
			labels[i] = target
		}
	}
	centroids[target] = centroidOf(points, labels, target)
	return relabel(labels, centroids)
}

func buildClusters(steps []process.StepRecord, labels []int, k int) []Cluster {
	clusters := make([]Cluster, k)
	for c := range clusters {
		clusters[c] = Cluster{ClusterID: c, Members: []string{}, StepIDs: []string{}}
	}
	for i, s := range steps {
		c := &clusters[labels[i]]
		c.Members = append(c.Members, s.Text)
		c.StepIDs = append(c.StepIDs, s.StepID)
	}
	total := len(steps)
	for c := range clusters {
		scoreCluster(&clusters[c], total)
	}
	return clusters
}

// scoreCluster fills the heuristic fields: larger clusters dominated by
// manual-process terms score higher on both inefficiency and automation
// potential.
func scoreCluster(c *Cluster, total int) {
	if len(c.Members) == 0 || total == 0 {
		c.PatternType = PatternGeneral
		c.Inefficiency = process.LevelLow
		c.AutomationPotential = process.LevelLow
		return
	}
	manual := 0
	for _, m := range c.Members {
		if process.IsManual(m) {
			manual++
		}
	}
	manualShare := float64(manual) / float64(len(c.Members))
	sizeShare := float64(len(c.Members)) / float64(total)

	c.ManualShare = round2(manualShare)
	c.InefficiencyScore = round2(0.6*manualShare + 0.4*sizeShare)
	switch {
	case c.InefficiencyScore >= 0.6:
		c.Inefficiency = process.LevelHigh
	case c.InefficiencyScore >= 0.3:
		c.Inefficiency = process.LevelMedium
	default:
		c.Inefficiency = process.LevelLow
	}
	switch {
	case manualShare >= 0.5 && len(c.Members) >= 2:
		c.AutomationPotential = process.LevelHigh
	case manual > 0 || sizeShare >= 0.5:
		c.AutomationPotential = process.LevelMedium
	default:
		c.AutomationPotential = process.LevelLow
	}
	c.PatternType = classifyPattern(c.Members)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
