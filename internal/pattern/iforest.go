package pattern

import (
	"math"
	"math/rand/v2"
	"sort"
)

const (
	forestTrees      = 100
	forestMaxSamples = 256
	eulerGamma       = 0.5772156649015329
)

type iNode struct {
	left, right *iNode
	split       float64
	size        int
}

// isolationForest scores one-dimensional samples: points that are isolated
// by few random splits are outliers.
type isolationForest struct {
	trees []*iNode
	psi   int
}

func fitForest(values []float64, trees int, rng *rand.Rand) *isolationForest {
	psi := min(forestMaxSamples, len(values))
	limit := int(math.Ceil(math.Log2(float64(max(psi, 2)))))
	f := &isolationForest{psi: psi, trees: make([]*iNode, trees)}
	sample := make([]float64, psi)
	for t := range f.trees {
		perm := rng.Perm(len(values))
		for i := 0; i < psi; i++ {
			sample[i] = values[perm[i]]
		}
		f.trees[t] = growTree(append([]float64(nil), sample...), 0, limit, rng)
	}
	return f
}

func growTree(xs []float64, depth, limit int, rng *rand.Rand) *iNode {
	if depth >= limit || len(xs) <= 1 {
		return &iNode{size: len(xs)}
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return &iNode{size: len(xs)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range xs {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &iNode{
		split: split,
		left:  growTree(left, depth+1, limit, rng),
		right: growTree(right, depth+1, limit, rng),
	}
}

func pathLength(n *iNode, v float64, depth int) float64 {
	if n.left == nil {
		return float64(depth) + averagePath(n.size)
	}
	if v < n.split {
		return pathLength(n.left, v, depth+1)
	}
	return pathLength(n.right, v, depth+1)
}

// averagePath is the expected path length of an unsuccessful search in a
// binary search tree of n points.
func averagePath(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+eulerGamma) - 2*(fn-1)/fn
	}
}

// score returns the anomaly score 2^(-E[h(v)]/c(psi)) in (0, 1]; values
// near 1 are outliers.
func (f *isolationForest) score(v float64) float64 {
	var total float64
	for _, t := range f.trees {
		total += pathLength(t, v, 0)
	}
	mean := total / float64(len(f.trees))
	c := averagePath(f.psi)
	if c == 0 {
		return 0.5
	}
	return math.Pow(2, -mean/c)
}

// percentile interpolates linearly between closest ranks.
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// outliers flags the points whose negated score falls strictly below the
// contamination percentile. It returns the flags and the raw scores.
func outliers(values []float64, contamination float64, seed uint64) ([]bool, []float64) {
	f := fitForest(values, forestTrees, newRand(seed))
	scores := make([]float64, len(values))
	neg := make([]float64, len(values))
	for i, v := range values {
		scores[i] = f.score(v)
		neg[i] = -scores[i]
	}
	threshold := percentile(neg, 100*contamination)
	flags := make([]bool, len(values))
	for i := range neg {
		flags[i] = neg[i] < threshold
	}
	return flags, scores
}
