package pattern

import (
	"math"
	"math/rand/v2"
)

const (
	kmeansMaxIter   = 300
	kmeansTolerance = 1e-4
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// kmeans partitions points into k groups with k-means++ seeding followed
// by Lloyd iterations. It returns one label per point and the centroids.
func kmeans(points [][]float64, k int, seed uint64) ([]int, [][]float64) {
	n := len(points)
	if k > n {
		k = n
	}
	rng := newRand(seed)
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, n)

	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := assign(points, centroids, labels)
		next := recompute(points, labels, k, centroids)
		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if iter > 0 && !changed && shift <= kmeansTolerance*kmeansTolerance {
			break
		}
	}
	assign(points, centroids, labels)
	return labels, centroids
}

// seedCentroids implements k-means++: the first center is uniform, each
// further center is drawn with probability proportional to its squared
// distance from the nearest existing center.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	used := make([]bool, n)
	first := rng.IntN(n)
	used[first] = true
	centroids := [][]float64{clone(points[first])}

	dist := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				d = math.Min(d, sqDist(p, c))
			}
			dist[i] = d
			total += d
		}

		pick := -1
		if total > 0 {
			r := rng.Float64() * total
			for i, d := range dist {
				r -= d
				if r < 0 && d > 0 {
					pick = i
					break
				}
			}
			if pick < 0 {
				for i := n - 1; i >= 0; i-- {
					if dist[i] > 0 {
						pick = i
						break
					}
				}
			}
		}
		if pick < 0 {
			// Every point coincides with a center; fall back to the first
			// unused index.
			for i := range points {
				if !used[i] {
					pick = i
					break
				}
			}
		}
		used[pick] = true
		centroids = append(centroids, clone(points[pick]))
	}
	return centroids
}

// assign labels every point with its nearest centroid, breaking ties by the
// lower centroid index. It reports whether any label changed.
func assign(points, centroids [][]float64, labels []int) bool {
	changed := false
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c, cen := range centroids {
			if d := sqDist(p, cen); d < bestD {
				best, bestD = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// recompute returns the mean of each cluster. An empty cluster takes the
// point farthest from its current centroid.
func recompute(points [][]float64, labels []int, k int, prev [][]float64) [][]float64 {
	dim := len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		c := labels[i]
		counts[c]++
		for j, v := range p {
			sums[c][j] += v
		}
	}
	for c := range sums {
		if counts[c] == 0 {
			far, farD := 0, -1.0
			for i, p := range points {
				if d := sqDist(p, prev[labels[i]]); d > farD {
					far, farD = i, d
				}
			}
			sums[c] = clone(points[far])
			continue
		}
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
	}
	return sums
}

// centroidOf averages the points whose label equals c.
func centroidOf(points [][]float64, labels []int, c int) []float64 {
	out := make([]float64, len(points[0]))
	n := 0
	for i, p := range points {
		if labels[i] != c {
			continue
		}
		n++
		for j, v := range p {
			out[j] += v
		}
	}
	if n > 0 {
		for j := range out {
			out[j] /= float64(n)
		}
	}
	return out
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
