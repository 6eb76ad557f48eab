package vecmath

import (
	"sort"

	"github.com/viant/vec/search"
)

// SquaredL2 returns the squared Euclidean distance between a and b.
// Both vectors must have the same length.
func SquaredL2(a, b []float32) float64 {
	d := float64(search.Float32s(a).EuclideanDistance(b))
	return d * d
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Nearest returns the index of the centroid closest to v, or -1.
func Nearest(centroids [][]float32, v []float32) int {
	best, bestDist := -1, 0.0
	for i, c := range centroids {
		if d := SquaredL2(c, v); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// NearestN returns the indexes of the n centroids closest to v, nearest first.
func NearestN(centroids [][]float32, v []float32, n int) []int {
	type scored struct {
		idx  int
		dist float64
	}
	all := make([]scored, len(centroids))
	for i, c := range centroids {
		all[i] = scored{i, SquaredL2(c, v)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].dist < all[j].dist })

	if n > len(all) {
		n = len(all)
	}
	out := make([]int, n)
	for i := range out {
		out[i] = all[i].idx
	}
	return out
}
