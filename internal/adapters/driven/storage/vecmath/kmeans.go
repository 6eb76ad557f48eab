package vecmath

import (
	"errors"
	"math/rand/v2"
)

// DefaultIterations bounds Lloyd iterations during training.
const DefaultIterations = 25

// ErrTooFewVectors is returned when training has fewer samples than lists.
var ErrTooFewVectors = errors.New("vecmath: fewer training vectors than lists")

// TrainKMeans clusters vectors into k centroids. Initial centroids are a
// seeded sample of distinct inputs, so equal inputs and seed give equal
// output. A cluster that empties keeps its previous centroid.
func TrainKMeans(vectors [][]float32, k, iterations int, seed uint64) ([][]float32, error) {
	if k <= 0 || len(vectors) < k {
		return nil, ErrTooFewVectors
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(len(vectors))

	dim := len(vectors[0])
	centroids := make([][]float32, k)
	for i := range centroids {
		centroids[i] = append([]float32(nil), vectors[perm[i]]...)
	}

	assign := make([]int, len(vectors))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range vectors {
			if c := Nearest(centroids, v); c != assign[i] {
				assign[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}
	}
	return centroids, nil
}
