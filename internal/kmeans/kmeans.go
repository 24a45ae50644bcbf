package kmeans

import (
	"context"
	"errors"
	"math"
	"math/rand"
)

var (
	// ErrNoValues is returned when the input is empty.
	ErrNoValues = errors.New("kmeans: no values to cluster")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("kmeans: k must be positive")
)

// Result holds the outcome of one clustering run.
type Result struct {
	// Centroids are the final k centroid values, indexed by label.
	Centroids []float32
	// Labels assigns each input value the index of its nearest centroid.
	Labels []uint16
	// Iterations is the number of Lloyd iterations executed.
	Iterations int
	// Converged is true when assignments stopped changing before the cap.
	Converged bool
}

// Cluster runs Lloyd's algorithm on values with k clusters.
//
// Initialization copies k distinct sample positions chosen by a rand source
// seeded with seed, so repeated calls with identical inputs yield identical
// results. If there are fewer values than clusters, initial centroids wrap
// around the input; the surplus clusters simply end up empty and keep their
// initial value. maxIter bounds the worst case; degenerate inputs (all values
// identical) converge on the first iteration.
//
// Cancellation is checked between iterations.
func Cluster(ctx context.Context, values []float32, k int, seed int64, maxIter int) (*Result, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	if maxIter < 1 {
		maxIter = 1
	}

	n := len(values)
	centroids := make([]float32, k)

	rng := rand.New(rand.NewSource(seed))
	if n >= k {
		perm := rng.Perm(n)
		for i := 0; i < k; i++ {
			centroids[i] = values[perm[i]]
		}
	} else {
		perm := rng.Perm(n)
		for i := 0; i < k; i++ {
			centroids[i] = values[perm[i%n]]
		}
	}

	labels := make([]uint16, n)
	sums := make([]float64, k)
	counts := make([]int, k)

	res := &Result{Centroids: centroids, Labels: labels}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Iterations = iter + 1

		// Assignment step. Ties break toward the lowest index.
		changed := false
		for i, v := range values {
			best := 0
			minDist := math.Abs(float64(v - centroids[0]))
			for j := 1; j < k; j++ {
				d := math.Abs(float64(v - centroids[j]))
				if d < minDist {
					minDist = d
					best = j
				}
			}
			if labels[i] != uint16(best) {
				labels[i] = uint16(best)
				changed = true
			}
		}

		if !changed && iter > 0 {
			res.Converged = true
			break
		}

		// Update step. Empty clusters keep their previous centroid.
		for j := range sums {
			sums[j] = 0
			counts[j] = 0
		}
		for i, v := range values {
			sums[labels[i]] += float64(v)
			counts[labels[i]]++
		}
		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				centroids[j] = float32(sums[j] / float64(counts[j]))
			}
		}

		if !changed {
			res.Converged = true
			break
		}
	}

	return res, nil
}
