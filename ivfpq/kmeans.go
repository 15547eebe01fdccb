package ivfpq

import "math/rand"

// kMeansIters is the fixed Lloyd iteration count used for both the
// coarse centroids and the PQ codebooks.
const kMeansIters = 20

// squaredDistance returns the squared L2 distance between two vectors of
// equal length.
func squaredDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// kMeans clusters data into k centroids with Lloyd's algorithm. The rng
// drives the initial seeding, so a fixed seed yields a deterministic
// result. When k >= len(data) the data points themselves are returned as
// centroids.
func kMeans(data [][]float32, k int, rng *rand.Rand) [][]float32 {
	if len(data) == 0 {
		return nil
	}
	dim := len(data[0])

	if k >= len(data) {
		centroids := make([][]float32, len(data))
		for i, v := range data {
			centroids[i] = append([]float32(nil), v...)
		}
		return centroids
	}

	// Seed with k distinct data points.
	centroids := make([][]float32, k)
	for i, idx := range rng.Perm(len(data))[:k] {
		centroids[i] = append([]float32(nil), data[idx]...)
	}

	assignments := make([]int, len(data))
	sums := make([][]float32, k)
	counts := make([]int, k)
	for i := range sums {
		sums[i] = make([]float32, dim)
	}

	for iter := 0; iter < kMeansIters; iter++ {
		changed := false
		for i, v := range data {
			best := nearestCentroid(centroids, v)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		for i := range sums {
			for j := range sums[i] {
				sums[i][j] = 0
			}
			counts[i] = 0
		}
		for i, v := range data {
			c := assignments[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += x
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Re-seed an empty cluster with a random data point.
				copy(centroids[c], data[rng.Intn(len(data))])
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float32(counts[c])
			}
		}
	}

	return centroids
}

// nearestCentroid returns the index of the centroid closest to v, the
// lowest index winning ties.
func nearestCentroid(centroids [][]float32, v []float32) int {
	best := 0
	bestDist := squaredDistance(centroids[0], v)
	for i := 1; i < len(centroids); i++ {
		if d := squaredDistance(centroids[i], v); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// nearestCentroids returns the indices of the n centroids closest to v in
// ascending distance order, lower index winning ties.
func nearestCentroids(centroids [][]float32, v []float32, n int) []int {
	if n > len(centroids) {
		n = len(centroids)
	}

	type candidate struct {
		idx  int
		dist float32
	}
	candidates := make([]candidate, len(centroids))
	for i, c := range centroids {
		candidates[i] = candidate{idx: i, dist: squaredDistance(c, v)}
	}

	// Partial selection sort is fine at nlist scale.
	result := make([]int, 0, n)
	for len(result) < n {
		best := -1
		for i, c := range candidates {
			if c.idx < 0 {
				continue
			}
			if best < 0 || c.dist < candidates[best].dist {
				best = i
			}
		}
		result = append(result, candidates[best].idx)
		candidates[best].idx = -1
	}
	return result
}
