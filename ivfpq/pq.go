package ivfpq

import "math/rand"

// codebookSize is the number of centroids per sub-quantizer, one byte of
// code per sub-vector.
const codebookSize = 256

// quantizer is a product quantizer: the vector space is split into m
// sub-spaces of dsub dimensions each, and every sub-vector is encoded as
// the index of its nearest codebook centroid.
type quantizer struct {
	m         int
	dsub      int
	codebooks [][][]float32 // m inner codebooks of up to 256 centroids
}

// trainQuantizer learns the per-subspace codebooks from training data.
// Codebook sizes clamp to the training set size for small corpora.
func trainQuantizer(data [][]float32, m int, rng *rand.Rand) *quantizer {
	dsub := len(data[0]) / m
	q := &quantizer{
		m:         m,
		dsub:      dsub,
		codebooks: make([][][]float32, m),
	}

	sub := make([][]float32, len(data))
	for i := 0; i < m; i++ {
		lo, hi := i*dsub, (i+1)*dsub
		for j, v := range data {
			sub[j] = v[lo:hi]
		}
		q.codebooks[i] = kMeans(sub, codebookSize, rng)
	}
	return q
}

// encode returns the m-byte code for a vector.
func (q *quantizer) encode(vec []float32) []byte {
	code := make([]byte, q.m)
	for i := 0; i < q.m; i++ {
		sub := vec[i*q.dsub : (i+1)*q.dsub]
		code[i] = byte(nearestCentroid(q.codebooks[i], sub))
	}
	return code
}

// table precomputes the squared distances from the query's sub-vectors
// to every codebook centroid, so scanning a posting list is m table
// lookups per entry (asymmetric distance computation).
func (q *quantizer) table(query []float32) [][]float32 {
	t := make([][]float32, q.m)
	for i := 0; i < q.m; i++ {
		sub := query[i*q.dsub : (i+1)*q.dsub]
		row := make([]float32, len(q.codebooks[i]))
		for j, c := range q.codebooks[i] {
			row[j] = squaredDistance(sub, c)
		}
		t[i] = row
	}
	return t
}

// distance sums the table entries selected by a code.
func (q *quantizer) distance(table [][]float32, code []byte) float32 {
	var sum float32
	for i, c := range code {
		sum += table[i][c]
	}
	return sum
}
