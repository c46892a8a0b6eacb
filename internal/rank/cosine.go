package rank

import "math"

// CosineSimilarity computes dot(q,d) / (|q| * |d|). A zero-magnitude vector
// or a dimensionality mismatch yields 0 rather than a fault: the record is
// unusable for semantic scoring but must not abort the query.
func CosineSimilarity(q, d []float32) float64 {
	if len(q) == 0 || len(q) != len(d) {
		return 0
	}

	var dot, normQ, normD float64
	for i := range q {
		dot += float64(q[i]) * float64(d[i])
		normQ += float64(q[i]) * float64(q[i])
		normD += float64(d[i]) * float64(d[i])
	}

	if normQ == 0 || normD == 0 {
		return 0
	}

	return dot / (math.Sqrt(normQ) * math.Sqrt(normD))
}
