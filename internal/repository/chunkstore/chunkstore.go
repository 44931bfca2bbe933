// Package chunkstore indexes filing text fragments with their embeddings
// and serves similarity queries and ingestion-membership probes.
package chunkstore

import "math"

// Filter narrows a similarity search to exact-match metadata predicates.
// All set fields are ANDed.
type Filter struct {
	Ticker  string
	CIK     string
	Section string
}

// cosineEpsilon guards the cosine denominator against zero vectors.
const cosineEpsilon = 1e-9

// cosine computes cosine similarity between two vectors. Result is in [-1, 1].
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, y := range b {
		nb += float64(y) * float64(y)
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}
