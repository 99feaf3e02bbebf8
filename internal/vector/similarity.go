package vector

import "math"

// CosineSimilarity returns the cosine similarity of a and b.
// Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i] * b[i])
		na += float64(a[i] * a[i])
		nb += float64(b[i] * b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CosineDistance returns 1 - CosineSimilarity, clamped to [0, 2].
func CosineDistance(a, b []float32) float64 {
	d := 1 - CosineSimilarity(a, b)
	return math.Max(0, math.Min(2, d))
}
