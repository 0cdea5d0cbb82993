// Package vector provides the distance metrics used to rank chunk
// embeddings against a query embedding. The metric chosen at retrieval
// time must match the one assumed when the store was populated.
package vector

import (
	"fmt"
	"math"
)

// Metric selects a distance function.
type Metric string

const (
	// MetricL2 is Euclidean distance, the default.
	MetricL2 Metric = "l2"

	// MetricCosine is cosine distance (1 - cosine similarity).
	MetricCosine Metric = "cosine"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricL2, MetricCosine:
		return Metric(s), nil
	case "":
		return MetricL2, nil
	default:
		return "", fmt.Errorf("vector: unknown metric %q", s)
	}
}

// Distance computes the dissimilarity between two vectors under the metric.
func (m Metric) Distance(a, b []float32) (float64, error) {
	switch m {
	case MetricCosine:
		return CosineDistance(a, b)
	default:
		return L2Distance(a, b)
	}
}

// L2Distance computes the Euclidean (L2) distance between two vectors. It
// returns an error if the vectors have different lengths.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: L2 distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// CosineDistance computes 1 minus the cosine similarity between two
// vectors. It returns an error on dimension mismatch or when either vector
// has zero magnitude.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector: cosine distance dimension mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("vector: cosine distance on empty vectors")
	}
	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("vector: cosine distance with zero-magnitude vector")
	}
	return 1 - dot/(math.Sqrt(na2)*math.Sqrt(nb2)), nil
}
