// Package sparse holds the row type passed from the vectorizer to the classifier.
package sparse

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vector is a sparse row. Indices are strictly increasing and
// Values[i] belongs to Indices[i].
type Vector struct {
	Indices []int
	Values  []float64
}

// Len returns the number of stored (non-zero) entries.
func (v Vector) Len() int { return len(v.Indices) }

// Dot computes the inner product with a dense vector.
// Entries past the end of dense are ignored.
func (v Vector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		if idx < len(dense) {
			sum += v.Values[i] * dense[idx]
		}
	}
	return sum
}

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	return floats.Norm(v.Values, 2)
}

// Scale multiplies every stored value by f in place.
func (v Vector) Scale(f float64) {
	floats.Scale(f, v.Values)
}

// AddScaledTo adds alpha*v to dense in place.
func (v Vector) AddScaledTo(dense []float64, alpha float64) {
	for i, idx := range v.Indices {
		dense[idx] += alpha * v.Values[i]
	}
}

// Check reports whether v is well formed for a space of dim dimensions.
func (v Vector) Check(dim int) error {
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf("sparse vector has %d indices but %d values", len(v.Indices), len(v.Values))
	}
	prev := -1
	for i, idx := range v.Indices {
		if idx <= prev {
			return fmt.Errorf("sparse vector index %d at position %d is not increasing", idx, i)
		}
		if idx >= dim {
			return fmt.Errorf("sparse vector index %d out of range for dimension %d", idx, dim)
		}
		if math.IsNaN(v.Values[i]) || math.IsInf(v.Values[i], 0) {
			return fmt.Errorf("sparse vector value at index %d is not finite", idx)
		}
		prev = idx
	}
	return nil
}
