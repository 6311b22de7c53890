// Package seq provides immutable, monotonically increasing numeric sequences
// used as frequency and travel-time axes. A Vector is shared by reference
// between the propagation inputs and the envelope store so that bin indices
// stay consistent everywhere; it is never mutated after construction.
package seq

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidSequence reports construction parameters that cannot form a
// strictly increasing sequence.
var ErrInvalidSequence = errors.New("seq: invalid sequence")

// Vector is an immutable ordered sequence of float64 values.
type Vector struct {
	values []float64
}

// Linear builds a sequence first, first+step, ... with n elements.
func Linear(first, step float64, n int) (*Vector, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSequence, n)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: linear step %v must be positive", ErrInvalidSequence, step)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = first + step*float64(i)
	}
	return &Vector{values: values}, nil
}

// Log builds a geometric sequence first, first*ratio, ... with n elements.
// Used for frequency axes that span octaves.
func Log(first, ratio float64, n int) (*Vector, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidSequence, n)
	}
	if first <= 0 || ratio <= 1 {
		return nil, fmt.Errorf("%w: log first %v ratio %v", ErrInvalidSequence, first, ratio)
	}
	values := make([]float64, n)
	v := first
	for i := range values {
		values[i] = v
		v *= ratio
	}
	return &Vector{values: values}, nil
}

// FromSlice builds a sequence from explicit values, which must be strictly
// increasing. The slice is copied.
func FromSlice(values []float64) (*Vector, error) {
	if len(values) < 1 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSequence)
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return nil, fmt.Errorf("%w: values[%d]=%v <= values[%d]=%v",
				ErrInvalidSequence, i, values[i], i-1, values[i-1])
		}
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Vector{values: v}, nil
}

// Len returns the number of elements.
func (v *Vector) Len() int { return len(v.values) }

// At returns the i-th element. Panics if i is out of range, matching slice
// semantics; axes are indexed by bins the engine itself computed.
func (v *Vector) At(i int) float64 { return v.values[i] }

// First returns the smallest element.
func (v *Vector) First() float64 { return v.values[0] }

// Last returns the largest element.
func (v *Vector) Last() float64 { return v.values[len(v.values)-1] }

// Values returns a copy of the underlying values.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Increment returns the local spacing at index i. The final element reports
// the spacing to its predecessor; a single-element sequence reports 1.
func (v *Vector) Increment(i int) float64 {
	if len(v.values) == 1 {
		return 1.0
	}
	if i >= len(v.values)-1 {
		return v.values[len(v.values)-1] - v.values[len(v.values)-2]
	}
	return v.values[i+1] - v.values[i]
}

// Find returns the index of the bin nearest to value, clamped to the valid
// range.
func (v *Vector) Find(value float64) int {
	n := len(v.values)
	i := sort.SearchFloat64s(v.values, value)
	if i == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	if math.Abs(v.values[i]-value) < math.Abs(value-v.values[i-1]) {
		return i
	}
	return i - 1
}
