package testutil

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAssertInDelta(t *testing.T) {
	AssertInDelta(t, 1.0000001, 1.0, 1e-6)
}

func TestAssertMatrixInDelta(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{1, 2, 3, 4.0000001})
	AssertMatrixInDelta(t, a, b, 1e-6)
}

func TestAssertAllZero(t *testing.T) {
	AssertAllZero(t, mat.NewDense(3, 4, nil))
}
