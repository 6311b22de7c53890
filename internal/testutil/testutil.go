// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common numeric test helpers to reduce code
// duplication across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within delta of want.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("value = %v, want %v ± %v", got, want, delta)
	}
}

// AssertMatrixInDelta checks that two matrices have the same shape and that
// every element agrees within delta.
func AssertMatrixInDelta(t *testing.T, got, want mat.Matrix, delta float64) {
	t.Helper()
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wr || gc != wc {
		t.Fatalf("matrix shape = %dx%d, want %dx%d", gr, gc, wr, wc)
	}
	for r := 0; r < gr; r++ {
		for c := 0; c < gc; c++ {
			g, w := got.At(r, c), want.At(r, c)
			if math.IsNaN(g) || math.Abs(g-w) > delta {
				t.Errorf("matrix[%d,%d] = %v, want %v ± %v", r, c, g, w, delta)
			}
		}
	}
}

// AssertAllZero checks that every element of the matrix is exactly zero.
func AssertAllZero(t *testing.T, m mat.Matrix) {
	t.Helper()
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if v := m.At(r, c); v != 0 {
				t.Errorf("matrix[%d,%d] = %v, want exactly 0", r, c, v)
			}
		}
	}
}
