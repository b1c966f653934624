// Package testutil provides shared test helpers for the analysis packages.
//
// The float helpers are NaN-aware: the pipeline uses NaN as its missing-value
// marker, so two NaNs compare equal here even though they do not in Go.
package testutil

import (
	"math"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

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

// NaNEqual reports whether two floats are equal, treating NaN as equal to
// NaN.
func NaNEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

// AssertFloatNear fails unless got is within tol of want. NaN matches only
// NaN, regardless of tolerance.
func AssertFloatNear(t *testing.T, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.IsNaN(want) {
		if !NaNEqual(got, want) {
			t.Errorf("value = %v, want %v", got, want)
		}
		return
	}
	if math.Abs(got-want) > tol {
		t.Errorf("value = %v, want %v (tolerance %v)", got, want, tol)
	}
}
