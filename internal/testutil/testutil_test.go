package testutil

import (
	"errors"
	"math"
	"net/http"
	"testing"
)

func TestAssertStatusCode_Matching(t *testing.T) {
	fakeT := &testing.T{}
	AssertStatusCode(fakeT, http.StatusOK, http.StatusOK)
	if fakeT.Failed() {
		t.Error("expected no failure for matching status codes")
	}
}

func TestAssertStatusCode_Mismatch(t *testing.T) {
	fakeT := &testing.T{}
	AssertStatusCode(fakeT, http.StatusOK, http.StatusBadRequest)
	if !fakeT.Failed() {
		t.Error("expected failure for mismatched status codes")
	}
}

func TestAssertNoError_NilErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertNoError(fakeT, nil)
	if fakeT.Failed() {
		t.Error("expected no failure for nil error")
	}
}

func TestAssertError_WithErr(t *testing.T) {
	fakeT := &testing.T{}
	AssertError(fakeT, errors.New("something wrong"))
	if fakeT.Failed() {
		t.Error("expected no failure when error is present")
	}
}

func TestNaNEqual(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"both NaN", nan, nan, true},
		{"left NaN", nan, 1.0, false},
		{"right NaN", 1.0, nan, false},
		{"equal values", 2.5, 2.5, true},
		{"unequal values", 2.5, 2.6, false},
		{"zero and negative zero", 0.0, math.Copysign(0, -1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NaNEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("NaNEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestAssertFloatNear(t *testing.T) {
	fakeT := &testing.T{}
	AssertFloatNear(fakeT, 881.163, 881.1632, 0.001)
	if fakeT.Failed() {
		t.Error("expected no failure within tolerance")
	}

	fakeT = &testing.T{}
	AssertFloatNear(fakeT, 881.163, 883, 0.001)
	if !fakeT.Failed() {
		t.Error("expected failure outside tolerance")
	}
}

func TestAssertFloatNear_NaN(t *testing.T) {
	nan := math.NaN()

	fakeT := &testing.T{}
	AssertFloatNear(fakeT, nan, nan, 0)
	if fakeT.Failed() {
		t.Error("expected NaN to match NaN")
	}

	// tolerance never rescues a NaN mismatch
	fakeT = &testing.T{}
	AssertFloatNear(fakeT, nan, 1.0, math.Inf(1))
	if !fakeT.Failed() {
		t.Error("expected NaN against a number to fail")
	}
}
