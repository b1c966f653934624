package gaze

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeep(t *testing.T) {
	evs := []FixationEvent{
		{Run: 1, DurationMS: 20},
		{Run: 2, DurationMS: nan},
		{Run: 3, DurationMS: 40},
	}
	got := keep(evs, func(e FixationEvent) bool { return !anyNaN(e.DurationMS) })
	want := []FixationEvent{{Run: 1, DurationMS: 20}, {Run: 3, DurationMS: 40}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keep() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedupe(t *testing.T) {
	a := SaccadeEvent{Trial: trialT1, Run: 1, StartMS: 20, EndMS: 40, AmplitudePX: 10}
	b := SaccadeEvent{Trial: trialT1, Run: 2, StartMS: 60, EndMS: 80, AmplitudePX: 12}
	got := dedupe([]SaccadeEvent{a, b, a, a})
	want := []SaccadeEvent{a, b}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupe() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnyNaN(t *testing.T) {
	if anyNaN(1, 2, 3) {
		t.Error("anyNaN(1,2,3) = true, want false")
	}
	if !anyNaN(1, nan, 3) {
		t.Error("anyNaN(1,NaN,3) = false, want true")
	}
	if anyNaN() {
		t.Error("anyNaN() = true, want false")
	}
}
