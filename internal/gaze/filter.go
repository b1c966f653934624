package gaze

import "math"

// keep filters an event table in place-order, retaining rows the predicate
// accepts. Row filtering and deduplication run exactly once per table, after
// aggregation.
func keep[E any](events []E, pred func(E) bool) []E {
	out := events[:0:0]
	for _, e := range events {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// dedupe collapses exactly duplicated rows, keeping first occurrence order.
// Callers filter NaN rows first; NaN never compares equal and would defeat
// the set.
func dedupe[E comparable](events []E) []E {
	seen := make(map[E]struct{}, len(events))
	out := events[:0:0]
	for _, e := range events {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
