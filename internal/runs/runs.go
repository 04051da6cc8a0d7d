// Package runs implements run-length encoding over arbitrary records.
// Planned set configs and the performed-set ledger both use it.
package runs

// Run is Count consecutive copies of Value.
type Run[T any] struct {
	Count int
	Value T
}

// Encode merges consecutive equal items into runs, preserving order.
func Encode[T any](items []T, equal func(a, b T) bool) []Run[T] {
	var out []Run[T]
	for _, it := range items {
		if n := len(out); n > 0 && equal(out[n-1].Value, it) {
			out[n-1].Count++
			continue
		}
		out = append(out, Run[T]{Count: 1, Value: it})
	}
	return out
}

// Decode expands runs back into a flat slice. Runs with Count <= 0 contribute nothing.
func Decode[T any](rs []Run[T]) []T {
	total := 0
	for _, r := range rs {
		if r.Count > 0 {
			total += r.Count
		}
	}
	out := make([]T, 0, total)
	for _, r := range rs {
		for range r.Count {
			out = append(out, r.Value)
		}
	}
	return out
}
