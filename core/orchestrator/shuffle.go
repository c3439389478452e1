package orchestrator

import (
	"math/rand/v2"
)

// shuffle is an in place Fisher-Yates shuffle: every permutation is equally
// likely given a uniform source.
func shuffle[T any](r *rand.Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
