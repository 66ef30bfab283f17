package sample

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/seqrec/hypersweep/internal/hyper"
)

// Space is the discrete search domain: parameter name to its candidate values.
type Space map[string][]any

// Names returns the parameter names in sorted order.
func (s Space) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Combinations returns the number of distinct hyperparameter sets in the space.
func (s Space) Combinations() int {
	total := 1
	for _, candidates := range s {
		total *= len(candidates)
	}
	return total
}

// Draw produces exactly count hyperparameter sets. Each parameter is drawn
// uniformly with replacement from its candidate list, independently of the
// others, so repeated identical sets across the sequence are possible; the
// result store filters those downstream. The same seed and space always
// reproduce the same sequence.
func Draw(space Space, count int, seed int64) ([]hyper.Params, error) {
	if count < 0 {
		return nil, fmt.Errorf("sample count must be non-negative, got %d", count)
	}
	names := space.Names()
	for _, name := range names {
		if len(space[name]) == 0 {
			return nil, fmt.Errorf("parameter %q has no candidate values", name)
		}
	}

	// Draws iterate parameters in sorted name order so the sequence depends
	// only on (space, count, seed), not map iteration order.
	rng := rand.New(rand.NewSource(seed))
	sets := make([]hyper.Params, count)
	for i := range sets {
		p := make(hyper.Params, len(names))
		for _, name := range names {
			candidates := space[name]
			p[name] = candidates[rng.Intn(len(candidates))]
		}
		sets[i] = p
	}
	return sets, nil
}
