package sample_test

import (
	"reflect"
	"testing"

	"github.com/seqrec/hypersweep/internal/sample"
)

func testSpace() sample.Space {
	return sample.Space{
		"learning_rate": {0.001, 0.01, 0.05, 0.1},
		"loss":          {"bpr", "hinge"},
		"n_iter":        {5, 6, 7},
	}
}

func TestDrawCount(t *testing.T) {
	for _, count := range []int{0, 1, 10, 100} {
		sets, err := sample.Draw(testSpace(), count, 42)
		if err != nil {
			t.Fatalf("Draw(%d): %v", count, err)
		}
		if len(sets) != count {
			t.Errorf("Draw(%d) yielded %d sets", count, len(sets))
		}
	}
}

func TestDrawReproducible(t *testing.T) {
	a, err := sample.Draw(testSpace(), 10, 42)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	b, err := sample.Draw(testSpace(), 10, 42)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different sequences")
	}
}

func TestDrawValuesFromDomain(t *testing.T) {
	space := testSpace()
	sets, err := sample.Draw(space, 50, 7)
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	for _, p := range sets {
		if len(p) != len(space) {
			t.Fatalf("set %v missing parameters", p)
		}
		for name, v := range p {
			found := false
			for _, candidate := range space[name] {
				if candidate == v {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("parameter %s drew %v, not in domain %v", name, v, space[name])
			}
		}
	}
}

func TestDrawEmptyDomain(t *testing.T) {
	space := sample.Space{"loss": {}}
	if _, err := sample.Draw(space, 1, 42); err == nil {
		t.Error("expected error for empty candidate list")
	}
}

func TestCombinations(t *testing.T) {
	if got := testSpace().Combinations(); got != 24 {
		t.Errorf("Combinations: got %d, want 24", got)
	}
}
