package search_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/seqrec/hypersweep/internal/evaluator"
	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/hyper"
	"github.com/seqrec/hypersweep/internal/results"
	"github.com/seqrec/hypersweep/internal/search"
)

// fakeEvaluator counts calls and returns a fixed score distribution.
type fakeEvaluator struct {
	calls int
	fail  bool
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, params hyper.Params, data evaluator.Datasets, seed int64, tbLogDir string) (*evaluator.Result, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("training diverged")
	}
	return &evaluator.Result{
		TestMRR:       []float64{0.25, 0.75},
		ValidationMRR: []float64{0.25},
	}, nil
}

func newSweep(t *testing.T, dir string) (*family.Family, *results.Store) {
	t.Helper()
	fam, err := family.ForName("lstm")
	if err != nil {
		t.Fatalf("ForName: %v", err)
	}
	store, err := results.Open(filepath.Join(dir, fam.StoreName()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return fam, store
}

// uniqueSets computes how many distinct fingerprints a draw produces; the
// store deduplicates repeats, so that is the expected record count.
func uniqueSets(t *testing.T, fam *family.Family, samples int, seed int64) int {
	t.Helper()
	sets, err := fam.Sample(samples, seed)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	seen := make(map[string]bool)
	for _, p := range sets {
		fp, err := hyper.Fingerprint(p)
		if err != nil {
			t.Fatalf("Fingerprint: %v", err)
		}
		seen[fp] = true
	}
	return len(seen)
}

func TestRunPersistsEveryFreshTrial(t *testing.T) {
	dir := t.TempDir()
	fam, store := newSweep(t, dir)
	want := uniqueSets(t, fam, 5, 42)

	eval := &fakeEvaluator{}
	best, err := search.Run(context.Background(), &search.Options{
		Family:    fam,
		Samples:   5,
		Seed:      42,
		Store:     store,
		Evaluator: eval,
		Data:      evaluator.Datasets{},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != want {
		t.Errorf("stored %d records, want %d", n, want)
	}
	if eval.calls != want {
		t.Errorf("evaluated %d candidates, want %d", eval.calls, want)
	}
	if best == nil {
		t.Fatal("Run returned nil best after evaluating trials")
	}
	if best.TestMRR != 0.5 {
		t.Errorf("best test_mrr: got %v, want mean 0.5", best.TestMRR)
	}
	if best.ValidationMRR != 0.25 {
		t.Errorf("best validation_mrr: got %v, want 0.25", best.ValidationMRR)
	}
}

func TestRunResumesWithoutReevaluating(t *testing.T) {
	dir := t.TempDir()
	fam, store := newSweep(t, dir)
	want := uniqueSets(t, fam, 5, 42)

	opts := func(eval evaluator.Evaluator) *search.Options {
		return &search.Options{
			Family:    fam,
			Samples:   5,
			Seed:      42,
			Store:     store,
			Evaluator: eval,
			Data:      evaluator.Datasets{},
		}
	}

	first := &fakeEvaluator{}
	if _, err := search.Run(context.Background(), opts(first)); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second := &fakeEvaluator{}
	if _, err := search.Run(context.Background(), opts(second)); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("resumed run re-evaluated %d candidates, want 0", second.calls)
	}

	n, err := store.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != want {
		t.Errorf("resumed run appended records: %d, want %d", n, want)
	}
}

func TestRunAbortsOnEvaluatorFailureWithoutSaving(t *testing.T) {
	dir := t.TempDir()
	fam, store := newSweep(t, dir)

	_, err := search.Run(context.Background(), &search.Options{
		Family:    fam,
		Samples:   3,
		Seed:      42,
		Store:     store,
		Evaluator: &fakeEvaluator{fail: true},
		Data:      evaluator.Datasets{},
	})
	if err == nil {
		t.Fatal("expected evaluator failure to propagate")
	}

	n, lenErr := store.Len()
	if lenErr != nil {
		t.Fatalf("Len: %v", lenErr)
	}
	if n != 0 {
		t.Errorf("failed trial left %d records", n)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	fam, store := newSweep(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eval := &fakeEvaluator{}
	_, err := search.Run(ctx, &search.Options{
		Family:    fam,
		Samples:   3,
		Seed:      42,
		Store:     store,
		Evaluator: eval,
		Data:      evaluator.Datasets{},
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if eval.calls != 0 {
		t.Errorf("cancelled run evaluated %d candidates", eval.calls)
	}
}
