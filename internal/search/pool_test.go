package search_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/seqrec/hypersweep/internal/search"
)

func TestPool(t *testing.T) {
	var count atomic.Int32
	jobs := make([]search.Job, 10)
	for i := range jobs {
		jobs[i] = func() error {
			count.Add(1)
			return nil
		}
	}
	if err := search.RunPool(3, jobs); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if count.Load() != 10 {
		t.Errorf("expected 10 jobs, got %d", count.Load())
	}
}

func TestPoolCollectsEveryError(t *testing.T) {
	errA := errors.New("cnn sweep failed")
	errB := errors.New("lstm sweep failed")
	jobs := []search.Job{
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
	}
	err := search.RunPool(2, jobs)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("joined error lost a failure: %v", err)
	}
}

func TestPoolNoJobs(t *testing.T) {
	if err := search.RunPool(4, nil); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
