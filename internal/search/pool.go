package search

import (
	"errors"
	"sync"
)

// Job is one family sweep (or any other unit of work for the pool).
type Job func() error

// RunPool executes jobs with at most maxWorkers running concurrently. Every
// job runs to completion; failures are collected and returned as one joined
// error so no family's failure is shadowed by another's. Each family writes
// to its own store file, so parallel family sweeps never contend on a log.
func RunPool(maxWorkers int, jobs []Job) error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if maxWorkers > len(jobs) {
		maxWorkers = len(jobs)
	}

	jobCh := make(chan Job)
	errCh := make(chan error, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				if err := job(); err != nil {
					errCh <- err
				}
			}
		}()
	}

	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
