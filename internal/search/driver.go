package search

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/seqrec/hypersweep/internal/evaluator"
	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/results"
)

// Options configures one family sweep.
type Options struct {
	Family    *family.Family
	Samples   int
	Seed      int64
	Store     *results.Store
	Evaluator evaluator.Evaluator
	Data      evaluator.Datasets

	// TBLogDir, if set, gets a per-trial subdirectory passed through to the
	// trainer for telemetry. The core never reads it.
	TBLogDir string

	Log *zap.SugaredLogger
}

// Run executes one sweep: draw Samples candidate sets, skip every candidate
// whose fingerprint is already in the store, evaluate and persist the rest,
// and return the best stored record (nil if the store ends up empty).
//
// A record is saved only after its evaluation fully succeeds, so killing the
// process loses at most the in-flight trial. Re-running with the same seed
// and space resumes by skipping everything already recorded.
func Run(ctx context.Context, opts *Options) (*results.Record, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	name := opts.Family.Name

	best, err := opts.Store.Best()
	if err != nil {
		return nil, err
	}
	if best != nil {
		log.Infow("resuming sweep",
			"family", name,
			"best_test_mrr", best.TestMRR,
			"best_params", best.Params,
		)
	}

	sets, err := opts.Family.Sample(opts.Samples, opts.Seed)
	if err != nil {
		return nil, err
	}

	evaluated, skipped := 0, 0
	for i, params := range sets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seen, err := opts.Store.Contains(params)
		if err != nil {
			return nil, err
		}
		if seen {
			skipped++
			continue
		}

		tbDir := ""
		if opts.TBLogDir != "" {
			tbDir = filepath.Join(opts.TBLogDir, name, fmt.Sprintf("run_%03d", i))
		}

		log.Infow("evaluating candidate",
			"family", name,
			"candidate", i+1,
			"total", opts.Samples,
			"params", params,
		)
		res, err := opts.Evaluator.Evaluate(ctx, params, opts.Data, opts.Seed, tbDir)
		if err != nil {
			// Trainer failures are not caught here: no record is written for
			// a failed trial and the run aborts.
			return nil, fmt.Errorf("evaluating %s candidate %d: %w", name, i+1, err)
		}
		testMRR, validationMRR := res.TestMean(), res.ValidationMean()

		if err := opts.Store.Save(params, testMRR, validationMRR); err != nil {
			return nil, err
		}
		evaluated++
		log.Infow("trial complete",
			"family", name,
			"test_mrr", testMRR,
			"validation_mrr", validationMRR,
		)
	}

	log.Infow("sweep finished", "family", name, "evaluated", evaluated, "skipped", skipped)
	return opts.Store.Best()
}
