// Package evaluator is the boundary to the external model-training
// collaborator. The core hands over one hyperparameter set and fixed
// train/test/validation sequence files; the trainer hands back test and
// validation MRR score distributions. Training internals are opaque.
package evaluator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/seqrec/hypersweep/internal/hyper"
)

// Datasets holds the paths of the fixed sequence files a trainer consumes.
type Datasets struct {
	Train      string
	Test       string
	Validation string
}

// Result carries the per-sequence MRR distributions a trainer reports.
type Result struct {
	TestMRR       []float64 `json:"test_mrr"`
	ValidationMRR []float64 `json:"validation_mrr"`
}

func (r *Result) TestMean() float64       { return mean(r.TestMRR) }
func (r *Result) ValidationMean() float64 { return mean(r.ValidationMRR) }

// Evaluator trains one model and scores it. Implementations must be
// deterministic given the same seed and carry no state between calls.
type Evaluator interface {
	Evaluate(ctx context.Context, params hyper.Params, data Datasets, seed int64, tbLogDir string) (*Result, error)
}

// writeParams serializes the hyperparameter set into dir as params.json and
// returns the file path.
func writeParams(dir string, params hyper.Params) (string, error) {
	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing hyperparameters: %w", err)
	}
	path := filepath.Join(dir, "params.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing params file: %w", err)
	}
	return path, nil
}

// readScores loads the scores.json a trainer leaves behind. Empty score
// arrays are treated as a trainer failure, not as a zero result.
func readScores(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trainer scores: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing trainer scores %s: %w", path, err)
	}
	if len(res.TestMRR) == 0 || len(res.ValidationMRR) == 0 {
		return nil, fmt.Errorf("trainer scores %s: empty test_mrr or validation_mrr", path)
	}
	return &res, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
