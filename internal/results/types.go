package results

import "github.com/seqrec/hypersweep/internal/hyper"

// Record is one completed trial: the hyperparameter set that was evaluated
// and the two resulting quality metrics. Records are immutable once written.
type Record struct {
	Params        hyper.Params `json:"params"`
	TestMRR       float64      `json:"test_mrr"`
	ValidationMRR float64      `json:"validation_mrr"`
}
