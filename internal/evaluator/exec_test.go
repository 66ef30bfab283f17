package evaluator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seqrec/hypersweep/internal/evaluator"
	"github.com/seqrec/hypersweep/internal/hyper"
)

func shTrainer(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

func TestExecEvaluate(t *testing.T) {
	eval := &evaluator.Exec{
		Command: shTrainer(`test -f "$HYPERSWEEP_PARAMS" || exit 1
printf '{"test_mrr": [0.5, 0.7], "validation_mrr": [0.4]}' > "$HYPERSWEEP_SCORES"`),
		Timeout: 30 * time.Second,
	}

	res, err := eval.Evaluate(context.Background(), hyper.Params{"loss": "bpr"}, evaluator.Datasets{}, 42, "")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := res.TestMean(); got != 0.6 {
		t.Errorf("test mean: got %v, want 0.6", got)
	}
	if got := res.ValidationMean(); got != 0.4 {
		t.Errorf("validation mean: got %v, want 0.4", got)
	}
}

func TestExecEvaluatePassesDatasetsAndSeed(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "env.txt")
	eval := &evaluator.Exec{
		Command: shTrainer(`echo "$HYPERSWEEP_TRAIN $HYPERSWEEP_SEED" > ` + out + `
printf '{"test_mrr": [1], "validation_mrr": [1]}' > "$HYPERSWEEP_SCORES"`),
	}

	data := evaluator.Datasets{Train: "/tmp/train.txt", Test: "/tmp/test.txt", Validation: "/tmp/val.txt"}
	if _, err := eval.Evaluate(context.Background(), hyper.Params{}, data, 7, ""); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading env capture: %v", err)
	}
	if string(got) != "/tmp/train.txt 7\n" {
		t.Errorf("trainer env: got %q", got)
	}
}

func TestExecEvaluateTrainerFailure(t *testing.T) {
	eval := &evaluator.Exec{Command: shTrainer("exit 3")}
	if _, err := eval.Evaluate(context.Background(), hyper.Params{}, evaluator.Datasets{}, 42, ""); err == nil {
		t.Error("expected error for failing trainer")
	}
}

func TestExecEvaluateMissingScores(t *testing.T) {
	eval := &evaluator.Exec{Command: shTrainer("true")}
	if _, err := eval.Evaluate(context.Background(), hyper.Params{}, evaluator.Datasets{}, 42, ""); err == nil {
		t.Error("expected error when trainer writes no scores")
	}
}

func TestExecEvaluateEmptyScores(t *testing.T) {
	eval := &evaluator.Exec{
		Command: shTrainer(`printf '{"test_mrr": [], "validation_mrr": [0.1]}' > "$HYPERSWEEP_SCORES"`),
	}
	if _, err := eval.Evaluate(context.Background(), hyper.Params{}, evaluator.Datasets{}, 42, ""); err == nil {
		t.Error("expected error for empty score distribution")
	}
}

func TestExecEvaluateNoCommand(t *testing.T) {
	eval := &evaluator.Exec{}
	if _, err := eval.Evaluate(context.Background(), hyper.Params{}, evaluator.Datasets{}, 42, ""); err == nil {
		t.Error("expected error for missing trainer command")
	}
}
