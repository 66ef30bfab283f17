package evaluator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/seqrec/hypersweep/internal/hyper"
)

// Exec runs a trainer as a subprocess on the host. The trial gets its own
// work directory containing params.json; the trainer finds everything it
// needs in HYPERSWEEP_* environment variables and writes scores.json to the
// path named by HYPERSWEEP_SCORES.
type Exec struct {
	// Command is the trainer argv, e.g. ["python", "trainer.py"].
	Command []string

	// EnvFile optionally points at a KEY=value file appended to the
	// trainer's environment (credentials, CUDA settings).
	EnvFile string

	// Timeout bounds one evaluation; zero means no limit.
	Timeout time.Duration
}

func (e *Exec) Evaluate(ctx context.Context, params hyper.Params, data Datasets, seed int64, tbLogDir string) (*Result, error) {
	if len(e.Command) == 0 {
		return nil, fmt.Errorf("exec evaluator: no trainer command configured")
	}

	workDir, err := os.MkdirTemp("", "hypersweep-trial-")
	if err != nil {
		return nil, fmt.Errorf("creating trial work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	paramsPath, err := writeParams(workDir, params)
	if err != nil {
		return nil, err
	}
	scoresPath := filepath.Join(workDir, "scores.json")

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.Command[0], e.Command[1:]...)
	cmd.Dir = workDir
	// Training progress goes straight through, like the trainer was run by hand.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	if e.EnvFile != "" {
		envVars, err := ParseEnvFile(e.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("loading trainer env file: %w", err)
		}
		cmd.Env = append(cmd.Env, envVars...)
	}
	cmd.Env = append(cmd.Env,
		"HYPERSWEEP_PARAMS="+paramsPath,
		"HYPERSWEEP_TRAIN="+data.Train,
		"HYPERSWEEP_TEST="+data.Test,
		"HYPERSWEEP_VALIDATION="+data.Validation,
		"HYPERSWEEP_SEED="+strconv.FormatInt(seed, 10),
		"HYPERSWEEP_SCORES="+scoresPath,
		"HYPERSWEEP_TB_LOG_DIR="+tbLogDir,
	)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("trainer command failed: %w", err)
	}
	return readScores(scoresPath)
}
