package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seqrec/hypersweep/internal/config"
	"github.com/seqrec/hypersweep/internal/dataset"
	"github.com/seqrec/hypersweep/internal/evaluator"
	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/results"
	"github.com/seqrec/hypersweep/internal/search"
)

// Fraction of users held out of training before the test/validation split,
// matching the sweep this tool replaced.
const trainHoldout = 0.2

var (
	flagMode        string
	flagSamples     int
	flagSeed        int64
	flagParallel    int
	flagDatasetSize string
	flagMaxSeqLen   int
	flagMinSeqLen   int
	flagSeqStep     int
	flagTestPct     float64
	flagTBLogDir    string
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a randomized hyperparameter sweep",
		RunE:  runSearch,
	}
	cmd.Flags().StringVar(&flagMode, "mode", "", "model family to search: cnn, lstm, pooling, a comma-separated list, or all")
	cmd.MarkFlagRequired("mode")
	cmd.Flags().IntVar(&flagSamples, "samples", 0, "override sample count")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "override random seed")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max families searched concurrently")
	cmd.Flags().StringVar(&flagDatasetSize, "dataset_size", "", "dataset variant (100K, 1M, 10M, 20M)")
	cmd.Flags().IntVar(&flagMaxSeqLen, "max_sequence_length", 0, "max length of chunked sequences")
	cmd.Flags().IntVar(&flagMinSeqLen, "min_sequence_length", 0, "min length of chunked sequences")
	cmd.Flags().IntVar(&flagSeqStep, "sequence_step_size", 0, "step between sequence windows")
	cmd.Flags().Float64Var(&flagTestPct, "test_percentage", 0, "proportion of held-out users placed in the validation set")
	cmd.Flags().StringVar(&flagTBLogDir, "tb_log_dir", "", "telemetry directory passed through to the trainer")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)

	// Resolve families before touching data or trainers so an unknown mode
	// fails fast.
	families, err := loadFamilies(cfg, parseModes(flagMode))
	if err != nil {
		return err
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	data, err := prepareDatasets(cfg, log)
	if err != nil {
		return err
	}

	eval, err := buildEvaluator(&cfg.Evaluator)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("creating results dir: %w", err)
	}

	ctx := context.Background()
	jobs := make([]search.Job, 0, len(families))
	for _, fam := range families {
		fam := fam
		jobs = append(jobs, func() error {
			store, err := results.Open(filepath.Join(cfg.ResultsDir, fam.StoreName()))
			if err != nil {
				return err
			}
			best, err := search.Run(ctx, &search.Options{
				Family:    fam,
				Samples:   cfg.Samples,
				Seed:      cfg.Seed,
				Store:     store,
				Evaluator: eval,
				Data:      data,
				TBLogDir:  flagTBLogDir,
				Log:       log,
			})
			if err != nil {
				return err
			}
			if best != nil {
				log.Infow("best result",
					"family", fam.Name,
					"test_mrr", best.TestMRR,
					"validation_mrr", best.ValidationMRR,
					"params", best.Params,
				)
			}
			return nil
		})
	}

	return search.RunPool(flagParallel, jobs)
}

func applyFlagOverrides(cfg *config.Config) {
	if flagSamples > 0 {
		cfg.Samples = flagSamples
	}
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if flagDatasetSize != "" {
		cfg.Dataset.Size = flagDatasetSize
	}
	if flagMaxSeqLen > 0 {
		cfg.Dataset.MaxSequenceLength = flagMaxSeqLen
	}
	if flagMinSeqLen > 0 {
		cfg.Dataset.MinSequenceLength = flagMinSeqLen
	}
	if flagSeqStep > 0 {
		cfg.Dataset.StepSize = flagSeqStep
	}
	if flagTestPct > 0 {
		cfg.Dataset.TestPercentage = flagTestPct
	}
}

func parseModes(mode string) []string {
	if mode == "all" {
		return family.Names()
	}
	var modes []string
	for _, m := range strings.Split(mode, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			modes = append(modes, m)
		}
	}
	return modes
}

// loadFamilies resolves mode names and applies the config's per-family
// search-space overrides.
func loadFamilies(cfg *config.Config, modes []string) ([]*family.Family, error) {
	if len(modes) == 0 {
		return nil, fmt.Errorf("no model family given")
	}
	var families []*family.Family
	for _, mode := range modes {
		fam, err := family.ForName(mode)
		if err != nil {
			return nil, err
		}
		if overrides, ok := cfg.Families[mode]; ok {
			for param, candidates := range overrides.Space {
				if err := fam.Override(param, candidates); err != nil {
					return nil, err
				}
			}
		}
		families = append(families, fam)
	}
	return families, nil
}

// prepareDatasets loads the interaction log, performs the user-based
// train / test / validation splits, chunks each into sequences, and writes
// the trainer handoff files under the results dir.
func prepareDatasets(cfg *config.Config, log *zap.SugaredLogger) (evaluator.Datasets, error) {
	var data evaluator.Datasets

	in, err := dataset.Load(cfg.Dataset.Path())
	if err != nil {
		return data, err
	}
	train, rest := dataset.UserSplit(in, trainHoldout, cfg.Seed)
	test, validation := dataset.UserSplit(rest, cfg.Dataset.TestPercentage, cfg.Seed+1)
	log.Infow("dataset split",
		"interactions", in.Len(),
		"train", train.Len(),
		"test", test.Len(),
		"validation", validation.Len(),
	)

	seqDir := filepath.Join(cfg.ResultsDir, "sequences")
	if err := os.MkdirAll(seqDir, 0o755); err != nil {
		return data, fmt.Errorf("creating sequence dir: %w", err)
	}

	parts := []struct {
		name string
		in   *dataset.Interactions
		dst  *string
	}{
		{"train", train, &data.Train},
		{"test", test, &data.Test},
		{"validation", validation, &data.Validation},
	}
	for _, part := range parts {
		seqs, err := dataset.ToSequences(part.in,
			cfg.Dataset.MaxSequenceLength,
			cfg.Dataset.MinSequenceLength,
			cfg.Dataset.StepSize)
		if err != nil {
			return data, fmt.Errorf("chunking %s sequences: %w", part.name, err)
		}
		path := filepath.Join(seqDir, part.name+".txt")
		if err := seqs.WriteFile(path); err != nil {
			return data, err
		}
		*part.dst = path
	}
	return data, nil
}

func buildEvaluator(cfg *config.Evaluator) (evaluator.Evaluator, error) {
	timeout := time.Duration(cfg.TimeoutMinutes) * time.Minute
	switch cfg.Kind {
	case "exec":
		return &evaluator.Exec{
			Command: cfg.Command,
			EnvFile: cfg.EnvFile,
			Timeout: timeout,
		}, nil
	case "docker":
		return &evaluator.Docker{
			Image:       cfg.Image,
			Command:     cfg.Command,
			Env:         cfg.Env,
			Timeout:     timeout,
			CPULimit:    cfg.CPULimit,
			MemoryLimit: cfg.MemoryMB * 1024 * 1024,
		}, nil
	default:
		return nil, fmt.Errorf("unknown evaluator kind %q", cfg.Kind)
	}
}
