package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Samples is the number of hyperparameter sets drawn per family sweep.
	Samples int `yaml:"samples"`

	// Seed drives sampling and dataset splitting. Zero selects the default.
	Seed int64 `yaml:"seed"`

	ResultsDir string                     `yaml:"results_dir"`
	Dataset    Dataset                    `yaml:"dataset"`
	Evaluator  Evaluator                  `yaml:"evaluator"`
	Families   map[string]FamilyOverrides `yaml:"families"`
}

type Dataset struct {
	Dir               string  `yaml:"dir"`
	Size              string  `yaml:"size"`
	MaxSequenceLength int     `yaml:"max_sequence_length"`
	MinSequenceLength int     `yaml:"min_sequence_length"`
	StepSize          int     `yaml:"sequence_step_size"`
	TestPercentage    float64 `yaml:"test_percentage"`
}

// Path is the interaction log for the configured dataset variant.
func (d *Dataset) Path() string {
	return filepath.Join(d.Dir, fmt.Sprintf("movielens_%s.csv", d.Size))
}

type Evaluator struct {
	// Kind selects the trainer collaborator: "exec" or "docker".
	Kind string `yaml:"kind"`

	// Command is the trainer argv for exec, or the container command for docker.
	Command []string `yaml:"command"`

	// EnvFile optionally holds KEY=value lines appended to an exec trainer's
	// environment.
	EnvFile string `yaml:"env_file"`

	Image          string            `yaml:"image"`
	Env            map[string]string `yaml:"env"`
	TimeoutMinutes int               `yaml:"timeout_minutes"`
	CPULimit       float64           `yaml:"cpu_limit"`
	MemoryMB       int64             `yaml:"memory_mb"`
}

// FamilyOverrides replaces candidate lists in a family's default search space.
type FamilyOverrides struct {
	Space map[string][]any `yaml:"space"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Samples < 0 {
		return fmt.Errorf("samples must be non-negative")
	}
	if cfg.Samples == 0 {
		cfg.Samples = 100
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "results"
	}

	d := &cfg.Dataset
	if d.Dir == "" {
		d.Dir = "data"
	}
	if d.Size == "" {
		d.Size = "1M"
	}
	if d.MaxSequenceLength == 0 {
		d.MaxSequenceLength = 200
	}
	if d.MinSequenceLength == 0 {
		d.MinSequenceLength = 20
	}
	if d.StepSize == 0 {
		d.StepSize = 200
	}
	if d.TestPercentage == 0 {
		d.TestPercentage = 0.5
	}
	if d.TestPercentage < 0 || d.TestPercentage >= 1 {
		return fmt.Errorf("dataset test_percentage must be in [0, 1), got %v", d.TestPercentage)
	}
	if d.MinSequenceLength > d.MaxSequenceLength {
		return fmt.Errorf("dataset min_sequence_length %d exceeds max_sequence_length %d", d.MinSequenceLength, d.MaxSequenceLength)
	}

	e := &cfg.Evaluator
	if e.Kind == "" {
		e.Kind = "exec"
	}
	switch e.Kind {
	case "exec":
		if len(e.Command) == 0 {
			return fmt.Errorf("evaluator kind exec requires a command")
		}
	case "docker":
		if e.Image == "" {
			return fmt.Errorf("evaluator kind docker requires an image")
		}
	default:
		return fmt.Errorf("unknown evaluator kind %q (want exec or docker)", e.Kind)
	}
	if e.TimeoutMinutes == 0 {
		e.TimeoutMinutes = 60
	}
	if e.TimeoutMinutes < 0 {
		return fmt.Errorf("evaluator timeout_minutes must be non-negative")
	}

	for name, fam := range cfg.Families {
		for param, candidates := range fam.Space {
			if len(candidates) == 0 {
				return fmt.Errorf("family %s: parameter %q has no candidate values", name, param)
			}
		}
	}
	return nil
}
