package family

import (
	"fmt"

	"github.com/seqrec/hypersweep/internal/hyper"
	"github.com/seqrec/hypersweep/internal/sample"
)

// Family is one model family (cnn, lstm, pooling): its search space plus any
// derived fields computed from the sampled base parameters. The set is closed;
// ForName is the only constructor.
type Family struct {
	Name   string
	space  sample.Space
	derive func(hyper.Params) error
}

// Names lists the supported model families.
func Names() []string {
	return []string{"cnn", "lstm", "pooling"}
}

// ForName returns a fresh Family for name. Unknown names are a configuration
// error, surfaced before any sampling or evaluation happens.
func ForName(name string) (*Family, error) {
	switch name {
	case "cnn":
		space := sharedSpace()
		space["kernel_width"] = []any{3, 5, 7}
		space["num_layers"] = intRange(1, 10)
		space["dilation_multiplier"] = []any{1, 2}
		space["nonlinearity"] = []any{"tanh", "relu"}
		space["residual"] = []any{true, false}
		return &Family{Name: name, space: space, derive: deriveDilation}, nil
	case "lstm", "pooling":
		return &Family{Name: name, space: sharedSpace()}, nil
	default:
		return nil, fmt.Errorf("unknown model family %q (want one of %v)", name, Names())
	}
}

// Space returns the family's current search space.
func (f *Family) Space() sample.Space {
	return f.space
}

// Override replaces the candidate list for one parameter. Parameters not in
// the default space are accepted so trainers can expose extra knobs.
func (f *Family) Override(param string, candidates []any) error {
	if len(candidates) == 0 {
		return fmt.Errorf("family %s: parameter %q has no candidate values", f.Name, param)
	}
	f.space[param] = candidates
	return nil
}

// StoreName is the results file name for this family, e.g. "cnn_results.txt".
func (f *Family) StoreName() string {
	return f.Name + "_results.txt"
}

// Sample draws count hyperparameter sets from the family's space and applies
// the family's derived fields to each.
func (f *Family) Sample(count int, seed int64) ([]hyper.Params, error) {
	sets, err := sample.Draw(f.space, count, seed)
	if err != nil {
		return nil, fmt.Errorf("sampling %s hyperparameters: %w", f.Name, err)
	}
	if f.derive != nil {
		for _, p := range sets {
			if err := f.derive(p); err != nil {
				return nil, fmt.Errorf("deriving %s hyperparameters: %w", f.Name, err)
			}
		}
	}
	return sets, nil
}

// deriveDilation computes the per-layer dilation sequence for CNN stacks:
// layer i dilates by dilation_multiplier^(i mod 8). The period-8 cycle caps
// receptive-field growth in deep stacks.
func deriveDilation(p hyper.Params) error {
	layers, err := asInt(p["num_layers"])
	if err != nil {
		return fmt.Errorf("num_layers: %w", err)
	}
	mult, err := asInt(p["dilation_multiplier"])
	if err != nil {
		return fmt.Errorf("dilation_multiplier: %w", err)
	}
	dilation := make([]int, layers)
	for i := range dilation {
		dilation[i] = intPow(mult, i%8)
	}
	p["dilation"] = dilation
	return nil
}

// sharedSpace holds the parameters every family samples. Candidate lists
// mirror the sweep this tool was built for; configs can override any of them.
func sharedSpace() sample.Space {
	return sample.Space{
		"n_iter":        intRange(5, 20),
		"batch_size":    []any{256},
		"l2":            []any{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.0},
		"learning_rate": []any{1e-3, 1e-2, 5e-2, 1e-1},
		"loss":          []any{"bpr", "hinge", "adaptive_hinge", "pointwise"},
		"embedding_dim": []any{8},
	}
}

func intRange(lo, hi int) []any {
	out := make([]any, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, i)
	}
	return out
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("value %v is not an integer", v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}

func intPow(base, exp int) int {
	out := 1
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
