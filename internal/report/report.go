package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"

	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/results"
)

type FamilySummary struct {
	Family            string  `json:"family"`
	Trials            int     `json:"trials"`
	BestTestMRR       float64 `json:"best_test_mrr"`
	BestValidationMRR float64 `json:"best_validation_mrr"`
	MeanTestMRR       float64 `json:"mean_test_mrr"`
}

// Generate summarizes every family result store under resultsDir.
func Generate(resultsDir, format string, w io.Writer) error {
	summaries, err := collect(resultsDir)
	if err != nil {
		return err
	}

	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	default:
		return writeTable(summaries, w)
	}
}

func collect(resultsDir string) ([]FamilySummary, error) {
	var summaries []FamilySummary
	for _, name := range family.Names() {
		fam, err := family.ForName(name)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(resultsDir, fam.StoreName())
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		store, err := results.Open(path)
		if err != nil {
			return nil, err
		}
		summary, err := summarize(name, store)
		if err != nil {
			return nil, err
		}
		if summary.Trials > 0 {
			summaries = append(summaries, summary)
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Family < summaries[j].Family
	})
	return summaries, nil
}

func summarize(name string, store *results.Store) (FamilySummary, error) {
	s := FamilySummary{Family: name}
	var sum float64
	err := store.Each(func(rec *results.Record) error {
		s.Trials++
		sum += rec.TestMRR
		return nil
	})
	if err != nil {
		return s, err
	}
	if s.Trials == 0 {
		return s, nil
	}
	s.MeanTestMRR = sum / float64(s.Trials)

	best, err := store.Best()
	if err != nil {
		return s, err
	}
	s.BestTestMRR = best.TestMRR
	s.BestValidationMRR = best.ValidationMRR
	return s, nil
}

func writeTable(summaries []FamilySummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FAMILY\tTRIALS\tBEST TEST MRR\tBEST VAL MRR\tMEAN TEST MRR")
	fmt.Fprintln(tw, strings.Repeat("-", 64))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.4f\t%.4f\n",
			s.Family, s.Trials, s.BestTestMRR, s.BestValidationMRR, s.MeanTestMRR)
	}
	return tw.Flush()
}

func writeMarkdown(summaries []FamilySummary, w io.Writer) error {
	fmt.Fprintln(w, "| Family | Trials | Best Test MRR | Best Val MRR | Mean Test MRR |")
	fmt.Fprintln(w, "|---|---|---|---|---|")
	for _, s := range summaries {
		fmt.Fprintf(w, "| %s | %d | %.4f | %.4f | %.4f |\n",
			s.Family, s.Trials, s.BestTestMRR, s.BestValidationMRR, s.MeanTestMRR)
	}
	return nil
}

func writeJSON(summaries []FamilySummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
