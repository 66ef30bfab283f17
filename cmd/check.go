package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/seqrec/hypersweep/internal/config"
	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/results"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [family...]",
		Short: "Verify result store integrity",
		Long:  "Re-read each family's result store, recompute every record's fingerprint from its stored hyperparameters, and fail on corrupt or mismatched records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = family.Names()
			}
			for _, name := range names {
				fam, err := family.ForName(name)
				if err != nil {
					return err
				}
				path := filepath.Join(cfg.ResultsDir, fam.StoreName())
				if _, err := os.Stat(path); os.IsNotExist(err) {
					fmt.Printf("%s: no results file\n", fam.Name)
					continue
				}
				store, err := results.Open(path)
				if err != nil {
					return err
				}
				n, err := store.Verify()
				if err != nil {
					return fmt.Errorf("%s: %w", fam.Name, err)
				}
				fmt.Printf("%s: %d records ok\n", fam.Name, n)
			}
			return nil
		},
	}
}
