package cmd

import (
	"fmt"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/seqrec/hypersweep/internal/config"
	"github.com/seqrec/hypersweep/internal/family"
	"github.com/seqrec/hypersweep/internal/results"
)

func newBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best <family>",
		Short: "Print the best stored result for a model family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fam, err := family.ForName(args[0])
			if err != nil {
				return err
			}
			store, err := results.Open(filepath.Join(cfg.ResultsDir, fam.StoreName()))
			if err != nil {
				return err
			}
			best, err := store.Best()
			if err != nil {
				return err
			}
			if best == nil {
				fmt.Printf("no recorded trials for %s\n", fam.Name)
				return nil
			}
			data, err := json.MarshalIndent(best, "", "  ")
			if err != nil {
				return fmt.Errorf("serializing record: %w", err)
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
