package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/seqrec/hypersweep/internal/config"
	"github.com/seqrec/hypersweep/internal/report"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize stored sweep results across families",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			return report.Generate(cfg.ResultsDir, flagFormat, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
