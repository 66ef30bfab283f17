package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hypersweep",
		Short: "Resumable randomized hyperparameter search for sequence recommenders",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "hypersweep.yaml", "config file path")
	root.AddCommand(newSearchCmd())
	root.AddCommand(newBestCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newCheckCmd())
	return root
}
