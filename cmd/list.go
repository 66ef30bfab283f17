package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seqrec/hypersweep/internal/config"
	"github.com/seqrec/hypersweep/internal/family"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List model families and their search spaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			families, err := loadFamilies(cfg, family.Names())
			if err != nil {
				return err
			}
			for _, fam := range families {
				space := fam.Space()
				fmt.Printf("%s (%d parameters, %d combinations):\n",
					fam.Name, len(space), space.Combinations())
				for _, name := range space.Names() {
					fmt.Printf("  - %s: %v\n", name, space[name])
				}
				fmt.Println()
			}
			return nil
		},
	}
}
