package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPathsCommand prints the effective configuration paths.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "paths",
		Short:        "Show the effective storage paths",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "database\t%s\n", cfg.Database)
			fmt.Fprintf(tw, "input\t%s\n", cfg.InputPath)
			fmt.Fprintf(tw, "data\t%s\n", cfg.DataPath)
			fmt.Fprintf(tw, "converter\t%s\n", cfg.Converter.Bin)
			return tw.Flush()
		},
	}
}
