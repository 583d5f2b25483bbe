package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvvsurvey/pawpipe/internal/sample"
	"github.com/vvvsurvey/pawpipe/internal/store"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Output       string
	Size         int
	IgnoreMemory bool
}

// NewSampleCommand draws a training set from a tile's feature table.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <tile>",
		Short: "Draw a training set from a tile's feature table",
		Long: `Write every tagged variable source of the tile plus a with-replacement
sample of its unknown sources to a new artifact.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.RootOptions)
			if err != nil {
				return err
			}
			size := opts.Size
			if size == 0 {
				size = cfg.Sampling.DefaultSize
			}

			sampler := &sample.Sampler{MinMemoryBytes: cfg.Sampling.MinMemoryBytes}
			if opts.IgnoreMemory {
				sampler.MinMemoryBytes = 0
			}

			return withStore(opts.RootOptions, func(ctx context.Context, s *store.Store) error {
				lc, err := s.GetLightCurves(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitCommandError,
						fmt.Sprintf("no light curves for tile %s", args[0]), err)
				}
				res, err := sampler.Draw(lc.FeaturesPath, opts.Output, size)
				if err != nil {
					return WrapExitError(ExitFailure, "sampling failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"Sampled %s: %d variables + %d unknown = %d rows -> %s\n",
					args[0], res.Variables, res.Sampled, res.Rows(), opts.Output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output artifact path (required)")
	cmd.Flags().IntVarP(&opts.Size, "size", "s", 0, "unknown-source sample size (default from config)")
	cmd.Flags().BoolVar(&opts.IgnoreMemory, "ignore-memory", false, "skip the available-memory check")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
