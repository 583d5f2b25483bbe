// Package cli implements the pawpipe admin command line: pipeline
// runs, entity listings, the feature-extraction gate and training-set
// sampling.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvvsurvey/pawpipe/internal/config"
	"github.com/vvvsurvey/pawpipe/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCommand creates the root command for the pawpipe CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pawpipe",
		Short: "VVV pawprint survey pipeline",
		Long: `Status-gated processing pipeline for VVV survey pawprint stacks:
catalog normalization, tile cross-matching and training-set sampling.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to CUE configuration file")

	cmd.AddCommand(NewPathsCommand(opts))
	cmd.AddCommand(NewLsTilesCommand(opts))
	cmd.AddCommand(NewLsPawprintsCommand(opts))
	cmd.AddCommand(NewLsSyncCommand(opts))
	cmd.AddCommand(NewEnableFECommand(opts))
	cmd.AddCommand(NewSampleCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// loadConfig resolves the configuration: the named file when --config
// is set, schema defaults otherwise.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, nil
}

// openStore opens the entity store named by the configuration.
func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("failed to open database %s", cfg.Database), err)
	}
	return s, nil
}
