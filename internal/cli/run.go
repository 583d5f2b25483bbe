package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vvvsurvey/pawpipe/internal/catalog"
	"github.com/vvvsurvey/pawpipe/internal/config"
	"github.com/vvvsurvey/pawpipe/internal/pipeline"
	"github.com/vvvsurvey/pawpipe/internal/steps"
	"github.com/vvvsurvey/pawpipe/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Group string
}

// NewRunCommand executes the registered pipeline steps.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline steps",
		Long: `Run every registered pipeline step against the eligible entities.

Steps run in registration order: tile and pawprint preprocessing,
staging and positional matching, then the feature-extraction gate.
Use --group to run a single stage.

Example:
  pawpipe run
  pawpipe run --group preprocess --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "run only steps in this group")
	return cmd
}

func runPipeline(cmd *cobra.Command, opts *RunOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	slog.Info("opening database", "path", cfg.Database)
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng := pipeline.New(s, nil)
	if err := eng.Register(buildSteps(cfg, s)...); err != nil {
		return WrapExitError(ExitCommandError, "failed to register steps", err)
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := eng.Run(ctx, opts.Group)
	if err != nil {
		return WrapExitError(ExitCommandError, "pipeline run aborted", err)
	}

	renderReport(cmd.OutOrStdout(), report)
	if report.Failed() {
		return NewExitError(ExitFailure, "pipeline run finished with failures")
	}
	return nil
}

// buildSteps wires the concrete steps in execution order.
func buildSteps(cfg *config.Config, s *store.Store) []pipeline.Step {
	converter := &catalog.ExecConverter{
		Bin:     cfg.Converter.Bin,
		Timeout: cfg.Converter.Timeout(),
	}
	return []pipeline.Step{
		&steps.PrepareTiles{},
		&steps.PreparePawprints{Converter: converter, DataDir: cfg.DataPath},
		&steps.StagePawprints{Store: s},
		&steps.MatchAssociations{Store: s, RadiusArcsec: cfg.Matching.RadiusArcsec},
		&steps.CloseMatches{Store: s},
		&steps.EnableFeatureExtraction{Store: s},
	}
}

func renderReport(w io.Writer, report *pipeline.Report) {
	fmt.Fprintf(w, "Run %s\n", report.RunToken)
	for _, sr := range report.Steps {
		fmt.Fprintf(w, "  %s: %d eligible, %d succeeded, %d failed\n",
			sr.Step, sr.Eligible, len(sr.Succeeded), len(sr.Failures))
		for _, f := range sr.Failures {
			fmt.Fprintf(w, "    [%s] %s: %s\n", f.Code, f.Name, f.Cause)
		}
	}
}
