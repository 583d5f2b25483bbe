package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvvsurvey/pawpipe/internal/pipeline"
	"github.com/vvvsurvey/pawpipe/internal/steps"
	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// NewEnableFECommand releases named tiles into feature extraction.
func NewEnableFECommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "enable-fe <tile>...",
		Short: "Enable feature extraction for matched tiles",
		Long: `Advance named tiles from ready-to-match to ready-to-extract-features.
A tile only advances when a light-curves artifact is attached; every
tile is reported on its own line and failures do not stop the rest.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(ctx context.Context, s *store.Store) error {
				failed := enableTiles(ctx, cmd.OutOrStdout(), s, args)
				if failed > 0 {
					return NewExitError(ExitFailure,
						fmt.Sprintf("%d of %d tiles could not be enabled", failed, len(args)))
				}
				return nil
			})
		},
	}
}

func enableTiles(ctx context.Context, w io.Writer, s *store.Store, names []string) (failed int) {
	gate := &steps.EnableFeatureExtraction{Store: s}

	for _, name := range names {
		if err := enableOne(ctx, s, gate, name); err != nil {
			failed++
			fmt.Fprintf(w, "[FAIL] %s: %s\n", name, failReason(ctx, s, err))
			continue
		}
		fmt.Fprintf(w, "[SUCCESS] %s\n", name)
	}
	return failed
}

func enableOne(ctx context.Context, s *store.Store, gate *steps.EnableFeatureExtraction, name string) error {
	tile, err := s.GetTile(ctx, name)
	if err != nil {
		return err
	}
	if tile.Status != survey.StatusReadyToMatch {
		return fmt.Errorf("tile is %q, must be %q", tile.Status, survey.StatusReadyToMatch)
	}
	updated, err := gate.Process(ctx, tile)
	if err != nil {
		return err
	}
	return s.Commit(ctx, updated)
}

// failReason renders the per-tile failure line, appending the known
// tile names when the name itself was wrong.
func failReason(ctx context.Context, s *store.Store, err error) string {
	var pe *pipeline.PreconditionError
	if errors.As(err, &pe) {
		return pe.Reason
	}
	if errors.Is(err, store.ErrNotFound) {
		known, listErr := s.TileNames(ctx)
		if listErr != nil || len(known) == 0 {
			return "unknown tile"
		}
		return fmt.Sprintf("unknown tile (known tiles: %s)", strings.Join(known, ", "))
	}
	return err.Error()
}
