package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vvvsurvey/pawpipe/internal/store"
	"github.com/vvvsurvey/pawpipe/internal/survey"
)

// lsOptions holds flags shared by the listing commands.
type lsOptions struct {
	*RootOptions
	Statuses []string
}

func (o *lsOptions) statusFilter(kind survey.Kind) ([]survey.Status, error) {
	out := make([]survey.Status, 0, len(o.Statuses))
	for _, raw := range o.Statuses {
		st := survey.Status(raw)
		if !survey.ValidStatus(kind, st) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf(
				"invalid status %q for %s, valid: %s",
				raw, kind, joinStatuses(survey.Statuses(kind))))
		}
		out = append(out, st)
	}
	return out, nil
}

func joinStatuses(sts []survey.Status) string {
	strs := make([]string, len(sts))
	for i, st := range sts {
		strs[i] = string(st)
	}
	return strings.Join(strs, ", ")
}

// NewLsTilesCommand lists tiles.
func NewLsTilesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &lsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "ls-tiles",
		Short:        "List tiles",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := opts.statusFilter(survey.KindTile)
			if err != nil {
				return err
			}
			return withStore(opts.RootOptions, func(ctx context.Context, s *store.Store) error {
				tiles, err := s.ListTiles(ctx, statuses...)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list tiles", err)
				}
				renderTiles(cmd.OutOrStdout(), tiles)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Statuses, "status", "s", nil, "filter by status (repeatable)")
	return cmd
}

// NewLsPawprintsCommand lists pawprint stacks.
func NewLsPawprintsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &lsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "ls-pawprints",
		Short:        "List pawprint stacks",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := opts.statusFilter(survey.KindPawprintStack)
			if err != nil {
				return err
			}
			return withStore(opts.RootOptions, func(ctx context.Context, s *store.Store) error {
				paws, err := s.ListPawprintStacks(ctx, statuses...)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list pawprint stacks", err)
				}
				renderPawprints(cmd.OutOrStdout(), paws)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Statuses, "status", "s", nil, "filter by status (repeatable)")
	return cmd
}

// NewLsSyncCommand lists tile/pawprint associations.
func NewLsSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &lsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "ls-sync",
		Short:        "List tile and pawprint match associations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := opts.statusFilter(survey.KindPawprintXTile)
			if err != nil {
				return err
			}
			return withStore(opts.RootOptions, func(ctx context.Context, s *store.Store) error {
				assocs, err := s.ListPawprintXTiles(ctx, statuses...)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list associations", err)
				}
				renderAssociations(cmd.OutOrStdout(), assocs)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Statuses, "status", "s", nil, "filter by status (repeatable)")
	return cmd
}

// withStore opens the configured store, runs fn and closes it.
func withStore(opts *RootOptions, fn func(context.Context, *store.Store) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(context.Background(), s)
}

func renderTiles(w io.Writer, tiles []*survey.Tile) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tOGLE3\tSIZE\tREADY")
	for _, t := range tiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%t\n",
			t.Name, t.Status, t.OGLE3Tagged, t.Size, t.Ready)
	}
	tw.Flush()
	fmt.Fprintf(w, "Count: %d\n", len(tiles))
}

func renderPawprints(w io.Writer, paws []*survey.PawprintStack) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tBAND\tMJD\tSIZE")
	for _, p := range paws {
		band := p.Band
		if band == "" {
			band = "-"
		}
		mjd := "-"
		if p.MJD != 0 {
			mjd = fmt.Sprintf("%.6f", p.MJD)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.Name, p.Status, band, mjd, p.Size)
	}
	tw.Flush()
	fmt.Fprintf(w, "Count: %d\n", len(paws))
}

func renderAssociations(w io.Writer, assocs []*survey.PawprintXTile) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TILE\tPAWPRINT\tSTATUS\tMATCHED")
	for _, x := range assocs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			x.TileName, x.PawprintName, x.Status, x.MatchedNumber)
	}
	tw.Flush()
	fmt.Fprintf(w, "Count: %d\n", len(assocs))
}
