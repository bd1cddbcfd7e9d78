package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
)

func newCountCmd() *cobra.Command {
	var filters []string

	cmd := &cobra.Command{
		Use:   "count <type>",
		Short: "Count resources with optional filters",
		Long: `Count returns the number of resources of the given type matching
the filters.

Example:
  weft count work_items --filter "points>=3"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applier, err := listApplier(filters, "", false, 0, 0)
			if err != nil {
				return err
			}
			opts := []repo.Option{repo.WithConstraintApplier(applier)}
			return withRepository(args[0], opts, func(ctx context.Context, r *repo.Repository) error {
				n, err := r.Count(ctx)
				if err != nil {
					return err
				}
				if flags.jsonMode {
					return printJSON(cmd, map[string]int{"count": n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "attribute comparison, e.g. points>=3 (repeatable)")

	return cmd
}
