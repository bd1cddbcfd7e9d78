package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
)

func newListCmd() *cobra.Command {
	var (
		filters []string
		sortBy  string
		desc    bool
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "list <type>",
		Short: "List resources with optional filters",
		Long: `List queries resources of the given type. Filters are attribute
comparisons (=, !=, <, <=, >, >=) ANDed together.

Example:
  weft list work_items
  weft list work_items --filter "points>=3" --sort title --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applier, err := listApplier(filters, sortBy, desc, limit, offset)
			if err != nil {
				return err
			}
			opts := []repo.Option{repo.WithConstraintApplier(applier)}
			return withRepository(args[0], opts, func(ctx context.Context, r *repo.Repository) error {
				list, err := r.Fetch(ctx)
				if err != nil {
					return err
				}
				return printResources(cmd, list)
			})
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "attribute comparison, e.g. points>=3 (repeatable)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "attribute to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 = no limit)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of results to skip")

	return cmd
}
