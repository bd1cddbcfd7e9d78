package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
	"github.com/weftdb/weft/pkg/resource"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <type> <id>",
		Short: "Get a resource by ID",
		Long: `Get retrieves a resource of the given type by its ID.

Example:
  weft get work_items 0198ab4e-7f10-7c2a-9a4c-1f0d6b3e8a21`,
		Args: cobra.ExactArgs(2),
		RunE: runGet,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	typeName, id := args[0], args[1]

	return withRepository(typeName, nil, func(ctx context.Context, r *repo.Repository) error {
		res, err := r.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("%s %q not found", typeName, id)
			}
			return err
		}
		return printResource(cmd, res)
	})
}
