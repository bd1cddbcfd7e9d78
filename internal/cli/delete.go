package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
	"github.com/weftdb/weft/pkg/resource"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a resource by ID",
		Long: `Delete removes a resource. A resource still referenced through a
required relationship is rejected with a constraint violation.

Example:
  weft delete work_items W1`,
		Args: cobra.ExactArgs(2),
		RunE: runDelete,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	typeName, id := args[0], args[1]

	return withRepository(typeName, nil, func(ctx context.Context, r *repo.Repository) error {
		if err := r.Delete(ctx, id); err != nil {
			if errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("%s %q not found", typeName, id)
			}
			if resource.IsConstraintViolation(err) {
				return fmt.Errorf("%s %q is still referenced: %s", typeName, id, err)
			}
			return err
		}
		return nil
	})
}
