// Relationship commands: set replaces a relationship's value outright; add
// and remove edit a collection's membership.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
	"github.com/weftdb/weft/pkg/resource"
)

func newRelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rel",
		Short: "Edit resource relationships",
	}
	cmd.AddCommand(newRelSetCmd())
	cmd.AddCommand(newRelAddCmd())
	cmd.AddCommand(newRelRemoveCmd())
	return cmd
}

func newRelSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <type> <id> <relationship> [target-id...]",
		Short: "Replace a relationship's value",
		Long: `Set replaces the relationship outright. For a to-one relationship
give at most one target id; none clears it. For a collection the given ids
become the complete membership; none empties it.

Example:
  weft rel set work_items W1 assignee U2
  weft rel set work_items W1 assignee
  weft rel set work_items W1 tags T1 T2`,
		Args: cobra.MinimumNArgs(3),
		RunE: runRelSet,
	}
}

func runRelSet(cmd *cobra.Command, args []string) error {
	typeName, id, relName := args[0], args[1], args[2]
	targetIDs := args[3:]

	st, catalog, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	t, ok := catalog.Type(typeName)
	if !ok {
		return fmt.Errorf("unknown resource type %q", typeName)
	}
	rel, ok := t.Relationship(relName)
	if !ok {
		return fmt.Errorf("unknown relationship %q on %q", relName, typeName)
	}

	var value any
	if rel.Kind == resource.ToOne {
		switch len(targetIDs) {
		case 0:
			value = (*resource.Resource)(nil)
		case 1:
			value = resource.New(rel.Target, targetIDs[0])
		default:
			return fmt.Errorf("relationship %q is to-one, got %d ids", relName, len(targetIDs))
		}
	} else {
		members := make([]*resource.Resource, 0, len(targetIDs))
		for _, targetID := range targetIDs {
			members = append(members, resource.New(rel.Target, targetID))
		}
		value = members
	}

	ctx := context.Background()
	sess, err := st.Begin(ctx)
	if err != nil {
		return err
	}
	r, err := repo.New(sess, catalog, typeName)
	if err != nil {
		return err
	}
	return r.SetRelationship(ctx, id, relName, value)
}

func newRelAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <type> <id> <relationship> <target-id...>",
		Short: "Add members to a collection relationship",
		Long: `Add inserts the given ids into the collection. Ids already present
are tolerated.

Example:
  weft rel add work_items W1 tags T3`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(args[0], nil, func(ctx context.Context, r *repo.Repository) error {
				return r.AddToMany(ctx, args[1], args[2], args[3:])
			})
		},
	}
}

func newRelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <type> <id> <relationship> <target-id...>",
		Short: "Remove members from a collection relationship",
		Long: `Remove drops the given ids from the collection. Ids not currently
in the collection have no effect.

Example:
  weft rel remove work_items W1 tags T3`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(args[0], nil, func(ctx context.Context, r *repo.Repository) error {
				return r.RemoveFromMany(ctx, args[1], args[2], args[3:])
			})
		},
	}
}
