package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/pkg/repo"
	"github.com/weftdb/weft/pkg/resource"
)

func newSetCmd() *cobra.Command {
	var (
		data string
		rels []string
	)

	cmd := &cobra.Command{
		Use:   "set <type> [id]",
		Short: "Create or update a resource",
		Long: `Set creates a resource (no id given) or updates an existing one.
Attributes are passed as a JSON object; relationships as name=id pairs,
with comma-separated ids for collections and an empty value for null.

Example:
  weft set work_items --data '{"title":"Fix the roof","points":3}'
  weft set work_items W1 --data '{"points":5}' --rel assignee=U2
  weft set work_items W1 --rel tags=T1,T2
  weft set work_items W1 --rel assignee=`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd, args, data, rels)
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "attributes as a JSON object")
	cmd.Flags().StringArrayVar(&rels, "rel", nil, "relationship as name=id[,id...] (repeatable)")

	return cmd
}

func runSet(cmd *cobra.Command, args []string, data string, rels []string) error {
	typeName := args[0]

	st, catalog, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	t, ok := catalog.Type(typeName)
	if !ok {
		return fmt.Errorf("unknown resource type %q", typeName)
	}

	req := resource.New(typeName, "")
	var fields resource.TargetedFields

	if data != "" {
		var raw map[string]any
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return fmt.Errorf("parse --data: %w", err)
		}
		attrs, err := coerceAttrs(t, raw)
		if err != nil {
			return err
		}
		for name, v := range attrs {
			req.SetAttr(name, v)
			fields.Attributes = append(fields.Attributes, name)
		}
	}

	for _, expr := range rels {
		name, err := applyRelExpr(t, req, expr)
		if err != nil {
			return err
		}
		fields.Relationships = append(fields.Relationships, name)
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

	if len(args) == 1 {
		persisted, err := r.Create(ctx, req, fields)
		if err != nil {
			return err
		}
		if flags.jsonMode {
			return printJSON(cmd, map[string]string{"id": persisted.ID})
		}
		fmt.Fprintln(cmd.OutOrStdout(), persisted.ID)
		return nil
	}

	id := args[1]
	db, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return r.Update(ctx, req, db, fields)
}

// applyRelExpr parses one name=id[,id...] relationship expression and sets
// the navigation on req in the shape the catalog declares. An empty value
// means null for to-one and the empty collection for to-many.
func applyRelExpr(t *resource.ResourceType, req *resource.Resource, expr string) (string, error) {
	name, value, ok := strings.Cut(expr, "=")
	if !ok {
		return "", fmt.Errorf("invalid relationship %q (expected name=id[,id...])", expr)
	}
	rel, found := t.Relationship(name)
	if !found {
		return "", fmt.Errorf("unknown relationship %q on %q", name, t.Name)
	}

	if rel.Kind == resource.ToOne {
		if strings.Contains(value, ",") {
			return "", fmt.Errorf("relationship %q is to-one, got multiple ids", name)
		}
		if value == "" {
			req.SetToOne(name, nil)
		} else {
			req.SetToOne(name, resource.New(rel.Target, value))
		}
		return name, nil
	}

	var members []*resource.Resource
	if value != "" {
		for _, id := range strings.Split(value, ",") {
			members = append(members, resource.New(rel.Target, id))
		}
	}
	req.SetToMany(name, members)
	return name, nil
}
