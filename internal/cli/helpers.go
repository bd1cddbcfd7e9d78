// Shared helpers for weft CLI commands: store wiring, attribute coercion,
// and output rendering.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/weftdb/weft/internal/paths"
	"github.com/weftdb/weft/pkg/repo"
	"github.com/weftdb/weft/pkg/resource"
	"github.com/weftdb/weft/pkg/sqlstore"
	"github.com/weftdb/weft/pkg/store"
)

// openStore resolves the configuration, builds the catalog, and opens the
// configured store. The caller must Close the returned store.
func openStore() (*sqlstore.Store, *resource.Catalog, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := buildCatalog(cfg.Resources)
	if err != nil {
		return nil, nil, err
	}
	storeCfg, err := cfg.storeConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := sqlstore.Open(storeCfg, catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, catalog, nil
}

// withRepository opens the store, begins a unit of work, creates a
// repository for typeName, and runs fn. Applied options are forwarded to the
// repository.
func withRepository(typeName string, opts []repo.Option, fn func(ctx context.Context, r *repo.Repository) error) error {
	st, catalog, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	sess, err := st.Begin(ctx)
	if err != nil {
		return err
	}
	r, err := repo.New(sess, catalog, typeName, opts...)
	if err != nil {
		return err
	}
	return fn(ctx, r)
}

// coerceAttrs converts JSON-decoded attribute values to the catalog-declared
// types. JSON numbers arrive as float64; integer attributes narrow them.
func coerceAttrs(t *resource.ResourceType, attrs map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(attrs))
	for name, v := range attrs {
		attr, ok := t.Attribute(name)
		if !ok {
			return nil, fmt.Errorf("unknown attribute %q on %q", name, t.Name)
		}
		coerced, err := coerceAttr(attr, v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = coerced
	}
	return out, nil
}

func coerceAttr(attr resource.Attribute, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch attr.Type {
	case resource.AttrInt:
		switch n := v.(type) {
		case float64:
			return int64(n), nil
		case int64:
			return n, nil
		}
		return nil, fmt.Errorf("expected integer, got %T", v)
	case resource.AttrFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("expected number, got %T", v)
	case resource.AttrBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case resource.AttrTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected RFC 3339 string, got %T", v)
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, err
		}
		return ts, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	}
}

// resourceDoc is the serialized shape of a resource for CLI output.
type resourceDoc struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func docFor(res *resource.Resource) resourceDoc {
	return resourceDoc{Type: res.Type, ID: res.ID, Attributes: res.Attrs}
}

// printResource renders one resource in JSON or text mode.
func printResource(cmd *cobra.Command, res *resource.Resource) error {
	if flags.jsonMode {
		return printJSON(cmd, docFor(res))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s/%s\n", res.Type, res.ID)
	names := make([]string, 0, len(res.Attrs))
	for name := range res.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %v\n", name, res.Attrs[name])
	}
	return nil
}

// printResources renders a resource list in JSON or text mode.
func printResources(cmd *cobra.Command, list []*resource.Resource) error {
	if flags.jsonMode {
		docs := make([]resourceDoc, 0, len(list))
		for _, res := range list {
			docs = append(docs, docFor(res))
		}
		return printJSON(cmd, docs)
	}
	for _, res := range list {
		if err := printResource(cmd, res); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// listApplier translates the list command's flag values into a constraint
// applier for the repository read path.
func listApplier(filters []string, sortBy string, desc bool, limit, offset int) (store.ConstraintApplier, error) {
	conds := make([]store.Condition, 0, len(filters))
	for _, f := range filters {
		cond, err := parseFilter(f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return store.ApplierFunc(func(src store.Source) store.Source {
		src.Filter = append(src.Filter, conds...)
		if sortBy != "" {
			src.Sort = append(src.Sort, store.Order{Attribute: sortBy, Descending: desc})
		}
		src.Limit = limit
		src.Offset = offset
		return src
	}), nil
}

// filterOps is ordered so that two-character operators match before their
// one-character prefixes.
var filterOps = []string{store.OpNe, store.OpLe, store.OpGe, store.OpEq, store.OpLt, store.OpGt}

// parseFilter parses one attribute comparison such as "points>=3" or
// "title=Fix the roof". The value is JSON-decoded when possible so numbers
// and booleans compare as such; anything else stays a string.
func parseFilter(expr string) (store.Condition, error) {
	for i := 1; i < len(expr); i++ {
		for _, op := range filterOps {
			if len(expr) >= i+len(op) && expr[i:i+len(op)] == op {
				attr, raw := expr[:i], expr[i+len(op):]
				var value any
				if err := json.Unmarshal([]byte(raw), &value); err != nil {
					value = raw
				}
				return store.Condition{Attribute: attr, Op: op, Value: value}, nil
			}
		}
	}
	return store.Condition{}, fmt.Errorf("invalid filter %q (expected attr<op>value)", expr)
}
