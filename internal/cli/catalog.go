// Catalog decoding: the resources section of weft.yaml becomes the typed
// catalog the store and repositories operate on.
package cli

import (
	"fmt"

	"github.com/weftdb/weft/pkg/resource"
)

// resourceDecl is one resource type declaration from weft.yaml.
type resourceDecl struct {
	Name          string     `mapstructure:"name"`
	Table         string     `mapstructure:"table"`
	Attributes    []attrDecl `mapstructure:"attributes"`
	Relationships []relDecl  `mapstructure:"relationships"`
}

type attrDecl struct {
	Name   string `mapstructure:"name"`
	Column string `mapstructure:"column"`
	Type   string `mapstructure:"type"`
}

type relDecl struct {
	Name       string `mapstructure:"name"`
	Kind       string `mapstructure:"kind"`
	Target     string `mapstructure:"target"`
	Inverse    string `mapstructure:"inverse"`
	ForeignKey string `mapstructure:"foreign_key"`
	OwnsKey    bool   `mapstructure:"owns_key"`
	Required   bool   `mapstructure:"required"`
	Through    string `mapstructure:"through"`
	LocalKey   string `mapstructure:"local_key"`
	TargetKey  string `mapstructure:"target_key"`
}

// buildCatalog converts the declared resource types into a validated catalog.
func buildCatalog(decls []resourceDecl) (*resource.Catalog, error) {
	if len(decls) == 0 {
		return nil, fmt.Errorf("no resources declared in %s", configFileExt)
	}

	types := make([]*resource.ResourceType, 0, len(decls))
	for _, d := range decls {
		t := &resource.ResourceType{
			Name:  d.Name,
			Table: d.Table,
		}
		for _, a := range d.Attributes {
			t.Attributes = append(t.Attributes, resource.Attribute{
				Name:   a.Name,
				Column: a.Column,
				Type:   a.Type,
			})
		}
		for _, r := range d.Relationships {
			kind := resource.KindFromString(r.Kind)
			if kind == 0 {
				return nil, fmt.Errorf("resource %q relationship %q: unknown kind %q", d.Name, r.Name, r.Kind)
			}
			t.Relationships = append(t.Relationships, resource.Relationship{
				Name:       r.Name,
				Kind:       kind,
				Target:     r.Target,
				Inverse:    r.Inverse,
				ForeignKey: r.ForeignKey,
				OwnsKey:    r.OwnsKey,
				Required:   r.Required,
				Through:    r.Through,
				LocalKey:   r.LocalKey,
				TargetKey:  r.TargetKey,
			})
		}
		types = append(types, t)
	}

	return resource.NewCatalog(types...)
}
