package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fetchgraph/sketch/internal/catalog"
)

// CatalogEntity is one entity in the catalog command's wire payload.
type CatalogEntity struct {
	Name      string            `json:"name"`
	Fields    []string          `json:"fields"`
	Relations []CatalogRelation `json:"relations"`
}

// CatalogRelation is one relation edge in the catalog command's payload.
type CatalogRelation struct {
	Name    string `json:"name"`
	Target  string `json:"target"`
	FromKey string `json:"from_key"`
	ToKey   string `json:"to_key"`
}

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog <file>",
		Short: "Load an entity catalog and print its contents",
		Long: `Load a catalog from YAML, CUE, or a SQLite database and print the
entities, their fields, and their relations. Useful for checking what
a sketch can reference before writing it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, args[0], cmd)
		},
	}
}

func runCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := NewFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	spec, err := loadSpec(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading spec", err)
	}
	cat, err := loadCatalog(path, spec)
	if err != nil {
		if ferr := formatter.Error("CATALOG_LOAD", err.Error(), nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "loading catalog", err)
	}

	entities := describeCatalog(cat)
	return formatter.SuccessText(renderCatalogText(entities), entities)
}

func describeCatalog(cat *catalog.Catalog) []CatalogEntity {
	var out []CatalogEntity
	for _, name := range cat.Entities() {
		e, _ := cat.Entity(name)
		item := CatalogEntity{Name: e.Name, Fields: []string{}, Relations: []CatalogRelation{}}
		for _, f := range e.Fields {
			item.Fields = append(item.Fields, f.Name)
		}
		for _, r := range e.Relations {
			item.Relations = append(item.Relations, CatalogRelation{
				Name: r.Name, Target: r.Target, FromKey: r.FromKey, ToKey: r.ToKey,
			})
		}
		out = append(out, item)
	}
	return out
}

func renderCatalogText(entities []CatalogEntity) string {
	var b strings.Builder
	for i, e := range entities {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", e.Name)
		fmt.Fprintf(&b, "  fields: %s\n", strings.Join(e.Fields, ", "))
		for _, r := range e.Relations {
			fmt.Fprintf(&b, "  relation %s -> %s (%s = %s)\n", r.Name, r.Target, r.FromKey, r.ToKey)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
