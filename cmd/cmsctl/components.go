package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/blockcms/internal/component"
	"github.com/spf13/cobra"
)

func (a *app) componentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Inspect the component catalog",
	}

	var category string
	list := &cobra.Command{
		Use:   "list",
		Short: "List component types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog := component.Default()
			defs := catalog.All()
			if category != "" {
				defs = catalog.ByCategory(category)
				if len(defs) == 0 {
					return fmt.Errorf("no components in category %q", category)
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tCATEGORY\tNAME\tFIELDS")
			for _, def := range defs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", def.Type, def.Category, def.Name, len(def.Fields))
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&category, "category", "", "only show one category")

	cmd.AddCommand(list)
	return cmd
}
