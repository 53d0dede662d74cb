package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"masteraccount/internal/catalog"
)

func newCatalogCommand() *cobra.Command {
	var (
		path    string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the platforms and actions guides are published for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			if path != "" {
				var err error
				if cat, err = catalog.Load(path); err != nil {
					return err
				}
			}

			if jsonOut {
				return printCatalogJSON(cmd, cat)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tPLATFORM")
			for _, c := range cat.Categories() {
				for _, p := range c.Platforms {
					fmt.Fprintf(w, "%s\t%s\n", c.Name, p)
				}
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "ACTION\tKEY")
			for _, a := range cat.Actions() {
				fmt.Fprintf(w, "%s\t%s\n", a.Name, a.Key)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "Catalog YAML file (default: built-in catalog)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func printCatalogJSON(cmd *cobra.Command, cat *catalog.Catalog) error {
	type action struct {
		Name string `json:"name"`
		Key  string `json:"key"`
	}
	type category struct {
		Name      string   `json:"name"`
		Platforms []string `json:"platforms"`
	}

	out := struct {
		Categories []category `json:"categories"`
		Actions    []action   `json:"actions"`
	}{}
	for _, c := range cat.Categories() {
		out.Categories = append(out.Categories, category{Name: c.Name, Platforms: c.Platforms})
	}
	for _, a := range cat.Actions() {
		out.Actions = append(out.Actions, action{Name: a.Name, Key: a.Key})
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
