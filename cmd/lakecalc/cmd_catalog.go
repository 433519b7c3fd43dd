package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the IOL family catalog",
	}
	cmd.AddCommand(newCatalogFamiliesCommand())
	cmd.AddCommand(newCatalogPowersCommand())
	return cmd
}

func newCatalogFamiliesCommand() *cobra.Command {
	var (
		dbPath    string
		toricOnly bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "families",
		Short: "List the IOL families and their lens constants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore() //nolint:errcheck

			list := store.Families
			if toricOnly {
				list = store.ToricFamilies
			}
			families, err := list(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(families)
			}
			for _, f := range families {
				fmt.Fprintf(out, "%-16s %s %s (A=%.1f, %d toric powers)\n",
					f.ID, f.Brand, f.Name, f.AConstant, len(f.Toric))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite catalog database (default: embedded catalog)")
	cmd.Flags().BoolVar(&toricOnly, "toric", false, "Only list families with toric models")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}

func newCatalogPowersCommand() *cobra.Command {
	var (
		familyID string
		dbPath   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "powers",
		Short: "List a family's toric cylinder powers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			defer closeStore() //nolint:errcheck

			family, err := store.Family(ctx, familyID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(family.Toric)
			}
			if len(family.Toric) == 0 {
				fmt.Fprintf(out, "%s has no toric models\n", family.ID)
				return nil
			}
			for _, t := range family.Toric {
				fmt.Fprintf(out, "%-10s %.2fD IOL plane, %.2fD corneal plane\n", t.SKU, t.IOLCyl, t.CornealCyl)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&familyID, "family", "", "IOL family identifier")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite catalog database (default: embedded catalog)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}
