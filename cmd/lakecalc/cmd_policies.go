package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lake-health/lakecalc-ai/internal/policy"
)

func newPoliciesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the named toric policy presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if asJSON {
				policies := make([]policy.ToricPolicy, 0)
				for _, name := range policy.Names() {
					p, err := policy.Get(name)
					if err != nil {
						return err
					}
					policies = append(policies, p)
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(policies)
			}

			for _, name := range policy.Names() {
				p, err := policy.Get(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == policy.DefaultName {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-14s %s\n", marker, name, p.Description)
			}
			fmt.Fprintln(out, "\n* default")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full policy definitions as JSON")
	return cmd
}
