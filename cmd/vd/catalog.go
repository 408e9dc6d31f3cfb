package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Short:   "List vendor categories",
	GroupID: "browse",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := vendorsClient.Categories(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cats)
		}
		for _, c := range cats {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:     "regions",
	Short:   "List regions",
	GroupID: "browse",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := vendorsClient.Regions(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing regions: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), regions)
		}
		for _, r := range regions {
			fmt.Fprintln(cmd.OutOrStdout(), r)
		}
		return nil
	},
}
