package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show details of a vendor",
	GroupID: "browse",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		v, err := vendorsClient.GetVendor(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("getting vendor %s: %w", id, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), v)
		}
		printVendorDetail(cmd.OutOrStdout(), v)
		return nil
	},
}

var photosCmd = &cobra.Command{
	Use:     "photos <id>",
	Short:   "List a vendor's photos",
	GroupID: "browse",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		primary, _ := cmd.Flags().GetBool("primary")

		if primary {
			p, err := vendorsClient.PrimaryPhoto(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("getting primary photo of %s: %w", id, err)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), p)
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no photo")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.URL)
			return nil
		}

		photos, err := vendorsClient.ListPhotos(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("listing photos of %s: %w", id, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), photos)
		}
		printPhotoTable(cmd.OutOrStdout(), photos)
		return nil
	},
}

func init() {
	photosCmd.Flags().Bool("primary", false, "only print the photo shown on listing cards")
}
