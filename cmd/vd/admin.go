package main

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/auth"
	"github.com/alfredjeanlab/prestataires/internal/client"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:     "upload <vendor-id> <image>",
	Short:   "Upload a photo for a vendor",
	GroupID: "admin",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vendorID, path := args[0], args[1]
		principale, _ := cmd.Flags().GetBool("principale")
		cover, _ := cmd.Flags().GetBool("cover")
		order, _ := cmd.Flags().GetInt("order")

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		p, err := adminClient().UploadPhoto(cmd.Context(), &client.UploadPhotoRequest{
			VendorID:    vendorID,
			ContentType: mime.TypeByExtension(filepath.Ext(path)),
			Data:        data,
			Principale:  principale,
			IsCover:     cover,
			Order:       order,
		})
		if err != nil {
			return fmt.Errorf("uploading %s: %w", path, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s: %s\n", p.ID, p.URL)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a vendor and its photos",
	GroupID: "admin",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := adminClient().DeleteVendor(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:     "token",
	Short:   "Sign a bearer token with the server secret",
	GroupID: "admin",
	Args:    cobra.NoArgs,
	// Offline operation; no client is needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, _ := cmd.Flags().GetString("secret")
		role, _ := cmd.Flags().GetString("role")
		subject, _ := cmd.Flags().GetString("subject")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		if secret == "" {
			return fmt.Errorf("no secret: set PRESTATAIRES_JWT_SECRET or pass --secret")
		}
		switch role {
		case auth.RoleAnon, auth.RoleAuthenticated, auth.RoleAdmin, auth.RoleService:
		default:
			return fmt.Errorf("unknown role %q", role)
		}
		tok, err := auth.NewVerifier(secret).Issue(auth.Session{Subject: subject, Role: role, Email: email}, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	uploadCmd.Flags().Bool("principale", false, "show this photo on listing cards")
	uploadCmd.Flags().Bool("cover", false, "use as the detail page cover")
	uploadCmd.Flags().Int("order", 0, "display order")

	tokenCmd.Flags().String("secret", os.Getenv("PRESTATAIRES_JWT_SECRET"), "signing secret")
	tokenCmd.Flags().String("role", auth.RoleAdmin, "session role (anon, authenticated, admin, service_role)")
	tokenCmd.Flags().String("subject", "vd", "subject claim")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "validity")
}
