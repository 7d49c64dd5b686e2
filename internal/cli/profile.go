package cli

import (
	"context"
	"fmt"

	"github.com/existflow/edugo/internal/gateway"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	RunE:  runProfileShow,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit name and description",
	Long: `Edit profile fields. Only the flags you pass are changed.

Examples:
  edugo profile edit --first-name Ana
  edugo profile edit --description "Backend developer"`,
	RunE: runProfileEdit,
}

var profileAvatarCmd = &cobra.Command{
	Use:   "avatar <image-file>",
	Short: "Upload a profile picture",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileAvatar,
}

var profileUpdate gateway.ProfileUpdate

func init() {
	profileCmd.AddCommand(profileEditCmd)
	profileCmd.AddCommand(profileAvatarCmd)

	profileEditCmd.Flags().StringVar(&profileUpdate.FirstName, "first-name", "", "First name")
	profileEditCmd.Flags().StringVar(&profileUpdate.LastName, "last-name", "", "Last name")
	profileEditCmd.Flags().StringVar(&profileUpdate.Description, "description", "", "About you")
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		p, err := a.accounts.Profile(ctx)
		if err != nil {
			return fmt.Errorf("failed to load profile: %s", describeError(err))
		}

		fmt.Printf("👤 %s\n", p.FullName())
		fmt.Printf("Email: %s\n", p.Email)
		fmt.Printf("Plan:  %s\n", p.Plan)
		fmt.Printf("Role:  %s\n", p.Role)
		if p.PhotoURL != "" {
			fmt.Printf("Photo: %s\n", p.PhotoURL)
		}
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
		return nil
	})
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	if profileUpdate == (gateway.ProfileUpdate{}) {
		return fmt.Errorf("nothing to change, pass --first-name, --last-name or --description")
	}

	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}
		if err := a.accounts.UpdateProfile(ctx, profileUpdate); err != nil {
			return fmt.Errorf("failed to update profile: %s", describeError(err))
		}
		fmt.Println("✅ Profile updated.")
		return nil
	})
}

func runProfileAvatar(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		fmt.Println("🔄 Uploading...")
		url, err := a.accounts.SetAvatar(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to set avatar: %s", describeError(err))
		}
		fmt.Printf("✅ Avatar updated: %s\n", url)
		return nil
	})
}
