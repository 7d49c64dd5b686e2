package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/existflow/edugo/internal/account"
	"github.com/existflow/edugo/internal/validate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Sign in, sign out or create an EduGo student account.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new student account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

var registerPlan string

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("email", "", "Account email (prompted when empty)")
	registerCmd.Flags().StringVar(&registerPlan, "plan", account.DefaultPlan, "Subscription plan")
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func promptPassword(label string) string {
	fmt.Print(label)
	passwordBytes, _ := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	return string(passwordBytes)
}

func runLogin(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		reader := bufio.NewReader(os.Stdin)

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email = prompt(reader, "Email: ")
		}
		password := promptPassword("Password: ")

		if email == "" || password == "" {
			fmt.Println("❌ Email and password are required.")
			return nil
		}

		fmt.Println("🔄 Logging in...")
		if _, err := a.accounts.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login failed: %s", describeError(err))
		}

		fmt.Println("✅ Logged in successfully!")
		return nil
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, ok := a.sessions.Current(); !ok {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Println("🔄 Logging out...")
		if err := a.accounts.Logout(ctx); err != nil {
			return err
		}

		fmt.Println("✅ Logged out successfully.")
		return nil
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		reader := bufio.NewReader(os.Stdin)

		in := account.Registration{Plan: registerPlan}
		in.FirstName = prompt(reader, "First name: ")
		in.LastName = prompt(reader, "Last name: ")
		in.Email = prompt(reader, "Email: ")
		in.Password = promptPassword("Password: ")
		in.ConfirmPassword = promptPassword("Confirm Password: ")

		if err := validate.Registration(in.RegistrationInput); err != nil {
			return err
		}

		fmt.Println("🔄 Creating account...")
		profile, err := a.accounts.Register(ctx, in)
		if err != nil {
			return fmt.Errorf("registration failed: %s", describeError(err))
		}

		fmt.Printf("✅ Welcome, %s! Account created and logged in.\n", profile.FullName())
		return nil
	})
}

func runWhoami(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if _, err := a.requireSession(); err != nil {
			return err
		}

		user, err := a.accounts.WhoAmI(ctx)
		if err != nil {
			if sessionExpired(err) {
				return fmt.Errorf("session expired, run 'edugo auth login' again")
			}
			return fmt.Errorf("failed to verify session: %s", describeError(err))
		}

		profile, err := a.accounts.Profile(ctx)
		if err != nil {
			return fmt.Errorf("failed to load profile: %s", describeError(err))
		}

		fmt.Printf("👤 %s <%s>\n", profile.FullName(), user.Email)
		fmt.Printf("   ID: %s\n", user.ID)
		fmt.Printf("   Plan: %s  Role: %s\n", profile.Plan, profile.Role)
		return nil
	})
}
