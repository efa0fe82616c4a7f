package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long: `Sign in and remember the session in the system keyring.

Examples:
  geotask login --email ada@example.com
  geotask login --backend remote --server https://tasks.example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, false)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuth(cmd, true)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.sessions.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		u, err := rt.sessions.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		if u == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run: geotask login")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.Email)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "Account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Password (prompted when omitted)")
	}
}

func runAuth(cmd *cobra.Command, register bool) error {
	if err := promptCredentials(); err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if register {
		u, err := rt.sessions.Register(ctx, authEmail, authPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s\n", u.Email)
		return nil
	}

	u, err := rt.sessions.Login(ctx, authEmail, authPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", u.Email)
	return nil
}

// promptCredentials asks for whatever was not given as a flag.
func promptCredentials() error {
	var fields []huh.Field
	if strings.TrimSpace(authEmail) == "" {
		fields = append(fields, huh.NewInput().Title("Email").Value(&authEmail))
	}
	if authPassword == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&authPassword))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}
