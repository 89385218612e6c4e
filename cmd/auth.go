package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atenas/admin-console/internal/core/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Signs in and stores the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		pw, _ := cmd.Flags().GetString("password")
		remember, _ := cmd.Flags().GetBool("remember")

		a, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		pw, err = readPassword(cmd, pw, "Password: ")
		if err != nil {
			return err
		}
		res, err := a.Auth.Login(cmd.Context(), email, pw, remember)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", res.User.Email, res.User.Role)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Creates a USER account and signs it in for this run",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		pw, _ := cmd.Flags().GetString("password")
		terms, _ := cmd.Flags().GetBool("agree-terms")

		a, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		pw, err = readPassword(cmd, pw, "Password: ")
		if err != nil {
			return err
		}
		res, err := a.Auth.Register(cmd.Context(), domain.RegisterInput{Name: name, Email: email, Password: pw, AgreeTerms: terms})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "registered %s with id %d\n", res.User.Email, res.User.ID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clears the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if err := a.Auth.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Prints the user of the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		a.Session.ExpireIfStale(cmd.Context())
		u, ok := a.Auth.CurrentUser()
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "not signed in (%s)\n", a.Restored)
			return nil
		}
		tier, _ := a.Session.Tier()
		fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> id=%d role=%s tier=%s\n", u.Name, u.Email, u.ID, u.Role, tier)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password (prompted when empty)")
	loginCmd.Flags().Bool("remember", false, "keep the session across restarts")
	_ = loginCmd.MarkFlagRequired("email")

	registerCmd.Flags().String("name", "", "full name")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password (prompted when empty)")
	registerCmd.Flags().Bool("agree-terms", false, "accept the terms of use")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}
