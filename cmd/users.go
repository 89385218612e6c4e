package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/atenas/admin-console/internal/app"
	"github.com/atenas/admin-console/internal/core/domain"
	"github.com/atenas/admin-console/internal/guard"
	"github.com/atenas/admin-console/internal/pkg/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manages users (requires an ADMIN session)",
}

// adminApp bootstraps the application and checks the stored session against
// the same gates as the users view.
func adminApp(cmd *cobra.Command) (*app.App, error) {
	a, cfg, err := bootstrap(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Backend == config.BackendMemory && cmd.Name() != "list" {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: BACKEND=memory keeps user changes for this run only; use BACKEND=mongo to keep them")
	}
	a.Session.ExpireIfStale(cmd.Context())
	if d := guard.Evaluate(a.Session, guard.Authenticated(), guard.Role(domain.RoleAdmin)); !d.Allowed {
		_ = a.Close(cmd.Context())
		return nil, fmt.Errorf("access denied: %s required (sign in with an ADMIN account)", d.Failed)
	}
	return a, nil
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := adminApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		users, err := a.Users.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
		}
		return w.Flush()
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		pw, _ := cmd.Flags().GetString("password")
		roleFlag, _ := cmd.Flags().GetString("role")

		role, ok := domain.ParseRole(roleFlag)
		if !ok {
			return fmt.Errorf("invalid role %q", roleFlag)
		}

		a, err := adminApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		pw, err = readPassword(cmd, pw, "New user password: ")
		if err != nil {
			return err
		}
		u, err := a.Users.Create(cmd.Context(), domain.UserInput{Name: name, Email: email, Password: pw, Role: role})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s>\n", u.ID, u.Email)
		return nil
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Updates a user; omitted flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		pw, _ := cmd.Flags().GetString("password")
		roleFlag, _ := cmd.Flags().GetString("role")

		var role domain.Role
		if roleFlag != "" {
			r, ok := domain.ParseRole(roleFlag)
			if !ok {
				return fmt.Errorf("invalid role %q", roleFlag)
			}
			role = r
		}

		a, err := adminApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		u, err := a.Users.Update(cmd.Context(), id, domain.UserUpdate{Name: name, Email: email, Role: role, Password: pw})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated user %d <%s> role=%s\n", u.ID, u.Email, u.Role)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Deletes a user other than the signed-in one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		a, err := adminApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close(cmd.Context())

		if err := a.Users.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d\n", id)
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().String("name", "", "full name")
	usersCreateCmd.Flags().String("email", "", "account email")
	usersCreateCmd.Flags().String("password", "", "account password (prompted when empty)")
	usersCreateCmd.Flags().String("role", string(domain.RoleUser), "ADMIN or USER")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("email")

	usersUpdateCmd.Flags().String("name", "", "new name")
	usersUpdateCmd.Flags().String("email", "", "new email")
	usersUpdateCmd.Flags().String("password", "", "new password")
	usersUpdateCmd.Flags().String("role", "", "new role: ADMIN or USER")

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
