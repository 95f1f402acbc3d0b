package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/cache"
	"github.com/gudangapp/gudang/internal/model"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and manage staff accounts",
}

var (
	flagUserEmail string
	flagUserPhone string
	flagUserRole  string
)

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		users, err := app.client.ListUsers(ctx)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(users)
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tNAME\tROLE\tEMAIL")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Role, u.Email)
		}
		return w.Flush()
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a staff account (the password is set on first login)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		user, err := app.client.CreateUser(ctx, model.NewUser{Name: args[0]})
		if err != nil {
			return err
		}
		app.store.Invalidate(cache.K("users"))

		if flagJSON {
			return printJSON(user)
		}
		fmt.Printf("created user %s (%s)\n", user.Name, user.ID)
		return nil
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a staff account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		patch := model.UpdateUser{
			Email:       changedString(cmd, "email", flagUserEmail),
			PhoneNumber: changedString(cmd, "phone", flagUserPhone),
			Role:        changedString(cmd, "role", flagUserRole),
		}

		resp, err := app.client.UpdateUser(ctx, args[0], patch)
		if err != nil {
			return err
		}
		app.store.Invalidate(cache.K("users"))

		if flagJSON {
			return printJSON(resp.User)
		}
		fmt.Printf("updated user %s\n", resp.User.Name)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a staff account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := requireAuth(ctx); err != nil {
			return err
		}

		if err := app.client.DeleteUser(ctx, args[0]); err != nil {
			return err
		}
		app.store.Invalidate(cache.K("users"))

		fmt.Printf("deleted user %s\n", args[0])
		return nil
	},
}

func init() {
	usersUpdateCmd.Flags().StringVar(&flagUserEmail, "email", "", "email address")
	usersUpdateCmd.Flags().StringVar(&flagUserPhone, "phone", "", "phone number")
	usersUpdateCmd.Flags().StringVar(&flagUserRole, "role", "", "role (admin, staff, guest)")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}
