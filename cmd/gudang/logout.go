package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Local state is cleared even when the server call fails, so a
		// dead server cannot keep the console logged in.
		if err := app.session.Logout(cmd.Context()); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
		}
		fmt.Println("logged out")
		return nil
	},
}
