package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/session"
	"github.com/gudangapp/gudang/internal/token"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state := app.session.Refresh(cmd.Context())
		if state != session.StateAuthenticated {
			// The server may just be unreachable. Fall back to the stored
			// token's claims, clearly marked as unverified.
			if tok, err := app.tokens.Load(); err == nil && !token.Expired(tok, time.Now()) {
				if claims, cerr := token.ParseClaims(tok); cerr == nil {
					fmt.Printf("%s (%s), from the stored token; server not confirmed\n",
						claims.Username, claims.Role)
					return nil
				}
			}
			fmt.Println("not logged in")
			return nil
		}

		user := app.session.User()
		if flagJSON {
			return printJSON(user)
		}

		fmt.Printf("%s (%s)\n", user.Name, user.Role)
		if user.Email != "" {
			fmt.Println(user.Email)
		}
		return nil
	},
}
