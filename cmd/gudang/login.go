package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gudangapp/gudang/internal/loginflow"
	"github.com/gudangapp/gudang/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Log in to the inventory server",
	Long: `Login walks through the sign-in steps: it checks whether the account
exists, then asks for the password. First-time users without a password are
asked to choose one instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app.session.Refresh(ctx)
	if app.session.GuardGuest() == session.DecisionRedirectHome {
		fmt.Printf("already logged in as %s\n", app.session.User().Name)
		return nil
	}

	flow := loginflow.New(app.client, app.session)

	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	for flow.Step() != loginflow.StepDone {
		switch flow.Step() {
		case loginflow.StepName:
			if name == "" {
				var err error
				name, err = prompt("name: ")
				if err != nil {
					return err
				}
			}
			if err := flow.SubmitName(ctx, name); err != nil {
				return err
			}
			name = ""

		case loginflow.StepPassword:
			password, err := prompt("password: ")
			if err != nil {
				return err
			}
			if err := flow.SubmitPassword(ctx, password); err != nil {
				return err
			}

		case loginflow.StepCreatePassword:
			fmt.Printf("first login for %s, choose a password (min %d characters)\n",
				flow.Name(), loginflow.MinPasswordLength)
			password, err := prompt("new password: ")
			if err != nil {
				return err
			}
			if err := flow.SubmitNewPassword(ctx, password); err != nil {
				return err
			}
		}

		if msg := flow.Err(); msg != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		}
		if msg := flow.Notice(); msg != "" {
			fmt.Println(msg)
			// Password is set but the server did not hand back a session.
			// Leave the flow so the user can log in normally.
			return nil
		}
	}

	fmt.Printf("logged in as %s\n", app.session.User().Name)
	return nil
}
