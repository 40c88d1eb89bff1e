// Package account holds the commands that sign in and out.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
)

var errNoCredentials = errors.New("email and password are required when not running in a terminal")

func Cmds(buildInfo string, flags *cmdutils.Flags) []*cobra.Command {
	var creds cli.Credentials

	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the portal",
		Long:  "Sign in with an email and password. Missing values are asked for interactively.",
		Args:  cobra.NoArgs,
		RunE: cmdutils.PortalCommand(buildInfo, flags, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			c := creds
			if c.Email == "" || c.Password == "" {
				if !cli.IsInteractive() {
					return errNoCredentials
				}
				var err error
				if c, err = cli.PromptLogin(c); err != nil {
					return err
				}
			}
			return Login(ctx, env, c)
		}),
	}
	login.Flags().StringVar(&creds.Email, "email", "", "account email")
	login.Flags().StringVar(&creds.Password, "password", "", "account password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the portal",
		Args:  cobra.NoArgs,
		RunE: cmdutils.PortalCommand(buildInfo, flags, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			Logout(ctx, env)
			return nil
		}),
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: cmdutils.PortalCommand(buildInfo, flags, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return WhoAmI(ctx, env)
		}),
	}

	return []*cobra.Command{login, logout, whoami}
}

func Login(ctx context.Context, env *cmdutils.Env, creds cli.Credentials) error {
	if !env.Portal.Sessions.Login(ctx, creds.Email, creds.Password) {
		return fmt.Errorf("login failed: %s", env.Portal.Sessions.Snapshot().Error)
	}

	snap := env.Portal.Sessions.Snapshot()
	env.Printer.Success("Signed in as %s (%s)", snap.User.Name, snap.Role())

	return nil
}

func Logout(ctx context.Context, env *cmdutils.Env) {
	env.Portal.Sessions.Logout(ctx)
	env.Printer.Success("Signed out")
}

// WhoAmI verifies the saved token and prints the resulting session.
func WhoAmI(ctx context.Context, env *cmdutils.Env) error {
	snap := env.Portal.Sessions.Activate(ctx)
	return env.Printer.Print(snap, cli.SessionTable(snap))
}
