// Package profile holds the client's own profile commands.
package profile

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/pkg/session"
)

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your client profile",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleClient, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return Show(ctx, env)
		}),
	}

	var changes backend.Client
	update := &cobra.Command{
		Use:   "update",
		Short: "Change your contact details",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleClient, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return Update(ctx, env, changes)
		}),
	}
	update.Flags().StringVar(&changes.Name, "name", "", "full name")
	update.Flags().StringVar(&changes.Email, "email", "", "email address")
	update.Flags().StringVar(&changes.Phone, "phone", "", "phone number")
	update.Flags().StringVar(&changes.Address, "address", "", "street address")
	update.Flags().StringVar(&changes.City, "city", "", "city")
	update.Flags().StringVar(&changes.State, "state", "", "state")
	update.Flags().StringVar(&changes.ZipCode, "zip", "", "zip code")

	cmd.AddCommand(show, update)

	return cmd
}

func Show(ctx context.Context, env *cmdutils.Env) error {
	p, err := env.Portal.Backend.Profile(ctx)
	if err != nil {
		return err
	}
	return env.Printer.Print(p, cli.ProfileTable(p))
}

// Update applies the non-empty fields of changes on top of the current
// profile.
func Update(ctx context.Context, env *cmdutils.Env, changes backend.Client) error {
	current, err := env.Portal.Backend.Profile(ctx)
	if err != nil {
		return err
	}

	c := merge(current.Client, changes)
	p, err := env.Portal.Backend.UpdateProfile(ctx, c)
	if err != nil {
		return err
	}

	env.Printer.Success("Profile updated")
	return env.Printer.Print(p, cli.ProfileTable(p))
}

func merge(c, changes backend.Client) backend.Client {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Name, changes.Name)
	set(&c.Email, changes.Email)
	set(&c.Phone, changes.Phone)
	set(&c.Address, changes.Address)
	set(&c.City, changes.City)
	set(&c.State, changes.State)
	set(&c.ZipCode, changes.ZipCode)
	return c
}
