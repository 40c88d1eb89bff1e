// Package clients holds the admin commands over the client roster.
package clients

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/pkg/session"
)

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the firm's clients",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List clients, or search them by name, email or CPF",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return List(ctx, env, search)
		}),
	}
	list.Flags().StringVarP(&search, "search", "s", "", "search term, at least two characters")

	var c backend.Client
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a client",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return Create(ctx, env, c)
		}),
	}
	create.Flags().StringVar(&c.Name, "name", "", "full name")
	create.Flags().StringVar(&c.Email, "email", "", "email address")
	create.Flags().StringVar(&c.CPF, "cpf", "", "CPF number")
	create.Flags().StringVar(&c.Phone, "phone", "", "phone number")
	create.Flags().StringVar(&c.Address, "address", "", "street address")
	create.Flags().StringVar(&c.City, "city", "", "city")
	create.Flags().StringVar(&c.State, "state", "", "state")
	create.Flags().StringVar(&c.ZipCode, "zip", "", "zip code")

	var yes bool
	del := &cobra.Command{
		Use:   "delete <client-id>",
		Short: "Delete a client",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("client id %q is not a number", args[0])
			}
			if !yes && cli.IsInteractive() {
				ok, err := cli.Confirm(fmt.Sprintf("Delete client %d?", id))
				if err != nil || !ok {
					return err
				}
			}
			return Delete(ctx, env, id)
		}),
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, create, del)

	return cmd
}

func List(ctx context.Context, env *cmdutils.Env, search string) error {
	var (
		clients []backend.Client
		err     error
	)
	if search != "" {
		clients, err = env.Portal.Backend.SearchClients(ctx, search, 0)
	} else {
		clients, err = env.Portal.Backend.Clients(ctx)
	}
	if err != nil {
		return err
	}

	env.Printer.Title(fmt.Sprintf("Clients (%d)", len(clients)))
	return env.Printer.Print(clients, cli.ClientsTable(clients))
}

func Create(ctx context.Context, env *cmdutils.Env, c backend.Client) error {
	created, err := env.Portal.Backend.CreateClient(ctx, c)
	if err != nil {
		return err
	}

	env.Printer.Success("Client %s registered with id %d", created.Name, created.ID)
	return nil
}

func Delete(ctx context.Context, env *cmdutils.Env, id int64) error {
	if err := env.Portal.Backend.DeleteClient(ctx, id); err != nil {
		return err
	}

	env.Printer.Success("Client %d deleted", id)
	return nil
}
