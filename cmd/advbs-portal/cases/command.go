// Package cases holds the case commands. Listing works for both roles: an
// admin sees the whole firm, a client only their own cases.
package cases

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

// ListOptions are the admin filters of the case listing.
type ListOptions struct {
	ClientID int64
	Status   string
	Search   string
}

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List and follow legal cases",
	}

	var opts ListOptions
	list := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleNone, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return List(ctx, env, opts)
		}),
	}
	list.Flags().Int64Var(&opts.ClientID, "client", 0, "only cases of this client (admin)")
	list.Flags().StringVar(&opts.Status, "status", "", "only cases in this status: pendente, em_andamento, concluido, arquivado (admin)")
	list.Flags().StringVar(&opts.Search, "search", "", "match description or client name (admin)")

	show := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show one of your cases",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleClient, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return Show(ctx, env, id)
		}),
	}

	status := &cobra.Command{
		Use:   "status <case-id> <status>",
		Short: "Move a case to another status",
		Args:  cobra.ExactArgs(2),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return SetStatus(ctx, env, id, args[1])
		}),
	}

	var nc backend.NewCase
	create := &cobra.Command{
		Use:   "create <client-id>",
		Short: "Open a case for a client",
		Args:  cobra.ExactArgs(1),
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return Create(ctx, env, id, nc)
		}),
	}
	create.Flags().Int64Var(&nc.ServiceID, "service", 0, "legal service id, see the services command")
	create.Flags().StringVar(&nc.Title, "title", "", "short title")
	create.Flags().StringVar(&nc.Description, "description", "", "what the case is about")

	services := &cobra.Command{
		Use:   "services",
		Short: "List the legal services cases can be opened for",
		Args:  cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleAdmin, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			return Services(ctx, env)
		}),
	}

	cmd.AddCommand(list, show, status, create, services)

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return id, nil
}

func List(ctx context.Context, env *cmdutils.Env, opts ListOptions) error {
	var (
		cases []backend.Case
		err   error
	)

	if env.Session.Role() == session.RoleAdmin {
		filter := backend.CaseFilter{ClientID: opts.ClientID, Search: opts.Search}
		if opts.Status != "" {
			if filter.Status, err = backend.ParseCaseStatus(opts.Status); err != nil {
				return err
			}
		}
		cases, err = env.Portal.Backend.Cases(ctx, filter)
	} else {
		cases, err = env.Portal.Backend.MyCases(ctx)
	}
	if err != nil {
		return err
	}

	env.Printer.Title(fmt.Sprintf("Cases (%d)", len(cases)))
	return env.Printer.Print(cases, cli.CasesTable(cases))
}

func Show(ctx context.Context, env *cmdutils.Env, id int64) error {
	c, err := env.Portal.Backend.MyCase(ctx, id)
	if err != nil {
		return err
	}
	return env.Printer.Print(c, cli.CasesTable([]backend.Case{c}))
}

func SetStatus(ctx context.Context, env *cmdutils.Env, id int64, status string) error {
	s, err := backend.ParseCaseStatus(status)
	if err != nil {
		return err
	}

	if _, err := env.Portal.Backend.UpdateCaseStatus(ctx, id, s); err != nil {
		return err
	}

	env.Printer.Success("Case %d is now %s", id, s.Label())
	return nil
}

func Create(ctx context.Context, env *cmdutils.Env, clientID int64, nc backend.NewCase) error {
	c, err := env.Portal.Backend.CreateCase(ctx, clientID, nc)
	if err != nil {
		return err
	}

	env.Printer.Success("Case %d opened for client %d", c.ID, clientID)
	return nil
}

func Services(ctx context.Context, env *cmdutils.Env) error {
	services, err := env.Portal.Backend.Services(ctx)
	if err != nil {
		return err
	}
	return env.Printer.Print(services, cli.ServicesTable(services))
}
