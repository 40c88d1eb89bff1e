// Package stats holds the dashboard commands of both roles.
package stats

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/pkg/session"
)

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	var dashboard bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show case counters",
		Long: "Show the firm's analytics to admins, or the counters of one's own cases to clients. " +
			"With --dashboard, admins get the roster summary and the latest clients.",
		Args: cobra.NoArgs,
		RunE: cmdutils.GuardedCommand(buildInfo, flags, session.RoleNone, func(ctx context.Context, env *cmdutils.Env, _ []string) error {
			if dashboard {
				return Dashboard(ctx, env)
			}
			return Show(ctx, env)
		}),
	}
	cmd.Flags().BoolVar(&dashboard, "dashboard", false, "show the admin dashboard")

	return cmd
}

func Show(ctx context.Context, env *cmdutils.Env) error {
	if env.Session.Role() == session.RoleAdmin {
		s, err := env.Portal.Backend.Stats(ctx)
		if err != nil {
			return err
		}
		env.Printer.Title("Firm analytics")
		return env.Printer.Print(s, cli.StatsTable(s))
	}

	s, err := env.Portal.Backend.MyStats(ctx)
	if err != nil {
		return err
	}
	env.Printer.Title("Your cases")
	return env.Printer.Print(s, cli.ClientStatsTable(s))
}

func Dashboard(ctx context.Context, env *cmdutils.Env) error {
	if err := cmdutils.CheckRole(env.Session, session.RoleAdmin); err != nil {
		return err
	}

	d, err := env.Portal.Backend.Dashboard(ctx)
	if err != nil {
		return err
	}

	env.Printer.Title("Dashboard")
	if err := env.Printer.Print(d, cli.DashboardTable(d)); err != nil {
		return err
	}
	// YAML already carried the clients with the dashboard.
	if len(d.RecentClients) == 0 || env.Printer.Format() == cli.FormatYAML {
		return nil
	}

	env.Printer.Title("Recent clients")
	return env.Printer.Print(d.RecentClients, cli.ClientsTable(d.RecentClients))
}
