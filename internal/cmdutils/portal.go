package cmdutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/business"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/pkg/guard"
	"github.com/advbs/portal/pkg/session"
)

// Flags are the persistent flags shared by the portal commands.
type Flags struct {
	BackendURL string
	Output     string
}

// Bind registers the flags on a root command.
func (f *Flags) Bind(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.BackendURL, "backend-url", "", "backend base URL, overrides backend.baseURL")
	cmd.PersistentFlags().StringVarP(&f.Output, "output", "o", string(cli.FormatTable), "output format: table or yaml")
}

// Env is what a portal command runs against.
type Env struct {
	Portal  *business.Portal
	Session session.Snapshot
	Printer *cli.Printer
}

type PortalFunc func(ctx context.Context, env *Env, args []string) error

// PortalCommand runs fn against a portal without checking the session.
func PortalCommand(buildInfo string, flags *Flags, fn PortalFunc) func(*cobra.Command, []string) error {
	return portalCommand(buildInfo, flags, nil, fn)
}

// GuardedCommand activates the saved session and runs fn only if it belongs
// to role. RoleNone admits any signed-in user.
func GuardedCommand(buildInfo string, flags *Flags, role session.Role, fn PortalFunc) func(*cobra.Command, []string) error {
	return portalCommand(buildInfo, flags, &role, fn)
}

func portalCommand(buildInfo string, flags *Flags, role *session.Role, fn PortalFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		format, err := cli.ParseFormat(flags.Output)
		if err != nil {
			return err
		}

		cfg := LoadConfigOrDefault(cmd.Context(), buildInfo)
		if flags.BackendURL != "" {
			cfg.Backend.BaseURL = flags.BackendURL
		}

		return RunAsCommand(cmd.Context(), func(ctx context.Context, cfg *config.Config) error {
			portal, err := business.NewPortal(ctx, cfg)
			if err != nil {
				return err
			}
			defer portal.Close()

			env := &Env{
				Portal:  portal,
				Printer: cli.NewPrinter(cmd.OutOrStdout(), format),
			}

			if role != nil {
				env.Session = portal.Sessions.Activate(ctx)
				if err := CheckRole(env.Session, *role); err != nil {
					return err
				}
			}

			return fn(ctx, env, args)
		}, cfg)
	}
}

// CheckRole refuses a session that does not belong to role, explaining
// what to do next.
func CheckRole(snap session.Snapshot, role session.Role) error {
	err := guard.Check(snap, role)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, guard.ErrSignedOut) && snap.Error != "":
		return fmt.Errorf("%w: %s", err, snap.Error)
	case errors.Is(err, guard.ErrSignedOut):
		return fmt.Errorf("%w, run advbs-portal login first", err)
	default:
		return err
	}
}
