package serve

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/advbs/portal/internal/business"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/internal/config"
)

func Cmd(buildInfo string, flags *cmdutils.Flags) *cobra.Command {
	return cmdutils.CobraCommand(
		"serve",
		"Serve the portal",
		"Serve the landing page, the login and the admin and client areas over HTTP, "+
			"for one browser session at a time.",
		buildInfo,
		withBackendOverride(flags),
		business.Main,
	)
}

func withBackendOverride(flags *cmdutils.Flags) cmdutils.WrapperFunc {
	return func(ctx context.Context, fn cmdutils.BusinessFunc, cfg *config.Config) error {
		if flags.BackendURL != "" {
			cfg.Backend.BaseURL = flags.BackendURL
		}
		return cmdutils.RunAsService(ctx, fn, cfg)
	}
}
