package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/openkcm/common-sdk/pkg/utils"
	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/cmd/advbs-portal/account"
	"github.com/advbs/portal/cmd/advbs-portal/cases"
	"github.com/advbs/portal/cmd/advbs-portal/clients"
	"github.com/advbs/portal/cmd/advbs-portal/files"
	"github.com/advbs/portal/cmd/advbs-portal/profile"
	"github.com/advbs/portal/cmd/advbs-portal/serve"
	"github.com/advbs/portal/cmd/advbs-portal/stats"
	"github.com/advbs/portal/internal/cmdutils"
)

// BuildInfo will be set by the build system
var BuildInfo = "{}"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Portal Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		value, err := utils.ExtractFromComplexValue(BuildInfo)
		if err != nil {
			return err
		}

		slog.InfoContext(cmd.Context(), value)

		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "advbs-portal",
		Short:        "Law firm client portal",
		Long:         "Client and case portal of the law firm: a local web portal and a command line over the firm's backend.",
		SilenceUsage: true,
	}

	flags := &cmdutils.Flags{}
	flags.Bind(cmd)

	cmd.AddCommand(
		versionCmd,
		serve.Cmd(BuildInfo, flags),
	)
	cmd.AddCommand(account.Cmds(BuildInfo, flags)...)
	cmd.AddCommand(
		clients.Cmd(BuildInfo, flags),
		cases.Cmd(BuildInfo, flags),
		files.Cmd(BuildInfo, flags),
		profile.Cmd(BuildInfo, flags),
		stats.Cmd(BuildInfo, flags),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Debug(ctx, "Command failed", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)

		return err
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
