package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/authdesk/internal/buildinfo"
	"github.com/dmitrijs2005/authdesk/internal/client/cli"
	"github.com/dmitrijs2005/authdesk/internal/client/config"
)

// NewRootCmd creates the root command. Without a subcommand it starts the
// interactive terminal front end.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authdesk",
		Short: "authdesk - account management client",
		Long: `authdesk signs you in to the account service, keeps the session
credentials on this machine, and shows the dashboard your role allows.`,
		SilenceUsage: true,
		RunE:         runInteractive,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, cmd.Flags(), os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	buildinfo.PrintBuildData(cmd.OutOrStdout())

	app := cli.NewApp(rt.auth, rt.admin, rt.guard, rt.store,
		cli.WithInput(cmd.InOrStdin()),
		cli.WithOutput(cmd.OutOrStdout()),
		cli.WithLogger(rt.logger),
		cli.WithLoadTimeout(rt.cfg.RequestTimeout),
	)
	app.Run(ctx)
	return nil
}
