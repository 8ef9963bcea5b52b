package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/authdesk/internal/client/cli"
)

type statusConfig struct {
	jsonOutput bool
}

func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long: `Resolve the stored session against the account service and show
whether a credential is present, the resolved role, and when the access
credential expires if it carries that information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, cmd.Flags(), io.Discard)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.guard.Start(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, rt.cfg.RequestTimeout)
	defer cancel()
	if err := rt.guard.Wait(waitCtx); err != nil {
		return oops.In("status").Wrapf(err, "resolve session")
	}

	now := time.Now()
	s := cli.CollectStatus(rt.guard, rt.store, now)

	var output string
	if cfg.jsonOutput {
		output, err = cli.FormatStatusJSON(s)
		if err != nil {
			return oops.In("status").Wrapf(err, "format JSON")
		}
	} else {
		output = cli.FormatStatusTable(s, now)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}
