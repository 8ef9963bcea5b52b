package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/authdesk/internal/client/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the web front end",
		Long: `Serve the authdesk views to a browser. The credentials stay in this
process, so the listener should stay on a loopback address.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cmd.Flags(), os.Stderr)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !isLoopback(rt.cfg.ListenAddr) {
		rt.logger.Warn(ctx, "web front end is reachable from other hosts", "addr", rt.cfg.ListenAddr)
	}

	srv, err := web.New(web.Dependencies{
		Auth:     rt.auth,
		Admin:    rt.admin,
		Guard:    rt.guard,
		Gatherer: rt.registry,
		Logger:   rt.logger,
	})
	if err != nil {
		return err
	}

	rt.guard.Start(ctx)
	cmd.Printf("authdesk web front end on http://%s\n", rt.cfg.ListenAddr)
	return srv.Run(ctx, rt.cfg.ListenAddr)
}

func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

