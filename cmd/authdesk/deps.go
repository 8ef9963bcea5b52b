package main

import (
	"context"
	"database/sql"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/authdesk/internal/buildinfo"
	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/config"
	"github.com/dmitrijs2005/authdesk/internal/client/metrics"
	"github.com/dmitrijs2005/authdesk/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/client/store"
	"github.com/dmitrijs2005/authdesk/internal/filex"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

const serviceName = "authdesk"

// runtime holds the wired collaborators shared by every command.
type runtime struct {
	cfg      *config.Config
	logger   logging.Logger
	store    store.CredentialStore
	guard    *session.Guard
	auth     services.AuthService
	admin    services.AdminService
	registry *prometheus.Registry

	db *sql.DB
}

func buildRuntime(ctx context.Context, fs *pflag.FlagSet, logOut io.Writer) (*runtime, error) {
	cfg, err := config.LoadConfig(fs)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(logging.Setup(serviceName, buildinfo.Version, cfg.LogFormat, logging.ParseLevel(cfg.LogLevel), logOut))
	rt := &runtime{cfg: cfg, logger: logger}

	if cfg.Ephemeral {
		rt.store = store.NewMemory()
	} else {
		if _, err := filex.EnsureDir(cfg.DataDir); err != nil {
			return nil, err
		}
		db, err := client.InitDatabase(ctx, cfg.StorePath())
		if err != nil {
			return nil, err
		}
		st, err := store.Open(ctx, credentials.NewSQLiteRepository(db))
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		rt.db, rt.store = db, st
	}

	api, err := client.NewHTTPClient(cfg.ServerURL, rt.store.Read,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithLogger(logger),
	)
	if err != nil {
		rt.Close()
		return nil, oops.In("startup").With("server_url", cfg.ServerURL).Wrapf(err, "create api client")
	}

	rt.registry = metrics.NewRegistry()
	m := metrics.New(rt.registry)

	rt.guard = session.NewGuard(rt.store, api, session.WithLogger(logger), session.WithMetrics(m))

	busy := services.NewBusy()
	opts := []services.Option{services.WithBusy(busy), services.WithLogger(logger), services.WithMetrics(m)}
	rt.auth = services.NewAuthService(api, rt.guard, opts...)
	rt.admin = services.NewAdminService(api, rt.guard, opts...)

	logger.Debug(ctx, "runtime ready", "server_url", cfg.ServerURL, "ephemeral", cfg.Ephemeral)
	return rt, nil
}

// Close stops the guard and closes the credential database.
func (r *runtime) Close() {
	if r.guard != nil {
		r.guard.Close()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
}
