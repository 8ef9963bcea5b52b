// Package web serves the authdesk views to a browser on a loopback address.
// Every view request passes the route guard before its handler runs.
package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

const (
	readTimeout     = 10 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	handlerTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Dependencies are the collaborators the web front end needs.
type Dependencies struct {
	Auth     services.AuthService
	Admin    services.AdminService
	Guard    *session.Guard
	Gatherer prometheus.Gatherer
	Logger   logging.Logger
}

// Server is the browser front end.
type Server struct {
	auth   services.AuthService
	admin  services.AdminService
	guard  *session.Guard
	logger logging.Logger

	gatherer prometheus.Gatherer
	views    map[string]*template.Template
	handler  http.Handler
	flash    flash
}

// New builds the router and parses the embedded views.
func New(deps Dependencies) (*Server, error) {
	views, err := parseViews()
	if err != nil {
		return nil, err
	}

	s := &Server{
		auth:     deps.Auth,
		admin:    deps.Admin,
		guard:    deps.Guard,
		logger:   deps.Logger,
		gatherer: deps.Gatherer,
		views:    views,
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(handlerTimeout))
	r.Use(requestLogger(s.logger))
	r.Use(sameOrigin)
	s.registerRoutes(r)

	s.handler = otelhttp.NewHandler(r, "authdesk-web")
	return s, nil
}

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get(session.PathLogin, s.guarded("", s.loginForm))
	r.Post(session.PathLogin, s.guarded("", s.loginSubmit))
	r.Get(session.PathSignup, s.guarded("", s.signupForm))
	r.Post(session.PathSignup, s.guarded("", s.signupSubmit))
	r.Get(session.PathForgotPassword, s.guarded("", s.forgotForm))
	r.Post(session.PathForgotPassword, s.guarded("", s.forgotSubmit))
	r.Get(session.PathResetPassword, s.guarded("", s.resetForm))
	r.Post(session.PathResetPassword, s.guarded("", s.resetSubmit))

	r.Get(session.PathUserDashboard, s.guarded("", s.userDashboard))
	r.Get(session.PathAdminDashboard, s.guarded("", s.adminDashboard))
	r.Post(session.PathAdminDashboard+"/users/{id}/delete", s.guarded(session.PathAdminDashboard, s.deleteUser))

	r.Post("/logout", s.logout)
	r.Get("/oauth/{provider}", s.oauth)

	// "/", "/dashboard" and anything unknown are landings: the guard
	// always answers them with loading or a redirect.
	r.NotFound(s.guarded("", http.NotFound))
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "web front end listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
