package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/client/store"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

// maxHops bounds how many redirects and loading waits one navigation may
// take.
const maxHops = 6

type App struct {
	auth   services.AuthService
	admin  services.AdminService
	guard  *session.Guard
	store  store.CredentialStore
	logger logging.Logger

	reader      *bufio.Reader
	out         io.Writer
	loadTimeout time.Duration

	view string
	self models.UserID
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.reader = bufio.NewReader(r) }
}

func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLoadTimeout bounds how long a view waits for the session to resolve.
func WithLoadTimeout(d time.Duration) Option {
	return func(a *App) { a.loadTimeout = d }
}

func NewApp(auth services.AuthService, admin services.AdminService, g *session.Guard, st store.CredentialStore, opts ...Option) *App {
	a := &App{
		auth:        auth,
		admin:       admin,
		guard:       g,
		store:       st,
		logger:      logging.Nop(),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		loadTimeout: 30 * time.Second,
		view:        session.PathRoot,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts session resolution, shows the landing view and reads commands
// until EOF or exit.
func (a *App) Run(ctx context.Context) {
	a.println("Welcome to authdesk (type 'help' for commands)")
	a.guard.Start(ctx)

	if err := a.navigate(ctx, session.PathRoot, false); err != nil {
		a.println("Error:", err)
	}
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	_, ok := a.store.Read()
	return ok
}

func (a *App) getStatus() string {
	s := a.view
	if role, ok := a.guard.Role(); ok {
		s += " " + string(role)
	} else if a.isLoggedIn() {
		s += " " + a.guard.State().String()
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// Open navigates to path at the user's request.
func (a *App) Open(ctx context.Context, path string) error {
	return a.navigate(ctx, path, true)
}

// navigate asks the guard about path and follows its answer until a view
// renders. explicit is false for redirects; a redirect to login only hints
// at the login command instead of prompting.
func (a *App) navigate(ctx context.Context, path string, explicit bool) error {
	for hop := 0; hop < maxHops; hop++ {
		d := a.guard.Decide(path)

		switch d.Outcome {
		case session.Loading:
			a.view = d.Path
			a.println("Loading...")
			if err := a.waitResolved(ctx); err != nil {
				a.println("Still loading, try again shortly.")
				return nil
			}
			continue

		case session.Redirect:
			a.logger.Debug(ctx, "redirect", "from", path, "to", d.Path, "denied", d.Denied)
			path, explicit = d.Path, false
			continue
		}

		if n := a.guard.TakeNotice(); n != "" {
			a.println(n)
		}
		a.view = d.Path
		return a.render(ctx, d.Path, path, explicit)
	}
	return fmt.Errorf("too many redirects while opening %s", path)
}

func (a *App) waitResolved(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.loadTimeout)
	defer cancel()
	return a.guard.Wait(ctx)
}

func (a *App) render(ctx context.Context, route, full string, explicit bool) error {
	switch route {
	case session.PathLogin:
		if !explicit {
			a.println("Sign in required. Type 'login' to sign in.")
			return nil
		}
		return a.loginView(ctx)
	case session.PathSignup:
		return a.signupView(ctx)
	case session.PathForgotPassword:
		return a.forgotView(ctx)
	case session.PathResetPassword:
		return a.resetView(ctx, queryToken(full))
	case session.PathUserDashboard:
		return a.userDashboard(ctx)
	case session.PathAdminDashboard:
		return a.adminDashboard(ctx)
	}
	return fmt.Errorf("no view for %s", route)
}
