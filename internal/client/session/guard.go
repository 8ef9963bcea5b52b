// Package session implements the route guard: the decision, taken on every
// navigation, whether a view may render, must wait for the session to be
// resolved, or must redirect.
//
// The role is not carried by the credential. It is resolved once per
// session epoch by presenting the stored access credential to the profile
// endpoint, and cached until logout or invalidation. Any resolution failure
// is fail-closed: the credential pair is cleared. A resolution aborted by
// Close is discarded instead.
//
// All credential writes that change the session (Establish, Invalidate and
// the fail-closed clear) happen under the guard's lock and are tagged with
// an epoch, so a resolution that completes after a logout or a new login is
// discarded instead of clobbering the newer session.
package session

import (
	"context"
	"sync"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/authdesk/internal/client/metrics"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/store"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

var tracer = otel.Tracer("authdesk/session")

// State of the session as seen by the guard.
type State int

const (
	Unresolved State = iota
	Resolving
	Authorized
	Unauthorized
	Forbidden
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Outcome of a navigation decision.
type Outcome int

const (
	// Render the requested view.
	Render Outcome = iota
	// Loading: show a placeholder until the session is resolved.
	Loading
	// Redirect to Decision.Path.
	Redirect
)

// Decision is the guard's answer for one navigation.
type Decision struct {
	Outcome Outcome
	// Path is the view to render (Render, Loading) or the redirect target.
	Path string
	// Denied is set when the redirect was caused by a role mismatch.
	Denied bool
}

func (d Decision) label() string {
	switch {
	case d.Outcome == Render:
		return "render"
	case d.Outcome == Loading:
		return "loading"
	case d.Denied:
		return "forbidden"
	case d.Path == PathLogin:
		return "redirect_login"
	default:
		return "redirect_default"
	}
}

// Notices shown once after a redirect.
const (
	NoticeAdminRequired = "Access denied. Admin privileges required."
	NoticeRoleMismatch  = "That page is not available for your account."
	NoticeSessionEnded  = "Your session has ended. Please sign in again."
)

// ProfileFetcher fetches the profile of the holder of the stored credential.
type ProfileFetcher interface {
	Profile(ctx context.Context) (models.UserProfile, error)
}

// Guard decides navigations. It is safe for concurrent use.
type Guard struct {
	store    store.CredentialStore
	profiles ProfileFetcher
	logger   logging.Logger
	metrics  *metrics.Metrics

	mu       sync.Mutex
	state    State
	role     models.Role
	epoch    uint64
	started  bool
	resolved chan struct{}
	notice   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Guard)

func WithLogger(l logging.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// NewGuard creates a guard over st. The initial state is Unresolved when a
// credential is stored and Unauthorized otherwise.
func NewGuard(st store.CredentialStore, profiles ProfileFetcher, opts ...Option) *Guard {
	g := &Guard{
		store:    st,
		profiles: profiles,
		logger:   logging.Nop(),
		resolved: make(chan struct{}),
		state:    Unauthorized,
	}
	for _, opt := range opts {
		opt(g)
	}

	if _, ok := st.Read(); ok {
		g.state = Unresolved
	} else {
		close(g.resolved)
	}
	return g
}

// Start begins resolving the stored credential in the background. ctx bounds
// the lifetime of every resolution started by this guard. Only the first
// call per epoch has an effect.
func (g *Guard) Start(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ctx == nil {
		g.ctx, g.cancel = context.WithCancel(ctx)
	}
	g.startLocked()
}

func (g *Guard) startLocked() {
	if g.started || g.state != Unresolved || g.ctx == nil {
		return
	}
	g.started = true
	g.state = Resolving

	epoch := g.epoch
	done := g.resolved
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		ctx, span := tracer.Start(g.ctx, "session.resolve",
			trace.WithAttributes(attribute.Int64("session.epoch", int64(epoch))))
		profile, err := g.profiles.Profile(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("session.role", string(profile.Role)))
		}
		span.End()

		g.finish(epoch, done, profile, err)
	}()
}

func (g *Guard) finish(epoch uint64, done chan struct{}, profile models.UserProfile, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if epoch != g.epoch {
		g.logger.Debug(g.ctx, "discarding stale session resolution", "epoch", epoch, "current", g.epoch)
		g.metrics.Resolution("stale")
		return
	}
	defer close(done)

	// Closing the guard aborts the fetch; that says nothing about the
	// credential, which stays stored for the next run.
	if g.ctx.Err() != nil {
		g.state = Unresolved
		g.started = false
		g.logger.Debug(g.ctx, "session resolution aborted", "epoch", epoch)
		g.metrics.Resolution("aborted")
		return
	}

	if err != nil {
		g.state = Unauthorized
		g.role = ""
		g.logger.Warn(g.ctx, "session resolution failed, clearing credentials", "error", err)
		g.metrics.Resolution("failed")
		if cerr := g.store.Clear(context.WithoutCancel(g.ctx)); cerr != nil {
			logging.LogError(g.ctx, g.logger, "clearing credentials failed", cerr)
		}
		return
	}

	g.state = Authorized
	g.role = profile.Role
	g.logger.Info(g.ctx, "session resolved", "role", profile.Role)
	g.metrics.Resolution("authorized")
}

// Decide answers a navigation to path.
func (g *Guard) Decide(path string) Decision {
	d := g.decide(path)
	g.metrics.Decision(d.label())
	return d
}

func (g *Guard) decide(path string) Decision {
	route, ok := Lookup(path)
	if !ok {
		route = routes[PathRoot]
	}
	if route.Public {
		return Decision{Outcome: Render, Path: route.Path}
	}

	if _, ok := g.store.Read(); !ok {
		return Decision{Outcome: Redirect, Path: PathLogin}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case Unresolved, Resolving:
		return Decision{Outcome: Loading, Path: route.Path}
	case Unauthorized:
		return Decision{Outcome: Redirect, Path: PathLogin}
	}

	home := DefaultPath(g.role)
	if route.Landing {
		g.state = Authorized
		return Decision{Outcome: Redirect, Path: home}
	}
	if !route.allows(g.role) {
		g.state = Forbidden
		g.notice = noticeFor(route)
		return Decision{Outcome: Redirect, Path: home, Denied: true}
	}

	g.state = Authorized
	return Decision{Outcome: Render, Path: route.Path}
}

func noticeFor(r Route) string {
	if r.RequiredRole == models.RoleAdmin {
		return NoticeAdminRequired
	}
	return NoticeRoleMismatch
}

// Deny handles a 403 from the service while path was being shown: the
// viewer is sent to their own default view with a one-time notice. When
// path already is that view the view renders and shows the notice inline.
func (g *Guard) Deny(path string) Decision {
	g.mu.Lock()
	route, ok := Lookup(path)
	if !ok {
		route = Route{Path: path}
	}
	g.notice = noticeFor(route)
	home := DefaultPath(g.role)
	g.mu.Unlock()

	d := Decision{Outcome: Redirect, Path: home, Denied: true}
	if home == route.Path {
		d = Decision{Outcome: Render, Path: home, Denied: true}
	}
	g.metrics.Decision(d.label())
	return d
}

// Establish stores a freshly issued credential pair and starts a new
// session epoch whose role is resolved in the background.
func (g *Guard) Establish(ctx context.Context, access, refresh string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Save(ctx, access, refresh); err != nil {
		return oops.In("session").Wrapf(err, "establish session")
	}

	g.nextEpochLocked(Unresolved)
	if _, ok := g.store.Read(); !ok {
		g.state = Unauthorized
		close(g.resolved)
		return nil
	}
	g.startLocked()
	return nil
}

// Invalidate ends the session: both credentials are cleared and every
// protected view redirects to login. It is idempotent.
func (g *Guard) Invalidate(ctx context.Context, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextEpochLocked(Unauthorized)
	close(g.resolved)
	g.logger.Info(ctx, "session invalidated", "reason", reason)

	if err := g.store.Clear(ctx); err != nil {
		return oops.In("session").With("reason", reason).Wrapf(err, "invalidate session")
	}
	return nil
}

// Expire is Invalidate for a credential the service rejected with 401; the
// login view shows a notice.
func (g *Guard) Expire(ctx context.Context) error {
	err := g.Invalidate(ctx, "unauthorized")
	g.mu.Lock()
	g.notice = NoticeSessionEnded
	g.mu.Unlock()
	return err
}

// nextEpochLocked releases waiters of the current epoch and resets the
// session to state.
func (g *Guard) nextEpochLocked(state State) {
	select {
	case <-g.resolved:
	default:
		close(g.resolved)
	}
	g.epoch++
	g.resolved = make(chan struct{})
	g.started = false
	g.state = state
	g.role = ""
}

// Wait blocks until the current epoch is resolved or ctx is done.
func (g *Guard) Wait(ctx context.Context) error {
	g.mu.Lock()
	done := g.resolved
	g.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Role returns the cached role; ok is false until the session is resolved.
func (g *Guard) Role() (models.Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Authorized && g.state != Forbidden {
		return "", false
	}
	return g.role, true
}

// TakeNotice returns the pending one-time notice and clears it.
func (g *Guard) TakeNotice() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.notice
	g.notice = ""
	return n
}

// Close cancels in-flight resolutions and waits for them to return.
func (g *Guard) Close() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.wg.Wait()
}
