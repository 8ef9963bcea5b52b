// Package services contains the application services behind the authdesk
// views: account operations, the admin user list, and per-operation busy
// tracking. Remote failures come back as *FormError carrying the message
// the originating view shows inline.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/metrics"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/common"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

// Operation names, used for busy tracking and metrics.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpLogout         = "logout"
	OpForgotPassword = "forgot_password"
	OpResetPassword  = "reset_password"
	OpProfile        = "profile"
	OpListUsers      = "list_users"
	OpDeleteUser     = "delete_user"
)

const minPasswordLen = 6

// OAuth providers offered by the service.
var oauthProviders = map[string]bool{
	"google": true,
	"github": true,
}

// Session is the part of the route guard the services drive.
type Session interface {
	Establish(ctx context.Context, access, refresh string) error
	Invalidate(ctx context.Context, reason string) error
	Expire(ctx context.Context) error
}

// AuthService defines account operations for the views.
//
// Contract:
//   - Register: create an account; the role defaults to USER.
//   - Login: exchange email and password for a credential pair and start a
//     new session.
//   - Logout: notify the service, then end the session locally whatever
//     the service answered.
//   - ForgotPassword, ResetPassword: password recovery. ResetPassword
//     validates its input before any request is made.
//   - Profile: fetch the signed-in user; a 401 ends the session.
//   - OAuthURL: where to send a browser for provider sign-in.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword, confirm string) (string, error)
	Profile(ctx context.Context) (models.UserProfile, error)
	OAuthURL(provider string) (string, error)
	Busy() *Busy
}

// LoginResult tells the login view where to go next.
type LoginResult struct {
	// Requires2FA: the service wants a second factor, which this client
	// does not implement. The view stays on login and says so.
	Requires2FA bool
}

type deps struct {
	busy    *Busy
	logger  logging.Logger
	metrics *metrics.Metrics
}

func newDeps(opts []Option) deps {
	d := deps{busy: NewBusy(), logger: logging.Nop()}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

type Option func(*deps)

func WithLogger(l logging.Logger) Option {
	return func(d *deps) {
		if l != nil {
			d.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *deps) { d.metrics = m }
}

// WithBusy shares one busy tracker between services.
func WithBusy(b *Busy) Option {
	return func(d *deps) {
		if b != nil {
			d.busy = b
		}
	}
}

type authService struct {
	client  client.Client
	session Session
	deps
}

// NewAuthService constructs an AuthService bound to the given API client
// and session.
func NewAuthService(c client.Client, s Session, opts ...Option) AuthService {
	return &authService{client: c, session: s, deps: newDeps(opts)}
}

func (a *authService) Busy() *Busy { return a.busy }

func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (msg string, err error) {
	release, err := a.busy.Acquire(OpRegister)
	if err != nil {
		return "", err
	}
	defer release()
	defer func() { a.metrics.Operation(OpRegister, err) }()

	req.Email = strings.TrimSpace(req.Email)
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	msg, err = a.client.Register(ctx, req)
	if err != nil {
		a.logger.Warn(ctx, "registration failed", "error", err)
		return "", &FormError{Message: client.MessageOf(err, MsgRegisterFailed), Err: err}
	}
	if msg == "" {
		msg = "Registration successful. Please sign in."
	}
	return msg, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (res LoginResult, err error) {
	release, err := a.busy.Acquire(OpLogin)
	if err != nil {
		return LoginResult{}, err
	}
	defer release()
	defer func() { a.metrics.Operation(OpLogin, err) }()

	resp, err := a.client.Login(ctx, models.LoginRequest{Email: strings.TrimSpace(email), Password: password})
	if err != nil {
		a.logger.Warn(ctx, "login failed", "error", err)
		return LoginResult{}, &FormError{Message: client.MessageOf(err, MsgLoginFailed), Err: err}
	}

	if resp.AccessToken == "" {
		if resp.Requires2FA {
			return LoginResult{Requires2FA: true}, nil
		}
		return LoginResult{}, &FormError{Message: MsgLoginFailed, Err: client.ErrValidation}
	}

	if err := a.session.Establish(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		err = oops.In("auth").Code("SESSION_ESTABLISH").Wrapf(err, "store credentials")
		logging.LogError(ctx, a.logger, "login succeeded but credentials were not stored", err)
		return LoginResult{}, &FormError{Message: MsgLoginFailed, Err: err}
	}

	a.logger.Info(ctx, "signed in", "requires_2fa", resp.Requires2FA)
	return LoginResult{Requires2FA: resp.Requires2FA}, nil
}

func (a *authService) Logout(ctx context.Context) (err error) {
	release, err := a.busy.Acquire(OpLogout)
	if err != nil {
		return err
	}
	defer release()
	defer func() { a.metrics.Operation(OpLogout, err) }()

	if rerr := a.client.Logout(ctx); rerr != nil {
		a.logger.Warn(ctx, "remote logout failed, clearing session locally", "error", rerr)
	}

	if err := a.session.Invalidate(ctx, "logout"); err != nil {
		return oops.In("auth").Code("SESSION_CLEAR").Wrapf(err, "logout")
	}
	return nil
}

func (a *authService) ForgotPassword(ctx context.Context, email string) (msg string, err error) {
	release, err := a.busy.Acquire(OpForgotPassword)
	if err != nil {
		return "", err
	}
	defer release()
	defer func() { a.metrics.Operation(OpForgotPassword, err) }()

	msg, err = a.client.ForgotPassword(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", &FormError{Message: client.MessageOf(err, MsgForgotFailed), Err: err}
	}
	if msg == "" {
		msg = "If the address is registered, a reset link is on its way."
	}
	return msg, nil
}

func (a *authService) ResetPassword(ctx context.Context, token, newPassword, confirm string) (msg string, err error) {
	switch {
	case strings.TrimSpace(token) == "":
		return "", invalid(MsgMissingToken)
	case newPassword != confirm:
		return "", invalid(MsgPasswordsMismatch)
	case utf8.RuneCountInString(newPassword) < minPasswordLen:
		return "", invalid(MsgPasswordTooShort)
	}

	release, err := a.busy.Acquire(OpResetPassword)
	if err != nil {
		return "", err
	}
	defer release()
	defer func() { a.metrics.Operation(OpResetPassword, err) }()

	msg, err = a.client.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return "", &FormError{Message: client.MessageOf(err, MsgResetFailed), Err: err}
	}
	if msg == "" {
		msg = "Password has been reset. Please sign in."
	}
	return msg, nil
}

func (a *authService) Profile(ctx context.Context) (p models.UserProfile, err error) {
	defer func() { a.metrics.Operation(OpProfile, err) }()

	p, err = a.client.Profile(ctx)
	if err != nil {
		expireOnUnauthorized(ctx, a.session, a.logger, err)
		return models.UserProfile{}, &FormError{Message: client.MessageOf(err, MsgProfileFailed), Err: err}
	}
	return p, nil
}

func (a *authService) OAuthURL(provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !oauthProviders[provider] {
		return "", oops.In("auth").With("provider", provider).Wrap(common.ErrUnsupportedProvider)
	}
	return a.client.OAuthURL(provider), nil
}

// expireOnUnauthorized ends the session when the service rejected the
// stored credential.
func expireOnUnauthorized(ctx context.Context, s Session, l logging.Logger, err error) {
	if !errors.Is(err, client.ErrUnauthorized) {
		return
	}
	if xerr := s.Expire(ctx); xerr != nil {
		logging.LogError(ctx, l, "clearing rejected credentials failed", xerr)
	}
}
