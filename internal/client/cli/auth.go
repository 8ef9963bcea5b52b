package cli

import (
	"context"
	"net/url"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// loginView prompts for email and password. On success the session's role
// is resolved and the dashboard for it opens.
func (a *App) loginView(ctx context.Context) error {
	a.println("== Sign in ==")
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.auth.Login(ctx, email, string(password))
	if err != nil {
		a.println("Error:", services.Message(err))
		return nil
	}
	if res.Requires2FA {
		a.println(services.Msg2FARequired)
		return nil
	}

	a.println("Signed in.")
	return a.navigate(ctx, session.PathDashboard, false)
}

func (a *App) signupView(ctx context.Context) error {
	a.println("== Create account ==")
	var req models.RegisterRequest
	var err error

	if req.FirstName, err = getSimpleText(a.reader, "First name", a.out); err != nil {
		return err
	}
	if req.LastName, err = getSimpleText(a.reader, "Last name", a.out); err != nil {
		return err
	}
	if req.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	req.Password = string(password)

	msg, err := a.auth.Register(ctx, req)
	if err != nil {
		a.println("Error:", services.Message(err))
		return nil
	}
	a.println(msg)
	a.println("Type 'login' to sign in.")
	return nil
}

func (a *App) forgotView(ctx context.Context) error {
	a.println("== Forgot password ==")
	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	msg, err := a.auth.ForgotPassword(ctx, email)
	if err != nil {
		a.println("Error:", services.Message(err))
		return nil
	}
	a.println(msg)
	return nil
}

func (a *App) resetView(ctx context.Context, token string) error {
	a.println("== Reset password ==")
	password, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	confirm, err := getPassword("Confirm password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	msg, err := a.auth.ResetPassword(ctx, token, string(password), string(confirm))
	if err != nil {
		a.println("Error:", services.Message(err))
		return nil
	}
	a.println(msg)
	a.println("Type 'login' to sign in.")
	return nil
}

// Logout signs out. The local session ends even when the service cannot be
// reached.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.self = ""
	a.view = session.PathLogin
	a.println("Signed out.")
	return nil
}

// OAuth prints the provider sign-in address for the user to open in a
// browser.
func (a *App) OAuth(provider string) error {
	u, err := a.auth.OAuthURL(provider)
	if err != nil {
		return err
	}
	a.println("Open this address in your browser to continue:")
	a.println(u)
	return nil
}

func queryToken(path string) string {
	u, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}
