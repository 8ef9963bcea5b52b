package web

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
)

const (
	msgSignedOut   = "Signed out."
	msgUserDeleted = "User deleted successfully"
)

// flash carries one message across a redirect.
type flash struct {
	mu      sync.Mutex
	success string
	err     string
}

func (f *flash) set(success, err string) {
	f.mu.Lock()
	f.success, f.err = success, err
	f.mu.Unlock()
}

func (f *flash) take() (success, err string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	success, err = f.success, f.err
	f.success, f.err = "", ""
	return success, err
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewLogin, page{Title: "Sign in", Busy: s.auth.Busy().Running(services.OpLogin)})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := formValue(r, "email")

	res, err := s.auth.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		s.render(w, r, viewLogin, page{Title: "Sign in", Email: email, Error: services.Message(err)})
		return
	}
	if res.Requires2FA {
		s.render(w, r, viewLogin, page{Title: "Sign in", Email: email, Notice: services.Msg2FARequired})
		return
	}
	http.Redirect(w, r, session.PathDashboard, http.StatusSeeOther)
}

func (s *Server) signupForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewSignup, page{Title: "Sign up", Busy: s.auth.Busy().Running(services.OpRegister)})
}

func (s *Server) signupSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	req := models.RegisterRequest{
		FirstName: formValue(r, "firstName"),
		LastName:  formValue(r, "lastName"),
		Email:     formValue(r, "email"),
		Password:  r.PostFormValue("password"),
	}

	msg, err := s.auth.Register(r.Context(), req)
	if err != nil {
		req.Password = ""
		s.render(w, r, viewSignup, page{Title: "Sign up", Form: req, Error: services.Message(err)})
		return
	}
	s.render(w, r, viewSignup, page{Title: "Sign up", Success: msg})
}

func (s *Server) forgotForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewForgot, page{Title: "Forgot password", Busy: s.auth.Busy().Running(services.OpForgotPassword)})
}

func (s *Server) forgotSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := formValue(r, "email")

	msg, err := s.auth.ForgotPassword(r.Context(), email)
	if err != nil {
		s.render(w, r, viewForgot, page{Title: "Forgot password", Email: email, Error: services.Message(err)})
		return
	}
	s.render(w, r, viewForgot, page{Title: "Forgot password", Success: msg})
}

func (s *Server) resetForm(w http.ResponseWriter, r *http.Request) {
	p := page{
		Title: "Reset password",
		Token: r.URL.Query().Get("token"),
		Busy:  s.auth.Busy().Running(services.OpResetPassword),
	}
	if p.Token == "" {
		p.Error = services.MsgMissingToken
	}
	s.render(w, r, viewReset, p)
}

func (s *Server) resetSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")

	msg, err := s.auth.ResetPassword(r.Context(), token, r.PostFormValue("newPassword"), r.PostFormValue("confirmPassword"))
	if err != nil {
		s.render(w, r, viewReset, page{Title: "Reset password", Token: token, Error: services.Message(err)})
		return
	}
	s.flash.set(msg, "")
	http.Redirect(w, r, session.PathLogin, http.StatusSeeOther)
}

func (s *Server) userDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.Profile(r.Context())
	if err != nil {
		s.viewError(w, r, session.PathUserDashboard, viewUserDashboard, err)
		return
	}
	s.render(w, r, viewUserDashboard, page{Title: "Dashboard", Profile: &p})
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.auth.Profile(r.Context())
	if err != nil {
		s.viewError(w, r, session.PathAdminDashboard, viewAdminDashboard, err)
		return
	}
	users, err := s.admin.Users(r.Context())
	if err != nil {
		s.viewError(w, r, session.PathAdminDashboard, viewAdminDashboard, err)
		return
	}

	rows := make([]userRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, userRow{UserProfile: u, Self: u.ID == p.ID})
	}
	s.render(w, r, viewAdminDashboard, page{
		Title:   "Admin dashboard",
		Profile: &p,
		Users:   rows,
		Stats:   s.admin.Stats(users),
		Busy:    s.auth.Busy().Running(services.OpDeleteUser),
	})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id := models.UserID(chi.URLParam(r, "id"))

	p, err := s.auth.Profile(r.Context())
	if err != nil {
		s.viewError(w, r, session.PathAdminDashboard, viewAdminDashboard, err)
		return
	}

	err = s.admin.DeleteUser(r.Context(), p.ID, id)
	switch {
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrForbidden):
		s.viewError(w, r, session.PathAdminDashboard, viewAdminDashboard, err)
		return
	case err != nil:
		s.flash.set("", services.Message(err))
	default:
		s.flash.set(msgUserDeleted, "")
	}
	http.Redirect(w, r, session.PathAdminDashboard, http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "logout", "error", err)
	}
	s.flash.set(msgSignedOut, "")
	http.Redirect(w, r, session.PathLogin, http.StatusSeeOther)
}

func (s *Server) oauth(w http.ResponseWriter, r *http.Request) {
	target, err := s.auth.OAuthURL(chi.URLParam(r, "provider"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// viewError answers a failed load of a protected view. A rejected
// credential has already ended the session; a refused role goes back to
// the viewer's own dashboard, or stays with a notice when this is it.
func (s *Server) viewError(w http.ResponseWriter, r *http.Request, path, view string, err error) {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		http.Redirect(w, r, session.PathLogin, http.StatusSeeOther)
		return

	case errors.Is(err, client.ErrForbidden):
		d := s.guard.Deny(path)
		if d.Outcome == session.Redirect {
			http.Redirect(w, r, d.Path, http.StatusSeeOther)
			return
		}
		s.render(w, r, view, page{Title: "Dashboard"})
		return
	}

	s.render(w, r, view, page{Title: "Dashboard", Error: services.Message(err)})
}
