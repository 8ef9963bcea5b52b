package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	viewLoading        = "loading"
	viewLogin          = "login"
	viewSignup         = "signup"
	viewForgot         = "forgot"
	viewReset          = "reset"
	viewUserDashboard  = "user_dashboard"
	viewAdminDashboard = "admin_dashboard"
)

var viewNames = []string{
	viewLoading, viewLogin, viewSignup, viewForgot, viewReset,
	viewUserDashboard, viewAdminDashboard,
}

// page is the data every view template receives.
type page struct {
	Title    string
	Refresh  int
	SignedIn bool
	Role     models.Role
	Busy     bool

	Notice  string
	Error   string
	Success string

	Email string
	Token string
	Form  models.RegisterRequest

	Profile *models.UserProfile
	Users   []userRow
	Stats   models.UserStats
}

type userRow struct {
	models.UserProfile
	Self bool
}

func parseViews() (map[string]*template.Template, error) {
	views := make(map[string]*template.Template, len(viewNames))
	for _, name := range viewNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		views[name] = t
	}
	return views, nil
}

// render shows a view. Pending notices and flash messages are consumed.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, p page) {
	if p.Notice == "" {
		p.Notice = s.guard.TakeNotice()
	}
	if p.Success == "" && p.Error == "" {
		p.Success, p.Error = s.flash.take()
	}
	if role, ok := s.guard.Role(); ok {
		p.SignedIn = true
		p.Role = role
	}

	var buf bytes.Buffer
	if err := s.views[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		logging.LogError(r.Context(), s.logger.With("view", name), "render view", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, viewLoading, page{Title: "Loading", Refresh: 1})
}
