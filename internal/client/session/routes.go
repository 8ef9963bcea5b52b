package session

import (
	"strings"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
)

// Paths of the views the front ends render.
const (
	PathRoot           = "/"
	PathDashboard      = "/dashboard"
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathUserDashboard  = "/user-dashboard"
	PathAdminDashboard = "/admin-dashboard"
)

// Route describes how the guard treats a path.
type Route struct {
	Path   string
	Public bool
	// Landing routes never render; they forward to the role's default view.
	Landing      bool
	RequiredRole models.Role
}

var routes = map[string]Route{
	PathLogin:          {Path: PathLogin, Public: true},
	PathSignup:         {Path: PathSignup, Public: true},
	PathForgotPassword: {Path: PathForgotPassword, Public: true},
	PathResetPassword:  {Path: PathResetPassword, Public: true},
	PathRoot:           {Path: PathRoot, Landing: true},
	PathDashboard:      {Path: PathDashboard, Landing: true},
	PathUserDashboard:  {Path: PathUserDashboard, RequiredRole: models.RoleUser},
	PathAdminDashboard: {Path: PathAdminDashboard, RequiredRole: models.RoleAdmin},
}

// Lookup returns the route registered for path. Query strings and a
// trailing slash are ignored.
func Lookup(path string) (Route, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		path = PathRoot
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	r, ok := routes[path]
	return r, ok
}

// DefaultPath is the view a resolved role lands on: the admin dashboard for
// ADMIN, the user dashboard for every other role.
func DefaultPath(role models.Role) string {
	if role == models.RoleAdmin {
		return PathAdminDashboard
	}
	return PathUserDashboard
}

// allows reports whether role may render r. A role's own default view is
// always reachable, so a role other than USER or ADMIN lands on the user
// dashboard instead of bouncing between redirects.
func (r Route) allows(role models.Role) bool {
	if r.RequiredRole == "" || r.RequiredRole == role {
		return true
	}
	return DefaultPath(role) == r.Path
}
