package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
)

func (a *App) userDashboard(ctx context.Context) error {
	p, err := a.auth.Profile(ctx)
	if err != nil {
		return a.viewError(ctx, session.PathUserDashboard, err)
	}

	a.println("== Dashboard ==")
	a.println(fmt.Sprintf("Welcome, %s!", p.DisplayName()))

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Email\t%s\n", p.Email)
	_, _ = fmt.Fprintf(w, "Role\t%s\n", p.Role)
	_, _ = fmt.Fprintf(w, "User ID\t%s\n", p.ID)
	_, _ = fmt.Fprintf(w, "Email status\t%s\n", p.VerificationStatus())
	return w.Flush()
}

func (a *App) adminDashboard(ctx context.Context) error {
	p, err := a.auth.Profile(ctx)
	if err != nil {
		return a.viewError(ctx, session.PathAdminDashboard, err)
	}
	a.self = p.ID

	users, err := a.admin.Users(ctx)
	if err != nil {
		return a.viewError(ctx, session.PathAdminDashboard, err)
	}

	a.println("== Admin dashboard ==")
	a.println(fmt.Sprintf("Signed in as %s", p.DisplayName()))

	s := a.admin.Stats(users)
	a.println(fmt.Sprintf("Users: %d  Verified: %d  Admins: %d  Regular: %d", s.Total, s.Verified, s.Admins, s.Regular))

	return a.printUsers(users)
}

func (a *App) printUsers(users []models.UserProfile) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t----\t------")
	for _, u := range users {
		name := u.DisplayName()
		if u.ID == a.self {
			name += " (you)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, name, u.Email, u.Role, u.VerificationStatus())
	}
	return w.Flush()
}

// Delete removes a user from the admin dashboard after confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	if d := a.guard.Decide(session.PathAdminDashboard); d.Outcome != session.Render {
		return a.navigate(ctx, session.PathAdminDashboard, false)
	}
	a.view = session.PathAdminDashboard

	if a.self == "" {
		p, err := a.auth.Profile(ctx)
		if err != nil {
			return a.viewError(ctx, session.PathAdminDashboard, err)
		}
		a.self = p.ID
	}

	ok, err := Confirm(a.reader, "Are you sure you want to delete this user?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.admin.DeleteUser(ctx, a.self, models.UserID(id)); err != nil {
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden) {
			return a.viewError(ctx, session.PathAdminDashboard, err)
		}
		a.println("Error:", services.Message(err))
		return nil
	}

	a.println("User deleted successfully")
	return a.adminDashboard(ctx)
}

// viewError shows a failed load of a protected view. A rejected credential
// has already ended the session; a refused role goes back to the viewer's
// own dashboard.
func (a *App) viewError(ctx context.Context, path string, err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return a.navigate(ctx, session.PathLogin, false)

	case errors.Is(err, client.ErrForbidden):
		d := a.guard.Deny(path)
		if d.Outcome == session.Redirect {
			return a.navigate(ctx, d.Path, false)
		}
		a.println(a.guard.TakeNotice())
		return nil
	}

	a.println("Error:", services.Message(err))
	return nil
}
