package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/client/store"
	"github.com/dmitrijs2005/authdesk/internal/client/tokeninfo"
)

// SessionStatus is what `status` reports about the local session.
type SessionStatus struct {
	Credential bool       `json:"credential"`
	Refresh    bool       `json:"refresh_credential"`
	State      string     `json:"state"`
	Role       string     `json:"role,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Expired    bool       `json:"expired,omitempty"`
	Opaque     bool       `json:"opaque,omitempty"`
}

// CollectStatus snapshots the guard and store. Expiry and subject are read
// from the credential without verification and are informational only.
func CollectStatus(g *session.Guard, st store.CredentialStore, now time.Time) SessionStatus {
	access, ok := st.Read()
	_, refresh := st.Refresh()

	s := SessionStatus{
		Credential: ok,
		Refresh:    refresh,
		State:      g.State().String(),
	}
	if role, ok := g.Role(); ok {
		s.Role = string(role)
	}
	if !ok {
		return s
	}

	info, err := tokeninfo.Inspect(access)
	if err != nil {
		s.Opaque = true
		return s
	}
	s.Subject = info.Subject
	if !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt
		s.ExpiresAt = &exp
		s.Expired = info.Expired(now)
	}
	return s
}

// FormatStatusTable formats the status as a human-readable table.
func FormatStatusTable(s SessionStatus, now time.Time) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Credential\t%s\n", presence(s.Credential))
	_, _ = fmt.Fprintf(w, "Refresh credential\t%s (kept, not used for renewal)\n", presence(s.Refresh))
	_, _ = fmt.Fprintf(w, "Session\t%s\n", s.State)
	if s.Role != "" {
		_, _ = fmt.Fprintf(w, "Role\t%s\n", s.Role)
	}
	if s.Subject != "" {
		_, _ = fmt.Fprintf(w, "Subject\t%s\n", s.Subject)
	}
	switch {
	case !s.Credential:
	case s.Opaque:
		_, _ = fmt.Fprintln(w, "Expiry\tunknown (opaque credential)")
	case s.ExpiresAt == nil:
		_, _ = fmt.Fprintln(w, "Expiry\tnone")
	case s.Expired:
		_, _ = fmt.Fprintf(w, "Expiry\texpired at %s\n", s.ExpiresAt.Format(time.RFC3339))
	default:
		left := s.ExpiresAt.Sub(now).Round(time.Second)
		_, _ = fmt.Fprintf(w, "Expiry\t%s (in %s)\n", s.ExpiresAt.Format(time.RFC3339), left)
	}

	_ = w.Flush()
	return buf.String()
}

// FormatStatusJSON formats the status as JSON.
func FormatStatusJSON(s SessionStatus) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

// Status prints the session status in the REPL.
func (a *App) Status(_ context.Context) error {
	now := time.Now()
	_, err := fmt.Fprint(a.out, FormatStatusTable(CollectStatus(a.guard, a.store, now), now))
	return err
}
