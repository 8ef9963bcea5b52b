package web

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/metrics"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
	"github.com/dmitrijs2005/authdesk/internal/client/services"
	"github.com/dmitrijs2005/authdesk/internal/client/session"
	"github.com/dmitrijs2005/authdesk/internal/client/store"
)

var (
	adminProfile = models.UserProfile{ID: "1", FirstName: "Ada", LastName: "L", Email: "admin@x", Role: models.RoleAdmin, EmailVerified: true}
	userProfile  = models.UserProfile{ID: "2", FirstName: "Bob", Email: "bob@x", Role: models.RoleUser}
)

// fakeClient answers as the auth service would for the credential
// currently in the store: "tok-USER" or "tok-ADMIN".
type fakeClient struct {
	st *store.MemoryStore

	mu          sync.Mutex
	gate        chan struct{}
	profileErr  error
	requires2FA bool
	deleted     []models.UserID
	resetToken  string
	logouts     int
}

func (f *fakeClient) Register(context.Context, models.RegisterRequest) (string, error) {
	return "Registration successful. Please sign in.", nil
}

func (f *fakeClient) Login(_ context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	if req.Password != "pw" {
		return models.LoginResponse{}, &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requires2FA {
		return models.LoginResponse{Requires2FA: true}, nil
	}
	role := models.RoleUser
	if req.Email == adminProfile.Email {
		role = models.RoleAdmin
	}
	return models.LoginResponse{AccessToken: "tok-" + string(role), RefreshToken: "ref"}, nil
}

func (f *fakeClient) Logout(context.Context) error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Profile(ctx context.Context) (models.UserProfile, error) {
	f.mu.Lock()
	gate, perr := f.gate, f.profileErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.UserProfile{}, ctx.Err()
		}
	}
	if perr != nil {
		return models.UserProfile{}, perr
	}

	access, _ := f.st.Read()
	switch access {
	case "tok-ADMIN":
		return adminProfile, nil
	case "tok-USER":
		return userProfile, nil
	}
	return models.UserProfile{}, &client.APIError{Status: http.StatusUnauthorized}
}

func (f *fakeClient) ListUsers(context.Context) ([]models.UserProfile, error) {
	if access, _ := f.st.Read(); access != "tok-ADMIN" {
		return nil, &client.APIError{Status: http.StatusForbidden}
	}
	return []models.UserProfile{adminProfile, userProfile}, nil
}

func (f *fakeClient) DeleteUser(_ context.Context, id models.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeClient) ForgotPassword(context.Context, string) (string, error) {
	return "Password reset email sent", nil
}

func (f *fakeClient) ResetPassword(_ context.Context, token, _ string) (string, error) {
	f.mu.Lock()
	f.resetToken = token
	f.mu.Unlock()
	return "Password has been reset", nil
}

func (f *fakeClient) OAuthURL(provider string) string {
	return "http://auth.test/oauth2/authorization/" + provider
}

type harness struct {
	srv    *Server
	client *fakeClient
	store  *store.MemoryStore
	guard  *session.Guard
}

func newHarness(t *testing.T, configure ...func(*fakeClient)) *harness {
	t.Helper()
	st := store.NewMemory()
	fc := &fakeClient{st: st}
	for _, c := range configure {
		c(fc)
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	g := session.NewGuard(st, fc, session.WithMetrics(m))
	g.Start(context.Background())
	t.Cleanup(g.Close)

	busy := services.NewBusy()
	srv, err := New(Dependencies{
		Auth:     services.NewAuthService(fc, g, services.WithBusy(busy), services.WithMetrics(m)),
		Admin:    services.NewAdminService(fc, g, services.WithBusy(busy), services.WithMetrics(m)),
		Guard:    g,
		Gatherer: reg,
	})
	require.NoError(t, err)
	return &harness{srv: srv, client: fc, store: st, guard: g}
}

func (h *harness) do(method, target string, form url.Values, header ...string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.guard.Wait(ctx))
}

func (h *harness) signIn(t *testing.T, email string) {
	t.Helper()
	rec := h.do(http.MethodPost, session.PathLogin, url.Values{"email": {email}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, session.PathDashboard, rec.Header().Get("Location"))
	h.wait(t)
}

func TestSignedOutIsSentToLogin(t *testing.T) {
	h := newHarness(t)
	h.wait(t)

	for _, path := range []string{"/", session.PathDashboard, session.PathUserDashboard, session.PathAdminDashboard, "/nowhere"} {
		rec := h.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, session.PathLogin, rec.Header().Get("Location"), path)
	}
}

func TestPublicFormsRender(t *testing.T) {
	h := newHarness(t)
	h.wait(t)

	for _, path := range []string{session.PathLogin, session.PathSignup, session.PathForgotPassword} {
		rec := h.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `<form method="post"`, path)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	}
}

func TestLoadingPageWhileResolving(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, func(f *fakeClient) {
		f.gate = gate
		require.NoError(t, f.st.Save(context.Background(), "tok-USER", ""))
	})

	rec := h.do(http.MethodGet, session.PathUserDashboard, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.Contains(t, rec.Body.String(), `http-equiv="refresh"`)
	assert.NotContains(t, rec.Body.String(), "Welcome")

	close(gate)
	h.wait(t)

	rec = h.do(http.MethodGet, session.PathUserDashboard, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, Bob!")
}

func TestLoginAsAdminLandsOnAdminDashboard(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, adminProfile.Email)

	rec := h.do(http.MethodGet, session.PathDashboard, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathAdminDashboard, rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, session.PathAdminDashboard, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Admin dashboard")
	assert.Contains(t, body, "Ada L (you)")
	assert.Contains(t, body, "bob@x")
	assert.Contains(t, body, "Users: 2")
	assert.Contains(t, body, "/admin-dashboard/users/2/delete")
	assert.NotContains(t, body, "/admin-dashboard/users/1/delete")
}

func TestLoginFailureShowsError(t *testing.T) {
	h := newHarness(t)
	h.wait(t)

	rec := h.do(http.MethodPost, session.PathLogin, url.Values{"email": {"bob@x"}, "password": {"nope"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")
	assert.Contains(t, rec.Body.String(), `value="bob@x"`)

	_, ok := h.store.Read()
	assert.False(t, ok)
}

func TestLoginRequiring2FAStaysOnLogin(t *testing.T) {
	h := newHarness(t, func(f *fakeClient) { f.requires2FA = true })
	h.wait(t)

	rec := h.do(http.MethodPost, session.PathLogin, url.Values{"email": {"bob@x"}, "password": {"pw"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "two-factor verification")
}

func TestUserAtAdminDashboardIsSentHome(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, userProfile.Email)

	rec := h.do(http.MethodGet, session.PathAdminDashboard, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathUserDashboard, rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, session.PathUserDashboard, nil)
	assert.Contains(t, rec.Body.String(), session.NoticeAdminRequired)

	_, ok := h.store.Read()
	assert.True(t, ok)
}

func TestRejectedCredentialEndsSession(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, userProfile.Email)

	h.client.mu.Lock()
	h.client.profileErr = &client.APIError{Status: http.StatusUnauthorized}
	h.client.mu.Unlock()

	rec := h.do(http.MethodGet, session.PathUserDashboard, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathLogin, rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, session.PathLogin, nil)
	assert.Contains(t, rec.Body.String(), session.NoticeSessionEnded)

	_, ok := h.store.Read()
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, userProfile.Email)

	rec := h.do(http.MethodPost, "/logout", nil, "Origin", "http://example.com")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathLogin, rec.Header().Get("Location"))
	assert.Equal(t, 1, h.client.logouts)

	_, ok := h.store.Read()
	assert.False(t, ok)

	rec = h.do(http.MethodGet, session.PathLogin, nil)
	assert.Contains(t, rec.Body.String(), msgSignedOut)

	rec = h.do(http.MethodGet, session.PathUserDashboard, nil)
	assert.Equal(t, session.PathLogin, rec.Header().Get("Location"))
}

func TestCrossOriginPostRefused(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, adminProfile.Email)

	rec := h.do(http.MethodPost, "/logout", nil, "Origin", "http://evil.test")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/admin-dashboard/users/2/delete", nil, "Sec-Fetch-Site", "cross-site")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Zero(t, h.client.logouts)
	assert.Empty(t, h.client.deleted)
	_, ok := h.store.Read()
	assert.True(t, ok)
}

func TestDeleteUser(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, adminProfile.Email)

	rec := h.do(http.MethodPost, "/admin-dashboard/users/2/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathAdminDashboard, rec.Header().Get("Location"))
	assert.Equal(t, []models.UserID{"2"}, h.client.deleted)

	rec = h.do(http.MethodGet, session.PathAdminDashboard, nil)
	assert.Contains(t, rec.Body.String(), msgUserDeleted)
}

func TestDeleteSelfRefused(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, adminProfile.Email)

	rec := h.do(http.MethodPost, "/admin-dashboard/users/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, h.client.deleted)

	rec = h.do(http.MethodGet, session.PathAdminDashboard, nil)
	assert.Contains(t, rec.Body.String(), services.MsgDeleteSelf)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.signIn(t, userProfile.Email)

	rec := h.do(http.MethodPost, "/admin-dashboard/users/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.PathUserDashboard, rec.Header().Get("Location"))
	assert.Empty(t, h.client.deleted)
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t)
	h.wait(t)

	rec := h.do(http.MethodGet, session.PathResetPassword, nil)
	assert.Contains(t, rec.Body.String(), services.MsgMissingToken)

	rec = h.do(http.MethodGet, session.PathResetPassword+"?token=tok-1", nil)
	assert.Contains(t, rec.Body.String(), `value="tok-1"`)

	rec = h.do(http.MethodPost, session.PathResetPassword, url.Values{
		"token": {"tok-1"}, "newPassword": {"secret1"}, "confirmPassword": {"secret2"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), services.MsgPasswordsMismatch)
	assert.Empty(t, h.client.resetToken)

	rec = h.do(http.MethodPost, session.PathResetPassword, url.Values{
		"token": {"tok-1"}, "newPassword": {"secret1"}, "confirmPassword": {"secret1"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "tok-1", h.client.resetToken)

	rec = h.do(http.MethodGet, session.PathLogin, nil)
	assert.Contains(t, rec.Body.String(), "Password has been reset")
}

func TestSignupAndForgot(t *testing.T) {
	h := newHarness(t)
	h.wait(t)

	rec := h.do(http.MethodPost, session.PathSignup, url.Values{
		"firstName": {"Cy"}, "lastName": {"D"}, "email": {"cy@x"}, "password": {"secret1"},
	})
	assert.Contains(t, rec.Body.String(), "Registration successful")

	rec = h.do(http.MethodPost, session.PathForgotPassword, url.Values{"email": {"cy@x"}})
	assert.Contains(t, rec.Body.String(), "Password reset email sent")
}

func TestOAuthRedirect(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/oauth/github", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://auth.test/oauth2/authorization/github", rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, "/oauth/myspace", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.wait(t)
	h.do(http.MethodGet, session.PathUserDashboard, nil)

	rec := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "authdesk_guard_decisions_total")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.srv.Run(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
