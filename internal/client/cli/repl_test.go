package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	err      error

	calls []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Open(_ context.Context, path string) error {
	f.calls = append(f.calls, "open "+path)
	return f.err
}
func (f *fakeExec) Delete(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete "+id)
	return f.err
}
func (f *fakeExec) Logout(context.Context) error {
	f.calls = append(f.calls, "logout")
	f.loggedIn = false
	return f.err
}
func (f *fakeExec) OAuth(provider string) error {
	f.calls = append(f.calls, "oauth "+provider)
	return f.err
}
func (f *fakeExec) Status(context.Context) error {
	f.calls = append(f.calls, "status")
	return f.err
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(_ io.Writer, a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	captureOutput(t)

	input := strings.Join([]string{
		"help",
		"login",
		"signup",
		"forgot",
		"reset abc",
		"dashboard",
		"admin",
		"open /user-dashboard",
		"delete 7",
		"oauth github",
		"status",
		"logout",
		"exit",
		"login",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(/)" }, bufio.NewReader(strings.NewReader(input)), io.Discard)

	assert.Equal(t, []string{
		"open /login",
		"open /signup",
		"open /forgot-password",
		"open /reset-password?token=abc",
		"open /dashboard",
		"open /admin-dashboard",
		"open /user-dashboard",
		"delete 7",
		"oauth github",
		"status",
		"logout",
	}, exec.calls)
}

func TestRunREPL_UsageAndUnknown(t *testing.T) {
	out := captureOutput(t)

	input := "reset\nopen\ndelete\noauth\nfoobar\n\nquit\n"
	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader(input)), io.Discard)

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: reset <token>")
	assert.Contains(t, *out, "Usage: open <path>")
	assert.Contains(t, *out, "Usage: delete <id>")
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_ReportsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{err: errors.New("boom")}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("status\nlogout")), io.Discard)

	assert.Equal(t, []string{"status", "logout"}, exec.calls)
	assert.Contains(t, *out, "Error: boom")
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	out := captureOutput(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "" }, bufio.NewReader(strings.NewReader("help\n")), io.Discard)
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "" }, bufio.NewReader(strings.NewReader("help\n")), io.Discard)

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "login, signup")
	assert.Contains(t, joined, "dashboard, admin")
}

func TestRunREPL_WritesToOut(t *testing.T) {
	var out bytes.Buffer
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(/login)" }, bufio.NewReader(strings.NewReader("help\nfoobar\nexit\n")), &out)

	got := out.String()
	assert.Contains(t, got, "authdesk (/login)> ")
	assert.Contains(t, got, "Available commands: login")
	assert.Contains(t, got, "Unknown command: foobar")
	assert.Contains(t, got, "Bye!")
}
