package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authdesk/internal/client/session"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Fprintln

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Open(ctx context.Context, path string) error
	Delete(ctx context.Context, id string) error
	Logout(ctx context.Context) error
	OAuth(provider string) error
	Status(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the authdesk terminal.
//
// It reads a line from in, writes to out, parses the first token as the command, and
// dispatches to methods on 'a'. View commands are navigations and go
// through the route guard. The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Signed out:
//	  - login           : sign in
//	  - signup          : create an account
//	  - forgot          : request a password reset link
//	  - reset <token>   : set a new password with a reset token
//	  - oauth <provider>: sign in with google or github
//
//	Signed in:
//	  - dashboard       : open the dashboard for your role
//	  - admin           : open the admin dashboard
//	  - delete <id>     : delete a user (admin dashboard)
//	  - logout          : sign out
//
//	Always:
//	  - open <path>     : navigate to a path, e.g. open /user-dashboard
//	  - status          : show session state
//	  - help            : show available commands
//	  - exit | quit     : leave the program
//
// Errors returned by command handlers are printed; the loop keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader, out io.Writer) {
	for {
		printlnFn(out, fmt.Sprintf("authdesk %s> ", statusFn()))
		line, err := readLine(in)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				printlnFn(out, "Input error:", err)
			}
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(out, "Available commands: dashboard, admin, delete <id>, open <path>, status, logout, exit")
			} else {
				printlnFn(out, "Available commands: login, signup, forgot, reset <token>, oauth <google|github>, open <path>, status, exit")
			}

		case "login":
			cmdErr = a.Open(ctx, session.PathLogin)

		case "signup", "register":
			cmdErr = a.Open(ctx, session.PathSignup)

		case "forgot":
			cmdErr = a.Open(ctx, session.PathForgotPassword)

		case "reset":
			if len(args) == 0 {
				printlnFn(out, "Usage: reset <token>")
				continue
			}
			cmdErr = a.Open(ctx, session.PathResetPassword+"?token="+args[0])

		case "dashboard":
			cmdErr = a.Open(ctx, session.PathDashboard)

		case "admin":
			cmdErr = a.Open(ctx, session.PathAdminDashboard)

		case "open":
			if len(args) == 0 {
				printlnFn(out, "Usage: open <path>")
				continue
			}
			cmdErr = a.Open(ctx, args[0])

		case "delete":
			if len(args) == 0 {
				printlnFn(out, "Usage: delete <id>")
				continue
			}
			cmdErr = a.Delete(ctx, args[0])

		case "oauth":
			if len(args) == 0 {
				printlnFn(out, "Usage: oauth <google|github>")
				continue
			}
			cmdErr = a.OAuth(args[0])

		case "status":
			cmdErr = a.Status(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn(out, "Bye!")
			return

		default:
			printlnFn(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(out, "Error:", cmdErr)
		}
	}
}
