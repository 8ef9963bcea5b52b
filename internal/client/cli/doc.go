// Package cli implements the interactive terminal front end of authdesk.
//
// Every view command is a navigation answered by the route guard: the view
// renders, shows "Loading..." until the session is resolved, or is replaced
// by the view the guard redirects to. Forms prompt on the terminal;
// passwords are read without echo.
package cli
