// Package client contains the transport layer of authdesk.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract for the remote auth service (see the
//     Client interface): Register, Login, Logout, Profile, ListUsers,
//     DeleteUser, ForgotPassword, ResetPassword and OAuthURL.
//  2. An HTTP/JSON implementation (see HTTPClient). Every outbound request
//     passes through a round tripper that reads the access credential from a
//     TokenSource at send time and attaches it as a bearer Authorization
//     header, stamps an X-Request-ID, and is traced with otelhttp.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that backs the credential store.
//
// # Error Handling
//
// Failures are classified with sentinel errors that callers match with
// errors.Is: ErrUnavailable (no response), ErrUnauthorized (401),
// ErrForbidden (403), ErrValidation (other 4xx) and ErrServer (5xx).
// Non-2xx responses are returned as *APIError carrying the server message;
// MessageOf extracts it for inline display.
//
// The refresh credential is never presented by this package: the service
// exposes no refresh endpoint, so an expired access credential surfaces as
// ErrUnauthorized and ends the session.
package client
