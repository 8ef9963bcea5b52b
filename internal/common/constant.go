// Package common contains names shared by the client layers of authdesk:
// persisted credential keys and HTTP header names.
package common

// Names of the two persisted credential entries. They are written and
// cleared together.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Outbound HTTP headers.
const (
	AuthorizationHeaderName = "Authorization"
	BearerPrefix            = "Bearer "
	RequestIDHeaderName     = "X-Request-ID"
)
