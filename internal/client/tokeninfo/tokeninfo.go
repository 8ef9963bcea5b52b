// Package tokeninfo reads the registered claims of a stored access
// credential without verifying its signature. The result is for display
// only: the client never derives the role or any access decision from it.
package tokeninfo

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaque is returned for credentials that are not JWTs.
var ErrOpaque = errors.New("credential is not a JWT")

type Info struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the credential carries an expiry before now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Remaining is the time left before expiry, or 0 when unknown or past.
func (i Info) Remaining(now time.Time) time.Duration {
	if i.ExpiresAt.IsZero() || now.After(i.ExpiresAt) {
		return 0
	}
	return i.ExpiresAt.Sub(now)
}

// Inspect parses raw as an unverified JWT.
func Inspect(raw string) (Info, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Info{}, errors.Join(ErrOpaque, err)
	}

	var info Info
	info.Subject = claims.Subject
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
