// Package models defines the payloads exchanged with the auth service and
// the client-side views built from them.
package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Role is the server-assigned claim that gates the dashboards.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserID accepts both JSON strings and JSON numbers; the service emits
// numeric ids but the client only ever echoes them back in URLs.
type UserID string

func (id *UserID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = UserID(n.String())
	return nil
}

// UserProfile is a read-only snapshot of the server-held user record.
type UserProfile struct {
	ID            UserID `json:"id"`
	Name          string `json:"name"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Role          Role   `json:"role"`
	EmailVerified bool   `json:"emailVerified"`
}

// DisplayName prefers the full name, then first+last, then the email.
func (p UserProfile) DisplayName() string {
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(p.FirstName + " " + p.LastName); n != "" {
		return n
	}
	return p.Email
}

// VerificationStatus is the label shown for EmailVerified.
func (p UserProfile) VerificationStatus() string {
	if p.EmailVerified {
		return "Verified"
	}
	return "Not Verified"
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Requires2FA  bool   `json:"requires2FA,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// UserStats summarises the admin user list.
type UserStats struct {
	Total    int
	Verified int
	Admins   int
	Regular  int
}

func ComputeStats(users []UserProfile) UserStats {
	s := UserStats{Total: len(users)}
	for _, u := range users {
		if u.EmailVerified {
			s.Verified++
		}
		if u.Role == RoleAdmin {
			s.Admins++
		}
	}
	s.Regular = s.Total - s.Admins
	return s
}
