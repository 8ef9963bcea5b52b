package client

import (
	"context"

	"github.com/dmitrijs2005/authdesk/internal/client/models"
)

// Client is the contract of the remote auth service.
type Client interface {
	Register(ctx context.Context, req models.RegisterRequest) (string, error)
	Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (models.UserProfile, error)
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	DeleteUser(ctx context.Context, id models.UserID) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	// OAuthURL is the address a browser is sent to for provider sign-in.
	OAuthURL(provider string) string
}
