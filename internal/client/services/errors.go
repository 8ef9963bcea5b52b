package services

import (
	"errors"

	"github.com/dmitrijs2005/authdesk/internal/common"
)

// Fallback messages shown when the service did not provide one.
const (
	MsgLoginFailed    = "Login failed. Please try again."
	MsgRegisterFailed = "Registration failed. Please try again."
	MsgForgotFailed   = "Failed to send reset email. Please try again."
	MsgResetFailed    = "Failed to reset password. Please try again."
	MsgProfileFailed  = "Failed to load profile."
	MsgUsersFailed    = "Failed to load users."
	MsgDeleteFailed   = "Failed to delete user."

	MsgPasswordsMismatch = "Passwords do not match"
	MsgPasswordTooShort  = "Password must be at least 6 characters"
	MsgMissingToken      = "Reset link is missing its token"
	MsgDeleteSelf        = "You cannot delete your own account"
	MsgBusy              = "Please wait, the previous request is still running."
	Msg2FARequired       = "This account requires two-factor verification, which authdesk does not support yet."
)

// FormError is a failure to be shown inline on the view that started the
// operation.
type FormError struct {
	Message string
	Err     error
}

func (e *FormError) Error() string { return e.Message }

func (e *FormError) Unwrap() error { return e.Err }

func invalid(msg string) error {
	return &FormError{Message: msg, Err: common.ErrInvalidInput}
}

// Message returns the text a view shows for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Message
	}
	if errors.Is(err, common.ErrBusy) {
		return MsgBusy
	}
	return err.Error()
}
