package services

import (
	"context"

	"github.com/dmitrijs2005/authdesk/internal/client/client"
	"github.com/dmitrijs2005/authdesk/internal/client/models"
)

// AdminService backs the admin dashboard.
type AdminService interface {
	Users(ctx context.Context) ([]models.UserProfile, error)
	// DeleteUser removes id; self is the viewer, who may not delete their
	// own account.
	DeleteUser(ctx context.Context, self, id models.UserID) error
	Stats(users []models.UserProfile) models.UserStats
}

type adminService struct {
	client  client.Client
	session Session
	deps
}

func NewAdminService(c client.Client, s Session, opts ...Option) AdminService {
	return &adminService{client: c, session: s, deps: newDeps(opts)}
}

func (a *adminService) Users(ctx context.Context) (users []models.UserProfile, err error) {
	defer func() { a.metrics.Operation(OpListUsers, err) }()

	users, err = a.client.ListUsers(ctx)
	if err != nil {
		expireOnUnauthorized(ctx, a.session, a.logger, err)
		return nil, &FormError{Message: client.MessageOf(err, MsgUsersFailed), Err: err}
	}
	return users, nil
}

func (a *adminService) DeleteUser(ctx context.Context, self, id models.UserID) (err error) {
	if id == "" {
		return invalid("User id is required")
	}
	if id == self {
		return invalid(MsgDeleteSelf)
	}

	release, err := a.busy.Acquire(OpDeleteUser)
	if err != nil {
		return err
	}
	defer release()
	defer func() { a.metrics.Operation(OpDeleteUser, err) }()

	if err := a.client.DeleteUser(ctx, id); err != nil {
		expireOnUnauthorized(ctx, a.session, a.logger, err)
		return &FormError{Message: MsgDeleteFailed + " " + client.MessageOf(err, err.Error()), Err: err}
	}
	a.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

func (a *adminService) Stats(users []models.UserProfile) models.UserStats {
	return models.ComputeStats(users)
}
