package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"taskflow/internal/domain"
	"taskflow/internal/identity"
)

// AccountService covers the self-service credential operations.
type AccountService struct {
	Users  *identity.Store
	Logger *slog.Logger
}

func NewAccountService(users *identity.Store, logger *slog.Logger) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{Users: users, Logger: logger}
}

// ChangePassword swaps the password after verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) domain.Result {
	if !validPassword(next) {
		return domain.Failure(domain.UserErrors.FailToChangePassword)
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		s.Logger.Error("account lookup failed", "user_id", userID, "error", err)
		return domain.Failure(domain.UserErrors.FailToChangePassword)
	}
	if user == nil {
		return domain.Failure(domain.UserErrors.UserNotExist)
	}
	if !s.Users.CheckPassword(user, current) {
		return domain.Failure(domain.UserErrors.PasswordMismatch)
	}
	if err := s.Users.SetPassword(ctx, user, next); err != nil {
		s.Logger.Error("password change failed", "user_id", userID, "error", err)
		return domain.Failure(domain.UserErrors.FailToChangePassword)
	}
	s.Logger.Info("password changed", "user_id", userID)
	return domain.Success()
}
