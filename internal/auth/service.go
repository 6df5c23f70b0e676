package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/domain"
	"taskflow/internal/identity"
)

// LoginResponse is the credential pair handed to a client on login or
// refresh.
type LoginResponse struct {
	AccessToken      string
	ExpiresAt        time.Time
	RefreshToken     string
	RefreshExpiresOn time.Time
}

// Service implements login, refresh rotation, revocation and the
// password reset flows on top of the credential store.
type Service struct {
	Users    *identity.Store
	Provider Provider
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewService(users *identity.Store, provider Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Users: users, Provider: provider, Logger: logger, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Login verifies the credentials and issues a token pair. Credential
// failures all return the same error so callers cannot tell which emails
// have accounts; store and issuance faults surface as internal errors
// instead of masquerading as bad credentials.
func (s *Service) Login(ctx context.Context, email, password string) domain.ValueResult[LoginResponse] {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidCredentials)
	}
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		s.Logger.Error("login lookup failed", "error", err)
		return domain.Fail[LoginResponse](domain.UserErrors.FailToLogin)
	}
	if user == nil || !s.Users.CheckPassword(user, password) {
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidCredentials)
	}
	resp, err := s.issuePair(ctx, user)
	if err != nil {
		s.Logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		return domain.Fail[LoginResponse](domain.UserErrors.FailToLogin)
	}
	s.Logger.Info("user logged in", "user_id", user.ID)
	return domain.Ok(resp)
}

// Refresh rotates a refresh token: the presented token is revoked and a
// successor pair is issued. The access token only proves possession; its
// expiry is ignored.
func (s *Service) Refresh(ctx context.Context, accessToken, refreshToken string) domain.ValueResult[LoginResponse] {
	userID := s.Provider.ValidateToken(accessToken)
	if userID == uuid.Nil {
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidRefreshToken)
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		s.Logger.Error("refresh lookup failed", "error", err)
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidRefreshToken)
	}
	if user == nil {
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidRefreshToken)
	}
	now := s.now()
	current := user.FindRefreshToken(refreshToken)
	if current == nil || !current.IsActive(now) {
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidRefreshToken)
	}
	current.Revoke(now)
	resp, err := s.issuePair(ctx, user)
	if err != nil {
		s.Logger.Error("refresh issuance failed", "user_id", user.ID, "error", err)
		return domain.Fail[LoginResponse](domain.UserErrors.InvalidRefreshToken)
	}
	s.Logger.Info("refresh token rotated", "user_id", user.ID)
	return domain.Ok(resp)
}

// Revoke invalidates one active refresh token for the user.
func (s *Service) Revoke(ctx context.Context, userID uuid.UUID, refreshToken string) domain.Result {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		s.Logger.Error("revoke lookup failed", "error", err)
		return domain.Failure(domain.UserErrors.InvalidRefreshToken)
	}
	if user == nil {
		return domain.Failure(domain.UserErrors.InvalidRefreshToken)
	}
	now := s.now()
	token := user.FindRefreshToken(refreshToken)
	if token == nil || !token.IsActive(now) {
		return domain.Failure(domain.UserErrors.InvalidRefreshToken)
	}
	token.Revoke(now)
	if err := s.Users.UpdateUser(ctx, user); err != nil {
		s.Logger.Error("revoke persist failed", "user_id", user.ID, "error", err)
		return domain.Failure(domain.UserErrors.InvalidRefreshToken)
	}
	return domain.Success()
}

// GeneratePasswordResetToken returns a reset token, or the empty string
// for an unknown email. The empty string keeps this flow from confirming
// account existence while the login flow stays uniformly erroring.
func (s *Service) GeneratePasswordResetToken(ctx context.Context, email string) (string, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return s.Users.GeneratePasswordResetToken(ctx, user)
}

// ResetPassword consumes a reset token and installs the new password.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword string) domain.Result {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		s.Logger.Error("reset lookup failed", "error", err)
		return domain.Failure(domain.UserErrors.FailToResetPassword)
	}
	if user == nil {
		return domain.Failure(domain.UserErrors.InvalidResetToken)
	}
	ok, err := s.Users.ConsumePasswordResetToken(ctx, user, token, newPassword)
	if err != nil {
		s.Logger.Error("reset persist failed", "user_id", user.ID, "error", err)
		return domain.Failure(domain.UserErrors.FailToResetPassword)
	}
	if !ok {
		return domain.Failure(domain.UserErrors.InvalidResetToken)
	}
	return domain.Success()
}

func (s *Service) issuePair(ctx context.Context, user *identity.User) (LoginResponse, error) {
	roles, err := s.Users.GetRoles(ctx, user.ID)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("load roles: %w", err)
	}
	perms, err := s.Users.GetPermissions(ctx, user.ID)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("load permissions: %w", err)
	}
	access, err := s.Provider.GenerateToken(user, roles, perms)
	if err != nil {
		return LoginResponse{}, err
	}
	refresh, err := s.Users.NewRefreshToken(s.Provider.Settings.RefreshLifetime())
	if err != nil {
		return LoginResponse{}, err
	}
	user.AddRefreshToken(refresh)
	if err := s.Users.UpdateUser(ctx, user); err != nil {
		return LoginResponse{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return LoginResponse{
		AccessToken:      access.Token,
		ExpiresAt:        access.ExpiresAt,
		RefreshToken:     refresh.Token,
		RefreshExpiresOn: refresh.ExpiresOn,
	}, nil
}
