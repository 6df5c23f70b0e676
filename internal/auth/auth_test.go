package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/db"
	"taskflow/internal/domain"
	"taskflow/internal/identity"
	"taskflow/internal/migrate"
)

var authNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	conn    *sql.DB
	users   *identity.Store
	service *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	users := identity.NewStore(conn)
	users.Now = func() time.Time { return authNow }
	provider := Provider{
		Settings: Settings{Key: "test-secret", Issuer: "taskflow", Audience: "taskflow-clients", LifetimeMinutes: 30},
		Now:      func() time.Time { return authNow },
	}
	svc := NewService(users, provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.Now = func() time.Time { return authNow }
	return &testEnv{conn: conn, users: users, service: svc}
}

func (e *testEnv) createUser(t *testing.T, email, password string) *identity.User {
	t.Helper()
	u := identity.NewUser(email)
	if err := e.users.CreateUser(context.Background(), u, password); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestLoginIssuesPair(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "dana@example.com", "Passw0rd")
	env.users.AddToRole(ctx, u.ID, identity.RoleDeveloper)

	res := env.service.Login(ctx, "dana@example.com", "Passw0rd")
	if res.IsFailure() {
		t.Fatalf("login failed: %s", res.Err().Code)
	}
	pair := res.Value()
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if got := env.service.Provider.ValidateToken(pair.AccessToken); got != u.ID {
		t.Fatalf("access token subject mismatch: %s", got)
	}
	if want := authNow.Add(15 * 24 * time.Hour); !pair.RefreshExpiresOn.Equal(want) {
		t.Fatalf("refresh expiry: got %v want %v", pair.RefreshExpiresOn, want)
	}
}

func TestLoginEnumerationSafety(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "dana@example.com", "Passw0rd")

	unknown := env.service.Login(ctx, "nobody@example.com", "Passw0rd")
	wrongPassword := env.service.Login(ctx, "dana@example.com", "WrongPass1")
	empty := env.service.Login(ctx, "", "")

	for _, res := range []domain.ValueResult[LoginResponse]{unknown, wrongPassword, empty} {
		if res.IsSuccess() {
			t.Fatal("expected failure")
		}
		if res.Err() != domain.UserErrors.InvalidCredentials {
			t.Fatalf("expected uniform InvalidCredentials, got %s", res.Err().Code)
		}
	}
}

func TestLoginStoreFaultIsInternal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "dana@example.com", "Passw0rd")
	env.conn.Close()

	res := env.service.Login(ctx, "dana@example.com", "Passw0rd")
	if res.IsSuccess() {
		t.Fatal("login succeeded against a closed store")
	}
	if res.Err() == domain.UserErrors.InvalidCredentials {
		t.Fatal("store fault reported as a credential problem")
	}
	if res.Err().Type != domain.ErrorTypeInternalServerError {
		t.Fatalf("expected internal error, got %s (%s)", res.Err().Code, res.Err().Type)
	}
}

func TestRefreshRotationChain(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "dana@example.com", "Passw0rd")

	login := env.service.Login(ctx, "dana@example.com", "Passw0rd")
	if login.IsFailure() {
		t.Fatalf("login: %s", login.Err().Code)
	}
	r1 := login.Value()

	rot := env.service.Refresh(ctx, r1.AccessToken, r1.RefreshToken)
	if rot.IsFailure() {
		t.Fatalf("first refresh failed: %s", rot.Err().Code)
	}
	r2 := rot.Value()
	if r2.RefreshToken == r1.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	// R1 is single-use: replaying it must fail.
	if res := env.service.Refresh(ctx, r1.AccessToken, r1.RefreshToken); res.IsSuccess() {
		t.Fatal("replayed refresh token accepted")
	}
	// R2 is live.
	if res := env.service.Refresh(ctx, r2.AccessToken, r2.RefreshToken); res.IsFailure() {
		t.Fatalf("successor token rejected: %s", res.Err().Code)
	}
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "dana@example.com", "Passw0rd")

	login := env.service.Login(ctx, "dana@example.com", "Passw0rd")
	pair := login.Value()

	// Issue a long-expired access token with the same key.
	expiredProvider := Provider{
		Settings: env.service.Provider.Settings,
		Now:      func() time.Time { return authNow.Add(-48 * time.Hour) },
	}
	expiredProvider.Settings.LifetimeMinutes = 1
	expired, err := expiredProvider.GenerateToken(u, nil, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res := env.service.Refresh(ctx, expired.Token, pair.RefreshToken); res.IsFailure() {
		t.Fatalf("expired access token rejected by refresh: %s", res.Err().Code)
	}
}

func TestRefreshRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "dana@example.com", "Passw0rd")
	pair := env.service.Login(ctx, "dana@example.com", "Passw0rd").Value()

	forged := Provider{Settings: Settings{Key: "other-secret"}, Now: func() time.Time { return authNow }}
	token, err := forged.GenerateToken(u, nil, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res := env.service.Refresh(ctx, token.Token, pair.RefreshToken); res.IsSuccess() {
		t.Fatal("foreign-signed access token accepted")
	}
}

func TestRevokeRefreshToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "dana@example.com", "Passw0rd")
	pair := env.service.Login(ctx, "dana@example.com", "Passw0rd").Value()

	if res := env.service.Revoke(ctx, u.ID, pair.RefreshToken); res.IsFailure() {
		t.Fatalf("revoke failed: %s", res.Err().Code)
	}
	// Revoked token cannot refresh or be revoked again.
	if res := env.service.Refresh(ctx, pair.AccessToken, pair.RefreshToken); res.IsSuccess() {
		t.Fatal("revoked token refreshed")
	}
	if res := env.service.Revoke(ctx, u.ID, pair.RefreshToken); res.IsSuccess() {
		t.Fatal("double revoke succeeded")
	}
	if res := env.service.Revoke(ctx, u.ID, "unknown-token"); res.IsSuccess() {
		t.Fatal("unknown token revoked")
	}
}

func TestMultipleActiveTokensPerUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "dana@example.com", "Passw0rd")

	laptop := env.service.Login(ctx, "dana@example.com", "Passw0rd").Value()
	phone := env.service.Login(ctx, "dana@example.com", "Passw0rd").Value()

	// Rotating the laptop token must not disturb the phone session.
	if res := env.service.Refresh(ctx, laptop.AccessToken, laptop.RefreshToken); res.IsFailure() {
		t.Fatalf("laptop refresh failed: %s", res.Err().Code)
	}
	if res := env.service.Refresh(ctx, phone.AccessToken, phone.RefreshToken); res.IsFailure() {
		t.Fatalf("phone refresh failed: %s", res.Err().Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createUser(t, "dana@example.com", "Passw0rd")

	// Unknown email: empty token, no error.
	token, err := env.service.GeneratePasswordResetToken(ctx, "nobody@example.com")
	if err != nil || token != "" {
		t.Fatalf("unknown email should yield empty token, got %q err %v", token, err)
	}

	token, err = env.service.GeneratePasswordResetToken(ctx, "dana@example.com")
	if err != nil || token == "" {
		t.Fatalf("reset token generation failed: %q %v", token, err)
	}

	if res := env.service.ResetPassword(ctx, "dana@example.com", "bogus", "NewPass1"); res.IsSuccess() {
		t.Fatal("bogus reset token accepted")
	}
	if res := env.service.ResetPassword(ctx, "dana@example.com", token, "NewPass1"); res.IsFailure() {
		t.Fatalf("reset failed: %s", res.Err().Code)
	}
	// Token is single use.
	if res := env.service.ResetPassword(ctx, "dana@example.com", token, "OtherPass1"); res.IsSuccess() {
		t.Fatal("reset token reused")
	}

	if res := env.service.Login(ctx, "dana@example.com", "Passw0rd"); res.IsSuccess() {
		t.Fatal("old password still valid")
	}
	if res := env.service.Login(ctx, "dana@example.com", "NewPass1"); res.IsFailure() {
		t.Fatalf("new password rejected: %s", res.Err().Code)
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	env := newTestEnv(t)
	if got := env.service.Provider.ValidateToken("not-a-jwt"); got != uuid.Nil {
		t.Fatalf("garbage token yielded subject %s", got)
	}
	if got := env.service.Provider.ValidateToken(""); got != uuid.Nil {
		t.Fatalf("empty token yielded subject %s", got)
	}
}
