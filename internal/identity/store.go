package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

// Store persists users, roles, claims and refresh tokens. It is the
// narrow credential collaborator the services talk to; profile data
// lives in the developers aggregate, not here.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

// CreateUser hashes the password and inserts the account.
func (s *Store) CreateUser(ctx context.Context, u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.CreatedAt = s.now()
	_, err = s.DB.ExecContext(ctx, `INSERT INTO users(id,email,normalized_email,user_name,normalized_user_name,password_hash,email_confirmed,created_at)
VALUES (?,?,?,?,?,?,?,?)`,
		u.ID.String(), u.Email, u.NormalizedEmail, u.UserName, u.NormalizedUserName, u.PasswordHash, boolToInt(u.EmailConfirmed), formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// FindByEmail returns nil,nil when no account matches.
func (s *Store) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, `normalized_email=?`, strings.ToUpper(strings.TrimSpace(email)))
}

func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.findOne(ctx, `id=?`, id.String())
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*User, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id,email,normalized_email,user_name,normalized_user_name,password_hash,email_confirmed,created_at,modified_at FROM users WHERE `+where, arg)
	var u User
	var id, createdAt string
	var modifiedAt sql.NullString
	var confirmed int
	err := row.Scan(&id, &u.Email, &u.NormalizedEmail, &u.UserName, &u.NormalizedUserName, &u.PasswordHash, &confirmed, &createdAt, &modifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	u.EmailConfirmed = confirmed != 0
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if modifiedAt.Valid {
		t, err := parseTime(modifiedAt.String)
		if err != nil {
			return nil, err
		}
		u.ModifiedAt = &t
	}
	if err := s.loadRefreshTokens(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) loadRefreshTokens(ctx context.Context, u *User) error {
	rows, err := s.DB.QueryContext(ctx, `SELECT token,expires_on,created_on,revoked_on FROM refresh_tokens WHERE user_id=? ORDER BY created_on ASC`, u.ID.String())
	if err != nil {
		return err
	}
	defer rows.Close()
	u.RefreshTokens = nil
	for rows.Next() {
		var t RefreshToken
		var expiresOn, createdOn string
		var revokedOn sql.NullString
		if err := rows.Scan(&t.Token, &expiresOn, &createdOn, &revokedOn); err != nil {
			return err
		}
		t.UserID = u.ID
		if t.ExpiresOn, err = parseTime(expiresOn); err != nil {
			return err
		}
		if t.CreatedOn, err = parseTime(createdOn); err != nil {
			return err
		}
		if revokedOn.Valid {
			ts, err := parseTime(revokedOn.String)
			if err != nil {
				return err
			}
			t.RevokedOn = &ts
		}
		u.RefreshTokens = append(u.RefreshTokens, &t)
	}
	return rows.Err()
}

// ListUsers returns all accounts ordered by creation, without their
// refresh tokens.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id,email,user_name,email_confirmed,created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*User
	for rows.Next() {
		var u User
		var id, createdAt string
		var confirmed int
		if err := rows.Scan(&id, &u.Email, &u.UserName, &confirmed, &createdAt); err != nil {
			return nil, err
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		u.EmailConfirmed = confirmed != 0
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

// UpdateUser writes the account row and syncs the owned refresh tokens,
// inserting new ones and updating revocation marks.
func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	now := s.now()
	u.ModifiedAt = &now
	if _, err := tx.ExecContext(ctx, `UPDATE users SET email=?,normalized_email=?,user_name=?,normalized_user_name=?,password_hash=?,email_confirmed=?,modified_at=? WHERE id=?`,
		u.Email, u.NormalizedEmail, u.UserName, u.NormalizedUserName, u.PasswordHash, boolToInt(u.EmailConfirmed), formatTime(now), u.ID.String()); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	for _, t := range u.RefreshTokens {
		var revoked any
		if t.RevokedOn != nil {
			revoked = formatTime(*t.RevokedOn)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO refresh_tokens(token,user_id,expires_on,created_on,revoked_on) VALUES (?,?,?,?,?)
ON CONFLICT(token) DO UPDATE SET revoked_on=excluded.revoked_on`,
			t.Token, u.ID.String(), formatTime(t.ExpiresOn), formatTime(t.CreatedOn), revoked); err != nil {
			return fmt.Errorf("sync refresh token: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteUser removes the account outright. Used as the compensating
// action when a registration pipeline fails after the account exists.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id.String())
	return err
}

// CheckPassword reports whether the clear-text password matches.
func (s *Store) CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword rehashes and stores a new password.
func (s *Store) SetPassword(ctx context.Context, u *User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	_, err = s.DB.ExecContext(ctx, `UPDATE users SET password_hash=?, modified_at=? WHERE id=?`,
		u.PasswordHash, formatTime(s.now()), u.ID.String())
	return err
}

// GeneratePasswordResetToken mints a short-lived opaque token. Only its
// hash is stored.
func (s *Store) GeneratePasswordResetToken(ctx context.Context, u *User) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(resetTokenTTL)
	_, err = s.DB.ExecContext(ctx, `UPDATE users SET reset_token_hash=?, reset_token_expires_at=? WHERE id=?`,
		hashToken(token), formatTime(expires), u.ID.String())
	if err != nil {
		return "", err
	}
	return token, nil
}

// ConsumePasswordResetToken verifies the token and, when valid, swaps in
// the new password and clears the token. Returns false on any mismatch
// or expiry.
func (s *Store) ConsumePasswordResetToken(ctx context.Context, u *User, token, newPassword string) (bool, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT reset_token_hash, reset_token_expires_at FROM users WHERE id=?`, u.ID.String())
	var storedHash, expiresAt sql.NullString
	if err := row.Scan(&storedHash, &expiresAt); err != nil {
		return false, err
	}
	if !storedHash.Valid || !expiresAt.Valid || storedHash.String != hashToken(token) {
		return false, nil
	}
	expires, err := parseTime(expiresAt.String)
	if err != nil {
		return false, err
	}
	if !s.now().Before(expires) {
		return false, nil
	}
	if err := s.SetPassword(ctx, u, newPassword); err != nil {
		return false, err
	}
	_, err = s.DB.ExecContext(ctx, `UPDATE users SET reset_token_hash=NULL, reset_token_expires_at=NULL WHERE id=?`, u.ID.String())
	return err == nil, err
}

// AddToRole grants a role, idempotently.
func (s *Store) AddToRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles(user_id, role) VALUES (?,?)`, userID.String(), role)
	return err
}

func (s *Store) GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT role FROM user_roles WHERE user_id=? ORDER BY role`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// AddClaim attaches a typed claim, idempotently.
func (s *Store) AddClaim(ctx context.Context, userID uuid.UUID, claimType, claimValue string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT OR IGNORE INTO user_claims(user_id, claim_type, claim_value) VALUES (?,?,?)`,
		userID.String(), claimType, claimValue)
	return err
}

// GetPermissions returns the values of the user's permission claims.
func (s *Store) GetPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT claim_value FROM user_claims WHERE user_id=? AND claim_type='permission' ORDER BY claim_value`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// NewRefreshToken mints an opaque token value with the given lifetime.
func (s *Store) NewRefreshToken(lifetime time.Duration) (*RefreshToken, error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &RefreshToken{
		Token:     token,
		CreatedOn: now,
		ExpiresOn: now.Add(lifetime),
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
