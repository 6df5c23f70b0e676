package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role names seeded at migration time and granted by the services.
const (
	RoleAdmin     = "Admin"
	RoleManager   = "Manager"
	RoleDeveloper = "Developer"
)

// User is the credential-store account backing a developer profile.
// The aggregate owns its refresh tokens.
type User struct {
	ID                 uuid.UUID
	Email              string
	NormalizedEmail    string
	UserName           string
	NormalizedUserName string
	PasswordHash       string
	EmailConfirmed     bool
	CreatedAt          time.Time
	ModifiedAt         *time.Time
	RefreshTokens      []*RefreshToken
}

// NewUser derives the account names from the email the way the
// registration flow expects: user name is the local part.
func NewUser(email string) *User {
	email = strings.TrimSpace(email)
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	return &User{
		ID:                 uuid.New(),
		Email:              email,
		NormalizedEmail:    strings.ToUpper(email),
		UserName:           local,
		NormalizedUserName: strings.ToUpper(local),
		EmailConfirmed:     true,
	}
}

// AddRefreshToken attaches a token to the aggregate; it is persisted on
// the next Store.UpdateUser.
func (u *User) AddRefreshToken(t *RefreshToken) {
	t.UserID = u.ID
	u.RefreshTokens = append(u.RefreshTokens, t)
}

// FindRefreshToken returns the owned token matching the opaque value.
func (u *User) FindRefreshToken(token string) *RefreshToken {
	for _, t := range u.RefreshTokens {
		if t.Token == token {
			return t
		}
	}
	return nil
}

// RefreshToken is a single-use opaque credential for minting new access
// tokens. Several active tokens may coexist, one per device.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	ExpiresOn time.Time
	CreatedOn time.Time
	RevokedOn *time.Time
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresOn)
}

// IsActive means never revoked and not yet expired.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedOn == nil && !t.IsExpired(now)
}

func (t *RefreshToken) Revoke(now time.Time) {
	ts := now
	t.RevokedOn = &ts
}
