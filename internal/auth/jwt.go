package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskflow/internal/identity"
)

// Settings configures token issuance.
type Settings struct {
	Key             string
	Issuer          string
	Audience        string
	LifetimeMinutes int
	RefreshDays     int
}

func (s Settings) lifetime() time.Duration {
	if s.LifetimeMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.LifetimeMinutes) * time.Minute
}

// RefreshLifetime defaults to fifteen days.
func (s Settings) RefreshLifetime() time.Duration {
	days := s.RefreshDays
	if days <= 0 {
		days = 15
	}
	return time.Duration(days) * 24 * time.Hour
}

// Claims carried by every access token.
type Claims struct {
	jwt.RegisteredClaims
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// AccessToken is a signed compact JWT plus its expiry.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// Provider signs and inspects HS256 access tokens.
type Provider struct {
	Settings Settings
	Now      func() time.Time
}

func (p Provider) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

// GenerateToken issues an access token for the user with its roles and
// permissions baked into the claims.
func (p Provider) GenerateToken(u *identity.User, roles, permissions []string) (AccessToken, error) {
	now := p.now()
	expires := now.Add(p.Settings.lifetime())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    p.Settings.Issuer,
			Audience:  jwt.ClaimStrings{p.Settings.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name:        u.UserName,
		Email:       u.Email,
		Roles:       roles,
		Permissions: permissions,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.Settings.Key))
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, ExpiresAt: expires}, nil
}

// ValidateToken checks the signature only and returns the subject user
// id. Expiry is deliberately not enforced here: the refresh flow accepts
// an expired access token as proof of prior possession. Any defect maps
// to uuid.Nil, never an error.
func (p Provider) ValidateToken(token string) uuid.UUID {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(p.Settings.Key), nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil
	}
	return id
}
