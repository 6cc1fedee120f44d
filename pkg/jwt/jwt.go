package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// Manager signs and verifies SSO assertions with a shared HMAC secret.
// Assertions are stateless and self-contained; there is no revocation,
// only expiry.
type Manager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewManager creates a new assertion manager.
func NewManager(secret, issuer, audience string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, apperrors.ErrMissingSigningSecret
	}
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
	}, nil
}

// AssertionClaims is the payload of a community SSO assertion.
type AssertionClaims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"userId"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Groups    []string `json:"groups,omitempty"`
}

// Sign creates a signed assertion for the given identity fields.
func (m *Manager) Sign(userID, username, email, avatarURL string, groups []string) (string, error) {
	now := time.Now().UTC()

	claims := AssertionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{m.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    userID,
		Username:  username,
		Email:     email,
		AvatarURL: avatarURL,
		Groups:    groups,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign assertion")
	}

	return signed, nil
}

// Verify validates signature, issuer, audience and expiry. Any failure yields
// a nil payload; callers never see a partially trusted assertion and never
// learn which check failed.
func (m *Manager) Verify(tokenString string) (*AssertionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&AssertionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, apperrors.ErrInvalidAssertion
	}

	claims, ok := token.Claims.(*AssertionClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidAssertion
	}

	return claims, nil
}

// Remaining reports how much validity the claims have left.
func (m *Manager) Remaining(claims *AssertionClaims) time.Duration {
	if claims.ExpiresAt == nil {
		return 0
	}
	return time.Until(claims.ExpiresAt.Time)
}

// TTL returns the configured assertion lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
