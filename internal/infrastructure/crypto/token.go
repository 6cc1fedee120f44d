package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// AccessTokenPrefix marks bearer tokens issued by the community token
// exchange endpoint.
const AccessTokenPrefix = "sk_"

// TokenGenerator provides cryptographically secure token generation.
type TokenGenerator struct{}

// NewTokenGenerator creates a new token generator.
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{}
}

// GenerateToken generates a cryptographically secure random token.
// Returns the token as a URL-safe base64 string.
func (g *TokenGenerator) GenerateToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateAccessToken generates an opaque bearer token (256 bits) with the
// sk_ prefix used by the community user-info exchange.
func (g *TokenGenerator) GenerateAccessToken() (string, error) {
	token, err := g.GenerateToken(32)
	if err != nil {
		return "", err
	}
	return AccessTokenPrefix + token, nil
}

// HashToken creates a SHA-256 hash of a token for storage and lookup, so the
// raw token never sits in memory longer than a request.
func (g *TokenGenerator) HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ConstantTimeEquals compares two secrets without leaking length-adjusted
// timing.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
