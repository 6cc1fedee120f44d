package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

const (
	testSecret   = "test-signing-secret-with-enough-entropy"
	testIssuer   = "solarity-acres"
	testAudience = "solarity-community"
	testUserID   = "5f8a1c2e-9b4d-4f6a-8c3e-1d2b3a4c5d6e"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, testIssuer, testAudience, time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager("", testIssuer, testAudience, time.Hour)
	assert.ErrorIs(t, err, apperrors.ErrMissingSigningSecret)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	groups := []string{"member", "admin", "staff"}
	token, err := m.Sign(testUserID, "grower", "grower@solarity.farm", "https://cdn.solarity.farm/a.png", groups)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.Subject)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, "grower", claims.Username)
	assert.Equal(t, "grower@solarity.farm", claims.Email)
	assert.Equal(t, "https://cdn.solarity.farm/a.png", claims.AvatarURL)
	assert.Equal(t, groups, claims.Groups)
	assert.Equal(t, testIssuer, claims.Issuer)
	require.Len(t, claims.Audience, 1)
	assert.Equal(t, testAudience, claims.Audience[0])
}

func TestSignSetsOneHourExpiry(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)

	// Flip one byte in the payload segment.
	raw := []byte(token)
	mid := len(raw) / 2
	if raw[mid] == 'A' {
		raw[mid] = 'B'
	} else {
		raw[mid] = 'A'
	}

	claims, err := m.Verify(string(raw))
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	assert.Nil(t, claims)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager("a-completely-different-secret", testIssuer, testAudience, time.Hour)
	require.NoError(t, err)

	token, err := other.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
}

func TestVerifyRejectsWrongIssuerOrAudience(t *testing.T) {
	m := newTestManager(t)

	wrongIssuer, err := NewManager(testSecret, "someone-else", testAudience, time.Hour)
	require.NoError(t, err)
	wrongAudience, err := NewManager(testSecret, testIssuer, "other-consumer", time.Hour)
	require.NoError(t, err)

	t1, err := wrongIssuer.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)
	t2, err := wrongAudience.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)

	_, err = m.Verify(t1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	_, err = m.Verify(t2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, err := NewManager(testSecret, testIssuer, testAudience, -time.Minute)
	require.NoError(t, err)

	token, err := m.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager(t)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, err := m.Verify(tok)
		assert.ErrorIs(t, err, apperrors.ErrInvalidAssertion)
	}
}

func TestRemaining(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Sign(testUserID, "grower", "grower@solarity.farm", "", nil)
	require.NoError(t, err)
	claims, err := m.Verify(token)
	require.NoError(t, err)

	remaining := m.Remaining(claims)
	assert.Greater(t, remaining, 59*time.Minute)
	assert.LessOrEqual(t, remaining, time.Hour)

	assert.Equal(t, time.Duration(0), m.Remaining(&AssertionClaims{}))
}
