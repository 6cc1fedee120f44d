package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenLengthAndUniqueness(t *testing.T) {
	g := NewTokenGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := g.GenerateToken(32)
		require.NoError(t, err)
		// 32 bytes base64-raw encode to 43 characters.
		assert.Len(t, token, 43)
		require.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

func TestGenerateAccessTokenPrefix(t *testing.T) {
	g := NewTokenGenerator()

	token, err := g.GenerateAccessToken()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, AccessTokenPrefix))
	assert.Greater(t, len(token), len(AccessTokenPrefix)+40)
}

func TestHashTokenDeterministic(t *testing.T) {
	g := NewTokenGenerator()

	h1 := g.HashToken("sk_sometoken")
	h2 := g.HashToken("sk_sometoken")
	h3 := g.HashToken("sk_othertoken")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}

func TestConstantTimeEquals(t *testing.T) {
	assert.True(t, ConstantTimeEquals("secret", "secret"))
	assert.False(t, ConstantTimeEquals("secret", "Secret"))
	assert.False(t, ConstantTimeEquals("secret", "secret-longer"))
	assert.True(t, ConstantTimeEquals("", ""))
}
