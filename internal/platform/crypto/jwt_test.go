package crypto

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	const secret = "test-secret"

	token, jti, err := GenerateTokenWithEmail(secret, "user-1", "ADMIN", "ada@bookhive.local", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, jti)

	claims, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "ada@bookhive.local", claims.Email)
	assert.Equal(t, jti, claims.ID)
}

func TestGenerateToken_UniqueJTIs(t *testing.T) {
	_, jti1, err := GenerateToken("s", "u", "USER", time.Hour)
	require.NoError(t, err)
	_, jti2, err := GenerateToken("s", "u", "USER", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, jti1, jti2)
}

func TestParseToken_Rejects(t *testing.T) {
	const secret = "test-secret"

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := GenerateToken("other", "u", "USER", time.Hour)
		require.NoError(t, err)
		_, err = ParseToken(secret, token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := GenerateToken(secret, "u", "USER", -time.Minute)
		require.NoError(t, err)
		_, err = ParseToken(secret, token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		c := Claims{Sub: "u", RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = ParseToken(secret, token)
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		claims, err := ParseToken(secret, "not.a.valid.token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}
