package auth_test

import (
	"testing"
	"time"

	"taskspace/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseToken(t *testing.T) {
	tokens := auth.NewTokens(testSecret, 24*time.Hour)

	// Generate
	userID := "test-user-id"
	token, err := tokens.Generate(userID)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// Parse
	parsedUserID, err := tokens.Parse(token)

	assert.NoError(t, err)
	assert.Equal(t, userID, parsedUserID)
}

func TestParseToken_InvalidToken(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)

	_, err := tokens.Parse("invalid-token")

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.Equal(t, "invalid token", err.Error())
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := auth.NewTokens("another-secret", time.Hour).Generate("user")
	assert.NoError(t, err)

	_, err = auth.NewTokens(testSecret, time.Hour).Parse(token)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_ExpiredToken(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)

	// Expired an hour ago
	claims := jwt.MapClaims{
		"user_id": "test-user-id",
		"exp":     time.Now().Add(-1 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredToken, _ := token.SignedString([]byte(testSecret))

	_, err := tokens.Parse(expiredToken)

	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseToken_MissingClaims(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)

	// No user_id
	claims := jwt.MapClaims{
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenWithoutUserID, _ := token.SignedString([]byte(testSecret))

	_, err := tokens.Parse(tokenWithoutUserID)

	assert.ErrorIs(t, err, auth.ErrInvalidClaims)
	assert.Equal(t, "invalid claims", err.Error())
}
