package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	token, err := GenerateToken(42, secret, time.Hour)
	require.NoError(t, err)

	userID, err := UserIDFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestUserIDFromTokenExpired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	token, err := GenerateToken(1, secret, -time.Minute)
	require.NoError(t, err)

	_, err = UserIDFromToken(token, secret)
	assert.Error(t, err)
}

func TestUserIDFromTokenWrongSecret(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(1, []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = UserIDFromToken(token, []byte("wrong-secret"))
	assert.Error(t, err)
}

func TestUserIDFromTokenGarbage(t *testing.T) {
	t.Parallel()

	_, err := UserIDFromToken("not.a.token", []byte("secret"))
	assert.Error(t, err)
}
